package catalog

import (
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/joaobzao/capas-harvester/internal/domain"
)

// Arrange applies the editorial rules to freshly scraped sections and returns
// a new map in the fixed output order: national, sports, economy (if
// present), regional (if present, sorted by name). Unknown sections are
// dropped. The input is not modified.
func Arrange(in *domain.Sections) *domain.Sections {
	national, _ := in.Get(SectionNational)
	sports, _ := in.Get(SectionSports)

	moved, kept := lo.FilterReject(national, func(c domain.Cover, _ int) bool {
		return lo.Contains(SportsOutlets, c.Name)
	})

	out := domain.NewSections()
	out.Set(SectionNational, kept)
	out.Set(SectionSports, OrderSports(append(slices.Clone(sports), moved...)))

	if economy, ok := in.Get(SectionEconomy); ok {
		out.Set(SectionEconomy, slices.Clone(economy))
	}
	if regional, ok := in.Get(SectionRegional); ok {
		sorted := slices.Clone(regional)
		slices.SortStableFunc(sorted, func(a, b domain.Cover) int {
			return strings.Compare(a.Name, b.Name)
		})
		out.Set(SectionRegional, sorted)
	}
	return out
}

// OrderSports puts the preferred outlets first, in preference order, followed
// by every other cover in its original order.
func OrderSports(covers []domain.Cover) []domain.Cover {
	preferred, rest := lo.FilterReject(covers, func(c domain.Cover, _ int) bool {
		return lo.Contains(SportsPreference, c.Name)
	})

	slices.SortStableFunc(preferred, func(a, b domain.Cover) int {
		return rank(a.Name) - rank(b.Name)
	})

	out := make([]domain.Cover, 0, len(covers))
	out = append(out, preferred...)
	return append(out, rest...)
}

func rank(name string) int {
	if i := slices.Index(SportsPreference, name); i >= 0 {
		return i
	}
	return len(SportsPreference)
}
