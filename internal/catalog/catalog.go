// Package catalog holds the editorial rules applied to scraped sections:
// which homepage sections are harvested, where sports outlets belong and
// how the sports section is ordered.
package catalog

import (
	"slices"
	"strings"
)

// Canonical section keys, in output order.
const (
	SectionNational = "Jornais Nacionais"
	SectionSports   = "Desporto"
	SectionEconomy  = "Economia e Gestão"
	SectionRegional = "Regionais"
)

// AllowedSections lists the homepage headings that are harvested.
var AllowedSections = []string{
	SectionNational,
	SectionSports,
	SectionEconomy,
	SectionRegional,
	"Jornais Regionais",
}

// SportsOutlets are published under the national heading on the homepage
// but belong in the sports section.
var SportsOutlets = []string{"O Jogo", "A Bola", "Record"}

// SportsPreference is the fixed order of the leading sports covers.
var SportsPreference = []string{"A Bola", "Record", "O Jogo"}

// AnalyzedSections are the sections sent for per-cover news analysis.
var AnalyzedSections = []string{SectionNational, SectionSports}

// IsAllowed reports whether heading is one of the harvested sections.
func IsAllowed(heading string) bool {
	return slices.Contains(AllowedSections, heading)
}

// CanonicalKey maps a homepage heading to its output key. All regional
// variants share one key.
func CanonicalKey(heading string) string {
	if strings.Contains(heading, SectionRegional) {
		return SectionRegional
	}
	return heading
}
