package enrich

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/joaobzao/capas-harvester/internal/domain"
	"github.com/joaobzao/capas-harvester/pkg/llm"
)

// ParseCoverNews decodes a batch analysis reply: a JSON object keyed by
// newspaper name whose values are lists of news items. Items without a
// headline are dropped.
func ParseCoverNews(text string) (map[string][]domain.NewsItem, error) {
	var raw map[string][]domain.NewsItem
	if err := json.Unmarshal([]byte(llm.CleanJSONResponse(text)), &raw); err != nil {
		return nil, fmt.Errorf("decode cover news: %w", err)
	}

	out := make(map[string][]domain.NewsItem, len(raw))
	for name, items := range raw {
		name = strings.TrimSpace(name)
		kept := lo.FilterMap(items, func(it domain.NewsItem, _ int) (domain.NewsItem, bool) {
			it.Headline = strings.TrimSpace(it.Headline)
			it.Summary = strings.TrimSpace(it.Summary)
			it.Category = strings.TrimSpace(it.Category)
			return it, it.Headline != ""
		})
		if name == "" || len(kept) == 0 {
			continue
		}
		out[name] = kept
	}
	return out, nil
}

// ParseDigest decodes a digest reply: a JSON array of entries, optionally
// wrapped as {"digest": [...]}. Entries without a title are dropped and
// unknown categories are left empty.
func ParseDigest(text string) ([]domain.DigestEntry, error) {
	clean := []byte(llm.CleanJSONResponse(text))

	var entries []domain.DigestEntry
	if err := json.Unmarshal(clean, &entries); err != nil {
		var wrapped struct {
			Digest []domain.DigestEntry `json:"digest"`
		}
		if werr := json.Unmarshal(clean, &wrapped); werr != nil || wrapped.Digest == nil {
			return nil, fmt.Errorf("decode digest: %w", err)
		}
		entries = wrapped.Digest
	}

	return lo.FilterMap(entries, func(e domain.DigestEntry, _ int) (domain.DigestEntry, bool) {
		e.Title = strings.TrimSpace(e.Title)
		e.Summary = strings.TrimSpace(e.Summary)
		e.Category = normalizeCategory(e.Category)
		e.Sources = lo.Uniq(lo.Compact(lo.Map(e.Sources, func(s string, _ int) string {
			return strings.TrimSpace(s)
		})))
		if e.Sources == nil {
			e.Sources = []string{}
		}
		return e, e.Title != ""
	}), nil
}

// ParseFilters decodes a filters reply: a JSON array of topic strings.
// Blank and duplicate topics are removed, first occurrence wins.
func ParseFilters(text string) ([]string, error) {
	var raw []string
	if err := json.Unmarshal([]byte(llm.CleanJSONResponse(text)), &raw); err != nil {
		return nil, fmt.Errorf("decode filters: %w", err)
	}

	topics := lo.Uniq(lo.Compact(lo.Map(raw, func(s string, _ int) string {
		return strings.TrimSpace(s)
	})))
	if len(topics) == 0 {
		return nil, errors.New("filters reply is empty")
	}
	return topics, nil
}

func normalizeCategory(c string) string {
	switch strings.ToLower(strings.TrimSpace(c)) {
	case domain.DigestNational, "nacional", "nacionais":
		return domain.DigestNational
	case domain.DigestSports, "desporto", "sport":
		return domain.DigestSports
	default:
		return ""
	}
}
