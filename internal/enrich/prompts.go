package enrich

import (
	"fmt"
	"strings"

	"github.com/joaobzao/capas-harvester/internal/domain"
)

const coverAnalysisPrompt = `Analyze these newspaper covers. Extract the main news stories into a JSON Object where the key is the Newspaper Name and the value is a list of news items.
For each story, provide:
- 'headline': The main title.
- 'summary': A brief summary.
- 'category': A category (e.g., 'Futebol', 'Política', 'Economia').

The input images correspond to the following newspapers in order:
`

const digestPrompt = `You are the editor of a Portuguese daily press review. The images are today's front pages of national and sports newspapers.
Identify the most important stories of the day across all covers. Merge stories that appear on several covers into one entry.
For each story, provide:
- 'title': A short headline in Portuguese.
- 'summary': Two sentences in Portuguese.
- 'sources': The names of the newspapers that feature it.
- 'category': "national" or "sports".

The input images correspond to the following newspapers in order:
`

const filtersPrompt = `Below are news headlines extracted from today's Portuguese newspaper covers, with their categories.
Produce a short list (at most 15) of topic tags a reader could use to filter them, in Portuguese, each one or two words.
Return ONLY a JSON array of strings.

Headlines:
`

func buildCoverAnalysisPrompt(names []string) string {
	var sb strings.Builder
	sb.WriteString(coverAnalysisPrompt)
	writeNumbered(&sb, names)
	sb.WriteString("\nReturn ONLY the JSON object format: {\"Newspaper Name\": [{\"headline\":..., ...}]}")
	return sb.String()
}

func buildDigestPrompt(names []string) string {
	var sb strings.Builder
	sb.WriteString(digestPrompt)
	writeNumbered(&sb, names)
	sb.WriteString("\nReturn ONLY a JSON array: [{\"title\":..., \"summary\":..., \"sources\":[...], \"category\":...}]")
	return sb.String()
}

func buildFiltersPrompt(items []domain.NewsItem) string {
	var sb strings.Builder
	sb.WriteString(filtersPrompt)
	for _, it := range items {
		if it.Category != "" {
			fmt.Fprintf(&sb, "- %s [%s]\n", it.Headline, it.Category)
		} else {
			fmt.Fprintf(&sb, "- %s\n", it.Headline)
		}
	}
	return sb.String()
}

func writeNumbered(sb *strings.Builder, names []string) {
	for i, name := range names {
		fmt.Fprintf(sb, "%d. %s\n", i+1, name)
	}
}
