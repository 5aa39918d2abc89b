package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joaobzao/capas-harvester/internal/domain"
)

func TestParseCoverNews(t *testing.T) {
	reply := "Here you go:\n```json\n" + `{
  "Público": [{"headline": " Orçamento aprovado ", "summary": "Votação final.", "category": "Política"}, {"headline": ""}],
  "Expresso": [],
  " ": [{"headline": "orphan"}]
}` + "\n```"

	got, err := ParseCoverNews(reply)
	require.NoError(t, err)
	assert.Equal(t, map[string][]domain.NewsItem{
		"Público": {{Headline: "Orçamento aprovado", Summary: "Votação final.", Category: "Política"}},
	}, got)
}

func TestParseCoverNewsRejectsNonObject(t *testing.T) {
	_, err := ParseCoverNews("sorry, no covers")
	assert.Error(t, err)

	_, err = ParseCoverNews(`[{"headline":"x"}]`)
	assert.Error(t, err)
}

func TestParseDigestShapes(t *testing.T) {
	bare := `[{"title":"Orçamento","summary":"Aprovado.","sources":["Público"," Expresso ",""],"category":"national"},{"title":" "}]`
	got, err := ParseDigest(bare)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []string{"Público", "Expresso"}, got[0].Sources)

	wrapped := `{"digest":[{"title":"Clássico","summary":"Empate.","category":"Desporto"},{"title":"Greve","category":"weather"}]}`
	got, err = ParseDigest(wrapped)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, domain.DigestSports, got[0].Category)
	assert.Equal(t, []string{}, got[0].Sources)
	assert.Equal(t, "", got[1].Category)

	_, err = ParseDigest(`{"items":[]}`)
	assert.Error(t, err)
}

func TestParseFilters(t *testing.T) {
	got, err := ParseFilters("```\n[\"Política\", \" Futebol \", \"\", \"Política\"]\n```")
	require.NoError(t, err)
	assert.Equal(t, []string{"Política", "Futebol"}, got)

	_, err = ParseFilters(`["", "  "]`)
	assert.Error(t, err)

	_, err = ParseFilters(`{"filters":["x"]}`)
	assert.Error(t, err)
}
