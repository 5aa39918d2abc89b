package enrich

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joaobzao/capas-harvester/internal/catalog"
	"github.com/joaobzao/capas-harvester/internal/domain"
	"github.com/joaobzao/capas-harvester/pkg/llm"
)

type fakeModel struct {
	mu       sync.Mutex
	requests []llm.Request
	reply    func(req llm.Request) (string, error)
}

func (f *fakeModel) Name() string { return "fake:model" }

func (f *fakeModel) Generate(_ context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	return f.reply(req)
}

type fakeImages struct {
	failing map[string]bool
	calls   int
}

func (f *fakeImages) FetchImage(_ context.Context, url string) ([]byte, error) {
	f.calls++
	if f.failing[url] {
		return nil, errors.New("boom")
	}
	return []byte("img:" + url), nil
}

func sampleSections() *domain.Sections {
	s := domain.NewSections()
	s.Set(catalog.SectionNational, []domain.Cover{
		domain.NewCover("Público", "https://img/publico.jpg"),
		domain.NewCover("Expresso", "https://img/expresso.jpg"),
		domain.NewCover("Correio da Manhã", "https://img/cm.jpg"),
	})
	s.Set(catalog.SectionSports, []domain.Cover{
		domain.NewCover("A Bola", "https://img/abola.jpg"),
	})
	s.Set(catalog.SectionRegional, []domain.Cover{
		domain.NewCover("Diário do Minho", "https://img/minho.jpg"),
	})
	return s
}

func newTestEnricher(model *fakeModel, images *fakeImages, opts Options) *ModelEnricher {
	e := New(model, images, opts, nil).(*ModelEnricher)
	e.sleep = func(context.Context, time.Duration) error { return nil }
	return e
}

func TestNewWithoutClientIsDisabled(t *testing.T) {
	e := New(nil, &fakeImages{}, Options{}, nil)
	assert.Equal(t, Disabled{}, e)

	s := sampleSections()
	assert.Zero(t, e.AnalyzeCovers(context.Background(), s))
	assert.Nil(t, e.Digest(context.Background(), s))
	assert.Nil(t, e.Filters(context.Background(), s))
}

func TestFromSettingsWithoutKeyIsDisabled(t *testing.T) {
	e, err := FromSettings(llm.Settings{Provider: llm.ProviderGemini}, &fakeImages{}, Options{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "", e.Name())
	assert.IsType(t, Disabled{}, e)
}

func TestAnalyzeCoversBatchesAnalyzedSections(t *testing.T) {
	model := &fakeModel{reply: func(req llm.Request) (string, error) {
		switch {
		case strings.Contains(req.Prompt, "1. Público"):
			return "```json\n{\"Público\":[{\"headline\":\"Orçamento aprovado\",\"category\":\"Política\"}],\"Expresso\":[{\"headline\":\"Eleições\"}]}\n```", nil
		case strings.Contains(req.Prompt, "1. Correio da Manhã"):
			return `{"correio-da-manha":[{"headline":"Incêndio"}]}`, nil
		default:
			return `{"A Bola":[]}`, nil
		}
	}}
	images := &fakeImages{}
	e := newTestEnricher(model, images, Options{BatchSize: 2})

	s := sampleSections()
	n := e.AnalyzeCovers(context.Background(), s)
	assert.Equal(t, 3, n)

	// two national batches plus one sports batch; regional is not analyzed
	require.Len(t, model.requests, 3)
	assert.Len(t, model.requests[0].Images, 2)
	assert.Equal(t, "image/jpeg", model.requests[0].Images[0].MIMEType)
	assert.Equal(t, []byte("img:https://img/publico.jpg"), model.requests[0].Images[0].Data)

	national, _ := s.Get(catalog.SectionNational)
	require.Len(t, national[0].News, 1)
	assert.Equal(t, "Orçamento aprovado", national[0].News[0].Headline)
	assert.Equal(t, "Eleições", national[1].News[0].Headline)
	assert.Equal(t, "Incêndio", national[2].News[0].Headline)

	sports, _ := s.Get(catalog.SectionSports)
	assert.Empty(t, sports[0].News)
	regional, _ := s.Get(catalog.SectionRegional)
	assert.Empty(t, regional[0].News)
}

func TestAnalyzeCoversMalformedReplyIsContained(t *testing.T) {
	model := &fakeModel{reply: func(req llm.Request) (string, error) {
		if strings.Contains(req.Prompt, "1. Público") {
			return "I cannot read these images", nil
		}
		return `{"A Bola":[{"headline":"Vitória"}]}`, nil
	}}
	e := newTestEnricher(model, &fakeImages{}, Options{BatchSize: 5})

	s := sampleSections()
	assert.Equal(t, 1, e.AnalyzeCovers(context.Background(), s))

	national, _ := s.Get(catalog.SectionNational)
	for _, c := range national {
		assert.Empty(t, c.News)
	}
	sports, _ := s.Get(catalog.SectionSports)
	assert.Equal(t, "Vitória", sports[0].News[0].Headline)
}

func TestAnalyzeCoversModelErrorIsContained(t *testing.T) {
	model := &fakeModel{reply: func(llm.Request) (string, error) { return "", errors.New("quota exceeded") }}
	e := newTestEnricher(model, &fakeImages{}, Options{})

	s := sampleSections()
	assert.Zero(t, e.AnalyzeCovers(context.Background(), s))
	assert.Len(t, model.requests, 2)
}

func TestAnalyzeCoversDropsCoversWithoutImage(t *testing.T) {
	model := &fakeModel{reply: func(llm.Request) (string, error) { return `{}`, nil }}
	images := &fakeImages{failing: map[string]bool{"https://img/expresso.jpg": true}}
	e := newTestEnricher(model, images, Options{Sections: []string{catalog.SectionNational}})

	e.AnalyzeCovers(context.Background(), sampleSections())
	require.Len(t, model.requests, 1)
	assert.Len(t, model.requests[0].Images, 2)
	assert.Contains(t, model.requests[0].Prompt, "2. Correio da Manhã")
	assert.NotContains(t, model.requests[0].Prompt, "Expresso")
}

func TestGenerateWaitsBetweenCalls(t *testing.T) {
	model := &fakeModel{reply: func(llm.Request) (string, error) { return `{}`, nil }}
	e := newTestEnricher(model, &fakeImages{}, Options{BatchSize: 1, BatchDelay: time.Minute})

	var waits []time.Duration
	e.sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}

	e.AnalyzeCovers(context.Background(), sampleSections())
	require.Len(t, model.requests, 4)
	assert.Equal(t, []time.Duration{time.Minute, time.Minute, time.Minute, time.Minute}, waits)
}

func TestGenerateStopsWhenContextCancelled(t *testing.T) {
	model := &fakeModel{reply: func(llm.Request) (string, error) { return `{}`, nil }}
	e := New(model, &fakeImages{}, Options{BatchSize: 1, BatchDelay: time.Hour}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e.AnalyzeCovers(ctx, sampleSections())
	assert.Empty(t, model.requests)
}

func TestDigestUsesLeadingNationalAndSportsCovers(t *testing.T) {
	model := &fakeModel{reply: func(llm.Request) (string, error) {
		return `{"digest":[{"title":"Orçamento","summary":"Aprovado.","sources":["Público","Público","Expresso"],"category":"Nacional"}]}`, nil
	}}
	e := newTestEnricher(model, &fakeImages{}, Options{DigestPerSection: 2})

	entries := e.Digest(context.Background(), sampleSections())
	require.Len(t, entries, 1)
	assert.Equal(t, []string{"Público", "Expresso"}, entries[0].Sources)
	assert.Equal(t, domain.DigestNational, entries[0].Category)

	require.Len(t, model.requests, 1)
	assert.Len(t, model.requests[0].Images, 3)
	assert.Contains(t, model.requests[0].Prompt, "3. A Bola")
}

func TestDigestFailureYieldsNothing(t *testing.T) {
	model := &fakeModel{reply: func(llm.Request) (string, error) { return "not json", nil }}
	e := newTestEnricher(model, &fakeImages{}, Options{})
	assert.Nil(t, e.Digest(context.Background(), sampleSections()))

	assert.Nil(t, e.Digest(context.Background(), domain.NewSections()))
	assert.Len(t, model.requests, 1)
}

func TestFiltersNeedAttachedNews(t *testing.T) {
	model := &fakeModel{reply: func(llm.Request) (string, error) { return `["Política", "Futebol", "Política"]`, nil }}
	e := newTestEnricher(model, &fakeImages{}, Options{})

	s := sampleSections()
	assert.Nil(t, e.Filters(context.Background(), s))
	assert.Empty(t, model.requests)

	national, _ := s.Get(catalog.SectionNational)
	national[0].News = []domain.NewsItem{{Headline: "Orçamento aprovado", Category: "Política"}}

	assert.Equal(t, []string{"Política", "Futebol"}, e.Filters(context.Background(), s))
	require.Len(t, model.requests, 1)
	assert.Empty(t, model.requests[0].Images)
	assert.Contains(t, model.requests[0].Prompt, "- Orçamento aprovado [Política]")
}
