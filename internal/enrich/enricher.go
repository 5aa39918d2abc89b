// Package enrich adds model-generated news, a daily digest and topic filters
// to scraped covers. Every failure is contained: a failed unit simply yields
// no enrichment.
package enrich

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/samber/lo"

	"github.com/joaobzao/capas-harvester/internal/catalog"
	"github.com/joaobzao/capas-harvester/internal/domain"
	"github.com/joaobzao/capas-harvester/internal/logger"
	"github.com/joaobzao/capas-harvester/pkg/llm"
)

const (
	DefaultBatchSize        = 5
	DefaultBatchDelay       = 5 * time.Second
	DefaultDigestPerSection = 5

	imageMIME = "image/jpeg"
)

// Enricher is the optional model capability of a run. Disabled is the
// absent capability.
type Enricher interface {
	// Name identifies the backing model, empty when disabled.
	Name() string
	// AnalyzeCovers attaches news items to covers of the analyzed sections
	// in place and returns how many covers received news.
	AnalyzeCovers(ctx context.Context, sections *domain.Sections) int
	// Digest returns the cross-source top stories, or nil.
	Digest(ctx context.Context, sections *domain.Sections) []domain.DigestEntry
	// Filters returns topic tags derived from the attached news, or nil.
	Filters(ctx context.Context, sections *domain.Sections) []string
}

// ImageSource downloads cover images.
type ImageSource interface {
	FetchImage(ctx context.Context, url string) ([]byte, error)
}

// Options tunes batching and rate limiting.
type Options struct {
	BatchSize        int
	BatchDelay       time.Duration
	DigestPerSection int
	Sections         []string
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.BatchDelay < 0 {
		o.BatchDelay = 0
	}
	if o.DigestPerSection <= 0 {
		o.DigestPerSection = DefaultDigestPerSection
	}
	if len(o.Sections) == 0 {
		o.Sections = slices.Clone(catalog.AnalyzedSections)
	}
	return o
}

// Disabled performs no model calls and produces nothing.
type Disabled struct{}

func (Disabled) Name() string                                                  { return "" }
func (Disabled) AnalyzeCovers(context.Context, *domain.Sections) int           { return 0 }
func (Disabled) Digest(context.Context, *domain.Sections) []domain.DigestEntry { return nil }
func (Disabled) Filters(context.Context, *domain.Sections) []string            { return nil }

// FromSettings builds the model client described by settings. A provider
// without credentials yields Disabled and a warning; other errors are returned.
func FromSettings(settings llm.Settings, images ImageSource, opts Options, log logger.Logger) (Enricher, error) {
	log = logger.Ensure(log)

	client, err := llm.New(settings)
	if errors.Is(err, llm.ErrDisabled) {
		log.WarnObj("model credentials not set, enrichment disabled", "enrichment_disabled", map[string]any{
			"provider": settings.Provider,
		})
		return Disabled{}, nil
	}
	if err != nil {
		return nil, err
	}

	log.InfoObj("model enrichment enabled", "enrichment_enabled", map[string]any{
		"model": client.Name(),
	})
	return New(client, images, opts, log), nil
}

// ModelEnricher enriches covers through an llm.Client.
type ModelEnricher struct {
	client llm.Client
	images ImageSource
	opts   Options
	log    logger.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// New returns an Enricher backed by client; a nil client yields Disabled.
func New(client llm.Client, images ImageSource, opts Options, log logger.Logger) Enricher {
	if client == nil || images == nil {
		return Disabled{}
	}
	return &ModelEnricher{
		client: client,
		images: images,
		opts:   opts.withDefaults(),
		log:    logger.Ensure(log),
		sleep:  sleepCtx,
	}
}

func (e *ModelEnricher) Name() string { return e.client.Name() }

// AnalyzeCovers sends the covers of each analyzed section to the model in
// fixed-size batches, sleeping BatchDelay before each call.
func (e *ModelEnricher) AnalyzeCovers(ctx context.Context, sections *domain.Sections) int {
	enriched := 0
	for _, name := range e.opts.Sections {
		covers, ok := sections.Get(name)
		if !ok || len(covers) == 0 {
			continue
		}

		for start, batchNo := 0, 0; start < len(covers); start, batchNo = start+e.opts.BatchSize, batchNo+1 {
			if ctx.Err() != nil {
				return enriched
			}
			// batch aliases covers so attached news lands in the section.
			batch := covers[start:min(start+e.opts.BatchSize, len(covers))]
			news, err := e.analyzeBatch(ctx, batch)
			if err != nil {
				e.log.WarnObj("cover batch analysis failed", "analysis_error", map[string]any{
					"section": name,
					"batch":   batchNo,
					"covers":  len(batch),
					"error":   err.Error(),
				})
				continue
			}
			n := domain.AttachNews(batch, news)
			enriched += n
			e.log.InfoObj("cover batch analyzed", "analysis_batch", map[string]any{
				"section":  name,
				"batch":    batchNo,
				"covers":   len(batch),
				"enriched": n,
			})
		}
		sections.Set(name, covers)
	}
	return enriched
}

func (e *ModelEnricher) analyzeBatch(ctx context.Context, batch []domain.Cover) (map[string][]domain.NewsItem, error) {
	names, images := e.loadImages(ctx, batch)
	if len(images) == 0 {
		return nil, errors.New("no cover images could be downloaded")
	}

	text, err := e.generate(ctx, llm.Request{Prompt: buildCoverAnalysisPrompt(names), Images: images})
	if err != nil {
		return nil, err
	}
	return ParseCoverNews(text)
}

// Digest asks for the day's top stories from the leading national and sports covers.
func (e *ModelEnricher) Digest(ctx context.Context, sections *domain.Sections) []domain.DigestEntry {
	var picked []domain.Cover
	for _, name := range []string{catalog.SectionNational, catalog.SectionSports} {
		covers, _ := sections.Get(name)
		picked = append(picked, lo.Slice(covers, 0, e.opts.DigestPerSection)...)
	}
	if len(picked) == 0 {
		return nil
	}

	names, images := e.loadImages(ctx, picked)
	if len(images) == 0 {
		e.log.WarnObj("digest skipped, no cover images", "digest_error", nil)
		return nil
	}

	e.log.InfoObj("generating daily digest", "digest_start", map[string]any{"covers": len(images)})
	text, err := e.generate(ctx, llm.Request{Prompt: buildDigestPrompt(names), Images: images})
	if err != nil {
		e.log.WarnObj("digest generation failed", "digest_error", map[string]any{"error": err.Error()})
		return nil
	}

	entries, err := ParseDigest(text)
	if err != nil {
		e.log.WarnObj("digest reply unusable", "digest_error", map[string]any{"error": err.Error()})
		return nil
	}
	return entries
}

// Filters asks for topic tags covering every news item attached so far.
func (e *ModelEnricher) Filters(ctx context.Context, sections *domain.Sections) []string {
	var items []domain.NewsItem
	sections.Each(func(_ string, covers []domain.Cover) {
		for _, c := range covers {
			items = append(items, c.News...)
		}
	})
	if len(items) == 0 {
		return nil
	}

	text, err := e.generate(ctx, llm.Request{Prompt: buildFiltersPrompt(items)})
	if err != nil {
		e.log.WarnObj("filter generation failed", "filters_error", map[string]any{"error": err.Error()})
		return nil
	}

	topics, err := ParseFilters(text)
	if err != nil {
		e.log.WarnObj("filters reply unusable", "filters_error", map[string]any{"error": err.Error()})
		return nil
	}
	return topics
}

// loadImages downloads the cover images one by one. Covers whose image
// cannot be fetched are left out of both returned slices.
func (e *ModelEnricher) loadImages(ctx context.Context, covers []domain.Cover) ([]string, []llm.Image) {
	names := make([]string, 0, len(covers))
	images := make([]llm.Image, 0, len(covers))
	for _, c := range covers {
		data, err := e.images.FetchImage(ctx, c.URL)
		if err != nil {
			e.log.WarnObj("cover image download failed", "image_error", map[string]any{
				"name":  c.Name,
				"url":   c.URL,
				"error": err.Error(),
			})
			continue
		}
		names = append(names, c.Name)
		images = append(images, llm.Image{MIMEType: imageMIME, Data: data})
	}
	return names, images
}

// generate sleeps BatchDelay before every model call to stay under the
// provider's request rate.
func (e *ModelEnricher) generate(ctx context.Context, req llm.Request) (string, error) {
	if e.opts.BatchDelay > 0 {
		if err := e.sleep(ctx, e.opts.BatchDelay); err != nil {
			return "", err
		}
	}
	return e.client.Generate(ctx, req)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
