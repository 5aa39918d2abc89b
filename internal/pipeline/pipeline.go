// Package pipeline runs one harvest: scrape, arrange, enrich, write, publish.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/joaobzao/capas-harvester/internal/catalog"
	"github.com/joaobzao/capas-harvester/internal/domain"
	"github.com/joaobzao/capas-harvester/internal/enrich"
	"github.com/joaobzao/capas-harvester/internal/logger"
	"github.com/joaobzao/capas-harvester/internal/writer"
	"github.com/joaobzao/capas-harvester/pkg/publishers"
)

// Scraper produces the raw sections of a run.
type Scraper interface {
	Scrape(ctx context.Context) (*domain.Sections, error)
}

// Publisher is notified after the artifacts are written.
type Publisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// Result summarizes a completed run.
type Result struct {
	RunID         string           `json:"run_id"`
	StartedAt     time.Time        `json:"started_at"`
	FinishedAt    time.Time        `json:"finished_at"`
	Sections      map[string]int   `json:"sections"`
	Covers        int              `json:"covers"`
	Enriched      int              `json:"enriched"`
	DigestEntries int              `json:"digest_entries"`
	Filters       int              `json:"filters"`
	Artifacts     writer.Artifacts `json:"artifacts"`
	Published     int              `json:"published"`
}

// Duration is the wall time of the run.
func (r Result) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }

// Pipeline wires the run stages together.
type Pipeline struct {
	ProviderID string
	Scraper    Scraper
	Enricher   enrich.Enricher
	Writer     *writer.Writer
	Publisher  Publisher
	Log        logger.Logger

	now   func() time.Time
	newID func() string
}

func (p *Pipeline) init() {
	if p.Enricher == nil {
		p.Enricher = enrich.Disabled{}
	}
	p.Log = logger.Ensure(p.Log)
	if p.now == nil {
		p.now = time.Now
	}
	if p.newID == nil {
		p.newID = uuid.NewString
	}
}

// Run executes one harvest. Only a homepage failure or an output write
// failure is returned as an error; every other failure degrades the output.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	p.init()
	res := Result{RunID: p.newID(), StartedAt: p.now()}
	fields := func(extra map[string]any) map[string]any {
		extra["run_id"] = res.RunID
		return extra
	}

	p.Log.InfoObj("harvest started", "run_start", fields(map[string]any{
		"provider_id": p.ProviderID,
		"enricher":    p.Enricher.Name(),
	}))

	raw, err := p.Scraper.Scrape(ctx)
	if err != nil {
		return res, fmt.Errorf("scrape: %w", err)
	}

	sections := catalog.Arrange(raw)
	res.Sections = sections.Counts()
	res.Covers = sections.Total()
	p.Log.InfoObj("covers arranged", "run_arranged", fields(map[string]any{
		"sections": res.Sections,
		"covers":   res.Covers,
	}))

	res.Enriched = p.Enricher.AnalyzeCovers(ctx, sections)
	digest := p.Enricher.Digest(ctx, sections)
	filters := p.Enricher.Filters(ctx, sections)
	res.DigestEntries = len(digest)
	res.Filters = len(filters)

	res.Artifacts, err = p.Writer.Write(sections, digest, filters)
	if err != nil {
		return res, fmt.Errorf("write artifacts: %w", err)
	}
	res.FinishedAt = p.now()

	if p.Publisher != nil {
		res.Published, _ = p.Publisher.Publish(ctx, publishers.Event{
			ID:          res.RunID,
			Type:        publishers.EventArtifactsPublished,
			ProviderID:  p.ProviderID,
			GeneratedAt: res.FinishedAt,
			Artifacts:   res.Artifacts.Paths(),
			Sections:    res.Sections,
			Enriched:    res.Enriched,
		})
	}

	p.Log.InfoObj("harvest finished", "run_done", fields(map[string]any{
		"covers":      res.Covers,
		"enriched":    res.Enriched,
		"digest":      res.DigestEntries,
		"filters":     res.Filters,
		"published":   res.Published,
		"duration_ms": res.Duration().Milliseconds(),
	}))
	return res, nil
}
