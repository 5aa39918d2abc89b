// Package app assembles a pipeline from configuration.
package app

import (
	"context"
	"fmt"

	"github.com/joaobzao/capas-harvester/internal/config"
	"github.com/joaobzao/capas-harvester/internal/crawler"
	"github.com/joaobzao/capas-harvester/internal/enrich"
	"github.com/joaobzao/capas-harvester/internal/logger"
	"github.com/joaobzao/capas-harvester/internal/pipeline"
	"github.com/joaobzao/capas-harvester/internal/writer"
	"github.com/joaobzao/capas-harvester/pkg/httpclient"
	"github.com/joaobzao/capas-harvester/pkg/providers"
	"github.com/joaobzao/capas-harvester/pkg/publishers"
)

// App owns the long-lived collaborators of a pipeline.
type App struct {
	Pipeline   *pipeline.Pipeline
	publishers *publishers.Dispatcher
}

// Build wires scraper, enricher, writer and publishers from cfg.
func Build(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	log = logger.Ensure(log)

	provider := cfg.Provider()
	site := providers.NewSite(provider, httpclient.NewRestyClient(cfg.Source.Timeout))

	enricher, err := enrich.FromSettings(cfg.LLM(), site, cfg.EnrichOptions(), log)
	if err != nil {
		return nil, fmt.Errorf("model client: %w", err)
	}

	dispatcher, err := publishers.Open(ctx, cfg.PublishersFile, log)
	if err != nil {
		return nil, fmt.Errorf("publishers: %w", err)
	}

	return &App{
		Pipeline: &pipeline.Pipeline{
			ProviderID: provider.ID,
			Scraper:    crawler.NewScraper(site, log),
			Enricher:   enricher,
			Writer:     writer.New(cfg.Output.Dir, log),
			Publisher:  dispatcher,
			Log:        log,
		},
		publishers: dispatcher,
	}, nil
}

// Close releases publisher connections.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	return a.publishers.Close()
}
