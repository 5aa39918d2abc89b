package publishers

import (
	"context"
	"fmt"
	"time"

	"github.com/joaobzao/capas-harvester/pkg/httpclient"
	"github.com/joaobzao/capas-harvester/pkg/providers"
)

// httpPublisher posts the event as JSON to a webhook.
type httpPublisher struct {
	id     string
	cfg    HTTPConfig
	client httpclient.Client
	log    Logger
}

func newHTTPPublisher(_ context.Context, cfg Config, log Logger) (Publisher, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("publisher %q missing http configuration", cfg.ID)
	}
	timeout := time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second
	return &httpPublisher{
		id:     cfg.ID,
		cfg:    *cfg.HTTP,
		client: httpclient.NewRestyClient(timeout),
		log:    ensureLogger(log),
	}, nil
}

func (p *httpPublisher) ID() string   { return p.id }
func (p *httpPublisher) Type() string { return TypeHTTP }
func (p *httpPublisher) Close() error { return nil }

// Publish sends the event; any non-2xx status is an error.
func (p *httpPublisher) Publish(ctx context.Context, evt Event) error {
	resp, err := p.client.Do(ctx, p.cfg.Method, p.cfg.URL, p.cfg.Headers, evt)
	if err != nil {
		return fmt.Errorf("http publish: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("http publish status %d: %s", resp.StatusCode(), providers.ResponseSnippet(resp.Body()))
	}
	p.log.DebugObj("http publisher delivered event", "publisher_http_delivery", map[string]any{
		"url":    p.cfg.URL,
		"status": resp.StatusCode(),
	})
	return nil
}
