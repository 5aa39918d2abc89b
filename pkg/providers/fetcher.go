package providers

import (
	"context"
	"fmt"
)

// Site fetches pages and images from a cover provider with its headers.
type Site struct {
	cfg    Provider
	client HTTPClient
}

// NewSite builds a Site; a nil client falls back to DefaultHTTPClient.
func NewSite(cfg Provider, client HTTPClient) *Site {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &Site{cfg: cfg.Normalize(), client: client}
}

// Provider returns the normalized provider settings.
func (s *Site) Provider() Provider { return s.cfg }

// Resolve makes raw absolute against the provider base URL.
func (s *Site) Resolve(raw string) string {
	return ResolveURL(raw, s.cfg.BaseURL+"/")
}

// FetchHomepage returns the raw homepage HTML.
func (s *Site) FetchHomepage(ctx context.Context) ([]byte, error) {
	return s.FetchPage(ctx, s.cfg.BaseURL)
}

// FetchPage returns the raw body of a page on the provider.
func (s *Site) FetchPage(ctx context.Context, url string) ([]byte, error) {
	return fetchBody(ctx, s.client, url, s.cfg.ID, Headers(s.cfg))
}

// FetchImage downloads a cover image.
func (s *Site) FetchImage(ctx context.Context, url string) ([]byte, error) {
	body, err := fetchBody(ctx, s.client, url, s.cfg.ID, Headers(s.cfg))
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("%s image %s is empty", s.cfg.ID, url)
	}
	return body, nil
}
