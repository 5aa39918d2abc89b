package providers

import (
	"strings"
	"time"

	"github.com/joaobzao/capas-harvester/pkg/httpclient"
)

const (
	// DefaultUserAgent identifies the harvester to scraped sites.
	DefaultUserAgent = "Mozilla/5.0 (CapasBot/1.0)"
	// DefaultBaseURL is the cover aggregation site.
	DefaultBaseURL = "https://www.vercapas.com"

	defaultProviderID = "vercapas"
	defaultTimeout    = 15 * time.Second
)

// HTTPClient is the transport used by provider fetchers.
type HTTPClient = httpclient.Client

// Provider describes a cover aggregation site.
type Provider struct {
	ID        string
	BaseURL   string
	UserAgent string
	Headers   map[string]string
}

// DefaultProvider returns the settings for the default cover site.
func DefaultProvider() Provider {
	return Provider{
		ID:        defaultProviderID,
		BaseURL:   DefaultBaseURL,
		UserAgent: DefaultUserAgent,
	}
}

// Normalize trims fields and fills defaults.
func (p Provider) Normalize() Provider {
	p.ID = strings.ToLower(strings.TrimSpace(p.ID))
	if p.ID == "" {
		p.ID = defaultProviderID
	}
	p.BaseURL = strings.TrimRight(strings.TrimSpace(p.BaseURL), "/")
	if p.BaseURL == "" {
		p.BaseURL = DefaultBaseURL
	}
	p.UserAgent = strings.TrimSpace(p.UserAgent)
	if p.UserAgent == "" {
		p.UserAgent = DefaultUserAgent
	}
	return p
}

// Headers returns the request headers for the provider. The user agent
// always wins over a custom User-Agent header.
func Headers(cfg Provider) map[string]string {
	out := make(map[string]string, len(cfg.Headers)+1)
	for k, v := range cfg.Headers {
		if k = strings.TrimSpace(k); k != "" {
			out[k] = strings.TrimSpace(v)
		}
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	out["User-Agent"] = ua
	return out
}

// DefaultHTTPClient returns a tuned client for provider fetchers.
func DefaultHTTPClient() HTTPClient { return httpclient.NewRestyClient(defaultTimeout) }
