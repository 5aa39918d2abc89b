// Package httpclient wraps resty behind the small surface the harvester needs.
package httpclient

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client issues HTTP requests on behalf of scrapers, model clients and publishers.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (*resty.Response, error)
	PostJSON(ctx context.Context, url string, headers map[string]string, body any) (*resty.Response, error)
	Do(ctx context.Context, method, url string, headers map[string]string, body any) (*resty.Response, error)
}

type restyClient struct {
	rc *resty.Client
}

// NewRestyClient builds a Client with the given request timeout. Redirects are followed.
func NewRestyClient(timeout time.Duration) Client {
	rc := resty.New().
		SetTimeout(timeout).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))
	return &restyClient{rc: rc}
}

// Get performs a GET request with the provided headers.
func (c *restyClient) Get(ctx context.Context, url string, headers map[string]string) (*resty.Response, error) {
	return c.request(ctx, headers).Get(url)
}

// PostJSON marshals body as JSON and POSTs it.
func (c *restyClient) PostJSON(ctx context.Context, url string, headers map[string]string, body any) (*resty.Response, error) {
	return c.request(ctx, headers).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(url)
}

// Do performs an arbitrary request; a non-nil body is sent as JSON.
func (c *restyClient) Do(ctx context.Context, method, url string, headers map[string]string, body any) (*resty.Response, error) {
	req := c.request(ctx, headers)
	if body != nil {
		req = req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	return req.Execute(method, url)
}

func (c *restyClient) request(ctx context.Context, headers map[string]string) *resty.Request {
	if ctx == nil {
		ctx = context.Background()
	}
	req := c.rc.R().SetContext(ctx)
	if len(headers) > 0 {
		req = req.SetHeaders(headers)
	}
	return req
}
