package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSiteFetchPageSendsUserAgent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	site := NewSite(Provider{BaseURL: srv.URL}, nil)
	body, err := site.FetchHomepage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "<html>ok</html>", string(body))
}

func TestSiteFetchPageRejectsNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone fishing", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	site := NewSite(Provider{BaseURL: srv.URL}, nil)
	_, err := site.FetchPage(context.Background(), srv.URL+"/capa/publico")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
	assert.Contains(t, err.Error(), "gone fishing")
}

func TestSiteFetchImageRejectsEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	site := NewSite(Provider{BaseURL: srv.URL}, nil)
	_, err := site.FetchImage(context.Background(), srv.URL+"/covers/x.jpg")
	assert.Error(t, err)
}

func TestProviderNormalize(t *testing.T) {
	p := Provider{BaseURL: " https://www.vercapas.com/ "}.Normalize()
	assert.Equal(t, "vercapas", p.ID)
	assert.Equal(t, "https://www.vercapas.com", p.BaseURL)
	assert.Equal(t, DefaultUserAgent, p.UserAgent)
}

func TestHeadersUserAgentWins(t *testing.T) {
	h := Headers(Provider{UserAgent: "Custom/1.0", Headers: map[string]string{"User-Agent": "Other", "Accept-Language": "pt-PT"}})
	assert.Equal(t, "Custom/1.0", h["User-Agent"])
	assert.Equal(t, "pt-PT", h["Accept-Language"])
}

func TestResolveURL(t *testing.T) {
	base := "https://www.vercapas.com/"
	assert.Equal(t, "https://www.vercapas.com/capa/publico.html", ResolveURL("/capa/publico.html", base))
	assert.Equal(t, "https://cdn.example.com/covers/a.jpg", ResolveURL("https://cdn.example.com/covers/a.jpg", base))
	assert.Equal(t, "https://www.vercapas.com/covers/a.jpg", ResolveURL("covers/a.jpg", base))
	assert.Equal(t, "", ResolveURL("  ", base))
}

func TestResponseSnippet(t *testing.T) {
	assert.Equal(t, "<empty>", ResponseSnippet(nil))
	long := make([]byte, 600)
	for i := range long {
		long[i] = 'a'
	}
	assert.Len(t, ResponseSnippet(long), 515)
}
