package llm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joaobzao/capas-harvester/pkg/httpclient"
	"github.com/joaobzao/capas-harvester/pkg/providers"
)

const (
	// DefaultGeminiBaseURL is the public generative language endpoint.
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	// DefaultGeminiModel is the multimodal model used when none is configured.
	DefaultGeminiModel = "gemini-1.5-flash"

	defaultImageMIME = "image/jpeg"
)

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// GeminiClient calls the generateContent REST endpoint.
type GeminiClient struct {
	http    httpclient.Client
	apiKey  string
	baseURL string
	model   string
}

// NewGeminiClient builds a Gemini client. Empty baseURL and model fall back to defaults.
func NewGeminiClient(apiKey, baseURL, model string, timeout time.Duration) *GeminiClient {
	return newGeminiClient(httpclient.NewRestyClient(timeout), apiKey, baseURL, model)
}

func newGeminiClient(client httpclient.Client, apiKey, baseURL, model string) *GeminiClient {
	if baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/"); baseURL == "" {
		baseURL = DefaultGeminiBaseURL
	}
	if model = strings.TrimSpace(model); model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiClient{
		http:    client,
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
	}
}

func (c *GeminiClient) Name() string { return ProviderGemini + ":" + c.model }

// Generate sends the prompt and inline images and returns the first candidate's text.
func (c *GeminiClient) Generate(ctx context.Context, req Request) (string, error) {
	parts := make([]geminiPart, 0, len(req.Images)+1)
	parts = append(parts, geminiPart{Text: req.Prompt})
	for _, img := range req.Images {
		mime := img.MIMEType
		if mime == "" {
			mime = defaultImageMIME
		}
		parts = append(parts, geminiPart{InlineData: &geminiInlineData{
			MimeType: mime,
			Data:     base64.StdEncoding.EncodeToString(img.Data),
		}})
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		c.baseURL, url.PathEscape(c.model), url.QueryEscape(c.apiKey))

	resp, err := c.http.PostJSON(ctx, endpoint, nil, geminiRequest{
		Contents: []geminiContent{{Parts: parts}},
	})
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", c.redactKey(err))
	}
	if resp.IsError() {
		return "", fmt.Errorf("gemini API error: status %d body: %s", resp.StatusCode(), providers.ResponseSnippet(resp.Body()))
	}

	var parsed geminiResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return "", fmt.Errorf("decode gemini response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("no candidates in gemini response")
	}
	return parsed.Candidates[0].Content.Parts[0].Text, nil
}

// redactKey strips the API key from transport errors, which carry the full
// request URL in their message.
func (c *GeminiClient) redactKey(err error) error {
	if c.apiKey == "" {
		return err
	}
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr == err {
		redacted := *uerr
		redacted.URL = redactQueryKey(uerr.URL)
		return &redacted
	}
	msg := err.Error()
	if !strings.Contains(msg, c.apiKey) && !strings.Contains(msg, url.QueryEscape(c.apiKey)) {
		return err
	}
	msg = strings.ReplaceAll(msg, url.QueryEscape(c.apiKey), redactedKey)
	return errors.New(strings.ReplaceAll(msg, c.apiKey, redactedKey))
}

const redactedKey = "REDACTED"

func redactQueryKey(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return redactedKey
	}
	q := u.Query()
	if q.Has("key") {
		q.Set("key", redactedKey)
		u.RawQuery = q.Encode()
	}
	return u.String()
}
