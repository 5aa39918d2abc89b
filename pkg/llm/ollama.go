package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

// DefaultOllamaModel is a local multimodal model.
const DefaultOllamaModel = "llava"

// OllamaClient generates text with a local Ollama server.
type OllamaClient struct {
	client  *api.Client
	model   string
	timeout time.Duration
}

// NewOllamaClient creates a client for the server at baseURL (for example
// http://localhost:11434).
func NewOllamaClient(baseURL, model string, timeout time.Duration) (*OllamaClient, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid ollama base url %q", baseURL)
	}
	if model == "" {
		model = DefaultOllamaModel
	}
	return &OllamaClient{
		client:  api.NewClient(u, &http.Client{}),
		model:   model,
		timeout: timeout,
	}, nil
}

func (c *OllamaClient) Name() string { return ProviderOllama + ":" + c.model }

// Generate runs a non-streaming-style generation and concatenates the chunks.
func (c *OllamaClient) Generate(ctx context.Context, req Request) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	images := make([]api.ImageData, 0, len(req.Images))
	for _, img := range req.Images {
		images = append(images, api.ImageData(img.Data))
	}

	var sb strings.Builder
	err := c.client.Generate(ctx, &api.GenerateRequest{
		Model:  c.model,
		Prompt: req.Prompt,
		Images: images,
	}, func(resp api.GenerateResponse) error {
		sb.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	return sb.String(), nil
}
