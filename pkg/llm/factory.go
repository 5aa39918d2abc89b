package llm

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrDisabled is returned by New when the provider has no credential configured.
var ErrDisabled = errors.New("model provider not configured")

// Settings selects and configures a provider.
type Settings struct {
	Provider string
	APIKey   string
	BaseURL  string
	Model    string
	Timeout  time.Duration
}

// New builds the client for s.Provider. Gemini and OpenAI need an API key,
// Ollama needs a base URL; without them New returns ErrDisabled.
func New(s Settings) (Client, error) {
	provider := strings.ToLower(strings.TrimSpace(s.Provider))
	if provider == "" {
		provider = ProviderGemini
	}
	key := strings.TrimSpace(s.APIKey)

	switch provider {
	case ProviderGemini:
		if key == "" {
			return nil, ErrDisabled
		}
		return NewGeminiClient(key, s.BaseURL, s.Model, s.Timeout), nil
	case ProviderOpenAI:
		if key == "" {
			return nil, ErrDisabled
		}
		return NewOpenAIClient(key, s.BaseURL, s.Model, s.Timeout), nil
	case ProviderOllama:
		if strings.TrimSpace(s.BaseURL) == "" {
			return nil, ErrDisabled
		}
		return NewOllamaClient(s.BaseURL, s.Model, s.Timeout)
	default:
		return nil, fmt.Errorf("unsupported model provider %q", s.Provider)
	}
}
