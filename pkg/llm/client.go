package llm

import "context"

// Supported providers.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// Image is an inline image sent alongside a prompt.
type Image struct {
	MIMEType string
	Data     []byte
}

// Request is a single multimodal prompt.
type Request struct {
	Prompt string
	Images []Image
}

// Client generates text from a prompt and optional images.
type Client interface {
	Generate(ctx context.Context, req Request) (string, error)
	Name() string
}
