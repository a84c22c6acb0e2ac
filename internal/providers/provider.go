package providers

import (
	"context"
	"fmt"
)

// Request is one completion request sent to an inference backend.
type Request struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Response is the raw completion plus the token accounting the backend
// reported for it.
type Response struct {
	Text       string
	TokensUsed int
}

// Client abstracts an inference backend. Implementations handle their
// own authentication, retry, and timeouts.
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
	Name() string
}

// New creates a client by provider name.
func New(provider, model string) (Client, error) {
	switch provider {
	case "anthropic":
		return NewAnthropic(model)
	case "openai":
		return NewOpenAI(model)
	case "gemini", "google":
		return NewGemini(model)
	case "ollama", "lmstudio":
		return NewOllama(model)
	default:
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
}
