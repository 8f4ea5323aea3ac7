package llm

import (
	"context"
	"fmt"

	"github.com/pavelanni/proctor/internal/model"
)

// Request is a single text-generation call. The engine never assumes a
// particular response schema; callers recover structure from ResponseText
// with permissive scanning.
type Request struct {
	Prompt     string
	System     string
	Attachment *model.Attachment
}

// Client is the narrow contract the engine requires from the external
// text-generation service.
type Client interface {
	// Generate sends the prompt (plus optional attachment and system
	// instruction) and returns the raw response text.
	Generate(ctx context.Context, req Request) (string, error)
	// Ping verifies the provider is reachable and the model exists.
	Ping(ctx context.Context) error
}

// New creates a client for the named provider ("openai" or "gemini").
// baseURL is only meaningful for OpenAI-compatible endpoints.
func New(provider, baseURL, apiKey, modelName string) (Client, error) {
	switch provider {
	case "", "openai":
		return newOpenAI(baseURL, apiKey, modelName), nil
	case "gemini":
		return newGemini(apiKey, modelName), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", provider)
	}
}
