package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// geminiClient talks to the Gemini API, which takes attachments and system
// instructions natively.
type geminiClient struct {
	apiKey string
	model  string
}

func newGemini(apiKey, modelName string) *geminiClient {
	return &geminiClient{
		apiKey: strings.TrimSpace(apiKey),
		model:  strings.TrimSpace(modelName),
	}
}

func (c *geminiClient) Generate(ctx context.Context, req Request) (string, error) {
	if c.apiKey == "" {
		return "", errors.New("gemini: API key is empty")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(c.apiKey))
	if err != nil {
		return "", fmt.Errorf("gemini client: %w", err)
	}
	defer cl.Close()

	m := cl.GenerativeModel(c.model)
	if req.System != "" {
		m.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.System)},
		}
	}

	parts := []genai.Part{genai.Text(req.Prompt)}
	if req.Attachment != nil {
		parts = append(parts, &genai.Blob{
			MIMEType: req.Attachment.MIMEType,
			Data:     req.Attachment.Data,
		})
	}

	// Retry transient failures before giving up.
	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		resp, err := m.GenerateContent(ctx, parts...)
		if err != nil {
			lastErr = err
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(attempt) * 300 * time.Millisecond):
			}
			continue
		}
		txt := firstText(resp)
		if txt == "" {
			return "", fmt.Errorf("gemini: empty response")
		}
		slog.Debug("LLM response", "provider", "gemini", "chars", len(txt))
		return txt, nil
	}
	return "", fmt.Errorf("gemini generate: %w", lastErr)
}

func (c *geminiClient) Ping(ctx context.Context) error {
	if c.apiKey == "" {
		return errors.New("gemini: API key is empty")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(c.apiKey))
	if err != nil {
		return fmt.Errorf("gemini client: %w", err)
	}
	defer cl.Close()
	if _, err := cl.GenerativeModel(c.model).Info(ctx); err != nil {
		return fmt.Errorf("LLM health check: %w", err)
	}
	return nil
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, p := range cand.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}
