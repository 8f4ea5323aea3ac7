package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"
)

// openAIClient wraps an OpenAI-compatible API client.
type openAIClient struct {
	api   *openai.Client
	model string
}

func newOpenAI(baseURL, apiKey, modelName string) *openAIClient {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &openAIClient{
		api:   openai.NewClientWithConfig(config),
		model: modelName,
	}
}

func (c *openAIClient) Generate(ctx context.Context, req Request) (string, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}

	user := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser}
	if req.Attachment != nil {
		// Attachments ride along as a data URL content part.
		dataURL := fmt.Sprintf("data:%s;base64,%s",
			req.Attachment.MIMEType,
			base64.StdEncoding.EncodeToString(req.Attachment.Data))
		user.MultiContent = []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: req.Prompt},
			{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: dataURL}},
		}
	} else {
		user.Content = req.Prompt
	}
	msgs = append(msgs, user)

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    msgs,
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("LLM API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("LLM returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	slog.Debug("LLM response", "provider", "openai", "chars", len(raw))
	return raw, nil
}

func (c *openAIClient) Ping(ctx context.Context) error {
	_, err := c.api.GetModel(ctx, c.model)
	if err != nil {
		return fmt.Errorf("LLM health check: %w", err)
	}
	return nil
}
