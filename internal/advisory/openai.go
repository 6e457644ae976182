package advisory

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider calls any OpenAI-compatible chat endpoint (OpenAI proper,
// Ollama, OpenRouter, ...).
type OpenAIProvider struct {
	api *openai.Client
}

// NewOpenAIProvider creates an OpenAI-compatible provider. baseURL may be
// empty for the official endpoint.
func NewOpenAIProvider(baseURL, apiKey string) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &OpenAIProvider{api: openai.NewClientWithConfig(config)}, nil
}

// GenerateText sends one prompt to the named model and returns its text.
func (p *OpenAIProvider) GenerateText(ctx context.Context, model, prompt string) (string, error) {
	resp, err := p.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", mapOpenAIError(model, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model %s returned no choices", model)
	}
	return resp.Choices[0].Message.Content, nil
}

func mapOpenAIError(model string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusUnauthorized || apiErr.HTTPStatusCode == http.StatusForbidden {
			return &AuthError{Model: model, Err: err}
		}
	}
	return fmt.Errorf("model %s: %w", model, err)
}
