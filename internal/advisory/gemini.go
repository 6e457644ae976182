package advisory

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"
)

// GeminiProvider calls the Google Gemini API.
type GeminiProvider struct {
	client *genai.Client
}

// NewGeminiProvider creates a Gemini provider with the given credential.
func NewGeminiProvider(ctx context.Context, apiKey string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}
	return &GeminiProvider{client: client}, nil
}

// GenerateText sends one prompt to the named model and returns its text.
func (p *GeminiProvider) GenerateText(ctx context.Context, model, prompt string) (string, error) {
	result, err := p.client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return "", mapGeminiError(model, err)
	}
	text := result.Text()
	if text == "" {
		return "", fmt.Errorf("model %s returned no text", model)
	}
	return text, nil
}

func mapGeminiError(model string, err error) error {
	var apiErr *genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden {
			return &AuthError{Model: model, Err: err}
		}
	}
	return fmt.Errorf("model %s: %w", model, err)
}
