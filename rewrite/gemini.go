package rewrite

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"
)

// GeminiBackend generates text with the Gemini API.
type GeminiBackend struct {
	client *genai.Client
}

// NewGeminiBackend creates a Gemini backend. baseURL may be empty; httpClient
// may be nil.
func NewGeminiBackend(ctx context.Context, apiKey, baseURL string, httpClient *http.Client) (*GeminiBackend, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if baseURL != "" {
		cfg.HTTPOptions.BaseURL = baseURL
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}
	return &GeminiBackend{client: client}, nil
}

// Name returns the backend name.
func (b *GeminiBackend) Name() string { return ProviderGemini }

// Generate sends the prompt as a single user turn.
func (b *GeminiBackend) Generate(ctx context.Context, model, prompt string) (string, error) {
	resp, err := b.client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("genai generate: %w", err)
	}
	if resp == nil {
		return "", errors.New("genai generate: empty response")
	}
	return resp.Text(), nil
}
