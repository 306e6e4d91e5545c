package rewrite

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIBackend generates text with any OpenAI-compatible chat API.
type OpenAIBackend struct {
	client openai.Client
}

// NewOpenAIBackend creates an OpenAI-compatible backend. SDK retries are
// disabled; failures surface immediately.
func NewOpenAIBackend(apiKey, baseURL string, httpClient *http.Client) (*OpenAIBackend, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	return &OpenAIBackend{client: openai.NewClient(opts...)}, nil
}

// Name returns the backend name.
func (b *OpenAIBackend) Name() string { return ProviderOpenAI }

// Generate sends the prompt as a single user message.
func (b *OpenAIBackend) Generate(ctx context.Context, model, prompt string) (string, error) {
	resp, err := b.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai chat: no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}
