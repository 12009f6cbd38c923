package ai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// OpenAIGenerator calls the chat completions endpoint.
type OpenAIGenerator struct {
	client      openai.Client
	model       string
	maxTokens   int64
	temperature float64
}

// NewOpenAIGenerator builds a generator. baseURL may be empty.
func NewOpenAIGenerator(apiKey, baseURL, model string, maxTokens int, temperature float64) *OpenAIGenerator {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIGenerator{
		client:      openai.NewClient(opts...),
		model:       model,
		maxTokens:   int64(maxTokens),
		temperature: temperature,
	}
}

// Generate implements Generator.
func (g *OpenAIGenerator) Generate(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userMessage),
		},
		MaxTokens:   openai.Int(g.maxTokens),
		Temperature: openai.Float(g.temperature),
	}

	resp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: %w", ErrEmptyResponse)
	}
	return resp.Choices[0].Message.Content, nil
}
