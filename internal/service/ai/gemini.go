package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiGenerator calls a Gemini model with the persona prompt as system instruction.
type GeminiGenerator struct {
	client      *genai.Client
	model       string
	maxTokens   int32
	temperature float32
}

// NewGeminiGenerator opens a Gemini client.
func NewGeminiGenerator(ctx context.Context, apiKey, model string, maxTokens int, temperature float64) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiGenerator{
		client:      client,
		model:       model,
		maxTokens:   int32(maxTokens),
		temperature: float32(temperature),
	}, nil
}

// Generate implements Generator.
func (g *GeminiGenerator) Generate(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	model := g.client.GenerativeModel(g.model)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}
	model.SetTemperature(g.temperature)
	model.SetMaxOutputTokens(g.maxTokens)

	resp, err := model.GenerateContent(ctx, genai.Text(userMessage))
	if err != nil {
		return "", err
	}
	return geminiText(resp), nil
}

// Close releases the client.
func (g *GeminiGenerator) Close() error {
	return g.client.Close()
}

func geminiText(resp *genai.GenerateContentResponse) string {
	var b strings.Builder
	if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				b.WriteString(string(txt))
			}
		}
	}
	return b.String()
}
