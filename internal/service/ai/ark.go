package ai

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

// ArkGenerator runs a system+user prompt template through an eino chat model chain.
type ArkGenerator struct {
	chain compose.Runnable[map[string]any, *schema.Message]
}

// NewArkGenerator compiles the prompt chain around chatModel.
func NewArkGenerator(ctx context.Context, chatModel model.ChatModel) (*ArkGenerator, error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &ArkGenerator{chain: runnable}, nil
}

// Generate implements Generator.
func (g *ArkGenerator) Generate(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	response, err := g.chain.Invoke(ctx, map[string]any{
		"system": systemPrompt,
		"query":  userMessage,
	})
	if err != nil {
		return "", fmt.Errorf("failed to run AI chain: %w", err)
	}
	if response == nil {
		return "", ErrEmptyResponse
	}
	return response.Content, nil
}
