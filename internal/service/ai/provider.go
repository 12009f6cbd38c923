package ai

import (
	"context"
	"fmt"
	"log"

	"github.com/zhouzirui/kyara/backend/internal/config"
)

// NewFromConfig selects a backend according to LLM_PROVIDER and wraps it in
// a Guard. With "auto" the first configured backend among Ark, OpenAI and
// Gemini wins. When nothing is configured the Unavailable generator is
// returned so that replies fall back to the persona error utterance.
func NewFromConfig(ctx context.Context, cfg *config.Config) (Generator, error) {
	provider := cfg.Generation.Provider
	if provider == "auto" {
		switch {
		case cfg.AI.Enabled():
			provider = "ark"
		case cfg.OpenAI.Enabled():
			provider = "openai"
		case cfg.Gemini.Enabled():
			provider = "gemini"
		default:
			provider = "none"
		}
	}

	var backend Generator
	switch provider {
	case "ark":
		chatModel, err := cfg.AI.NewChatModel(ctx)
		if err != nil {
			return nil, fmt.Errorf("init ark chat model: %w", err)
		}
		ark, err := NewArkGenerator(ctx, chatModel)
		if err != nil {
			return nil, err
		}
		backend = ark
	case "openai":
		if !cfg.OpenAI.Enabled() {
			return nil, fmt.Errorf("openai provider selected but OPENAI_API_KEY is empty")
		}
		backend = NewOpenAIGenerator(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model,
			cfg.Generation.MaxTokens, cfg.Generation.Temperature)
	case "gemini":
		if !cfg.Gemini.Enabled() {
			return nil, fmt.Errorf("gemini provider selected but GEMINI_API_KEY is empty")
		}
		gemini, err := NewGeminiGenerator(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model,
			cfg.Generation.MaxTokens, cfg.Generation.Temperature)
		if err != nil {
			return nil, err
		}
		backend = gemini
	case "none":
		log.Printf("[ai] no generation backend configured, generated replies will fall back")
		return Unavailable, nil
	default:
		return nil, fmt.Errorf("unknown generation provider %q", provider)
	}

	log.Printf("[ai] using %s backend (timeout=%s)", provider, cfg.Generation.Timeout)
	return NewGuard(provider, backend, GuardOptions{
		Timeout:    cfg.Generation.Timeout,
		RatePerSec: cfg.Generation.RatePerSec,
		Burst:      cfg.Generation.Burst,
	}), nil
}
