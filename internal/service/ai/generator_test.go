package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/kyara/backend/internal/config"
	"github.com/zhouzirui/kyara/backend/internal/model/persona"
)

func TestGuardTrimsReply(t *testing.T) {
	var gotSystem, gotMessage string
	backend := GeneratorFunc(func(_ context.Context, system, message string) (string, error) {
		gotSystem, gotMessage = system, message
		return "  はい、先輩。\n", nil
	})

	guard := NewGuard("fake", backend, GuardOptions{Timeout: time.Second})
	reply, err := guard.Generate(context.Background(), "prompt", "こんにちは")
	require.NoError(t, err)
	assert.Equal(t, "はい、先輩。", reply)
	assert.Equal(t, "prompt", gotSystem)
	assert.Equal(t, "こんにちは", gotMessage)
}

func TestGuardEmptyReply(t *testing.T) {
	guard := NewGuard("fake", GeneratorFunc(func(context.Context, string, string) (string, error) {
		return "   ", nil
	}), GuardOptions{})

	_, err := guard.Generate(context.Background(), "", "x")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestGuardWrapsBackendError(t *testing.T) {
	boom := errors.New("quota exceeded")
	guard := NewGuard("fake", GeneratorFunc(func(context.Context, string, string) (string, error) {
		return "", boom
	}), GuardOptions{})

	_, err := guard.Generate(context.Background(), "", "x")
	assert.ErrorIs(t, err, boom)
}

func TestGuardAbandonsStalledBackend(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	guard := NewGuard("slow", GeneratorFunc(func(context.Context, string, string) (string, error) {
		<-release
		return "late", nil
	}), GuardOptions{Timeout: 20 * time.Millisecond})

	started := time.Now()
	_, err := guard.Generate(context.Background(), "", "x")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(started), time.Second)
}

func TestGuardRecoversBackendPanic(t *testing.T) {
	guard := NewGuard("panicky", GeneratorFunc(func(context.Context, string, string) (string, error) {
		panic("nil map")
	}), GuardOptions{Timeout: time.Second})

	_, err := guard.Generate(context.Background(), "", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic")
}

func TestGuardRateLimit(t *testing.T) {
	guard := NewGuard("limited", GeneratorFunc(func(context.Context, string, string) (string, error) {
		return "ok", nil
	}), GuardOptions{Timeout: 30 * time.Millisecond, RatePerSec: 0.001, Burst: 1})

	_, err := guard.Generate(context.Background(), "", "first")
	require.NoError(t, err)

	_, err = guard.Generate(context.Background(), "", "second")
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestUnavailable(t *testing.T) {
	_, err := Unavailable.Generate(context.Background(), "", "x")
	assert.ErrorIs(t, err, ErrNoBackend)
}

func TestNewFromConfigWithoutBackends(t *testing.T) {
	cfg := &config.Config{Generation: config.GenerationConfig{Provider: "auto"}}
	gen, err := NewFromConfig(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, Unavailable, gen)
}

func TestNewFromConfigRejectsMissingKey(t *testing.T) {
	cfg := &config.Config{Generation: config.GenerationConfig{Provider: "openai"}}
	_, err := NewFromConfig(context.Background(), cfg)
	assert.Error(t, err)
}

func TestNewFromConfigOpenAI(t *testing.T) {
	cfg := &config.Config{
		OpenAI:     config.OpenAIConfig{APIKey: "sk-test", Model: "gpt-3.5-turbo"},
		Generation: config.GenerationConfig{Provider: "auto", Timeout: time.Second, MaxTokens: 100, Temperature: 0.8},
	}
	gen, err := NewFromConfig(context.Background(), cfg)
	require.NoError(t, err)

	guard, ok := gen.(*Guard)
	require.True(t, ok)
	assert.Equal(t, "openai", guard.Name())
}

func TestBuildSystemPrompt(t *testing.T) {
	p := persona.Persona{ID: "x", SystemPrompt: "  あなたは猫です。 "}
	assert.Equal(t, "あなたは猫です。", BuildSystemPrompt(p))

	basic := BuildSystemPrompt(persona.Persona{ID: "robot", Name: "ロボ", Tone: "ピピッと話す"})
	assert.Contains(t, basic, "ロボ")
	assert.Contains(t, basic, "ピピッと話す")

	assert.Contains(t, BuildSystemPrompt(persona.Persona{ID: "robot"}), "robot")
}
