package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

var (
	ErrNoBackend     = errors.New("no text generation backend configured")
	ErrEmptyResponse = errors.New("empty generation response")
	ErrRateLimited   = errors.New("generation rate limit exceeded")
)

// Generator produces an open-ended reply for a system prompt and a user message.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userMessage string) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, systemPrompt, userMessage string) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	return f(ctx, systemPrompt, userMessage)
}

// Unavailable is used when no backend is configured.
var Unavailable Generator = GeneratorFunc(func(context.Context, string, string) (string, error) {
	return "", ErrNoBackend
})

// GuardOptions bounds a backend.
type GuardOptions struct {
	Timeout    time.Duration
	RatePerSec float64
	Burst      int
}

// Guard enforces the timeout, the shared rate limit and response trimming in
// front of a backend. A backend that ignores its context is abandoned when
// the deadline passes.
type Guard struct {
	name    string
	next    Generator
	timeout time.Duration
	limiter *rate.Limiter
}

// NewGuard wraps next. A zero RatePerSec disables rate limiting.
func NewGuard(name string, next Generator, opts GuardOptions) *Guard {
	g := &Guard{name: name, next: next, timeout: opts.Timeout}
	if g.timeout <= 0 {
		g.timeout = 15 * time.Second
	}
	if opts.RatePerSec > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSec), burst)
	}
	return g
}

// Name returns the backend label.
func (g *Guard) Name() string {
	return g.name
}

type result struct {
	text string
	err  error
}

// Generate runs the wrapped backend within the configured bounds.
func (g *Guard) Generate(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("%w: %v", ErrRateLimited, err)
		}
	}

	started := time.Now()
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("%s backend panic: %v", g.name, r)}
			}
		}()
		text, err := g.next.Generate(ctx, systemPrompt, userMessage)
		done <- result{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s generation: %w", g.name, ctx.Err())
	case res := <-done:
		if res.err != nil {
			return "", fmt.Errorf("%s generation: %w", g.name, res.err)
		}
		text := strings.TrimSpace(res.text)
		if text == "" {
			return "", ErrEmptyResponse
		}
		log.Printf("[ai] %s generated reply length=%d in %s", g.name, len(text), time.Since(started).Round(time.Millisecond))
		return text, nil
	}
}
