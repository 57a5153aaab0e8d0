// Package ai talks to the hosted language model behind the chat widget.
package ai

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/zhouzirui/lgt-bot/backend/internal/config"
)

var (
	ErrMissingAPIKey      = errors.New("language model credentials are not configured")
	ErrUnexpectedResponse = errors.New("language model reply has no text")
)

// StatusError is returned when the provider answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("language model returned status %d: %s", e.StatusCode, e.Body)
}

// Generator produces the raw reply text for one user turn.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, req Request) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// unavailable fails every call; used when credentials are missing so the
// server still starts and the widget shows its apology.
type unavailable struct{}

func (unavailable) Generate(context.Context, Request) (string, error) {
	return "", ErrMissingAPIKey
}

// New builds the Generator selected by cfg.Provider.
func New(ctx context.Context, cfg config.LLMConfig, logger *zap.Logger) (Generator, error) {
	switch cfg.Provider {
	case config.ProviderGemini, "":
		if cfg.Gemini.APIKey == "" {
			logger.Warn("gemini API key missing, every chat turn will fail")
		}
		return NewGeminiClient(cfg.Gemini, cfg.Timeout), nil
	case config.ProviderGenAI:
		if cfg.Gemini.APIKey == "" {
			logger.Warn("gemini API key missing, every chat turn will fail")
			return unavailable{}, nil
		}
		return NewGenAIClient(ctx, cfg.Gemini, cfg.Timeout)
	case config.ProviderArk:
		if !cfg.Ark.Enabled() {
			logger.Warn("ark credentials or model missing, every chat turn will fail")
			return unavailable{}, nil
		}
		return NewArkClient(ctx, cfg.Ark)
	default:
		return nil, fmt.Errorf("unknown language model provider %q", cfg.Provider)
	}
}
