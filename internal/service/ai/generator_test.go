package ai

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zhouzirui/lgt-bot/backend/internal/config"
)

func TestNewSelectsProvider(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	gen, err := New(ctx, config.LLMConfig{Provider: config.ProviderGemini, Timeout: time.Second}, logger)
	require.NoError(t, err)
	assert.IsType(t, &GeminiClient{}, gen)

	gen, err = New(ctx, config.LLMConfig{Provider: config.ProviderGenAI, Timeout: time.Second}, logger)
	require.NoError(t, err)
	_, err = gen.Generate(ctx, Request{Prompt: "hi"})
	require.ErrorIs(t, err, ErrMissingAPIKey)

	gen, err = New(ctx, config.LLMConfig{Provider: config.ProviderArk, Timeout: time.Second}, logger)
	require.NoError(t, err)
	_, err = gen.Generate(ctx, Request{Prompt: "hi"})
	require.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = New(ctx, config.LLMConfig{Provider: "openai"}, logger)
	require.Error(t, err)
}

func TestGeneratorFunc(t *testing.T) {
	gen := GeneratorFunc(func(_ context.Context, req Request) (string, error) {
		return "echo: " + req.Prompt, nil
	})
	text, err := gen.Generate(context.Background(), Request{Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "echo: hi", text)
}
