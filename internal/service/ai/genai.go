package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/zhouzirui/lgt-bot/backend/internal/config"
)

// GenAIClient sends the same turn through the Google GenAI SDK.
type GenAIClient struct {
	client *genai.Client
	model  string
}

// NewGenAIClient creates an SDK-backed Generator.
func NewGenAIClient(ctx context.Context, cfg config.GeminiConfig, timeout time.Duration) (*GenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	baseURL, version := splitAPIVersion(cfg.BaseURL)
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: timeout},
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    baseURL,
			APIVersion: version,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &GenAIClient{client: client, model: cfg.Model}, nil
}

// Generate returns the first text part of the first candidate.
func (c *GenAIClient) Generate(ctx context.Context, req Request) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(ComposeTurn(req)), nil)
	if err != nil {
		return "", fmt.Errorf("genai generate: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", ErrUnexpectedResponse
	}
	content := resp.Candidates[0].Content
	if content == nil || len(content.Parts) == 0 || content.Parts[0] == nil {
		return "", ErrUnexpectedResponse
	}
	return content.Parts[0].Text, nil
}

// splitAPIVersion turns ".../v1beta" into the SDK's base URL and version.
func splitAPIVersion(raw string) (string, string) {
	trimmed := strings.TrimRight(raw, "/")
	idx := strings.LastIndex(trimmed, "/")
	if idx < 0 {
		return raw, ""
	}
	last := trimmed[idx+1:]
	if !strings.HasPrefix(last, "v1") {
		return trimmed + "/", ""
	}
	return trimmed[:idx+1], last
}
