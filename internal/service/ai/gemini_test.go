package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/lgt-bot/backend/internal/config"
	"github.com/zhouzirui/lgt-bot/backend/internal/model/chat"
)

func newGeminiTestClient(t *testing.T, handler http.HandlerFunc) *GeminiClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewGeminiClient(config.GeminiConfig{APIKey: "test-key", Model: "gemini-pro", BaseURL: srv.URL + "/v1beta/"}, 5*time.Second)
}

func TestGeminiGenerateSendsSingleTextPart(t *testing.T) {
	req := Request{Stage: chat.StageProblemStatement, UserName: "Ada", UserEmail: "ada@example.com", Prompt: "build a navbar"}

	var (
		gotMethod, gotPath, gotKey, gotType string
		gotBody                             []byte
	)
	client := newGeminiTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		gotKey, gotType = r.URL.Query().Get("key"), r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"Here is a navbar"},{"text":"ignored"}]}}]}`)
	})

	text, err := client.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "Here is a navbar", text)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/v1beta/models/gemini-pro:generateContent", gotPath)
	assert.Equal(t, "test-key", gotKey)
	assert.Equal(t, "application/json", gotType)

	var body map[string][]map[string][]map[string]string
	require.NoError(t, json.Unmarshal(gotBody, &body))
	require.Len(t, body["contents"], 1)
	require.Len(t, body["contents"][0]["parts"], 1)
	assert.Equal(t, ComposeTurn(req), body["contents"][0]["parts"][0]["text"])
}

func TestGeminiGenerateNon2xx(t *testing.T) {
	client := newGeminiTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"quota exceeded"}}`, http.StatusTooManyRequests)
	})

	_, err := client.Generate(context.Background(), Request{Prompt: "hi"})
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
	assert.Contains(t, statusErr.Body, "quota exceeded")
}

func TestGeminiGenerateUnexpectedShape(t *testing.T) {
	for name, body := range map[string]string{
		"no candidates": `{"candidates":[]}`,
		"no parts":      `{"candidates":[{"content":{"parts":[]}}]}`,
		"empty object":  `{}`,
	} {
		t.Run(name, func(t *testing.T) {
			client := newGeminiTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, body)
			})
			_, err := client.Generate(context.Background(), Request{Prompt: "hi"})
			require.ErrorIs(t, err, ErrUnexpectedResponse)
		})
	}
}

func TestGeminiGenerateMalformedJSON(t *testing.T) {
	client := newGeminiTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "<html>gateway</html>")
	})
	_, err := client.Generate(context.Background(), Request{Prompt: "hi"})
	require.Error(t, err)
}

func TestGeminiGenerateWithoutKey(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	defer srv.Close()

	client := NewGeminiClient(config.GeminiConfig{Model: "gemini-pro", BaseURL: srv.URL}, time.Second)
	_, err := client.Generate(context.Background(), Request{Prompt: "hi"})
	require.ErrorIs(t, err, ErrMissingAPIKey)
	assert.False(t, called)
}

func TestGeminiGenerateTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewGeminiClient(config.GeminiConfig{APIKey: "k", Model: "gemini-pro", BaseURL: url}, time.Second)
	_, err := client.Generate(context.Background(), Request{Prompt: "hi"})
	require.Error(t, err)
}
