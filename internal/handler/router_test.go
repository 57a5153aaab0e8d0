package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/lgt-bot/backend/internal/model/chat"
	"github.com/zhouzirui/lgt-bot/backend/internal/preview"
	"github.com/zhouzirui/lgt-bot/backend/internal/service/ai"
	chatService "github.com/zhouzirui/lgt-bot/backend/internal/service/chat"
	feedbackService "github.com/zhouzirui/lgt-bot/backend/internal/service/feedback"
)

const reactReply = "Here's a counter! #preview\n```react\nexport default function App() { return null; }\n```\nOUTPUT_START: A counter OUTPUT_END"

func newTestRouter(t *testing.T, gen ai.Generator) http.Handler {
	t.Helper()
	router, err := NewRouter(chatService.NewService(gen, nil), feedbackService.NewService(nil, nil), nil, nil)
	require.NoError(t, err)
	return router
}

func serve(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestIntakeToPreview(t *testing.T) {
	replies := []string{"Hi Ada! Email?", "Thanks! What's the problem?", reactReply}
	var call int
	router := newTestRouter(t, ai.GeneratorFunc(func(context.Context, ai.Request) (string, error) {
		reply := replies[call]
		call++
		return reply, nil
	}))

	resp := serve(router, http.MethodPost, "/api/sessions", "")
	require.Equal(t, http.StatusCreated, resp.Code)
	var created struct {
		Session chat.Session `json:"session"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
	id := created.Session.ID

	var last chatService.Exchange
	for _, text := range []string{"Ada", "ada@example.com", "I need a counter"} {
		resp = serve(router, http.MethodPost, "/api/sessions/"+id+"/messages", fmt.Sprintf(`{"text":%q}`, text))
		require.Equal(t, http.StatusOK, resp.Code)
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &last))
	}

	assert.Equal(t, chat.StageProblemStatement, last.Session.Stage)
	assert.Equal(t, "ada@example.com", last.Session.UserEmail)
	require.NotNil(t, last.Reply.CodeSnippet)
	assert.True(t, last.Reply.HasPreview)
	assert.Equal(t, "Here's a counter! #preview", last.Reply.Text)

	resp = serve(router, http.MethodGet, fmt.Sprintf("/preview/%s/%d", id, last.Reply.ID), "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, preview.SandboxCSP, resp.Header().Get("Content-Security-Policy"))
	assert.Equal(t, "*", resp.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, resp.Header().Get("Content-Type"))
}

func TestPagesAreMounted(t *testing.T) {
	router := newTestRouter(t, ai.GeneratorFunc(func(context.Context, ai.Request) (string, error) { return "", nil }))

	for _, path := range []string{"/", "/healthz", "/feedback"} {
		assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, path, "").Code, path)
	}
}
