package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/lgt-bot/backend/internal/model/chat"
	"github.com/zhouzirui/lgt-bot/backend/internal/service/ai"
	chatservice "github.com/zhouzirui/lgt-bot/backend/internal/service/chat"
)

func setupRouter(gen ai.Generator) (*chi.Mux, *chatservice.Service) {
	chatSvc := chatservice.NewService(gen, nil)
	handler := New(chatSvc, nil)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, chatSvc
}

func staticReply(reply string) ai.Generator {
	return ai.GeneratorFunc(func(context.Context, ai.Request) (string, error) {
		return reply, nil
	})
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func createSession(t *testing.T, r http.Handler) transcriptResponse {
	t.Helper()
	resp := do(r, http.MethodPost, "/sessions", "")
	require.Equal(t, http.StatusCreated, resp.Code)

	var created transcriptResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
	return created
}

func TestCreateSessionReturnsGreeting(t *testing.T) {
	r, _ := setupRouter(staticReply("hi"))
	created := createSession(t, r)

	assert.NotEmpty(t, created.Session.ID)
	assert.Equal(t, chat.StageName, created.Session.Stage)
	require.Len(t, created.Messages, 1)
	assert.Equal(t, chatservice.Greeting, created.Messages[0].Text)
}

func TestSendReturnsExchange(t *testing.T) {
	r, _ := setupRouter(staticReply("Nice to meet you! What's your email?"))
	created := createSession(t, r)

	resp := do(r, http.MethodPost, "/sessions/"+created.Session.ID+"/messages", `{"text":"Ada"}`)
	require.Equal(t, http.StatusOK, resp.Code)

	var exchange chatservice.Exchange
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &exchange))
	assert.Equal(t, "Ada", exchange.User.Text)
	assert.Equal(t, 2, exchange.User.ID)
	assert.Equal(t, 3, exchange.Reply.ID)
	assert.Equal(t, chat.StageEmail, exchange.Session.Stage)
	assert.Equal(t, "Ada", exchange.Session.UserName)

	resp = do(r, http.MethodGet, "/sessions/"+created.Session.ID+"/messages", "")
	require.Equal(t, http.StatusOK, resp.Code)

	var listed struct {
		Messages []chat.Message `json:"messages"`
		Pending  bool           `json:"pending"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &listed))
	assert.Len(t, listed.Messages, 3)
	assert.False(t, listed.Pending)
}

func TestSendErrors(t *testing.T) {
	r, _ := setupRouter(staticReply("ok"))
	created := createSession(t, r)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"blank text", "/sessions/" + created.Session.ID + "/messages", `{"text":"   "}`, http.StatusBadRequest},
		{"missing body", "/sessions/" + created.Session.ID + "/messages", "", http.StatusBadRequest},
		{"unknown session", "/sessions/nope/messages", `{"text":"hi"}`, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(r, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, resp.Code)
			assert.Contains(t, resp.Body.String(), `"error"`)
		})
	}

	resp := do(r, http.MethodGet, "/sessions/"+created.Session.ID+"/messages", "")
	var listed struct {
		Messages []chat.Message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &listed))
	assert.Len(t, listed.Messages, 1)
}

func TestSendWhilePendingConflicts(t *testing.T) {
	release := make(chan struct{})
	gen := ai.GeneratorFunc(func(ctx context.Context, _ ai.Request) (string, error) {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return "done", nil
	})
	r, svc := setupRouter(gen)
	created := createSession(t, r)
	path := "/sessions/" + created.Session.ID + "/messages"

	done := make(chan int, 1)
	go func() {
		done <- do(r, http.MethodPost, path, `{"text":"Ada"}`).Code
	}()

	require.Eventually(t, func() bool {
		session, err := svc.GetSession(context.Background(), created.Session.ID)
		return err == nil && session.Pending
	}, time.Second, 5*time.Millisecond)

	resp := do(r, http.MethodPost, path, `{"text":"again"}`)
	assert.Equal(t, http.StatusConflict, resp.Code)

	close(release)
	assert.Equal(t, http.StatusOK, <-done)
}

func TestGetSessionNotFound(t *testing.T) {
	r, _ := setupRouter(staticReply("ok"))
	resp := do(r, http.MethodGet, "/sessions/missing", "")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
