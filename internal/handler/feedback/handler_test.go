package feedback

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/lgt-bot/backend/internal/model/feedback"
	feedbackservice "github.com/zhouzirui/lgt-bot/backend/internal/service/feedback"
)

func setupRouter() (*chi.Mux, *feedback.MemoryStore) {
	store := feedback.NewMemoryStore()
	h := New(feedbackservice.NewService(store, nil), nil)

	r := chi.NewRouter()
	r.Route("/api", h.RegisterRoutes)
	h.RegisterPageRoutes(r)
	return r, store
}

func postForm(r http.Handler, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/feedback", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestFormStartsEmpty(t *testing.T) {
	r, _ := setupRouter()
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/feedback", nil))

	require.Equal(t, http.StatusOK, resp.Code)
	body := resp.Body.String()
	assert.Contains(t, body, "Your Feedback")
	assert.Contains(t, body, `name="name" value=""`)
	assert.NotContains(t, body, "Thank you!")
}

func TestFormSubmitShowsThankYou(t *testing.T) {
	r, store := setupRouter()
	resp := postForm(r, url.Values{
		"name":     {"Ada"},
		"email":    {"ada@example.com"},
		"feedback": {"Great bot"},
	})

	require.Equal(t, http.StatusOK, resp.Code)
	body := resp.Body.String()
	assert.Contains(t, body, "Thank you!")
	assert.Contains(t, body, "<b>Ada</b>")
	assert.Contains(t, body, "<b>ada@example.com</b>")
	assert.Contains(t, body, "Submit More Feedback")

	records, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestFormInvalidEmailStaysOnForm(t *testing.T) {
	r, store := setupRouter()
	resp := postForm(r, url.Values{
		"name":     {"Ada"},
		"email":    {"not-an-email"},
		"feedback": {"Great bot"},
	})

	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	body := resp.Body.String()
	assert.NotContains(t, body, "Thank you!")
	assert.Contains(t, body, "must be a valid email address")
	assert.Contains(t, body, `value="Ada"`)

	records, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSubmitMoreFeedbackResets(t *testing.T) {
	r, _ := setupRouter()
	resp := postForm(r, url.Values{"action": {"reset"}})

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `name="name" value=""`)
	assert.NotContains(t, resp.Body.String(), "Thank you!")
}

func TestJSONSubmit(t *testing.T) {
	r, _ := setupRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/feedback", strings.NewReader(`{"name":"Ada","email":"ada@example.com","feedback":"hi"}`))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	require.Equal(t, http.StatusCreated, resp.Code)

	var record feedback.Record
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &record))
	assert.NotEmpty(t, record.ID)
	assert.Equal(t, "Ada", record.Name)

	req = httptest.NewRequest(http.MethodPost, "/api/feedback", strings.NewReader(`{"name":"Ada"}`))
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	require.Equal(t, http.StatusBadRequest, resp.Code)

	var failed struct {
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &failed))
	assert.Contains(t, failed.Fields, "email")
	assert.Contains(t, failed.Fields, "feedback")
}
