package feedback

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zhouzirui/lgt-bot/backend/internal/model/feedback"
	feedbackService "github.com/zhouzirui/lgt-bot/backend/internal/service/feedback"
	"github.com/zhouzirui/lgt-bot/backend/pkg/utils"
)

// Handler serves the feedback form and its JSON counterpart.
type Handler struct {
	svc    *feedbackService.Service
	logger *zap.Logger
}

// New creates a feedback handler.
func New(svc *feedbackService.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// RegisterRoutes mounts the JSON endpoint on the API router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/feedback", h.handleSubmitJSON)
}

// RegisterPageRoutes mounts the server-rendered form.
func (h *Handler) RegisterPageRoutes(r chi.Router) {
	r.Get("/feedback", h.handleForm)
	r.Post("/feedback", h.handleFormPost)
}

func (h *Handler) handleForm(w http.ResponseWriter, _ *http.Request) {
	var form feedback.Form
	h.writePage(w, http.StatusOK, &form, nil)
}

func (h *Handler) handleFormPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form body", http.StatusBadRequest)
		return
	}

	var form feedback.Form
	if r.PostForm.Get("action") == "reset" {
		form.Reset()
		h.writePage(w, http.StatusOK, &form, nil)
		return
	}

	entry := feedback.Entry{
		Name:     r.PostForm.Get("name"),
		Email:    r.PostForm.Get("email"),
		Feedback: r.PostForm.Get("feedback"),
	}

	err := h.svc.Form(r.Context(), &form, entry)
	var verr *feedbackService.ValidationError
	switch {
	case err == nil:
		h.writePage(w, http.StatusOK, &form, nil)
	case errors.As(err, &verr):
		h.writePage(w, http.StatusUnprocessableEntity, &form, verr.Fields)
	default:
		h.logger.Error("feedback submission failed", zap.Error(err))
		http.Error(w, "feedback could not be saved", http.StatusInternalServerError)
	}
}

func (h *Handler) handleSubmitJSON(w http.ResponseWriter, r *http.Request) {
	var entry feedback.Entry
	if err := utils.DecodeJSON(w, r, &entry); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	record, err := h.svc.Submit(r.Context(), entry)
	var verr *feedbackService.ValidationError
	switch {
	case err == nil:
		utils.RespondJSON(w, http.StatusCreated, record)
	case errors.As(err, &verr):
		utils.RespondJSON(w, http.StatusBadRequest, map[string]any{
			"error":  verr.Error(),
			"fields": verr.Fields,
		})
	default:
		h.logger.Error("feedback submission failed", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "feedback could not be saved")
	}
}

func (h *Handler) writePage(w http.ResponseWriter, status int, form *feedback.Form, fieldErrs map[string]string) {
	body, err := renderPage(pageData{
		Submitted: form.State() == feedback.StateSubmitted,
		Entry:     form.Entry(),
		Errors:    fieldErrs,
	})
	if err != nil {
		h.logger.Error("render feedback page", zap.Error(err))
		http.Error(w, "page unavailable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
