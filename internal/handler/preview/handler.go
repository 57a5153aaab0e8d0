package preview

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zhouzirui/lgt-bot/backend/internal/model/chat"
	"github.com/zhouzirui/lgt-bot/backend/internal/preview"
	chatService "github.com/zhouzirui/lgt-bot/backend/internal/service/chat"
	"github.com/zhouzirui/lgt-bot/backend/pkg/utils"
)

var errNoPreview = errors.New("message has no preview")

// Handler serves preview bundles and the sandboxed preview document.
type Handler struct {
	chatSvc *chatService.Service
	catalog *preview.Catalog
	logger  *zap.Logger
}

// New creates a preview handler. A nil catalog uses the embedded one.
func New(chatSvc *chatService.Service, catalog *preview.Catalog, logger *zap.Logger) *Handler {
	if catalog == nil {
		catalog = preview.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{chatSvc: chatSvc, catalog: catalog, logger: logger}
}

// RegisterRoutes mounts the bundle endpoint on the API router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/sessions/{sessionID}/messages/{messageID}/preview", h.handleBundle)
}

// RegisterPageRoutes mounts the preview document on the root router.
func (h *Handler) RegisterPageRoutes(r chi.Router) {
	r.Get("/preview/{sessionID}/{messageID}", h.handleDocument)
}

func (h *Handler) handleBundle(w http.ResponseWriter, r *http.Request) {
	bundle, err := h.bundle(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "messageID"))
	if err != nil {
		utils.RespondError(w, h.status(err), err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusOK, bundle)
}

func (h *Handler) handleDocument(w http.ResponseWriter, r *http.Request) {
	bundle, err := h.bundle(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "messageID"))
	if err != nil {
		http.Error(w, err.Error(), h.status(err))
		return
	}

	doc, err := h.catalog.Render(bundle)
	if err != nil {
		h.logger.Error("render preview", zap.Error(err), zap.String("type", string(bundle.Type)))
		http.Error(w, "preview could not be rendered", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Security-Policy", preview.SandboxCSP)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, doc)
}

func (h *Handler) bundle(ctx context.Context, sessionID, rawMessageID string) (preview.Bundle, error) {
	messageID, err := strconv.Atoi(rawMessageID)
	if err != nil {
		return preview.Bundle{}, chatService.ErrMessageNotFound
	}

	msg, err := h.chatSvc.GetMessage(ctx, sessionID, messageID)
	if err != nil {
		return preview.Bundle{}, err
	}
	if msg.Sender != chat.SenderBot || !msg.Previewable() {
		return preview.Bundle{}, errNoPreview
	}

	return h.catalog.Build(*msg.CodeSnippet)
}

func (h *Handler) status(err error) int {
	switch {
	case errors.Is(err, chatService.ErrSessionNotFound),
		errors.Is(err, chatService.ErrMessageNotFound),
		errors.Is(err, errNoPreview):
		return http.StatusNotFound
	default:
		h.logger.Error("build preview", zap.Error(err))
		return http.StatusInternalServerError
	}
}
