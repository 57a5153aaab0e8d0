package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zhouzirui/lgt-bot/backend/internal/service/ai"
	"github.com/zhouzirui/lgt-bot/backend/pkg/utils"
)

// Handler serves the chat widget page and the liveness probe.
type Handler struct {
	page   []byte
	logger *zap.Logger
}

// New renders the widget page once.
func New(logger *zap.Logger) (*Handler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	page, err := renderWidget(widgetData{BotName: ai.BotName})
	if err != nil {
		return nil, err
	}
	return &Handler{page: page, logger: logger}, nil
}

// RegisterRoutes mounts the page routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.handleIndex)
	r.Get("/healthz", h.handleHealth)
}

func (h *Handler) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(h.page); err != nil {
		h.logger.Debug("write widget page", zap.Error(err))
	}
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
