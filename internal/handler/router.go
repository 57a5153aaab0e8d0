package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/zhouzirui/lgt-bot/backend/internal/handler/chat"
	"github.com/zhouzirui/lgt-bot/backend/internal/handler/feedback"
	"github.com/zhouzirui/lgt-bot/backend/internal/handler/preview"
	"github.com/zhouzirui/lgt-bot/backend/internal/handler/web"
	"github.com/zhouzirui/lgt-bot/backend/internal/handler/ws"
	middlewarePkg "github.com/zhouzirui/lgt-bot/backend/internal/middleware"
	previewPkg "github.com/zhouzirui/lgt-bot/backend/internal/preview"
	chatService "github.com/zhouzirui/lgt-bot/backend/internal/service/chat"
	feedbackService "github.com/zhouzirui/lgt-bot/backend/internal/service/feedback"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(chatSvc *chatService.Service, feedbackSvc *feedbackService.Service, catalog *previewPkg.Catalog, logger *zap.Logger) (http.Handler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	webHandler, err := web.New(logger)
	if err != nil {
		return nil, err
	}
	chatHandler := chat.New(chatSvc, logger)
	previewHandler := preview.New(chatSvc, catalog, logger)
	feedbackHandler := feedback.New(feedbackSvc, logger)
	wsHandler := ws.New(chatSvc, logger)

	webHandler.RegisterRoutes(r)
	previewHandler.RegisterPageRoutes(r)
	feedbackHandler.RegisterPageRoutes(r)

	r.Route("/api", func(api chi.Router) {
		chatHandler.RegisterRoutes(api)
		previewHandler.RegisterRoutes(api)
		feedbackHandler.RegisterRoutes(api)
		wsHandler.RegisterRoutes(api)
	})

	return r, nil
}
