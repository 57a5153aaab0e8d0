package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/zhouzirui/lgt-bot/backend/internal/config"
	"github.com/zhouzirui/lgt-bot/backend/internal/handler"
	"github.com/zhouzirui/lgt-bot/backend/internal/logging"
	"github.com/zhouzirui/lgt-bot/backend/internal/model/feedback"
	"github.com/zhouzirui/lgt-bot/backend/internal/preview"
	"github.com/zhouzirui/lgt-bot/backend/internal/service/ai"
	"github.com/zhouzirui/lgt-bot/backend/internal/service/chat"
	feedbackservice "github.com/zhouzirui/lgt-bot/backend/internal/service/feedback"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "lgt-bot:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	if envErr != nil {
		logger.Debug("no .env file loaded, using process environment", zap.Error(envErr))
	}

	generator, err := ai.New(ctx, cfg.LLM, logger)
	if err != nil {
		return fmt.Errorf("initialise language model: %w", err)
	}
	chatSvc := chat.NewService(generator, logger)

	var store feedback.Store = feedback.NopStore{}
	if cfg.Feedback.DBPath != "" {
		sqliteStore, err := feedback.OpenSQLiteStore(ctx, cfg.Feedback.DBPath)
		if err != nil {
			return fmt.Errorf("open feedback store: %w", err)
		}
		defer sqliteStore.Close()
		store = sqliteStore
		logger.Info("feedback persisted to sqlite", zap.String("path", cfg.Feedback.DBPath))
	}
	feedbackSvc := feedbackservice.NewService(store, logger)

	router, err := handler.NewRouter(chatSvc, feedbackSvc, preview.Default(), logger)
	if err != nil {
		return fmt.Errorf("build router: %w", err)
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("LGT Bot backend listening",
			zap.String("addr", srv.Addr),
			zap.String("provider", cfg.LLM.Provider),
		)
		return runServer(gctx, srv)
	})
	g.Go(func() error {
		return chatSvc.RunSweeper(gctx, cfg.Session.SweepInterval, cfg.Session.TTL)
	})

	return g.Wait()
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
