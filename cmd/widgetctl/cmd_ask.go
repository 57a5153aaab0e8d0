package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zhouzirui/lgt-bot/backend/internal/config"
	"github.com/zhouzirui/lgt-bot/backend/internal/logging"
	"github.com/zhouzirui/lgt-bot/backend/internal/model/chat"
	"github.com/zhouzirui/lgt-bot/backend/internal/parser"
	"github.com/zhouzirui/lgt-bot/backend/internal/service/ai"
)

func newAskCmd() *cobra.Command {
	var (
		stage string
		name  string
		email string
		raw   bool
	)

	cmd := &cobra.Command{
		Use:   "ask [text...]",
		Short: "Send one problem-statement turn to the configured language model",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.LLM.Timeout)
			defer cancel()

			gen, err := ai.New(ctx, cfg.LLM, logger)
			if err != nil {
				return err
			}

			req := ai.Request{
				SessionID: "widgetctl",
				Stage:     chat.Stage(stage),
				UserName:  name,
				UserEmail: email,
				Prompt:    strings.Join(args, " "),
			}
			return ask(ctx, cmd, gen, req, raw, logger)
		},
	}

	cmd.Flags().StringVar(&stage, "stage", string(chat.StageProblemStatement), "conversation stage reported to the model")
	cmd.Flags().StringVar(&name, "name", "", "user name reported to the model")
	cmd.Flags().StringVar(&email, "email", "", "user email reported to the model")
	cmd.Flags().BoolVar(&raw, "raw", false, "print the unparsed reply")
	return cmd
}

func ask(ctx context.Context, cmd *cobra.Command, gen ai.Generator, req ai.Request, raw bool, logger *zap.Logger) error {
	reply, err := gen.Generate(ctx, req)
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}

	out := cmd.OutOrStdout()
	if raw {
		_, err := fmt.Fprintln(out, reply)
		return err
	}

	parsed, err := parser.Parse(reply)
	if err != nil {
		logger.Warn("reply has a malformed code block", zap.Error(err))
	}
	fmt.Fprintln(out, parsed.Text)
	if parsed.Snippet != nil {
		fmt.Fprintf(out, "\n[%s snippet, %d bytes] %s\n", parsed.Snippet.Type, len(parsed.Snippet.Code), parsed.Snippet.Output)
	}
	return nil
}
