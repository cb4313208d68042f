package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"equitask-backend/internal/ai"
	"equitask-backend/internal/config"
	"equitask-backend/internal/rules"
	"equitask-backend/internal/tasks"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "api",
		Short: "EquiTask task simplifier API",
		Long: `Breaks a free-text task into short, numbered, one-action steps using an
LLM, and falls back to a clarification request or a starter checklist when
the model output cannot be trusted.`,
		Version:      version,
		SilenceUsage: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	serve := newServeCommand(debugLogging)
	cmd.RunE = serve.RunE

	cmd.AddCommand(serve)
	cmd.AddCommand(newSimplifyCommand(debugLogging))

	return cmd
}

func execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newRootCommand().ExecuteContext(ctx)
}

// newLogger builds the process logger from LOG_LEVEL and LOG_FORMAT; --debug
// wins over LOG_LEVEL.
func newLogger(w io.Writer, cfg *config.Config, debug bool) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// newSimplifier wires the OpenAI client and rule set into the pipeline.
func newSimplifier(cfg *config.Config, logger *slog.Logger) (*tasks.Simplifier, error) {
	rs, err := rules.Load(cfg.RulesFile)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}

	client := ai.New(cfg.OpenAIKey, cfg.OpenAIBaseURL, &http.Client{Timeout: cfg.LLMTimeout})

	return tasks.NewSimplifier(client,
		tasks.WithRules(rs),
		tasks.WithDefaultModel(cfg.OpenAIModel),
		tasks.WithLogger(logger),
	), nil
}
