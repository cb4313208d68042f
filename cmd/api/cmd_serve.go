package main

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"equitask-backend/internal/analytics"
	"equitask-backend/internal/config"
	"equitask-backend/internal/db"
	"equitask-backend/internal/server"
	"equitask-backend/internal/tasks"
)

func newServeCommand(debug *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			logger := newLogger(cmd.ErrOrStderr(), cfg, *debug)
			slog.SetDefault(logger)

			s, err := newSimplifier(cfg, logger)
			if err != nil {
				return err
			}

			if cfg.OpenAIKey == "" {
				logger.Warn("OPENAI_API_KEY is not set; /ai/task-simplify will return 500")
			}

			var rec *analytics.Recorder
			if cfg.AnalyticsEnabled() {
				var database *sql.DB
				database, err = db.Connect(cmd.Context(), cfg.ConnString())
				if err != nil {
					return fmt.Errorf("connect analytics db: %w", err)
				}
				defer database.Close()

				rec = analytics.NewRecorder(database, logger)
				if err := rec.EnsureSchema(cmd.Context()); err != nil {
					return err
				}
				logger.Info("connected to PostgreSQL", "host", cfg.DBHost, "db", cfg.DBName)
			} else {
				logger.Info("analytics disabled; DB_HOST not set")
			}

			th := tasks.New(s, rec, cfg.OpenAIKey != "", logger)

			srv := server.New(server.Config{
				Port:           cfg.Port,
				AllowedOrigins: cfg.AllowedOrigins,
				MaxConnections: cfg.MaxConnections,
				Logger:         logger,
			}, th)

			return srv.Run(cmd.Context())
		},
	}
}
