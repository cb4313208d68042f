package main

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/spf13/cobra"

	"equitask-backend/internal/config"
	"equitask-backend/internal/tasks"
)

func newSimplifyCommand(debug *bool) *cobra.Command {
	var req tasks.TaskRequest

	cmd := &cobra.Command{
		Use:   "simplify",
		Short: "Simplify one task and print the result as JSON",
		Example: `  api simplify --text "Prepare the weekly report for the sales team" --type Reporting
  echo "Book a meeting room for Friday" | api simplify --text -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if cfg.OpenAIKey == "" {
				return errors.New("OPENAI_API_KEY is not set")
			}

			if req.TaskText == "-" {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				req.TaskText = string(b)
			}

			s, err := newSimplifier(cfg, newLogger(cmd.ErrOrStderr(), cfg, *debug))
			if err != nil {
				return err
			}

			res := s.Simplify(cmd.Context(), req)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}

	f := cmd.Flags()
	f.StringVar(&req.TaskID, "task-id", "cli", "Task identifier echoed in the result")
	f.StringVar(&req.TaskText, "text", "", "Task text, or - to read it from stdin")
	f.StringVar(&req.TaskType, "type", "Unknown", "Task type (Reporting, Technical, ...)")
	f.StringVar(&req.AccessibilityMode, "mode", "Standard", "Accessibility mode (Standard, Simplified, Voice-First, Visual-Assist, Assistive)")
	f.StringVar(&req.Model, "model", "", "Model override (default OPENAI_MODEL)")
	_ = cmd.MarkFlagRequired("text")

	return cmd
}
