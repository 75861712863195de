package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/nao1215/vpnsentry/internal/config"
	"github.com/nao1215/vpnsentry/internal/store"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded detection passes",
		Long: `History lists the most recent detection passes recorded by check and watch,
newest first. With --id the full report of one pass is shown.

Examples:
  # Show the last 20 passes
  vpnsentry history

  # Show every pass as JSON
  vpnsentry history -n 0 --json

  # Show the full report of pass 42
  vpnsentry history --id 42`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", config.DefaultHistoryLimit,
		"Number of passes to list (0 lists all)")
	cmd.Flags().Int64("id", 0,
		"Show the full report of the pass with this ID")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the history database")
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown (mutually exclusive with --json)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.JSONReport && cfg.MarkdownReport {
		return config.ErrConflictingReportFormats
	}

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	id, err := cmd.Flags().GetInt64("id")
	if err != nil {
		return err
	}

	return runHistory(cmd.Context(), cfg, limit, id, cmd.OutOrStdout())
}

// runHistory prints the history, or one stored report when id is positive.
func runHistory(ctx context.Context, cfg *config.Config, limit int, id int64, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	db, err := store.Open(cfg.DBDir, store.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		return fmt.Errorf("no history available: %w", err)
	}
	defer db.Close()

	w := newReportWriter(cfg, out)

	if id > 0 {
		verdict, err := db.GetVerdictByID(ctx, id)
		if err != nil {
			return err
		}
		if verdict == nil {
			return fmt.Errorf("no pass with ID %d", id)
		}
		_, err = w.Write(*verdict)
		return err
	}

	entries, err := db.History(ctx, limit)
	if err != nil {
		return err
	}
	_, err = w.WriteHistory(entries)
	return err
}
