package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/vpnsentry/internal/config"
	"github.com/nao1215/vpnsentry/internal/model"
	"github.com/nao1215/vpnsentry/internal/report"
)

// NewCheckCmd creates the check command.
func NewCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run one detection pass and print the verdict",
		Long: `Check runs a single detection pass and prints the verdict with the full
audit trail of every rule.

The pass is recorded in the history database, and the device fingerprint
is stored so that the next pass can detect a change of device.

Examples:
  # Run one pass
  vpnsentry check

  # Classify the connection as seen through a local Tor client
  vpnsentry check --proxy 127.0.0.1:9050

  # Output JSON report
  vpnsentry check --json

  # Write a Markdown report to a file
  vpnsentry check --markdown -o report.md

  # Keep a JSON copy and still read the verdict on the terminal
  vpnsentry check --json -o last.json --tee

Configuration file (.vpnsentry) example:
  lookup_timeout: 5s
  rules:
    datacenter_keywords:
      - hetzner`,
		Args: cobra.NoArgs,
		RunE: runCheckCmd,
	}

	addDetectionFlags(cmd)

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().Bool("tee", false,
		"With --output, also print the text report to stdout")

	return cmd
}

// runCheckCmd executes the check command.
func runCheckCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd, cfg, cmd.ErrOrStderr())
	slog.SetDefault(logger)

	ctx, cancel := signalContext(logger)
	defer cancel()

	return runCheck(ctx, cfg, logger, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// runCheck runs one pass and outputs its report.
func runCheck(ctx context.Context, cfg *config.Config, logger *slog.Logger, stdout, stderr io.Writer) error {
	s, err := newSession(cfg, logger, stderr)
	if err != nil {
		return err
	}
	defer s.Close()

	verdict, err := s.runner.Run(ctx)
	if err != nil {
		return fmt.Errorf("detection pass failed: %w", err)
	}

	return outputReport(cfg, verdict, stdout)
}

// outputReport writes the report to cfg.ReportFile, or stdout when unset.
// With cfg.Tee the text report goes to stdout as well.
func outputReport(cfg *config.Config, verdict model.VerdictReport, stdout io.Writer) error {
	if cfg.ReportFile == "" {
		_, err := newReportWriter(cfg, stdout).Write(verdict)
		return err
	}

	dir := filepath.Dir(cfg.ReportFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// The report contains the public address, so it is private to the owner.
	f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	var w report.Writer = newReportWriter(cfg, f)
	if cfg.Tee {
		w = report.NewMultiWriter(w, report.NewSimpleWriter(stdout, report.WithVerbose(cfg.Verbose)))
	}
	_, err = w.Write(verdict)
	return err
}

// newReportWriter selects the writer for the configured format.
func newReportWriter(cfg *config.Config, output io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewJSONWriter(output, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(output)
	default:
		return report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}
}
