package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/nao1215/vpnsentry/internal/config"
	"github.com/nao1215/vpnsentry/internal/detector"
	"github.com/nao1215/vpnsentry/internal/model"
	"github.com/nao1215/vpnsentry/internal/report"
)

// clearScreen moves the cursor home and clears the terminal.
const clearScreen = "\x1b[H\x1b[2J"

// NewWatchCmd creates the watch command.
func NewWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-run detection periodically and show a warning when needed",
		Long: `Watch runs a detection pass every interval. For "VPN detected", "VPN likely"
and "Unreliable detection" a warning panel is shown; it is cleared as soon
as a pass finds nothing. On a terminal the time until the next pass is
counted down.

Examples:
  # Check every 30 seconds (default)
  vpnsentry watch

  # Check every minute with a custom warning
  vpnsentry watch -i 1m --message-file notice.txt

  # Run three passes and exit
  vpnsentry watch --count 3`,
		Args: cobra.NoArgs,
		RunE: runWatchCmd,
	}

	addDetectionFlags(cmd)

	cmd.Flags().DurationP("interval", "i", config.DefaultInterval,
		"Delay between two passes")
	cmd.Flags().String("message-file", "",
		"File whose content replaces the default warning text")
	cmd.Flags().Int("count", 0,
		"Number of passes to run (0 runs until interrupted)")

	return cmd
}

// runWatchCmd executes the watch command.
func runWatchCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	count, err := cmd.Flags().GetInt("count")
	if err != nil {
		return err
	}

	logger := setupLogger(cmd, cfg, cmd.ErrOrStderr())
	slog.SetDefault(logger)

	ctx, cancel := signalContext(logger)
	defer cancel()

	out := cmd.OutOrStdout()
	interactive := false
	if f, ok := out.(*os.File); ok {
		interactive = term.IsTerminal(int(f.Fd())) //nolint:gosec // Fd fits in int
	}

	return runWatch(ctx, cfg, logger, out, count, interactive)
}

// runWatch loops over detection passes until ctx is done or count passes
// have run.
func runWatch(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer, count int, interactive bool) error {
	var message string
	if cfg.MessageFile != "" {
		data, err := os.ReadFile(cfg.MessageFile)
		if err != nil {
			return fmt.Errorf("failed to read message file: %w", err)
		}
		message = string(data)
	}

	s, err := newSession(cfg, logger, io.Discard)
	if err != nil {
		return err
	}
	defer s.Close()

	w := &watcher{
		runner:      s.runner,
		panel:       report.NewPanel(out, message),
		out:         out,
		interval:    cfg.Interval,
		interactive: interactive,
		logger:      logger,
	}
	return w.loop(ctx, count)
}

// passRunner is the part of detector.Runner the watcher needs.
type passRunner interface {
	Run(ctx context.Context) (model.VerdictReport, error)
}

// watcher is the periodic scheduler. Passes never overlap: the next one
// starts only after the previous one was rendered and the interval passed.
type watcher struct {
	runner      passRunner
	panel       *report.Panel
	out         io.Writer
	interval    time.Duration
	interactive bool
	logger      *slog.Logger
}

func (w *watcher) loop(ctx context.Context, count int) error {
	for pass := 1; ; pass++ {
		verdict, err := w.runner.Run(ctx)
		switch {
		case err == nil:
			if err := w.render(verdict); err != nil {
				return err
			}
		case isCancellation(err):
			return nil
		case errors.Is(err, detector.ErrPassInProgress):
			w.logger.Warn("skipping pass", "reason", err)
		default:
			return fmt.Errorf("detection pass failed: %w", err)
		}

		if count > 0 && pass >= count {
			return nil
		}
		if err := w.wait(ctx); err != nil {
			return nil //nolint:nilerr // Cancellation ends the loop normally
		}
	}
}

// render shows the outcome of one pass.
func (w *watcher) render(verdict model.VerdictReport) error {
	var sb strings.Builder
	if w.interactive {
		sb.WriteString(clearScreen)
	}
	sb.WriteString(fmt.Sprintf("[%s] [VPN DETECTOR] %s (score %d)\n",
		verdict.GeneratedAt().Local().Format(time.TimeOnly), verdict.Verdict(), verdict.Score()))
	if _, err := io.WriteString(w.out, sb.String()); err != nil {
		return err
	}

	// On a terminal the countdown is drawn live below the panel.
	countdown := w.seconds()
	if w.interactive {
		countdown = 0
	}
	_, err := w.panel.Render(verdict, countdown)
	return err
}

// wait blocks for one interval, or until ctx is done.
func (w *watcher) wait(ctx context.Context) error {
	timer := time.NewTimer(w.interval)
	defer timer.Stop()

	var tick <-chan time.Time
	remaining := w.seconds()
	if w.interactive {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		tick = ticker.C
		w.drawCountdown(remaining)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		case <-tick:
			if remaining > 0 {
				remaining--
			}
			w.drawCountdown(remaining)
		}
	}
}

func (w *watcher) drawCountdown(seconds int) {
	fmt.Fprintf(w.out, "\r%s   ", report.CountdownText(seconds))
}

// seconds is the interval in whole seconds.
func (w *watcher) seconds() int {
	return int(w.interval.Round(time.Second) / time.Second)
}
