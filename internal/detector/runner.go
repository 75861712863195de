package detector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/vpnsentry/internal/collector"
	"github.com/nao1215/vpnsentry/internal/model"
	"github.com/nao1215/vpnsentry/internal/scoring"
	"github.com/nao1215/vpnsentry/internal/store"
)

// ErrPassInProgress is returned by Run while another pass of the same
// Runner is active.
var ErrPassInProgress = errors.New("detection pass already in progress")

// NetworkCollector looks up the public address of the host.
type NetworkCollector interface {
	Collect(ctx context.Context) *model.NetworkRecord
}

// LeakCollector gathers addresses revealed by WebRTC.
type LeakCollector interface {
	Collect(ctx context.Context) model.LeakAddressSet
}

// PrivacyCollector infers the privacy mode of the session.
type PrivacyCollector interface {
	Collect(ctx context.Context) model.PrivacyMode
}

// HistoryRecorder stores finished reports.
type HistoryRecorder interface {
	SaveVerdict(ctx context.Context, report model.VerdictReport) (int64, error)
}

var (
	_ NetworkCollector = (*collector.GeoCollector)(nil)
	_ LeakCollector    = (*collector.WebRTCCollector)(nil)
	_ PrivacyCollector = (*collector.PrivacyCollector)(nil)
	_ HistoryRecorder  = (*store.DB)(nil)
)

// Runner executes detection passes.
type Runner struct {
	// mu is held for the whole pass.
	mu sync.Mutex

	engine *scoring.Engine
	slot   store.Slot

	host      collector.Host
	userAgent string

	network NetworkCollector
	leaks   LeakCollector
	privacy PrivacyCollector
	history HistoryRecorder

	logger  *slog.Logger
	console io.Writer
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger for pass diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithHost sets the host the environment and fingerprint are read from.
func WithHost(h collector.Host) Option {
	return func(r *Runner) {
		r.host = h
	}
}

// WithUserAgent sets the user agent that is part of the fingerprint.
func WithUserAgent(ua string) Option {
	return func(r *Runner) {
		r.userAgent = ua
	}
}

// WithNetworkCollector sets the geolocation collector.
// Without one every pass has no network record.
func WithNetworkCollector(c NetworkCollector) Option {
	return func(r *Runner) {
		r.network = c
	}
}

// WithLeakCollector sets the WebRTC collector.
func WithLeakCollector(c LeakCollector) Option {
	return func(r *Runner) {
		r.leaks = c
	}
}

// WithPrivacyCollector sets the privacy-mode collector.
func WithPrivacyCollector(c PrivacyCollector) Option {
	return func(r *Runner) {
		r.privacy = c
	}
}

// WithHistory records every finished report.
func WithHistory(h HistoryRecorder) Option {
	return func(r *Runner) {
		r.history = h
	}
}

// WithConsole writes one "[VPN DETECTOR]" line per pass to w.
func WithConsole(w io.Writer) Option {
	return func(r *Runner) {
		r.console = w
	}
}

// New creates a Runner scoring with engine and persisting the fingerprint
// digest in slot. A nil slot keeps the digest in memory.
func New(engine *scoring.Engine, slot store.Slot, opts ...Option) *Runner {
	r := &Runner{
		engine: engine,
		slot:   slot,
		host:   collector.OSHost{},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.slot == nil {
		r.slot = store.NewMemorySlot()
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Run executes one detection pass.
//
// The only errors are ErrPassInProgress and the context error when ctx is
// done before scoring. Collector failures are absorbed into the evidence
// and surface in the report.
func (r *Runner) Run(ctx context.Context) (model.VerdictReport, error) {
	if !r.mu.TryLock() {
		return model.VerdictReport{}, ErrPassInProgress
	}
	defer r.mu.Unlock()

	ev := model.Evidence{
		Environment: collector.ReadEnvironment(r.host),
		Fingerprint: collector.Fingerprint(r.userAgent, r.host),
	}

	// Each goroutine writes its own field of ev.
	g, gctx := errgroup.WithContext(ctx)
	if r.network != nil {
		g.Go(func() error {
			ev.Network = r.network.Collect(gctx)
			return nil
		})
	}
	if r.leaks != nil {
		g.Go(func() error {
			ev.Leaks = r.leaks.Collect(gctx)
			return nil
		})
	}
	if r.privacy != nil {
		g.Go(func() error {
			ev.Privacy = r.privacy.Collect(gctx)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		r.logger.Warn("detection pass cancelled", "reason", err)
		return model.VerdictReport{}, err
	}

	previous, err := r.slot.Load(ctx)
	if err != nil {
		if !errors.Is(err, store.ErrSlotEmpty) {
			r.logger.Warn("failed to load previous fingerprint", "error", err)
		}
		previous = ""
	}

	result := r.engine.Score(ev, previous)
	report := result.Report

	// The scored pass is complete; persist even if ctx is cancelled now.
	persistCtx := context.WithoutCancel(ctx)
	if err := r.slot.Store(persistCtx, result.Fingerprint); err != nil {
		r.logger.Warn("failed to store fingerprint", "error", err)
	}
	if r.history != nil {
		if id, err := r.history.SaveVerdict(persistCtx, report); err != nil {
			r.logger.Warn("failed to record verdict", "error", err)
		} else {
			r.logger.Debug("verdict recorded", "id", id)
		}
	}

	r.logPass(ev, previous, result)
	return report, nil
}

func (r *Runner) logPass(ev model.Evidence, previous string, result scoring.Result) {
	report := result.Report
	var publicIP string
	if ev.Network != nil {
		publicIP = ev.Network.Address
	}

	r.logger.Debug("detection pass finished",
		"verdict", report.Verdict().String(),
		"score", report.Score(),
		"reliable", report.Reliable(),
		"public_ip", publicIP,
		"leaks", ev.Leaks.Addresses(),
		"privacy", ev.Privacy.String(),
		"previous", previous,
		"digest", result.Fingerprint,
	)

	if r.console == nil {
		return
	}
	if report.Verdict().Blocking() {
		fmt.Fprintf(r.console, "[VPN DETECTOR] %s\n", report.Verdict())
	} else {
		fmt.Fprintln(r.console, "[VPN DETECTOR] No VPN detected.")
	}
}
