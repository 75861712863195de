package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/nao1215/vpnsentry/internal/collector"
	"github.com/nao1215/vpnsentry/internal/config"
	"github.com/nao1215/vpnsentry/internal/detector"
	"github.com/nao1215/vpnsentry/internal/log"
	"github.com/nao1215/vpnsentry/internal/scoring"
	"github.com/nao1215/vpnsentry/internal/store"
)

// addDetectionFlags adds the flags shared by check and watch.
func addDetectionFlags(cmd *cobra.Command) {
	cmd.Flags().String("endpoint", config.DefaultGeoEndpoint,
		"IP-intelligence service queried once per pass")
	cmd.Flags().StringP("proxy", "x", "",
		"Route the lookup through a SOCKS5 proxy (e.g., 127.0.0.1:9050)")
	cmd.Flags().Duration("lookup-timeout", config.DefaultLookupTimeout,
		"Timeout for the geolocation lookup (0 waits indefinitely)")
	cmd.Flags().Duration("webrtc-timeout", config.DefaultWebRTCTimeout,
		"Cap on WebRTC candidate gathering")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User agent sent with the lookup and used in the fingerprint")
	cmd.Flags().Bool("no-webrtc", false,
		"Skip WebRTC candidate gathering")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the fingerprint and history database")
	cmd.Flags().Bool("no-store", false,
		"Do not open the database (no history, fingerprint kept in --fingerprint-file or memory)")
	cmd.Flags().String("fingerprint-file", "",
		"Keep the fingerprint digest in this file instead of the database")
}

// getBoolFlag retrieves a bool flag from the command or the root.
func getBoolFlag(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		v, err = cmd.Root().PersistentFlags().GetBool(name)
		if err != nil {
			return false
		}
	}
	return v
}

// getStringFlag retrieves a string flag from the command or the root.
func getStringFlag(cmd *cobra.Command, name string) string {
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		v, err = cmd.Root().PersistentFlags().GetString(name)
		if err != nil {
			return ""
		}
	}
	return v
}

// buildConfig creates a Config from the configuration file and the flags.
// Flags that were set explicitly override the file.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	cfg.Verbose = getBoolFlag(cmd, "verbose")
	cfg.Reveal = getBoolFlag(cmd, "reveal")
	cfg.ConfigFilePath = getStringFlag(cmd, "config")

	// An explicitly given file must exist; the default locations are optional.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.ApplyFile(file)
	case explicitConfigPath:
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	flags := cmd.Flags()
	for _, err := range []error{
		overrideString(flags, "endpoint", &cfg.GeoEndpoint),
		overrideString(flags, "proxy", &cfg.Proxy),
		overrideString(flags, "user-agent", &cfg.UserAgent),
		overrideDuration(flags, "lookup-timeout", &cfg.LookupTimeout),
		overrideDuration(flags, "webrtc-timeout", &cfg.WebRTCTimeout),
		overrideDuration(flags, "interval", &cfg.Interval),
		overrideString(flags, "db-dir", &cfg.DBDir),
		overrideString(flags, "fingerprint-file", &cfg.SlotFile),
		overrideString(flags, "message-file", &cfg.MessageFile),
		overrideString(flags, "output", &cfg.ReportFile),
		overrideBool(flags, "no-store", &cfg.NoStore),
		overrideBool(flags, "no-webrtc", &cfg.NoWebRTC),
		overrideBool(flags, "json", &cfg.JSONReport),
		overrideBool(flags, "markdown", &cfg.MarkdownReport),
		overrideBool(flags, "tee", &cfg.Tee),
	} {
		if err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// overrideString sets dst from the flag when the command has the flag and
// it was set, or when dst is still empty.
func overrideString(flags *pflag.FlagSet, name string, dst *string) error {
	if flags.Lookup(name) == nil || (!flags.Changed(name) && *dst != "") {
		return nil
	}
	v, err := flags.GetString(name)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func overrideDuration(flags *pflag.FlagSet, name string, dst *time.Duration) error {
	if flags.Lookup(name) == nil || !flags.Changed(name) {
		return nil
	}
	v, err := flags.GetDuration(name)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func overrideBool(flags *pflag.FlagSet, name string, dst *bool) error {
	if flags.Lookup(name) == nil {
		return nil
	}
	v, err := flags.GetBool(name)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

// setupLogger creates the secure logger writing to w.
func setupLogger(cmd *cobra.Command, cfg *config.Config, w io.Writer) *slog.Logger {
	opts := []log.Option{log.WithReveal(cfg.Reveal)}
	if getBoolFlag(cmd, "log-json") {
		return log.NewSecureJSONLogger(w, cfg.Verbose, opts...)
	}
	return log.NewSecureLogger(w, cfg.Verbose, opts...)
}

// signalContext returns a context cancelled on interrupt or SIGTERM.
func signalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// session holds a Runner and the resources it was built on.
type session struct {
	runner *detector.Runner
	db     *store.DB
}

// newSession wires the collectors, the engine and the slot described by
// cfg. console receives the per-pass log line.
func newSession(cfg *config.Config, logger *slog.Logger, console io.Writer) (*session, error) {
	engine, err := scoring.NewEngine(
		scoring.WithTorCIDRs(cfg.Rules.TorCIDRs...),
		scoring.WithDatacenterKeywords(cfg.Rules.DatacenterKeywords...),
		scoring.WithSuspiciousTimezones(cfg.Rules.SuspiciousTimezones...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build scoring rules: %w", err)
	}

	// The lookup timeout is applied per request by the collector.
	client, err := collector.NewHTTPClient(cfg.Proxy, 0)
	if err != nil {
		return nil, err
	}
	geo := collector.NewGeoCollector(cfg.GeoEndpoint,
		collector.WithHTTPClient(client),
		collector.WithUserAgent(cfg.UserAgent),
		collector.WithLookupTimeout(cfg.LookupTimeout),
		collector.WithMaxBodySize(cfg.MaxBodySize),
		collector.WithGeoLogger(logger),
	)

	var factory collector.PeerFactory
	if !cfg.NoWebRTC {
		factory = collector.NewPionPeer
	}
	webrtc := collector.NewWebRTCCollector(factory, cfg.WebRTCTimeout, logger)
	privacy := collector.NewPrivacyCollector(logger, collector.DefaultPrivacyProbes(cfg.DBDir)...)

	s := &session{}
	opts := []detector.Option{
		detector.WithLogger(logger),
		detector.WithUserAgent(cfg.UserAgent),
		detector.WithNetworkCollector(geo),
		detector.WithLeakCollector(webrtc),
		detector.WithPrivacyCollector(privacy),
		detector.WithConsole(console),
	}

	var slot store.Slot
	if !cfg.NoStore {
		db, err := store.Open(cfg.DBDir, store.DefaultOptions())
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		logger.Debug("database opened", "path", db.Path())
		s.db = db
		slot = db.Slot(store.FingerprintSlot)
		opts = append(opts, detector.WithHistory(db))
	}
	if cfg.SlotFile != "" {
		fileSlot, err := store.NewFileSlot(cfg.SlotFile)
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		slot = fileSlot
	}

	s.runner = detector.New(engine, slot, opts...)
	return s, nil
}

// Close releases the database, if any.
func (s *session) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// isCancellation reports whether err only says that the run was stopped.
func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
