package collector

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/vpnsentry/internal/model"
)

// quotaReservation is the size of the test reservation in bytes.
const quotaReservation = 100

// PrivacyProbe is one primitive for inferring an ephemeral session.
type PrivacyProbe interface {
	// Name identifies the probe in logs.
	Name() string

	// Available reports whether the primitive can run on this host.
	Available() bool

	// Probe runs the primitive. It is only called when Available is true.
	Probe(ctx context.Context) model.PrivacyMode
}

// PrivacyCollector runs the first available probe, in the order given.
type PrivacyCollector struct {
	probes []PrivacyProbe
	logger *slog.Logger
}

// NewPrivacyCollector creates a collector trying probes in order.
func NewPrivacyCollector(logger *slog.Logger, probes ...PrivacyProbe) *PrivacyCollector {
	if logger == nil {
		logger = slog.Default()
	}
	return &PrivacyCollector{probes: probes, logger: logger}
}

// DefaultPrivacyProbes returns the quota probe followed by the database
// probe, both working in dir. The database probe runs where the quota
// probe has no filesystem primitive or dir does not exist yet.
func DefaultPrivacyProbes(dir string) []PrivacyProbe {
	return []PrivacyProbe{
		&QuotaProbe{Dir: dir},
		&DatabaseProbe{Dir: dir},
	}
}

// Collect returns the result of the strongest available probe, or
// model.PrivacyUnknown when none is available.
func (c *PrivacyCollector) Collect(ctx context.Context) model.PrivacyMode {
	for _, p := range c.probes {
		if !p.Available() {
			continue
		}
		mode := p.Probe(ctx)
		c.logger.Debug("privacy probe done", "probe", p.Name(), "mode", mode.String())
		return mode
	}
	c.logger.Debug("no privacy probe available")
	return model.PrivacyUnknown
}

// QuotaProbe checks whether the data directory lives on a memory backed
// filesystem, then reserves a few bytes in it. Amnesic sessions and
// sessions without writable storage are reported as active.
type QuotaProbe struct {
	Dir string

	// memoryFS overrides the filesystem type check in tests.
	memoryFS func(dir string) (bool, error)
}

// Name implements PrivacyProbe.
func (q *QuotaProbe) Name() string { return "quota" }

// Available implements PrivacyProbe. The filesystem of an existing Dir
// must be inspectable on this platform.
func (q *QuotaProbe) Available() bool {
	if !quotaSupported || q.Dir == "" {
		return false
	}
	_, err := q.filesystemCheck()(q.Dir)
	return err == nil
}

// Probe implements PrivacyProbe.
func (q *QuotaProbe) Probe(_ context.Context) model.PrivacyMode {
	if err := os.MkdirAll(q.Dir, 0700); err != nil {
		return model.PrivacyActive
	}

	if mem, err := q.filesystemCheck()(q.Dir); err == nil && mem {
		return model.PrivacyActive
	}

	if err := reserve(q.Dir, quotaReservation); err != nil {
		return model.PrivacyActive
	}
	return model.PrivacyInactive
}

func (q *QuotaProbe) filesystemCheck() func(dir string) (bool, error) {
	if q.memoryFS != nil {
		return q.memoryFS
	}
	return isMemoryFilesystem
}

// reserve writes and removes a temporary file of n bytes in dir.
func reserve(dir string, n int) error {
	f, err := os.CreateTemp(dir, ".quota-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_, werr := f.Write(make([]byte, n))
	if serr := f.Sync(); werr == nil {
		werr = serr
	}
	cerr := f.Close()
	rerr := os.Remove(name)
	return errors.Join(werr, cerr, rerr)
}

// DatabaseProbe opens a throwaway SQLite database in Dir, writes one row,
// then closes and deletes it. Failure is reported as an active session.
type DatabaseProbe struct {
	Dir string
}

// Name implements PrivacyProbe.
func (d *DatabaseProbe) Name() string { return "database" }

// Available implements PrivacyProbe.
func (d *DatabaseProbe) Available() bool { return d.Dir != "" }

// Probe implements PrivacyProbe.
func (d *DatabaseProbe) Probe(ctx context.Context) model.PrivacyMode {
	if err := openAndDiscard(ctx, d.Dir); err != nil {
		return model.PrivacyActive
	}
	return model.PrivacyInactive
}

func openAndDiscard(ctx context.Context, dir string) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".probe-*.db")
	if err != nil {
		return err
	}
	path := f.Name()
	if err := f.Close(); err != nil {
		return err
	}
	defer func() { _ = os.Remove(path) }()

	db, err := sql.Open("sqlite", path+"?mode=rw")
	if err != nil {
		return fmt.Errorf("failed to open probe database: %w", err)
	}
	_, err = db.ExecContext(ctx, `CREATE TABLE probe (v INTEGER); INSERT INTO probe (v) VALUES (1);`)
	return errors.Join(err, db.Close())
}
