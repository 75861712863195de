package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/vpnsentry/internal/model"
)

// DBFileName is the name of the database file inside the data directory.
const DBFileName = "vpnsentry.db"

// DB provides SQLite-based storage for slots and the verdict history.
type DB struct {
	db     *sql.DB
	dbPath string
}

// Options configures DB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a DB in the specified directory.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*DB, error) {
	dbPath := filepath.Join(dbDir, DBFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	sdb := &DB{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := sdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return sdb, nil
}

// Path returns the database file path.
func (sdb *DB) Path() string {
	return sdb.dbPath
}

// Close closes the database connection.
func (sdb *DB) Close() error {
	return sdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (sdb *DB) createTables() error {
	schema := `
	-- Slots hold one opaque value per name
	CREATE TABLE IF NOT EXISTS slots (
		name TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Verdicts store every detection pass
	CREATE TABLE IF NOT EXISTS verdicts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		verdict TEXT NOT NULL,
		score INTEGER NOT NULL,
		reliable INTEGER NOT NULL,
		reasons TEXT,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_verdicts_timestamp ON verdicts(timestamp);
	`

	_, err := sdb.db.ExecContext(context.Background(), schema)
	return err
}

// Slot returns the slot stored under name.
func (sdb *DB) Slot(name string) Slot {
	return &dbSlot{db: sdb, name: name}
}

// GetSlot returns the value stored under name or ErrSlotEmpty.
func (sdb *DB) GetSlot(ctx context.Context, name string) (string, error) {
	var value string
	err := sdb.db.QueryRowContext(ctx, `SELECT value FROM slots WHERE name = ?`, name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrSlotEmpty
	}
	if err != nil {
		return "", fmt.Errorf("failed to read slot %s: %w", name, err)
	}
	return value, nil
}

// PutSlot replaces the value stored under name.
func (sdb *DB) PutSlot(ctx context.Context, name, value string) error {
	query := `
	INSERT INTO slots (name, value, updated_at)
	VALUES (?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(name) DO UPDATE SET
		value = excluded.value,
		updated_at = CURRENT_TIMESTAMP
	`
	if _, err := sdb.db.ExecContext(ctx, query, name, value); err != nil {
		return fmt.Errorf("failed to write slot %s: %w", name, err)
	}
	return nil
}

// dbSlot adapts a named row to the Slot interface.
type dbSlot struct {
	db   *DB
	name string
}

func (s *dbSlot) Load(ctx context.Context) (string, error) {
	return s.db.GetSlot(ctx, s.name)
}

func (s *dbSlot) Store(ctx context.Context, value string) error {
	return s.db.PutSlot(ctx, s.name, value)
}

// SaveVerdict records a completed detection pass.
func (sdb *DB) SaveVerdict(ctx context.Context, report model.VerdictReport) (int64, error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}
	reasonsJSON, err := json.Marshal(report.Reasons())
	if err != nil {
		return 0, fmt.Errorf("failed to serialize reasons: %w", err)
	}

	ts := report.GeneratedAt()
	if ts.IsZero() {
		ts = time.Now()
	}

	query := `
	INSERT INTO verdicts (timestamp, verdict, score, reliable, reasons, report_json)
	VALUES (?, ?, ?, ?, ?, ?)
	`
	result, err := sdb.db.ExecContext(ctx, query,
		ts.UTC().Format(time.RFC3339Nano),
		report.Verdict().String(),
		report.Score(),
		report.Reliable(),
		string(reasonsJSON),
		string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save verdict: %w", err)
	}
	return result.LastInsertId()
}

// HistoryEntry is a summary of one stored detection pass.
type HistoryEntry struct {
	ID        int64         `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Verdict   model.Verdict `json:"verdict"`
	Score     int           `json:"score"`
	Reliable  bool          `json:"reliable"`
	Reasons   []string      `json:"reasons"`
}

// History returns the most recent passes, newest first (by insertion).
// A limit of zero or less returns every pass.
func (sdb *DB) History(ctx context.Context, limit int) ([]HistoryEntry, error) {
	query := `
	SELECT id, timestamp, verdict, score, reliable, reasons
	FROM verdicts
	ORDER BY id DESC
	`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := sdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var (
			entry     HistoryEntry
			timestamp string
			verdict   string
			reasons   sql.NullString
		)
		if err := rows.Scan(&entry.ID, &timestamp, &verdict, &entry.Score, &entry.Reliable, &reasons); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entry.Timestamp = parseTimestamp(timestamp)
		entry.Verdict = model.Verdict(verdict)
		if reasons.Valid && reasons.String != "" {
			if err := json.Unmarshal([]byte(reasons.String), &entry.Reasons); err != nil {
				entry.Reasons = nil
			}
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// GetVerdictByID retrieves a stored report by its database ID.
// It returns nil without error when no such pass exists.
func (sdb *DB) GetVerdictByID(ctx context.Context, id int64) (*model.VerdictReport, error) {
	var reportJSON string
	err := sdb.db.QueryRowContext(ctx, `SELECT report_json FROM verdicts WHERE id = ?`, id).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get verdict: %w", err)
	}

	var report model.VerdictReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &report, nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// More specific formats come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04:05.999",
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
