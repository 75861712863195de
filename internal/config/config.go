package config

import (
	"fmt"
	"net"
	"net/netip"
	"net/url"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultGeoEndpoint is the IP-intelligence service queried once per pass.
	DefaultGeoEndpoint = "https://ipapi.co/json/"

	// DefaultInterval is the delay between two passes in watch mode.
	DefaultInterval = 30 * time.Second

	// DefaultWebRTCTimeout is the hard cap on ICE candidate gathering.
	// Gathering on hosts with many interfaces can take seconds; the verdict
	// does not wait for it.
	DefaultWebRTCTimeout = 800 * time.Millisecond

	// DefaultLookupTimeout of zero leaves the geolocation lookup unbounded,
	// so a stalled service stalls the pass.
	DefaultLookupTimeout time.Duration = 0

	// AppName is the application name used for XDG directory paths.
	AppName = "vpnsentry"

	// DefaultUserAgent identifies vpnsentry in HTTP requests and is the
	// first fingerprint attribute.
	DefaultUserAgent = "vpnsentry/1.0 (+https://github.com/nao1215/vpnsentry)"

	// DefaultMaxBodySize limits the geolocation response body.
	DefaultMaxBodySize = 1 << 20 // 1MiB

	// DefaultHistoryLimit is the number of passes listed by the history command.
	DefaultHistoryLimit = 20
)

// Config holds all configuration options for vpnsentry.
// It is populated from CLI flags and the optional configuration file and
// passed down explicitly rather than kept in global state.
type Config struct {
	// GeoEndpoint is the URL of the geolocation service.
	GeoEndpoint string

	// Proxy is an optional SOCKS5 proxy ("host:port") the geolocation
	// request is routed through. Empty means a direct connection.
	Proxy string

	// Interval is the delay between passes in watch mode.
	Interval time.Duration

	// WebRTCTimeout caps ICE candidate gathering.
	WebRTCTimeout time.Duration

	// LookupTimeout bounds the geolocation request. Zero means unbounded.
	LookupTimeout time.Duration

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// Reveal disables address masking in log output.
	Reveal bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .vpnsentry in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// Rules holds the rule list extensions loaded from the config file.
	// The built-in lists always apply; these entries are appended.
	Rules RuleConfig

	// JSONReport enables JSON report output instead of human-readable format.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	ReportFile string

	// Tee also prints the text report to stdout when ReportFile is set.
	Tee bool

	// DBDir is the directory holding the SQLite database with the
	// fingerprint slot and the verdict history.
	// Defaults to XDG data directory (~/.local/share/vpnsentry on Linux).
	DBDir string

	// NoStore disables the database. The fingerprint is then kept in
	// SlotFile if set, or only for the lifetime of the process.
	NoStore bool

	// SlotFile, when set, stores the fingerprint digest in this plain file
	// instead of the database.
	SlotFile string

	// NoWebRTC skips ICE candidate gathering.
	NoWebRTC bool

	// UserAgent is sent with the geolocation request and is part of the
	// device fingerprint.
	UserAgent string

	// MaxBodySize is the maximum geolocation response size in bytes.
	// Set to 0 to use the default (1MiB).
	MaxBodySize int64

	// MessageFile is an optional file whose content replaces the default
	// warning panel text in watch mode.
	MessageFile string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		GeoEndpoint:   DefaultGeoEndpoint,
		Interval:      DefaultInterval,
		WebRTCTimeout: DefaultWebRTCTimeout,
		LookupTimeout: DefaultLookupTimeout,
		UserAgent:     DefaultUserAgent,
		MaxBodySize:   DefaultMaxBodySize,
		DBDir:         XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for vpnsentry.
// On Linux: ~/.local/share/vpnsentry
// On macOS: ~/Library/Application Support/vpnsentry
// On Windows: %LOCALAPPDATA%\vpnsentry
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for vpnsentry.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// ApplyFile merges the values of a loaded configuration file into c.
// Only fields set in the file override c; rule lists are appended.
func (c *Config) ApplyFile(f *File) {
	if f == nil {
		return
	}
	if f.GeoEndpoint != "" {
		c.GeoEndpoint = f.GeoEndpoint
	}
	if f.Proxy != "" {
		c.Proxy = f.Proxy
	}
	if f.Interval != 0 {
		c.Interval = f.Interval
	}
	if f.WebRTCTimeout != 0 {
		c.WebRTCTimeout = f.WebRTCTimeout
	}
	if f.LookupTimeout != 0 {
		c.LookupTimeout = f.LookupTimeout
	}
	if f.UserAgent != "" {
		c.UserAgent = f.UserAgent
	}
	c.Rules = c.Rules.Merge(f.Rules)
}

// Validate checks if the configuration is valid.
// It returns the first problem found.
func (c *Config) Validate() error {
	u, err := url.Parse(c.GeoEndpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidGeoEndpoint, c.GeoEndpoint)
	}

	if c.Proxy != "" {
		if _, _, err := net.SplitHostPort(c.Proxy); err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidProxy, c.Proxy)
		}
	}

	if c.Interval <= 0 {
		return ErrInvalidInterval
	}

	if c.WebRTCTimeout <= 0 {
		return ErrInvalidWebRTCTimeout
	}

	if c.LookupTimeout < 0 {
		return ErrInvalidLookupTimeout
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	for _, cidr := range c.Rules.TorCIDRs {
		if _, err := netip.ParsePrefix(cidr); err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidCIDR, cidr)
		}
	}

	return nil
}
