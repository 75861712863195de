package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/nao1215/vpnsentry/internal/model"
)

// defaultMaxBodySize caps the geolocation response.
const defaultMaxBodySize = 1 << 20

// GeoCollector performs one lookup against an IP-intelligence service.
type GeoCollector struct {
	endpoint    string
	client      *http.Client
	userAgent   string
	timeout     time.Duration
	maxBodySize int64
	logger      *slog.Logger
}

// GeoOption configures a GeoCollector.
type GeoOption func(*GeoCollector)

// WithHTTPClient sets the HTTP client. The default is http.DefaultClient.
func WithHTTPClient(client *http.Client) GeoOption {
	return func(g *GeoCollector) {
		g.client = client
	}
}

// WithUserAgent sets the User-Agent sent with the lookup.
func WithUserAgent(ua string) GeoOption {
	return func(g *GeoCollector) {
		g.userAgent = ua
	}
}

// WithLookupTimeout bounds the lookup. Zero or negative leaves it unbounded.
func WithLookupTimeout(d time.Duration) GeoOption {
	return func(g *GeoCollector) {
		g.timeout = d
	}
}

// WithMaxBodySize caps the response body. Non-positive values use 1MiB.
func WithMaxBodySize(n int64) GeoOption {
	return func(g *GeoCollector) {
		g.maxBodySize = n
	}
}

// WithGeoLogger sets the logger for lookup diagnostics.
func WithGeoLogger(logger *slog.Logger) GeoOption {
	return func(g *GeoCollector) {
		g.logger = logger
	}
}

// NewGeoCollector creates a collector querying endpoint.
func NewGeoCollector(endpoint string, opts ...GeoOption) *GeoCollector {
	g := &GeoCollector{
		endpoint:    endpoint,
		client:      http.DefaultClient,
		maxBodySize: defaultMaxBodySize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.maxBodySize <= 0 {
		g.maxBodySize = defaultMaxBodySize
	}
	if g.userAgent != "" {
		base := g.client.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		client := *g.client
		client.Transport = &userAgentTransport{base: base, userAgent: g.userAgent}
		g.client = &client
	}
	return g
}

// Collect performs the lookup. It returns nil when the service cannot be
// reached, answers with a non-200 status, or returns something that is
// not a geolocation record. There is no retry.
func (g *GeoCollector) Collect(ctx context.Context) *model.NetworkRecord {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint, nil)
	if err != nil {
		g.logger.Debug("geolocation request not built", "endpoint", g.endpoint, "error", err)
		return nil
	}

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Debug("geolocation lookup failed", "endpoint", g.endpoint, "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		g.logger.Debug("geolocation lookup rejected", "endpoint", g.endpoint, "status", resp.StatusCode)
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, g.maxBodySize))
	if err != nil {
		g.logger.Debug("geolocation body unreadable", "error", err)
		return nil
	}

	record, err := decodeGeoResponse(body)
	if err != nil {
		g.logger.Debug("geolocation body malformed", "error", err)
		return nil
	}

	g.logger.Debug("geolocation lookup done",
		"ip", record.Address,
		"country", record.CountryCode,
		"asn", record.AutonomousSystem,
		"vpn_flag", record.HasVPNFlag(),
	)
	return record
}

// geoResponse is the ipapi-style JSON document.
// In that format "country" holds the ISO code and "country_name" the name.
type geoResponse struct {
	IP          string      `json:"ip"`
	Country     string      `json:"country"`
	CountryName string      `json:"country_name"`
	CountryCode string      `json:"country_code"`
	Region      string      `json:"region"`
	City        string      `json:"city"`
	Org         string      `json:"org"`
	ASN         looseString `json:"asn"`
	Timezone    string      `json:"timezone"`
	Postal      looseString `json:"postal"`
	Latitude    looseString `json:"latitude"`
	Longitude   looseString `json:"longitude"`
	Version     string      `json:"version"`
	Security    *struct {
		VPN *bool `json:"vpn"`
	} `json:"security"`

	// Error and Reason are set by ipapi on quota or lookup errors,
	// which still come with status 200 on some plans.
	Error  bool   `json:"error"`
	Reason string `json:"reason"`
}

// errGeoServiceError is returned when the service reports an error in-band.
type errGeoServiceError string

func (e errGeoServiceError) Error() string {
	return "geolocation service error: " + string(e)
}

// errGeoNoAddress is returned when the response carries no address.
var errGeoNoAddress = errors.New("geolocation response without address")

func decodeGeoResponse(body []byte) (*model.NetworkRecord, error) {
	var r *geoResponse
	if err := json.Unmarshal(bytes.TrimSpace(body), &r); err != nil {
		return nil, err
	}
	if r == nil {
		return nil, errGeoNoAddress
	}
	if r.Error {
		return nil, errGeoServiceError(r.Reason)
	}
	if strings.TrimSpace(r.IP) == "" {
		return nil, errGeoNoAddress
	}

	record := &model.NetworkRecord{
		Address:          strings.TrimSpace(r.IP),
		Country:          r.CountryName,
		CountryCode:      strings.ToUpper(r.CountryCode),
		Region:           r.Region,
		City:             r.City,
		Organization:     r.Org,
		AutonomousSystem: string(r.ASN),
		Timezone:         r.Timezone,
		Postal:           string(r.Postal),
		Latitude:         string(r.Latitude),
		Longitude:        string(r.Longitude),
		Version:          r.Version,
	}

	if isRegionCode(r.Country) {
		if record.CountryCode == "" {
			record.CountryCode = strings.ToUpper(r.Country)
		}
	} else if record.Country == "" {
		record.Country = r.Country
	}

	if r.Security != nil && r.Security.VPN != nil {
		vpn := *r.Security.VPN
		record.Security.VPN = &vpn
	}

	return record, nil
}

func isRegionCode(s string) bool {
	if len(s) != 2 {
		return false
	}
	for _, c := range s {
		if (c < 'A' || c > 'Z') && (c < 'a' || c > 'z') {
			return false
		}
	}
	return true
}

// looseString accepts a JSON string, number or null.
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*s = ""
	case len(data) > 0 && data[0] == '"':
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = looseString(v)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*s = looseString(n.String())
	}
	return nil
}
