package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrInvalidGeoEndpoint is returned when the geolocation endpoint is not
	// an absolute http or https URL.
	ErrInvalidGeoEndpoint = errors.New("invalid geolocation endpoint: must be an http(s) URL")

	// ErrInvalidProxy is returned when the proxy is not in "host:port" form.
	ErrInvalidProxy = errors.New("invalid proxy address: must be host:port")

	// ErrInvalidInterval is returned when the watch interval is not positive.
	ErrInvalidInterval = errors.New("invalid interval: must be positive")

	// ErrInvalidWebRTCTimeout is returned when the WebRTC cap is not positive.
	ErrInvalidWebRTCTimeout = errors.New("invalid webrtc timeout: must be positive")

	// ErrInvalidLookupTimeout is returned when the lookup timeout is negative.
	// Use 0 for an unbounded lookup.
	ErrInvalidLookupTimeout = errors.New("invalid lookup timeout: must be non-negative")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidCIDR is returned when a configured Tor CIDR does not parse.
	ErrInvalidCIDR = errors.New("invalid tor CIDR")
)
