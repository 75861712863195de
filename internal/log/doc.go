// Package log provides secure logging functionality built on top of the
// standard slog package.
//
// The SecureHandler sanitizes log output before it reaches the wrapped
// handler:
//   - secrets (tokens, passwords, API keys) are always replaced by MaskValue
//   - device fingerprints, digests and user agents are always replaced by MaskValue
//   - addresses logged under ip, address, addresses, public_ip or leaks have
//     their last IPv4 octet masked unless the logger was built WithReveal
//
// Verbose logs are meant to be pasted into bug reports, so the defaults
// keep the public address and host identity out of them.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, true) // verbose=true
//	logger.Debug("geolocation lookup done", "ip", "203.0.113.7") // ip=203.0.113.x
//	slog.SetDefault(logger)
package log
