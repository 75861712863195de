// Package model defines the data structures shared by the collectors, the
// scoring engine and the renderers.
//
// This package contains the following main types:
//   - NetworkRecord: what the IP-intelligence service reports about the exit address
//   - EnvironmentSnapshot: locale, timezone and language preferences of the host
//   - Fingerprint: a stable identity string derived from static host attributes
//   - LeakAddressSet: addresses observed during WebRTC candidate gathering
//   - PrivacyMode: the tri-state result of the privacy-mode probe
//   - VerdictReport: the immutable result of one detection pass
//
// Collectors produce these values, the scoring engine consumes an Evidence
// bundle, and only VerdictReport crosses the boundary towards renderers.
package model
