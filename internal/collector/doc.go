// Package collector gathers the evidence a detection pass is scored on.
//
// There are five collectors:
//   - GeoCollector asks an IP-intelligence service about the public address
//   - ReadEnvironment reads the locale, timezone and language preferences
//   - ReadHostAttributes reads the static attributes a fingerprint is built from
//   - WebRTCCollector gathers ICE candidates and extracts local addresses
//   - PrivacyCollector infers whether the session is ephemeral
//
// Collectors never return errors. A failed lookup yields a nil record, a
// missing capability yields an empty set or model.PrivacyUnknown, and
// unreadable host data yields empty strings. The scoring engine decides
// what absence means.
package collector
