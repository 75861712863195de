// Package detector runs detection passes.
//
// A pass reads the environment and the fingerprint synchronously, then
// queries the geolocation service, gathers WebRTC candidates and probes the
// privacy mode concurrently. The evidence is scored once, the new
// fingerprint digest is written to the persistence slot and the immutable
// report is returned.
//
// A Runner allows one active pass at a time. An overlapping call fails
// fast with ErrPassInProgress and leaves the slot untouched.
package detector
