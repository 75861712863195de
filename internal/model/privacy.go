package model

// PrivacyMode is the tri-state result of the privacy-mode probe.
// The zero value is PrivacyUnknown so that a missing probe can never be
// read as a negative finding.
type PrivacyMode int

const (
	// PrivacyUnknown means no suitable probe primitive was available.
	PrivacyUnknown PrivacyMode = iota

	// PrivacyActive means the probe inferred a private or ephemeral session.
	PrivacyActive

	// PrivacyInactive means the probe inferred a normal, persistent session.
	PrivacyInactive
)

// String returns a human-readable representation of the mode.
func (p PrivacyMode) String() string {
	switch p {
	case PrivacyActive:
		return "active"
	case PrivacyInactive:
		return "inactive"
	default:
		return "unknown"
	}
}
