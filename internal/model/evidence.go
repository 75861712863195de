package model

// Evidence bundles everything the collectors gathered during one pass.
type Evidence struct {
	Environment EnvironmentSnapshot
	Fingerprint Fingerprint

	// Network is nil when the geolocation lookup failed.
	Network *NetworkRecord

	Leaks   LeakAddressSet
	Privacy PrivacyMode
}
