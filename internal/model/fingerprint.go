package model

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// fingerprintSeparator joins the attributes of a fingerprint.
const fingerprintSeparator = "||"

// Attributes are the static host attributes a fingerprint is derived from.
// Unknown attributes are left empty.
type Attributes struct {
	UserAgent        string
	Languages        []string
	ScreenResolution string
	Platform         string
	CoreCount        string
	DeviceMemory     string
	Vendor           string
}

// Fingerprint is an opaque identity string derived from Attributes.
type Fingerprint string

// NewFingerprint derives the fingerprint of the given attributes.
// The attribute order is fixed, so equal attributes always yield
// byte-identical fingerprints.
func NewFingerprint(a Attributes) Fingerprint {
	return Fingerprint(strings.Join([]string{
		a.UserAgent,
		strings.Join(a.Languages, ","),
		a.ScreenResolution,
		a.Platform,
		a.CoreCount,
		a.DeviceMemory,
		a.Vendor,
	}, fingerprintSeparator))
}

// String returns the raw fingerprint.
func (f Fingerprint) String() string {
	return string(f)
}

// Digest returns the hex encoded BLAKE2b-256 sum of the fingerprint.
// The digest is what gets persisted between passes, so the raw host
// attributes never reach disk while equality is preserved.
func (f Fingerprint) Digest() string {
	sum := blake2b.Sum256([]byte(f))
	return hex.EncodeToString(sum[:])
}
