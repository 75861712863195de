package model

// NetworkRecord is what the geolocation service reports about the address
// the client is seen from. A nil *NetworkRecord means the lookup failed.
// Records are produced fresh on every pass and never mutated afterwards.
type NetworkRecord struct {
	// Address is the public address as seen by the service.
	Address string `json:"ip"`

	// Country is the English country name (e.g. "Germany").
	Country string `json:"country_name"`

	// CountryCode is the ISO 3166-1 alpha-2 code (e.g. "DE").
	CountryCode string `json:"country"`

	Region string `json:"region"`
	City   string `json:"city"`

	// Organization is the free-form owner description of the address block.
	Organization string `json:"org"`

	// AutonomousSystem is the AS identifier, usually "AS<number>" and
	// sometimes followed by the network name.
	AutonomousSystem string `json:"asn"`

	// Timezone is the IANA zone name of the address location.
	Timezone string `json:"timezone"`

	// Security holds the flags the service attaches to the address.
	Security Security `json:"security"`

	// Secondary fields, kept for display only.
	Postal    string `json:"postal,omitempty"`
	Latitude  string `json:"latitude,omitempty"`
	Longitude string `json:"longitude,omitempty"`
	Version   string `json:"version,omitempty"`
}

// Security holds the service-reported security flags.
type Security struct {
	// VPN is nil when the service did not report the flag at all.
	// Absence is not the same as false and lowers reliability.
	VPN *bool `json:"vpn,omitempty"`
}

// HasVPNFlag reports whether the service reported the VPN flag.
func (r *NetworkRecord) HasVPNFlag() bool {
	return r != nil && r.Security.VPN != nil
}

// VPNFlagged reports whether the service explicitly flagged the address as a VPN.
func (r *NetworkRecord) VPNFlagged() bool {
	return r.HasVPNFlag() && *r.Security.VPN
}
