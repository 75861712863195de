package config

import (
	"slices"
	"time"
)

// RuleConfig extends the built-in scoring lists.
type RuleConfig struct {
	// TorCIDRs are additional address ranges treated as Tor exits.
	TorCIDRs []string `yaml:"tor_cidrs,omitempty"`

	// DatacenterKeywords are additional case-insensitive keywords matched
	// against the AS and organization of the address.
	DatacenterKeywords []string `yaml:"datacenter_keywords,omitempty"`

	// SuspiciousTimezones are additional zone names commonly reported by
	// relays and spoofing tools.
	SuspiciousTimezones []string `yaml:"suspicious_timezones,omitempty"`
}

// Merge returns the union of r and other with duplicates and empty
// entries removed. Order is preserved.
func (r RuleConfig) Merge(other RuleConfig) RuleConfig {
	return RuleConfig{
		TorCIDRs:            appendUnique(r.TorCIDRs, other.TorCIDRs),
		DatacenterKeywords:  appendUnique(r.DatacenterKeywords, other.DatacenterKeywords),
		SuspiciousTimezones: appendUnique(r.SuspiciousTimezones, other.SuspiciousTimezones),
	}
}

func appendUnique(base, extra []string) []string {
	var out []string
	for _, s := range slices.Concat(base, extra) {
		if s == "" || slices.Contains(out, s) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// File represents the structure of the .vpnsentry configuration file.
// Durations are written as Go duration strings ("30s", "800ms").
type File struct {
	GeoEndpoint   string        `yaml:"geo_endpoint,omitempty"`
	Proxy         string        `yaml:"proxy,omitempty"`
	Interval      time.Duration `yaml:"interval,omitempty"`
	WebRTCTimeout time.Duration `yaml:"webrtc_timeout,omitempty"`
	LookupTimeout time.Duration `yaml:"lookup_timeout,omitempty"`
	UserAgent     string        `yaml:"user_agent,omitempty"`
	Rules         RuleConfig    `yaml:"rules,omitempty"`
}
