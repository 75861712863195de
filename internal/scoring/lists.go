package scoring

import (
	"fmt"
	"net/netip"
	"regexp"
	"strings"
)

// Score thresholds.
const (
	DetectedThreshold = 6
	LikelyThreshold   = 4
)

// DefaultTorCIDRs are address ranges of well known Tor exit operators.
var DefaultTorCIDRs = []string{
	"185.220.100.0/22",
	"199.249.230.0/23",
	"51.68.204.0/24",
	"116.202.120.0/24",
}

// DefaultDatacenterKeywords are matched case-insensitively against the AS
// and organization of the public address.
var DefaultDatacenterKeywords = []string{
	"google", "amazon", "aws", "digitalocean", "ovh", "microsoft", "azure",
	"linode", "vultr", "datacenter", "colo", "cloud", "hosting",
}

// DefaultSuspiciousTimezones are zones commonly reported for relay exits
// and by spoofing tools. They match case-insensitively as substrings.
var DefaultSuspiciousTimezones = []string{
	"Etc/UTC", "Etc/GMT", "Africa/Abidjan", "Pacific/Midway", "Pacific/Pago_Pago",
}

// expectedLanguages maps a country code to the language prefix a local
// user is expected to prefer.
var expectedLanguages = map[string]string{
	"US": "en",
	"GB": "en",
	"FR": "fr",
	"DE": "de",
	"ES": "es",
	"JP": "ja",
	"CN": "zh",
	"RU": "ru",
	"BR": "pt",
}

// suspiciousLanguage matches tags that relay users tend to stack.
var suspiciousLanguage = regexp.MustCompile(`^en-GB|^en-US|^ru|^zh|^ja|^ar`)

// minSuspiciousLanguages is the number of tags that must be exceeded.
const minSuspiciousLanguages = 3

// privatePrefixes are the address prefixes not counted as WebRTC leaks.
var privatePrefixes = []string{"192.168", "10.", "172."}

// parsePrefixes parses CIDR strings.
func parsePrefixes(cidrs []string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(cidrs))
	for _, c := range cidrs {
		p, err := netip.ParsePrefix(strings.TrimSpace(c))
		if err != nil {
			return nil, fmt.Errorf("invalid CIDR %q: %w", c, err)
		}
		prefixes = append(prefixes, p.Masked())
	}
	return prefixes, nil
}

// keywordPattern builds a case-insensitive alternation of literal words.
// It returns nil when there is no word, which matches nothing.
func keywordPattern(words []string) *regexp.Regexp {
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.TrimSpace(w); w != "" {
			quoted = append(quoted, regexp.QuoteMeta(w))
		}
	}
	if len(quoted) == 0 {
		return nil
	}
	return regexp.MustCompile(`(?i)(` + strings.Join(quoted, "|") + `)`)
}
