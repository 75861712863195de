package scoring

import (
	"regexp"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/nao1215/vpnsentry/internal/model"
)

// reliabilityEffect says when a rule lowers reliability.
type reliabilityEffect int

const (
	reliabilityUnaffected reliabilityEffect = iota
	unreliableOnFail
	unreliableOnNeutral
)

// rule is one row of the rule table.
type rule struct {
	label       string
	reason      string
	weight      int
	reliability reliabilityEffect
	eval        func(in *input) (model.Outcome, string)
}

// input is what the rules are evaluated against.
type input struct {
	engine   *Engine
	ev       model.Evidence
	previous string
	current  string
}

func (in *input) network() *model.NetworkRecord { return in.ev.Network }

// ruleTable is evaluated in order. Order matters for the audit trail and
// the reasons list.
var ruleTable = []rule{
	{label: "IP Lookup", reliability: unreliableOnFail, eval: evalLookup},
	{label: "Tor Exit", reason: "Tor exit node detected", weight: 10, reliability: unreliableOnFail, eval: evalTorExit},
	{label: "ASN", reason: "Datacenter ASN", weight: 4, eval: evalASN},
	{label: "Org", reason: "Datacenter Org", weight: 4, eval: evalOrg},
	{label: "VPN Flag", reason: "VPN IP", weight: 7, reliability: unreliableOnNeutral, eval: evalVPNFlag},
	{label: "Locale Country", eval: evalLocaleCountry},
	{label: "Country", reason: "Country mismatch", weight: 2, eval: evalCountry},
	{label: "Timezone", reason: "Timezone mismatch", weight: 2, eval: evalTimezone},
	{label: "Lang", reason: "Lang≠Country", weight: 1, eval: evalLanguage},
	{label: "Suspicious TZ", reason: "Suspicious TZ", weight: 1, eval: evalSuspiciousTimezone},
	{label: "Suspicious Langs", reason: "Suspicious Langs", weight: 1, eval: evalSuspiciousLanguages},
	{label: "WebRTC", reason: "WebRTC leak", weight: 2, eval: evalWebRTC},
	{label: "Fingerprint", reason: "Fingerprint change", weight: 1, eval: evalFingerprint},
	{label: "Incognito", reason: "Incognito", weight: 1, eval: evalIncognito},
}

func evalLookup(in *input) (model.Outcome, string) {
	if in.network() == nil {
		return model.OutcomeFail, "No IP data"
	}
	return model.OutcomePass, "IP data found"
}

func evalTorExit(in *input) (model.Outcome, string) {
	n := in.network()
	if n == nil {
		return model.OutcomePass, ""
	}
	if in.engine.isTorExit(n.Address) {
		return model.OutcomeFail, n.Address
	}
	return model.OutcomePass, n.Address
}

func evalASN(in *input) (model.Outcome, string) {
	n := in.network()
	if n == nil {
		return model.OutcomeNeutral, "Unknown"
	}
	return matchDatacenter(in.engine.datacenter, n.AutonomousSystem)
}

func evalOrg(in *input) (model.Outcome, string) {
	n := in.network()
	if n == nil {
		return model.OutcomeNeutral, "Unknown"
	}
	return matchDatacenter(in.engine.datacenter, n.Organization)
}

func matchDatacenter(pattern *regexp.Regexp, value string) (model.Outcome, string) {
	if pattern != nil && pattern.MatchString(value) {
		return model.OutcomeFail, value
	}
	if value == "" {
		return model.OutcomeNeutral, "Unknown"
	}
	return model.OutcomePass, value
}

func evalVPNFlag(in *input) (model.Outcome, string) {
	n := in.network()
	switch {
	case !n.HasVPNFlag():
		return model.OutcomeNeutral, "Unknown"
	case n.VPNFlagged():
		return model.OutcomeFail, "VPN detected"
	default:
		return model.OutcomePass, "No VPN"
	}
}

func evalLocaleCountry(in *input) (model.Outcome, string) {
	if name := countryName(in.ev.Environment.LocaleCountryCode); name != "" {
		return model.OutcomePass, name
	}
	return model.OutcomeNeutral, "None"
}

// evalCountry compares the locale country with the address country. Codes
// are compared when the record carries one, names otherwise.
func evalCountry(in *input) (model.Outcome, string) {
	localeCode := in.ev.Environment.LocaleCountryCode
	localeName := countryName(localeCode)
	n := in.network()
	if localeName == "" || n == nil || (n.Country == "" && n.CountryCode == "") {
		return model.OutcomeNeutral, "No match"
	}

	ipName := n.Country
	if ipName == "" {
		ipName = countryName(n.CountryCode)
	}

	var equal bool
	if n.CountryCode != "" {
		equal = strings.EqualFold(localeCode, n.CountryCode)
	} else {
		equal = strings.EqualFold(localeName, n.Country)
	}

	if !equal {
		return model.OutcomeFail, localeName + " ≠ " + ipName
	}
	return model.OutcomePass, localeName + " = " + ipName
}

func evalTimezone(in *input) (model.Outcome, string) {
	local := in.ev.Environment.TimezoneName
	n := in.network()
	if local == "" || n == nil || n.Timezone == "" {
		return model.OutcomeNeutral, "Unknown"
	}
	if local != n.Timezone {
		return model.OutcomeFail, local + " ≠ " + n.Timezone
	}
	return model.OutcomePass, local + " = " + n.Timezone
}

// evalLanguage checks that some preferred language matches the language
// expected for the address country.
func evalLanguage(in *input) (model.Outcome, string) {
	env := in.ev.Environment
	n := in.network()
	if !env.HasLanguages() || n == nil || n.CountryCode == "" {
		return model.OutcomeNeutral, "Unknown"
	}

	expected := expectedLanguages[strings.ToUpper(n.CountryCode)]
	if expected == "" {
		return model.OutcomePass, "OK"
	}
	for _, l := range env.Languages {
		if strings.HasPrefix(strings.ToLower(l), expected) {
			return model.OutcomePass, "OK"
		}
	}
	return model.OutcomeFail, env.LanguageList() + " ≠ " + expected
}

func evalSuspiciousTimezone(in *input) (model.Outcome, string) {
	n := in.network()
	if n == nil || n.Timezone == "" {
		return model.OutcomeNeutral, "Unknown"
	}
	if p := in.engine.zones; p != nil && p.MatchString(n.Timezone) {
		return model.OutcomeFail, n.Timezone
	}
	return model.OutcomePass, n.Timezone
}

func evalSuspiciousLanguages(in *input) (model.Outcome, string) {
	langs := in.ev.Environment.Languages
	if len(langs) > minSuspiciousLanguages {
		for _, l := range langs {
			if suspiciousLanguage.MatchString(l) {
				return model.OutcomeFail, in.ev.Environment.LanguageList()
			}
		}
	}
	return model.OutcomePass, in.ev.Environment.LanguageList()
}

// evalWebRTC flags an observed address that is neither the public address
// nor in a private range.
func evalWebRTC(in *input) (model.Outcome, string) {
	leaks := in.ev.Leaks
	if leaks.Len() == 0 {
		return model.OutcomeNeutral, "None"
	}

	var public string
	if n := in.network(); n != nil {
		public = n.Address
	}

	for _, addr := range leaks.Addresses() {
		if addr != public && !hasPrivatePrefix(addr) {
			return model.OutcomeFail, leaks.String()
		}
	}
	return model.OutcomePass, "No leak"
}

func hasPrivatePrefix(addr string) bool {
	for _, p := range privatePrefixes {
		if strings.HasPrefix(addr, p) {
			return true
		}
	}
	return false
}

func evalFingerprint(in *input) (model.Outcome, string) {
	if in.previous != "" && in.previous != in.current {
		return model.OutcomeFail, "Changed"
	}
	return model.OutcomePass, "No change"
}

func evalIncognito(in *input) (model.Outcome, string) {
	switch in.ev.Privacy {
	case model.PrivacyActive:
		return model.OutcomeFail, "Incognito mode"
	case model.PrivacyInactive:
		return model.OutcomePass, "Normal"
	default:
		return model.OutcomeNeutral, "Unknown"
	}
}

// countryName returns the English name of a region code, or the code
// itself when it is not a known region.
func countryName(code string) string {
	if code == "" {
		return ""
	}
	region, err := language.ParseRegion(code)
	if err != nil {
		return code
	}
	if name := display.English.Regions().Name(region); name != "" {
		return name
	}
	return code
}
