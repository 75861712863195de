package scoring

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/nao1215/vpnsentry/internal/model"
)

var fixedTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := NewEngine(append([]Option{WithClock(func() time.Time { return fixedTime })}, opts...)...)
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	return e
}

func boolPtr(b bool) *bool { return &b }

// cleanRecord is a residential German address with the VPN flag cleared.
func cleanRecord() *model.NetworkRecord {
	return &model.NetworkRecord{
		Address:          "91.64.20.10",
		Country:          "Germany",
		CountryCode:      "DE",
		City:             "Berlin",
		Organization:     "Vodafone GmbH",
		AutonomousSystem: "AS3209",
		Timezone:         "Europe/Berlin",
		Security:         model.Security{VPN: boolPtr(false)},
	}
}

// germanEnvironment matches cleanRecord.
func germanEnvironment() model.EnvironmentSnapshot {
	return model.EnvironmentSnapshot{
		LocaleCountryCode: "DE",
		TimezoneName:      "Europe/Berlin",
		Languages:         []string{"de-DE", "en"},
	}
}

func sumWeights(checks []model.CheckResult) int {
	total := 0
	for _, c := range checks {
		total += c.Weight
	}
	return total
}

// TestScenarios covers the reference scenarios.
func TestScenarios(t *testing.T) {
	t.Parallel()

	torRecord := cleanRecord()
	torRecord.Address = "185.220.101.33"

	flagged := cleanRecord()
	flagged.Security.VPN = boolPtr(true)

	foreign := cleanRecord()
	foreign.Country, foreign.CountryCode = "Netherlands", "NL"
	foreign.Timezone = "Europe/Amsterdam"

	testCases := []struct {
		name         string
		evidence     model.Evidence
		wantVerdict  model.Verdict
		wantScore    int
		wantReliable bool
		wantReasons  []string
	}{
		{
			name:         "A: lookup failed and nothing else fired",
			evidence:     model.Evidence{Environment: model.EnvironmentSnapshot{Languages: []string{""}}},
			wantVerdict:  model.VerdictUnreliable,
			wantScore:    0,
			wantReliable: false,
		},
		{
			name:         "B: service flags the address as VPN",
			evidence:     model.Evidence{Environment: germanEnvironment(), Network: flagged, Privacy: model.PrivacyInactive},
			wantVerdict:  model.VerdictDetected,
			wantScore:    7,
			wantReliable: true,
			wantReasons:  []string{"VPN IP"},
		},
		{
			name:         "C: Tor exit address",
			evidence:     model.Evidence{Environment: germanEnvironment(), Network: torRecord, Privacy: model.PrivacyInactive},
			wantVerdict:  model.VerdictDetected,
			wantScore:    10,
			wantReliable: false,
			wantReasons:  []string{"Tor exit node detected"},
		},
		{
			name:         "D: country and timezone mismatch",
			evidence:     model.Evidence{Environment: germanEnvironment(), Network: foreign, Privacy: model.PrivacyInactive},
			wantVerdict:  model.VerdictLikely,
			wantScore:    4,
			wantReliable: true,
			wantReasons:  []string{"Country mismatch", "Timezone mismatch"},
		},
		{
			name:         "clean residential connection",
			evidence:     model.Evidence{Environment: germanEnvironment(), Network: cleanRecord(), Privacy: model.PrivacyInactive},
			wantVerdict:  model.VerdictNotDetected,
			wantScore:    0,
			wantReliable: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			result := newTestEngine(t).Score(tc.evidence, "")
			r := result.Report

			if r.Verdict() != tc.wantVerdict {
				t.Errorf("verdict: got %q, expected %q", r.Verdict(), tc.wantVerdict)
			}
			if r.Score() != tc.wantScore {
				t.Errorf("score: got %d, expected %d", r.Score(), tc.wantScore)
			}
			if r.Reliable() != tc.wantReliable {
				t.Errorf("reliable: got %v, expected %v", r.Reliable(), tc.wantReliable)
			}
			if diff := cmp.Diff(tc.wantReasons, r.Reasons()); diff != "" {
				t.Errorf("reasons mismatch (-want +got):\n%s", diff)
			}
			if got := sumWeights(r.Checks()); got != r.Score() {
				t.Errorf("score %d differs from sum of weights %d", r.Score(), got)
			}
			if len(r.Checks()) != len(ruleTable) {
				t.Errorf("expected one check per rule, got %d", len(r.Checks()))
			}
			if !r.GeneratedAt().Equal(fixedTime) {
				t.Errorf("unexpected timestamp %v", r.GeneratedAt())
			}
		})
	}
}

// TestAuditTrail checks the full trail of a pass where most rules fire.
func TestAuditTrail(t *testing.T) {
	t.Parallel()

	record := &model.NetworkRecord{
		Address:          "203.0.113.50",
		Country:          "United States",
		CountryCode:      "US",
		Organization:     "DigitalOcean, LLC",
		AutonomousSystem: "AS14061",
		Timezone:         "Etc/UTC",
	}
	ev := model.Evidence{
		Environment: model.EnvironmentSnapshot{
			LocaleCountryCode: "FR",
			TimezoneName:      "Europe/Paris",
			Languages:         []string{"fr-FR", "ru", "de", "it"},
		},
		Fingerprint: model.NewFingerprint(model.Attributes{UserAgent: "ua"}),
		Network:     record,
		Leaks:       model.NewLeakAddressSet("192.168.0.4", "198.51.100.9"),
		Privacy:     model.PrivacyActive,
	}

	result := newTestEngine(t).Score(ev, "stale-digest")

	expected := []model.CheckResult{
		{Label: "IP Lookup", Outcome: model.OutcomePass, Detail: "IP data found"},
		{Label: "Tor Exit", Outcome: model.OutcomePass, Detail: "203.0.113.50"},
		{Label: "ASN", Outcome: model.OutcomePass, Detail: "AS14061"},
		{Label: "Org", Outcome: model.OutcomeFail, Detail: "DigitalOcean, LLC", Weight: 4},
		{Label: "VPN Flag", Outcome: model.OutcomeNeutral, Detail: "Unknown"},
		{Label: "Locale Country", Outcome: model.OutcomePass, Detail: "France"},
		{Label: "Country", Outcome: model.OutcomeFail, Detail: "France ≠ United States", Weight: 2},
		{Label: "Timezone", Outcome: model.OutcomeFail, Detail: "Europe/Paris ≠ Etc/UTC", Weight: 2},
		{Label: "Lang", Outcome: model.OutcomeFail, Detail: "fr-FR,ru,de,it ≠ en", Weight: 1},
		{Label: "Suspicious TZ", Outcome: model.OutcomeFail, Detail: "Etc/UTC", Weight: 1},
		{Label: "Suspicious Langs", Outcome: model.OutcomeFail, Detail: "fr-FR,ru,de,it", Weight: 1},
		{Label: "WebRTC", Outcome: model.OutcomeFail, Detail: "192.168.0.4,198.51.100.9", Weight: 2},
		{Label: "Fingerprint", Outcome: model.OutcomeFail, Detail: "Changed", Weight: 1},
		{Label: "Incognito", Outcome: model.OutcomeFail, Detail: "Incognito mode", Weight: 1},
	}
	if diff := cmp.Diff(expected, result.Report.Checks()); diff != "" {
		t.Errorf("audit trail mismatch (-want +got):\n%s", diff)
	}

	expectedReasons := []string{
		"Datacenter Org", "Country mismatch", "Timezone mismatch", "Lang≠Country",
		"Suspicious TZ", "Suspicious Langs", "WebRTC leak", "Fingerprint change", "Incognito",
	}
	if diff := cmp.Diff(expectedReasons, result.Report.Reasons()); diff != "" {
		t.Errorf("reasons mismatch (-want +got):\n%s", diff)
	}
	if result.Report.Score() != 15 || result.Report.Verdict() != model.VerdictDetected {
		t.Errorf("got score %d verdict %q", result.Report.Score(), result.Report.Verdict())
	}
	if result.Report.Reliable() {
		t.Error("absent VPN flag should make the pass unreliable")
	}
	if result.Fingerprint != ev.Fingerprint.Digest() {
		t.Error("result should carry the digest of the current fingerprint")
	}
}

// TestClassify tests the exact thresholds.
func TestClassify(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		reliable bool
		score    int
		expected model.Verdict
	}{
		{false, 0, model.VerdictUnreliable},
		{true, 0, model.VerdictNotDetected},
		{false, 1, model.VerdictNotDetected},
		{true, 3, model.VerdictNotDetected},
		{true, 4, model.VerdictLikely},
		{false, 5, model.VerdictLikely},
		{true, 6, model.VerdictDetected},
		{false, 10, model.VerdictDetected},
	}

	for _, tc := range testCases {
		if got := Classify(tc.reliable, tc.score); got != tc.expected {
			t.Errorf("Classify(%v, %d) = %q, expected %q", tc.reliable, tc.score, got, tc.expected)
		}
	}
}

// TestWebRTCRule tests that only non-private, non-public addresses leak.
func TestWebRTCRule(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		leaks    []string
		expected model.Outcome
	}{
		{"no addresses", nil, model.OutcomeNeutral},
		{"private only", []string{"192.168.1.2", "10.8.0.3", "172.16.5.4"}, model.OutcomePass},
		{"public address only", []string{"91.64.20.10"}, model.OutcomePass},
		{"other public address", []string{"10.0.0.2", "198.51.100.9"}, model.OutcomeFail},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			ev := model.Evidence{
				Environment: germanEnvironment(),
				Network:     cleanRecord(),
				Leaks:       model.NewLeakAddressSet(tc.leaks...),
			}
			checks := newTestEngine(t).Score(ev, "").Report.Checks()
			if got := findCheck(t, checks, "WebRTC").Outcome; got != tc.expected {
				t.Errorf("got %v, expected %v", got, tc.expected)
			}
		})
	}
}

// TestFingerprintRule tests drift detection against the previous digest.
func TestFingerprintRule(t *testing.T) {
	t.Parallel()

	fp := model.NewFingerprint(model.Attributes{UserAgent: "ua", Platform: "linux/amd64"})
	ev := model.Evidence{Environment: germanEnvironment(), Network: cleanRecord(), Fingerprint: fp}
	engine := newTestEngine(t)

	testCases := []struct {
		name     string
		previous string
		expected model.Outcome
	}{
		{"first run", "", model.OutcomePass},
		{"unchanged", fp.Digest(), model.OutcomePass},
		{"changed", model.NewFingerprint(model.Attributes{UserAgent: "other"}).Digest(), model.OutcomeFail},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			result := engine.Score(ev, tc.previous)
			if got := findCheck(t, result.Report.Checks(), "Fingerprint").Outcome; got != tc.expected {
				t.Errorf("got %v, expected %v", got, tc.expected)
			}
			if result.Fingerprint != fp.Digest() {
				t.Error("new fingerprint must always be returned")
			}
		})
	}
}

// TestEngineDeterministic tests that equal inputs give equal reports.
func TestEngineDeterministic(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t)
	ev := model.Evidence{Environment: germanEnvironment(), Network: cleanRecord(), Privacy: model.PrivacyActive}

	a := engine.Score(ev, "x").Report
	b := engine.Score(ev, "x").Report
	if diff := cmp.Diff(a.Checks(), b.Checks()); diff != "" {
		t.Errorf("reports differ:\n%s", diff)
	}
}

// TestEngineExtensions tests configured list additions.
func TestEngineExtensions(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t,
		WithTorCIDRs("192.0.2.0/24"),
		WithDatacenterKeywords("hetzner"),
		WithSuspiciousTimezones("Atlantic/Reykjavik"),
	)

	record := cleanRecord()
	record.Address = "192.0.2.77"
	record.Organization = "Hetzner Online GmbH"
	record.Timezone = "Atlantic/Reykjavik"

	checks := engine.Score(model.Evidence{Environment: germanEnvironment(), Network: record}, "").Report.Checks()
	for _, label := range []string{"Tor Exit", "Org", "Suspicious TZ"} {
		if got := findCheck(t, checks, label).Outcome; got != model.OutcomeFail {
			t.Errorf("%s: got %v, expected fail", label, got)
		}
	}

	if _, err := NewEngine(WithTorCIDRs("bogus")); err == nil {
		t.Error("expected error for invalid CIDR")
	}
}

// TestLanguageRule tests the expected-language comparison.
func TestLanguageRule(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		langs    []string
		code     string
		expected model.Outcome
	}{
		{"matching prefix", []string{"en-US"}, "US", model.OutcomePass},
		{"any tag matches", []string{"fr", "EN"}, "GB", model.OutcomePass},
		{"mismatch", []string{"fr-FR"}, "JP", model.OutcomeFail},
		{"country without expectation", []string{"fr-FR"}, "NL", model.OutcomePass},
		{"no languages known", []string{""}, "US", model.OutcomeNeutral},
		{"no country code", []string{"fr"}, "", model.OutcomeNeutral},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			record := cleanRecord()
			record.CountryCode = tc.code
			ev := model.Evidence{Environment: model.EnvironmentSnapshot{Languages: tc.langs}, Network: record}
			checks := newTestEngine(t).Score(ev, "").Report.Checks()
			if got := findCheck(t, checks, "Lang").Outcome; got != tc.expected {
				t.Errorf("got %v, expected %v", got, tc.expected)
			}
		})
	}
}

// TestCountryRuleByName tests the name comparison when no code is known.
func TestCountryRuleByName(t *testing.T) {
	t.Parallel()

	record := cleanRecord()
	record.CountryCode = ""
	record.Country = "germany"

	checks := newTestEngine(t).Score(model.Evidence{Environment: germanEnvironment(), Network: record}, "").Report.Checks()
	check := findCheck(t, checks, "Country")
	if check.Outcome != model.OutcomePass || check.Detail != "Germany = germany" {
		t.Errorf("unexpected check %+v", check)
	}
}

func findCheck(t *testing.T, checks []model.CheckResult, label string) model.CheckResult {
	t.Helper()
	for _, c := range checks {
		if c.Label == label {
			return c
		}
	}
	t.Fatalf("no check labelled %q", label)
	return model.CheckResult{}
}
