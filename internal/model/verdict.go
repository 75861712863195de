package model

import (
	"encoding/json"
	"time"
)

// Verdict is the classified result of a detection pass.
type Verdict string

const (
	// VerdictUnreliable means key evidence was missing and nothing fired.
	VerdictUnreliable Verdict = "Unreliable detection"

	// VerdictDetected means the score reached the detection threshold.
	VerdictDetected Verdict = "VPN detected"

	// VerdictLikely means the score reached the likely threshold.
	VerdictLikely Verdict = "VPN likely"

	// VerdictNotDetected means the score stayed below every threshold.
	VerdictNotDetected Verdict = "VPN not detected"
)

// String returns the verdict text.
func (v Verdict) String() string {
	return string(v)
}

// Blocking reports whether the warning panel should be shown for v.
func (v Verdict) Blocking() bool {
	switch v {
	case VerdictDetected, VerdictLikely, VerdictUnreliable:
		return true
	default:
		return false
	}
}

// VerdictReport is the immutable result of one detection pass.
// Accessors return copies, so holders cannot change what others see.
type VerdictReport struct {
	verdict     Verdict
	score       int
	reasons     []string
	checks      []CheckResult
	reliable    bool
	generatedAt time.Time
}

// NewVerdictReport builds a report. The slices are copied.
func NewVerdictReport(verdict Verdict, score int, reasons []string, checks []CheckResult, reliable bool, generatedAt time.Time) VerdictReport {
	return VerdictReport{
		verdict:     verdict,
		score:       score,
		reasons:     cloneStrings(reasons),
		checks:      cloneChecks(checks),
		reliable:    reliable,
		generatedAt: generatedAt,
	}
}

// Verdict returns the classified verdict.
func (r VerdictReport) Verdict() Verdict { return r.verdict }

// Score returns the total number of points.
func (r VerdictReport) Score() int { return r.score }

// Reasons returns the reasons of every fired rule in rule order.
func (r VerdictReport) Reasons() []string { return cloneStrings(r.reasons) }

// Checks returns the full audit trail in rule order.
func (r VerdictReport) Checks() []CheckResult { return cloneChecks(r.checks) }

// Reliable reports whether all key evidence was available.
func (r VerdictReport) Reliable() bool { return r.reliable }

// GeneratedAt returns when the report was produced.
func (r VerdictReport) GeneratedAt() time.Time { return r.generatedAt }

// IsZero reports whether r is the zero report.
func (r VerdictReport) IsZero() bool {
	return r.verdict == "" && r.checks == nil
}

// verdictReportJSON is the wire form of VerdictReport.
type verdictReportJSON struct {
	Verdict     Verdict       `json:"verdict"`
	Score       int           `json:"score"`
	Reasons     []string      `json:"reasons"`
	Checks      []CheckResult `json:"checks"`
	Reliable    bool          `json:"reliable"`
	GeneratedAt time.Time     `json:"generated_at"`
}

// MarshalJSON implements json.Marshaler.
func (r VerdictReport) MarshalJSON() ([]byte, error) {
	reasons := r.reasons
	if reasons == nil {
		reasons = []string{}
	}
	checks := r.checks
	if checks == nil {
		checks = []CheckResult{}
	}
	return json.Marshal(verdictReportJSON{
		Verdict:     r.verdict,
		Score:       r.score,
		Reasons:     reasons,
		Checks:      checks,
		Reliable:    r.reliable,
		GeneratedAt: r.generatedAt,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *VerdictReport) UnmarshalJSON(data []byte) error {
	var v verdictReportJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = NewVerdictReport(v.Verdict, v.Score, v.Reasons, v.Checks, v.Reliable, v.GeneratedAt)
	return nil
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

func cloneChecks(c []CheckResult) []CheckResult {
	if c == nil {
		return nil
	}
	out := make([]CheckResult, len(c))
	copy(out, c)
	return out
}
