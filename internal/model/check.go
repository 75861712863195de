package model

import (
	"errors"
	"fmt"
)

// ErrUnknownOutcome is returned when an outcome string cannot be parsed.
var ErrUnknownOutcome = errors.New("unknown outcome")

// Outcome is the result of a single check.
type Outcome int

const (
	// OutcomeNeutral means the check could not be evaluated or carries
	// no signal either way (e.g. data is missing).
	OutcomeNeutral Outcome = iota

	// OutcomePass means the signal looked consistent with a direct connection.
	OutcomePass

	// OutcomeFail means the signal points at a relayed connection.
	OutcomeFail
)

// String returns a human-readable representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomePass:
		return "pass"
	case OutcomeFail:
		return "fail"
	default:
		return "neutral"
	}
}

// Symbol returns the short marker used by the text renderer.
func (o Outcome) Symbol() string {
	switch o {
	case OutcomePass:
		return "✓"
	case OutcomeFail:
		return "✗"
	default:
		return "-"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Outcome) UnmarshalText(text []byte) error {
	switch string(text) {
	case "neutral":
		*o = OutcomeNeutral
	case "pass":
		*o = OutcomePass
	case "fail":
		*o = OutcomeFail
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOutcome, string(text))
	}
	return nil
}

// CheckResult is one row of the audit trail.
type CheckResult struct {
	// Label names the check (e.g. "Tor Exit").
	Label string `json:"label"`

	Outcome Outcome `json:"outcome"`

	// Detail is the human-readable evidence shown next to the label.
	Detail string `json:"detail"`

	// Weight is the number of points this check added to the score.
	// It is only non-zero when Outcome is OutcomeFail.
	Weight int `json:"weight"`
}
