package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

// TestVerdictBlocking tests which verdicts show the warning panel.
func TestVerdictBlocking(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		verdict  Verdict
		expected bool
	}{
		{VerdictDetected, true},
		{VerdictLikely, true},
		{VerdictUnreliable, true},
		{VerdictNotDetected, false},
	}

	for _, tc := range testCases {
		t.Run(tc.verdict.String(), func(t *testing.T) {
			t.Parallel()
			if tc.verdict.Blocking() != tc.expected {
				t.Errorf("Blocking() = %v, expected %v", tc.verdict.Blocking(), tc.expected)
			}
		})
	}
}

// TestVerdictReportImmutable tests that accessors return copies.
func TestVerdictReportImmutable(t *testing.T) {
	t.Parallel()

	reasons := []string{"VPN IP"}
	checks := []CheckResult{{Label: "VPN Flag", Outcome: OutcomeFail, Detail: "VPN detected", Weight: 7}}
	r := NewVerdictReport(VerdictDetected, 7, reasons, checks, true, time.Now())

	reasons[0] = "changed"
	checks[0].Weight = 100
	r.Reasons()[0] = "changed"
	r.Checks()[0].Label = "changed"

	if r.Reasons()[0] != "VPN IP" {
		t.Errorf("reasons mutated: %v", r.Reasons())
	}
	if r.Checks()[0].Weight != 7 || r.Checks()[0].Label != "VPN Flag" {
		t.Errorf("checks mutated: %+v", r.Checks())
	}
}

// TestVerdictReportJSON tests the wire form of a report.
func TestVerdictReportJSON(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	r := NewVerdictReport(VerdictLikely, 4, []string{"Datacenter ASN"},
		[]CheckResult{{Label: "ASN", Outcome: OutcomeFail, Detail: "AS16509", Weight: 4}}, true, at)

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal map: %v", err)
	}
	if decoded["verdict"] != "VPN likely" {
		t.Errorf("unexpected verdict field %v", decoded["verdict"])
	}
	checks, ok := decoded["checks"].([]any)
	if !ok || len(checks) != 1 {
		t.Fatalf("unexpected checks field %v", decoded["checks"])
	}
	if checks[0].(map[string]any)["outcome"] != "fail" {
		t.Errorf("outcome should be encoded as text, got %v", checks[0])
	}

	var back VerdictReport
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal report: %v", err)
	}
	if back.Verdict() != VerdictLikely || back.Score() != 4 || !back.GeneratedAt().Equal(at) {
		t.Errorf("unexpected decoded report %+v", back)
	}
}

// TestVerdictReportJSONEmptySlices tests that empty trails encode as arrays.
func TestVerdictReportJSONEmptySlices(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(NewVerdictReport(VerdictNotDetected, 0, nil, nil, true, time.Time{}))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := decoded["reasons"].([]any); !ok {
		t.Errorf("reasons should be an array, got %v", decoded["reasons"])
	}
}

// TestOutcomeUnmarshalText tests parsing of outcome strings.
func TestOutcomeUnmarshalText(t *testing.T) {
	t.Parallel()

	var o Outcome
	if err := o.UnmarshalText([]byte("fail")); err != nil || o != OutcomeFail {
		t.Errorf("got %v, %v", o, err)
	}
	if err := o.UnmarshalText([]byte("bogus")); !errors.Is(err, ErrUnknownOutcome) {
		t.Errorf("expected ErrUnknownOutcome, got %v", err)
	}
}
