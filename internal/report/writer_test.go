package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/vpnsentry/internal/model"
	"github.com/nao1215/vpnsentry/internal/store"
)

var testTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// createTestReport creates a detected report with sample checks.
func createTestReport() model.VerdictReport {
	checks := []model.CheckResult{
		{Label: "IP Lookup", Outcome: model.OutcomePass, Detail: "IP data found"},
		{Label: "ASN", Outcome: model.OutcomeNeutral, Detail: "Unknown"},
		{Label: "VPN Flag", Outcome: model.OutcomeFail, Detail: "VPN detected", Weight: 7},
		{Label: "WebRTC", Outcome: model.OutcomeFail, Detail: "198.51.100.9", Weight: 2},
	}
	return model.NewVerdictReport(model.VerdictDetected, 9, []string{"VPN IP", "WebRTC leak"}, checks, true, testTime)
}

// createCleanReport creates a report where no rule fired.
func createCleanReport() model.VerdictReport {
	checks := []model.CheckResult{
		{Label: "IP Lookup", Outcome: model.OutcomePass, Detail: "IP data found"},
		{Label: "VPN Flag", Outcome: model.OutcomePass, Detail: "No VPN"},
	}
	return model.NewVerdictReport(model.VerdictNotDetected, 0, nil, checks, true, testTime)
}

func createTestHistory() []store.HistoryEntry {
	return []store.HistoryEntry{
		{ID: 2, Timestamp: testTime, Verdict: model.VerdictLikely, Score: 4, Reliable: true, Reasons: []string{"Country mismatch", "Timezone mismatch"}},
		{ID: 1, Timestamp: testTime.Add(-time.Minute), Verdict: model.VerdictUnreliable, Score: 0},
	}
}

// TestSimpleWriter tests the human-readable report writer.
func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes report header", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "VPNSENTRY REPORT") {
			t.Error("expected output to contain header")
		}
		if !strings.Contains(output, "Verdict:   VPN detected") {
			t.Error("expected output to contain verdict")
		}
		if !strings.Contains(output, "Score:     9") {
			t.Error("expected output to contain score")
		}
	})

	t.Run("writes checks with points", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "✗ VPN Flag") || !strings.Contains(output, "VPN detected (+7)") {
			t.Errorf("expected failed VPN flag row, got:\n%s", output)
		}
		if !strings.Contains(output, "✓ IP Lookup") {
			t.Error("expected passed lookup row")
		}
		if strings.Contains(output, "ASN") {
			t.Error("neutral checks should be hidden without verbose")
		}
	})

	t.Run("verbose mode includes neutral checks", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf, WithVerbose(true))

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "- ASN") {
			t.Error("expected neutral ASN row in verbose output")
		}
	})

	t.Run("writes reasons", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "[!] VPN IP") || !strings.Contains(output, "[!] WebRTC leak") {
			t.Error("expected reasons in output")
		}
	})

	t.Run("hides reasons section without showEmpty", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		if _, err := w.Write(createCleanReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(buf.String(), "REASONS") {
			t.Error("expected no reasons section")
		}
	})

	t.Run("shows empty reasons with showEmpty", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf, WithShowEmpty(true))

		if _, err := w.Write(createCleanReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "No rule fired") {
			t.Error("expected empty reasons notice")
		}
	})

	t.Run("writes history", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		if _, err := w.WriteHistory(createTestHistory()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "VPNSENTRY HISTORY") {
			t.Error("expected history header")
		}
		if !strings.Contains(output, "Country mismatch, Timezone mismatch") {
			t.Error("expected joined reasons")
		}
		if strings.Index(output, "VPN likely") > strings.Index(output, "Unreliable detection") {
			t.Error("expected entries in the given order")
		}
	})

	t.Run("writes empty history", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).WriteHistory(nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "No passes recorded") {
			t.Error("expected empty history notice")
		}
	})
}

// TestJSONWriter tests the JSON report writer.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("outputs valid JSON", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf)

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var result map[string]any
		if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if result["verdict"] != "VPN detected" {
			t.Errorf("expected verdict, got %v", result["verdict"])
		}
		if result["score"] != float64(9) {
			t.Errorf("expected score 9, got %v", result["score"])
		}
	})

	t.Run("round trips through the model", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded model.VerdictReport
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("failed to decode: %v", err)
		}
		if decoded.Score() != 9 || len(decoded.Checks()) != 4 {
			t.Errorf("unexpected decoded report: %+v", decoded.Checks())
		}
	})

	t.Run("compact output by default", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := strings.TrimSuffix(buf.String(), "\n")
		if strings.Contains(output, "\n") {
			t.Error("expected compact JSON without newlines")
		}
	})

	t.Run("pretty print with indent", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n  \"verdict\"") {
			t.Error("expected indented JSON")
		}
	})

	t.Run("uses custom prefix and indent", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithIndent(">", "\t")).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), ">\t\"verdict\"") {
			t.Error("expected custom prefix and tab indent")
		}
	})

	t.Run("empty history is an empty array", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).WriteHistory(nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if buf.String() != "[]\n" {
			t.Errorf("got %q", buf.String())
		}
	})

	t.Run("writes history entries", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).WriteHistory(createTestHistory()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var entries []store.HistoryEntry
		if err := json.Unmarshal(buf.Bytes(), &entries); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if len(entries) != 2 || entries[0].ID != 2 {
			t.Errorf("unexpected entries %+v", entries)
		}
	})
}

// TestMultiWriter tests writing to multiple writers.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all writers", func(t *testing.T) {
		t.Parallel()

		var buf1, buf2 bytes.Buffer
		mw := NewMultiWriter(NewSimpleWriter(&buf1), NewJSONWriter(&buf2))

		n, err := mw.Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != buf1.Len()+buf2.Len() {
			t.Errorf("expected total %d, got %d", buf1.Len()+buf2.Len(), n)
		}
		if strings.Contains(buf1.String(), "{") {
			t.Error("expected buf1 (simple) to not be JSON")
		}
		if !strings.Contains(buf2.String(), "{") {
			t.Error("expected buf2 (JSON) to contain JSON")
		}
	})

	t.Run("writes history to all writers", func(t *testing.T) {
		t.Parallel()

		var buf1, buf2 bytes.Buffer
		mw := NewMultiWriter(NewSimpleWriter(&buf1), NewJSONWriter(&buf2))

		if _, err := mw.WriteHistory(createTestHistory()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if buf1.Len() == 0 || buf2.Len() == 0 {
			t.Error("expected both buffers to have content")
		}
	})

	t.Run("handles empty writers list", func(t *testing.T) {
		t.Parallel()

		n, err := NewMultiWriter().Write(createTestReport())
		if err != nil || n != 0 {
			t.Errorf("expected no output, got %d, %v", n, err)
		}
	})
}

// TestMarkdownWriter tests the Markdown report writer.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes report header", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "# vpnsentry Report") {
			t.Error("expected output to contain H1 header")
		}
		if !strings.Contains(output, "**VPN detected**") {
			t.Error("expected output to contain verdict")
		}
	})

	t.Run("alert matches verdict", func(t *testing.T) {
		t.Parallel()

		testCases := []struct {
			verdict  model.Verdict
			expected string
		}{
			{model.VerdictDetected, "[!CAUTION]"},
			{model.VerdictLikely, "[!WARNING]"},
			{model.VerdictUnreliable, "[!IMPORTANT]"},
			{model.VerdictNotDetected, "[!TIP]"},
		}
		for _, tc := range testCases {
			var buf bytes.Buffer
			r := model.NewVerdictReport(tc.verdict, 0, nil, nil, true, testTime)
			if _, err := NewMarkdownWriter(&buf).Write(r); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.Contains(buf.String(), tc.expected) {
				t.Errorf("%s: expected %s alert", tc.verdict, tc.expected)
			}
		}
	})

	t.Run("writes checks table", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{"## Checks", "VPN Flag", "+7", "❌ fail", "➖ neutral"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("includes pie chart when points were scored", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "pie") {
			t.Error("expected output to contain mermaid pie chart")
		}
	})

	t.Run("no pie chart for clean report", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(createCleanReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if strings.Contains(output, "mermaid") {
			t.Error("expected no chart")
		}
		if !strings.Contains(output, "No rule fired.") {
			t.Error("expected empty reasons notice")
		}
	})

	t.Run("writes history table", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).WriteHistory(createTestHistory()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "# vpnsentry History") {
			t.Error("expected history header")
		}
		if !strings.Contains(output, "Unreliable detection") {
			t.Error("expected history rows")
		}
	})

	t.Run("writes footer with link", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(createCleanReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "https://github.com/nao1215/vpnsentry") {
			t.Error("expected footer link")
		}
	})
}

// TestTruncateString tests truncation on rune boundaries.
func TestTruncateString(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		input    string
		maxLen   int
		expected string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 10, "this is..."},
		{"abc", 2, "ab"},
		{"Deutschland ≠ Österreich", 16, "Deutschland ≠..."},
	}

	for _, tc := range testCases {
		if got := truncateString(tc.input, tc.maxLen); got != tc.expected {
			t.Errorf("truncateString(%q, %d) = %q, expected %q", tc.input, tc.maxLen, got, tc.expected)
		}
	}
}
