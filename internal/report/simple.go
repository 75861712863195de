package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/vpnsentry/internal/model"
	"github.com/nao1215/vpnsentry/internal/store"
)

// SimpleWriter outputs human-readable text reports.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with nothing to list are shown.
	showEmpty bool

	// verbose also lists neutral checks.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose lists checks that could not be evaluated as well.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report model.VerdictReport) (int, error) {
	var sb strings.Builder

	writeBanner(&sb, "VPNSENTRY REPORT")
	w.writeSummary(&sb, report)
	w.writeChecks(&sb, report)
	w.writeReasons(&sb, report)
	writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// WriteHistory outputs stored passes as a text table.
func (w *SimpleWriter) WriteHistory(entries []store.HistoryEntry) (int, error) {
	var sb strings.Builder

	writeBanner(&sb, "VPNSENTRY HISTORY")

	if len(entries) == 0 {
		sb.WriteString("  No passes recorded\n\n")
	} else {
		sb.WriteString(fmt.Sprintf("  %-6s %-24s %-22s %5s  %-8s %s\n", "ID", "TIME", "VERDICT", "SCORE", "RELIABLE", "REASONS"))
		for _, e := range entries {
			sb.WriteString(fmt.Sprintf("  %-6d %-24s %-22s %5d  %-8s %s\n",
				e.ID,
				e.Timestamp.Local().Format(timeLayout),
				e.Verdict,
				e.Score,
				yesNo(e.Reliable),
				strings.Join(e.Reasons, ", "),
			))
		}
		sb.WriteString("\n")
	}

	writeFooter(&sb)
	return w.output.Write([]byte(sb.String()))
}

// writeSummary writes the verdict block.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, report model.VerdictReport) {
	sb.WriteString(fmt.Sprintf("Verdict:   %s\n", report.Verdict()))
	sb.WriteString(fmt.Sprintf("Score:     %d\n", report.Score()))
	sb.WriteString(fmt.Sprintf("Reliable:  %s\n", yesNo(report.Reliable())))
	if !report.GeneratedAt().IsZero() {
		sb.WriteString(fmt.Sprintf("Generated: %s\n", report.GeneratedAt().Local().Format(timeLayout)))
	}
	sb.WriteString("\n")
}

// writeChecks writes the audit trail.
func (w *SimpleWriter) writeChecks(sb *strings.Builder, report model.VerdictReport) {
	writeSection(sb, "CHECKS")

	for _, c := range report.Checks() {
		if c.Outcome == model.OutcomeNeutral && !w.verbose {
			continue
		}
		line := fmt.Sprintf("  %s %-17s %s", c.Outcome.Symbol(), c.Label, c.Detail)
		if c.Weight > 0 {
			line += fmt.Sprintf(" (+%d)", c.Weight)
		}
		sb.WriteString(line + "\n")
	}
	sb.WriteString("\n")
}

// writeReasons writes the reasons of all fired rules.
func (w *SimpleWriter) writeReasons(sb *strings.Builder, report model.VerdictReport) {
	reasons := report.Reasons()
	if len(reasons) == 0 && !w.showEmpty {
		return
	}

	writeSection(sb, "REASONS")

	if len(reasons) == 0 {
		sb.WriteString("  No rule fired\n")
	}
	for _, r := range reasons {
		sb.WriteString(fmt.Sprintf("  [!] %s\n", r))
	}
	sb.WriteString("\n")
}

func writeBanner(sb *strings.Builder, title string) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat(" ", (70-len(title))/2) + title + "\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")
}

func writeSection(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title + "\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}

func writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by vpnsentry\n")
	sb.WriteString("https://github.com/nao1215/vpnsentry\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
