package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/vpnsentry/internal/model"
	"github.com/nao1215/vpnsentry/internal/store"
)

// MarkdownWriter outputs reports in Markdown format.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report model.VerdictReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeAlert(md, report)
	w.writeChecks(md, report)
	w.writeReasons(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteHistory outputs stored passes as a Markdown table.
func (w *MarkdownWriter) WriteHistory(entries []store.HistoryEntry) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("vpnsentry History")
	md.PlainText("")

	if len(entries) == 0 {
		md.PlainText("No passes recorded.")
		md.PlainText("")
	} else {
		rows := make([][]string, len(entries))
		for i, e := range entries {
			reasons := strings.Join(e.Reasons, ", ")
			if reasons == "" {
				reasons = "-"
			}
			rows[i] = []string{
				strconv.FormatInt(e.ID, 10),
				e.Timestamp.Local().Format(timeLayout),
				e.Verdict.String(),
				strconv.Itoa(e.Score),
				yesNo(e.Reliable),
				reasons,
			}
		}
		md.Table(markdown.TableSet{
			Header: []string{"ID", "Time", "Verdict", "Score", "Reliable", "Reasons"},
			Rows:   rows,
		})
		md.PlainText("")
	}

	w.writeFooter(md)
	return len(md.String()), md.Build()
}

// writeHeader writes the title and the verdict table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report model.VerdictReport) {
	md.H1("vpnsentry Report")
	md.PlainText("")

	rows := [][]string{
		{"Verdict", "**" + report.Verdict().String() + "**"},
		{"Score", strconv.Itoa(report.Score())},
		{"Reliable", yesNo(report.Reliable())},
	}
	if !report.GeneratedAt().IsZero() {
		rows = append(rows, []string{"Generated", report.GeneratedAt().Local().Format(timeLayout)})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeAlert writes an alert matching the verdict.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report model.VerdictReport) {
	switch report.Verdict() {
	case model.VerdictDetected:
		md.Cautionf("The connection appears to be relayed through a VPN or proxy (score %d).", report.Score())
	case model.VerdictLikely:
		md.Warningf("The connection is likely relayed through a VPN or proxy (score %d).", report.Score())
	case model.VerdictUnreliable:
		md.Importantf("Key evidence was missing, so the connection could not be classified.")
	default:
		md.Tip("No sign of a VPN or proxy was found.")
	}
	md.PlainText("")
}

// writeChecks writes the audit trail and, when points were scored, their
// distribution.
func (w *MarkdownWriter) writeChecks(md *markdown.Markdown, report model.VerdictReport) {
	md.H2("Checks")
	md.PlainText("")

	checks := report.Checks()
	rows := make([][]string, len(checks))
	for i, c := range checks {
		detail := c.Detail
		if detail == "" {
			detail = "-"
		}
		points := "-"
		if c.Weight > 0 {
			points = "+" + strconv.Itoa(c.Weight)
		}
		rows[i] = []string{c.Label, outcomeEmoji(c.Outcome), truncateString(detail, 60), points}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Check", "Result", "Detail", "Points"},
		Rows:   rows,
	})
	md.PlainText("")

	if report.Score() > 0 {
		w.writePieChart(md, checks)
	}
}

// writePieChart writes a mermaid pie chart of the points per check.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, checks []model.CheckResult) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Score Breakdown"),
		piechart.WithShowData(true),
	)

	for _, c := range checks {
		if c.Weight > 0 {
			chart.LabelAndIntValue(c.Label, uint64(c.Weight))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeReasons writes the reasons of all fired rules.
func (w *MarkdownWriter) writeReasons(md *markdown.Markdown, report model.VerdictReport) {
	md.H2("Reasons")
	md.PlainText("")

	reasons := report.Reasons()
	if len(reasons) == 0 {
		md.PlainText("No rule fired.")
		md.PlainText("")
		return
	}

	md.BulletList(reasons...)
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [vpnsentry](https://github.com/nao1215/vpnsentry)*")
}

func outcomeEmoji(o model.Outcome) string {
	switch o {
	case model.OutcomePass:
		return "✅ pass"
	case model.OutcomeFail:
		return "❌ fail"
	default:
		return "➖ neutral"
	}
}

// truncateString truncates a string to maxLen runes with ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
