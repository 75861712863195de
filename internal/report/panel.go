package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/vpnsentry/internal/model"
)

// DefaultWarningMessage is shown in the panel when no custom message is set.
const DefaultWarningMessage = `VPN or Proxy Detected

Your connection appears to be using a VPN or proxy service. To protect
your account and our community, we do not allow VPN/proxy access.

What to do:
  - Please disable your VPN/proxy and run the check again.
  - If you believe this is a mistake, please contact support for help.

Why we check:
  - Accessing from a blocked region may violate local laws and site rules.`

// panelWidth is the inner width of the panel frame.
const panelWidth = 72

// Panel renders the blocking warning for verdicts that require one.
type Panel struct {
	output  io.Writer
	message string
}

// NewPanel creates a Panel writing to output. An empty message selects
// DefaultWarningMessage.
func NewPanel(output io.Writer, message string) *Panel {
	message = strings.TrimRight(message, "\n")
	if strings.TrimSpace(message) == "" {
		message = DefaultWarningMessage
	}
	return &Panel{output: output, message: message}
}

// Message returns the text shown in the panel.
func (p *Panel) Message() string {
	return p.message
}

// Render writes the panel when the verdict is blocking and nothing
// otherwise. countdown is the number of seconds until the next check;
// zero or less omits the countdown line.
func (p *Panel) Render(report model.VerdictReport, countdown int) (int, error) {
	if !report.Verdict().Blocking() {
		return 0, nil
	}

	var sb strings.Builder
	border := "+" + strings.Repeat("-", panelWidth+2) + "+\n"

	sb.WriteString(border)
	for _, line := range strings.Split(p.message, "\n") {
		sb.WriteString(panelLine(line))
	}
	sb.WriteString(panelLine(""))
	sb.WriteString(panelLine(fmt.Sprintf("[%s] score %d", report.Verdict(), report.Score())))
	if countdown > 0 {
		sb.WriteString(panelLine(CountdownText(countdown)))
	}
	sb.WriteString(border)

	return p.output.Write([]byte(sb.String()))
}

// CountdownText returns the countdown shown between passes.
func CountdownText(seconds int) string {
	return fmt.Sprintf("Next check in %ds", seconds)
}

// panelLine frames one line, cutting it at the panel width.
func panelLine(line string) string {
	r := []rune(strings.ReplaceAll(line, "\t", "    "))
	if len(r) > panelWidth {
		r = r[:panelWidth]
	}
	return "| " + string(r) + strings.Repeat(" ", panelWidth-len(r)) + " |\n"
}
