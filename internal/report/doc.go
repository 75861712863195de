// Package report renders verdict reports and history.
//
// This package contains writers for different output formats:
//   - SimpleWriter: human-readable text for terminal display
//   - JSONWriter: structured JSON for tool integration
//   - MarkdownWriter: Markdown for sharing
//
// Panel renders the blocking warning shown by the watch command. Writers
// branch only on the verdict, never on individual checks.
package report
