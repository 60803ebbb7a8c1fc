package diag

import (
	"fmt"
	"strings"
)

// FormatShort renders diagnostics into a stable, single-line-per-entry
// representation for CLI output and golden files. Entries are sorted and
// returned as one string (empty when nothing remains).
func FormatShort(diags []Diagnostic, includeNotes bool) string {
	if len(diags) == 0 {
		return ""
	}
	sorted := append([]Diagnostic(nil), diags...)
	sortDiagnostics(sorted)

	var b strings.Builder
	for i, d := range sorted {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s %s %s", severityLabel(d.Severity), d.Code.ID(), orDash(d.Call))
		if d.Object != "" {
			fmt.Fprintf(&b, " %s", d.Object)
		}
		fmt.Fprintf(&b, " %s", sanitizeMessage(d.Message))
		if includeNotes {
			for _, n := range d.Notes {
				fmt.Fprintf(&b, "\nnote %s %s", d.Code.ID(), sanitizeMessage(n.Msg))
			}
		}
	}
	return b.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func severityLabel(sev Severity) string {
	switch sev {
	case SevError:
		return "error"
	case SevWarning:
		return "warning"
	default:
		return "info"
	}
}

func sanitizeMessage(msg string) string {
	msg = strings.ReplaceAll(msg, "\r\n", "\n")
	msg = strings.ReplaceAll(msg, "\r", "\n")
	msg = strings.ReplaceAll(msg, "\n", " ")
	return strings.TrimSpace(msg)
}
