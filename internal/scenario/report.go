package scenario

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
)

// Label renders the step as do(on, arg) as name.
func (s Step) Label() string {
	var sb strings.Builder
	if s.Go {
		sb.WriteString("go ")
	}
	sb.WriteString(s.Do)
	sb.WriteByte('(')
	var args []string
	for _, a := range []string{s.On, s.Arg, s.Name, s.Value} {
		if a != "" {
			args = append(args, a)
		}
	}
	sb.WriteString(strings.Join(args, ", "))
	sb.WriteByte(')')
	if s.As != "" {
		sb.WriteString(" as ")
		sb.WriteString(s.As)
	}
	return sb.String()
}

// WriteText writes a plain report: one line per step, then the reported
// diagnostics by code. The output is stable across runs.
func (r *Result) WriteText(w io.Writer) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "scenario %s: %d steps, %d failed\n", r.Name, len(r.Steps), r.Failed())
	for _, s := range r.Steps {
		fmt.Fprintf(&sb, "%3d %s -> %s", s.Index, s.Step.Label(), s.Got)
		if !s.Passed {
			fmt.Fprintf(&sb, " (want %s) FAIL", s.Step.Expect)
		}
		sb.WriteByte('\n')
	}
	if len(r.Diagnostics) == 0 {
		sb.WriteString("diagnostics: none\n")
	} else {
		sb.WriteString("diagnostics:\n")
		for _, code := range slices.Sorted(maps.Keys(r.Diagnostics)) {
			fmt.Fprintf(&sb, "  %s %s %d\n", code.ID(), code.Name(), r.Diagnostics[code])
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
