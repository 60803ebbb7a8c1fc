package ui

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"irguard/internal/pass"
	"irguard/internal/scenario"
)

// Table is a plain column layout. Cells are padded by display width so
// wide runes line up.
type Table struct {
	Header []string
	Rows   [][]string
	// Style colors a cell; nil leaves every cell unstyled.
	Style func(row, col int, cell string) lipgloss.Style
}

// Render lays the table out with two spaces between columns.
func (t *Table) Render() string {
	widths := make([]int, len(t.Header))
	for i, h := range t.Header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], runewidth.StringWidth(cell))
			}
		}
	}

	var b strings.Builder
	head := lipgloss.NewStyle().Bold(true)
	writeRow(&b, t.Header, widths, func(_ int, cell string) string { return head.Render(cell) })
	for r, row := range t.Rows {
		writeRow(&b, row, widths, func(c int, cell string) string {
			if t.Style == nil {
				return cell
			}
			return t.Style(r, c, cell).Render(cell)
		})
	}
	return b.String()
}

func writeRow(b *strings.Builder, cells []string, widths []int, render func(int, string) string) {
	for i, cell := range cells {
		if i >= len(widths) {
			break
		}
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(render(i, cell))
		if i < len(cells)-1 {
			b.WriteString(strings.Repeat(" ", widths[i]-runewidth.StringWidth(cell)))
		}
	}
	b.WriteByte('\n')
}

var (
	passStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	noStyle   = lipgloss.NewStyle()
)

// ScenarioTable lists the steps of a scenario run with their outcomes.
func ScenarioTable(res *scenario.Result) *Table {
	t := &Table{Header: []string{"#", "step", "expect", "got", ""}}
	for _, s := range res.Steps {
		mark := "pass"
		if !s.Passed {
			mark = "FAIL"
		}
		t.Rows = append(t.Rows, []string{
			fmt.Sprint(s.Index), s.Step.Label(), s.Step.Expect, s.Got, mark,
		})
	}
	t.Style = func(_, col int, cell string) lipgloss.Style {
		switch {
		case col == 4 && cell == "FAIL":
			return failStyle
		case col == 4:
			return passStyle
		case col == 0:
			return dimStyle
		}
		return noStyle
	}
	return t
}

// WriteScenario renders res as a table followed by the diagnostic counts.
func WriteScenario(w io.Writer, res *scenario.Result) error {
	var b strings.Builder
	fmt.Fprintf(&b, "scenario %s\n\n", res.Name)
	b.WriteString(ScenarioTable(res).Render())
	if len(res.Diagnostics) > 0 {
		b.WriteString("\n")
		for _, code := range slices.Sorted(maps.Keys(res.Diagnostics)) {
			fmt.Fprintf(&b, "%s %s: %d\n", code.ID(), code.Title(), res.Diagnostics[code])
		}
	}
	summary := passStyle
	if res.Failed() > 0 {
		summary = failStyle
	}
	b.WriteString("\n")
	b.WriteString(summary.Render(fmt.Sprintf("%d steps, %d failed", len(res.Steps), res.Failed())))
	b.WriteString("\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// PassTable lists the results of a pass pipeline.
func PassTable(rep *pass.Report) *Table {
	t := &Table{Header: []string{"pass", "mode", "roots", "time", "status"}}
	for _, r := range rep.Results {
		mode := "sequential"
		if r.Parallel {
			mode = "parallel"
		}
		status := "ok"
		if r.Err != nil {
			status = "error"
		}
		t.Rows = append(t.Rows, []string{
			r.Name, mode, fmt.Sprintf("%d/%d", r.Done, r.Roots), r.Duration.Round(1000).String(), status,
		})
	}
	t.Style = func(_, col int, cell string) lipgloss.Style {
		if col != 4 {
			return noStyle
		}
		if cell == "ok" {
			return passStyle
		}
		return failStyle
	}
	return t
}

// OpCountTable lists operation counts by name.
func OpCountTable(counts map[string]int) *Table {
	t := &Table{Header: []string{"operation", "count"}}
	for _, name := range pass.SortedCounts(counts) {
		t.Rows = append(t.Rows, []string{name, fmt.Sprint(counts[name])})
	}
	return t
}
