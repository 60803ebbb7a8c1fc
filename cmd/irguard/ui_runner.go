package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"

	"irguard/internal/ir"
	"irguard/internal/pass"
	"irguard/internal/ui"
)

// progressMode is the value of a --ui flag. Set validates, so cobra rejects a
// bad value while parsing flags.
type progressMode string

const (
	progressAuto progressMode = "auto"
	progressOn   progressMode = "on"
	progressOff  progressMode = "off"
)

func (m *progressMode) String() string { return string(*m) }
func (m *progressMode) Type() string   { return "auto|on|off" }

func (m *progressMode) Set(value string) error {
	switch v := progressMode(strings.ToLower(strings.TrimSpace(value))); v {
	case progressAuto, progressOn, progressOff:
		*m = v
		return nil
	case "":
		*m = progressAuto
		return nil
	}
	return fmt.Errorf("invalid value %q (expected auto|on|off)", value)
}

// draws reports whether the progress view should render on w. In auto mode
// w must be a terminal and --color must not have turned colors off.
func (m progressMode) draws(w io.Writer) bool {
	switch m {
	case progressOn:
		return true
	case progressOff:
		return false
	}
	f, ok := w.(*os.File)
	return ok && !color.NoColor && isTerminal(f)
}

type passOutcome struct {
	report *pass.Report
	err    error
}

// runPassesWithUI runs the pipeline on a worker goroutine while the progress
// view consumes its events on this one.
func runPassesWithUI(ctx context.Context, out io.Writer, title string, names []string, m ir.Module, build func(pass.Sink) *pass.Manager) (*pass.Report, error) {
	events := make(chan pass.Event, 256)
	outcomeCh := make(chan passOutcome, 1)

	go func() {
		rep, err := build(pass.ChannelSink{Ch: events}).Run(ctx, m)
		outcomeCh <- passOutcome{report: rep, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, names, events)
	program := tea.NewProgram(model, tea.WithOutput(out))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.report, uiErr
	}
	return outcome.report, outcome.err
}
