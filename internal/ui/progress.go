// Package ui renders pass progress and run reports in the terminal.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"irguard/internal/pass"
)

type progressModel struct {
	title   string
	events  <-chan pass.Event
	spinner spinner.Model
	prog    progress.Model
	items   []passItem
	index   map[string]int
	width   int
	done    bool
}

type passItem struct {
	name     string
	status   pass.Status
	parallel bool
	done     int
	total    int
}

type eventMsg pass.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that renders pass pipeline
// progress. It quits when events is closed.
func NewProgressModel(title string, passes []string, events <-chan pass.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	items := make([]passItem, 0, len(passes))
	index := make(map[string]int, len(passes))
	for i, name := range passes {
		items = append(items, passItem{name: name, status: pass.StatusQueued})
		index[name] = i
	}
	return &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		items:   items,
		index:   index,
		width:   80,
	}
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.applyEvent(pass.Event(msg))
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case progress.FrameMsg:
		model, cmd := m.prog.Update(msg)
		m.prog = model.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	if len(m.items) == 0 {
		return ""
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	header := m.title
	if m.done {
		header = fmt.Sprintf("done: %s", header)
	} else {
		header = fmt.Sprintf("%s %s", m.spinner.View(), header)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	const statusWidth = 10
	const countWidth = 14
	nameWidth := max(m.width-statusWidth-countWidth-6, 20)

	for _, item := range m.items {
		status := styleStatus(item.status).Render(fmt.Sprintf("%*s", statusWidth, item.status))
		count := fmt.Sprintf("%d/%d", item.done, item.total)
		if item.parallel {
			count += " par"
		}
		fmt.Fprintf(&b, "  %s %-*s %s\n", status, countWidth, count, truncate(item.name, nameWidth))
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(m.prog.ViewAs(1.0))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")
	return b.String()
}

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) applyEvent(ev pass.Event) tea.Cmd {
	idx, ok := m.index[ev.Pass]
	if !ok {
		return nil
	}
	item := &m.items[idx]
	item.status = ev.Status
	item.parallel = ev.Parallel
	item.total = ev.Total
	item.done = max(item.done, ev.Done)
	return m.prog.SetPercent(m.percent())
}

// percent weighs every pass equally; a pass contributes the share of roots
// it has finished.
func (m *progressModel) percent() float64 {
	if len(m.items) == 0 {
		return 0
	}
	total := 0.0
	for _, item := range m.items {
		switch {
		case item.status == pass.StatusDone || item.status == pass.StatusError:
			total += 1.0
		case item.total > 0:
			total += float64(item.done) / float64(item.total)
		}
	}
	return total / float64(len(m.items))
}

func styleStatus(status pass.Status) lipgloss.Style {
	switch status {
	case pass.StatusDone:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case pass.StatusError:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case pass.StatusWorking:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	}
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width-3, "...")
}
