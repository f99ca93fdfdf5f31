// Package ui renders a live view of a multi-manifest check.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"shadec/internal/driver"
)

type fileStatus uint8

const (
	statusQueued fileStatus = iota
	statusLoading
	statusResolving
	statusDone
	statusFailed
)

var statusText = [...]string{
	statusQueued:    "queued",
	statusLoading:   "loading",
	statusResolving: "resolving",
	statusDone:      "done",
	statusFailed:    "error",
}

func (s fileStatus) String() string { return statusText[s] }

func (s fileStatus) finished() bool { return s == statusDone || s == statusFailed }

// weight is the share of a file's work finished once it reaches s.
func (s fileStatus) weight() float64 {
	switch s {
	case statusLoading:
		return 0.2
	case statusResolving:
		return 0.6
	case statusDone, statusFailed:
		return 1
	}
	return 0
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	faintStyle  = lipgloss.NewStyle().Faint(true)
	statusStyle = [...]lipgloss.Style{
		statusQueued:    lipgloss.NewStyle().Foreground(lipgloss.Color("7")),
		statusLoading:   lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		statusResolving: lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		statusDone:      lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		statusFailed:    lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	}
)

// statusFor maps a driver event onto the row status. ok is false for events
// that do not change the row.
func statusFor(ev driver.Event) (fileStatus, bool) {
	switch ev.State {
	case driver.StateQueued:
		return statusQueued, true
	case driver.StateDone:
		return statusDone, true
	case driver.StateError:
		return statusFailed, true
	case driver.StateWorking:
		switch ev.Phase {
		case driver.PhaseLoad:
			return statusLoading, true
		case driver.PhaseResolve:
			return statusResolving, true
		}
	}
	return 0, false
}

type row struct {
	path    string
	status  fileStatus
	elapsed time.Duration
}

type progressModel struct {
	title     string
	events    <-chan driver.Event
	spinner   spinner.Model
	bar       progress.Model
	rows      []row
	byPath    map[string]int
	batchNote string
	width     int
	closed    bool
}

type (
	eventMsg  driver.Event
	closedMsg struct{}
)

// NewProgressModel shows one row per file and an overall progress bar. The
// model quits when events is closed.
func NewProgressModel(title string, files []string, events <-chan driver.Event) tea.Model {
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = statusStyle[statusLoading]

	m := &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(76)),
		rows:    make([]row, len(files)),
		byPath:  make(map[string]int, len(files)),
		width:   80,
	}
	for i, f := range files {
		m.rows[i] = row{path: f}
		m.byPath[f] = i
	}
	return m
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.next())
}

func (m *progressModel) next() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return closedMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		return m, tea.Batch(m.applyEvent(driver.Event(msg)), m.next())
	case closedMsg:
		m.closed = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.bar.Width = max(msg.Width-4, 10)
		}
	case spinner.TickMsg:
		if !m.closed {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	case progress.FrameMsg:
		bar, cmd := m.bar.Update(msg)
		m.bar = bar.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) applyEvent(ev driver.Event) tea.Cmd {
	if ev.File == "" {
		if ev.State == driver.StateError && ev.Err != nil {
			m.batchNote = ev.Err.Error()
		}
		return nil
	}
	i, known := m.byPath[ev.File]
	st, ok := statusFor(ev)
	if !known || !ok {
		return nil
	}
	m.rows[i].status = st
	if st.finished() {
		m.rows[i].elapsed = ev.Elapsed
	}
	return m.bar.SetPercent(m.completion())
}

// completion is the weighted fraction of the batch that is finished.
func (m *progressModel) completion() float64 {
	if len(m.rows) == 0 {
		return 0
	}
	var sum float64
	for _, r := range m.rows {
		sum += r.status.weight()
	}
	return sum / float64(len(m.rows))
}

func (m *progressModel) counts() (finished, failed int) {
	for _, r := range m.rows {
		if r.status.finished() {
			finished++
		}
		if r.status == statusFailed {
			failed++
		}
	}
	return finished, failed
}

func (m *progressModel) View() string {
	if len(m.rows) == 0 {
		return ""
	}
	finished, failed := m.counts()
	header := fmt.Sprintf("%s %d/%d", m.title, finished, len(m.rows))
	if failed > 0 {
		header += fmt.Sprintf(", %d failed", failed)
	}
	if m.batchNote != "" {
		header += " (" + m.batchNote + ")"
	}
	lead := m.spinner.View()
	if m.closed {
		lead = "✓"
	}

	var b strings.Builder
	b.WriteString(lead + " " + titleStyle.Render(header) + "\n\n")

	const statusWidth = 9
	nameWidth := max(m.width-statusWidth-14, 20)
	for _, r := range m.rows {
		label := statusStyle[r.status].Render(fmt.Sprintf("%*s", statusWidth, r.status))
		line := "  " + label + " " + truncate(r.path, nameWidth)
		if r.status.finished() && r.elapsed > 0 {
			line += " " + faintStyle.Render(r.elapsed.Round(time.Millisecond).String())
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n")
	if m.closed {
		b.WriteString(m.bar.ViewAs(1))
	} else {
		b.WriteString(m.bar.View())
	}
	b.WriteString("\n")
	return b.String()
}

// truncate cuts value to width display cells, marking the cut with "..."
// when there is room for it.
func truncate(value string, width int) string {
	if width <= 0 || runewidth.StringWidth(value) <= width {
		return value
	}
	tail := "..."
	if width <= len(tail) {
		tail = ""
	}
	return runewidth.Truncate(value, width, tail)
}
