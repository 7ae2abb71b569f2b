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

	"loom/internal/driver"
)

type outcome uint8

const (
	outcomePending outcome = iota
	outcomeRunning
	outcomeUnchanged
	outcomeCached
	outcomeChanged
	outcomeFailed
	outcomeCount
)

var outcomeLabels = [outcomeCount]string{
	outcomePending:   "queued",
	outcomeRunning:   "formatting",
	outcomeUnchanged: "unchanged",
	outcomeCached:    "cached",
	outcomeChanged:   "changed",
	outcomeFailed:    "error",
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	runningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	changedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func (o outcome) style() lipgloss.Style {
	switch o {
	case outcomeRunning:
		return runningStyle
	case outcomeChanged:
		return changedStyle
	case outcomeFailed:
		return failedStyle
	}
	return mutedStyle
}

type progressModel struct {
	title   string
	events  <-chan driver.ProgressEvent
	spinner spinner.Model
	bar     progress.Model
	width   int

	paths  []string
	states []outcome
	counts [outcomeCount]int
	// notable keeps changed and failed files in completion order.
	notable []int
	// maxNotable bounds the list; older entries scroll away.
	maxNotable int

	slowest     string
	slowestTime time.Duration
	done        bool
}

type eventMsg driver.ProgressEvent
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that renders formatting
// progress from events until the channel is closed.
func NewProgressModel(title string, events <-chan driver.ProgressEvent) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = runningStyle

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 76

	return &progressModel{
		title:      title,
		events:     events,
		spinner:    sp,
		bar:        bar,
		width:      80,
		maxNotable: 12,
	}
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listen())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		return m, tea.Batch(m.apply(driver.ProgressEvent(msg)), m.listen())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 8 {
			m.width = msg.Width
			m.bar.Width = msg.Width - 4
		}
	case progress.FrameMsg:
		bar, cmd := m.bar.Update(msg)
		m.bar = bar.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) listen() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) apply(ev driver.ProgressEvent) tea.Cmd {
	if ev.Total > len(m.states) {
		m.counts[outcomePending] += ev.Total - len(m.states)
		m.states = append(m.states, make([]outcome, ev.Total-len(m.states))...)
		m.paths = append(m.paths, make([]string, ev.Total-len(m.paths))...)
	}
	if ev.Index < 0 || ev.Index >= len(m.states) {
		return nil
	}
	next := outcomeOf(ev)
	m.counts[m.states[ev.Index]]--
	m.counts[next]++
	m.states[ev.Index] = next
	m.paths[ev.Index] = ev.Path

	if next == outcomeChanged || next == outcomeFailed {
		m.notable = append(m.notable, ev.Index)
		if len(m.notable) > m.maxNotable {
			m.notable = m.notable[len(m.notable)-m.maxNotable:]
		}
	}
	if ev.Status == driver.FileDone && ev.Elapsed > m.slowestTime {
		m.slowest, m.slowestTime = ev.Path, ev.Elapsed
	}
	return m.bar.SetPercent(float64(m.finished()) / float64(len(m.states)))
}

func outcomeOf(ev driver.ProgressEvent) outcome {
	switch {
	case ev.Status == driver.FileStart:
		return outcomeRunning
	case ev.Err != nil:
		return outcomeFailed
	case ev.Cached:
		return outcomeCached
	case ev.Changed:
		return outcomeChanged
	}
	return outcomeUnchanged
}

func (m *progressModel) finished() int {
	return len(m.states) - m.counts[outcomePending] - m.counts[outcomeRunning]
}

func (m *progressModel) View() string {
	if len(m.states) == 0 {
		return ""
	}
	var b strings.Builder
	header := fmt.Sprintf("%s %d/%d", m.title, m.finished(), len(m.states))
	if m.done {
		header = "done: " + header
	} else {
		header = m.spinner.View() + " " + header
	}
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	nameWidth := max(m.width-16, 20)
	for i, st := range m.states {
		if st == outcomeRunning {
			m.writeRow(&b, st, m.paths[i], nameWidth)
		}
	}
	for _, i := range m.notable {
		m.writeRow(&b, m.states[i], m.paths[i], nameWidth)
	}

	b.WriteString("\n  ")
	b.WriteString(m.summary())
	b.WriteString("\n")
	if m.done {
		b.WriteString(m.bar.ViewAs(1))
	} else {
		b.WriteString(m.bar.View())
	}
	b.WriteString("\n")
	return b.String()
}

func (m *progressModel) writeRow(b *strings.Builder, st outcome, path string, width int) {
	label := st.style().Render(fmt.Sprintf("%10s", outcomeLabels[st]))
	fmt.Fprintf(b, "  %s %s\n", label, truncate(path, width))
}

// summary renders the non-zero counters, e.g. "3 changed · 1 error · 40 unchanged".
func (m *progressModel) summary() string {
	order := []outcome{outcomeChanged, outcomeFailed, outcomeCached, outcomeUnchanged}
	parts := make([]string, 0, len(order)+1)
	for _, o := range order {
		if n := m.counts[o]; n > 0 {
			parts = append(parts, o.style().Render(fmt.Sprintf("%d %s", n, outcomeLabels[o])))
		}
	}
	if m.done && m.slowest != "" {
		parts = append(parts, mutedStyle.Render(fmt.Sprintf("slowest %s (%s)", truncate(m.slowest, 32), m.slowestTime.Round(time.Millisecond))))
	}
	if len(parts) == 0 {
		return mutedStyle.Render("starting")
	}
	return strings.Join(parts, " · ")
}

func truncate(value string, width int) string {
	if width <= 0 || runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	// путь обрезаем слева: имя файла важнее каталога
	return runewidth.TruncateLeft(value, runewidth.StringWidth(value)-width+3, "...")
}
