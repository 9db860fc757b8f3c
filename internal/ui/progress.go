package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"flux/internal/driver"
)

// recentDecls is how many checked declarations stay on screen.
const recentDecls = 5

type progressModel struct {
	title   string
	events  <-chan driver.ProgressEvent
	spinner spinner.Model
	prog    progress.Model
	phases  []phaseItem
	index   map[string]int
	recent  []declItem
	failed  int
	cached  bool
	width   int
	done    bool
}

type phaseItem struct {
	name   string
	status string
	done   int
	total  int
}

type declItem struct {
	name   string
	failed bool
}

type eventMsg driver.ProgressEvent
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that renders check progress.
// The model quits when events is closed.
func NewProgressModel(title string, phases []string, events <-chan driver.ProgressEvent) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	items := make([]phaseItem, 0, len(phases))
	index := make(map[string]int, len(phases))
	for i, name := range phases {
		items = append(items, phaseItem{name: name, status: "queued"})
		index[name] = i
	}
	return &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		phases:  items,
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
		cmd := m.applyEvent(driver.ProgressEvent(msg))
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.done = true
			return m, tea.Quit
		}
		return m, nil
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
		progressModel, cmd := m.prog.Update(msg)
		m.prog = progressModel.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	header := m.title
	switch {
	case m.done && m.cached:
		header = fmt.Sprintf("done: %s (cached)", header)
	case m.done:
		header = fmt.Sprintf("done: %s", header)
	default:
		header = fmt.Sprintf("%s %s", m.spinner.View(), header)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	nameWidth := max(m.width-12-4, 20)
	for _, item := range m.phases {
		name := item.name
		if item.total > 0 {
			name = fmt.Sprintf("%s %d/%d", name, item.done, item.total)
		}
		status := styleStatus(item.status).Render(fmt.Sprintf("%12s", item.status))
		fmt.Fprintf(&b, "  %s %s\n", status, truncate(name, nameWidth))
	}

	if len(m.recent) > 0 {
		b.WriteString("\n")
		for _, d := range m.recent {
			status := "ok"
			if d.failed {
				status = "error"
			}
			fmt.Fprintf(&b, "  %s %s\n", styleStatus(status).Render(fmt.Sprintf("%12s", status)), truncate(d.name, nameWidth))
		}
	}
	if m.failed > 0 {
		fmt.Fprintf(&b, "\n  %s\n", styleStatus("error").Render(fmt.Sprintf("%d declaration(s) failed", m.failed)))
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

func (m *progressModel) applyEvent(ev driver.ProgressEvent) tea.Cmd {
	switch ev.Kind {
	case driver.ProgressCacheHit:
		m.cached = true
		for i := range m.phases {
			m.phases[i].status = "cached"
		}
		return m.prog.SetPercent(1)
	case driver.ProgressPhaseStart:
		if i, ok := m.index[ev.Phase]; ok {
			m.phases[i].status = "working"
		}
	case driver.ProgressPhaseEnd:
		if i, ok := m.index[ev.Phase]; ok {
			m.phases[i].status = "done"
		}
	case driver.ProgressDecl:
		if i, ok := m.index[ev.Phase]; ok {
			m.phases[i].done = max(m.phases[i].done, ev.Done)
			m.phases[i].total = ev.Total
		}
		if ev.Failed {
			m.failed++
		}
		m.recent = append(m.recent, declItem{name: ev.Name, failed: ev.Failed})
		if len(m.recent) > recentDecls {
			m.recent = m.recent[len(m.recent)-recentDecls:]
		}
	}
	return m.prog.SetPercent(m.percent())
}

// percent counts finished phases plus the share of declarations checked in
// the phase that is running.
func (m *progressModel) percent() float64 {
	if len(m.phases) == 0 {
		return 0
	}
	total := 0.0
	for _, p := range m.phases {
		switch {
		case p.status == "done" || p.status == "cached":
			total++
		case p.total > 0:
			total += float64(p.done) / float64(p.total)
		}
	}
	return total / float64(len(m.phases))
}

func styleStatus(status string) lipgloss.Style {
	switch status {
	case "done", "ok", "cached":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case "error":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case "working":
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
	return runewidth.Truncate(value, width, "...")
}
