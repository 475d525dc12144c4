// Package tui is the interactive attach dialog: the terminal version of the
// attach/detach modal of one tab, box or item.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/kutbudev/invctl/internal/attach"
	"github.com/kutbudev/invctl/internal/notify"
	"github.com/kutbudev/invctl/internal/tags"
)

type pane int

const (
	paneAvailable pane = iota
	paneAttached
)

// linkDoneMsg reports the end of an attach, detach or refresh.
type linkDoneMsg struct{ err error }

// Model is the bubbletea model of the attach dialog.
type Model struct {
	ctx        context.Context
	controller *attach.Controller
	refresher  *tags.Refresher
	notices    *notify.Recorder

	state   attach.ViewState
	focus   pane
	cursor  map[pane]int
	busy    bool
	spinner spinner.Model
	help    help.Model
	width   int
	closed  bool
}

// New builds the dialog for a controller that already has an open context.
// notices must be the recorder the controller notifies through.
func New(ctx context.Context, controller *attach.Controller, refresher *tags.Refresher, notices *notify.Recorder) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#0dcaf0"))
	return Model{
		ctx:        ctx,
		controller: controller,
		refresher:  refresher,
		notices:    notices,
		state:      controller.State(),
		cursor:     map[pane]int{},
		spinner:    s,
		help:       help.New(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Closed reports whether the user dismissed the dialog.
func (m Model) Closed() bool {
	return m.closed
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case linkDoneMsg:
		m.busy = false
		m.sync()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Close):
		m.controller.Close()
		m.closed = true
		return m, tea.Quit

	case key.Matches(msg, keys.Up):
		if m.cursor[m.focus] > 0 {
			m.cursor[m.focus]--
		}
		m.selectUnderCursor()
		return m, nil

	case key.Matches(msg, keys.Down):
		if m.cursor[m.focus] < m.paneLen(m.focus)-1 {
			m.cursor[m.focus]++
		}
		m.selectUnderCursor()
		return m, nil

	case key.Matches(msg, keys.Switch):
		if m.focus == paneAvailable {
			m.focus = paneAttached
		} else {
			m.focus = paneAvailable
		}
		return m, nil
	}

	// the submit controls are disabled while a call is in flight
	if m.busy {
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.Attach):
		if m.focus != paneAvailable || !m.state.HasOptions {
			return m, nil
		}
		tagID := m.state.Selected
		return m.run(func(ctx context.Context) error {
			return m.controller.Attach(ctx, tagID)
		})

	case key.Matches(msg, keys.Detach):
		if m.focus != paneAttached || len(m.state.Chips) == 0 {
			return m, nil
		}
		tagID := m.state.Chips[m.cursor[paneAttached]].ID
		return m.run(func(ctx context.Context) error {
			return m.controller.Detach(ctx, tagID)
		})

	case key.Matches(msg, keys.Refresh):
		return m.run(func(ctx context.Context) error {
			_, err := m.refresher.Refresh(ctx, true, false)
			return err
		})
	}
	return m, nil
}

func (m Model) run(fn func(ctx context.Context) error) (tea.Model, tea.Cmd) {
	m.busy = true
	ctx := m.ctx
	call := func() tea.Msg {
		return linkDoneMsg{err: fn(ctx)}
	}
	return m, tea.Batch(call, m.spinner.Tick)
}

func (m *Model) paneLen(p pane) int {
	if p == paneAvailable {
		return len(m.state.Available)
	}
	return len(m.state.Chips)
}

func (m *Model) selectUnderCursor() {
	if m.focus != paneAvailable || len(m.state.Available) == 0 {
		return
	}
	m.controller.Select(m.state.Available[m.cursor[paneAvailable]].ID)
	m.state = m.controller.State()
}

// sync reloads the state from the controller and clamps the cursors.
func (m *Model) sync() {
	m.state = m.controller.State()
	for _, p := range []pane{paneAvailable, paneAttached} {
		if n := m.paneLen(p); m.cursor[p] >= n {
			m.cursor[p] = max(n-1, 0)
		}
	}
	if m.state.HasOptions {
		for i, tag := range m.state.Available {
			if tag.ID == m.state.Selected {
				m.cursor[paneAvailable] = i
			}
		}
	}
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0d6efd"))
	paneStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1).Width(36)
	focusedStyle = paneStyle.BorderForeground(lipgloss.Color("#0d6efd"))
	cursorStyle  = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6c757d"))
)

// View implements tea.Model.
func (m Model) View() string {
	if m.closed {
		return ""
	}
	if !m.state.Open {
		return mutedStyle.Render("Nothing is open for tagging.") + "\n"
	}

	title := fmt.Sprintf("Tags of %s %q", strings.ToLower(m.state.Context.Kind.Label()), m.state.Context.Name)
	var b strings.Builder
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderPane(paneAvailable, "Available", m.availableLines()),
		" ",
		m.renderPane(paneAttached, "Attached", m.attachedLines()),
	))
	b.WriteString("\n")

	if m.busy {
		b.WriteString(m.spinner.View() + " working…\n")
	} else if m.notices != nil {
		if last, ok := m.notices.Last(); ok {
			b.WriteString(notify.Format(last.Level, last.Message) + "\n")
		}
	}
	b.WriteString(m.help.View(keys))
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderPane(p pane, title string, lines []string) string {
	style := paneStyle
	if m.focus == p {
		style = focusedStyle
	}
	body := titleStyle.Render(title) + "\n" + strings.Join(lines, "\n")
	return style.Render(body)
}

func (m Model) availableLines() []string {
	if !m.state.HasOptions {
		return []string{mutedStyle.Render("No tags available")}
	}
	lines := make([]string, 0, len(m.state.Available))
	for i, tag := range m.state.Available {
		d := tags.Describe(tag)
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(d.Color)).Render("■")
		line := fmt.Sprintf("%s %s", swatch, d.Name)
		lines = append(lines, m.decorate(paneAvailable, i, line))
	}
	return lines
}

func (m Model) attachedLines() []string {
	if len(m.state.Chips) == 0 {
		return []string{mutedStyle.Render(tags.EmptyChipsText)}
	}
	lines := make([]string, 0, len(m.state.Chips))
	for i, d := range m.state.Chips {
		chip := lipgloss.NewStyle().
			Background(lipgloss.Color(d.Color)).
			Foreground(lipgloss.Color(d.Readable)).
			Padding(0, 1).
			Render(d.Name)
		lines = append(lines, m.decorate(paneAttached, i, chip))
	}
	return lines
}

func (m Model) decorate(p pane, i int, line string) string {
	if m.focus == p && m.cursor[p] == i {
		return cursorStyle.Render("› ") + line
	}
	return "  " + line
}

// Run opens the dialog on the terminal and blocks until it is closed.
func Run(ctx context.Context, controller *attach.Controller, refresher *tags.Refresher, notices *notify.Recorder) error {
	p := tea.NewProgram(New(ctx, controller, refresher, notices), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
