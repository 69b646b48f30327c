// Package tui implements the interactive service menu.
package tui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dusk-indust/codeassist/internal/orchestrator"
)

// Choice is what the user picked from the menu.
type Choice struct {
	Service string
	Path    string

	// Quit is set when the user left the menu. Interrupted additionally
	// marks a ctrl+c exit.
	Quit        bool
	Interrupted bool
}

type step int

const (
	stepMenu step = iota
	stepPath
	stepDone
)

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Back   key.Binding
	Quit   key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Select, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down}, {k.Select, k.Back, k.Quit}}
}

var keys = keyMap{
	Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Select: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
	Back:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#04B575"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
)

// Model is the bubbletea model for the menu. Each run of the program yields
// one Choice; the caller loops.
type Model struct {
	items  []orchestrator.Info
	cursor int
	step   step
	input  textinput.Model
	help   help.Model
	choice Choice
}

// NewModel creates a menu over the canonical services plus a quit entry.
func NewModel() Model {
	in := textinput.New()
	in.Placeholder = "."
	in.Prompt = "Path: "
	in.CharLimit = 4096

	return Model{
		items: orchestrator.Services(),
		input: in,
		help:  help.New(),
	}
}

// Choice returns the selection once the program has finished.
func (m Model) Choice() Choice { return m.choice }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		if m.step == stepPath {
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	if keyMsg.Type == tea.KeyCtrlC {
		m.choice = Choice{Quit: true, Interrupted: true}
		m.step = stepDone
		return m, tea.Quit
	}

	switch m.step {
	case stepMenu:
		return m.updateMenu(keyMsg)
	case stepPath:
		return m.updatePath(keyMsg)
	}
	return m, nil
}

func (m Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	quitIdx := len(m.items)

	switch {
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case key.Matches(msg, keys.Down):
		if m.cursor < quitIdx {
			m.cursor++
		}
		return m, nil
	case key.Matches(msg, keys.Quit):
		return m.quit()
	case key.Matches(msg, keys.Select):
		if m.cursor == quitIdx {
			return m.quit()
		}
		return m.pick(m.cursor)
	}

	// Digits pick directly: 1-6 for the services, 7 to quit.
	if msg.Type == tea.KeyRunes && len(msg.Runes) == 1 {
		r := msg.Runes[0]
		if r >= '1' && int(r-'1') < len(m.items) {
			return m.pick(int(r - '1'))
		}
		if int(r-'1') == quitIdx {
			return m.quit()
		}
	}
	return m, nil
}

func (m Model) updatePath(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Back):
		m.step = stepMenu
		m.input.Blur()
		m.input.Reset()
		return m, nil
	case key.Matches(msg, keys.Select):
		path := strings.TrimSpace(m.input.Value())
		if path == "" {
			path = "."
		}
		m.choice = Choice{Service: m.items[m.cursor].Name, Path: path}
		m.step = stepDone
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) pick(idx int) (tea.Model, tea.Cmd) {
	m.cursor = idx
	m.step = stepPath
	m.input.Reset()
	return m, m.input.Focus()
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.choice = Choice{Quit: true}
	m.step = stepDone
	return m, tea.Quit
}

// View implements tea.Model.
func (m Model) View() string {
	if m.step == stepDone {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("🤖 Code Assistant"))
	b.WriteString("\n\n")

	if m.step == stepPath {
		info := m.items[m.cursor]
		fmt.Fprintf(&b, "%s %s\n\n", info.Icon, info.Title)
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
		b.WriteString(dimStyle.Render("enter: run • esc: back • ctrl+c: quit"))
		b.WriteString("\n")
		return b.String()
	}

	for i, info := range m.items {
		line := fmt.Sprintf("%d. %s %s", i+1, info.Icon, info.Title)
		b.WriteString(m.row(i, line))
	}
	b.WriteString(m.row(len(m.items), fmt.Sprintf("%d. 👋 Quit", len(m.items)+1)))
	b.WriteString("\n")
	b.WriteString(m.help.View(keys))
	b.WriteString("\n")
	return b.String()
}

func (m Model) row(i int, line string) string {
	if i == m.cursor {
		return selectedStyle.Render("> "+line) + "\n"
	}
	return "  " + line + "\n"
}

// Run shows the menu until the user picks a service or quits.
func Run(ctx context.Context, in io.Reader, out io.Writer) (Choice, error) {
	p := tea.NewProgram(NewModel(),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	)
	final, err := p.Run()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Choice{Quit: true, Interrupted: true}, ctxErr
		}
		return Choice{}, fmt.Errorf("tui: %w", err)
	}
	m, ok := final.(Model)
	if !ok {
		return Choice{}, fmt.Errorf("tui: unexpected model %T", final)
	}
	return m.Choice(), nil
}
