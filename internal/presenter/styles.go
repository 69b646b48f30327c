package presenter

import "github.com/charmbracelet/lipgloss"

// Palette used by the styled presenter.
var (
	ColorAccent  = lipgloss.Color("#8BC34A")
	ColorInfo    = lipgloss.Color("#2196F3")
	ColorWarning = lipgloss.Color("#FFC107")
	ColorError   = lipgloss.Color("#E53935")
	ColorMuted   = lipgloss.Color("#7A8599")
)

// Styles holds every style the presenter renders with.
type Styles struct {
	Title      lipgloss.Style
	Message    lipgloss.Style
	Section    lipgloss.Style
	Key        lipgloss.Style
	Muted      lipgloss.Style
	Success    lipgloss.Style
	Warning    lipgloss.Style
	Error      lipgloss.Style
	Panel      lipgloss.Style
	ErrorPanel lipgloss.Style
}

// StyledStyles returns colored styles with bordered panels.
func StyledStyles() Styles {
	return Styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(ColorAccent),
		Message: lipgloss.NewStyle().Italic(true),
		Section: lipgloss.NewStyle().Bold(true).Foreground(ColorInfo).MarginTop(1),
		Key:     lipgloss.NewStyle().Bold(true),
		Muted:   lipgloss.NewStyle().Foreground(ColorMuted),
		Success: lipgloss.NewStyle().Foreground(ColorAccent),
		Warning: lipgloss.NewStyle().Foreground(ColorWarning),
		Error:   lipgloss.NewStyle().Bold(true).Foreground(ColorError),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorAccent).
			Padding(0, 1),
		ErrorPanel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorError).
			Padding(0, 1),
	}
}

// PlainStyles returns styles that emit no escape sequences.
func PlainStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{
		Title:      plain,
		Message:    plain,
		Section:    plain,
		Key:        plain,
		Muted:      plain,
		Success:    plain,
		Warning:    plain,
		Error:      plain,
		Panel:      plain,
		ErrorPanel: plain,
	}
}
