// Package presenter renders result envelopes for a terminal.
package presenter

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dusk-indust/codeassist/internal/envelope"
)

// Presenter renders envelopes and run chrome to an output stream.
type Presenter interface {
	// Present renders one envelope. An envelope carrying an error is shown
	// as an error panel only.
	Present(env envelope.Envelope) error

	// FileTree lists the files a run is about to process.
	FileTree(root string, paths []string) error

	// Success prints a one-line confirmation.
	Success(message string) error
}

// Options configures a Terminal presenter.
type Options struct {
	// Styled enables colors, borders and markdown previews.
	Styled bool

	// Width is the terminal width used for wrapping. Zero means 100.
	Width int

	// Canonical maps a service string to its canonical name. Nil lower-cases.
	Canonical func(string) string
}

// Terminal is the Presenter used by the CLI.
type Terminal struct {
	w         io.Writer
	styles    Styles
	styled    bool
	width     int
	canonical func(string) string
}

// Compile-time check.
var _ Presenter = (*Terminal)(nil)

// New creates a Terminal presenter writing to w.
func New(w io.Writer, opts Options) *Terminal {
	t := &Terminal{
		w:         w,
		styles:    PlainStyles(),
		styled:    opts.Styled,
		width:     opts.Width,
		canonical: opts.Canonical,
	}
	if opts.Styled {
		t.styles = StyledStyles()
	}
	if t.width <= 0 {
		t.width = 100
	}
	if t.canonical == nil {
		t.canonical = func(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
	}
	return t
}

// serviceTitles are the headings for the canonical services.
var serviceTitles = map[string]string{
	"testing":       "🧪 Testing Results",
	"refactoring":   "🔧 Refactoring Results",
	"debugging":     "🐛 Debugging Results",
	"documentation": "📚 Documentation Results",
	"analysis":      "📊 Code Analysis Results",
	"planning":      "📋 Planning Results",
}

// routine renders the service specific part of an envelope and returns the
// field names it consumed.
type routine func(t *Terminal, sb *strings.Builder, data map[string]any) []string

var routines = map[string]routine{
	"testing":       renderTesting,
	"refactoring":   renderRefactoring,
	"debugging":     renderDebugging,
	"documentation": renderDocumentation,
	"analysis":      renderAnalysis,
	"planning":      renderPlanning,
}

// Present renders env. Services without a dedicated routine, and fields a
// routine does not consume, go through the generic key/value renderer.
func (t *Terminal) Present(env envelope.Envelope) error {
	var sb strings.Builder

	if env.Error != "" {
		t.renderError(&sb, env)
		return t.flush(sb.String())
	}

	name := t.canonical(env.Service)
	title, ok := serviceTitles[name]
	if !ok {
		title = "📦 " + env.Service + " Results"
	}
	sb.WriteString(t.styles.Title.Render(title))
	sb.WriteString("\n")
	if env.ProjectPath != "" {
		sb.WriteString(t.styles.Muted.Render("Project: " + env.ProjectPath))
		sb.WriteString("\n")
	}
	if env.Message != "" {
		sb.WriteString(t.styles.Message.Render(env.Message))
		sb.WriteString("\n")
	}

	data := normalize(env.Fields)

	consumed := map[string]bool{}
	if fn, ok := routines[name]; ok {
		for _, k := range fn(t, &sb, data) {
			consumed[k] = true
		}
	}

	rest := make(map[string]any)
	for k, v := range data {
		if !consumed[k] {
			rest[k] = v
		}
	}
	if len(rest) > 0 {
		if len(consumed) > 0 {
			t.section(&sb, "Additional details")
		} else {
			t.section(&sb, "Details")
		}
		t.renderGeneric(&sb, rest, 1)
	}

	out := sb.String()
	if t.styled {
		out = t.styles.Panel.Width(t.width - 2).Render(strings.TrimRight(out, "\n")) + "\n"
	}
	return t.flush(out)
}

// FileTree lists paths relative to root.
func (t *Terminal) FileTree(root string, paths []string) error {
	var sb strings.Builder
	sb.WriteString(t.styles.Section.Render(fmt.Sprintf("📁 Files to process (%d)", len(paths))))
	sb.WriteString("\n")

	rel := make([]string, 0, len(paths))
	for _, p := range paths {
		if r, err := filepath.Rel(root, p); err == nil && !strings.HasPrefix(r, "..") {
			rel = append(rel, filepath.ToSlash(r))
		} else {
			rel = append(rel, p)
		}
	}
	sort.Strings(rel)
	for i, r := range rel {
		branch := "├── "
		if i == len(rel)-1 {
			branch = "└── "
		}
		sb.WriteString(branch + r + "\n")
	}
	return t.flush(sb.String())
}

// Success prints a confirmation line.
func (t *Terminal) Success(message string) error {
	return t.flush(t.styles.Success.Render("✅ "+message) + "\n")
}

func (t *Terminal) renderError(sb *strings.Builder, env envelope.Envelope) {
	var body strings.Builder
	body.WriteString(t.styles.Error.Render("❌ " + env.Service + " failed"))
	body.WriteString("\n")
	body.WriteString("Error: " + env.Error)
	if env.Message != "" {
		body.WriteString("\n" + env.Message)
	}
	sb.WriteString(t.styles.ErrorPanel.Render(body.String()))
	sb.WriteString("\n")
}

func (t *Terminal) section(sb *strings.Builder, title string) {
	sb.WriteString(t.styles.Section.Render(title))
	sb.WriteString("\n")
}

func (t *Terminal) flush(s string) error {
	_, err := io.WriteString(t.w, s)
	return err
}

// normalize converts arbitrary field values to JSON-shaped data so every
// renderer can rely on map[string]any, []any and scalars.
func normalize(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return string(data)
	}
	return decoded
}
