package presenter

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"
)

// ---------------------------------------------------------------------------
// Field helpers over JSON-shaped data
// ---------------------------------------------------------------------------

func num(data map[string]any, key string) float64 {
	f, _ := data[key].(float64)
	return f
}

func count(data map[string]any, key string) string {
	return scalar(num(data, key))
}

func list(data map[string]any, key string) []any {
	l, _ := data[key].([]any)
	return l
}

func str(data map[string]any, key string) string {
	s, _ := data[key].(string)
	return s
}

func field(item any, key string) string {
	m, ok := item.(map[string]any)
	if !ok {
		return scalar(item)
	}
	return Truncate(scalar(m[key]), MaxValueWidth)
}

func (t *Terminal) metrics(sb *strings.Builder, rows [][2]string) {
	tbl := NewTable("Metric", "Value")
	for _, r := range rows {
		tbl.AddRow(r[0], r[1])
	}
	tbl.Render(sb, t.styles.Key)
}

func (t *Terminal) bullets(sb *strings.Builder, title string, items []any, style func(string) string) {
	if len(items) == 0 {
		return
	}
	t.section(sb, title)
	for _, item := range items {
		line := "  • " + Truncate(compact(item), MaxValueWidth)
		if style != nil {
			line = style(line)
		}
		sb.WriteString(line + "\n")
	}
}

func (t *Terminal) warn(s string) string { return t.styles.Warning.Render(s) }

// ---------------------------------------------------------------------------
// Per-service routines
// ---------------------------------------------------------------------------

func renderTesting(t *Terminal, sb *strings.Builder, data map[string]any) []string {
	t.metrics(sb, [][2]string{
		{"Files processed", count(data, "files_processed")},
		{"Tests generated", count(data, "tests_generated")},
		{"Tests passed", count(data, "tests_passed")},
		{"Tests failed", count(data, "tests_failed")},
		{"LLM status", str(data, "llm_status")},
	})
	t.bullets(sb, "Generated test files", list(data, "test_files"), nil)

	if results, ok := data["execution_results"].(map[string]any); ok && len(results) > 0 {
		t.section(sb, "Execution")
		tbl := NewTable("File", "Method", "Passed", "Failed", "Skipped", "Note")
		for _, file := range sortedKeys(results) {
			r := results[file]
			note := field(r, "error")
			if note == "-" {
				note = ""
			}
			if m, ok := r.(map[string]any); ok && m["simulated"] == true {
				note = strings.TrimSpace(note + " simulated")
			}
			tbl.AddRow(file, field(r, "method"), field(r, "passed"), field(r, "failed"), field(r, "skipped"), note)
		}
		tbl.Render(sb, t.styles.Key)
	}

	t.bullets(sb, "Errors", list(data, "errors"), t.warn)
	return []string{"files_processed", "tests_generated", "tests_passed", "tests_failed", "llm_status", "test_files", "execution_results", "errors"}
}

func renderRefactoring(t *Terminal, sb *strings.Builder, data map[string]any) []string {
	t.metrics(sb, [][2]string{
		{"Issues found", count(data, "total_issues_found")},
		{"Suggestions", count(data, "improvements")},
	})

	if smells := list(data, "code_smells"); len(smells) > 0 {
		t.section(sb, "Code smells")
		tbl := NewTable("Type", "Location", "Description")
		for _, s := range smells {
			tbl.AddRow(field(s, "type"), field(s, "location"), field(s, "description"))
		}
		tbl.Render(sb, t.styles.Key)
	}
	if sugg := list(data, "refactoring_suggestions"); len(sugg) > 0 {
		t.section(sb, "Suggestions")
		for _, s := range sugg {
			sb.WriteString(fmt.Sprintf("  • %s (%s): %s\n", field(s, "target"), field(s, "type"), field(s, "suggestion")))
		}
	}
	t.bullets(sb, "Recommended actions", list(data, "recommended_actions"), nil)
	t.bullets(sb, "Errors", list(data, "errors"), t.warn)
	return []string{"total_issues_found", "improvements", "code_smells", "refactoring_suggestions", "recommended_actions", "errors"}
}

func renderDebugging(t *Terminal, sb *strings.Builder, data map[string]any) []string {
	t.metrics(sb, [][2]string{
		{"Total issues", count(data, "total_issues")},
		{"Potential bugs", fmt.Sprint(len(list(data, "potential_bugs")))},
		{"Warnings", fmt.Sprint(len(list(data, "warnings")))},
	})

	for _, group := range []struct{ key, title string }{
		{"potential_bugs", "Potential bugs"},
		{"warnings", "Warnings"},
	} {
		items := list(data, group.key)
		if len(items) == 0 {
			continue
		}
		t.section(sb, group.title)
		tbl := NewTable("Type", "Location", "Message")
		for _, w := range items {
			tbl.AddRow(field(w, "type"), field(w, "location"), field(w, "message"))
		}
		tbl.Render(sb, t.styles.Key)
	}
	t.bullets(sb, "Recommended actions", list(data, "recommended_actions"), nil)
	t.bullets(sb, "Errors", list(data, "errors"), t.warn)
	return []string{"total_issues", "potential_bugs", "warnings", "recommended_actions", "errors"}
}

func renderDocumentation(t *Terminal, sb *strings.Builder, data map[string]any) []string {
	t.metrics(sb, [][2]string{
		{"Files analyzed", count(data, "files_analyzed")},
		{"Files documented", count(data, "files_documented")},
		{"Sections", count(data, "total_sections")},
		{"Coverage", count(data, "coverage") + "%"},
	})

	files := list(data, "documentation_files")
	t.bullets(sb, "Generated documentation", files, nil)
	t.bullets(sb, "Errors", list(data, "errors"), t.warn)

	if t.styled && len(files) > 0 {
		if first, ok := files[0].(string); ok {
			if preview := t.markdownPreview(first); preview != "" {
				t.section(sb, "Preview: "+first)
				sb.WriteString(preview)
			}
		}
	}
	return []string{"files_analyzed", "files_documented", "total_sections", "coverage", "documentation_files", "documentation_details", "errors"}
}

func renderAnalysis(t *Terminal, sb *strings.Builder, data map[string]any) []string {
	t.metrics(sb, [][2]string{
		{"Total files", count(data, "total_files")},
		{"Parsed files", count(data, "parsed_files")},
		{"Failed files", count(data, "failed_files")},
		{"Total lines", count(data, "total_lines")},
		{"Classes", count(data, "total_classes")},
		{"Functions", count(data, "total_functions")},
		{"Imports", count(data, "total_imports")},
	})

	if langs, ok := data["languages"].(map[string]any); ok && len(langs) > 0 {
		t.section(sb, "Languages")
		tbl := NewTable("Language", "Files")
		for _, l := range sortedKeys(langs) {
			tbl.AddRow(l, scalar(langs[l]))
		}
		tbl.Render(sb, t.styles.Key)
	}
	return []string{"total_files", "parsed_files", "failed_files", "total_lines", "total_classes", "total_functions", "total_imports", "languages"}
}

func renderPlanning(t *Terminal, sb *strings.Builder, data map[string]any) []string {
	if s := str(data, "summary"); s != "" {
		sb.WriteString(s + "\n")
	}
	tasks := list(data, "tasks")
	t.section(sb, fmt.Sprintf("Tasks (%s)", count(data, "total_tasks")))
	if len(tasks) == 0 {
		sb.WriteString(t.styles.Muted.Render("  nothing to plan") + "\n")
	} else {
		tbl := NewTable("ID", "Priority", "Kind", "Task")
		for _, task := range tasks {
			tbl.AddRow(field(task, "id"), field(task, "priority"), field(task, "kind"), field(task, "title"))
		}
		tbl.Render(sb, t.styles.Key)
	}
	return []string{"summary", "tasks", "total_tasks"}
}

// markdownPreview renders the head of a generated markdown file. Any
// failure yields an empty preview.
func (t *Terminal) markdownPreview(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	lines := strings.Split(string(data), "\n")
	if len(lines) > 40 {
		lines = append(lines[:40], "", "_…_")
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(t.width-6),
	)
	if err != nil {
		return ""
	}
	out, err := r.Render(strings.Join(lines, "\n"))
	if err != nil {
		return ""
	}
	return out
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
