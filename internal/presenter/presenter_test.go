package presenter

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/codeassist/internal/envelope"
)

func plain(buf *bytes.Buffer) *Terminal {
	return New(buf, Options{})
}

// ---------------------------------------------------------------------------
// Error short-circuit
// ---------------------------------------------------------------------------

func TestPresent_ErrorOnlyRendersPanel(t *testing.T) {
	var buf bytes.Buffer
	env := envelope.Failed("documentation", "/proj", "Set GEMINI_API_KEY", errors.New("capability unavailable")).
		WithFields(map[string]any{"files_documented": 0})

	require.NoError(t, plain(&buf).Present(env))

	out := buf.String()
	assert.Contains(t, out, "documentation failed")
	assert.Contains(t, out, "Error: capability unavailable")
	assert.Contains(t, out, "Set GEMINI_API_KEY")
	assert.NotContains(t, out, "Documentation Results")
	assert.NotContains(t, out, "Files documented")
}

// ---------------------------------------------------------------------------
// Service routines
// ---------------------------------------------------------------------------

func TestPresent_Analysis(t *testing.T) {
	var buf bytes.Buffer
	env := envelope.Completed("analysis", "/proj", "Analyzed 3 files", map[string]any{
		"total_files":     3,
		"parsed_files":    2,
		"failed_files":    1,
		"total_lines":     42,
		"total_classes":   1,
		"total_functions": 4,
		"total_imports":   2,
		"languages":       map[string]int{"python": 1, "javascript": 1},
	})

	require.NoError(t, plain(&buf).Present(env))

	out := buf.String()
	assert.Contains(t, out, "📊 Code Analysis Results")
	assert.Contains(t, out, "Project: /proj")
	assert.Contains(t, out, "Analyzed 3 files")
	assert.Contains(t, out, "Total lines")
	assert.Contains(t, out, "42")
	assert.Contains(t, out, "javascript")
	assert.NotContains(t, out, "Additional details")
	assert.NotContains(t, out, "\x1b[", "plain output must not carry escape sequences")
}

func TestPresent_AliasCanonicalized(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, Options{Canonical: func(s string) string {
		if s == "t" {
			return "testing"
		}
		return s
	}})
	env := envelope.Completed("t", ".", "", map[string]any{"tests_generated": 2})

	require.NoError(t, p.Present(env))
	assert.Contains(t, buf.String(), "🧪 Testing Results")
}

func TestPresent_UnconsumedFieldsGoToAdditionalDetails(t *testing.T) {
	var buf bytes.Buffer
	env := envelope.Completed("planning", ".", "", map[string]any{
		"summary":     "Two things to do",
		"total_tasks": 1,
		"tasks": []map[string]any{
			{"id": "T1", "title": "add tests for a.py", "kind": "tests", "priority": "high", "file": "a.py"},
		},
		"extra_note": "hello",
	})

	require.NoError(t, plain(&buf).Present(env))

	out := buf.String()
	assert.Contains(t, out, "Two things to do")
	assert.Contains(t, out, "add tests for a.py")
	assert.Contains(t, out, "Additional details")
	assert.Contains(t, out, "Extra Note: hello")
}

func TestPresent_TestingWithExecution(t *testing.T) {
	var buf bytes.Buffer
	env := envelope.Completed("testing", ".", "Generated 3 tests for 1 files", map[string]any{
		"files_processed": 1,
		"tests_generated": 3,
		"test_files":      []string{"tests/generated/python/test_calc.py"},
		"execution_results": map[string]any{
			"tests/generated/python/test_calc.py": map[string]any{
				"method": "structure_analysis", "simulated": true, "skipped": 3,
			},
		},
		"errors": []string{"b.py: boom"},
	})

	require.NoError(t, plain(&buf).Present(env))

	out := buf.String()
	assert.Contains(t, out, "test_calc.py")
	assert.Contains(t, out, "structure_analysis")
	assert.Contains(t, out, "simulated")
	assert.Contains(t, out, "b.py: boom")
}

// ---------------------------------------------------------------------------
// Generic renderer
// ---------------------------------------------------------------------------

func TestPresent_UnknownServiceUsesGenericRenderer(t *testing.T) {
	var buf bytes.Buffer
	env := envelope.Completed("custom", ".", "", map[string]any{
		"nested": map[string]any{
			"inner": map[string]any{"deep": []any{1, "two", map[string]any{"k": "v"}, []any{true}}},
		},
		"empty_map":  map[string]any{},
		"empty_list": []string{},
		"nothing":    nil,
	})

	require.NoError(t, plain(&buf).Present(env))

	out := buf.String()
	assert.Contains(t, out, "📦 custom Results")
	assert.Contains(t, out, "Details")
	assert.Contains(t, out, "  Nested:")
	assert.Contains(t, out, "    Inner:")
	assert.Contains(t, out, "- two")
	assert.Contains(t, out, "- k=v")
	assert.Contains(t, out, "Empty Map: (empty)")
	assert.Contains(t, out, "Empty List: (none)")
	assert.Contains(t, out, "Nothing: -")
}

func TestPresent_GenericNeverPanics(t *testing.T) {
	deep := map[string]any{"leaf": "x"}
	for i := 0; i < 20; i++ {
		deep = map[string]any{"level": deep, "list": []any{[]any{[]any{i}}}}
	}

	values := []any{
		deep,
		make(chan int), // not JSON encodable
		func() {},
		[]any{nil, nil},
		struct{ A int }{A: 1},
		3.5,
	}
	for _, v := range values {
		var buf bytes.Buffer
		env := envelope.Completed("whatever", ".", "", map[string]any{"value": v})
		assert.NotPanics(t, func() { _ = plain(&buf).Present(env) })
	}
}

func TestPresent_TruncatesLongValues(t *testing.T) {
	var buf bytes.Buffer
	long := strings.Repeat("x", 150)
	env := envelope.Completed("custom", ".", "", map[string]any{"blob": long})

	require.NoError(t, plain(&buf).Present(env))

	out := buf.String()
	assert.NotContains(t, out, long)
	assert.Contains(t, out, strings.Repeat("x", MaxValueWidth-3)+"...")
}

func TestHumanize(t *testing.T) {
	for key, want := range map[string]string{
		"tests_generated": "Tests Generated",
		"llm-status":      "Llm Status",
		"élan_vital":      "Élan Vital",
		"ünit":            "Ünit",
		"_":               "_",
	} {
		got := humanize(key)
		assert.Equal(t, want, got, key)
		assert.True(t, utf8.ValidString(got), key)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"short", "abc", 10, "abc"},
		{"exact", "abcde", 5, "abcde"},
		{"cut", "abcdefgh", 6, "abc..."},
		{"tiny limit", "abcdef", 2, "ab"},
		{"zero", "abc", 0, ""},
		{"runes", "ééééééé", 5, "éé..."},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Truncate(tc.in, tc.max))
		})
	}
}

// ---------------------------------------------------------------------------
// Chrome
// ---------------------------------------------------------------------------

func TestFileTree(t *testing.T) {
	var buf bytes.Buffer
	root := filepath.FromSlash("/proj")
	paths := []string{
		filepath.Join(root, "web", "util.js"),
		filepath.Join(root, "src", "calc.py"),
	}

	require.NoError(t, plain(&buf).FileTree(root, paths))

	assert.Equal(t,
		"📁 Files to process (2)\n├── src/calc.py\n└── web/util.js\n",
		buf.String())
}

func TestSuccess(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, plain(&buf).Success("Saved results"))
	assert.Equal(t, "✅ Saved results\n", buf.String())
}

func TestStyledDocumentationPreview(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "calc_README.md")
	require.NoError(t, os.WriteFile(doc, []byte("# calc\n\n## Overview\n\nAdds numbers.\n"), 0o644))

	var buf bytes.Buffer
	p := New(&buf, Options{Styled: true, Width: 80})
	env := envelope.Completed("documentation", dir, "", map[string]any{
		"files_analyzed":      1,
		"files_documented":    1,
		"coverage":            100.0,
		"documentation_files": []string{doc},
	})

	require.NoError(t, p.Present(env))
	out := buf.String()
	assert.Contains(t, out, "Preview:")
	assert.Contains(t, out, "Adds numbers.")
}
