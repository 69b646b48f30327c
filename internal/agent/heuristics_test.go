package agent

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/codeassist/internal/parser"
)

func record(path string, lang parser.Language, content string, st parser.Structure) parser.Record {
	return parser.NewRecord(path, lang, content, st, nil)
}

func setOf(recs ...parser.Record) parser.Set {
	s := parser.Set{}
	for _, r := range recs {
		s.Add(r)
	}
	return s
}

func imports(n int) []parser.Fact {
	out := make([]parser.Fact, n)
	for i := range out {
		out[i] = parser.Fact{Name: fmt.Sprintf("import m%d", i), Line: i + 1, Kind: parser.FactImport}
	}
	return out
}

// --------------------------------------------------------------------------
// Refactor heuristics
// --------------------------------------------------------------------------

func TestHeuristicRefactor(t *testing.T) {
	long := parser.Fact{Name: "big", Line: 10, EndLine: 70, Kind: parser.FactFunction}
	short := parser.Fact{Name: "small", Line: 80, EndLine: 85, Kind: parser.FactFunction}
	noEnd := parser.Fact{Name: "wide", Line: 90, Kind: parser.FactFunction, Signature: "def wide(" + strings.Repeat("a, ", 40) + "z):"}

	set := setOf(
		record("a.py", parser.LangPython, "x = 1\n", parser.Structure{Functions: []parser.Fact{long, short, noEnd}}),
		record("b.js", parser.LangJavaScript, "let x\n", parser.Structure{Imports: imports(21)}),
		record("c.js", parser.LangJavaScript, "let y\n", parser.Structure{Imports: imports(20)}),
		parser.FailedRecord("d.py", parser.LangPython, fmt.Errorf("decode failed")),
	)

	report := NewHeuristicRefactor(Thresholds{}).Review(context.Background(), set)

	want := []Smell{
		{Type: "long_function", Location: "a.py:10", Description: "Function 'big' spans 61 lines (limit 50)"},
		{Type: "long_function", Location: "a.py:90", Description: fmt.Sprintf("Function 'wide' has a %d character definition and might be too long", len(noEnd.Signature))},
		{Type: "too_many_imports", Location: "b.js", Description: "File has 21 imports, consider organizing"},
	}
	if diff := cmp.Diff(want, report.Smells); diff != "" {
		t.Errorf("smells mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, report.Suggestions, 3)
	assert.Equal(t, "extract_method", report.Suggestions[0].Type)
	assert.Equal(t, "big", report.Suggestions[0].Target)
	assert.Equal(t, []string{"Review and refactor long functions", "Organize imports and dependencies"}, report.RecommendedActions)
}

func TestHeuristicRefactor_EmptySet(t *testing.T) {
	report := NewHeuristicRefactor(Thresholds{}).Review(context.Background(), parser.Set{})
	assert.NotNil(t, report.Smells)
	assert.Empty(t, report.Smells)
	assert.Empty(t, report.Suggestions)
	assert.Empty(t, report.RecommendedActions)
}

// --------------------------------------------------------------------------
// Debug heuristics
// --------------------------------------------------------------------------

func TestHeuristicDebug(t *testing.T) {
	py := "import os\nprint('hi')\n# TODO: fix\ntry:\n    pass\nexcept:\n    pass\n"
	js := "// FIXME later\nfunction f() {\n  debugger;\n  console.log('print(')\n}\n"

	set := setOf(
		record("a.py", parser.LangPython, py, parser.Structure{}),
		record("b.js", parser.LangJavaScript, js, parser.Structure{}),
	)
	report := NewHeuristicDebug(Thresholds{}).Inspect(context.Background(), set)

	wantWarnings := []Finding{
		{Type: "debug_print", Location: "a.py:2", Message: "Debug print statement found"},
		{Type: "todo_comment", Location: "a.py:3", Message: "TODO/FIXME comment found"},
		{Type: "todo_comment", Location: "b.js:1", Message: "TODO/FIXME comment found"},
	}
	if diff := cmp.Diff(wantWarnings, report.Warnings); diff != "" {
		t.Errorf("warnings mismatch (-want +got):\n%s", diff)
	}

	require.Len(t, report.PotentialBugs, 2)
	assert.Equal(t, "bare_except", report.PotentialBugs[0].Type)
	assert.Equal(t, "a.py:6", report.PotentialBugs[0].Location)
	assert.Equal(t, "debugger_statement", report.PotentialBugs[1].Type)
	assert.Equal(t, "b.js:3", report.PotentialBugs[1].Location)

	assert.Contains(t, report.RecommendedActions, "Remove debug print statements")
	assert.Contains(t, report.RecommendedActions, "Review all TODO/FIXME comments")
}

func TestHeuristicDebug_LargeFile(t *testing.T) {
	content := strings.Repeat("x = 1\n", 12)
	set := setOf(record("big.py", parser.LangPython, content, parser.Structure{}))

	report := NewHeuristicDebug(Thresholds{LargeFileLines: 10}).Inspect(context.Background(), set)

	require.Len(t, report.Warnings, 1)
	assert.Equal(t, Finding{Type: "large_file", Location: "big.py", Message: "File has 13 lines (limit 10)"}, report.Warnings[0])
}

// --------------------------------------------------------------------------
// Planner
// --------------------------------------------------------------------------

func TestHeuristicPlanner(t *testing.T) {
	dir := t.TempDir()
	docs := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
		return p
	}

	fn := []parser.Fact{{Name: "f", Line: 1, Kind: parser.FactFunction}}
	cls := []parser.Fact{{Name: "C", Line: 1, Kind: parser.FactClass}}

	calc := write("calc.py", "def f(): pass\n")
	tested := write("tested.py", "def f(): pass\n")
	write("test_tested.py", "def test_f(): assert f() is None\n")
	model := write("model.py", "class C: pass\n")
	documented := write("shape.py", "class C: pass\n")
	require.NoError(t, os.WriteFile(filepath.Join(docs, "shape_README.md"), []byte("# shape"), 0o644))
	big := write("big.js", "let a\n")

	set := setOf(
		record(calc, parser.LangPython, "def f(): pass\n", parser.Structure{Functions: fn}),
		record(tested, parser.LangPython, "def f(): pass\n", parser.Structure{Functions: fn}),
		record(model, parser.LangPython, "class C: pass\n", parser.Structure{Classes: cls}),
		record(documented, parser.LangPython, "class C: pass\n", parser.Structure{Classes: cls}),
		record(big, parser.LangJavaScript, strings.Repeat("a\n", 11), parser.Structure{Imports: imports(3)}),
		record(filepath.Join(dir, "util.spec.js"), parser.LangJavaScript, "it('x')\n", parser.Structure{Functions: fn}),
	)

	planner := NewHeuristicPlanner(Thresholds{LargeFileLines: 10, MaxImports: 2}, "", docs)
	report := planner.Plan(context.Background(), set)

	want := []Task{
		{ID: "T1", Title: "split " + big, File: big, Kind: TaskSplit, Priority: "medium"},
		{ID: "T2", Title: "organize imports in " + big, File: big, Kind: TaskImports, Priority: "low"},
		{ID: "T3", Title: "add tests for " + calc, File: calc, Kind: TaskTests, Priority: "high"},
		{ID: "T4", Title: "add tests for " + model, File: model, Kind: TaskTests, Priority: "high"},
		{ID: "T5", Title: "document " + model, File: model, Kind: TaskDocs, Priority: "low"},
		{ID: "T6", Title: "add tests for " + documented, File: documented, Kind: TaskTests, Priority: "high"},
	}
	if diff := cmp.Diff(want, report.Tasks); diff != "" {
		t.Errorf("tasks mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "6 tasks across 4 files: add tests (3), split (1), organize imports (1), document (1).", report.Summary)
}

func TestHeuristicPlanner_CountsGeneratedTests(t *testing.T) {
	dir := t.TempDir()
	testsDir := t.TempDir()
	fn := []parser.Fact{{Kind: parser.FactFunction, Name: "f", Line: 1, EndLine: 1}}
	calc := filepath.Join(dir, "calc.py")
	util := filepath.Join(dir, "util.js")
	set := setOf(
		record(calc, parser.LangPython, "def f(): pass\n", parser.Structure{Functions: fn}),
		record(util, parser.LangJavaScript, "function f() {}\n", parser.Structure{Functions: fn}),
	)

	generated := filepath.Join(testsDir, string(parser.LangPython), TestFileName("calc", parser.LangPython))
	require.NoError(t, os.MkdirAll(filepath.Dir(generated), 0o755))
	require.NoError(t, os.WriteFile(generated, []byte("def test_f(): pass\n"), 0o644))

	report := NewHeuristicPlanner(Thresholds{}, testsDir, "").Plan(context.Background(), set)
	var testTasks []string
	for _, task := range report.Tasks {
		if task.Kind == TaskTests {
			testTasks = append(testTasks, task.File)
		}
	}
	assert.Equal(t, []string{util}, testTasks)
}

func TestHeuristicPlanner_Empty(t *testing.T) {
	report := NewHeuristicPlanner(Thresholds{}, "", "").Plan(context.Background(), parser.Set{})
	assert.NotNil(t, report.Tasks)
	assert.Empty(t, report.Tasks)
	assert.NotEmpty(t, report.Summary)
}

func TestIsTestFile(t *testing.T) {
	for path, want := range map[string]bool{
		"test_calc.py":      true,
		"calc_test.py":      true,
		"util.test.js":      true,
		"util.spec.ts":      true,
		"GreeterTest.java":  true,
		"calc.py":           false,
		"Greeter.java":      false,
		"contest.py":        false,
		"LatestResult.java": false,
	} {
		assert.Equal(t, want, IsTestFile(path), path)
	}
}
