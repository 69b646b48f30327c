package agent

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/codeassist/internal/llm"
	"github.com/dusk-indust/codeassist/internal/parser"
	"github.com/dusk-indust/codeassist/internal/runner"
)

type stubRunner struct {
	lang parser.Language
	res  runner.Result
	reqs []runner.Request
}

func (s *stubRunner) Language() parser.Language { return s.lang }
func (s *stubRunner) Run(_ context.Context, req runner.Request) runner.Result {
	s.reqs = append(s.reqs, req)
	return s.res
}

const goodPyTests = "Here you go:\n```python\nfrom calc import add\n\n\ndef test_add_positive():\n    assert add(1, 2) == 3\n\n\ndef test_add_negative():\n    assert add(-1, -2) == -3\n```\n"

const placeholderPyTests = "```python\nfrom calc import add\n\n\ndef test_add():\n    assert True\n```"

func calcRecord(dir string) parser.Record {
	return record(filepath.Join(dir, "calc.py"), parser.LangPython, "def add(a, b):\n    return a + b\n", parser.Structure{
		Functions: []parser.Fact{{Name: "add", Line: 1, EndLine: 2, Kind: parser.FactFunction, Signature: "def add(a, b):"}},
	})
}

// --------------------------------------------------------------------------
// LLM tester
// --------------------------------------------------------------------------

func TestLLMTester_GeneratesSavesAndRuns(t *testing.T) {
	out := t.TempDir()
	gen := llm.NewFakeGenerator(goodPyTests)
	py := &stubRunner{lang: parser.LangPython, res: runner.Result{Success: true, Method: "pytest", Passed: 2}}
	tester := NewLLMTester(gen, map[parser.Language]runner.Runner{parser.LangPython: py}, out, nil)

	outcome, err := tester.GenerateTests(context.Background(), calcRecord(t.TempDir()))
	require.NoError(t, err)

	wantPath := filepath.Join(out, "python", "test_calc.py")
	assert.Equal(t, wantPath, outcome.TestFile)
	assert.Equal(t, 2, outcome.TestsGenerated)
	assert.Equal(t, 2, outcome.Passed)
	assert.Equal(t, LLMAvailable, outcome.LLMStatus)
	require.NotNil(t, outcome.Execution)
	assert.Equal(t, "pytest", outcome.Execution.Method)

	data, err := os.ReadFile(wantPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "from calc import add"), "code fences are stripped")
	require.Len(t, py.reqs, 1)
	assert.Equal(t, wantPath, py.reqs[0].TestFile)
	assert.Equal(t, 1, gen.Calls())
}

func TestLLMTester_RetriesOnceWithStricterPrompt(t *testing.T) {
	gen := llm.NewFakeGenerator(placeholderPyTests, goodPyTests)
	tester := NewLLMTester(gen, nil, t.TempDir(), nil)

	outcome, err := tester.GenerateTests(context.Background(), calcRecord(t.TempDir()))
	require.NoError(t, err)

	assert.Equal(t, 2, gen.Calls())
	assert.Contains(t, gen.Prompts[1], "CRITICAL")
	assert.Nil(t, outcome.Execution, "no runner for the language")
}

func TestLLMTester_GivesUpAfterRetry(t *testing.T) {
	gen := llm.NewFakeGenerator(placeholderPyTests)
	tester := NewLLMTester(gen, nil, t.TempDir(), nil)

	_, err := tester.GenerateTests(context.Background(), calcRecord(t.TempDir()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "placeholder")
	assert.Equal(t, 2, gen.Calls())
}

func TestLLMTester_MissingKeyIsUnavailable(t *testing.T) {
	gen := &llm.FakeGenerator{Err: llm.ErrNoAPIKey}
	tester := NewLLMTester(gen, nil, t.TempDir(), nil)

	_, err := tester.GenerateTests(context.Background(), calcRecord(t.TempDir()))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAgentUnavailable))
	assert.Equal(t, 1, gen.Calls(), "transport errors are not retried here")
}

func TestLLMTester_NoTargets(t *testing.T) {
	tester := NewLLMTester(llm.NewFakeGenerator(goodPyTests), nil, t.TempDir(), nil)
	rec := record("empty.py", parser.LangPython, "x = 1\n", parser.Structure{})

	_, err := tester.GenerateTests(context.Background(), rec)
	assert.ErrorIs(t, err, ErrNoTestTargets)
}

// --------------------------------------------------------------------------
// Cleaning and validation
// --------------------------------------------------------------------------

func TestCleanCode(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"no fences", "  def test_a(): pass  \n", "def test_a(): pass"},
		{"tagged fence", "text\n```python\ncode()\n```\nmore", "code()"},
		{"bare fence", "```\ncode()\n```", "code()"},
		{"longest wins", "```js\na()\n```\n```js\nlonger()\nlines()\n```", "longer()\nlines()"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CleanCode(tc.in, parser.LangPython))
		})
	}
}

func TestValidateTests(t *testing.T) {
	good := CleanCode(goodPyTests, parser.LangPython)
	tests := []struct {
		name   string
		code   string
		lang   parser.Language
		reject string
	}{
		{"good python", good, parser.LangPython, ""},
		{"too short", "def test_a(): assert a()", parser.LangPython, "too short"},
		{"assert True", good + "\n\ndef test_b():\n    assert True\n", parser.LangPython, "placeholder"},
		{"todo marker", good + "\n# TODO more\n", parser.LangPython, "placeholder"},
		{"pass bodies", "import calc\n\n\ndef test_add():\n    pass\n\n\ndef test_sub():\n    pass\n", parser.LangPython, "only pass"},
		{"no assertion", "import calc\n\n\ndef test_add():\n    calc.add(1, 2)\n    calc.add(3, 4)\n    calc.add(5, 6)\n", parser.LangPython, "no assertions"},
		{"jest trivial", "describe('x', () => {\n  test('a', () => {\n    expect(true).toBe(true);\n  });\n});\n", parser.LangJavaScript, "placeholder"},
		{
			"good jest",
			"const { add } = require('./calc');\n\ntest('adds', () => {\n  expect(add(1, 2)).toBe(3);\n});\n",
			parser.LangJavaScript, "",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ValidateTests(tc.code, tc.lang)
			if tc.reject == "" {
				assert.Empty(t, got)
				return
			}
			assert.Contains(t, got, tc.reject)
		})
	}
}

// --------------------------------------------------------------------------
// Template tester
// --------------------------------------------------------------------------

func TestTemplateTester(t *testing.T) {
	src := t.TempDir()
	out := t.TempDir()
	tester := NewTemplateTester(out)

	tests := []struct {
		name      string
		rec       parser.Record
		wantFile  string
		wantCount int
		contains  []string
	}{
		{
			name: "python",
			rec: record(filepath.Join(src, "calc.py"), parser.LangPython, "class Calculator: ...\n", parser.Structure{
				Classes: []parser.Fact{{Name: "Calculator", Kind: parser.FactClass}},
				Functions: []parser.Fact{
					{Name: "add", Kind: parser.FactMethod},
					{Name: "mean", Kind: parser.FactFunction},
				},
			}),
			wantFile:  filepath.Join(out, "python", "test_calc.py"),
			wantCount: 2,
			contains:  []string{"def test_Calculator_is_defined():", "def test_mean_is_defined():", `hasattr(_load(), "mean")`},
		},
		{
			name: "javascript",
			rec: record(filepath.Join(src, "util.js"), parser.LangJavaScript, "function slugify() {}\n", parser.Structure{
				Functions: []parser.Fact{{Name: "slugify", Kind: parser.FactFunction}},
			}),
			wantFile:  filepath.Join(out, "javascript", "util.test.js"),
			wantCount: 1,
			contains:  []string{`expect(subject).toHaveProperty("slugify");`},
		},
		{
			name: "java",
			rec: record(filepath.Join(src, "Greeter.java"), parser.LangJava, "public class Greeter {}\n", parser.Structure{
				Classes:   []parser.Fact{{Name: "Greeter", Kind: parser.FactClass}},
				Functions: []parser.Fact{{Name: "greet", Kind: parser.FactMethod}},
			}),
			wantFile:  filepath.Join(out, "java", "GreeterTest.java"),
			wantCount: 1,
			contains:  []string{"public class GreeterTest {", "void greeterIsDeclared()", "assertNotNull(Greeter.class);"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			outcome, err := tester.GenerateTests(context.Background(), tc.rec)
			require.NoError(t, err)

			assert.Equal(t, tc.wantFile, outcome.TestFile)
			assert.Equal(t, tc.wantCount, outcome.TestsGenerated)
			assert.Equal(t, LLMUnavailable, outcome.LLMStatus)
			assert.Nil(t, outcome.Execution, "templates are not executed")

			data, err := os.ReadFile(tc.wantFile)
			require.NoError(t, err)
			for _, s := range tc.contains {
				assert.Contains(t, string(data), s)
			}
		})
	}
}

func TestTemplateTester_OnlyMethodsHasNoTargets(t *testing.T) {
	src := t.TempDir()
	out := t.TempDir()
	rec := record(filepath.Join(src, "api.js"), parser.LangJavaScript, "module.exports = { get() {} };\n", parser.Structure{
		Functions: []parser.Fact{{Name: "get", Kind: parser.FactMethod}},
	})

	_, err := NewTemplateTester(out).GenerateTests(context.Background(), rec)
	assert.ErrorIs(t, err, ErrNoTestTargets)
	assert.NoFileExists(t, filepath.Join(out, "javascript", "api.test.js"))
}

func TestTestFileName(t *testing.T) {
	assert.Equal(t, "test_calc.py", TestFileName("calc", parser.LangPython))
	assert.Equal(t, "util.test.js", TestFileName("util", parser.LangJavaScript))
	assert.Equal(t, "GreeterTest.java", TestFileName("Greeter", parser.LangJava))
}
