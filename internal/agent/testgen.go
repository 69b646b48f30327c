package agent

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/dusk-indust/codeassist/internal/llm"
	"github.com/dusk-indust/codeassist/internal/parser"
	"github.com/dusk-indust/codeassist/internal/runner"
)

// Compile-time checks.
var (
	_ TestAgent = (*LLMTester)(nil)
	_ TestAgent = (*TemplateTester)(nil)
)

// ErrNoTestTargets is returned for records without functions or classes.
var ErrNoTestTargets = errors.New("no testable components found")

// TestFileName returns the conventional test file name for a source stem.
func TestFileName(stem string, lang parser.Language) string {
	switch lang {
	case parser.LangPython:
		return "test_" + stem + ".py"
	case parser.LangJavaScript:
		return stem + ".test.js"
	case parser.LangJava:
		return stem + "Test.java"
	default:
		return "test_" + stem + ".txt"
	}
}

// saveTest writes code to <dir>/<language>/<test file name>.
func saveTest(dir string, rec parser.Record, code string) (string, error) {
	path := filepath.Join(dir, string(rec.Language), TestFileName(rec.Stem(), rec.Language))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create test dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(code), 0o644); err != nil {
		return "", fmt.Errorf("write test file: %w", err)
	}
	return path, nil
}

// ---------------------------------------------------------------------------
// LLM backed generator
// ---------------------------------------------------------------------------

// LLMTester asks a Generator for tests, validates them, saves them and runs
// them with the runner for the record's language.
type LLMTester struct {
	gen     llm.Generator
	runners map[parser.Language]runner.Runner
	dir     string
	logger  *zap.Logger
}

// NewLLMTester creates an LLMTester writing under dir.
func NewLLMTester(gen llm.Generator, runners map[parser.Language]runner.Runner, dir string, logger *zap.Logger) *LLMTester {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMTester{gen: gen, runners: runners, dir: dir, logger: logger}
}

func (t *LLMTester) Name() string      { return "llm-tests(" + t.gen.Name() + ")" }
func (t *LLMTester) LLMStatus() string { return LLMAvailable }

// GenerateTests produces a validated test file for rec. One stricter retry
// is made when the first answer is rejected.
func (t *LLMTester) GenerateTests(ctx context.Context, rec parser.Record) (TestOutcome, error) {
	if !rec.HasStructure() {
		return TestOutcome{}, ErrNoTestTargets
	}

	code, err := t.ask(ctx, testPrompt(rec, false), rec.Language)
	if err != nil && !errors.Is(err, errRejected) {
		return TestOutcome{}, err
	}
	if err != nil {
		t.logger.Debug("testgen: retry with stricter prompt", zap.String("file", rec.Path), zap.Error(err))
		code, err = t.ask(ctx, testPrompt(rec, true), rec.Language)
		if err != nil {
			return TestOutcome{}, fmt.Errorf("llm failed to generate meaningful tests: %w", err)
		}
	}

	path, err := saveTest(t.dir, rec, code)
	if err != nil {
		return TestOutcome{}, err
	}

	out := TestOutcome{
		TestFile:       path,
		TestsGenerated: max(runner.CountTests(code, rec.Language), 1),
		LLMStatus:      LLMAvailable,
	}
	if r, ok := t.runners[rec.Language]; ok {
		res := r.Run(ctx, runner.Request{TestFile: path})
		out.Execution = &res
		out.Passed, out.Failed, out.Skipped = res.Passed, res.Failed, res.Skipped
	}
	return out, nil
}

var errRejected = errors.New("generated tests rejected")

func (t *LLMTester) ask(ctx context.Context, prompt string, lang parser.Language) (string, error) {
	reply, err := t.gen.Generate(ctx, prompt)
	if err != nil {
		if errors.Is(err, llm.ErrNoAPIKey) {
			return "", fmt.Errorf("%w: %v", ErrAgentUnavailable, err)
		}
		return "", fmt.Errorf("llm: %w", err)
	}
	code := CleanCode(reply, lang)
	if reason := ValidateTests(code, lang); reason != "" {
		return "", fmt.Errorf("%w: %s", errRejected, reason)
	}
	return code, nil
}

var fencePattern = regexp.MustCompile("(?s)```[A-Za-z0-9_+-]*[ \t]*\n?(.*?)```")

// CleanCode strips markdown fences, keeping the longest fenced block. Text
// without fences is returned trimmed.
func CleanCode(reply string, _ parser.Language) string {
	matches := fencePattern.FindAllStringSubmatch(reply, -1)
	if len(matches) == 0 {
		return strings.TrimSpace(reply)
	}
	best := ""
	for _, m := range matches {
		if len(m[1]) > len(best) {
			best = m[1]
		}
	}
	return strings.TrimSpace(best)
}

var placeholderPatterns = map[parser.Language][]string{
	parser.LangPython:     {"assert True", "pass  # placeholder", "raise NotImplementedError", `assert False, "Not implemented"`},
	parser.LangJavaScript: {"expect(true).toBe(true)", "expect(true).toEqual(true)", "it.todo(", "test.todo(", "pending("},
	parser.LangJava:       {"assertTrue(true)", "assertFalse(false)", `fail("Not implemented")`, "@Disabled"},
}

var commonPlaceholders = []string{"TODO", "NotImplemented", "Not implemented", "Add your test here"}

var assertionPatterns = map[parser.Language][]string{
	parser.LangPython:     {"assert ", "assertEqual", "assertRaises", "pytest.raises"},
	parser.LangJavaScript: {"expect(", ".toBe(", ".toEqual(", ".toThrow("},
	parser.LangJava:       {"assertEquals(", "assertNotEquals(", "assertThrows(", "assertTrue(", "assertFalse("},
}

// minLogicLines is the least number of statement-looking lines a generated
// test file must contain.
const minLogicLines = 3

// ValidateTests returns why code is not an acceptable test file, or "" when
// it is.
func ValidateTests(code string, lang parser.Language) string {
	if len(strings.TrimSpace(code)) < 50 {
		return "too short"
	}
	for _, p := range append(append([]string{}, commonPlaceholders...), placeholderPatterns[lang]...) {
		if strings.Contains(code, p) {
			return fmt.Sprintf("placeholder pattern %q", p)
		}
	}
	if lang == parser.LangPython && onlyPassBodies(code) {
		return "test bodies are only pass"
	}

	hasAssert := false
	for _, p := range assertionPatterns[lang] {
		if strings.Contains(code, p) {
			hasAssert = true
			break
		}
	}
	if !hasAssert {
		return "no assertions"
	}

	logic := 0
	for _, line := range strings.Split(code, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") || strings.HasPrefix(line, "/*") {
			continue
		}
		if strings.ContainsAny(line, "(=") || strings.Contains(line, "assert") || strings.Contains(line, "expect") {
			logic++
		}
	}
	if logic < minLogicLines {
		return fmt.Sprintf("only %d lines of test logic", logic)
	}
	return ""
}

var pyTestDef = regexp.MustCompile(`^\s*def\s+test_\w*\s*\(`)

// onlyPassBodies reports whether every python test function body is `pass`.
func onlyPassBodies(code string) bool {
	lines := strings.Split(code, "\n")
	tests := 0
	for i, line := range lines {
		if !pyTestDef.MatchString(line) {
			continue
		}
		tests++
		for _, next := range lines[i+1:] {
			if strings.TrimSpace(next) == "" {
				continue
			}
			if strings.TrimSpace(next) != "pass" {
				return false
			}
			break
		}
	}
	return tests > 0
}

var frameworks = map[parser.Language]string{
	parser.LangPython:     "pytest",
	parser.LangJavaScript: "Jest",
	parser.LangJava:       "JUnit 5",
}

func testPrompt(rec parser.Record, strict bool) string {
	var sb strings.Builder
	lang := string(rec.Language)
	framework := frameworks[rec.Language]

	if strict {
		fmt.Fprintf(&sb, "CRITICAL: generate REAL, WORKING %s test cases using %s. No placeholders allowed.\n\n", lang, framework)
		sb.WriteString("Every test must call the code under test and assert on a concrete expected value.\n")
		sb.WriteString("Do not write TODO markers, trivially true assertions, or empty test bodies.\n\n")
	} else {
		fmt.Fprintf(&sb, "You are an expert %s test engineer. Generate comprehensive %s test cases.\n\n", lang, framework)
		sb.WriteString("Rules:\n")
		sb.WriteString("1. Never write placeholder tests.\n")
		sb.WriteString("2. Read the code to learn what each function expects and returns.\n")
		sb.WriteString("3. Give each function 3-5 tests: normal input, edge cases and error conditions.\n\n")
	}

	fmt.Fprintf(&sb, "Source file: %s\n```%s\n%s\n```\n\n", filepath.Base(rec.Path), lang, rec.Content)

	sb.WriteString("Targets:\n")
	for _, c := range rec.Classes {
		fmt.Fprintf(&sb, "- class %s%s\n", c.Name, purpose(c))
	}
	for _, f := range rec.Functions {
		sig := f.Signature
		if sig == "" {
			sig = f.Name
		}
		fmt.Fprintf(&sb, "- %s%s\n", sig, purpose(f))
	}
	sb.WriteString("\nReturn only the test code, no explanations.\n")
	return sb.String()
}

func purpose(f parser.Fact) string {
	if f.Docstring == "" {
		return ""
	}
	doc := f.Docstring
	if r := []rune(doc); len(r) > 100 {
		doc = string(r[:100]) + "..."
	}
	return " (" + doc + ")"
}

// ---------------------------------------------------------------------------
// Template fallback
// ---------------------------------------------------------------------------

// TemplateTester writes deterministic smoke tests that only check the
// declarations exist. The tests are written but not executed.
type TemplateTester struct {
	dir string
}

// NewTemplateTester creates a TemplateTester writing under dir.
func NewTemplateTester(dir string) *TemplateTester {
	return &TemplateTester{dir: dir}
}

func (t *TemplateTester) Name() string      { return "template-tests" }
func (t *TemplateTester) LLMStatus() string { return LLMUnavailable }

// GenerateTests writes the template test file for rec.
func (t *TemplateTester) GenerateTests(_ context.Context, rec parser.Record) (TestOutcome, error) {
	if !rec.HasStructure() {
		return TestOutcome{}, ErrNoTestTargets
	}

	code, err := templateTests(rec)
	if err != nil {
		return TestOutcome{}, err
	}
	// Only methods: the template has nothing top level to reference.
	count := runner.CountTests(code, rec.Language)
	if count == 0 {
		return TestOutcome{}, ErrNoTestTargets
	}
	path, err := saveTest(t.dir, rec, code)
	if err != nil {
		return TestOutcome{}, err
	}
	return TestOutcome{
		TestFile:       path,
		TestsGenerated: count,
		LLMStatus:      LLMUnavailable,
	}, nil
}

var identifier = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// topLevel returns the class and function names a template can reference.
func topLevel(rec parser.Record) []string {
	var names []string
	seen := map[string]bool{}
	add := func(n string) {
		if identifier.MatchString(n) && !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	for _, c := range rec.Classes {
		add(c.Name)
	}
	for _, f := range rec.Functions {
		if f.Kind != parser.FactMethod {
			add(f.Name)
		}
	}
	return names
}

func templateTests(rec parser.Record) (string, error) {
	abs, err := filepath.Abs(rec.Path)
	if err != nil {
		return "", fmt.Errorf("resolve source path: %w", err)
	}
	stem := rec.Stem()
	var sb strings.Builder

	switch rec.Language {
	case parser.LangPython:
		fmt.Fprintf(&sb, "# Smoke tests for %s. Extend them with real expectations.\n", filepath.Base(rec.Path))
		sb.WriteString("import importlib.util\n\n")
		fmt.Fprintf(&sb, "SOURCE = %q\n\n\n", filepath.ToSlash(abs))
		sb.WriteString("def _load():\n")
		fmt.Fprintf(&sb, "    spec = importlib.util.spec_from_file_location(%q, SOURCE)\n", stem)
		sb.WriteString("    module = importlib.util.module_from_spec(spec)\n")
		sb.WriteString("    spec.loader.exec_module(module)\n")
		sb.WriteString("    return module\n")
		for _, n := range topLevel(rec) {
			fmt.Fprintf(&sb, "\n\ndef test_%s_is_defined():\n", n)
			fmt.Fprintf(&sb, "    assert hasattr(_load(), %q)\n", n)
		}

	case parser.LangJavaScript:
		fmt.Fprintf(&sb, "// Smoke tests for %s. Extend them with real expectations.\n", filepath.Base(rec.Path))
		fmt.Fprintf(&sb, "const subject = require(%q);\n\n", filepath.ToSlash(abs))
		fmt.Fprintf(&sb, "describe(%q, () => {\n", stem)
		for i, n := range topLevel(rec) {
			if i > 0 {
				sb.WriteString("\n")
			}
			fmt.Fprintf(&sb, "  test(%q, () => {\n", n+" is exported")
			fmt.Fprintf(&sb, "    expect(subject).toHaveProperty(%q);\n", n)
			sb.WriteString("  });\n")
		}
		sb.WriteString("});\n")

	case parser.LangJava:
		fmt.Fprintf(&sb, "// Smoke tests for %s. Extend them with real expectations.\n", filepath.Base(rec.Path))
		sb.WriteString("import static org.junit.jupiter.api.Assertions.assertNotNull;\n\n")
		sb.WriteString("import org.junit.jupiter.api.Test;\n\n")
		fmt.Fprintf(&sb, "public class %sTest {\n", stem)
		first := true
		for _, c := range rec.Classes {
			if !identifier.MatchString(c.Name) {
				continue
			}
			if !first {
				sb.WriteString("\n")
			}
			first = false
			sb.WriteString("    @Test\n")
			fmt.Fprintf(&sb, "    void %sIsDeclared() {\n", lowerFirst(c.Name))
			fmt.Fprintf(&sb, "        assertNotNull(%s.class);\n", c.Name)
			sb.WriteString("    }\n")
		}
		sb.WriteString("}\n")

	default:
		return "", parser.ErrUnsupported
	}
	return sb.String(), nil
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
