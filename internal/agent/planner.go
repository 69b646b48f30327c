package agent

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dusk-indust/codeassist/internal/llm"
	"github.com/dusk-indust/codeassist/internal/parser"
)

// Compile-time checks.
var (
	_ PlannerAgent = (*HeuristicPlanner)(nil)
	_ PlannerAgent = (*LLMPlanner)(nil)
)

// Task kinds.
const (
	TaskTests   = "tests"
	TaskSplit   = "split"
	TaskImports = "imports"
	TaskDocs    = "docs"
)

// HeuristicPlanner derives tasks from file structure alone.
type HeuristicPlanner struct {
	limits   Thresholds
	testsDir string
	docsDir  string
}

// NewHeuristicPlanner creates a planner that also counts generated tests
// under testsDir and generated docs under docsDir. Either may be empty.
func NewHeuristicPlanner(limits Thresholds, testsDir, docsDir string) *HeuristicPlanner {
	return &HeuristicPlanner{limits: limits.WithDefaults(), testsDir: testsDir, docsDir: docsDir}
}

func (p *HeuristicPlanner) Name() string { return "heuristic-planner" }

// Plan emits tasks in path order. Test files themselves are not planned for.
func (p *HeuristicPlanner) Plan(_ context.Context, set parser.Set) PlanReport {
	tasks := []Task{}
	add := func(rec parser.Record, kind, priority, title string) {
		tasks = append(tasks, Task{
			ID:       fmt.Sprintf("T%d", len(tasks)+1),
			Title:    title,
			File:     rec.Path,
			Kind:     kind,
			Priority: priority,
		})
	}

	names := make(map[string]bool, len(set))
	for _, path := range set.Paths() {
		names[filepath.Base(path)] = true
	}

	files := 0
	for _, rec := range set.Parsed() {
		if IsTestFile(rec.Path) {
			continue
		}
		before := len(tasks)

		if rec.HasStructure() && !p.hasTests(rec, names) {
			add(rec, TaskTests, "high", "add tests for "+rec.Path)
		}
		if rec.Lines > p.limits.LargeFileLines {
			add(rec, TaskSplit, "medium", "split "+rec.Path)
		}
		if len(rec.Imports) > p.limits.MaxImports {
			add(rec, TaskImports, "low", "organize imports in "+rec.Path)
		}
		if len(rec.Classes) > 0 && !p.documented(rec) {
			add(rec, TaskDocs, "low", "document "+rec.Path)
		}

		if len(tasks) > before {
			files++
		}
	}

	return PlanReport{Tasks: tasks, Summary: summarize(tasks, files)}
}

func (p *HeuristicPlanner) documented(rec parser.Record) bool {
	if p.docsDir == "" {
		return false
	}
	_, err := os.Stat(filepath.Join(p.docsDir, rec.Stem()+"_README.md"))
	return err == nil
}

func summarize(tasks []Task, files int) string {
	if len(tasks) == 0 {
		return "Nothing to plan: every file has tests and stays within limits."
	}
	counts := map[string]int{}
	for _, t := range tasks {
		counts[t.Kind]++
	}
	var parts []string
	for _, k := range []struct{ kind, label string }{
		{TaskTests, "add tests"},
		{TaskSplit, "split"},
		{TaskImports, "organize imports"},
		{TaskDocs, "document"},
	} {
		if n := counts[k.kind]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s (%d)", k.label, n))
		}
	}
	return fmt.Sprintf("%d tasks across %d files: %s.", len(tasks), files, strings.Join(parts, ", "))
}

// testNameCandidates returns the file names a test for stem may have.
func testNameCandidates(stem, ext string) []string {
	c := []string{
		"test_" + stem + ext,
		stem + "_test" + ext,
		stem + ".test" + ext,
		stem + ".spec" + ext,
	}
	if ext == ".java" {
		c = append(c, stem+"Test.java")
	}
	return c
}

// IsTestFile reports whether path looks like a test file.
func IsTestFile(path string) bool {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return strings.HasPrefix(base, "test_") ||
		strings.HasSuffix(stem, "_test") ||
		strings.HasSuffix(stem, ".test") ||
		strings.HasSuffix(stem, ".spec") ||
		(filepath.Ext(base) == ".java" && strings.HasSuffix(stem, "Test"))
}

// hasTests looks for a matching test file in the set, next to the source or
// among the generated tests.
func (p *HeuristicPlanner) hasTests(rec parser.Record, inSet map[string]bool) bool {
	if p.testsDir != "" {
		generated := filepath.Join(p.testsDir, string(rec.Language), TestFileName(rec.Stem(), rec.Language))
		if _, err := os.Stat(generated); err == nil {
			return true
		}
	}
	dir := filepath.Dir(rec.Path)
	for _, name := range testNameCandidates(rec.Stem(), filepath.Ext(rec.Path)) {
		if inSet[name] {
			return true
		}
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// LLMPlanner keeps the heuristic tasks and asks a Generator for a
// prioritized summary. A generator failure keeps the heuristic summary.
type LLMPlanner struct {
	base *HeuristicPlanner
	gen  llm.Generator
}

// NewLLMPlanner wraps base with an LLM summary.
func NewLLMPlanner(base *HeuristicPlanner, gen llm.Generator) *LLMPlanner {
	return &LLMPlanner{base: base, gen: gen}
}

func (p *LLMPlanner) Name() string { return "llm-planner(" + p.gen.Name() + ")" }

// Plan runs the heuristic planner, then replaces the summary.
func (p *LLMPlanner) Plan(ctx context.Context, set parser.Set) PlanReport {
	report := p.base.Plan(ctx, set)
	if len(report.Tasks) == 0 {
		return report
	}

	var sb strings.Builder
	sb.WriteString("You are a tech lead prioritizing maintenance work for a codebase.\n")
	sb.WriteString("Given these tasks, write a short prioritized plan in at most five sentences of plain text.\n\n")
	for _, t := range report.Tasks {
		fmt.Fprintf(&sb, "- [%s] %s (%s priority)\n", t.ID, t.Title, t.Priority)
	}

	reply, err := p.gen.Generate(ctx, sb.String())
	if err != nil {
		report.Errors = append(report.Errors, "llm summary: "+err.Error())
		return report
	}
	if reply = strings.TrimSpace(reply); reply != "" {
		report.Summary = reply
	}
	return report
}
