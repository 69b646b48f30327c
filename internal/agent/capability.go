// Package agent binds each workflow capability to a concrete implementation.
//
// Every capability has exactly one Go interface and one fallback
// implementation that is always available. Real implementations are tried
// through an explicit list of Bindings; when a binding cannot be probed,
// built or type-checked the fallback stays in place.
package agent

import (
	"context"
	"errors"

	"github.com/dusk-indust/codeassist/internal/parser"
	"github.com/dusk-indust/codeassist/internal/presenter"
	"github.com/dusk-indust/codeassist/internal/runner"
)

// ErrAgentUnavailable marks an agent that cannot do any work in this
// environment, as opposed to failing on one input.
var ErrAgentUnavailable = errors.New("agent unavailable")

// Capability identifies a role in the workflows.
type Capability string

const (
	CapParser        Capability = "parser"
	CapOutput        Capability = "output"
	CapTest          Capability = "test"
	CapRefactor      Capability = "refactor"
	CapDebug         Capability = "debug"
	CapPlanner       Capability = "planner"
	CapDocumentation Capability = "documentation"
)

// AllCapabilities lists every capability in resolution order.
var AllCapabilities = []Capability{
	CapParser,
	CapOutput,
	CapTest,
	CapRefactor,
	CapDebug,
	CapPlanner,
	CapDocumentation,
}

// ParserAgent supplies the structural extractor used by the normalizer.
type ParserAgent interface {
	Extractor() parser.Extractor
	Name() string
}

// OutputAgent supplies the presenter that renders envelopes.
type OutputAgent interface {
	Presenter() presenter.Presenter
	Name() string
}

// TestOutcome is the result of generating tests for one source file.
type TestOutcome struct {
	TestFile       string         `json:"test_file"`
	TestsGenerated int            `json:"tests_generated"`
	Passed         int            `json:"passed"`
	Failed         int            `json:"failed"`
	Skipped        int            `json:"skipped"`
	Execution      *runner.Result `json:"execution,omitempty"`
	LLMStatus      string         `json:"llm_status"`
}

// LLM status values reported by test agents.
const (
	LLMAvailable   = "available"
	LLMUnavailable = "unavailable (template fallback)"
)

// TestAgent generates (and possibly runs) tests for a parsed file.
type TestAgent interface {
	GenerateTests(ctx context.Context, rec parser.Record) (TestOutcome, error)
	Name() string
}

// Smell is a structural problem found by a refactor review.
type Smell struct {
	Type        string `json:"type"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

// Suggestion is a proposed refactoring.
type Suggestion struct {
	Type       string `json:"type"`
	Target     string `json:"target"`
	Suggestion string `json:"suggestion"`
}

// RefactorReport is the outcome of reviewing a parsed set for refactorings.
type RefactorReport struct {
	Smells             []Smell      `json:"code_smells"`
	Suggestions        []Suggestion `json:"refactoring_suggestions"`
	RecommendedActions []string     `json:"recommended_actions"`
	Errors             []string     `json:"errors,omitempty"`
}

// RefactorAgent reviews a parsed set for refactoring opportunities. It never
// fails; problems are recorded in the report.
type RefactorAgent interface {
	Review(ctx context.Context, set parser.Set) RefactorReport
	Name() string
}

// Finding is a debugging observation at a location.
type Finding struct {
	Type     string `json:"type"`
	Location string `json:"location"`
	Message  string `json:"message"`
}

// DebugReport is the outcome of inspecting a parsed set for bugs.
type DebugReport struct {
	PotentialBugs      []Finding `json:"potential_bugs"`
	Warnings           []Finding `json:"warnings"`
	RecommendedActions []string  `json:"recommended_actions"`
	Errors             []string  `json:"errors,omitempty"`
}

// DebugAgent inspects a parsed set for likely bugs. It never fails.
type DebugAgent interface {
	Inspect(ctx context.Context, set parser.Set) DebugReport
	Name() string
}

// Task is one planned unit of work.
type Task struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	File     string `json:"file"`
	Kind     string `json:"kind"`
	Priority string `json:"priority"`
}

// PlanReport is the outcome of planning over a parsed set.
type PlanReport struct {
	Tasks   []Task   `json:"tasks"`
	Summary string   `json:"summary"`
	Errors  []string `json:"errors,omitempty"`
}

// PlannerAgent derives a task list from a parsed set. It never fails.
type PlannerAgent interface {
	Plan(ctx context.Context, set parser.Set) PlanReport
	Name() string
}

// DocumentationAgent writes markdown documentation for a parsed file.
// Callers must check Available before calling Document.
type DocumentationAgent interface {
	Available() bool
	Document(ctx context.Context, rec parser.Record) (string, error)
	Name() string
}

// Thresholds tune the heuristics shared by the reviewers and handlers.
type Thresholds struct {
	LongFunctionLines int
	LargeFileLines    int
	MinDocLines       int
	MaxImports        int
}

// DefaultThresholds returns the stock heuristic limits.
func DefaultThresholds() Thresholds {
	return Thresholds{
		LongFunctionLines: 50,
		LargeFileLines:    500,
		MinDocLines:       5,
		MaxImports:        20,
	}
}

// WithDefaults fills zero fields from DefaultThresholds.
func (t Thresholds) WithDefaults() Thresholds {
	d := DefaultThresholds()
	if t.LongFunctionLines <= 0 {
		t.LongFunctionLines = d.LongFunctionLines
	}
	if t.LargeFileLines <= 0 {
		t.LargeFileLines = d.LargeFileLines
	}
	if t.MinDocLines <= 0 {
		t.MinDocLines = d.MinDocLines
	}
	if t.MaxImports <= 0 {
		t.MaxImports = d.MaxImports
	}
	return t
}
