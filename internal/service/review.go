package service

import (
	"context"
	"fmt"

	"github.com/dusk-indust/codeassist/internal/agent"
	"github.com/dusk-indust/codeassist/internal/envelope"
	"github.com/dusk-indust/codeassist/internal/parser"
)

var (
	_ Handler = (*RefactoringHandler)(nil)
	_ Handler = (*DebuggingHandler)(nil)
	_ Handler = (*PlanningHandler)(nil)
)

// RefactoringHandler reports code smells and refactoring suggestions.
type RefactoringHandler struct {
	reviewer agent.RefactorAgent
}

func NewRefactoringHandler(reviewer agent.RefactorAgent) *RefactoringHandler {
	return &RefactoringHandler{reviewer: reviewer}
}

func (h *RefactoringHandler) Name() string { return Refactoring }

func (h *RefactoringHandler) Handle(ctx context.Context, set parser.Set, projectPath string) envelope.Envelope {
	report := h.reviewer.Review(ctx, set)
	smells := orEmpty(report.Smells)
	suggestions := orEmpty(report.Suggestions)

	return envelope.Completed(Refactoring, projectPath,
		fmt.Sprintf("Found %d refactoring opportunities", len(smells)),
		map[string]any{
			"code_smells":             smells,
			"refactoring_suggestions": suggestions,
			"total_issues_found":      len(smells),
			"recommended_actions":     orEmpty(report.RecommendedActions),
			"improvements":            len(suggestions),
			"errors":                  orEmpty(report.Errors),
		})
}

// DebuggingHandler reports likely bugs and warnings.
type DebuggingHandler struct {
	inspector agent.DebugAgent
}

func NewDebuggingHandler(inspector agent.DebugAgent) *DebuggingHandler {
	return &DebuggingHandler{inspector: inspector}
}

func (h *DebuggingHandler) Name() string { return Debugging }

func (h *DebuggingHandler) Handle(ctx context.Context, set parser.Set, projectPath string) envelope.Envelope {
	report := h.inspector.Inspect(ctx, set)
	bugs := orEmpty(report.PotentialBugs)
	warnings := orEmpty(report.Warnings)
	total := len(bugs) + len(warnings)

	return envelope.Completed(Debugging, projectPath,
		fmt.Sprintf("Found %d potential issues", total),
		map[string]any{
			"potential_bugs":      bugs,
			"warnings":            warnings,
			"total_issues":        total,
			"recommended_actions": orEmpty(report.RecommendedActions),
			"errors":              orEmpty(report.Errors),
		})
}

// PlanningHandler turns the planner's report into an envelope.
type PlanningHandler struct {
	planner agent.PlannerAgent
}

func NewPlanningHandler(planner agent.PlannerAgent) *PlanningHandler {
	return &PlanningHandler{planner: planner}
}

func (h *PlanningHandler) Name() string { return Planning }

func (h *PlanningHandler) Handle(ctx context.Context, set parser.Set, projectPath string) envelope.Envelope {
	report := h.planner.Plan(ctx, set)
	tasks := orEmpty(report.Tasks)

	fields := map[string]any{
		"tasks":       tasks,
		"total_tasks": len(tasks),
		"summary":     report.Summary,
	}
	if len(report.Errors) > 0 {
		fields["errors"] = report.Errors
	}
	return envelope.Completed(Planning, projectPath, fmt.Sprintf("Planned %d tasks", len(tasks)), fields)
}

// orEmpty keeps JSON output as [] rather than null.
func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
