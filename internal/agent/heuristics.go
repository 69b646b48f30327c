package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/dusk-indust/codeassist/internal/parser"
)

// Compile-time checks.
var (
	_ RefactorAgent = (*HeuristicRefactor)(nil)
	_ DebugAgent    = (*HeuristicDebug)(nil)
)

// HeuristicRefactor flags long functions and crowded import lists.
type HeuristicRefactor struct {
	limits Thresholds
}

// NewHeuristicRefactor creates the built-in refactor reviewer.
func NewHeuristicRefactor(limits Thresholds) *HeuristicRefactor {
	return &HeuristicRefactor{limits: limits.WithDefaults()}
}

func (h *HeuristicRefactor) Name() string { return "heuristic-refactor" }

// maxSignatureChars is the fallback long-function rule when an extractor
// reports no end line.
const maxSignatureChars = 100

// Review walks parsed records in path order.
func (h *HeuristicRefactor) Review(_ context.Context, set parser.Set) RefactorReport {
	report := RefactorReport{
		Smells:             []Smell{},
		Suggestions:        []Suggestion{},
		RecommendedActions: []string{},
	}
	var longFuncs, crowded bool

	for _, rec := range set.Parsed() {
		for _, fn := range rec.Functions {
			span := fn.Span()
			var desc string
			switch {
			case span > h.limits.LongFunctionLines:
				desc = fmt.Sprintf("Function '%s' spans %d lines (limit %d)", fn.Name, span, h.limits.LongFunctionLines)
			case span == 0 && len(fn.Signature) > maxSignatureChars:
				desc = fmt.Sprintf("Function '%s' has a %d character definition and might be too long", fn.Name, len(fn.Signature))
			default:
				continue
			}
			longFuncs = true
			report.Smells = append(report.Smells, Smell{
				Type:        "long_function",
				Location:    fmt.Sprintf("%s:%d", rec.Path, fn.Line),
				Description: desc,
			})
			report.Suggestions = append(report.Suggestions, Suggestion{
				Type:       "extract_method",
				Target:     fn.Name,
				Suggestion: "Consider breaking this function into smaller functions",
			})
		}

		if n := len(rec.Imports); n > h.limits.MaxImports {
			crowded = true
			report.Smells = append(report.Smells, Smell{
				Type:        "too_many_imports",
				Location:    rec.Path,
				Description: fmt.Sprintf("File has %d imports, consider organizing", n),
			})
			report.Suggestions = append(report.Suggestions, Suggestion{
				Type:       "organize_imports",
				Target:     rec.Path,
				Suggestion: "Group related imports or split the module",
			})
		}
	}

	if longFuncs {
		report.RecommendedActions = append(report.RecommendedActions, "Review and refactor long functions")
	}
	if crowded {
		report.RecommendedActions = append(report.RecommendedActions, "Organize imports and dependencies")
	}
	return report
}

// HeuristicDebug scans source lines for leftover debugging aids and markers.
type HeuristicDebug struct {
	limits Thresholds
}

// NewHeuristicDebug creates the built-in debug inspector.
func NewHeuristicDebug(limits Thresholds) *HeuristicDebug {
	return &HeuristicDebug{limits: limits.WithDefaults()}
}

func (h *HeuristicDebug) Name() string { return "heuristic-debug" }

// Inspect walks parsed records in path order, line by line.
func (h *HeuristicDebug) Inspect(_ context.Context, set parser.Set) DebugReport {
	report := DebugReport{
		PotentialBugs:      []Finding{},
		Warnings:           []Finding{},
		RecommendedActions: []string{},
	}
	seen := map[string]bool{}

	for _, rec := range set.Parsed() {
		for i, line := range strings.Split(rec.Content, "\n") {
			loc := fmt.Sprintf("%s:%d", rec.Path, i+1)
			trimmed := strings.TrimSpace(line)

			if rec.Language == parser.LangPython && strings.Contains(line, "print(") {
				report.Warnings = append(report.Warnings, Finding{Type: "debug_print", Location: loc, Message: "Debug print statement found"})
				seen["debug_print"] = true
			}
			if strings.Contains(line, "TODO") || strings.Contains(line, "FIXME") {
				report.Warnings = append(report.Warnings, Finding{Type: "todo_comment", Location: loc, Message: "TODO/FIXME comment found"})
				seen["todo_comment"] = true
			}

			switch {
			case rec.Language == parser.LangPython && (trimmed == "except:" || strings.HasPrefix(trimmed, "except:")):
				report.PotentialBugs = append(report.PotentialBugs, Finding{Type: "bare_except", Location: loc, Message: "Bare except swallows every exception"})
				seen["bare_except"] = true
			case rec.Language == parser.LangJavaScript && (trimmed == "debugger" || trimmed == "debugger;"):
				report.PotentialBugs = append(report.PotentialBugs, Finding{Type: "debugger_statement", Location: loc, Message: "debugger statement left in code"})
				seen["debugger_statement"] = true
			}
		}

		if rec.Lines > h.limits.LargeFileLines {
			report.Warnings = append(report.Warnings, Finding{
				Type:     "large_file",
				Location: rec.Path,
				Message:  fmt.Sprintf("File has %d lines (limit %d)", rec.Lines, h.limits.LargeFileLines),
			})
			seen["large_file"] = true
		}
	}

	for _, a := range []struct{ kind, action string }{
		{"bare_except", "Catch specific exceptions instead of using bare except"},
		{"debugger_statement", "Remove debugger statements"},
		{"todo_comment", "Review all TODO/FIXME comments"},
		{"debug_print", "Remove debug print statements"},
		{"large_file", "Split large files into focused modules"},
	} {
		if seen[a.kind] {
			report.RecommendedActions = append(report.RecommendedActions, a.action)
		}
	}
	return report
}
