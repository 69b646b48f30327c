package service

import (
	"context"
	"fmt"

	"github.com/dusk-indust/codeassist/internal/envelope"
	"github.com/dusk-indust/codeassist/internal/parser"
)

var (
	_ Handler = AnalysisHandler{}
	_ Handler = GenericHandler{}
)

// AnalysisHandler summarizes the parsed set. It needs no agent.
type AnalysisHandler struct{}

func (AnalysisHandler) Name() string { return Analysis }

func (AnalysisHandler) Handle(_ context.Context, set parser.Set, projectPath string) envelope.Envelope {
	fields := summarize(set)
	return envelope.Completed(Analysis, projectPath,
		fmt.Sprintf("Analyzed %d files (%d parsed)", fields["total_files"], fields["parsed_files"]),
		fields)
}

// GenericHandler serves service names that have no dedicated workflow.
type GenericHandler struct {
	Service string
}

func (g GenericHandler) Name() string { return g.Service }

func (g GenericHandler) Handle(_ context.Context, set parser.Set, projectPath string) envelope.Envelope {
	s := summarize(set)
	return envelope.Completed(g.Service, projectPath,
		fmt.Sprintf("No dedicated workflow for %q; showing a summary of the parsed files", g.Service),
		map[string]any{
			"total_files":  s["total_files"],
			"parsed_files": s["parsed_files"],
			"languages":    s["languages"],
		})
}

// summarize counts every record in total_files and only parsed records in
// the remaining totals.
func summarize(set parser.Set) map[string]any {
	var parsed, failed, lines, classes, functions, imports int
	languages := map[string]int{}

	for _, rec := range set.Records() {
		if !rec.Parsed {
			failed++
			continue
		}
		parsed++
		lines += rec.Lines
		classes += len(rec.Classes)
		functions += len(rec.Functions)
		imports += len(rec.Imports)
		languages[string(rec.Language)]++
	}

	return map[string]any{
		"total_files":     set.Len(),
		"parsed_files":    parsed,
		"failed_files":    failed,
		"total_lines":     lines,
		"total_classes":   classes,
		"total_functions": functions,
		"total_imports":   imports,
		"languages":       languages,
	}
}
