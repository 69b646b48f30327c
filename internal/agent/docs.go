package agent

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dusk-indust/codeassist/internal/llm"
	"github.com/dusk-indust/codeassist/internal/parser"
)

// Compile-time checks.
var (
	_ DocumentationAgent = (*LLMDocumenter)(nil)
	_ DocumentationAgent = UnavailableDocumenter{}
)

// DocSections are the second-level headings requested from the model.
var DocSections = []string{
	"File Overview",
	"Key Components",
	"Execution Flow",
	"Dependencies",
	"Important Notes",
	"Usage Example",
}

// LLMDocumenter explains a source file as markdown using a Generator.
type LLMDocumenter struct {
	gen llm.Generator
}

// NewLLMDocumenter creates an LLMDocumenter.
func NewLLMDocumenter(gen llm.Generator) *LLMDocumenter {
	return &LLMDocumenter{gen: gen}
}

func (d *LLMDocumenter) Name() string    { return "llm-docs(" + d.gen.Name() + ")" }
func (d *LLMDocumenter) Available() bool { return true }

// Document returns the markdown body for rec. An empty answer is an error.
func (d *LLMDocumenter) Document(ctx context.Context, rec parser.Record) (string, error) {
	reply, err := d.gen.Generate(ctx, docPrompt(rec))
	if err != nil {
		return "", fmt.Errorf("llm: %w", err)
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", llm.ErrEmptyResponse
	}
	return reply, nil
}

func docPrompt(rec parser.Record) string {
	name := filepath.Base(rec.Path)
	lang := string(rec.Language)

	var sb strings.Builder
	sb.WriteString("You are a senior software engineer writing clear developer documentation.\n\n")
	fmt.Fprintf(&sb, "Explain the following %s file in a clear and structured way.\n\n", lang)
	fmt.Fprintf(&sb, "File: %s\nLanguage: %s\nFunctions: %d\nClasses: %d\nImports: %d\n\n",
		name, lang, len(rec.Functions), len(rec.Classes), len(rec.Imports))
	fmt.Fprintf(&sb, "```%s\n%s\n```\n\n", lang, rec.Content)
	sb.WriteString("Rules: do not refactor or change the code, do not add new code, keep it concise but complete.\n\n")
	fmt.Fprintf(&sb, "Answer in markdown starting with \"# %s - Documentation\" and these sections:\n", name)
	for _, s := range DocSections {
		fmt.Fprintf(&sb, "## %s\n", s)
	}
	return sb.String()
}

// UnavailableDocumenter stands in when no documentation backend exists.
type UnavailableDocumenter struct{}

func (UnavailableDocumenter) Name() string    { return "unavailable-docs" }
func (UnavailableDocumenter) Available() bool { return false }

func (UnavailableDocumenter) Document(context.Context, parser.Record) (string, error) {
	return "", fmt.Errorf("documentation: %w", errors.Join(ErrAgentUnavailable, llm.ErrNoAPIKey))
}
