package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dusk-indust/codeassist/internal/agent"
	"github.com/dusk-indust/codeassist/internal/envelope"
	"github.com/dusk-indust/codeassist/internal/parser"
)

var _ Handler = (*DocumentationHandler)(nil)

// UnavailableDocsMessage is shown when no documentation backend is bound.
const UnavailableDocsMessage = "Documentation requires the LLM capability. Set GEMINI_API_KEY (or add it to .env) and retry."

// DocDetail describes one generated documentation file.
type DocDetail struct {
	File     string   `json:"file"`
	DocFile  string   `json:"doc_file"`
	Sections []string `json:"sections"`
	Lines    int      `json:"lines"`
}

// DocumentationHandler writes one markdown file per documented source file.
type DocumentationHandler struct {
	docs     agent.DocumentationAgent
	dir      string
	minLines int
	logger   *zap.Logger
	now      func() time.Time
}

// NewDocumentationHandler creates a DocumentationHandler writing under dir.
// Files shorter than minLines are skipped.
func NewDocumentationHandler(docs agent.DocumentationAgent, dir string, minLines int, logger *zap.Logger) *DocumentationHandler {
	if minLines <= 0 {
		minLines = agent.DefaultThresholds().MinDocLines
	}
	return &DocumentationHandler{docs: docs, dir: dir, minLines: minLines, logger: nopIfNil(logger), now: time.Now}
}

func (h *DocumentationHandler) Name() string { return Documentation }

func (h *DocumentationHandler) Handle(ctx context.Context, set parser.Set, projectPath string) envelope.Envelope {
	if !h.docs.Available() {
		return envelope.Failed(Documentation, projectPath, UnavailableDocsMessage,
			fmt.Errorf("documentation: %w", agent.ErrAgentUnavailable)).
			WithFields(map[string]any{
				"files_analyzed":      0,
				"files_documented":    0,
				"documentation_files": []string{},
			})
	}

	var (
		analyzed, documented, sections int
		files                          = []string{}
		details                        = []DocDetail{}
		errs                           = []string{}
	)

	for _, rec := range set.Parsed() {
		if rec.Lines < h.minLines {
			continue
		}
		if msg, stop := interrupted(ctx); stop {
			errs = append(errs, msg)
			break
		}
		analyzed++

		body, err := h.docs.Document(ctx, rec)
		if err == nil && strings.TrimSpace(body) == "" {
			err = errors.New("empty documentation")
		}
		if err != nil {
			h.logger.Debug("documentation: file failed", zap.String("path", rec.Path), zap.Error(err))
			errs = append(errs, fmt.Sprintf("%s: %v", rec.Path, err))
			continue
		}

		docFile := filepath.Join(h.dir, rec.Stem()+"_README.md")
		if err := h.write(docFile, rec, body); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", rec.Path, err))
			continue
		}

		found := ExtractSections(body)
		documented++
		sections += len(found)
		files = append(files, docFile)
		details = append(details, DocDetail{File: rec.Path, DocFile: docFile, Sections: found, Lines: rec.Lines})
	}

	coverage := 0.0
	if analyzed > 0 {
		coverage = round1(float64(documented) / float64(analyzed) * 100)
	}

	return envelope.Completed(Documentation, projectPath,
		fmt.Sprintf("Generated documentation for %d out of %d files", documented, analyzed),
		map[string]any{
			"files_analyzed":        analyzed,
			"files_documented":      documented,
			"documentation_files":   files,
			"documentation_details": details,
			"total_sections":        sections,
			"coverage":              coverage,
			"errors":                errs,
		})
}

func (h *DocumentationHandler) write(path string, rec parser.Record, body string) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<!--\nSource: %s\nLanguage: %s\nGenerated by: %s\nGenerated at: %s\n-->\n\n",
		rec.Path, rec.Language, h.docs.Name(), h.now().UTC().Format(time.RFC3339))
	sb.WriteString(strings.TrimSpace(body))
	fmt.Fprintf(&sb, "\n\n---\n\n## Source File\n\n- **Path**: `%s`\n- **Language**: %s\n- **Lines**: %d\n\n",
		rec.Path, rec.Language, rec.Lines)
	sb.WriteString("Run `codeassist docs` again after the source changes to refresh this file.\n")

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create docs dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ExtractSections returns the level-two headings of a markdown body in order.
func ExtractSections(body string) []string {
	out := []string{}
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if title, ok := strings.CutPrefix(line, "## "); ok {
			if title = strings.TrimSpace(title); title != "" {
				out = append(out, title)
			}
		}
	}
	return out
}
