//go:build e2e

package e2e

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/codeassist/internal/agent"
	"github.com/dusk-indust/codeassist/internal/envelope"
	"github.com/dusk-indust/codeassist/internal/service"
	"github.com/dusk-indust/codeassist/internal/status"
)

// TestPipeline_E2E_AllServices runs every service over the sample project
// with the fallback agents and checks each envelope and its dump.
func TestPipeline_E2E_AllServices(t *testing.T) {
	h := newHarness(t)

	t.Run("testing", func(t *testing.T) {
		res := h.run(t, "1")
		env := res.Envelope
		assert.Equal(t, envelope.StatusCompleted, env.Status)
		assert.Equal(t, 3, env.Int("files_processed"))
		llmStatus, _ := env.Get("llm_status")
		assert.Equal(t, agent.LLMUnavailable, llmStatus)
		for _, f := range env.Strings("test_files") {
			assert.FileExists(t, f)
		}
	})

	t.Run("refactoring", func(t *testing.T) {
		env := h.run(t, "refactor").Envelope
		assert.Equal(t, envelope.StatusCompleted, env.Status)
		assert.Contains(t, env.Keys(), "code_smells")
	})

	t.Run("debugging", func(t *testing.T) {
		env := h.run(t, "debug").Envelope
		assert.Equal(t, envelope.StatusCompleted, env.Status)
		assert.GreaterOrEqual(t, env.Int("total_issues"), 3, "the print and the TODO/FIXME comments are flagged")
	})

	t.Run("documentation", func(t *testing.T) {
		env := h.run(t, "docs").Envelope
		assert.Equal(t, envelope.StatusFailed, env.Status)
		assert.Equal(t, service.UnavailableDocsMessage, env.Message)
		_, err := os.Stat(h.cfg.Path(h.cfg.DocsDir))
		assert.True(t, os.IsNotExist(err), "nothing is written without an LLM")
	})

	t.Run("analysis", func(t *testing.T) {
		res := h.run(t, "analyze")
		env := res.Envelope
		assert.Len(t, res.Files, 3, "generated tests are not rediscovered")
		assert.Equal(t, 3, env.Int("total_files"))
		assert.Equal(t, 3, env.Int("parsed_files"))
		langs, ok := env.Get("languages")
		require.True(t, ok)
		assert.Len(t, langs, 3)
	})

	t.Run("planning", func(t *testing.T) {
		env := h.run(t, "plan").Envelope
		assert.Equal(t, envelope.StatusCompleted, env.Status)
		assert.Greater(t, env.Int("total_tasks"), 0)
	})

	t.Run("status", func(t *testing.T) {
		report, err := status.ScanResults(h.cfg.Path(h.cfg.ResultsDir))
		require.NoError(t, err)
		assert.Len(t, report.Runs, 6)
		assert.Empty(t, report.Missing)
		assert.Empty(t, report.Unreadable)
	})
}

// TestPipeline_E2E_SingleFile runs a service over one file instead of a tree.
func TestPipeline_E2E_SingleFile(t *testing.T) {
	h := newHarness(t)
	h.root = filepath.Join(h.root, "src", "calc.py")

	res := h.run(t, "analysis")
	assert.Equal(t, []string{h.root}, res.Files)
	assert.Equal(t, 1, res.Envelope.Int("total_files"))
	assert.Contains(t, h.out.String(), "Code Analysis Results")
}
