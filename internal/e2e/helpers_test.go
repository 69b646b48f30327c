//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/codeassist/internal/agent"
	"github.com/dusk-indust/codeassist/internal/config"
	"github.com/dusk-indust/codeassist/internal/export"
	"github.com/dusk-indust/codeassist/internal/orchestrator"
	"github.com/dusk-indust/codeassist/internal/parser"
)

// fixtureDir returns the path to the sample project fixture.
func fixtureDir() string {
	return filepath.Join("..", "..", "testdata", "fixtures", "sample_project")
}

// copyFixture copies the sample project into a temp dir, since services
// write generated artifacts next to the sources.
func copyFixture(t *testing.T) string {
	t.Helper()
	dst := t.TempDir()
	src := fixtureDir()
	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0o644)
	})
	require.NoError(t, err)
	return dst
}

type harness struct {
	root     string
	cfg      *config.ProjectConfig
	pipeline *orchestrator.Pipeline
	out      *bytes.Buffer
}

// newHarness wires the fallback agents (no LLM, no plugins) into a pipeline
// over a fresh copy of the fixture, laid out the way the CLI does it.
func newHarness(t *testing.T) *harness {
	t.Helper()
	root := copyFixture(t)
	cfg, err := config.Load(root)
	require.NoError(t, err)

	out := &bytes.Buffer{}
	reg, err := agent.NewRegistry(nil, agent.DefaultFallbacks(agent.Deps{
		Out:       out,
		TestsDir:  cfg.Path(cfg.TestsDir),
		DocsDir:   cfg.Path(cfg.DocsDir),
		PluginDir: t.TempDir(),
		Canonical: orchestrator.Normalize,
	}))
	require.NoError(t, err)

	pipeline := orchestrator.NewPipeline(
		orchestrator.Config{ArtifactDirs: cfg.ArtifactDirs(root)},
		parser.NewNormalizer(reg.Parser().Extractor(), nil),
		orchestrator.NewServiceRouter(reg, orchestrator.HandlerConfig{DocsDir: cfg.Path(cfg.DocsDir)}),
		reg.Output().Presenter(),
		export.NewSaver(cfg.Path(cfg.ResultsDir)),
		nil,
	)

	// Drain progress events in the background so the reporter never fills up.
	progressCh := pipeline.Progress()
	drainDone := make(chan struct{})
	go func() {
		defer close(drainDone)
		for range progressCh {
		}
	}()
	t.Cleanup(func() {
		pipeline.Close()
		<-drainDone
	})

	return &harness{root: root, cfg: cfg, pipeline: pipeline, out: out}
}

func (h *harness) run(t *testing.T, svc string) orchestrator.RunResult {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	res, err := h.pipeline.Run(ctx, svc, h.root)
	require.NoError(t, err)
	require.NoError(t, res.Envelope.Validate())
	return res
}
