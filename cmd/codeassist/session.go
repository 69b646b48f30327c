package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/dusk-indust/codeassist/internal/agent"
	"github.com/dusk-indust/codeassist/internal/config"
	"github.com/dusk-indust/codeassist/internal/export"
	"github.com/dusk-indust/codeassist/internal/llm"
	"github.com/dusk-indust/codeassist/internal/orchestrator"
	"github.com/dusk-indust/codeassist/internal/parser"
	"github.com/dusk-indust/codeassist/internal/runner"
)

// session is everything one invocation needs: the project config, the
// resolved agents and the pipeline wired from them.
type session struct {
	cfg        *config.ProjectConfig
	registry   *agent.Registry
	normalizer *parser.Normalizer
	pipeline   *orchestrator.Pipeline
}

// loadConfig reads --config when given, otherwise looks up codeassist.yml
// from target. .env files next to the config and in the working directory
// are loaded before any agent is resolved.
func (a *app) loadConfig(target string) (*config.ProjectConfig, error) {
	var (
		cfg *config.ProjectConfig
		err error
	)
	if a.flags.configPath != "" {
		cfg, err = config.LoadFile(a.flags.configPath)
	} else {
		cfg, err = config.Load(target)
	}
	if err != nil {
		return nil, err
	}

	dirs := []string{cfg.Dir}
	if wd, err := os.Getwd(); err == nil {
		dirs = append(dirs, wd)
	}
	loaded, err := config.LoadEnv(dirs...)
	if err != nil {
		a.logger.Warn("config: .env not loaded", zap.Error(err))
	}
	for _, path := range loaded {
		a.logger.Debug("config: loaded env file", zap.String("path", path))
	}
	if cfg.Source != "" {
		a.logger.Debug("config: loaded", zap.String("path", cfg.Source))
	}

	if a.flags.maxFiles > 0 {
		cfg.MaxFiles = a.flags.maxFiles
	}
	if a.flags.verbose {
		cfg.Verbose = true
	}
	return cfg, nil
}

// openSession builds the registry and pipeline for target. Rendered results
// go to out.
func (a *app) openSession(ctx context.Context, target string, out io.Writer, stdoutIsTerminal bool) (*session, error) {
	cfg, err := a.loadConfig(target)
	if err != nil {
		return nil, err
	}

	limits := agent.Thresholds{
		LongFunctionLines: cfg.LongFunctionLines,
		LargeFileLines:    cfg.LargeFileLines,
		MinDocLines:       cfg.MinDocLines,
		MaxImports:        cfg.MaxImports,
	}.WithDefaults()

	deps := agent.Deps{
		Logger:    a.logger,
		Out:       out,
		Limits:    limits,
		TestsDir:  cfg.Path(cfg.TestsDir),
		DocsDir:   cfg.Path(cfg.DocsDir),
		PluginDir: a.pluginDir,
		Canonical: orchestrator.Normalize,
		Runners: agent.DefaultRunners(
			runner.WithTimeout(cfg.RunnerTimeout.Std()),
			runner.WithLogger(a.logger),
		),
		NewGenerator: func() (llm.Generator, error) {
			return llm.NewGeminiClient(ctx, llm.GeminiConfig{
				APIKey:  os.Getenv(llm.APIKeyEnv),
				Model:   cfg.Model,
				Timeout: cfg.LLMTimeout.Std(),
			}, a.logger)
		},
		IsTerminal: func() bool { return stdoutIsTerminal },
	}

	reg, err := agent.NewDefaultRegistry(deps)
	if err != nil {
		return nil, fmt.Errorf("agents: %w", err)
	}

	normalizer := parser.NewNormalizer(reg.Parser().Extractor(), a.logger)
	router := orchestrator.NewServiceRouter(reg, orchestrator.HandlerConfig{
		DocsDir:     deps.DocsDir,
		MinDocLines: limits.MinDocLines,
		Logger:      a.logger,
	})

	root := target
	if root == "" {
		root = "."
	}
	pipeline := orchestrator.NewPipeline(
		orchestrator.Config{
			MaxFiles:     cfg.MaxFiles,
			ExcludeDirs:  cfg.ExcludeDirs,
			ArtifactDirs: cfg.ArtifactDirs(absOr(root)),
			NoSave:       a.flags.noSave,
			Verbose:      cfg.Verbose,
		},
		normalizer,
		router,
		reg.Output().Presenter(),
		export.NewSaver(cfg.Path(cfg.ResultsDir)),
		a.logger,
	)

	return &session{cfg: cfg, registry: reg, normalizer: normalizer, pipeline: pipeline}, nil
}
