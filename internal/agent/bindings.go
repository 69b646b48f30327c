package agent

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/dusk-indust/codeassist/internal/llm"
	"github.com/dusk-indust/codeassist/internal/parser"
	"github.com/dusk-indust/codeassist/internal/presenter"
	"github.com/dusk-indust/codeassist/internal/runner"
)

// Compile-time checks.
var (
	_ ParserAgent = (*ExtractorAgent)(nil)
	_ OutputAgent = (*PresenterAgent)(nil)
)

// ExtractorAgent adapts a parser.Extractor to the parser capability.
type ExtractorAgent struct {
	ex parser.Extractor
}

// NewExtractorAgent wraps ex.
func NewExtractorAgent(ex parser.Extractor) *ExtractorAgent { return &ExtractorAgent{ex: ex} }

func (a *ExtractorAgent) Extractor() parser.Extractor { return a.ex }
func (a *ExtractorAgent) Name() string                { return a.ex.Name() + "-parser" }

// PresenterAgent adapts a presenter to the output capability.
type PresenterAgent struct {
	p    presenter.Presenter
	name string
}

// NewPresenterAgent wraps p under name.
func NewPresenterAgent(p presenter.Presenter, name string) *PresenterAgent {
	return &PresenterAgent{p: p, name: name}
}

func (a *PresenterAgent) Presenter() presenter.Presenter { return a.p }
func (a *PresenterAgent) Name() string                   { return a.name }

// Deps carries what the fallbacks and real bindings are built from.
type Deps struct {
	Logger *zap.Logger
	Out    io.Writer

	Limits    Thresholds
	TestsDir  string
	DocsDir   string
	PluginDir string

	// Canonical maps service names for the presenter.
	Canonical func(string) string

	// Runners execute generated tests per language.
	Runners map[parser.Language]runner.Runner

	// NewGenerator builds the LLM backend. Nil disables the LLM bindings.
	NewGenerator func() (llm.Generator, error)

	// Getenv and IsTerminal default to the process environment and stdout.
	Getenv     func(string) string
	IsTerminal func() bool
}

func (d *Deps) defaults() {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Out == nil {
		d.Out = os.Stdout
	}
	if d.Getenv == nil {
		d.Getenv = os.Getenv
	}
	if d.IsTerminal == nil {
		d.IsTerminal = func() bool {
			fd := os.Stdout.Fd()
			return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
		}
	}
}

// DefaultRunners returns a strategy runner per supported language.
func DefaultRunners(opts ...runner.Option) map[parser.Language]runner.Runner {
	out := make(map[parser.Language]runner.Runner, len(parser.SupportedLanguages))
	for _, lang := range parser.SupportedLanguages {
		out[lang] = runner.New(lang, opts...)
	}
	return out
}

// DefaultFallbacks builds the always-available implementations.
func DefaultFallbacks(d Deps) Fallbacks {
	d.defaults()
	return Fallbacks{
		Parser:        NewExtractorAgent(parser.NewRegexExtractor()),
		Output:        NewPresenterAgent(presenter.New(d.Out, presenter.Options{Canonical: d.Canonical}), "plain-output"),
		Test:          NewTemplateTester(d.TestsDir),
		Refactor:      NewHeuristicRefactor(d.Limits),
		Debug:         NewHeuristicDebug(d.Limits),
		Planner:       NewHeuristicPlanner(d.Limits, d.TestsDir, d.DocsDir),
		Documentation: UnavailableDocumenter{},
	}
}

// terminalWidth reports the stdout width, or 100 when it cannot be read.
func terminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 20 {
		return w
	}
	return 100
}

// DefaultBindings enumerates the real implementation attempts, in order.
func DefaultBindings(d Deps) []Binding {
	d.defaults()

	// One generator serves every LLM backed capability.
	generator := sync.OnceValues(func() (llm.Generator, error) {
		if d.NewGenerator == nil {
			return nil, errors.New("no generator configured")
		}
		return d.NewGenerator()
	})
	llmProbe := func() error {
		if d.NewGenerator == nil {
			return errors.New("no generator configured")
		}
		if d.Getenv(llm.APIKeyEnv) == "" {
			return llm.ErrNoAPIKey
		}
		return nil
	}

	return []Binding{
		{
			Capability: CapParser,
			Name:       "tree-sitter",
			Build: func() (any, error) {
				ex, err := parser.NewTreeSitterExtractor()
				if err != nil {
					return nil, err
				}
				return NewExtractorAgent(ex), nil
			},
		},
		{
			Capability: CapOutput,
			Name:       "styled-output",
			Probe: func() error {
				if d.Getenv("NO_COLOR") != "" {
					return errors.New("NO_COLOR is set")
				}
				if !d.IsTerminal() {
					return errors.New("stdout is not a terminal")
				}
				return nil
			},
			Build: func() (any, error) {
				p := presenter.New(d.Out, presenter.Options{
					Styled:    true,
					Width:     terminalWidth(),
					Canonical: d.Canonical,
				})
				return NewPresenterAgent(p, "styled-output"), nil
			},
		},
		{
			Capability: CapTest,
			Name:       "llm-tests",
			Probe:      llmProbe,
			Build: func() (any, error) {
				gen, err := generator()
				if err != nil {
					return nil, err
				}
				return NewLLMTester(gen, d.Runners, d.TestsDir, d.Logger), nil
			},
		},
		{
			Capability: CapRefactor,
			Name:       "plugin-refactor",
			Probe:      func() error { return ProbePlugin(d.PluginDir, CapRefactor) },
			Build: func() (any, error) {
				return NewPluginRefactor(d.PluginDir, d.Limits, d.Logger)
			},
		},
		{
			Capability: CapDebug,
			Name:       "plugin-debug",
			Probe:      func() error { return ProbePlugin(d.PluginDir, CapDebug) },
			Build: func() (any, error) {
				return NewPluginDebug(d.PluginDir, d.Limits, d.Logger)
			},
		},
		{
			Capability: CapPlanner,
			Name:       "llm-planner",
			Probe:      llmProbe,
			Build: func() (any, error) {
				gen, err := generator()
				if err != nil {
					return nil, err
				}
				return NewLLMPlanner(NewHeuristicPlanner(d.Limits, d.TestsDir, d.DocsDir), gen), nil
			},
		},
		{
			Capability: CapDocumentation,
			Name:       "llm-docs",
			Probe:      llmProbe,
			Build: func() (any, error) {
				gen, err := generator()
				if err != nil {
					return nil, err
				}
				return NewLLMDocumenter(gen), nil
			},
		},
	}
}

// NewDefaultRegistry builds the fallbacks, then resolves the default bindings.
func NewDefaultRegistry(d Deps) (*Registry, error) {
	d.defaults()
	reg, err := NewRegistry(d.Logger, DefaultFallbacks(d))
	if err != nil {
		return nil, fmt.Errorf("agent: %w", err)
	}
	reg.Resolve(DefaultBindings(d))
	return reg, nil
}
