package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/dusk-indust/codeassist/internal/discovery"
	"github.com/dusk-indust/codeassist/internal/envelope"
	"github.com/dusk-indust/codeassist/internal/parser"
	"github.com/dusk-indust/codeassist/internal/presenter"
)

// Compile-time interface check.
var _ Orchestrator = (*Pipeline)(nil)

// ResultSaver persists an envelope and returns where it went.
type ResultSaver interface {
	Save(env envelope.Envelope) (string, error)
}

// Pipeline implements Orchestrator. It runs discovery and parsing itself,
// delegates handler selection to a Router and rendering to a Presenter, and
// reports each phase through a ProgressReporter.
type Pipeline struct {
	cfg        Config
	normalizer *parser.Normalizer
	router     *Router
	presenter  presenter.Presenter
	saver      ResultSaver
	progress   *ProgressReporter
	logger     *zap.Logger
}

// NewPipeline creates a Pipeline. A nil saver disables result dumps.
func NewPipeline(cfg Config, normalizer *parser.Normalizer, router *Router, p presenter.Presenter, saver ResultSaver, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		cfg:        cfg,
		normalizer: normalizer,
		router:     router,
		presenter:  p,
		saver:      saver,
		progress:   NewProgressReporter(),
		logger:     logger,
	}
}

// ---------------------------------------------------------------------------
// Orchestrator interface
// ---------------------------------------------------------------------------

// Run executes one service request. Input errors (a missing path) and
// interrupts are returned as errors; everything that happens inside the
// handler is carried by the envelope.
func (p *Pipeline) Run(ctx context.Context, input, path string) (RunResult, error) {
	name := Normalize(input)
	if path == "" {
		path = "."
	}
	root, err := filepath.Abs(path)
	if err != nil {
		return RunResult{}, fmt.Errorf("pipeline: resolve %s: %w", path, err)
	}
	res := RunResult{Service: name, Root: root}
	p.logger.Debug("pipeline: run", zap.String("service", name), zap.String("root", root))

	// Discover.
	err = p.phase(PhaseDiscover, func() (string, error) {
		paths, err := discovery.Discover(root, p.cfg.discoveryOptions())
		res.Files = paths
		return fmt.Sprintf("%d files", len(paths)), err
	})
	if err != nil {
		return res, fmt.Errorf("pipeline: %w", err)
	}
	if res.NoFiles() {
		return res, nil
	}
	if p.cfg.Verbose {
		if err := p.presenter.FileTree(root, res.Files); err != nil {
			return res, fmt.Errorf("pipeline: present files: %w", err)
		}
	}

	// Parse.
	var set parser.Set
	_ = p.phase(PhaseParse, func() (string, error) {
		set = p.normalizer.ParseAll(ctx, res.Files)
		parsed := len(set.Parsed())
		return fmt.Sprintf("%d of %d parsed", parsed, set.Len()), nil
	})
	if err := ctx.Err(); err != nil {
		return res, fmt.Errorf("pipeline: %w", err)
	}

	// Handle.
	handler := p.router.Route(name)
	_ = p.phase(PhaseHandle, func() (string, error) {
		res.Envelope = handler.Handle(ctx, set, root)
		if res.Envelope.Failed() {
			return "", errors.New(res.Envelope.Error)
		}
		return res.Envelope.Message, nil
	})
	if err := ctx.Err(); err != nil {
		return res, fmt.Errorf("pipeline: %w", err)
	}

	// Save. A dump that cannot be written is logged, not fatal.
	if p.saver != nil && !p.cfg.NoSave {
		err := p.phase(PhaseSave, func() (string, error) {
			saved, err := p.saver.Save(res.Envelope)
			res.SavedTo = saved
			return saved, err
		})
		if err != nil {
			p.logger.Warn("pipeline: result not saved", zap.String("service", name), zap.Error(err))
		}
	}

	// Present.
	err = p.phase(PhasePresent, func() (string, error) {
		if err := p.presenter.Present(res.Envelope); err != nil {
			return "", err
		}
		if res.SavedTo != "" {
			return "", p.presenter.Success("Results saved to " + res.SavedTo)
		}
		return "", nil
	})
	if err != nil {
		return res, fmt.Errorf("pipeline: present: %w", err)
	}
	return res, nil
}

// Progress returns a channel that emits progress events.
func (p *Pipeline) Progress() <-chan ProgressEvent {
	return p.progress.Subscribe()
}

// DroppedProgress reports how many progress events the consumer missed.
func (p *Pipeline) DroppedProgress() int {
	return p.progress.Dropped()
}

// Close shuts down the progress reporter. Callers should invoke this when the
// pipeline is no longer needed.
func (p *Pipeline) Close() {
	p.progress.Close()
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// phase runs fn between a working and a complete/failed progress event.
func (p *Pipeline) phase(ph Phase, fn func() (string, error)) error {
	p.progress.Emit(ProgressEvent{Phase: ph, Section: ph.String(), Status: ProgressWorking})

	msg, err := fn()
	if err != nil {
		p.progress.Emit(ProgressEvent{Phase: ph, Section: ph.String(), Status: ProgressFailed, Message: err.Error()})
		return err
	}
	p.progress.Emit(ProgressEvent{Phase: ph, Section: ph.String(), Status: ProgressComplete, Message: msg})
	return nil
}
