// Package service implements the workflows that turn a parsed set into a
// result envelope. Handlers receive their agents at construction and never
// return Go errors; failures are expressed through the envelope.
package service

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/dusk-indust/codeassist/internal/envelope"
	"github.com/dusk-indust/codeassist/internal/parser"
)

// Canonical service names.
const (
	Testing       = "testing"
	Refactoring   = "refactoring"
	Debugging     = "debugging"
	Documentation = "documentation"
	Analysis      = "analysis"
	Planning      = "planning"
)

// Canonical lists the service names in menu order.
var Canonical = []string{Testing, Refactoring, Debugging, Documentation, Analysis, Planning}

// Handler runs one workflow over a parsed set.
type Handler interface {
	Name() string
	Handle(ctx context.Context, set parser.Set, projectPath string) envelope.Envelope
}

// Safe wraps h so that a panic becomes a failed envelope.
func Safe(h Handler) Handler {
	if _, ok := h.(safeHandler); ok {
		return h
	}
	return safeHandler{h: h}
}

type safeHandler struct{ h Handler }

func (s safeHandler) Name() string { return s.h.Name() }

func (s safeHandler) Handle(ctx context.Context, set parser.Set, projectPath string) (env envelope.Envelope) {
	defer func() {
		if r := recover(); r != nil {
			env = envelope.Failed(s.h.Name(), projectPath, "The workflow stopped before producing a result.",
				fmt.Errorf("%s handler: unexpected failure: %v", s.h.Name(), r))
		}
	}()
	return s.h.Handle(ctx, set, projectPath)
}

func nopIfNil(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

// round1 rounds to one decimal place.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// interrupted reports a cancelled context as a per-run error string.
func interrupted(ctx context.Context) (string, bool) {
	if err := ctx.Err(); err != nil {
		return "run interrupted: " + err.Error(), true
	}
	return "", false
}
