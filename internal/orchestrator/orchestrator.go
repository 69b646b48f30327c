// Package orchestrator runs one service request end to end: discover the
// files, parse them, route to a handler, save and present the envelope.
package orchestrator

import (
	"context"

	"github.com/dusk-indust/codeassist/internal/envelope"
)

// Phase identifies a step of a run.
type Phase int

const (
	PhaseDiscover Phase = iota
	PhaseParse
	PhaseHandle
	PhaseSave
	PhasePresent
)

func (p Phase) String() string {
	names := [...]string{
		"discover",
		"parse",
		"handle",
		"save",
		"present",
	}
	if p >= 0 && int(p) < len(names) {
		return names[p]
	}
	return "unknown"
}

// RunResult holds the outcome of a completed run.
type RunResult struct {
	Service  string
	Root     string
	Files    []string // discovered files, in processing order
	Envelope envelope.Envelope
	SavedTo  string // dump path, empty when not saved
}

// NoFiles reports whether discovery found nothing to process. No handler
// runs in that case.
func (r RunResult) NoFiles() bool { return len(r.Files) == 0 }

// ProgressEvent is emitted while a run advances.
type ProgressEvent struct {
	Phase   Phase
	Section string
	Status  ProgressStatus
	Message string
}

// ProgressStatus is the state of a phase.
type ProgressStatus string

const (
	ProgressPending  ProgressStatus = "pending"
	ProgressWorking  ProgressStatus = "working"
	ProgressComplete ProgressStatus = "complete"
	ProgressFailed   ProgressStatus = "failed"
)

// Orchestrator runs service requests.
type Orchestrator interface {
	// Run executes the named service over the files under path. The input
	// is normalized first, so aliases such as "t" or "2" are accepted.
	Run(ctx context.Context, input, path string) (RunResult, error)

	// Progress returns a channel that emits progress events.
	Progress() <-chan ProgressEvent
}
