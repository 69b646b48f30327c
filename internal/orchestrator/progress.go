package orchestrator

import (
	"fmt"
	"sync"
)

// progressBuffer bounds how far a slow consumer may fall behind a run.
const progressBuffer = 64

// ProgressReporter fans phase events of a run out to a single consumer.
// Emit never blocks the run: events that do not fit the buffer are counted
// and dropped. Emit and Close are safe to call after Close.
type ProgressReporter struct {
	mu      sync.Mutex
	ch      chan ProgressEvent
	closed  bool
	dropped int
}

func NewProgressReporter() *ProgressReporter {
	return &ProgressReporter{ch: make(chan ProgressEvent, progressBuffer)}
}

// Emit queues event, or drops it when the buffer is full or the reporter
// is closed.
func (pr *ProgressReporter) Emit(event ProgressEvent) {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	if pr.closed {
		pr.dropped++
		return
	}
	select {
	case pr.ch <- event:
	default:
		pr.dropped++
	}
}

// Subscribe returns the event channel. It is closed by Close.
func (pr *ProgressReporter) Subscribe() <-chan ProgressEvent {
	return pr.ch
}

// Dropped reports how many events were discarded.
func (pr *ProgressReporter) Dropped() int {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	return pr.dropped
}

func (pr *ProgressReporter) Close() {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	if pr.closed {
		return
	}
	pr.closed = true
	close(pr.ch)
}

// FormatProgress renders event as one status line, e.g. "  ✓ parse complete: 3 files".
func FormatProgress(event ProgressEvent) string {
	var mark, tail string
	switch event.Status {
	case ProgressPending:
		mark, tail = "○", " (pending)"
	case ProgressWorking:
		mark, tail = "●", "..."
	case ProgressComplete:
		mark, tail = "✓", " complete"
		if event.Message != "" {
			tail += ": " + event.Message
		}
	case ProgressFailed:
		mark, tail = "✗", " failed: "+event.Message
	default:
		mark, tail = "?", " (unknown status)"
	}
	return fmt.Sprintf("  %s %s%s", mark, event.Section, tail)
}

// FormatRunHeader renders "[{service}] {icon} {title}: {root}" for the
// canonical form of name.
func FormatRunHeader(name, root string) string {
	info := ServiceInfo(name)
	return fmt.Sprintf("[%s] %s %s: %s", Normalize(name), info.Icon, info.Title, root)
}
