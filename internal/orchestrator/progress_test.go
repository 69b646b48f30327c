package orchestrator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressReporter_EmitAndSubscribe(t *testing.T) {
	pr := NewProgressReporter()
	defer pr.Close()

	ch := pr.Subscribe()
	want := ProgressEvent{
		Phase:   PhaseParse,
		Section: "parse",
		Status:  ProgressWorking,
		Message: "3 files",
	}

	pr.Emit(want)

	select {
	case got := <-ch:
		assert.Equal(t, want, got)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for progress event")
	}
}

func TestProgressReporter_EmitWhenFull_DoesNotBlock(t *testing.T) {
	pr := NewProgressReporter()
	defer pr.Close()

	// The internal channel buffer is 64. Emitting 100 events must never block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			pr.Emit(ProgressEvent{Phase: PhaseHandle, Section: "handle", Status: ProgressWorking})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Emit blocked when the channel was full")
	}
	assert.Equal(t, 100-progressBuffer, pr.Dropped())
}

func TestProgressReporter_EmitAfterClose(t *testing.T) {
	pr := NewProgressReporter()
	pr.Close()

	assert.NotPanics(t, func() {
		pr.Emit(ProgressEvent{Phase: PhaseParse, Section: "parse", Status: ProgressWorking})
		pr.Close()
	})
	assert.Equal(t, 1, pr.Dropped())
}

func TestProgressReporter_Close_ChannelClosed(t *testing.T) {
	pr := NewProgressReporter()
	ch := pr.Subscribe()

	pr.Emit(ProgressEvent{Phase: PhaseSave, Section: "save", Status: ProgressComplete})
	pr.Close()

	var received []ProgressEvent
	for ev := range ch {
		received = append(received, ev)
	}
	require.Len(t, received, 1)
	assert.Equal(t, ProgressComplete, received[0].Status)
}

func TestFormatProgress_AllStatuses(t *testing.T) {
	tests := []struct {
		name   string
		event  ProgressEvent
		expect string
	}{
		{
			name:   "pending",
			event:  ProgressEvent{Section: "parse", Status: ProgressPending},
			expect: "  ○ parse (pending)",
		},
		{
			name:   "working",
			event:  ProgressEvent{Section: "parse", Status: ProgressWorking},
			expect: "  ● parse...",
		},
		{
			name:   "complete",
			event:  ProgressEvent{Section: "parse", Status: ProgressComplete},
			expect: "  ✓ parse complete",
		},
		{
			name:   "complete with message",
			event:  ProgressEvent{Section: "discover", Status: ProgressComplete, Message: "3 files"},
			expect: "  ✓ discover complete: 3 files",
		},
		{
			name:   "failed",
			event:  ProgressEvent{Section: "save", Status: ProgressFailed, Message: "read-only"},
			expect: "  ✗ save failed: read-only",
		},
		{
			name:   "unknown",
			event:  ProgressEvent{Section: "save", Status: "odd"},
			expect: "  ? save (unknown status)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, FormatProgress(tt.event))
		})
	}
}

func TestFormatRunHeader(t *testing.T) {
	assert.Equal(t, "[testing] 🧪 Testing: /proj", FormatRunHeader("t", "/proj"))
	assert.Equal(t, "[security] • security: /proj", FormatRunHeader("Security", "/proj"))
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "discover", PhaseDiscover.String())
	assert.Equal(t, "present", PhasePresent.String())
	assert.Equal(t, "unknown", Phase(42).String())
	assert.Equal(t, "unknown", Phase(-1).String())
}
