package llm

import (
	"context"
	"strings"
	"sync"
)

// Compile-time check.
var _ Generator = (*FakeGenerator)(nil)

// FakeGenerator returns canned responses for offline use and tests. Replies
// are consumed in order; once exhausted the last reply repeats. A non-nil
// Err is returned from every call instead.
type FakeGenerator struct {
	mu      sync.Mutex
	Replies []string
	Err     error
	Prompts []string
}

// NewFakeGenerator creates a FakeGenerator with the given replies.
func NewFakeGenerator(replies ...string) *FakeGenerator {
	return &FakeGenerator{Replies: replies}
}

// Name identifies the fake.
func (f *FakeGenerator) Name() string { return "fake" }

// Generate records prompt and returns the next canned reply.
func (f *FakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Prompts = append(f.Prompts, prompt)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f.Err != nil {
		return "", f.Err
	}
	if len(f.Replies) == 0 {
		return "", ErrEmptyResponse
	}
	reply := f.Replies[0]
	if len(f.Replies) > 1 {
		f.Replies = f.Replies[1:]
	}
	if strings.TrimSpace(reply) == "" {
		return "", ErrEmptyResponse
	}
	return reply, nil
}

// Calls returns how many prompts were received.
func (f *FakeGenerator) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Prompts)
}
