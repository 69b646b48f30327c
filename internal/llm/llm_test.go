package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGeminiClient_RequiresKey(t *testing.T) {
	for _, key := range []string{"", "   "} {
		c, err := NewGeminiClient(context.Background(), GeminiConfig{APIKey: key}, nil)
		assert.Nil(t, c)
		assert.ErrorIs(t, err, ErrNoAPIKey)
	}
}

func TestNewGeminiClient_Defaults(t *testing.T) {
	c, err := NewGeminiClient(context.Background(), GeminiConfig{APIKey: "test-key"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "gemini:"+DefaultModel, c.Name())
	assert.Equal(t, DefaultTimeout, c.timeout)
	assert.Equal(t, 1, c.retries)
}

func TestFakeGenerator_Sequence(t *testing.T) {
	f := NewFakeGenerator("one", "two")
	ctx := context.Background()

	got, err := f.Generate(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "one", got)

	got, err = f.Generate(ctx, "p2")
	require.NoError(t, err)
	assert.Equal(t, "two", got)

	got, err = f.Generate(ctx, "p3")
	require.NoError(t, err)
	assert.Equal(t, "two", got, "last reply repeats")

	assert.Equal(t, 3, f.Calls())
	assert.Equal(t, []string{"p1", "p2", "p3"}, f.Prompts)
}

func TestFakeGenerator_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := NewFakeGenerator().Generate(ctx, "p")
	assert.ErrorIs(t, err, ErrEmptyResponse)

	_, err = NewFakeGenerator("  ").Generate(ctx, "p")
	assert.ErrorIs(t, err, ErrEmptyResponse)

	boom := errors.New("boom")
	_, err = (&FakeGenerator{Err: boom}).Generate(ctx, "p")
	assert.ErrorIs(t, err, boom)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = NewFakeGenerator("x").Generate(cancelled, "p")
	assert.ErrorIs(t, err, context.Canceled)
}
