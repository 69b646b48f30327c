// Package llm wraps the external text-generation service behind a small
// interface so capabilities can be backed by Gemini or by a fake.
package llm

import (
	"context"
	"errors"
	"time"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.0-flash"

// DefaultTimeout bounds a single generation request.
const DefaultTimeout = 60 * time.Second

// APIKeyEnv is the environment variable that gates LLM availability.
const APIKeyEnv = "GEMINI_API_KEY"

var (
	// ErrNoAPIKey is returned when no API key is configured.
	ErrNoAPIKey = errors.New("llm: " + APIKeyEnv + " is not set")

	// ErrEmptyResponse is returned when the model produced no text.
	ErrEmptyResponse = errors.New("llm: empty response")
)

// Generator produces free text for a prompt. Implementations must honour
// ctx cancellation and never block past their configured timeout.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Name() string
}
