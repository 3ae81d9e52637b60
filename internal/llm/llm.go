// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm is the language model boundary. Stages depend on the Client
// interface; ClaudeClient and GeminiClient implement it over the vendor
// APIs, and Generate layers JSON-schema validated structured output on top.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// ErrEmptyResponse is returned when the model produced no text.
var ErrEmptyResponse = errors.New("model returned no text content")

// Request is one completion request.
type Request struct {
	// Model overrides the client's default model when non-empty.
	Model string

	// System is an optional system instruction.
	System string

	// Prompt is the user message.
	Prompt string

	// MaxTokens overrides the client's default completion budget when positive.
	MaxTokens int

	// JSON asks the backend for a JSON-only response where supported.
	JSON bool
}

// Client completes prompts. Implementations must be safe for concurrent use.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// APIError is a non-success HTTP status from a model API.
type APIError struct {
	Provider string
	Status   int
	Body     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API returned %d: %s", e.Provider, e.Status, e.Body)
}

// Permanent reports whether retrying err cannot help: schema mismatches,
// cancellation, and API status errors. Clients return *APIError only after
// their own retries of throttled and unavailable responses ran out.
func Permanent(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var se *SchemaError
	if errors.As(err, &se) {
		return true
	}
	var ae *APIError
	return errors.As(err, &ae)
}
