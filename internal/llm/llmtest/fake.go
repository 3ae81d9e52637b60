// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llmtest provides a scripted llm.Client for tests.
package llmtest

import (
	"context"
	"strings"
	"sync"

	"github.com/Akshath47/deep-research/internal/llm"
)

// Fake is an llm.Client whose replies come from Respond. It records every
// request and is safe for concurrent use.
type Fake struct {
	Respond func(req llm.Request) (string, error)

	mu    sync.Mutex
	calls []llm.Request
}

// Complete records req and delegates to Respond.
func (f *Fake) Complete(ctx context.Context, req llm.Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	if f.Respond == nil {
		return "", llm.ErrEmptyResponse
	}
	return f.Respond(req)
}

// Calls returns a copy of the recorded requests.
func (f *Fake) Calls() []llm.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]llm.Request(nil), f.calls...)
}

// Static returns a Fake that always replies with text.
func Static(text string) *Fake {
	return &Fake{Respond: func(llm.Request) (string, error) { return text, nil }}
}

// Failing returns a Fake that always fails with err.
func Failing(err error) *Fake {
	return &Fake{Respond: func(llm.Request) (string, error) { return "", err }}
}

// ByMarker returns a Fake that replies with the value of the first key
// found in the prompt, or fallback when none matches. Keys are checked in
// the order given by order.
func ByMarker(order []string, replies map[string]string, fallback string) *Fake {
	return &Fake{Respond: func(req llm.Request) (string, error) {
		for _, k := range order {
			if strings.Contains(req.Prompt, k) {
				return replies[k], nil
			}
		}
		return fallback, nil
	}}
}
