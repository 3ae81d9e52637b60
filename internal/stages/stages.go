// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package stages holds the single-shot pipeline stages that run before and
// after parallel research: clarify, decompose, strategize, fact-check,
// synthesize and review.
//
// Every stage reads its input from the store and writes its output back.
// Missing input never fails a stage; the stage writes a placeholder that
// says so. A failed model call makes the stage write a deterministic
// fallback and return the error, so the driver can record it and move on.
package stages

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Akshath47/deep-research/internal/llm"
	"github.com/Akshath47/deep-research/internal/prompts"
	"github.com/Akshath47/deep-research/pkg/types"
)

// ErrNoModel is returned by helpers when no language model is configured.
// Stages treat it as a request for their deterministic fallback.
var ErrNoModel = errors.New("no language model configured")

// Model names used to look up per-stage overrides in AIConfig.Models.
const (
	ModelClarifier   = "clarifier"
	ModelDecomposer  = "decomposer"
	ModelStrategist  = "strategist"
	ModelFactChecker = "factchecker"
	ModelSynthesizer = "synthesizer"
	ModelReviewer    = "reviewer"
)

// Env carries what every stage needs.
type Env struct {
	LLM      llm.Client
	AI       types.AIConfig
	Research types.ResearchConfig
	Stages   types.StageConfig
	Logger   *zap.Logger
}

func (e Env) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

// complete renders a prompt and returns the model's text reply.
func (e Env) complete(ctx context.Context, model, prompt string, data any) (string, error) {
	if e.LLM == nil {
		return "", ErrNoModel
	}
	text, err := prompts.Render(prompt, data)
	if err != nil {
		return "", err
	}
	out, err := e.LLM.Complete(ctx, llm.Request{
		Model:     e.AI.ModelFor(model),
		Prompt:    text,
		MaxTokens: e.AI.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", prompt, err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", fmt.Errorf("%s: %w", prompt, llm.ErrEmptyResponse)
	}
	return out, nil
}

// generate renders a prompt and decodes the schema-validated reply into out.
func (e Env) generate(ctx context.Context, model, prompt string, data any, schema *llm.Schema, out any) error {
	if e.LLM == nil {
		return ErrNoModel
	}
	text, err := prompts.Render(prompt, data)
	if err != nil {
		return err
	}
	err = llm.Generate(ctx, e.LLM, llm.Request{
		Model:     e.AI.ModelFor(model),
		Prompt:    text,
		MaxTokens: e.AI.MaxTokens,
	}, schema, out)
	if err != nil {
		return fmt.Errorf("%s: %w", prompt, err)
	}
	return nil
}

// degraded logs a model failure and returns the error the stage reports.
// ErrNoModel is not an error worth reporting.
func (e Env) degraded(stage string, err error) error {
	if errors.Is(err, ErrNoModel) {
		e.logger().Info("no language model, using fallback", zap.String("stage", stage))
		return nil
	}
	e.logger().Warn("model call failed, using fallback", zap.String("stage", stage), zap.Error(err))
	return err
}

// insufficient formats the placeholder a stage writes when its input is
// absent.
func insufficient(title, reason string) string {
	return fmt.Sprintf("# %s\n\nInsufficient input: %s\n", title, reason)
}
