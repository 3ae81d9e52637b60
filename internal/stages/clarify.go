// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package stages

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Akshath47/deep-research/internal/llm"
	"github.com/Akshath47/deep-research/internal/prompts"
	"github.com/Akshath47/deep-research/internal/vfs"
)

// Answerer supplies answers to clarifying questions, typically from a
// person at a terminal.
type Answerer interface {
	Answer(ctx context.Context, question string) (string, error)
}

// Clarifier turns original_query.md into clarified_query.md, optionally
// asking the Answerer a few scoping questions first.
type Clarifier struct {
	Env
	Answerer Answerer
}

// Run writes the research brief.
func (c *Clarifier) Run(ctx context.Context, store *vfs.Store) error {
	query := strings.TrimSpace(store.Get(vfs.OriginalQueryFile, ""))
	if query == "" {
		store.Put(vfs.ClarifiedQueryFile, insufficient("Research Brief", "no research question was provided."))
		return nil
	}

	answers := c.ask(ctx, query)
	if len(answers) > 0 {
		if err := store.PutJSON(vfs.ClarificationsFile, answers); err != nil {
			return err
		}
	}

	brief, err := c.complete(ctx, ModelClarifier, prompts.ClarifyBrief, prompts.BriefData{Query: query, Answers: answers})
	if err != nil {
		store.Put(vfs.ClarifiedQueryFile, fallbackBrief(query, answers))
		return c.degraded("clarify", err)
	}
	store.Put(vfs.ClarifiedQueryFile, brief+"\n")
	return nil
}

// ask collects answers to the model's clarifying questions. Failures end
// the exchange early; they never fail the stage.
func (c *Clarifier) ask(ctx context.Context, query string) []prompts.QA {
	if c.Answerer == nil || c.LLM == nil {
		return nil
	}
	limit := c.Stages.MaxClarifyingQuestions
	var resp struct {
		Questions []string `json:"questions"`
	}
	err := c.generate(ctx, ModelClarifier, prompts.ClarifyQuestions,
		prompts.QuestionsData{Query: query, MaxQuestions: limit}, llm.QuestionsSchema, &resp)
	if err != nil {
		c.logger().Warn("generating clarifying questions", zap.Error(err))
		return nil
	}

	var answers []prompts.QA
	asked := 0
	for _, q := range resp.Questions {
		if limit > 0 && asked >= limit {
			break
		}
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		asked++
		a, err := c.Answerer.Answer(ctx, q)
		if err != nil {
			c.logger().Info("clarification ended", zap.Error(err))
			break
		}
		if a = strings.TrimSpace(a); a != "" {
			answers = append(answers, prompts.QA{Question: q, Answer: a})
		}
	}
	return answers
}

func fallbackBrief(query string, answers []prompts.QA) string {
	var b strings.Builder
	b.WriteString("# Research Brief\n\n## Question\n")
	b.WriteString(query)
	b.WriteString("\n")
	if len(answers) > 0 {
		b.WriteString("\n## Clarifications\n")
		for _, qa := range answers {
			fmt.Fprintf(&b, "- %s %s\n", qa.Question, qa.Answer)
		}
	}
	return b.String()
}
