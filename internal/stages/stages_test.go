// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package stages

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/Akshath47/deep-research/internal/llm"
	"github.com/Akshath47/deep-research/internal/vfs"
	"github.com/Akshath47/deep-research/pkg/types"
)

var errModelDown = errors.New("model down")

func testEnv(t *testing.T, client llm.Client) Env {
	cfg := types.Defaults()
	return Env{
		LLM:      client,
		AI:       cfg.AI,
		Research: cfg.Research,
		Stages:   cfg.Stages,
		Logger:   zaptest.NewLogger(t),
	}
}

// seedResearch writes two sub-queries: the first with one summary, the
// second with an error file.
func seedResearch(t *testing.T) *vfs.Store {
	t.Helper()
	s := vfs.New()
	s.Put(vfs.OriginalQueryFile, "How do solid state batteries work?")
	s.Put(vfs.ClarifiedQueryFile, "# Brief\nSolid state batteries.")
	subs := []types.SubQuery{
		{ID: 1, Query: "What electrolytes are used?", Priority: types.PriorityHigh, Freshness: types.FreshnessAny},
		{ID: 2, Query: "Who manufactures them?", Priority: types.PriorityMedium, Freshness: types.FreshnessRecent},
	}
	mustPutJSON(t, s, vfs.SubqueriesFile, subs)

	summary := types.Summary{
		ResultIndex: 0,
		Subquery:    subs[0].Query,
		Analysis: types.SummaryAnalysis{
			SummaryText:    "Sulfide electrolytes dominate.",
			ExtractedURL:   "https://a.example/1",
			ExtractedTitle: "Electrolytes",
		},
		Citation: "[Source: https://a.example/1]",
	}
	mustPutJSON(t, s, vfs.SummaryIndexPath(0), types.SummaryIndex{
		SubqueryIndex:  0,
		Subquery:       subs[0].Query,
		SummariesCount: 1,
		SummaryFiles:   []string{vfs.SummaryPath(0, 0)},
		Summaries:      []types.Summary{summary},
	})
	s.Put(vfs.ErrorPath(1), "# Research Task Error\n")
	return s
}

func mustPutJSON(t *testing.T, s *vfs.Store, path string, v any) {
	t.Helper()
	if err := s.PutJSON(path, v); err != nil {
		t.Fatal(err)
	}
}

// scriptedAnswerer replies with answers in order and then fails.
type scriptedAnswerer struct {
	answers []string
	asked   []string
}

func (a *scriptedAnswerer) Answer(_ context.Context, q string) (string, error) {
	a.asked = append(a.asked, q)
	if len(a.answers) == 0 {
		return "", errors.New("no more answers")
	}
	next := a.answers[0]
	a.answers = a.answers[1:]
	return next, nil
}

func nopLogger() *zap.Logger { return zap.NewNop() }
