// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Akshath47/deep-research/internal/llm"
	"github.com/Akshath47/deep-research/internal/prompts"
	"github.com/Akshath47/deep-research/internal/search"
	"github.com/Akshath47/deep-research/internal/vfs"
	"github.com/Akshath47/deep-research/pkg/types"
)

// ErrNoModel is returned when summarization is attempted without a client.
var ErrNoModel = errors.New("no language model configured")

// Summarizer turns each raw result file of a task into a structured
// Summary and writes the task's summary index.
type Summarizer struct {
	LLM         llm.Client
	Model       string
	MaxTokens   int
	MaxAttempts int
	Metrics     *Metrics
	Logger      *zap.Logger
}

// Summarize reads rawFiles from view and writes one summary per non-empty
// file plus the index. The index is written even when a summary fails, so
// the delta keeps whatever was completed.
func (s *Summarizer) Summarize(ctx context.Context, view *vfs.Store, index int, sq types.SubQuery, rawFiles []string) (types.SummaryIndex, error) {
	logger := s.logger()

	idx := types.SummaryIndex{
		SubqueryIndex: index,
		Subquery:      sq.Query,
		Priority:      sq.Priority,
		Freshness:     sq.Freshness,
		SummaryFiles:  []string{},
		Summaries:     []types.Summary{},
	}
	if idx.Priority == "" {
		idx.Priority = types.PriorityMedium
	}
	if idx.Freshness == "" {
		idx.Freshness = types.FreshnessAny
	}

	var failure error
	for pos, rawPath := range rawFiles {
		raw := view.Get(rawPath, "")
		if strings.TrimSpace(raw) == "" {
			logger.Info("skipping empty raw file", zap.String("path", rawPath))
			idx.SkippedFiles = append(idx.SkippedFiles, rawPath)
			s.count("skipped")
			continue
		}

		r, ok := vfs.ResultNumber(rawPath)
		if !ok {
			r = pos
		}
		summary, err := s.summarizeOne(ctx, sq, r, rawPath, raw)
		if err != nil {
			s.count("failed")
			failure = fmt.Errorf("summarizing %s: %w", rawPath, err)
			break
		}

		path := vfs.SummaryPath(index, r)
		if err := view.PutJSON(path, summary); err != nil {
			failure = err
			break
		}
		s.count("written")
		idx.SummaryFiles = append(idx.SummaryFiles, path)
		idx.Summaries = append(idx.Summaries, summary)
	}

	idx.SummariesCount = len(idx.Summaries)
	if err := view.PutJSON(vfs.SummaryIndexPath(index), idx); err != nil && failure == nil {
		failure = err
	}
	return idx, failure
}

func (s *Summarizer) summarizeOne(ctx context.Context, sq types.SubQuery, r int, rawPath, raw string) (types.Summary, error) {
	if s.LLM == nil {
		return types.Summary{}, ErrNoModel
	}
	prompt, err := prompts.Render(prompts.Summarize, prompts.SummarizeData{Subquery: sq.Query, Raw: raw})
	if err != nil {
		return types.Summary{}, err
	}

	var analysis types.SummaryAnalysis
	attempts := s.MaxAttempts
	if attempts <= 0 {
		attempts = types.DefaultMaxAttempts
	}
	err = withRetry(ctx, attempts, llm.Permanent, func(attempt int) error {
		if attempt > 0 {
			s.logger().Debug("retrying summary", zap.String("path", rawPath), zap.Int("attempt", attempt+1))
		}
		analysis = types.SummaryAnalysis{}
		return llm.Generate(ctx, s.LLM, llm.Request{
			Model:     s.Model,
			Prompt:    prompt,
			MaxTokens: s.MaxTokens,
		}, llm.SummaryAnalysisSchema, &analysis)
	})
	if err != nil {
		return types.Summary{}, err
	}

	if analysis.ExtractedURL == "" {
		analysis.ExtractedURL = search.ParseRawURL(raw)
	}
	if analysis.ExtractedTitle == "" {
		analysis.ExtractedTitle = search.ParseRawTitle(raw)
	}
	return types.Summary{
		ResultIndex: r,
		Subquery:    sq.Query,
		Analysis:    analysis,
		Citation:    fmt.Sprintf("[Source: %s]", analysis.ExtractedURL),
		SourceFile:  rawPath,
		GeneratedAt: time.Now().UTC(),
	}, nil
}

func (s *Summarizer) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func (s *Summarizer) count(outcome string) {
	if s.Metrics != nil {
		s.Metrics.Summaries.WithLabelValues(outcome).Inc()
	}
}
