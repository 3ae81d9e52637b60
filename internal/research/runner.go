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
	"github.com/Akshath47/deep-research/internal/search"
	"github.com/Akshath47/deep-research/internal/vfs"
	"github.com/Akshath47/deep-research/pkg/types"
)

// TaskRunner executes one task. Run must not panic past its boundary and
// must always return a Result for t.Index.
type TaskRunner interface {
	Run(ctx context.Context, t Task) Result
}

// Runner is the TaskRunner that searches and then summarizes.
type Runner struct {
	Searcher   *Searcher
	Summarizer *Summarizer
	Metrics    *Metrics
	Logger     *zap.Logger
}

// Run executes both stages for t. Any error or panic is converted into an
// error file in the task's namespace and a failed Result; it never reaches
// the caller.
func (r *Runner) Run(ctx context.Context, t Task) (res Result) {
	start := time.Now()
	logger := r.logger().With(zap.Int("subquery_index", t.Index), zap.String("subquery", t.SubQuery.Query))
	stage := StageSearch
	var terms []string

	defer func() {
		if p := recover(); p != nil {
			res = r.fail(t, stage, fmt.Errorf("panic: %v", p), terms, logger)
		}
		res.Duration = time.Since(start)
	}()

	outcome, err := r.Searcher.Search(ctx, t.SubQuery, t.Strategy)
	terms = outcome.Terms
	r.observe(StageSearch, start)
	if err != nil {
		return r.fail(t, stage, err, terms, logger)
	}
	rawFiles, err := persistSearch(t, outcome)
	if err != nil {
		return r.fail(t, stage, err, terms, logger)
	}
	logger.Info("search complete", zap.Int("results", len(rawFiles)), zap.Int("calls", outcome.Calls))

	stage = StageSummarize
	summarizeStart := time.Now()
	idx, err := r.Summarizer.Summarize(ctx, t.View, t.Index, t.SubQuery, rawFiles)
	r.observe(StageSummarize, summarizeStart)
	if err != nil {
		res = r.fail(t, stage, err, terms, logger)
		res.Results = len(rawFiles)
		res.Summary = idx.SummariesCount
		return res
	}
	logger.Info("summaries complete", zap.Int("summaries", idx.SummariesCount), zap.Int("skipped", len(idx.SkippedFiles)))

	return Result{
		Index:    t.Index,
		SubQuery: t.SubQuery,
		Delta:    t.View.Delta(),
		Results:  len(rawFiles),
		Summary:  idx.SummariesCount,
	}
}

// persistSearch writes the raw result files, the aggregate listing and the
// metadata file, returning the raw result paths in rank order.
func persistSearch(t Task, o SearchOutcome) ([]string, error) {
	rc := search.RawContext{Subquery: t.SubQuery.Query, Terms: o.Terms, Depth: t.Strategy.SearchDepth}
	files := make([]string, len(o.Results))
	for r, res := range o.Results {
		files[r] = vfs.RawResultPath(t.Index, r)
		t.View.Put(files[r], search.FormatRawResult(r, res, rc))
	}
	t.View.Put(vfs.RawSummaryPath(t.Index), search.FormatListing(o.Results, t.SubQuery.Query, o.Terms))

	meta := types.SearchMetadata{
		SubqueryIndex:   t.Index,
		SubqueryInfo:    t.SubQuery,
		SearchTermsUsed: o.Terms,
		ResultsCount:    len(o.Results),
		SearchStrategy:  t.Strategy,
		RawDataFiles:    files,
		SearchCalls:     o.Calls,
		SearchErrors:    o.Errors,
		Duplicates:      o.Duplicates,
		BelowMinScore:   o.BelowMinScore,
	}
	if err := t.View.PutJSON(vfs.RawMetadataPath(t.Index), meta); err != nil {
		return nil, err
	}
	return files, nil
}

func (r *Runner) fail(t Task, stage string, err error, terms []string, logger *zap.Logger) Result {
	logger.Warn("research task failed", zap.String("stage", stage), zap.Error(err))
	writeErrorFile(t, stage, err, terms)
	return Result{
		Index:    t.Index,
		SubQuery: t.SubQuery,
		Delta:    t.View.Delta(),
		Failed:   true,
		Err:      &TaskError{Index: t.Index, Stage: stage, Err: err},
	}
}

// writeErrorFile records a task failure in the task's own namespace.
func writeErrorFile(t Task, stage string, err error, terms []string) {
	var b strings.Builder
	b.WriteString("# Research Task Error\n\n")
	fmt.Fprintf(&b, "Subquery Index: %d\n", t.Index)
	fmt.Fprintf(&b, "Subquery ID: %d\n", t.SubQuery.ID)
	fmt.Fprintf(&b, "Subquery: %s\n", t.SubQuery.Query)
	fmt.Fprintf(&b, "Stage: %s\n", stage)
	fmt.Fprintf(&b, "Error Type: %s\n", errorType(err))
	fmt.Fprintf(&b, "Time: %s\n", time.Now().UTC().Format(time.RFC3339))
	if len(terms) > 0 {
		fmt.Fprintf(&b, "Search Terms: %s\n", strings.Join(terms, ", "))
	}
	fmt.Fprintf(&b, "\n## Message\n%v\n", err)
	t.View.Put(vfs.ErrorPath(t.Index), b.String())
}

// errorType names the class of err for the error file.
func errorType(err error) string {
	var (
		pe  *vfs.ParseError
		se  *llm.SchemaError
		ae  *llm.APIError
		ste *search.StatusError
	)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	case errors.As(err, &se):
		return "schema_validation"
	case errors.As(err, &pe):
		return "parse"
	case errors.As(err, &ae):
		return "llm_api"
	case errors.As(err, &ste):
		return "search_provider"
	case errors.Is(err, ErrSearchBudget):
		return "search_budget"
	case errors.Is(err, ErrNoSearchResults):
		return "search_provider"
	case errors.Is(err, ErrNoModel):
		return "configuration"
	case strings.HasPrefix(err.Error(), "panic: "):
		return "panic"
	default:
		return "error"
	}
}

func (r *Runner) observe(stage string, start time.Time) {
	if r.Metrics != nil {
		r.Metrics.TaskDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	}
}

func (r *Runner) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}
