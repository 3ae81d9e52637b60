// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Akshath47/deep-research/internal/archive"
	"github.com/Akshath47/deep-research/internal/pipeline"
	"github.com/Akshath47/deep-research/internal/research"
	"github.com/Akshath47/deep-research/internal/vfs"
	"github.com/Akshath47/deep-research/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run [query...]",
	Short: "Run the full research pipeline for a question",
	Long: `Run takes a research question through every stage: clarification,
decomposition, strategy, parallel research, fact-checking, synthesis, and
review. The final paper is printed to stdout; progress goes to stderr.

A stage that fails does not stop the run. Its error is written under
diagnostics/ and later stages work with whatever input exists.`,
	Args: cobra.ArbitraryArgs,
	RunE: runPipeline,
}

func runPipeline(cmd *cobra.Command, args []string) error {
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return errors.New("a research question is required")
	}

	cfg, err := loadPipelineConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	provider, cleanup, err := newSearchProvider(cfg.Search, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	client, err := newLLM(ctx, cfg.AI, logger)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	deps := pipeline.Deps{
		LLM:      client,
		Search:   provider,
		Metrics:  research.NewMetrics(reg),
		Observer: progressObserver(cmd.ErrOrStderr()),
		Logger:   logger,
	}
	if interactive, _ := cmd.Flags().GetBool("interactive"); interactive {
		deps.Answerer = newPromptAnswerer(cmd.InOrStdin(), cmd.ErrOrStderr())
	}

	res, runErr := pipeline.New(cfg, deps).Run(ctx, query)
	if err := saveOutputs(cmd, cfg, res, reg); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}

	fmt.Fprint(cmd.OutOrStdout(), res.Store.Get(vfs.FinalPaperFile, ""))
	return nil
}

// saveOutputs writes the store, archive entry, and metrics file that the
// flags ask for. It runs even for interrupted runs so partial work is kept.
func saveOutputs(cmd *cobra.Command, cfg types.PipelineConfig, res pipeline.Result, reg *prometheus.Registry) error {
	if res.Store == nil {
		return nil
	}
	if dir, _ := cmd.Flags().GetString("output-dir"); dir != "" {
		if err := vfs.WriteDir(res.Store, dir); err != nil {
			return fmt.Errorf("writing output directory: %w", err)
		}
		logger.Info("wrote run files", zap.String("dir", dir), zap.Int("files", res.Store.Len()))
	}

	if save, _ := cmd.Flags().GetBool("archive"); save {
		a, err := archive.Open(cfg.Archive)
		if err != nil {
			return err
		}
		defer a.Close()
		id, err := a.Save(context.Background(), res.Manifest, res.Store)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "archived run %s\n", id)
	}

	if path, _ := cmd.Flags().GetString("metrics-file"); path != "" {
		if err := prometheus.WriteToTextfile(path, reg); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
	}
	return nil
}

// addResearchFlags registers the flags shared by run and research.
func addResearchFlags(cmd *cobra.Command) {
	cmd.Flags().Int("concurrency", types.DefaultConcurrency, "research tasks run at once")
	cmd.Flags().Int("max-results", types.DefaultMaxResults, "results kept per sub-query when the plan sets none")
	cmd.Flags().Float64("min-score", types.DefaultMinScore, "drop results scoring below this")
	cmd.Flags().Int("max-search-calls", types.DefaultMaxSearchCalls, "provider calls per sub-query, retries included")
	cmd.Flags().String("provider", string(types.ProviderTavily), "search provider: tavily, arxiv, or both")
	cmd.Flags().String("llm", string(types.LLMClaude), "model backend: claude or gemini")
	cmd.Flags().String("model", "", "model identifier (default depends on --llm)")
	cmd.Flags().String("redis-addr", "", "Redis address for the search cache (disabled when empty)")
	cmd.Flags().String("output-dir", "", "write the final file store to this directory")
	cmd.Flags().String("metrics-file", "", "write Prometheus metrics in text format to this file")
}

// bindResearchFlags binds the shared flags of the command about to run.
// Binding happens at run time because run and research define flags with
// the same names.
func bindResearchFlags(cmd *cobra.Command) {
	bindFlags(cmd.Flags(), map[string]string{
		"concurrency":      "research.concurrency",
		"max-results":      "research.max_results",
		"min-score":        "research.min_score",
		"max-search-calls": "research.max_search_calls",
		"provider":         "search.provider",
		"llm":              "ai.backend",
		"model":            "ai.model",
		"redis-addr":       "search.redis_addr",
	})
}

func init() {
	addResearchFlags(runCmd)
	runCmd.Flags().Bool("interactive", false, "answer clarifying questions on stdin")
	runCmd.Flags().Bool("archive", false, "save the run in the archive")
	runCmd.PreRun = func(cmd *cobra.Command, args []string) { bindResearchFlags(cmd) }

	rootCmd.AddCommand(runCmd)
}
