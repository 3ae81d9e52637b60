// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/Akshath47/deep-research/internal/pipeline"
	"github.com/Akshath47/deep-research/internal/research"
	"github.com/Akshath47/deep-research/internal/vfs"
)

var researchCmd = &cobra.Command{
	Use:   "research",
	Short: "Run only the parallel research stage over a saved store",
	Long: `Research loads a file store from --input-dir, runs one research task per
entry of subqueries.json (using research_plan.json when present), and writes
the merged store back. Use --output-dir to write somewhere else.

Failed tasks leave raw_data/subquery{i}_error.txt and do not stop the others.`,
	RunE: runResearch,
}

func runResearch(cmd *cobra.Command, args []string) error {
	inputDir, _ := cmd.Flags().GetString("input-dir")
	if inputDir == "" {
		return fmt.Errorf("--input-dir is required")
	}
	outputDir, _ := cmd.Flags().GetString("output-dir")
	if outputDir == "" {
		outputDir = inputDir
	}

	cfg, err := loadPipelineConfig()
	if err != nil {
		return err
	}

	store, err := vfs.ReadDir(inputDir)
	if err != nil {
		return err
	}
	if !store.Has(vfs.SubqueriesFile) {
		return fmt.Errorf("%s has no %s", inputDir, vfs.SubqueriesFile)
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
	hub := pipeline.NewHub(cfg, pipeline.Deps{
		LLM:     client,
		Search:  provider,
		Metrics: research.NewMetrics(reg),
		Logger:  logger,
	})
	merged, rep := hub.Research(ctx, store)

	if err := vfs.WriteDir(merged, outputDir); err != nil {
		return fmt.Errorf("writing output directory: %w", err)
	}
	if path, _ := cmd.Flags().GetString("metrics-file"); path != "" {
		if err := prometheus.WriteToTextfile(path, reg); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "tasks: %d, failed: %d, duration: %s\n", rep.Tasks, rep.Failed, rep.Duration.Round(time.Millisecond))
	for _, i := range rep.FailedIndexes() {
		fmt.Fprintf(out, "  failed: sub-query %d (see %s)\n", i, vfs.ErrorPath(i))
	}
	return ctx.Err()
}

func init() {
	addResearchFlags(researchCmd)
	researchCmd.Flags().String("input-dir", "", "directory holding the file store (subqueries.json required)")
	researchCmd.PreRun = func(cmd *cobra.Command, args []string) { bindResearchFlags(cmd) }

	rootCmd.AddCommand(researchCmd)
}
