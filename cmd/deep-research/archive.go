// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Akshath47/deep-research/internal/archive"
	"github.com/Akshath47/deep-research/internal/vfs"
	"github.com/Akshath47/deep-research/pkg/types"
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Browse saved research runs (list, show, search, export)",
	Long: `Archive manages the local SQLite archive of runs saved with
"deep-research run --archive". Every document of a run is indexed for
full-text search.`,
}

var archiveListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived runs, most recent first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withArchive(func(ctx context.Context, a *archive.Store) error {
			runs, err := a.List(ctx)
			if err != nil {
				return err
			}
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return writeJSON(cmd.OutOrStdout(), runs)
			}
			return formatRuns(cmd.OutOrStdout(), runs)
		})
	},
}

var archiveShowCmd = &cobra.Command{
	Use:   "show RUN",
	Short: "Print a document of an archived run",
	Long: `Show prints one document of an archived run, final_paper.md by default.
RUN may be any unique prefix of the run id. Use --path to pick another
document, or --list to print every path in the run.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withArchive(func(ctx context.Context, a *archive.Store) error {
			id, err := a.Resolve(ctx, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if list, _ := cmd.Flags().GetBool("list"); list {
				store, _, err := a.Load(ctx, id)
				if err != nil {
					return err
				}
				for _, p := range store.Keys("") {
					fmt.Fprintln(out, p)
				}
				return nil
			}
			path, _ := cmd.Flags().GetString("path")
			content, err := a.Document(ctx, id, path)
			if err != nil {
				return err
			}
			fmt.Fprint(out, content)
			return nil
		})
	},
}

var archiveSearchCmd = &cobra.Command{
	Use:   "search QUERY",
	Short: "Full-text search across archived documents",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := archive.SearchOptions{Query: strings.Join(args, " ")}
		opts.RunID, _ = cmd.Flags().GetString("run")
		opts.PathPrefix, _ = cmd.Flags().GetString("prefix")
		opts.MaxResults, _ = cmd.Flags().GetInt("limit")

		return withArchive(func(ctx context.Context, a *archive.Store) error {
			if opts.RunID != "" {
				id, err := a.Resolve(ctx, opts.RunID)
				if err != nil {
					return err
				}
				opts.RunID = id
			}
			hits, err := a.Search(ctx, opts)
			if err != nil {
				return err
			}
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return writeJSON(cmd.OutOrStdout(), hits)
			}
			return formatHits(cmd.OutOrStdout(), hits)
		})
	},
}

var archiveExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the archive to YAML or JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		return withArchive(func(ctx context.Context, a *archive.Store) error {
			path, err := a.Export(ctx, format)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", path)
			return nil
		})
	},
}

func withArchive(fn func(context.Context, *archive.Store) error) error {
	cfg := types.PipelineConfig{Archive: types.ArchiveConfig{
		Dir:        viper.GetString("archive.dir"),
		MaxResults: viper.GetInt("archive.max_results"),
	}}
	cfg.ApplyDefaults()
	a, err := archive.Open(cfg.Archive)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(context.Background(), a)
}

func formatRuns(w io.Writer, runs []archive.Run) error {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No archived runs.")
		return nil
	}
	fmt.Fprintf(w, "%-36s  %-16s  %-5s  %-6s  %s\n", "ID", "Started", "Tasks", "Failed", "Query")
	fmt.Fprintln(w, strings.Repeat("-", 100))
	for _, r := range runs {
		fmt.Fprintf(w, "%-36s  %-16s  %-5d  %-6d  %s\n",
			r.ID, r.Started.Local().Format("2006-01-02 15:04"), r.Tasks, r.FailedTasks, truncate(r.Query, 40))
	}
	fmt.Fprintf(w, "\n%d runs\n", len(runs))
	return nil
}

func formatHits(w io.Writer, hits []archive.Hit) error {
	if len(hits) == 0 {
		fmt.Fprintln(w, "No results found.")
		return nil
	}
	for i, h := range hits {
		fmt.Fprintf(w, "%d. %s  %s\n   %s\n", i+1, shortID(h.RunID), h.Path, strings.Join(strings.Fields(h.Snippet), " "))
	}
	fmt.Fprintf(w, "\n%d results\n", len(hits))
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	archiveCmd.PersistentFlags().String("archive-dir", "", "archive directory (default \"archive\")")
	bindFlags(archiveCmd.PersistentFlags(), map[string]string{"archive-dir": "archive.dir"})

	archiveListCmd.Flags().Bool("json", false, "output runs as JSON")

	archiveShowCmd.Flags().String("path", vfs.FinalPaperFile, "document to print")
	archiveShowCmd.Flags().Bool("list", false, "list document paths instead")

	archiveSearchCmd.Flags().String("run", "", "restrict to one run (id or prefix)")
	archiveSearchCmd.Flags().String("prefix", "", "restrict to paths with this prefix, e.g. summaries/")
	archiveSearchCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	archiveSearchCmd.Flags().Bool("json", false, "output results as JSON")

	archiveExportCmd.Flags().String("format", archive.FormatYAML, "export format: yaml or json")

	archiveCmd.AddCommand(archiveListCmd)
	archiveCmd.AddCommand(archiveShowCmd)
	archiveCmd.AddCommand(archiveSearchCmd)
	archiveCmd.AddCommand(archiveExportCmd)

	rootCmd.AddCommand(archiveCmd)
}
