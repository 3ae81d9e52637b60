// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/Akshath47/deep-research/internal/vfs"
	"github.com/Akshath47/deep-research/pkg/types"
)

// ExportEntry is one run in an export file.
type ExportEntry struct {
	Run        `yaml:",inline"`
	FinalPaper string      `json:"final_paper,omitempty" yaml:"final_paper,omitempty"`
	Gaps       []types.Gap `json:"gaps,omitempty" yaml:"gaps,omitempty"`
	Paths      []string    `json:"paths" yaml:"paths"`
}

// Export formats.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// Export writes every archived run to dir/export.<format> and returns the
// file path.
func (s *Store) Export(ctx context.Context, format string) (string, error) {
	entries, err := s.exportEntries(ctx)
	if err != nil {
		return "", err
	}

	var data []byte
	switch strings.ToLower(format) {
	case FormatYAML, "yml":
		format = FormatYAML
		data, err = yaml.Marshal(entries)
	case FormatJSON:
		data, err = json.MarshalIndent(entries, "", "  ")
	default:
		return "", fmt.Errorf("unsupported export format %q", format)
	}
	if err != nil {
		return "", fmt.Errorf("marshaling %s: %w", format, err)
	}

	path := filepath.Join(s.dir, "export."+format)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

func (s *Store) exportEntries(ctx context.Context) ([]ExportEntry, error) {
	runs, err := s.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing runs for export: %w", err)
	}

	entries := make([]ExportEntry, len(runs))
	for i, r := range runs {
		store, _, err := s.Load(ctx, r.ID)
		if err != nil {
			return nil, fmt.Errorf("loading run %s for export: %w", r.ID, err)
		}
		entries[i] = ExportEntry{
			Run:        r,
			FinalPaper: store.Get(vfs.FinalPaperFile, ""),
			Paths:      store.Keys(""),
		}
		var gaps types.GapList
		if err := store.GetJSON(vfs.GapListFile, &gaps); err == nil {
			entries[i].Gaps = gaps.Gaps
		}
	}
	return entries, nil
}
