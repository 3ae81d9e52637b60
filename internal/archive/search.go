// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"context"
	"fmt"
	"strings"
)

// SearchOptions holds parameters for archive searches.
type SearchOptions struct {
	// Query is the FTS5 full-text search string.
	Query string

	// RunID restricts hits to one run.
	RunID string

	// PathPrefix restricts hits to documents under a path such as
	// "summaries/".
	PathPrefix string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// Hit is a document that matched a search.
type Hit struct {
	RunID    string  `json:"run_id" yaml:"run_id"`
	RunQuery string  `json:"run_query" yaml:"run_query"`
	Path     string  `json:"path" yaml:"path"`
	Snippet  string  `json:"snippet" yaml:"snippet"`
	Rank     float64 `json:"rank" yaml:"rank"`
}

// Search runs a full-text query over archived documents, best match first.
func (s *Store) Search(ctx context.Context, opts SearchOptions) ([]Hit, error) {
	if strings.TrimSpace(opts.Query) == "" {
		return nil, fmt.Errorf("empty search query")
	}
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var qb strings.Builder
	qb.WriteString(
		`SELECT d.run_id, r.query, d.path,
			snippet(documents_fts, 1, '[', ']', '...', 16), documents_fts.rank
		FROM documents_fts
		JOIN documents d ON d.rowid = documents_fts.rowid
		JOIN runs r ON r.id = d.run_id
		WHERE documents_fts MATCH ?`)
	args := []any{opts.Query}

	if opts.RunID != "" {
		qb.WriteString(` AND d.run_id = ?`)
		args = append(args, opts.RunID)
	}
	if opts.PathPrefix != "" {
		qb.WriteString(` AND substr(d.path, 1, ?) = ?`)
		args = append(args, len(opts.PathPrefix), opts.PathPrefix)
	}
	qb.WriteString(` ORDER BY documents_fts.rank LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("searching archive: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var h Hit
		if err := rows.Scan(&h.RunID, &h.RunQuery, &h.Path, &h.Snippet, &h.Rank); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}
