// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive keeps completed research runs in a SQLite database. Each
// run stores its manifest and every document of its final store, and the
// documents are indexed with FTS5 for search across runs.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/Akshath47/deep-research/internal/vfs"
	"github.com/Akshath47/deep-research/pkg/types"
)

const dbFile = "runs.db"

// ErrRunNotFound is returned when no archived run matches an id.
var ErrRunNotFound = errors.New("run not found")

// Store manages the archive database.
type Store struct {
	db         *sql.DB
	dir        string
	maxResults int
}

// Open opens or creates the archive at cfg.Dir/runs.db.
func Open(cfg types.ArchiveConfig) (*Store, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = types.DefaultArchiveDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(dir, dbFile)+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = types.DefaultArchiveResults
	}

	s := &Store{db: db, dir: dir, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Dir returns the directory holding the database and exports.
func (s *Store) Dir() string { return s.dir }

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			query TEXT NOT NULL,
			started TEXT NOT NULL,
			finished TEXT,
			tasks INTEGER,
			failed_tasks INTEGER,
			manifest TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS documents (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			path TEXT NOT NULL,
			content TEXT NOT NULL,
			UNIQUE(run_id, path)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_run_id ON documents(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='documents_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}
	if ftsExists > 0 {
		return nil
	}

	ftsStatements := []string{
		`CREATE VIRTUAL TABLE documents_fts USING fts5(path, content, content=documents, content_rowid=rowid)`,
		`CREATE TRIGGER documents_ai AFTER INSERT ON documents BEGIN
			INSERT INTO documents_fts(rowid, path, content) VALUES (new.rowid, new.path, new.content);
		END`,
		`CREATE TRIGGER documents_ad AFTER DELETE ON documents BEGIN
			INSERT INTO documents_fts(documents_fts, rowid, path, content) VALUES('delete', old.rowid, old.path, old.content);
		END`,
		`CREATE TRIGGER documents_au AFTER UPDATE ON documents BEGIN
			INSERT INTO documents_fts(documents_fts, rowid, path, content) VALUES('delete', old.rowid, old.path, old.content);
			INSERT INTO documents_fts(rowid, path, content) VALUES (new.rowid, new.path, new.content);
		END`,
	}
	for _, stmt := range ftsStatements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("creating FTS infrastructure: %w", err)
		}
	}
	return nil
}

// Save archives a finished run. A run saved twice under the same id is
// replaced. The returned id is m.RunID, or a fresh one when m has none.
func (s *Store) Save(ctx context.Context, m types.RunManifest, store *vfs.Store) (string, error) {
	if m.RunID == "" {
		m.RunID = uuid.NewString()
	}
	if m.Started.IsZero() {
		m.Started = time.Now().UTC()
	}
	manifestJSON, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshaling manifest: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE run_id = ?`, m.RunID); err != nil {
		return "", fmt.Errorf("deleting old documents: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, query, started, finished, tasks, failed_tasks, manifest)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			query=excluded.query, started=excluded.started, finished=excluded.finished,
			tasks=excluded.tasks, failed_tasks=excluded.failed_tasks, manifest=excluded.manifest`,
		m.RunID, m.Query, formatTime(m.Started), formatTime(m.Finished),
		m.Tasks, m.FailedTasks, string(manifestJSON),
	)
	if err != nil {
		return "", fmt.Errorf("upserting run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO documents (run_id, path, content) VALUES (?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	if store != nil {
		for _, path := range store.Keys("") {
			if _, err := stmt.ExecContext(ctx, m.RunID, path, store.Get(path, "")); err != nil {
				return "", fmt.Errorf("inserting document %s: %w", path, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing run %s: %w", m.RunID, err)
	}
	return m.RunID, nil
}

// Run describes one archived run.
type Run struct {
	ID          string    `json:"id" yaml:"id"`
	Query       string    `json:"query" yaml:"query"`
	Started     time.Time `json:"started" yaml:"started"`
	Finished    time.Time `json:"finished" yaml:"finished"`
	Tasks       int       `json:"tasks" yaml:"tasks"`
	FailedTasks int       `json:"failed_tasks" yaml:"failed_tasks"`
	Documents   int       `json:"documents" yaml:"documents"`
}

// List returns archived runs, most recent first.
func (s *Store) List(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.query, r.started, r.finished, r.tasks, r.failed_tasks,
			(SELECT count(*) FROM documents d WHERE d.run_id = r.id)
		FROM runs r
		ORDER BY r.started DESC, r.id`)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r                 Run
			started, finished sql.NullString
			tasks, failed     sql.NullInt64
		)
		if err := rows.Scan(&r.ID, &r.Query, &started, &finished, &tasks, &failed, &r.Documents); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		r.Started = parseTime(started)
		r.Finished = parseTime(finished)
		r.Tasks = int(tasks.Int64)
		r.FailedTasks = int(failed.Int64)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Resolve expands a unique id prefix to a full run id.
func (s *Store) Resolve(ctx context.Context, idOrPrefix string) (string, error) {
	idOrPrefix = strings.TrimSpace(idOrPrefix)
	if idOrPrefix == "" {
		return "", ErrRunNotFound
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM runs WHERE id = ? OR substr(id, 1, ?) = ? ORDER BY id LIMIT 2`,
		idOrPrefix, len(idOrPrefix), idOrPrefix)
	if err != nil {
		return "", fmt.Errorf("resolving run %s: %w", idOrPrefix, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", fmt.Errorf("scanning row: %w", err)
		}
		if id == idOrPrefix {
			return id, nil
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	switch len(ids) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrRunNotFound, idOrPrefix)
	case 1:
		return ids[0], nil
	}
	return "", fmt.Errorf("run id prefix %s is ambiguous", idOrPrefix)
}

// Load rebuilds the store and manifest of an archived run.
func (s *Store) Load(ctx context.Context, runID string) (*vfs.Store, types.RunManifest, error) {
	var (
		m            types.RunManifest
		manifestJSON sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `SELECT manifest FROM runs WHERE id = ?`, runID).Scan(&manifestJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, m, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, m, fmt.Errorf("looking up run: %w", err)
	}
	if manifestJSON.Valid {
		if err := json.Unmarshal([]byte(manifestJSON.String), &m); err != nil {
			return nil, m, fmt.Errorf("decoding manifest of %s: %w", runID, err)
		}
	}

	rows, err := s.db.QueryContext(ctx, `SELECT path, content FROM documents WHERE run_id = ?`, runID)
	if err != nil {
		return nil, m, fmt.Errorf("loading documents: %w", err)
	}
	defer rows.Close()

	files := make(map[string]string)
	for rows.Next() {
		var path, content string
		if err := rows.Scan(&path, &content); err != nil {
			return nil, m, fmt.Errorf("scanning row: %w", err)
		}
		files[path] = content
	}
	if err := rows.Err(); err != nil {
		return nil, m, err
	}
	return vfs.FromMap(files), m, nil
}

// Document returns one document of an archived run.
func (s *Store) Document(ctx context.Context, runID, path string) (string, error) {
	var content string
	err := s.db.QueryRowContext(ctx,
		`SELECT content FROM documents WHERE run_id = ? AND path = ?`, runID, path,
	).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s has no document %s", ErrRunNotFound, runID, path)
	}
	if err != nil {
		return "", fmt.Errorf("looking up document: %w", err)
	}
	return content, nil
}

// Delete removes a run and its documents.
func (s *Store) Delete(ctx context.Context, runID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, runID)
	if err != nil {
		return fmt.Errorf("deleting run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s sql.NullString) time.Time {
	if !s.Valid || s.String == "" {
		return time.Time{}
	}
	t, _ := time.Parse(time.RFC3339Nano, s.String)
	return t
}
