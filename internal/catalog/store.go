// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog keeps a local SQLite index of the synced notes for
// listing and full-text search. It is rebuilt from the files on disk and
// is never consulted when deciding whether a note needs syncing.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/granola-sync/pkg/types"
)

const defaultMaxResults = 20

// Store manages the catalog database.
type Store struct {
	db         *sql.DB
	root       string
	maxResults int
}

// DefaultPath returns the catalog location used when none is configured.
func DefaultPath(outputDir string) string {
	return filepath.Join(outputDir, ".catalog", "notes.db")
}

// Open opens or creates the catalog at cfg.Path for the notes under root.
func Open(cfg types.CatalogConfig, root string) (*Store, error) {
	path := cfg.Path
	if path == "" {
		path = DefaultPath(root)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating catalog directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	s := &Store{db: db, root: root, maxResults: maxResults}
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

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS notes (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			path TEXT NOT NULL UNIQUE,
			granola_id TEXT NOT NULL,
			title TEXT,
			created_at TEXT,
			participants TEXT,
			body TEXT,
			file_mod_time TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notes_granola_id ON notes(granola_id)`,
		`CREATE INDEX IF NOT EXISTS idx_notes_created_at ON notes(created_at)`,
		`CREATE VIRTUAL TABLE IF NOT EXISTS notes_fts USING fts4(title, body)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// IndexSummary holds counts from one indexing pass.
type IndexSummary struct {
	Indexed int
	Updated int
	Skipped int
	Pruned  int
	Failed  int
}

// Total returns the number of files looked at.
func (s IndexSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// Index walks the notes directory and brings the catalog up to date.
// Files whose modification time is unchanged are skipped; rows whose file
// has disappeared are pruned. Hidden directories are not descended into.
func (s *Store) Index(ctx context.Context, w io.Writer) (IndexSummary, error) {
	var summary IndexSummary
	seen := map[string]bool{}

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != s.root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".md" {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, _ := filepath.Rel(s.root, path)
		seen[rel] = true

		info, err := d.Info()
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", rel, err)
			summary.Failed++
			return nil
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

		var stored string
		err = s.db.QueryRowContext(ctx,
			`SELECT file_mod_time FROM notes WHERE path = ?`, rel,
		).Scan(&stored)
		if err == nil && stored == modTime {
			summary.Skipped++
			return nil
		}
		isUpdate := err == nil

		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", rel, err)
			summary.Failed++
			return nil
		}
		note, err := ParseNote(data)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", rel, err)
			summary.Failed++
			return nil
		}
		note.Path = rel

		if err := s.upsert(ctx, note, modTime); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", rel, err)
			summary.Failed++
			return nil
		}
		if isUpdate {
			fmt.Fprintf(w, "updated %s\n", rel)
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexed %s\n", rel)
			summary.Indexed++
		}
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return summary, fmt.Errorf("walking %s: %w", s.root, err)
	}

	pruned, err := s.prune(ctx, seen)
	if err != nil {
		return summary, err
	}
	summary.Pruned = pruned

	fmt.Fprintf(w, "\ncatalog: %d indexed, %d updated, %d skipped, %d pruned, %d failed\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Pruned, summary.Failed)
	return summary, nil
}

func (s *Store) upsert(ctx context.Context, n Note, modTime string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	participants, _ := json.Marshal(n.Participants)
	_, err = tx.ExecContext(ctx,
		`INSERT INTO notes (path, granola_id, title, created_at, participants, body, file_mod_time)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET
			granola_id=excluded.granola_id, title=excluded.title, created_at=excluded.created_at,
			participants=excluded.participants, body=excluded.body, file_mod_time=excluded.file_mod_time`,
		n.Path, n.ID, n.Title, n.CreatedAt, string(participants), n.Body, modTime,
	)
	if err != nil {
		return fmt.Errorf("upserting note: %w", err)
	}

	var rowid int64
	if err := tx.QueryRowContext(ctx, `SELECT rowid FROM notes WHERE path = ?`, n.Path).Scan(&rowid); err != nil {
		return fmt.Errorf("reading note rowid: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM notes_fts WHERE docid = ?`, rowid); err != nil {
		return fmt.Errorf("clearing search entry: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO notes_fts (docid, title, body) VALUES (?, ?, ?)`, rowid, n.Title, n.Body,
	); err != nil {
		return fmt.Errorf("inserting search entry: %w", err)
	}
	return tx.Commit()
}

// prune removes rows whose file was not seen during the walk.
func (s *Store) prune(ctx context.Context, seen map[string]bool) (int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT rowid, path FROM notes`)
	if err != nil {
		return 0, fmt.Errorf("listing notes: %w", err)
	}
	var stale []int64
	for rows.Next() {
		var (
			rowid int64
			path  string
		)
		if err := rows.Scan(&rowid, &path); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scanning note: %w", err)
		}
		if !seen[path] {
			stale = append(stale, rowid)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("listing notes: %w", err)
	}

	for _, rowid := range stale {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM notes_fts WHERE docid = ?`, rowid); err != nil {
			return 0, fmt.Errorf("pruning search entry: %w", err)
		}
		if _, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE rowid = ?`, rowid); err != nil {
			return 0, fmt.Errorf("pruning note: %w", err)
		}
	}
	return len(stale), nil
}
