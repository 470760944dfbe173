// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/pdiddy/granola-sync/pkg/types"
)

// Result is one catalog row returned by List or Search.
type Result struct {
	Note
	// Snippet is the matching excerpt for full-text searches.
	Snippet string `json:"snippet,omitempty"`
}

// Search runs a full-text query over note titles and bodies, newest
// notes first. A limit of zero uses the store default.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if query == "" {
		return nil, fmt.Errorf("empty search query")
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT n.granola_id, n.title, n.created_at, n.path, n.participants,
			snippet(notes_fts, '[', ']', '...', -1, 12)
		FROM notes_fts
		JOIN notes n ON n.rowid = notes_fts.docid
		WHERE notes_fts MATCH ?
		ORDER BY n.created_at DESC, n.path
		LIMIT ?`,
		query, s.limit(limit))
	if err != nil {
		return nil, fmt.Errorf("searching catalog: %w", err)
	}
	defer rows.Close()
	return scanResults(rows, true)
}

// List returns catalogued notes, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Result, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT granola_id, title, created_at, path, participants
		FROM notes
		ORDER BY created_at DESC, path
		LIMIT ?`,
		s.limit(limit))
	if err != nil {
		return nil, fmt.Errorf("listing catalog: %w", err)
	}
	defer rows.Close()
	return scanResults(rows, false)
}

func (s *Store) limit(n int) int {
	if n <= 0 {
		return s.maxResults
	}
	return n
}

func scanResults(rows *sql.Rows, withSnippet bool) ([]Result, error) {
	var results []Result
	for rows.Next() {
		var (
			r            Result
			title        sql.NullString
			createdAt    sql.NullString
			participants sql.NullString
		)
		dest := []any{&r.ID, &title, &createdAt, &r.Path, &participants}
		if withSnippet {
			dest = append(dest, &r.Snippet)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning result: %w", err)
		}
		r.Title = title.String
		r.CreatedAt = createdAt.String
		if participants.Valid {
			var people []types.Person
			if err := json.Unmarshal([]byte(participants.String), &people); err == nil {
				r.Participants = people
			}
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
