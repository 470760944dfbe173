// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package notesync writes one Markdown file per remote note: frontmatter,
// the rendered notes panel, and the speaker-attributed transcript.
//
// A note whose file already exists is considered synced and is neither
// fetched nor rewritten; the file on disk is the only sync record. A run
// killed mid-write leaves a partial file that later runs will skip.
package notesync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pdiddy/granola-sync/internal/httputil"
	"github.com/pdiddy/granola-sync/internal/people"
	"github.com/pdiddy/granola-sync/internal/prosemirror"
	"github.com/pdiddy/granola-sync/internal/transcript"
	"github.com/pdiddy/granola-sync/pkg/types"
)

const (
	// UnknownDate and UnknownYear bucket notes without a usable timestamp.
	UnknownDate = "0000-00-00"
	UnknownYear = "Unknown_Year"
)

// sleep is replaced in tests to observe the courtesy pause.
var sleep = time.Sleep

// ErrNoID is returned for document records without an identifier.
var ErrNoID = errors.New("document has no id")

// Outcome is the terminal state of one document in a run.
type Outcome string

const (
	OutcomeWritten Outcome = "written"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// TranscriptSource fetches the transcript of one document.
type TranscriptSource interface {
	Transcript(ctx context.Context, documentID string) ([]types.Segment, error)
}

// Source lists documents and fetches their transcripts.
type Source interface {
	TranscriptSource
	Documents(ctx context.Context, limit int) ([]types.Document, error)
}

// Target is where a document lands on disk, derived fresh every run.
type Target struct {
	DocumentID string
	Title      string
	CreatedAt  string
	DatePrefix string
	YearFolder string
	Dir        string
	Path       string
}

// NewTarget derives the output location of doc under outputDir. The path
// is <outputDir>/<year>/<YYYY-MM-DD> <sanitized title>.md.
func NewTarget(doc types.Document, outputDir string) (Target, error) {
	id := doc.ID.Or("")
	if id == "" {
		return Target{}, ErrNoID
	}

	t := Target{
		DocumentID: id,
		Title:      doc.DisplayTitle(),
		CreatedAt:  doc.CreatedAt.Or(""),
		DatePrefix: UnknownDate,
		YearFolder: UnknownYear,
	}
	if ts, ok := parseTimestamp(t.CreatedAt); ok {
		t.DatePrefix = ts.Format("2006-01-02")
		t.YearFolder = strconv.Itoa(ts.Year())
	}

	t.Dir = filepath.Join(outputDir, t.YearFolder)
	t.Path = filepath.Join(t.Dir, t.FileName())
	return t, nil
}

// FileName returns the base name of the target file.
func (t Target) FileName() string {
	return t.DatePrefix + " " + SanitizeFilename(t.Title) + ".md"
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// parseTimestamp accepts ISO-8601 timestamps with or without offset. The
// date keeps the timestamp's own offset.
func parseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// NotesMarkdown renders the last viewed panel of doc. A missing panel, or
// one whose content is not a document node, yields no notes.
func NotesMarkdown(doc types.Document) string {
	panel, ok := doc.LastViewedPanel.Get()
	if !ok {
		return ""
	}
	content, ok := panel.Content.Get()
	if !ok || content.Type != types.NodeDoc {
		return ""
	}
	return prosemirror.Render(content)
}

// SyncDocument brings one document to a terminal outcome. Existing files
// are skipped without fetching the transcript. A transcript that is
// missing or fails to load is omitted, not treated as a failure.
func SyncDocument(ctx context.Context, src TranscriptSource, doc types.Document, cfg types.SyncConfig, w io.Writer) (Outcome, error) {
	target, err := NewTarget(doc, cfg.OutputDir)
	if err != nil {
		return OutcomeFailed, err
	}

	if err := os.MkdirAll(target.Dir, 0o755); err != nil {
		return OutcomeFailed, fmt.Errorf("creating directory %s: %w", target.Dir, err)
	}

	if _, err := os.Stat(target.Path); err == nil {
		fmt.Fprintf(w, "skipped: %s (already exists)\n", target.FileName())
		return OutcomeSkipped, nil
	}

	fmt.Fprintf(w, "downloading: %s\n", target.Title)

	notes := NotesMarkdown(doc)

	segments, err := src.Transcript(ctx, target.DocumentID)
	if err != nil {
		if !errors.Is(err, httputil.ErrNotFound) {
			fmt.Fprintf(w, "  warning: %v\n", err)
		}
		segments = nil
	}

	participants := people.Extract(doc.People)
	transcriptBlock := transcript.Format(segments, participants.Creator.Name, participants.AttendeeNames())
	if cfg.Delay > 0 {
		sleep(cfg.Delay)
	}

	content := Frontmatter(target.DocumentID, target.Title, target.CreatedAt, participants) +
		notes + transcriptBlock

	if err := os.WriteFile(target.Path, []byte(content), 0o644); err != nil {
		return OutcomeFailed, fmt.Errorf("writing %s: %w", target.FileName(), err)
	}

	fmt.Fprintf(w, "written: %s\n", target.Path)
	return OutcomeWritten, nil
}

// BatchResult holds the outcome of a sync run.
type BatchResult struct {
	Written int
	Skipped int
	Failed  int
}

// Total returns the number of documents processed.
func (r BatchResult) Total() int {
	return r.Written + r.Skipped + r.Failed
}

// Saved returns the number of documents that are on disk after the run.
func (r BatchResult) Saved() int {
	return r.Written + r.Skipped
}

// HasFailures reports whether any document failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// SyncBatch syncs docs one at a time. A failure or panic while handling
// one document is reported with its title and the batch moves on.
func SyncBatch(ctx context.Context, src TranscriptSource, docs []types.Document, cfg types.SyncConfig, w io.Writer) BatchResult {
	var result BatchResult
	for _, doc := range docs {
		outcome, err := syncIsolated(ctx, src, doc, cfg, w)
		if err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", doc.DisplayTitle(), err)
		}
		switch outcome {
		case OutcomeWritten:
			result.Written++
		case OutcomeSkipped:
			result.Skipped++
		default:
			result.Failed++
		}
	}
	fmt.Fprintf(w, "\nBatch summary: %d written, %d skipped, %d failed (total: %d)\n",
		result.Written, result.Skipped, result.Failed, result.Total())
	return result
}

func syncIsolated(ctx context.Context, src TranscriptSource, doc types.Document, cfg types.SyncConfig, w io.Writer) (outcome Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			outcome = OutcomeFailed
			err = fmt.Errorf("unexpected error: %v", r)
		}
	}()
	return SyncDocument(ctx, src, doc, cfg, w)
}

// Run fetches the document list and syncs it. A failed list request is
// reported and treated as an empty batch.
func Run(ctx context.Context, src Source, cfg types.SyncConfig, w io.Writer) BatchResult {
	fmt.Fprintln(w, "Fetching document list...")
	docs, err := src.Documents(ctx, cfg.PageLimit)
	if err != nil {
		fmt.Fprintf(w, "API error: %v\n", err)
		docs = nil
	}
	fmt.Fprintf(w, "Found %d documents.\n", len(docs))

	result := SyncBatch(ctx, src, docs, cfg, w)
	fmt.Fprintf(w, "Sync complete. %d/%d notes saved to %s\n", result.Saved(), len(docs), cfg.OutputDir)
	return result
}
