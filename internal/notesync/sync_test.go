// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package notesync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/granola-sync/internal/httputil"
	"github.com/pdiddy/granola-sync/pkg/types"
)

// fakeSource serves canned documents and transcripts and counts fetches.
type fakeSource struct {
	docs        []types.Document
	docsErr     error
	transcripts map[string][]types.Segment
	errs        map[string]error
	panics      map[string]bool
	fetches     map[string]int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		transcripts: map[string][]types.Segment{},
		errs:        map[string]error{},
		panics:      map[string]bool{},
		fetches:     map[string]int{},
	}
}

func (f *fakeSource) Documents(_ context.Context, _ int) ([]types.Document, error) {
	return f.docs, f.docsErr
}

func (f *fakeSource) Transcript(_ context.Context, id string) ([]types.Segment, error) {
	f.fetches[id]++
	if f.panics[id] {
		panic("boom")
	}
	if err, ok := f.errs[id]; ok {
		return nil, err
	}
	segs, ok := f.transcripts[id]
	if !ok {
		return nil, fmt.Errorf("transcript %s: %w", id, httputil.ErrNotFound)
	}
	return segs, nil
}

func (f *fakeSource) totalFetches() int {
	n := 0
	for _, c := range f.fetches {
		n += c
	}
	return n
}

func mustDoc(t *testing.T, s string) types.Document {
	t.Helper()
	var d types.Document
	require.NoError(t, json.Unmarshal([]byte(s), &d))
	return d
}

func testConfig(dir string) types.SyncConfig {
	return types.SyncConfig{OutputDir: dir, PageLimit: 100}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestNewTarget(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		wantPath string
	}{
		{"utc timestamp", `{"id": "d1", "title": "Team Sync", "created_at": "2025-03-04T10:00:00Z"}`, "2025/2025-03-04 Team Sync.md"},
		{"fractional seconds and offset", `{"id": "d1", "title": "T", "created_at": "2024-12-31T23:30:00.123+09:00"}`, "2024/2024-12-31 T.md"},
		{"naive timestamp", `{"id": "d1", "title": "T", "created_at": "2023-07-01T08:00:00"}`, "2023/2023-07-01 T.md"},
		{"date only", `{"id": "d1", "title": "T", "created_at": "2022-02-02"}`, "2022/2022-02-02 T.md"},
		{"missing timestamp", `{"id": "d1", "title": "T"}`, "Unknown_Year/0000-00-00 T.md"},
		{"unparsable timestamp", `{"id": "d1", "title": "T", "created_at": "yesterday"}`, "Unknown_Year/0000-00-00 T.md"},
		{"missing title", `{"id": "d1", "created_at": "2025-01-01T00:00:00Z"}`, "2025/2025-01-01 Untitled.md"},
		{"title sanitized", `{"id": "d1", "title": "Q3:Plan/Review <> Ops", "created_at": "2025-01-01T00:00:00Z"}`, "2025/2025-01-01 Q3Plan-Review and Ops.md"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, err := NewTarget(mustDoc(t, tt.doc), "/out")
			require.NoError(t, err)
			assert.Equal(t, filepath.Join("/out", tt.wantPath), target.Path)
		})
	}
}

func TestNewTargetRequiresID(t *testing.T) {
	for _, doc := range []string{`{"title": "x"}`, `{"id": ""}`, `{"id": 12}`} {
		_, err := NewTarget(mustDoc(t, doc), "/out")
		assert.ErrorIs(t, err, ErrNoID, doc)
	}
}

func TestNotesMarkdown(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"no panel", `{"id": "d"}`, ""},
		{"panel is not an object", `{"last_viewed_panel": "x"}`, ""},
		{"panel without content", `{"last_viewed_panel": {}}`, ""},
		{"content is not a doc node", `{"last_viewed_panel": {"content": {"type": "paragraph", "content": [{"type": "text", "text": "x"}]}}}`, ""},
		{"malformed content", `{"last_viewed_panel": {"content": {"type": "doc", "content": "oops"}}}`, ""},
		{"doc content", `{"last_viewed_panel": {"content": {"type": "doc", "content": [{"type": "paragraph", "content": [{"type": "text", "text": "hi"}]}]}}}`, "hi\n\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NotesMarkdown(mustDoc(t, tt.doc)))
		})
	}
}

func TestSyncDocumentEndToEnd(t *testing.T) {
	dir := t.TempDir()
	src := newFakeSource()
	src.transcripts["d1"] = []types.Segment{{Source: "microphone", Text: "Hi"}}

	doc := mustDoc(t, `{
	  "id": "d1",
	  "title": "Team Sync",
	  "created_at": "2025-03-04T10:00:00Z",
	  "people": {"creator": {"name": "Me"}, "attendees": []},
	  "last_viewed_panel": {"content": {"type": "doc", "content": []}}
	}`)

	var buf bytes.Buffer
	outcome, err := SyncDocument(context.Background(), src, doc, testConfig(dir), &buf)
	require.NoError(t, err)
	assert.Equal(t, OutcomeWritten, outcome)

	got := readFile(t, filepath.Join(dir, "2025", "2025-03-04 Team Sync.md"))
	want := "---\n" +
		"granola_id: d1\n" +
		"title: \"Team Sync\"\n" +
		"created_at: 2025-03-04T10:00:00Z\n" +
		"participants:\n" +
		"  - name: \"Me\"\n" +
		"---\n\n" +
		"\n\n---\n## Full Transcript\n\n" +
		"**Me**: Hi"
	assert.Equal(t, want, got)
	assert.Contains(t, buf.String(), "downloading: Team Sync")
}

func TestSyncDocumentNotesAndSpeakers(t *testing.T) {
	dir := t.TempDir()
	src := newFakeSource()
	src.transcripts["d7"] = []types.Segment{
		{Source: "microphone", Text: "Kickoff"},
		{Source: "system", Text: "Sounds good"},
	}

	doc := mustDoc(t, `{
	  "id": "d7",
	  "title": "1:1",
	  "created_at": "2025-06-01T09:00:00Z",
	  "people": {
	    "creator": {"name": "Ada", "email": "ada@example.com"},
	    "attendees": [{"email": "bob@example.com", "details": {"person": {"name": {"fullName": "Bob Stone"}}}}]
	  },
	  "last_viewed_panel": {"content": {"type": "doc", "content": [
	    {"type": "heading", "attrs": {"level": 2}, "content": [{"type": "text", "text": "Notes"}]}
	  ]}}
	}`)

	outcome, err := SyncDocument(context.Background(), src, doc, testConfig(dir), &bytes.Buffer{})
	require.NoError(t, err)
	require.Equal(t, OutcomeWritten, outcome)

	got := readFile(t, filepath.Join(dir, "2025", "2025-06-01 11.md"))
	assert.Contains(t, got, "title: \"1:1\"\n")
	assert.Contains(t, got, "  - name: \"Ada\"\n    email: \"ada@example.com\"\n  - name: \"Bob Stone\"\n    email: \"bob@example.com\"\n")
	assert.True(t, strings.HasSuffix(got,
		"---\n\n## Notes\n\n\n\n---\n## Full Transcript\n\n**Ada**: Kickoff\n\n**Bob Stone**: Sounds good"))
}

func TestSyncDocumentTranscriptDegrades(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(f *fakeSource)
		wantWarning bool
	}{
		{"not found", func(f *fakeSource) {}, false},
		{"fetch error", func(f *fakeSource) { f.errs["d1"] = errors.New("connection reset") }, true},
		{"all segments empty", func(f *fakeSource) { f.transcripts["d1"] = []types.Segment{{Source: "system"}} }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			src := newFakeSource()
			tt.setup(src)

			var buf bytes.Buffer
			doc := mustDoc(t, `{"id": "d1", "title": "T", "created_at": "2025-01-02T00:00:00Z"}`)
			outcome, err := SyncDocument(context.Background(), src, doc, testConfig(dir), &buf)
			require.NoError(t, err)
			assert.Equal(t, OutcomeWritten, outcome)

			got := readFile(t, filepath.Join(dir, "2025", "2025-01-02 T.md"))
			assert.NotContains(t, got, "Full Transcript")
			assert.True(t, strings.HasSuffix(got, "---\n\n"))
			assert.Equal(t, tt.wantWarning, strings.Contains(buf.String(), "warning:"))
		})
	}
}

func TestSyncDocumentUnknownYear(t *testing.T) {
	dir := t.TempDir()
	doc := mustDoc(t, `{"id": "d1", "title": "Loose Notes"}`)

	outcome, err := SyncDocument(context.Background(), newFakeSource(), doc, testConfig(dir), &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, OutcomeWritten, outcome)
	assert.FileExists(t, filepath.Join(dir, "Unknown_Year", "0000-00-00 Loose Notes.md"))
}

func TestSyncDocumentSkipsExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "2025", "2025-03-04 Team Sync.md")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("local edits"), 0o644))

	src := newFakeSource()
	src.transcripts["d1"] = []types.Segment{{Source: "microphone", Text: "Hi"}}
	doc := mustDoc(t, `{"id": "d1", "title": "Team Sync", "created_at": "2025-03-04T10:00:00Z"}`)

	var buf bytes.Buffer
	outcome, err := SyncDocument(context.Background(), src, doc, testConfig(dir), &buf)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, outcome)
	assert.Equal(t, 0, src.totalFetches(), "skipped documents must not fetch a transcript")
	assert.Equal(t, "local edits", readFile(t, path))
	assert.Contains(t, buf.String(), "skipped: 2025-03-04 Team Sync.md (already exists)")
}

func TestSyncDocumentFailures(t *testing.T) {
	t.Run("missing id", func(t *testing.T) {
		src := newFakeSource()
		outcome, err := SyncDocument(context.Background(), src, mustDoc(t, `{"title": "x"}`), testConfig(t.TempDir()), &bytes.Buffer{})
		assert.Equal(t, OutcomeFailed, outcome)
		assert.ErrorIs(t, err, ErrNoID)
		assert.Equal(t, 0, src.totalFetches())
	})

	t.Run("year folder cannot be created", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "2025"), []byte("not a dir"), 0o644))

		doc := mustDoc(t, `{"id": "d1", "title": "T", "created_at": "2025-01-01T00:00:00Z"}`)
		outcome, err := SyncDocument(context.Background(), newFakeSource(), doc, testConfig(dir), &bytes.Buffer{})
		assert.Equal(t, OutcomeFailed, outcome)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "creating directory")
	})

	t.Run("write fails", func(t *testing.T) {
		dir := t.TempDir()
		title := strings.Repeat("x", 300)
		doc := mustDoc(t, `{"id": "d1", "title": "`+title+`", "created_at": "2025-01-01T00:00:00Z"}`)

		outcome, err := SyncDocument(context.Background(), newFakeSource(), doc, testConfig(dir), &bytes.Buffer{})
		assert.Equal(t, OutcomeFailed, outcome)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "writing")
	})
}

func TestSyncDocumentDelay(t *testing.T) {
	var slept []time.Duration
	orig := sleep
	sleep = func(d time.Duration) { slept = append(slept, d) }
	defer func() { sleep = orig }()

	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.Delay = 100 * time.Millisecond
	doc := mustDoc(t, `{"id": "d1", "title": "T", "created_at": "2025-01-01T00:00:00Z"}`)

	_, err := SyncDocument(context.Background(), newFakeSource(), doc, cfg, &bytes.Buffer{})
	require.NoError(t, err)
	_, err = SyncDocument(context.Background(), newFakeSource(), doc, cfg, &bytes.Buffer{})
	require.NoError(t, err)

	// Only the downloaded document pauses; the skipped one does not.
	assert.Equal(t, []time.Duration{100 * time.Millisecond}, slept)
}

func TestSyncBatchIsolatesFailures(t *testing.T) {
	dir := t.TempDir()
	src := newFakeSource()
	src.panics["bad"] = true
	src.transcripts["ok2"] = []types.Segment{{Source: "microphone", Text: "still here"}}

	docs := []types.Document{
		mustDoc(t, `{"id": "ok1", "title": "First", "created_at": "2025-01-01T00:00:00Z"}`),
		mustDoc(t, `{"title": "No Id"}`),
		mustDoc(t, `{"id": "bad", "title": "Explodes", "created_at": "2025-01-01T00:00:00Z"}`),
		mustDoc(t, `{"id": "ok2", "title": "Second", "created_at": "2025-01-01T00:00:00Z"}`),
	}

	var buf bytes.Buffer
	result := SyncBatch(context.Background(), src, docs, testConfig(dir), &buf)

	assert.Equal(t, 2, result.Written)
	assert.Equal(t, 0, result.Skipped)
	assert.Equal(t, 2, result.Failed)
	assert.Equal(t, 4, result.Total())
	assert.True(t, result.HasFailures())

	out := buf.String()
	assert.Contains(t, out, "failed:  No Id (document has no id)")
	assert.Contains(t, out, "failed:  Explodes (unexpected error: boom)")
	assert.Contains(t, out, "Batch summary: 2 written, 0 skipped, 2 failed (total: 4)")
	assert.Contains(t, readFile(t, filepath.Join(dir, "2025", "2025-01-01 Second.md")), "**Me**: still here")
}

func TestSyncBatchOversizedHeadingLevel(t *testing.T) {
	dir := t.TempDir()
	src := newFakeSource()

	docs := []types.Document{
		mustDoc(t, `{"id": "deep", "title": "Deep", "created_at": "2025-01-01T00:00:00Z",
		  "last_viewed_panel": {"content": {"type": "doc", "content": [
		    {"type": "heading", "attrs": {"level": 1e11}, "content": [{"type": "text", "text": "Agenda"}]}
		  ]}}}`),
		mustDoc(t, `{"id": "ok", "title": "ok", "created_at": "2025-01-01T00:00:00Z"}`),
	}

	var buf bytes.Buffer
	result := SyncBatch(context.Background(), src, docs, testConfig(dir), &buf)

	assert.Equal(t, 2, result.Written)
	assert.False(t, result.HasFailures())
	assert.Contains(t, readFile(t, filepath.Join(dir, "2025", "2025-01-01 Deep.md")), "###### Agenda\n\n")
	assert.FileExists(t, filepath.Join(dir, "2025", "2025-01-01 ok.md"))
}

func TestRunIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	src := newFakeSource()
	src.docs = []types.Document{
		mustDoc(t, `{"id": "a", "title": "Alpha", "created_at": "2025-01-01T00:00:00Z"}`),
		mustDoc(t, `{"id": "b", "title": "Beta"}`),
	}
	src.transcripts["a"] = []types.Segment{{Source: "system", Text: "hello"}}

	first := Run(context.Background(), src, testConfig(dir), &bytes.Buffer{})
	assert.Equal(t, 2, first.Written)
	assert.Equal(t, 2, src.totalFetches())

	before := snapshot(t, dir)

	var buf bytes.Buffer
	second := Run(context.Background(), src, testConfig(dir), &buf)
	assert.Equal(t, 0, second.Written)
	assert.Equal(t, 2, second.Skipped)
	assert.Equal(t, 2, src.totalFetches(), "second run must not fetch transcripts")
	assert.Equal(t, before, snapshot(t, dir))
	assert.Contains(t, buf.String(), "Sync complete. 2/2 notes saved to "+dir)
}

func TestRunDocumentListFailure(t *testing.T) {
	src := newFakeSource()
	src.docsErr = errors.New("HTTP 500")

	var buf bytes.Buffer
	result := Run(context.Background(), src, testConfig(t.TempDir()), &buf)
	assert.Equal(t, 0, result.Total())
	assert.Contains(t, buf.String(), "API error: HTTP 500")
	assert.Contains(t, buf.String(), "Found 0 documents.")
}

// snapshot maps every file under dir to its contents.
func snapshot(t *testing.T, dir string) map[string]string {
	t.Helper()
	files := map[string]string{}
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		files[path] = readFile(t, path)
		return nil
	})
	require.NoError(t, err)
	return files
}
