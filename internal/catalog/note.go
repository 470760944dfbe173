// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/granola-sync/pkg/types"
)

// ErrNoFrontmatter is returned for Markdown files that do not open with a
// frontmatter block naming a granola_id.
var ErrNoFrontmatter = errors.New("no note frontmatter")

// Note is a synced note as read back from disk.
type Note struct {
	ID           string         `json:"granola_id" yaml:"granola_id"`
	Title        string         `json:"title" yaml:"title"`
	CreatedAt    string         `json:"created_at" yaml:"created_at"`
	Participants []types.Person `json:"participants" yaml:"participants"`
	Path         string         `json:"path" yaml:"-"`
	Body         string         `json:"-" yaml:"-"`
}

// ParseNote splits a synced note into its frontmatter fields and body.
func ParseNote(data []byte) (Note, error) {
	const delim = "---"

	if !bytes.HasPrefix(data, []byte(delim+"\n")) {
		return Note{}, ErrNoFrontmatter
	}
	rest := data[len(delim)+1:]
	end := bytes.Index(rest, []byte("\n"+delim+"\n"))
	if end < 0 {
		return Note{}, ErrNoFrontmatter
	}

	var n Note
	if err := yaml.Unmarshal(rest[:end], &n); err != nil {
		// Titles and names are written with only `"` escaped, so a stray
		// backslash can make the block invalid YAML.
		var ok bool
		if n, ok = parseWrittenFrontmatter(string(rest[:end])); !ok {
			return Note{}, fmt.Errorf("parsing frontmatter: %w", err)
		}
	}
	if n.ID == "" {
		return Note{}, ErrNoFrontmatter
	}

	n.Body = strings.TrimLeft(string(rest[end+len(delim)+2:]), "\n")
	return n, nil
}

// parseWrittenFrontmatter reads the fixed layout the sync writes, one key
// per line, unescaping only \". It reports false on any line it does not
// recognize.
func parseWrittenFrontmatter(block string) (Note, bool) {
	var n Note
	for _, line := range strings.Split(block, "\n") {
		switch {
		case line == "" || line == "participants:":
		case strings.HasPrefix(line, "granola_id: "):
			n.ID = unquote(strings.TrimPrefix(line, "granola_id: "))
		case strings.HasPrefix(line, "title: "):
			n.Title = unquote(strings.TrimPrefix(line, "title: "))
		case strings.HasPrefix(line, "created_at: "):
			n.CreatedAt = unquote(strings.TrimPrefix(line, "created_at: "))
		case strings.HasPrefix(line, "  - name: "):
			n.Participants = append(n.Participants, types.Person{
				Name: unquote(strings.TrimPrefix(line, "  - name: ")),
			})
		case strings.HasPrefix(line, "    email: ") && len(n.Participants) > 0:
			n.Participants[len(n.Participants)-1].Email = unquote(strings.TrimPrefix(line, "    email: "))
		default:
			return Note{}, false
		}
	}
	return n, true
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = strings.ReplaceAll(s[1:len(s)-1], `\"`, `"`)
	}
	return s
}
