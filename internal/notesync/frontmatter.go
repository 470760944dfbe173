// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package notesync

import (
	"strings"

	"github.com/pdiddy/granola-sync/pkg/types"
)

// Frontmatter renders the metadata block that opens every synced note:
// the document id, the quoted title, the creation timestamp exactly as the
// service sent it, and the participants with the creator first.
func Frontmatter(id, title, createdAt string, people types.People) string {
	var b strings.Builder
	b.WriteString("---\n")
	b.WriteString("granola_id: " + id + "\n")
	b.WriteString(`title: "` + escapeQuotes(title) + "\"\n")
	b.WriteString("created_at: " + createdAt + "\n")
	b.WriteString("participants:\n")
	writeParticipant(&b, people.Creator)
	for _, a := range people.Attendees {
		writeParticipant(&b, a)
	}
	b.WriteString("---\n\n")
	return b.String()
}

func writeParticipant(b *strings.Builder, p types.Person) {
	b.WriteString(`  - name: "` + escapeQuotes(p.Name) + "\"\n")
	if p.Email != "" {
		b.WriteString(`    email: "` + escapeQuotes(p.Email) + "\"\n")
	}
}

func escapeQuotes(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}
