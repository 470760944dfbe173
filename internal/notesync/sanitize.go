// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package notesync

import "strings"

// filenameReplacer runs after the "<>", ":" and "/" rewrites so that the
// word "and" and the dashes are never touched again.
var filenameReplacer = strings.NewReplacer(
	`"`, "-",
	`\`, "-",
	"|", "-",
	"?", "-",
	"*", "-",
)

// SanitizeFilename maps a note title to a string usable as a file name:
// "<>" becomes "and", colons are dropped, slashes and the characters
// " \ | ? * become dashes, and whitespace runs collapse to one space.
// An empty title yields an empty string.
func SanitizeFilename(title string) string {
	name := strings.ReplaceAll(title, "<>", "and")
	name = strings.ReplaceAll(name, ":", "")
	name = strings.ReplaceAll(name, "/", "-")
	name = filenameReplacer.Replace(name)
	return strings.Join(strings.Fields(name), " ")
}
