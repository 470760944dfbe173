// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package prosemirror renders the note editor's rich-text document tree as
// Markdown.
package prosemirror

import (
	"fmt"
	"strings"

	"github.com/pdiddy/granola-sync/pkg/types"
)

// Render converts node and its descendants to Markdown. Unknown node kinds
// render as the concatenation of their children.
func Render(node types.Node) string {
	var children strings.Builder
	for _, child := range node.Content {
		children.WriteString(Render(child))
	}
	inner := children.String()

	switch node.Type {
	case types.NodeDoc:
		return inner
	case types.NodeHeading:
		return strings.Repeat("#", headingLevel(node)) + " " + inner + "\n\n"
	case types.NodeParagraph:
		return inner + "\n\n"
	case types.NodeBulletList, types.NodeOrderedList:
		// Items carry their own "- " marker; ordered lists are not numbered.
		return inner + "\n"
	case types.NodeListItem:
		return "- " + strings.TrimSpace(inner) + "\n"
	case types.NodeHorizontalRule:
		return "\n---\n\n"
	case types.NodeText:
		return renderText(node)
	default:
		return inner
	}
}

// maxHeadingLevel is the deepest Markdown heading.
const maxHeadingLevel = 6

// headingLevel reads attrs.level, defaulting to 1, clamped to
// 0..maxHeadingLevel. Negative levels yield no hashes.
func headingLevel(node types.Node) int {
	v, ok := node.Attrs["level"]
	if !ok {
		return 1
	}
	var level int
	switch n := v.(type) {
	case float64:
		level = int(min(max(n, 0), maxHeadingLevel))
	case int:
		level = n
	case int64:
		level = int(n)
	default:
		return 1
	}
	return min(max(level, 0), maxHeadingLevel)
}

// renderText applies marks in order. A link mark returns immediately,
// dropping every other mark on the node.
func renderText(node types.Node) string {
	text := node.Text
	for _, m := range node.Marks {
		switch m.Type {
		case types.MarkBold:
			text = "**" + text + "**"
		case types.MarkItalic:
			text = "*" + text + "*"
		case types.MarkCode:
			text = "`" + text + "`"
		case types.MarkLink:
			return "[" + node.Text + "](" + href(m) + ")"
		}
	}
	return text
}

func href(m types.Mark) string {
	v, ok := m.Attrs["href"]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
