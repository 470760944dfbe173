// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"bytes"
	"encoding/json"
)

// DefaultTitle is used when a document record carries no title.
const DefaultTitle = "Untitled"

// Document is one record of the remote document batch. Every field is
// optional; the sync stage decides how to degrade when one is missing.
type Document struct {
	ID              Optional[string]       `json:"id"`
	Title           Optional[string]       `json:"title"`
	CreatedAt       Optional[string]       `json:"created_at"`
	People          Optional[PeopleRecord] `json:"people"`
	LastViewedPanel Optional[Panel]        `json:"last_viewed_panel"`
}

// DisplayTitle returns the title, or DefaultTitle when the record has none.
func (d Document) DisplayTitle() string {
	return d.Title.Or(DefaultTitle)
}

// Panel is the "last viewed" notes panel of a document.
type Panel struct {
	Content Optional[Node] `json:"content"`
}

// Node kinds emitted by the note editor. The set is open: unknown kinds
// are valid and render as their children.
const (
	NodeDoc            = "doc"
	NodeHeading        = "heading"
	NodeParagraph      = "paragraph"
	NodeBulletList     = "bulletList"
	NodeOrderedList    = "orderedList"
	NodeListItem       = "listItem"
	NodeText           = "text"
	NodeHorizontalRule = "horizontalRule"
)

// Mark kinds applied to text nodes.
const (
	MarkBold   = "bold"
	MarkItalic = "italic"
	MarkCode   = "code"
	MarkLink   = "link"
)

// Node is one node of a rich-text document tree. Text and Marks are only
// meaningful for text nodes.
type Node struct {
	Type    string         `json:"type"`
	Attrs   map[string]any `json:"attrs,omitempty"`
	Content []Node         `json:"content,omitempty"`
	Text    string         `json:"text,omitempty"`
	Marks   []Mark         `json:"marks,omitempty"`
}

// Mark is an inline decoration on a text node.
type Mark struct {
	Type  string         `json:"type"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

// PeopleRecord is the loosely structured participants record attached to
// a document. Attendees are kept raw so that non-object entries can be
// skipped one by one.
type PeopleRecord struct {
	Creator   Optional[CreatorRecord]     `json:"creator"`
	Attendees Optional[[]json.RawMessage] `json:"attendees"`
}

// CreatorRecord describes the owner of the document.
type CreatorRecord struct {
	Name  Optional[string] `json:"name"`
	Email Optional[string] `json:"email"`
}

// AttendeeRecord describes one invited participant.
type AttendeeRecord struct {
	Email   Optional[string]          `json:"email"`
	Details Optional[AttendeeDetails] `json:"details"`
}

// AttendeeDetails carries the enriched profile of an attendee.
type AttendeeDetails struct {
	Person Optional[AttendeePerson] `json:"person"`
}

// AttendeePerson is the profile's person entry.
type AttendeePerson struct {
	Name PersonName `json:"name"`
}

// PersonName is either a plain string or an object with a fullName field.
type PersonName struct {
	// Plain is set when the name was given as a string.
	Plain Optional[string]
	// FullName is set when the name was given as an object.
	FullName Optional[string]
}

// UnmarshalJSON accepts a string, an object with fullName, or anything
// else (ignored).
func (n *PersonName) UnmarshalJSON(data []byte) error {
	*n = PersonName{}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil
	}
	switch trimmed[0] {
	case '"':
		return n.Plain.UnmarshalJSON(trimmed)
	case '{':
		var obj struct {
			FullName Optional[string] `json:"fullName"`
		}
		if err := json.Unmarshal(trimmed, &obj); err == nil {
			n.FullName = obj.FullName
		}
	}
	return nil
}

// Person is a resolved participant. Email is empty when unknown.
type Person struct {
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email,omitempty" yaml:"email,omitempty"`
}

// People holds the creator and attendees of one document.
type People struct {
	Creator   Person
	Attendees []Person
}

// AttendeeNames returns the attendee names in order.
func (p People) AttendeeNames() []string {
	names := make([]string, len(p.Attendees))
	for i, a := range p.Attendees {
		names[i] = a.Name
	}
	return names
}

// Audio source tags on transcript segments.
const (
	SourceMicrophone = "microphone"
	SourceSystem     = "system"
)

// Segment is one spoken utterance of a transcript. Segments keep the order
// in which the service returned them.
type Segment struct {
	Source string `json:"source"`
	Text   string `json:"text"`
}
