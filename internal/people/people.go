// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package people resolves the creator and attendees of a document from its
// loosely structured participants record.
package people

import (
	"bytes"
	"encoding/json"

	"github.com/pdiddy/granola-sync/pkg/types"
)

// DefaultCreatorName is used when the record names no creator.
const DefaultCreatorName = "Me"

// Extract resolves the participants of a document. It never fails: any
// missing or malformed part of the record falls back to a default.
func Extract(rec types.Optional[types.PeopleRecord]) types.People {
	r := rec.Value

	creator := r.Creator.Value
	out := types.People{
		Creator: types.Person{
			Name:  nonEmpty(creator.Name.Value, DefaultCreatorName),
			Email: creator.Email.Value,
		},
	}

	for _, raw := range r.Attendees.Value {
		a, ok := decodeAttendee(raw)
		if !ok {
			continue
		}
		out.Attendees = append(out.Attendees, types.Person{
			Name:  attendeeName(a),
			Email: a.Email.Value,
		})
	}
	return out
}

// attendeeName picks the best available display name: the profile's full
// name, then a plain-string profile name, then the email. The result is
// empty when none is known.
func attendeeName(a types.AttendeeRecord) string {
	name := a.Details.Value.Person.Value.Name
	if full := name.FullName.Value; full != "" {
		return full
	}
	if plain := name.Plain.Value; plain != "" {
		return plain
	}
	return a.Email.Value
}

// decodeAttendee decodes one attendee entry, reporting false for entries
// that are not JSON objects.
func decodeAttendee(raw json.RawMessage) (types.AttendeeRecord, bool) {
	var a types.AttendeeRecord
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return a, false
	}
	if err := json.Unmarshal(trimmed, &a); err != nil {
		return a, false
	}
	return a, true
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
