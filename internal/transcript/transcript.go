// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package transcript attributes transcript segments to speakers and renders
// them as a Markdown section.
//
// Audio source tags only distinguish the local microphone from system
// audio, so a meeting with several remote attendees cannot be attributed
// per person. Such segments are labelled RemoteSpeaker.
package transcript

import (
	"strings"

	"github.com/pdiddy/granola-sync/pkg/types"
)

// Fixed speaker labels.
const (
	DefaultCreatorName = "Me"
	RemoteSpeaker      = "Remote Speaker"
	GenericSpeaker     = "Speaker"
	UnknownSpeaker     = "Unknown"
)

// Header opens the transcript section of a note.
const Header = "\n\n---\n## Full Transcript\n\n"

// ResolveSpeaker maps a segment's audio source to a display name.
func ResolveSpeaker(seg types.Segment, creatorName string, attendeeNames []string) string {
	switch seg.Source {
	case types.SourceMicrophone:
		if creatorName == "" {
			return DefaultCreatorName
		}
		return creatorName
	case types.SourceSystem:
		switch len(attendeeNames) {
		case 0:
			return GenericSpeaker
		case 1:
			return attendeeNames[0]
		default:
			return RemoteSpeaker
		}
	default:
		return UnknownSpeaker
	}
}

// Format renders segments as "**name**: text" lines separated by blank
// lines, under Header. Segments without text are dropped; if none remain
// the result is empty.
func Format(segments []types.Segment, creatorName string, attendeeNames []string) string {
	lines := make([]string, 0, len(segments))
	for _, seg := range segments {
		if seg.Text == "" {
			continue
		}
		name := ResolveSpeaker(seg, creatorName, attendeeNames)
		lines = append(lines, "**"+name+"**: "+seg.Text)
	}
	if len(lines) == 0 {
		return ""
	}
	return Header + strings.Join(lines, "\n\n")
}
