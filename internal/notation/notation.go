// Package notation converts between text score formats and Streams:
// a note-list grammar, an ABC subset, and a MusicXML subset. Every
// serializer round-trips pitch, duration and measure position through
// its matching parser.
package notation

import (
	"regexp"
	"strings"

	"github.com/conceptual-machines/composer-api/internal/theory"
)

// Format identifies a score text format.
type Format string

const (
	FormatNotes    Format = "notes"
	FormatABC      Format = "abc"
	FormatMusicXML Format = "musicxml"
)

var (
	musicxmlPattern = regexp.MustCompile(`^\s*(<\?xml|<score|<part|<!DOCTYPE)`)
	abcPattern      = regexp.MustCompile(`^\s*[A-Z]:`)
	notesPattern    = regexp.MustCompile(`^\s*[A-Ga-gRr][#b]?\d?`)
)

// DetectFormat inspects the leading tokens of the input. A declaration
// or score tag means MusicXML, an uppercase field tag with a colon
// means ABC, a pitch name means a note list.
func DetectFormat(input string) (Format, error) {
	stripped := strings.TrimSpace(input)
	if stripped == "" {
		return "", theory.NewError(theory.CodeEmptyInput, "input is empty")
	}
	switch {
	case musicxmlPattern.MatchString(stripped):
		return FormatMusicXML, nil
	case abcPattern.MatchString(stripped):
		return FormatABC, nil
	case notesPattern.MatchString(stripped):
		return FormatNotes, nil
	}
	return "", theory.NewError(theory.CodeParseError,
		"could not detect input format, specify it explicitly").
		WithSuggestions(string(FormatMusicXML), string(FormatABC), string(FormatNotes))
}

// Parse converts score text into a Stream. An empty format triggers
// detection.
func Parse(input string, format Format) (*theory.Stream, error) {
	if format == "" {
		detected, err := DetectFormat(input)
		if err != nil {
			return nil, err
		}
		format = detected
	}
	switch format {
	case FormatNotes:
		return ParseNoteList(input)
	case FormatABC:
		return ParseABC(input)
	case FormatMusicXML:
		return ParseMusicXML(input)
	}
	return nil, theory.NewError(theory.CodeParseError,
		"unknown input format "+string(format)).
		WithField("input_format").
		WithSuggestions(string(FormatMusicXML), string(FormatABC), string(FormatNotes))
}

// Serialize renders a Stream in the requested format.
func Serialize(s *theory.Stream, format Format) (string, error) {
	switch format {
	case FormatNotes, "":
		return SerializeNoteList(s), nil
	case FormatABC:
		return SerializeABC(s), nil
	case FormatMusicXML:
		return SerializeMusicXML(s)
	}
	return "", theory.NewError(theory.CodeParseError,
		"unknown output format "+string(format)).
		WithField("output_format")
}
