package notation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/conceptual-machines/composer-api/internal/theory"
)

var tokenSplit = regexp.MustCompile(`[,\s]+`)

// ParseNoteList parses the note-list grammar: comma- or
// space-separated "pitch:duration" tokens, e.g. "C4:q D4:e E4:h".
// The duration defaults to a quarter; "r" tokens are rests.
func ParseNoteList(input string) (*theory.Stream, error) {
	tokens := tokenSplit.Split(strings.TrimSpace(input), -1)

	var events []theory.Event
	for i, token := range tokens {
		if token == "" {
			continue
		}

		pitchStr := token
		durStr := "q"
		if idx := strings.IndexByte(token, ':'); idx >= 0 {
			pitchStr = token[:idx]
			durStr = token[idx+1:]
		}

		dur, err := theory.ParseDurationCode(durStr)
		if err != nil {
			return nil, theory.NewError(theory.CodeParseError,
				fmt.Sprintf("invalid duration %q at token %d", durStr, i)).
				WithField("melody").
				WithSuggestions("w", "h", "q", "e", "s", "qd")
		}

		if pitchStr == "r" || pitchStr == "R" {
			events = append(events, theory.NewRest(dur))
			continue
		}

		// "C4+E4+G4" tokens are chords.
		var pitches []theory.Pitch
		for _, name := range strings.Split(pitchStr, "+") {
			pitch, err := theory.ParsePitch(name)
			if err != nil {
				return nil, theory.NewError(theory.CodeParseError,
					fmt.Sprintf("invalid pitch %q at token %d", name, i)).
					WithField("melody").
					WithSuggestions("C4", "F#5", "Bb3")
			}
			pitches = append(pitches, pitch)
		}
		events = append(events, theory.NewChordEvent(pitches, dur))
	}

	if len(events) == 0 {
		return nil, theory.NewError(theory.CodeEmptyInput, "note list is empty").
			WithField("melody")
	}

	meter, _ := theory.ParseMeter("4/4")
	return theory.NewStream(events, meter, nil), nil
}

// SerializeNoteList renders a Stream as the note-list grammar. Chords
// render their pitches joined with "+".
func SerializeNoteList(s *theory.Stream) string {
	var b strings.Builder
	for i := 0; i < s.Len(); i++ {
		if i > 0 {
			b.WriteString(" ")
		}
		ev := s.At(i)
		switch {
		case ev.IsRest():
			b.WriteString("r")
		case ev.IsChord():
			names := make([]string, len(ev.Pitches))
			for j, p := range ev.Pitches {
				names[j] = p.Name()
			}
			b.WriteString(strings.Join(names, "+"))
		default:
			b.WriteString(ev.Pitches[0].Name())
		}
		b.WriteString(":")
		b.WriteString(ev.Dur.Code())
	}
	return b.String()
}
