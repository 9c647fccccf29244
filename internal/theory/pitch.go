package theory

import (
	"fmt"
	"strconv"
	"strings"
)

var (
	sharpNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}
	flatNames  = [12]string{"C", "Db", "D", "Eb", "E", "F", "Gb", "G", "Ab", "A", "Bb", "B"}

	// Semitone offsets from C for the seven note letters
	letterOffsets = map[byte]int{
		'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11,
	}
)

// Pitch is an immutable pitch class + octave pair. C4 is middle C
// (MIDI 60). The flat flag only affects rendering, never identity.
type Pitch struct {
	class  int
	octave int
	flat   bool
}

// NewPitch builds a pitch from a semitone class (0=C .. 11=B) and octave.
func NewPitch(class, octave int) Pitch {
	class %= 12
	if class < 0 {
		class += 12
	}
	return Pitch{class: class, octave: octave}
}

// PitchFromMIDI builds a pitch from a MIDI note number.
func PitchFromMIDI(midi int) Pitch {
	return NewPitch(midi%12, midi/12-1)
}

// ParsePitch parses scientific pitch notation such as C4, F#5 or Bb3.
func ParsePitch(s string) (Pitch, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return Pitch{}, NewError(CodeInvalidNote,
			fmt.Sprintf("invalid note %q, expected format like C4, F#5, Bb3", s))
	}

	letter := s[0]
	if letter >= 'a' && letter <= 'g' {
		letter -= 'a' - 'A'
	}
	offset, ok := letterOffsets[letter]
	if !ok {
		return Pitch{}, NewError(CodeInvalidNote,
			fmt.Sprintf("invalid note letter %q in %q", string(s[0]), s))
	}

	idx := 1
	flat := false
	switch s[idx] {
	case '#':
		offset++
		idx++
	case 'b':
		offset--
		flat = true
		idx++
	}

	octave, err := strconv.Atoi(s[idx:])
	if err != nil {
		return Pitch{}, NewError(CodeInvalidNote,
			fmt.Sprintf("invalid octave in note %q", s))
	}

	p := NewPitch(offset, octave)
	// Accidentals that wrap past the octave boundary carry it along:
	// Cb4 = B3, B#4 = C5.
	if offset < 0 {
		p.octave--
	} else if offset > 11 {
		p.octave++
	}
	p.flat = flat
	return p, nil
}

// MustPitch parses a pitch and panics on failure. For static tables only.
func MustPitch(s string) Pitch {
	p, err := ParsePitch(s)
	if err != nil {
		panic(err)
	}
	return p
}

// Class returns the semitone class, 0=C through 11=B.
func (p Pitch) Class() int { return p.class }

// Octave returns the scientific octave (C4 = middle C).
func (p Pitch) Octave() int { return p.octave }

// MIDI returns the MIDI note number, C4 = 60.
func (p Pitch) MIDI() int { return (p.octave+1)*12 + p.class }

// Name returns scientific pitch notation, e.g. "F#4" or "Bb3".
func (p Pitch) Name() string {
	return p.ClassName() + strconv.Itoa(p.octave)
}

// ClassName returns the pitch class name without octave.
func (p Pitch) ClassName() string {
	if p.flat {
		return flatNames[p.class]
	}
	return sharpNames[p.class]
}

// IsAccidental reports whether the class falls on a black key.
func (p Pitch) IsAccidental() bool {
	return sharpNames[p.class] != flatNames[p.class]
}

// Transpose returns a new pitch shifted by the given number of semitones.
// The spelling preference is preserved.
func (p Pitch) Transpose(semitones int) Pitch {
	out := PitchFromMIDI(p.MIDI() + semitones)
	out.flat = p.flat
	return out
}

// TransposeInterval returns a new pitch shifted by a signed interval.
func (p Pitch) TransposeInterval(iv Interval) Pitch {
	return p.Transpose(iv.Semitones)
}

// WithOctave returns the same pitch class in another octave.
func (p Pitch) WithOctave(octave int) Pitch {
	out := p
	out.octave = octave
	return out
}

func (p Pitch) String() string { return p.Name() }

// SortPitches returns a copy of the slice ordered ascending by MIDI value.
func SortPitches(pitches []Pitch) []Pitch {
	out := make([]Pitch, len(pitches))
	copy(out, pitches)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].MIDI() < out[j-1].MIDI(); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
