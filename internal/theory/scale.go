package theory

import (
	"fmt"
	"strings"
)

// Mode identifies a diatonic mode by name.
type Mode string

const (
	ModeMajor      Mode = "major"
	ModeMinor      Mode = "minor"
	ModeDorian     Mode = "dorian"
	ModePhrygian   Mode = "phrygian"
	ModeLydian     Mode = "lydian"
	ModeMixolydian Mode = "mixolydian"
	ModeAeolian    Mode = "aeolian"
	ModeLocrian    Mode = "locrian"
)

// Semitone steps from the tonic for each mode.
var modeIntervals = map[Mode][]int{
	ModeMajor:      {0, 2, 4, 5, 7, 9, 11},
	ModeMinor:      {0, 2, 3, 5, 7, 8, 10},
	ModeDorian:     {0, 2, 3, 5, 7, 9, 10},
	ModePhrygian:   {0, 1, 3, 5, 7, 8, 10},
	ModeLydian:     {0, 2, 4, 6, 7, 9, 11},
	ModeMixolydian: {0, 2, 4, 5, 7, 9, 10},
	ModeAeolian:    {0, 2, 3, 5, 7, 8, 10},
	ModeLocrian:    {0, 1, 3, 5, 6, 8, 10},
}

// Key is a tonic pitch class plus a mode.
type Key struct {
	Tonic Pitch // octave is ignored; only the class matters
	Mode  Mode
	name  string
}

// ParseKey parses key notation like "C major", "F# minor" or "D dorian".
func ParseKey(s string) (Key, error) {
	parts := strings.Fields(strings.TrimSpace(s))
	if len(parts) != 2 {
		return Key{}, NewError(CodeInvalidKey,
			fmt.Sprintf("invalid key %q, expected format like 'C major', 'F# minor', 'D dorian'", s)).
			WithField("key").
			WithSuggestions("C major", "D minor", "G dorian")
	}

	tonic, err := ParsePitch(parts[0] + "4")
	if err != nil {
		return Key{}, NewError(CodeInvalidKey,
			fmt.Sprintf("invalid tonic %q in key %q", parts[0], s)).WithField("key")
	}

	mode := Mode(strings.ToLower(parts[1]))
	if _, ok := modeIntervals[mode]; !ok {
		return Key{}, NewError(CodeInvalidKey,
			fmt.Sprintf("unknown mode %q in key %q", parts[1], s)).
			WithField("key").
			WithSuggestions("major", "minor", "dorian", "mixolydian")
	}

	return Key{Tonic: tonic, Mode: mode, name: parts[0] + " " + string(mode)}, nil
}

// IsMinor reports whether the mode carries a minor third.
func (k Key) IsMinor() bool {
	switch k.Mode {
	case ModeMinor, ModeAeolian, ModeDorian, ModePhrygian, ModeLocrian:
		return true
	}
	return false
}

// Classes returns the seven pitch classes of the key, tonic first.
func (k Key) Classes() []int {
	steps := modeIntervals[k.Mode]
	out := make([]int, len(steps))
	for i, s := range steps {
		out[i] = (k.Tonic.Class() + s) % 12
	}
	return out
}

// Contains reports whether a pitch class belongs to the key.
func (k Key) Contains(class int) bool {
	class %= 12
	if class < 0 {
		class += 12
	}
	for _, c := range k.Classes() {
		if c == class {
			return true
		}
	}
	return false
}

// Degree returns the pitch class of the 1-based scale degree.
func (k Key) Degree(n int) int {
	classes := k.Classes()
	return classes[((n-1)%7+7)%7]
}

func (k Key) String() string {
	if k.name != "" {
		return k.name
	}
	return k.Tonic.ClassName() + " " + string(k.Mode)
}

// Scale is a key's pitch content expanded across octaves within a range.
type Scale struct {
	Key     Key
	Pitches []Pitch // ascending, unique by MIDI value
}

// ResolveScale expands the key's pitch classes across the inclusive
// range [low, high]. It fails when the range is inverted or when fewer
// than three scale tones fit, since there is no melody to walk then.
func ResolveScale(k Key, low, high Pitch) (*Scale, error) {
	if low.MIDI() > high.MIDI() {
		return nil, NewError(CodeInvalidRange,
			fmt.Sprintf("range low (%s) must not be above range high (%s)", low, high)).
			WithField("range_low")
	}

	classes := k.Classes()
	var pitches []Pitch
	useFlats := strings.Contains(k.Tonic.ClassName(), "b") || flatLeaningKey(k)
	for midi := low.MIDI(); midi <= high.MIDI(); midi++ {
		class := midi % 12
		for _, c := range classes {
			if c == class {
				p := PitchFromMIDI(midi)
				p.flat = useFlats && p.IsAccidental()
				pitches = append(pitches, p)
				break
			}
		}
	}

	if len(pitches) < 3 {
		return nil, NewError(CodeUnsatisfiableConstraints,
			fmt.Sprintf("range %s-%s is too narrow for key %s: only %d scale tones available",
				low, high, k, len(pitches))).
			WithField("range_low")
	}

	return &Scale{Key: k, Pitches: pitches}, nil
}

// flatLeaningKey reports whether a key conventionally spells its
// accidentals with flats (F major, minor keys below three sharps).
func flatLeaningKey(k Key) bool {
	switch k.Tonic.Class() {
	case 5, 10, 3, 8, 1: // F, Bb, Eb, Ab, Db tonics
		return true
	}
	return false
}

// IndexOf returns the position of a MIDI value in the scale, or the
// index of the nearest scale tone when the pitch is foreign.
func (s *Scale) IndexOf(p Pitch) int {
	best := 0
	bestDist := 1 << 30
	for i, sp := range s.Pitches {
		d := sp.MIDI() - p.MIDI()
		if d < 0 {
			d = -d
		}
		if d == 0 {
			return i
		}
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

// Contains reports whether the exact pitch is a scale tone.
func (s *Scale) Contains(p Pitch) bool {
	for _, sp := range s.Pitches {
		if sp.MIDI() == p.MIDI() {
			return true
		}
	}
	return false
}

// Nearest returns the scale tone closest to p.
func (s *Scale) Nearest(p Pitch) Pitch {
	return s.Pitches[s.IndexOf(p)]
}

// TonicPitches returns every tonic-class pitch within the scale range.
func (s *Scale) TonicPitches() []Pitch {
	var out []Pitch
	for _, p := range s.Pitches {
		if p.Class() == s.Key.Tonic.Class() {
			out = append(out, p)
		}
	}
	return out
}
