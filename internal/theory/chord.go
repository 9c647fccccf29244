package theory

import (
	"fmt"
	"strings"
)

// Chord is a root pitch class, a quality and optional extensions,
// with an optional slash-bass override. The concrete register is chosen
// by the voicing engine, not here.
type Chord struct {
	Root       Pitch
	Quality    string
	Extensions []string
	Bass       *Pitch // slash chord bass, nil when absent
	Symbol     string
}

// Triad qualities understood by the chord symbol parser.
const (
	QualityMajor      = "major"
	QualityMinor      = "minor"
	QualityDiminished = "diminished"
	QualityAugmented  = "augmented"
	QualitySus2       = "sus2"
	QualitySus4       = "sus4"
)

var triadIntervals = map[string][]int{
	QualityMajor:      {0, 4, 7},
	QualityMinor:      {0, 3, 7},
	QualityDiminished: {0, 3, 6},
	QualityAugmented:  {0, 4, 8},
	QualitySus2:       {0, 2, 7},
	QualitySus4:       {0, 5, 7},
}

var extensionIntervals = map[string]int{
	"7":     10,
	"maj7":  11,
	"6":     9,
	"9":     14,
	"add9":  14,
	"11":    17,
	"add11": 17,
	"13":    21,
	"add13": 21,
}

// ParseChordSymbol parses symbols like C, Em, Am7, Cmaj7, G7/B, F#dim.
// The root is placed in octave 4; callers pick the register.
func ParseChordSymbol(symbol string) (*Chord, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, NewError(CodeInvalidChordSymbol, "empty chord symbol").
			WithField("chord_symbol")
	}

	base := symbol
	var bass *Pitch
	if i := strings.IndexByte(symbol, '/'); i > 0 {
		base = strings.TrimSpace(symbol[:i])
		bassName := strings.TrimSpace(symbol[i+1:])
		p, err := ParsePitch(bassName + "3")
		if err != nil {
			return nil, NewError(CodeInvalidChordSymbol,
				fmt.Sprintf("invalid bass note %q in chord %q", bassName, symbol)).
				WithField("chord_symbol")
		}
		bass = &p
	}

	root, rest, err := splitChordRoot(base)
	if err != nil {
		return nil, err
	}

	quality, rest := parseChordQuality(rest)
	extensions := parseChordExtensions(rest)

	return &Chord{
		Root:       root,
		Quality:    quality,
		Extensions: extensions,
		Bass:       bass,
		Symbol:     symbol,
	}, nil
}

func splitChordRoot(symbol string) (Pitch, string, error) {
	if symbol == "" {
		return Pitch{}, "", NewError(CodeInvalidChordSymbol, "empty chord symbol").
			WithField("chord_symbol")
	}
	rootLen := 1
	if len(symbol) > 1 && (symbol[1] == '#' || symbol[1] == 'b') {
		rootLen = 2
	}
	root, err := ParsePitch(symbol[:rootLen] + "4")
	if err != nil {
		return Pitch{}, "", NewError(CodeInvalidChordSymbol,
			fmt.Sprintf("invalid chord root in %q", symbol)).
			WithField("chord_symbol").
			WithSuggestions("Cmaj7", "Dm7", "G7", "Am", "F#dim7")
	}
	return root, symbol[rootLen:], nil
}

func parseChordQuality(rest string) (string, string) {
	switch {
	case strings.HasPrefix(rest, "maj"):
		// maj7/maj9 keep the major triad; the extension parser sees "maj7".
		return QualityMajor, rest
	case strings.HasPrefix(rest, "min"):
		return QualityMinor, rest[3:]
	case strings.HasPrefix(rest, "dim"):
		return QualityDiminished, rest[3:]
	case strings.HasPrefix(rest, "aug"):
		return QualityAugmented, rest[3:]
	case strings.HasPrefix(rest, "sus2"):
		return QualitySus2, rest[4:]
	case strings.HasPrefix(rest, "sus4"):
		return QualitySus4, rest[4:]
	case strings.HasPrefix(rest, "m"):
		return QualityMinor, rest[1:]
	default:
		return QualityMajor, rest
	}
}

func parseChordExtensions(rest string) []string {
	var extensions []string
	add := func(ext string) {
		for _, e := range extensions {
			if e == ext {
				return
			}
		}
		extensions = append(extensions, ext)
	}

	// maj7 must be consumed before the bare-7 scan corrupts it.
	if strings.Contains(rest, "maj7") {
		add("maj7")
		rest = strings.ReplaceAll(rest, "maj7", "")
	}
	for _, ext := range []string{"add13", "add11", "add9", "13", "11", "9", "7", "6"} {
		if strings.Contains(rest, ext) {
			switch ext {
			case "add13", "13":
				add("13")
			case "add11", "11":
				add("11")
			case "add9", "9":
				add("9")
			default:
				add(ext)
			}
			rest = strings.ReplaceAll(rest, ext, "")
		}
	}

	return extensions
}

// Intervals returns the chord's semitone offsets from the root,
// extensions included, ascending.
func (c *Chord) Intervals() []int {
	intervals, ok := triadIntervals[c.Quality]
	if !ok {
		intervals = triadIntervals[QualityMajor]
	}
	out := make([]int, len(intervals))
	copy(out, intervals)
	for _, ext := range c.Extensions {
		if iv, ok := extensionIntervals[ext]; ok {
			out = append(out, iv)
		}
	}
	return out
}

// PitchClasses returns the chord's pitch classes in chord-tone order
// (root, third, fifth, extensions).
func (c *Chord) PitchClasses() []int {
	intervals := c.Intervals()
	out := make([]int, len(intervals))
	for i, iv := range intervals {
		out[i] = (c.Root.Class() + iv) % 12
	}
	return out
}

// ContainsClass reports whether a pitch class is a chord tone.
func (c *Chord) ContainsClass(class int) bool {
	class %= 12
	if class < 0 {
		class += 12
	}
	for _, pc := range c.PitchClasses() {
		if pc == class {
			return true
		}
	}
	return false
}

// Pitches realizes the chord as stacked pitches with the root in the
// given octave. This is the raw chord-tone stack, not a voicing.
func (c *Chord) Pitches(octave int) []Pitch {
	root := c.Root.WithOctave(octave)
	intervals := c.Intervals()
	out := make([]Pitch, len(intervals))
	for i, iv := range intervals {
		out[i] = root.Transpose(iv)
	}
	return out
}

func (c *Chord) String() string { return c.Symbol }
