package theory

import (
	"fmt"
	"strconv"
	"strings"
)

// Interval is a signed interval with conventional quality and number.
// Semitones carries the direction; quality and number are unsigned.
type Interval struct {
	Quality   byte // 'P', 'M', 'm', 'A' or 'd'
	Number    int  // 1 = unison, 8 = octave, 10 = compound third...
	Semitones int  // signed span
}

// Simple interval semitone spans by quality+number within one octave.
var simpleIntervals = map[string]int{
	"P1": 0, "A1": 1,
	"d2": 0, "m2": 1, "M2": 2, "A2": 3,
	"d3": 2, "m3": 3, "M3": 4, "A3": 5,
	"d4": 4, "P4": 5, "A4": 6,
	"d5": 6, "P5": 7, "A5": 8,
	"d6": 7, "m6": 8, "M6": 9, "A6": 10,
	"d7": 9, "m7": 10, "M7": 11, "A7": 12,
	"d8": 11, "P8": 12, "A8": 13,
}

// Conventional (most common) spelling for each semitone span 0..12.
var canonicalNames = [13]string{
	"P1", "m2", "M2", "m3", "M3", "P4", "A4", "P5", "m6", "M6", "m7", "M7", "P8",
}

// ParseInterval parses interval notation like P5, M3, m7 or d5. Compound
// intervals (M9, P11...) are accepted.
func ParseInterval(s string) (Interval, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return Interval{}, NewError(CodeInvalidInterval,
			fmt.Sprintf("invalid interval %q, expected format like P5, M3, m7", s))
	}
	quality := s[0]
	switch quality {
	case 'P', 'M', 'm', 'A', 'd':
	default:
		return Interval{}, NewError(CodeInvalidInterval,
			fmt.Sprintf("invalid interval quality %q in %q", string(quality), s))
	}

	number, err := strconv.Atoi(s[1:])
	if err != nil || number < 1 {
		return Interval{}, NewError(CodeInvalidInterval,
			fmt.Sprintf("invalid interval number in %q", s))
	}

	simple := number
	octaves := 0
	for simple > 8 {
		simple -= 7
		octaves++
	}

	span, ok := simpleIntervals[string(quality)+strconv.Itoa(simple)]
	if !ok {
		return Interval{}, NewError(CodeInvalidInterval,
			fmt.Sprintf("no such interval %q", s))
	}

	return Interval{Quality: quality, Number: number, Semitones: span + 12*octaves}, nil
}

// MustInterval parses an interval and panics on failure. For static
// tables only.
func MustInterval(s string) Interval {
	iv, err := ParseInterval(s)
	if err != nil {
		panic(err)
	}
	return iv
}

// IntervalBetween returns the interval from a to b, signed by direction
// and spelled with the conventional quality for its span.
func IntervalBetween(a, b Pitch) Interval {
	span := b.MIDI() - a.MIDI()
	abs := span
	if abs < 0 {
		abs = -abs
	}
	simple := abs % 12
	octaves := abs / 12
	// An exact multiple of an octave reads P8, P15... not P1 plus octaves.
	if simple == 0 && octaves > 0 {
		return Interval{Quality: 'P', Number: 7*octaves + 1, Semitones: span}
	}
	name := canonicalNames[simple]
	quality := name[0]
	number, _ := strconv.Atoi(name[1:])
	return Interval{Quality: quality, Number: number + 7*octaves, Semitones: span}
}

// Reverse returns the interval with its direction flipped, so that
// IntervalBetween(a, b).Reverse() equals IntervalBetween(b, a).
func (iv Interval) Reverse() Interval {
	return Interval{Quality: iv.Quality, Number: iv.Number, Semitones: -iv.Semitones}
}

// Abs returns the unsigned semitone span.
func (iv Interval) Abs() int {
	if iv.Semitones < 0 {
		return -iv.Semitones
	}
	return iv.Semitones
}

// SimpleName reduces a compound interval to its within-octave name.
func (iv Interval) SimpleName() string {
	simple := iv.Abs() % 12
	if iv.Abs() == 12 {
		return "P8"
	}
	return canonicalNames[simple]
}

// IsPerfect reports whether the interval class is a perfect unison,
// fourth, fifth or octave.
func (iv Interval) IsPerfect() bool {
	switch iv.Abs() % 12 {
	case 0, 5, 7:
		return true
	}
	return false
}

func (iv Interval) String() string {
	return string(iv.Quality) + strconv.Itoa(iv.Number)
}
