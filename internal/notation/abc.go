package notation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/conceptual-machines/composer-api/internal/theory"
)

// ParseABC parses a practical ABC subset: X/T/M/L/K header fields,
// then body notes with ^/_/= accidentals, octave marks (, and '),
// length multipliers and /divisors, z rests and | barlines.
func ParseABC(input string) (*theory.Stream, error) {
	meter, _ := theory.ParseMeter("4/4")
	unit := theory.Eighth
	var key *theory.Key

	var body strings.Builder
	for _, line := range strings.Split(input, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "%") {
			continue
		}
		if len(trimmed) >= 2 && trimmed[1] == ':' &&
			trimmed[0] >= 'A' && trimmed[0] <= 'Z' {
			value := strings.TrimSpace(trimmed[2:])
			switch trimmed[0] {
			case 'M':
				m, err := theory.ParseMeter(value)
				if err != nil {
					return nil, theory.NewError(theory.CodeParseError,
						fmt.Sprintf("invalid M: field %q", value)).WithField("melody")
				}
				meter = m
			case 'L':
				u, err := parseUnitLength(value)
				if err != nil {
					return nil, err
				}
				unit = u
			case 'K':
				k, err := parseABCKey(value)
				if err != nil {
					return nil, err
				}
				key = &k
			}
			continue
		}
		body.WriteString(trimmed)
		body.WriteString(" ")
	}

	events, err := parseABCBody(body.String(), unit)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, theory.NewError(theory.CodeEmptyInput, "abc input has no notes").
			WithField("melody")
	}
	return theory.NewStream(events, meter, key), nil
}

func parseUnitLength(value string) (theory.Duration, error) {
	parts := strings.SplitN(value, "/", 2)
	if len(parts) != 2 {
		return theory.Duration{}, theory.NewError(theory.CodeParseError,
			fmt.Sprintf("invalid L: field %q", value)).WithField("melody")
	}
	num, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	den, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil || num < 1 || den < 1 {
		return theory.Duration{}, theory.NewError(theory.CodeParseError,
			fmt.Sprintf("invalid L: field %q", value)).WithField("melody")
	}
	return theory.NewDuration(num, den), nil
}

// parseABCKey handles "C", "Am", "F#m", "Bb", "G mixolydian".
func parseABCKey(value string) (theory.Key, error) {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return theory.Key{}, theory.NewError(theory.CodeInvalidKey,
			"empty K: field").WithField("melody")
	}

	tonicPart := fields[0]
	mode := "major"
	if len(fields) > 1 {
		mode = strings.ToLower(fields[1])
	} else if strings.HasSuffix(tonicPart, "m") && len(tonicPart) > 1 &&
		!strings.HasSuffix(tonicPart, "mix") {
		mode = "minor"
		tonicPart = tonicPart[:len(tonicPart)-1]
	}

	return theory.ParseKey(tonicPart + " " + mode)
}

func parseABCBody(body string, unit theory.Duration) ([]theory.Event, error) {
	var events []theory.Event
	i := 0
	for i < len(body) {
		c := body[i]
		switch {
		case c == ' ' || c == '|' || c == ']' || c == '[' || c == ':':
			i++
		case c == 'z' || c == 'Z':
			i++
			dur, next := parseABCLength(body, i, unit)
			events = append(events, theory.NewRest(dur))
			i = next
		case c == '^' || c == '_' || c == '=' ||
			(c >= 'A' && c <= 'G') || (c >= 'a' && c <= 'g'):
			accidental := 0
			for i < len(body) && (body[i] == '^' || body[i] == '_' || body[i] == '=') {
				switch body[i] {
				case '^':
					accidental++
				case '_':
					accidental--
				}
				i++
			}
			if i >= len(body) {
				return nil, theory.NewError(theory.CodeParseError,
					fmt.Sprintf("dangling accidental at position %d", i)).WithField("melody")
			}
			letter := body[i]
			octave := 4
			if letter >= 'a' && letter <= 'g' {
				octave = 5
				letter -= 'a' - 'A'
			}
			if letter < 'A' || letter > 'G' {
				return nil, theory.NewError(theory.CodeParseError,
					fmt.Sprintf("unexpected character %q at position %d", string(body[i]), i)).
					WithField("melody")
			}
			i++
			for i < len(body) && (body[i] == ',' || body[i] == '\'') {
				if body[i] == ',' {
					octave--
				} else {
					octave++
				}
				i++
			}
			base, err := theory.ParsePitch(fmt.Sprintf("%c%d", letter, octave))
			if err != nil {
				return nil, err
			}
			pitch := base.Transpose(accidental)
			dur, next := parseABCLength(body, i, unit)
			events = append(events, theory.NewNote(pitch, dur))
			i = next
		default:
			return nil, theory.NewError(theory.CodeParseError,
				fmt.Sprintf("unexpected character %q at position %d", string(c), i)).
				WithField("melody")
		}
	}
	return events, nil
}

// parseABCLength reads an optional length suffix: "2" doubles, "/2"
// halves, "3/2" dots. Returns the duration and the next index.
func parseABCLength(body string, i int, unit theory.Duration) (theory.Duration, int) {
	num, den := 1, 1
	start := i
	for i < len(body) && body[i] >= '0' && body[i] <= '9' {
		i++
	}
	if i > start {
		num, _ = strconv.Atoi(body[start:i])
	}
	if i < len(body) && body[i] == '/' {
		i++
		start = i
		for i < len(body) && body[i] >= '0' && body[i] <= '9' {
			i++
		}
		if i > start {
			den, _ = strconv.Atoi(body[start:i])
		} else {
			den = 2
		}
	}
	return unit.Mul(theory.NewDuration(num, den)), i
}

// SerializeABC renders a Stream as ABC with an eighth-note unit
// length.
func SerializeABC(s *theory.Stream) string {
	var b strings.Builder
	b.WriteString("X:1\n")
	b.WriteString("M:" + s.Meter().String() + "\n")
	b.WriteString("L:1/8\n")
	if k := s.Key(); k != nil {
		b.WriteString("K:" + abcKeyField(*k) + "\n")
	} else {
		b.WriteString("K:C\n")
	}

	unit := theory.Eighth
	measure := s.Meter().MeasureDuration()
	elapsed := theory.NewDuration(0, 1)
	for i := 0; i < s.Len(); i++ {
		ev := s.At(i)
		if i > 0 {
			b.WriteString(" ")
		}
		if ev.IsRest() {
			b.WriteString("z")
		} else {
			b.WriteString(abcPitch(ev.Pitches[0]))
		}
		b.WriteString(abcLength(ev.Dur, unit))

		elapsed = elapsed.Add(ev.Dur)
		for elapsed.Cmp(measure) >= 0 {
			elapsed = elapsed.Sub(measure)
			b.WriteString(" |")
		}
	}
	b.WriteString("\n")
	return b.String()
}

func abcKeyField(k theory.Key) string {
	name := k.Tonic.ClassName()
	switch k.Mode {
	case theory.ModeMajor:
		return name
	case theory.ModeMinor, theory.ModeAeolian:
		return name + "m"
	default:
		return name + " " + string(k.Mode)
	}
}

func abcPitch(p theory.Pitch) string {
	var b strings.Builder
	name := p.ClassName()
	letter := name[0]
	if len(name) > 1 {
		switch name[1] {
		case '#':
			b.WriteString("^")
		case 'b':
			b.WriteString("_")
		}
	}

	// Accidentals transpose away from the natural letter; use the
	// natural's octave placement.
	octave := p.Octave()
	if octave >= 5 {
		b.WriteByte(letter + 'a' - 'A')
		for o := octave; o > 5; o-- {
			b.WriteString("'")
		}
	} else {
		b.WriteByte(letter)
		for o := octave; o < 4; o++ {
			b.WriteString(",")
		}
	}
	return b.String()
}

func abcLength(d, unit theory.Duration) string {
	// d = unit * (num/den) with the smallest integer pair.
	ratioNum := d.Quarters()
	unitNum := unit.Quarters()
	// Durations are rational with small denominators; scale both to
	// sixty-fourths to recover exact integers.
	num := int(ratioNum*16 + 0.5)
	den := int(unitNum*16 + 0.5)
	g := gcd(num, den)
	num /= g
	den /= g

	switch {
	case num == 1 && den == 1:
		return ""
	case den == 1:
		return strconv.Itoa(num)
	case num == 1:
		return "/" + strconv.Itoa(den)
	default:
		return strconv.Itoa(num) + "/" + strconv.Itoa(den)
	}
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return 1
	}
	return a
}
