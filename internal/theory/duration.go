package theory

import (
	"fmt"
	"strconv"
	"strings"
)

// Duration is an immutable rational quarter-note length. Rational
// arithmetic keeps measure sums exact: augmentation followed by
// diminution restores the original value with no drift.
type Duration struct {
	num int
	den int
}

// Common durations in quarter lengths.
var (
	Whole     = NewDuration(4, 1)
	Half      = NewDuration(2, 1)
	Quarter   = NewDuration(1, 1)
	Eighth    = NewDuration(1, 2)
	Sixteenth = NewDuration(1, 4)
)

var durationCodes = map[byte]Duration{
	'w': Whole,
	'h': Half,
	'q': Quarter,
	'e': Eighth,
	's': Sixteenth,
}

func gcd(a, b int) int {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return 1
	}
	return a
}

// NewDuration builds a reduced rational quarter length.
func NewDuration(num, den int) Duration {
	if den == 0 {
		den = 1
	}
	if den < 0 {
		num, den = -num, -den
	}
	g := gcd(num, den)
	return Duration{num: num / g, den: den / g}
}

// ParseDurationCode parses a letter code with optional dots, e.g. "q",
// "e", "qd" (dotted quarter), "hdd" (double-dotted half).
func ParseDurationCode(s string) (Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Duration{}, NewError(CodeParseError, "empty duration code")
	}
	base, ok := durationCodes[s[0]]
	if !ok {
		return Duration{}, NewError(CodeParseError,
			fmt.Sprintf("unknown duration code %q, expected w, h, q, e or s", s))
	}
	for _, c := range s[1:] {
		if c != 'd' {
			return Duration{}, NewError(CodeParseError,
				fmt.Sprintf("unexpected character %q in duration code %q", c, s))
		}
		base = base.Mul(NewDuration(3, 2))
	}
	return base, nil
}

// Quarters returns the duration as a float quarter length. For display
// and MIDI tick math only; comparisons go through Cmp.
func (d Duration) Quarters() float64 {
	if d.den == 0 {
		return 0
	}
	return float64(d.num) / float64(d.den)
}

// IsZero reports whether the duration is empty.
func (d Duration) IsZero() bool { return d.num == 0 }

// Add returns d + o.
func (d Duration) Add(o Duration) Duration {
	if d.den == 0 {
		d.den = 1
	}
	if o.den == 0 {
		o.den = 1
	}
	return NewDuration(d.num*o.den+o.num*d.den, d.den*o.den)
}

// Sub returns d - o.
func (d Duration) Sub(o Duration) Duration {
	return d.Add(NewDuration(-o.num, o.den))
}

// Mul returns d × o.
func (d Duration) Mul(o Duration) Duration {
	if d.den == 0 {
		d.den = 1
	}
	if o.den == 0 {
		o.den = 1
	}
	return NewDuration(d.num*o.num, d.den*o.den)
}

// Cmp returns -1, 0 or 1 comparing d against o.
func (d Duration) Cmp(o Duration) int {
	if d.den == 0 {
		d.den = 1
	}
	if o.den == 0 {
		o.den = 1
	}
	a := d.num * o.den
	b := o.num * d.den
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Code renders the duration as a letter code when it maps onto one,
// otherwise as a rational quarter length like "5/3".
func (d Duration) Code() string {
	for _, dots := range []int{0, 1, 2} {
		for code, base := range durationCodes {
			v := base
			for i := 0; i < dots; i++ {
				v = v.Mul(NewDuration(3, 2))
			}
			if v.Cmp(d) == 0 {
				return string(code) + strings.Repeat("d", dots)
			}
		}
	}
	if d.den == 0 || d.den == 1 {
		return strconv.Itoa(d.num)
	}
	return fmt.Sprintf("%d/%d", d.num, d.den)
}

func (d Duration) String() string { return d.Code() }
