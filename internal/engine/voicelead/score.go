// Package voicelead scores the vertical-interval relationships between
// two simultaneous voices. The scorer is a pure function: deterministic,
// no side effects, identical for every caller.
package voicelead

import "github.com/conceptual-machines/composer-api/internal/theory"

// Issue types reported by the scorer.
const (
	IssueParallelFifth  = "parallel_fifth"
	IssueParallelOctave = "parallel_octave"
	IssueDirectInterval = "direct_interval"
	IssueVoiceCrossing  = "voice_crossing"
	IssueSpacing        = "spacing"
	IssueUnresolvedLeap = "unresolved_leap"
	IssueRepeatedLeaps  = "repeated_leaps"
)

// Issue is one itemized deduction, tied to the index of the second
// vertical of the offending pair.
type Issue struct {
	Type  string `json:"type"`
	Index int    `json:"index"`
}

// Penalties holds the per-issue deductions. The magnitudes encode
// stylistic judgment rather than provable correctness, so they are
// tunable; DefaultPenalties matches common-practice weighting.
type Penalties struct {
	ParallelPerfect float64
	DirectInterval  float64
	VoiceCrossing   float64
	Spacing         float64
	UnresolvedLeap  float64
	RepeatedLeaps   float64
}

// DefaultPenalties returns the standard weighting.
func DefaultPenalties() Penalties {
	return Penalties{
		ParallelPerfect: 0.15,
		DirectInterval:  0.05,
		VoiceCrossing:   0.10,
		Spacing:         0.05,
		UnresolvedLeap:  0.03,
		RepeatedLeaps:   0.02,
	}
}

// Analysis is the aggregate score plus the itemized issues.
type Analysis struct {
	Score  float64 `json:"score"`
	Issues []Issue `json:"issues"`
}

// IssuesOfType filters the itemized issues.
func (a *Analysis) IssuesOfType(issueType string) []Issue {
	var out []Issue
	for _, is := range a.Issues {
		if is.Type == issueType {
			out = append(out, is)
		}
	}
	return out
}

// leapThreshold is the widest melodic interval not treated as a leap
// needing recovery (a perfect fifth).
const leapThreshold = 7

// Score evaluates two aligned voices. upper and lower are MIDI pitch
// sequences of equal effective length; extra trailing notes in either
// voice are ignored. The score starts at 1.0, takes the configured
// deduction per issue and is floored at 0.0.
func Score(upper, lower []int, pen Penalties) *Analysis {
	n := len(upper)
	if len(lower) < n {
		n = len(lower)
	}

	analysis := &Analysis{Score: 1.0}
	if n < 2 {
		return analysis
	}

	deduct := func(amount float64, issueType string, index int) {
		analysis.Score -= amount
		analysis.Issues = append(analysis.Issues, Issue{Type: issueType, Index: index})
	}

	for i := 1; i < n; i++ {
		prevInterval := upper[i-1] - lower[i-1]
		currInterval := upper[i] - lower[i]
		upperMotion := upper[i] - upper[i-1]
		lowerMotion := lower[i] - lower[i-1]

		sameDirection := (upperMotion > 0 && lowerMotion > 0) || (upperMotion < 0 && lowerMotion < 0)
		moved := upperMotion != 0 || lowerMotion != 0

		// Parallel perfect fifth/octave: both voices move the same
		// direction into a perfect interval matching the prior one.
		if sameDirection && moved && isPerfectClass(currInterval) &&
			intervalClass(currInterval) == intervalClass(prevInterval) {
			if intervalClass(currInterval) == 7 {
				deduct(pen.ParallelPerfect, IssueParallelFifth, i)
			} else {
				deduct(pen.ParallelPerfect, IssueParallelOctave, i)
			}
		} else if sameDirection && moved && isPerfectClass(currInterval) &&
			intervalClass(currInterval) != intervalClass(prevInterval) {
			// Direct (hidden) fifth/octave: similar motion into a
			// perfect interval the pair did not already hold.
			deduct(pen.DirectInterval, IssueDirectInterval, i)
		}

		// Voice crossing.
		if upper[i] < lower[i] {
			deduct(pen.VoiceCrossing, IssueVoiceCrossing, i)
		}

		// Spacing beyond an octave between adjacent voices.
		if currInterval > 12 || currInterval < -12 {
			deduct(pen.Spacing, IssueSpacing, i)
		}

		// A leap wider than a fifth wants a following contrary step.
		if abs(upperMotion) > leapThreshold {
			if !recoveredByStep(upper, i) {
				deduct(pen.UnresolvedLeap, IssueUnresolvedLeap, i)
			}
		}
		if abs(lowerMotion) > leapThreshold {
			if !recoveredByStep(lower, i) {
				deduct(pen.UnresolvedLeap, IssueUnresolvedLeap, i)
			}
		}

		// Two or more consecutive leaps in the same direction.
		if i >= 2 {
			if consecutiveSameDirectionLeaps(upper, i) || consecutiveSameDirectionLeaps(lower, i) {
				deduct(pen.RepeatedLeaps, IssueRepeatedLeaps, i)
			}
		}
	}

	if analysis.Score < 0 {
		analysis.Score = 0
	}
	return analysis
}

// ScoreVerticals evaluates a melody against a chord progression by
// treating each chord's outer voices as successive momentary verticals:
// the melody pitch on top, the chord's bass underneath.
func ScoreVerticals(melody []int, basses []int, pen Penalties) *Analysis {
	return Score(melody, basses, pen)
}

// ScoreStreams aligns two note streams index-wise and scores them.
// Rests and chords contribute their sounding pitch; events beyond the
// shorter voice are ignored.
func ScoreStreams(a, b *theory.Stream, pen Penalties) *Analysis {
	return Score(soundingMIDI(a), soundingMIDI(b), pen)
}

func soundingMIDI(s *theory.Stream) []int {
	var out []int
	for _, e := range s.Events() {
		if p, ok := e.Pitch(); ok {
			out = append(out, p.MIDI())
		}
	}
	return out
}

func intervalClass(interval int) int {
	c := interval % 12
	if c < 0 {
		c += 12
	}
	return c
}

func isPerfectClass(interval int) bool {
	c := intervalClass(interval)
	return c == 0 || c == 7
}

func recoveredByStep(voice []int, i int) bool {
	if i+1 >= len(voice) {
		return false
	}
	leap := voice[i] - voice[i-1]
	step := voice[i+1] - voice[i]
	if step == 0 || abs(step) > 2 {
		return false
	}
	// Contrary: recovery steps against the leap direction.
	return (leap > 0 && step < 0) || (leap < 0 && step > 0)
}

func consecutiveSameDirectionLeaps(voice []int, i int) bool {
	prev := voice[i-1] - voice[i-2]
	curr := voice[i] - voice[i-1]
	isLeap := func(m int) bool { return abs(m) > 2 }
	if !isLeap(prev) || !isLeap(curr) {
		return false
	}
	return (prev > 0 && curr > 0) || (prev < 0 && curr < 0)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
