// Package melody generates melodic lines as a constrained stochastic
// walk over scale degrees: contour biases the direction, a stepwise
// preference shapes the interval distribution, and hard constraints are
// enforced by bounded retry with best-effort fallback.
package melody

import (
	"fmt"
	"math/rand"

	"github.com/conceptual-machines/composer-api/internal/engine/rhythm"
	"github.com/conceptual-machines/composer-api/internal/engine/search"
	"github.com/conceptual-machines/composer-api/internal/theory"
)

// Warning codes attached to best-effort results.
const (
	WarnStartNoteAdjusted = "START_NOTE_ADJUSTED"
	WarnEndNoteAdjusted   = "END_NOTE_ADJUSTED"
	WarnEndNoteRelaxed    = "END_NOTE_RELAXED"
	WarnLeapRelaxed       = "LEAP_RELAXED"
)

// Params are the generation constraints.
type Params struct {
	Key      theory.Key
	Meter    theory.Meter
	Measures int

	RangeLow  theory.Pitch
	RangeHigh theory.Pitch

	Contour Contour
	Density rhythm.Density

	StartNote *theory.Pitch
	EndNote   *theory.Pitch
	MaxLeap   *theory.Interval // widest allowed melodic interval

	PreferStepwise float64 // probability weight of stepwise motion, 0..1
	Seed           int64
	MaxAttempts    int

	Tunables *Tunables // nil = defaults
}

// Output is a generated melody plus its disclosure.
type Output struct {
	Stream   *theory.Stream
	Warnings []theory.Warning
	SeedUsed int64
	Attempts int
}

// Generate runs the constrained walk. Structural impossibilities
// (bad key, inverted range, fewer than three scale tones) fail eagerly;
// everything else degrades to a best-effort result with warnings.
func Generate(p Params) (*Output, error) {
	scale, err := theory.ResolveScale(p.Key, p.RangeLow, p.RangeHigh)
	if err != nil {
		return nil, err
	}

	if p.Measures < 1 {
		return nil, theory.NewError(theory.CodeUnsatisfiableConstraints,
			"length_measures must be at least 1").WithField("length_measures")
	}
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 100
	}
	if p.PreferStepwise < 0 || p.PreferStepwise > 1 {
		return nil, theory.NewError(theory.CodeUnsatisfiableConstraints,
			"prefer_stepwise must be within [0, 1]").WithField("prefer_stepwise")
	}

	tun := DefaultTunables()
	if p.Tunables != nil {
		tun = *p.Tunables
	}

	rng := rand.New(rand.NewSource(p.Seed))
	durations := rhythm.Generate(p.Density, p.Meter, p.Measures, rng)

	w := walker{params: p, scale: scale, tun: tun, rng: rng, durations: durations}

	res, err := search.Run(p.MaxAttempts, w.attempt)
	if err != nil {
		return nil, err
	}

	events := make([]theory.Event, len(res.Value))
	for i, pitch := range res.Value {
		events[i] = theory.NewNote(pitch, durations[i])
	}
	stream := theory.NewStream(events, p.Meter, &p.Key)

	return &Output{
		Stream:   stream,
		Warnings: res.Warnings,
		SeedUsed: p.Seed,
		Attempts: res.Attempts,
	}, nil
}

type walker struct {
	params    Params
	scale     *theory.Scale
	tun       Tunables
	rng       *rand.Rand
	durations []theory.Duration
}

func (w *walker) attempt(n int) (search.Candidate[[]theory.Pitch], error) {
	var warnings []theory.Warning

	current, warn := w.startPitch()
	if warn != nil {
		warnings = append(warnings, *warn)
	}

	pitches := make([]theory.Pitch, len(w.durations))
	measureLen := w.params.Meter.MeasureDuration().Quarters()
	elapsed := 0.0

	for i := range w.durations {
		pitches[i] = current
		elapsed += w.durations[i].Quarters()
		if i < len(w.durations)-1 {
			ratio := float64(i) / float64(len(w.durations))
			current = w.nextPitch(current, ratio, elapsed/measureLen, nil)
		}
	}

	if w.params.EndNote != nil {
		pitches = w.approachEndNote(pitches, &warnings)
	}

	return search.Candidate[[]theory.Pitch]{
		Value:      pitches,
		Violations: w.validate(pitches),
		Warnings:   warnings,
	}, nil
}

// startPitch picks the opening pitch: the explicit one snapped into the
// scale if necessary, otherwise a scale tone weighted toward tonic,
// third and fifth.
func (w *walker) startPitch() (theory.Pitch, *theory.Warning) {
	if w.params.StartNote != nil {
		if w.scale.Contains(*w.params.StartNote) {
			return w.scale.Nearest(*w.params.StartNote), nil
		}
		adjusted := w.scale.Nearest(*w.params.StartNote)
		warn := theory.Warningf(WarnStartNoteAdjusted,
			"start note adjusted to nearest scale tone: %s", adjusted)
		return adjusted, &warn
	}

	tonic := w.params.Key.Tonic.Class()
	third := w.params.Key.Degree(3)
	fifth := w.params.Key.Degree(5)

	type weighted struct {
		p theory.Pitch
		w float64
	}
	var candidates []weighted
	for _, p := range w.scale.Pitches {
		weight := 0.5
		switch p.Class() {
		case tonic:
			weight = 3.0
		case fifth:
			weight = 1.5
		case third:
			weight = 1.0
		}
		candidates = append(candidates, weighted{p: p, w: weight})
	}

	total := 0.0
	for _, c := range candidates {
		total += c.w
	}
	r := w.rng.Float64() * total
	cum := 0.0
	for _, c := range candidates {
		cum += c.w
		if r <= cum {
			return c.p, nil
		}
	}
	return candidates[len(candidates)-1].p, nil
}

// nextPitch samples the next scale tone. Candidates outside the range
// never exist (the scale is range-bound), which reflects the walk back
// inside instead of exceeding it. When target is non-nil the weights
// additionally pull toward a stepwise approach to it.
func (w *walker) nextPitch(current theory.Pitch, positionRatio, measurePos float64, target *theory.Pitch) theory.Pitch {
	idx := w.scale.IndexOf(current)
	bias := w.tun.bias(w.params.Contour, positionRatio, measurePos)
	prefer := w.params.PreferStepwise

	type weighted struct {
		p theory.Pitch
		w float64
	}
	var candidates []weighted

	for i, p := range w.scale.Pitches {
		stepDist := i - idx
		if stepDist < 0 {
			stepDist = -stepDist
		}
		semis := p.MIDI() - current.MIDI()
		absSemis := semis
		if absSemis < 0 {
			absSemis = -absSemis
		}

		if w.params.MaxLeap != nil && absSemis > w.params.MaxLeap.Abs() {
			continue
		}

		weight := 1.0

		// Interval preference: steps boosted, wide motion damped.
		switch {
		case stepDist <= 1:
			weight *= 1.0 + prefer*w.tun.StepBoost
		case stepDist == 2:
			weight *= 1.0 + prefer*0.5
		default:
			weight *= 1.0 - prefer*w.tun.LeapDamp
		}

		// Contour bias on direction.
		switch {
		case semis > 0 && bias > 0:
			weight *= 1.0 + bias
		case semis < 0 && bias < 0:
			weight *= 1.0 - bias
		case semis == 0:
			if w.params.Contour == ContourStatic {
				weight *= w.tun.StaticHold
			} else {
				weight *= w.tun.RepeatDamp
			}
		}

		// End-note approach pull.
		if target != nil {
			dist := p.MIDI() - target.MIDI()
			if dist < 0 {
				dist = -dist
			}
			weight *= 1.0 + w.tun.TargetPull/(1.0+float64(dist))
		}

		if weight > 0 {
			candidates = append(candidates, weighted{p: p, w: weight})
		}
	}

	if len(candidates) == 0 {
		return current
	}

	total := 0.0
	for _, c := range candidates {
		total += c.w
	}
	r := w.rng.Float64() * total
	cum := 0.0
	for _, c := range candidates {
		cum += c.w
		if r <= cum {
			return c.p
		}
	}
	return candidates[len(candidates)-1].p
}

// approachEndNote re-walks only the final approach window toward the
// required end pitch, leaving earlier measures untouched.
func (w *walker) approachEndNote(pitches []theory.Pitch, warnings *[]theory.Warning) []theory.Pitch {
	target := *w.params.EndNote
	if !w.scale.Contains(target) {
		adjusted := w.scale.Nearest(target)
		*warnings = append(*warnings, theory.Warningf(WarnEndNoteAdjusted,
			"end note adjusted to nearest scale tone: %s", adjusted))
		target = adjusted
	}

	last := len(pitches) - 1
	if pitches[last].MIDI() == target.MIDI() {
		return pitches
	}

	// Locate the first event inside the approach window.
	windowStart := last
	windowLen := float64(w.tun.ApproachWindow) * w.params.Meter.MeasureDuration().Quarters()
	elapsed := 0.0
	total := 0.0
	for _, d := range w.durations {
		total += d.Quarters()
	}
	for i, d := range w.durations {
		if elapsed >= total-windowLen {
			windowStart = i
			break
		}
		elapsed += d.Quarters()
	}
	if windowStart < 1 {
		windowStart = 1
	}

	out := make([]theory.Pitch, len(pitches))
	copy(out, pitches)

	current := out[windowStart-1]
	measureLen := w.params.Meter.MeasureDuration().Quarters()
	offset := 0.0
	for i := 0; i < windowStart; i++ {
		offset += w.durations[i].Quarters()
	}
	for i := windowStart; i < last; i++ {
		ratio := float64(i) / float64(len(out))
		current = w.nextPitch(current, ratio, offset/measureLen, &target)
		out[i] = current
		offset += w.durations[i].Quarters()
	}
	out[last] = target

	return out
}

// validate checks the hard constraints and maps each failure to the
// warning it would carry if relaxed.
func (w *walker) validate(pitches []theory.Pitch) []search.Violation {
	var violations []search.Violation

	lowMIDI := w.params.RangeLow.MIDI()
	highMIDI := w.params.RangeHigh.MIDI()
	for i, p := range pitches {
		if p.MIDI() < lowMIDI || p.MIDI() > highMIDI {
			violations = append(violations, search.Violation{
				Constraint: "range",
				Warning: theory.WarningAt("RANGE_RELAXED", i,
					"pitch %s at index %d is outside %s-%s", p, i, w.params.RangeLow, w.params.RangeHigh),
			})
		}
	}

	if w.params.MaxLeap != nil {
		limit := w.params.MaxLeap.Abs()
		for i := 1; i < len(pitches); i++ {
			diff := pitches[i].MIDI() - pitches[i-1].MIDI()
			if diff < 0 {
				diff = -diff
			}
			if diff > limit {
				violations = append(violations, search.Violation{
					Constraint: "max_leap",
					Warning: theory.WarningAt(WarnLeapRelaxed, i,
						"leap of %d semitones at index %d exceeds %s", diff, i, w.params.MaxLeap),
				})
			}
		}
	}

	if w.params.EndNote != nil && len(pitches) > 0 {
		target := w.scale.Nearest(*w.params.EndNote)
		if pitches[len(pitches)-1].MIDI() != target.MIDI() {
			violations = append(violations, search.Violation{
				Constraint: "end_note",
				Warning: theory.Warningf(WarnEndNoteRelaxed,
					"melody ends on %s instead of requested %s",
					pitches[len(pitches)-1], target),
			})
		}
	}

	return violations
}

// Describe summarizes a generated melody for response metadata.
func Describe(s *theory.Stream) (noteCount int, actualRange string) {
	lowest, highest := theory.Pitch{}, theory.Pitch{}
	first := true
	for _, e := range s.Events() {
		p, ok := e.Pitch()
		if !ok {
			continue
		}
		noteCount++
		if first || p.MIDI() < lowest.MIDI() {
			lowest = p
		}
		if first || p.MIDI() > highest.MIDI() {
			highest = p
		}
		first = false
	}
	if noteCount == 0 {
		return 0, ""
	}
	return noteCount, fmt.Sprintf("%s-%s", lowest, highest)
}
