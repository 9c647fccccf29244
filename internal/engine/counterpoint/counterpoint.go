// Package counterpoint generates an added voice against a cantus under
// species rules: per-beat consonance tables, relationship-constrained
// motion, suspension treatment, and bounded retry with best-effort
// fallback.
package counterpoint

import (
	"fmt"
	"math/rand"

	"github.com/conceptual-machines/composer-api/internal/engine/harmony"
	"github.com/conceptual-machines/composer-api/internal/engine/search"
	"github.com/conceptual-machines/composer-api/internal/engine/voicelead"
	"github.com/conceptual-machines/composer-api/internal/theory"
)

// Warning codes attached to best-effort results.
const (
	WarnRelationshipRelaxed = "RELATIONSHIP_RELAXED"
	WarnConsonanceRelaxed   = "CONSONANCE_RELAXED"
	WarnSuspensionRelaxed   = "SUSPENSION_RELAXED"
	WarnBoundaryRelaxed     = "BOUNDARY_INTERVAL_RELAXED"
)

// Params configure one added-voice generation.
type Params struct {
	Cantus       *theory.Stream
	VoiceType    string
	Relationship string
	Species      int           // 0 = unconstrained
	RangeLow     *theory.Pitch // overrides the voice type's range
	RangeHigh    *theory.Pitch
	Key          *theory.Key
	Seed         int64
	MaxAttempts  int
}

// Output is the generated voice plus its voice-leading analysis
// against the cantus.
type Output struct {
	Voice    *theory.Stream
	Analysis *voicelead.Analysis
	Key      theory.Key
	Above    bool
	Warnings []theory.Warning
	Attempts int
}

// Generate builds the added voice. Structural problems (empty cantus,
// unknown voice/species/relationship, a range with no scale tones)
// fail eagerly; everything else degrades to best effort with warnings.
func Generate(p Params) (*Output, error) {
	if p.Cantus == nil || p.Cantus.Len() == 0 {
		return nil, theory.NewError(theory.CodeEmptyInput, "cantus contains no events").
			WithField("melody")
	}
	cantusNotes := 0
	for _, ev := range p.Cantus.Events() {
		if !ev.IsRest() {
			cantusNotes++
		}
	}
	if cantusNotes == 0 {
		return nil, theory.NewError(theory.CodeEmptyInput, "cantus contains no notes").
			WithField("melody")
	}

	voice, err := VoiceFor(p.VoiceType)
	if err != nil {
		return nil, err
	}
	if p.RangeLow != nil {
		voice.Low = *p.RangeLow
	}
	if p.RangeHigh != nil {
		voice.High = *p.RangeHigh
	}
	rel, err := ParseRelationship(p.Relationship)
	if err != nil {
		return nil, err
	}
	rule, err := ruleFor(p.Species)
	if err != nil {
		return nil, err
	}
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 50
	}

	key := detectedKey(p)
	scale, err := theory.ResolveScale(key, voice.Low, voice.High)
	if err != nil {
		return nil, err
	}

	above := voiceSitsAbove(voice, p.Cantus)
	rng := rand.New(rand.NewSource(p.Seed))

	w := &cpWalker{
		cantus:  p.Cantus,
		scale:   scale,
		rule:    rule,
		rel:     rel,
		species: p.Species,
		above:   above,
		rng:     rng,
	}

	res, err := search.Run(p.MaxAttempts, w.attempt)
	if err != nil {
		return nil, err
	}

	stream := theory.NewStream(res.Value, p.Cantus.Meter(), &key)
	analysis := analyzeAgainstCantus(stream, p.Cantus, above)

	return &Output{
		Voice:    stream,
		Analysis: analysis,
		Key:      key,
		Above:    above,
		Warnings: res.Warnings,
		Attempts: res.Attempts,
	}, nil
}

func detectedKey(p Params) theory.Key {
	if p.Key != nil {
		return *p.Key
	}
	if k := p.Cantus.Key(); k != nil {
		return *k
	}
	return harmony.DetectKey(p.Cantus)
}

// voiceSitsAbove compares the voice range center against the cantus
// mean pitch.
func voiceSitsAbove(voice VoiceRange, cantus *theory.Stream) bool {
	sum, count := 0, 0
	for _, ev := range cantus.Events() {
		for _, p := range ev.Pitches {
			sum += p.MIDI()
			count++
		}
	}
	mean := float64(sum) / float64(count)
	center := float64(voice.Low.MIDI()+voice.High.MIDI()) / 2
	return center >= mean
}

// slot is one note position of the new voice.
type slot struct {
	cantusMIDI int // -1 while the cantus rests
	dur        theory.Duration
	strong     bool
	held       bool // species 4 tied note across the barline
	boundary   bool // first or last slot, species 1 start/end rule
}

type cpWalker struct {
	cantus  *theory.Stream
	scale   *theory.Scale
	rule    *SpeciesRule
	rel     Relationship
	species int
	above   bool
	rng     *rand.Rand
}

func (w *cpWalker) attempt(n int) (search.Candidate[[]theory.Event], error) {
	slots := w.buildSlots()
	var violations []search.Violation
	events := make([]theory.Event, 0, len(slots)+1)

	var prev theory.Pitch
	havePrev := false
	prevInterval := -1
	prevCantus := -1
	var forced *theory.Pitch

	// Species 4 opens with a half rest before the first syncope.
	if w.rule.Syncopated && len(slots) > 0 {
		events = append(events, theory.NewRest(slots[0].dur))
		slots = slots[1:]
	}

	for i, sl := range slots {
		if sl.cantusMIDI < 0 {
			// Cantus rest: hold the previous pitch or stay silent.
			if havePrev {
				events = append(events, theory.NewNote(prev, sl.dur))
			} else {
				events = append(events, theory.NewRest(sl.dur))
			}
			continue
		}

		var pitch theory.Pitch
		var viol *search.Violation
		switch {
		case forced != nil:
			pitch = *forced
			forced = nil
		case sl.held && havePrev:
			pitch, forced, viol = w.heldPitch(prev, sl, i)
		default:
			pitch, viol = w.choosePitch(prev, havePrev, sl, prevInterval, prevCantus, i)
		}
		if viol != nil {
			violations = append(violations, *viol)
		}

		events = append(events, theory.NewNote(pitch, sl.dur))
		prevInterval = w.intervalClass(pitch, sl.cantusMIDI)
		prev = pitch
		havePrev = true
		prevCantus = sl.cantusMIDI
	}

	return search.Candidate[[]theory.Event]{Value: events, Violations: violations}, nil
}

// buildSlots expands the cantus into new-voice note positions at the
// species' rhythmic ratio.
func (w *cpWalker) buildSlots() []slot {
	var slots []slot
	events := w.cantus.Events()
	for i, ev := range events {
		cantusMIDI := -1
		if p, ok := ev.Pitch(); ok {
			cantusMIDI = p.MIDI()
		}

		ratio := w.rule.Ratio
		if ratio == 0 { // species 5 mixes ratios per cantus note
			ratio = []int{1, 2, 4}[w.rng.Intn(3)]
		}

		if w.rule.Syncopated {
			half := ev.Dur.Mul(theory.NewDuration(1, 2))
			if i == 0 {
				// rest + first syncope
				slots = append(slots,
					slot{cantusMIDI: cantusMIDI, dur: half, strong: true},
					slot{cantusMIDI: cantusMIDI, dur: half, strong: false})
			} else {
				slots = append(slots,
					slot{cantusMIDI: cantusMIDI, dur: half, strong: true, held: true},
					slot{cantusMIDI: cantusMIDI, dur: half, strong: false})
			}
			continue
		}

		dur := ev.Dur.Mul(theory.NewDuration(1, ratio))
		for j := 0; j < ratio; j++ {
			slots = append(slots, slot{
				cantusMIDI: cantusMIDI,
				dur:        dur,
				strong:     j == 0,
			})
		}
	}

	if w.species == 1 && len(slots) > 0 {
		slots[0].boundary = true
		slots[len(slots)-1].boundary = true
	}
	return slots
}

// heldPitch carries the previous pitch across the barline. A consonant
// tie stands as-is; a dissonant one must be a recognized suspension and
// forces a stepwise-down resolution on the following slot.
func (w *cpWalker) heldPitch(prev theory.Pitch, sl slot, idx int) (theory.Pitch, *theory.Pitch, *search.Violation) {
	iv := w.intervalClass(prev, sl.cantusMIDI)
	if contains(w.rule.Strong, iv) {
		return prev, nil, nil
	}
	for _, susp := range w.rule.Suspensions {
		if iv != susp.Dissonance {
			continue
		}
		// Resolve stepwise down to the suspension's target class.
		for _, step := range []int{1, 2} {
			res := prev.Transpose(-step)
			if w.scale.Contains(res) && w.intervalClass(res, sl.cantusMIDI) == susp.Resolution {
				return prev, &res, nil
			}
		}
	}
	// Not a usable suspension: fall back to a fresh consonance.
	fallback := w.nearestConsonant(prev, sl)
	viol := search.Violation{
		Constraint: "suspension",
		Warning: theory.WarningAt(WarnSuspensionRelaxed, idx,
			"tied note at event %d is not a resolvable suspension", idx),
	}
	return fallback, nil, &viol
}

// choosePitch samples a scale tone for the slot under the species
// consonance table, the relationship mode, and the parallel-motion
// prohibitions. An empty candidate set relaxes one constraint at a
// time, recording each relaxation.
func (w *cpWalker) choosePitch(prev theory.Pitch, havePrev bool, sl slot, prevInterval, prevCantus, idx int) (theory.Pitch, *search.Violation) {
	allowed := w.rule.Weak
	if sl.strong {
		allowed = w.rule.Strong
	}

	cands := w.candidates(prev, havePrev, sl, prevInterval, prevCantus, allowed, true)
	if len(cands) == 0 && w.rel != RelFree {
		cands = w.candidates(prev, havePrev, sl, prevInterval, prevCantus, allowed, false)
		if len(cands) > 0 {
			return w.sample(cands), &search.Violation{
				Constraint: "relationship",
				Warning: theory.WarningAt(WarnRelationshipRelaxed, idx,
					"%s motion could not be kept at event %d", w.rel, idx),
			}
		}
	}
	if len(cands) == 0 {
		fallback := w.nearestConsonant(prev, sl)
		return fallback, &search.Violation{
			Constraint: "consonance",
			Warning: theory.WarningAt(WarnConsonanceRelaxed, idx,
				"no consonant choice at event %d", idx),
		}
	}
	return w.sample(cands), nil
}

type weighted struct {
	p theory.Pitch
	w float64
}

func (w *cpWalker) candidates(prev theory.Pitch, havePrev bool, sl slot, prevInterval, prevCantus int, allowed []int, enforceRel bool) []weighted {
	var out []weighted
	cantusDir := 0
	if havePrev && prevCantus >= 0 {
		switch {
		case sl.cantusMIDI > prevCantus:
			cantusDir = 1
		case sl.cantusMIDI < prevCantus:
			cantusDir = -1
		}
	}

	for _, p := range w.scale.Pitches {
		// No crossing: the new voice stays on its side of the cantus.
		if w.above && p.MIDI() < sl.cantusMIDI {
			continue
		}
		if !w.above && p.MIDI() > sl.cantusMIDI {
			continue
		}

		iv := w.intervalClass(p, sl.cantusMIDI)
		if !contains(allowed, iv) {
			continue
		}
		if sl.boundary && len(w.rule.StartEnd) > 0 && !contains(w.rule.StartEnd, iv) {
			continue
		}

		motion := 0
		var absMotion int
		if havePrev {
			motion = p.MIDI() - prev.MIDI()
			absMotion = motion
			if absMotion < 0 {
				absMotion = -absMotion
			}
			// Weak-beat dissonance is passing motion only: enter by step.
			if !contains(w.rule.Strong, iv) && absMotion > 2 {
				continue
			}
			// And leave by step: no leaping off a dissonance.
			if prevInterval >= 0 && !contains(w.rule.Strong, prevInterval) && absMotion > 2 {
				continue
			}
			// Forbidden parallels into a perfect interval.
			if (iv == 0 || iv == 7) && iv == prevInterval && cantusDir != 0 &&
				sameSign(motion, cantusDir) {
				continue
			}
		}

		if enforceRel && havePrev {
			switch w.rel {
			case RelContrary:
				if cantusDir != 0 && motion != 0 && sameSign(motion, cantusDir) {
					continue
				}
			case RelParallelThirds:
				if iv != 3 && iv != 4 {
					continue
				}
			case RelParallelSixths:
				if iv != 8 && iv != 9 {
					continue
				}
			}
		}

		weight := 1.0
		if havePrev {
			steps := absMotion
			weight *= 3.0 / (1.0 + float64(steps))
			if motion == 0 {
				if w.rel == RelOblique {
					weight *= 8.0
				} else {
					weight *= 0.4
				}
			}
		}
		// Imperfect consonances carry the texture.
		if iv == 3 || iv == 4 || iv == 8 || iv == 9 {
			weight *= 1.4
		}
		out = append(out, weighted{p: p, w: weight})
	}
	return out
}

func (w *cpWalker) sample(cands []weighted) theory.Pitch {
	total := 0.0
	for _, c := range cands {
		total += c.w
	}
	r := w.rng.Float64() * total
	cum := 0.0
	for _, c := range cands {
		cum += c.w
		if r <= cum {
			return c.p
		}
	}
	return cands[len(cands)-1].p
}

// nearestConsonant is the escape hatch when every constraint filter
// empties the candidate set.
func (w *cpWalker) nearestConsonant(prev theory.Pitch, sl slot) theory.Pitch {
	best := w.scale.Pitches[0]
	bestDist := 1 << 30
	for _, p := range w.scale.Pitches {
		if w.above && p.MIDI() < sl.cantusMIDI {
			continue
		}
		if !w.above && p.MIDI() > sl.cantusMIDI {
			continue
		}
		if !contains(w.rule.Strong, w.intervalClass(p, sl.cantusMIDI)) {
			continue
		}
		d := p.MIDI() - prev.MIDI()
		if d < 0 {
			d = -d
		}
		if d < bestDist {
			bestDist = d
			best = p
		}
	}
	return best
}

// intervalClass is the vertical interval mod 12, measured from the
// cantus toward the new voice's side.
func (w *cpWalker) intervalClass(p theory.Pitch, cantusMIDI int) int {
	d := p.MIDI() - cantusMIDI
	if !w.above {
		d = -d
	}
	return ((d % 12) + 12) % 12
}

// analyzeAgainstCantus aligns the two voices at the new voice's note
// onsets and scores the verticals.
func analyzeAgainstCantus(voice, cantus *theory.Stream, above bool) *voicelead.Analysis {
	var upper, lower []int
	for i := 0; i < voice.Len(); i++ {
		vp, ok := voice.At(i).Pitch()
		if !ok {
			continue
		}
		offset := voice.OffsetOf(i)
		cp, ok := pitchSoundingAt(cantus, offset)
		if !ok {
			continue
		}
		if above {
			upper = append(upper, vp.MIDI())
			lower = append(lower, cp.MIDI())
		} else {
			upper = append(upper, cp.MIDI())
			lower = append(lower, vp.MIDI())
		}
	}
	return voicelead.Score(upper, lower, voicelead.DefaultPenalties())
}

func pitchSoundingAt(s *theory.Stream, offset theory.Duration) (theory.Pitch, bool) {
	for i := 0; i < s.Len(); i++ {
		start := s.OffsetOf(i)
		end := start.Add(s.At(i).Dur)
		if start.Cmp(offset) <= 0 && end.Cmp(offset) > 0 {
			return s.At(i).Pitch()
		}
	}
	return theory.Pitch{}, false
}

// Describe summarizes the species and relationship for logs and
// response metadata.
func Describe(species int, rel Relationship) string {
	names := map[int]string{
		0: "free counterpoint",
		1: "first species (1:1)",
		2: "second species (2:1)",
		3: "third species (4:1)",
		4: "fourth species (syncopated)",
		5: "fifth species (florid)",
	}
	return fmt.Sprintf("%s, %s motion", names[species], rel)
}
