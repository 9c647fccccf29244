// Package harmony generates ranked chord progressions for a melody
// under a style rule set: key detection, per-point candidate search,
// weighted selection and multi-objective scoring.
package harmony

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"github.com/conceptual-machines/composer-api/internal/engine/voicelead"
	"github.com/conceptual-machines/composer-api/internal/theory"
)

// Chord-change granularity.
const (
	PerMeasure = "per_measure"
	PerHalf    = "per_half"
	PerBeat    = "per_beat"
)

// Bass motion preferences.
const (
	BassAny      = "any"
	BassStepwise = "stepwise"
	BassFifths   = "fifths"
	BassPedal    = "pedal"
)

const substitutionChance = 0.3

// Params configure one harmonization call.
type Params struct {
	Melody        *theory.Stream
	Style         string
	Granularity   string
	Options       int // K, number of progressions to return
	BassMotion    string
	AllowExtended *bool // nil defers to the style
	Seed          int64
}

// Scores itemizes the ranking of one progression.
type Scores struct {
	VoiceLeading   float64 `json:"voice_leading"`
	ChordMelodyFit float64 `json:"chord_melody_fit"`
	StyleAdherence float64 `json:"style_adherence"`
	Overall        float64 `json:"overall"`
}

// Progression is one ranked harmonization option.
type Progression struct {
	Rank     int
	Numerals []string
	Chords   []*theory.Chord
	Symbols  []string
	Offsets  []theory.Duration
	Scores   Scores
}

// Output is the full harmonizer result.
type Output struct {
	DetectedKey theory.Key
	Style       string
	Granularity string
	Options     []Progression
	Warnings    []theory.Warning
}

// Harmonize generates ranked chord progressions for the melody.
func Harmonize(p Params) (*Output, error) {
	if p.Melody == nil || p.Melody.Len() == 0 {
		return nil, theory.NewError(theory.CodeEmptyInput, "melody contains no events").
			WithField("melody")
	}
	hasNote := false
	for _, ev := range p.Melody.Events() {
		if !ev.IsRest() {
			hasNote = true
			break
		}
	}
	if !hasNote {
		return nil, theory.NewError(theory.CodeEmptyInput, "melody contains no notes").
			WithField("melody")
	}

	rules, err := StyleFor(p.Style)
	if err != nil {
		return nil, err
	}
	granularity, err := parseGranularity(p.Granularity)
	if err != nil {
		return nil, err
	}
	bassMotion, err := parseBassMotion(p.BassMotion)
	if err != nil {
		return nil, err
	}
	k := p.Options
	if k <= 0 {
		k = 3
	}
	allowExtended := rules.PreferExtensions
	if p.AllowExtended != nil {
		allowExtended = *p.AllowExtended
	}

	detected := DetectKey(p.Melody)
	points := chordPoints(p.Melody, granularity)
	if len(points) == 0 {
		return nil, theory.NewError(theory.CodeEmptyInput, "melody has no duration").
			WithField("melody")
	}

	h := &harmonizer{
		melody:        p.Melody,
		key:           detected,
		rules:         rules,
		points:        points,
		bassMotion:    bassMotion,
		allowExtended: allowExtended,
	}

	attempts := 3 * k
	var all []candidateProgression
	for attempt := 0; attempt < attempts; attempt++ {
		rng := rand.New(rand.NewSource(p.Seed + int64(attempt)*1009))
		numerals, ok := h.buildProgression(rng)
		if !ok {
			continue
		}
		all = append(all, h.score(numerals))
	}
	if len(all) == 0 {
		return nil, theory.NewError(theory.CodeGenerationFailed,
			fmt.Sprintf("no usable progression found in %d attempts", attempts))
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].scores.Overall > all[j].scores.Overall
	})

	out := &Output{
		DetectedKey: detected,
		Style:       rules.Name,
		Granularity: granularity,
	}
	seen := map[string]bool{}
	for _, cand := range all {
		sig := strings.Join(cand.numerals, " ")
		if seen[sig] {
			continue
		}
		seen[sig] = true
		prog, err := h.realize(cand)
		if err != nil {
			continue
		}
		prog.Rank = len(out.Options) + 1
		out.Options = append(out.Options, *prog)
		if len(out.Options) == k {
			break
		}
	}
	if len(out.Options) == 0 {
		return nil, theory.NewError(theory.CodeGenerationFailed,
			"no progression could be realized as chords")
	}
	if len(out.Options) < k {
		out.Warnings = append(out.Warnings, theory.Warningf("FEWER_OPTIONS",
			"only %d distinct progressions found, %d requested", len(out.Options), k))
	}
	return out, nil
}

type candidateProgression struct {
	numerals []string
	scores   Scores
}

type harmonizer struct {
	melody        *theory.Stream
	key           theory.Key
	rules         *StyleRuleSet
	points        []theory.Duration
	bassMotion    string
	allowExtended bool
}

// buildProgression walks the chord points once, choosing one numeral
// per point, and closes with a cadence.
func (h *harmonizer) buildProgression(rng *rand.Rand) ([]string, bool) {
	numerals := make([]string, 0, len(h.points))
	for i := range h.points {
		var prev string
		if len(numerals) > 0 {
			prev = numerals[len(numerals)-1]
		}
		isCadence := i >= len(h.points)-2
		cands := h.candidatesAt(i, prev, isCadence, rng)
		if len(cands) == 0 {
			return nil, false
		}
		numerals = append(numerals, h.selectChord(cands, prev, rng))
	}

	// Force a cadence on the final points if the walk missed one.
	if len(numerals) >= 2 && !h.rules.HasCadence(numerals) {
		if cadence := h.rules.PreferredCadence(); len(cadence) == 2 {
			numerals[len(numerals)-2] = cadence[0]
			numerals[len(numerals)-1] = cadence[1]
		}
	}
	return numerals, true
}

type scoredNumeral struct {
	numeral string
	score   float64
}

// candidatesAt enumerates and scores the style's numerals against the
// melody classes sounding at point i, then mixes in probabilistic
// substitutions.
func (h *harmonizer) candidatesAt(i int, prev string, isCadence bool, rng *rand.Rand) []scoredNumeral {
	window := h.windowAt(i)
	classes := h.melody.ClassesSounding(h.points[i], window)

	var cands []scoredNumeral
	consider := func(numeral string, bonus float64) {
		chord, err := ResolveNumeral(numeral, h.key)
		if err != nil {
			return
		}
		score := bonus
		if len(classes) == 0 {
			score += 0.5
		} else {
			fit := 0.0
			for _, class := range classes {
				if chord.ContainsClass(class) {
					fit += 1.0
				} else {
					fit -= 0.3
				}
			}
			score += fit / float64(len(classes))
		}
		if prev != "" {
			for _, prog := range h.rules.CommonProgressions {
				for j := 0; j < len(prog)-1; j++ {
					if prog[j] == prev && prog[j+1] == numeral {
						score += 0.3
						break
					}
				}
			}
		}
		if isCadence {
			for _, pattern := range h.rules.Cadences {
				for _, n := range pattern {
					if n == numeral {
						score += 0.2
						break
					}
				}
			}
		}
		score += rng.Float64()*0.2 - 0.1
		cands = append(cands, scoredNumeral{numeral: numeral, score: score})
	}

	for _, numeral := range h.rules.AllowedNumerals {
		consider(numeral, 0)
		for _, sub := range h.rules.SubstitutesFor(numeral) {
			if rng.Float64() < substitutionChance {
				consider(sub, -0.05)
			}
		}
	}

	sort.SliceStable(cands, func(a, b int) bool { return cands[a].score > cands[b].score })
	return cands
}

// selectChord applies the bass-motion preference, then picks from the
// top three candidates by weighted random choice.
func (h *harmonizer) selectChord(cands []scoredNumeral, prev string, rng *rand.Rand) string {
	if h.bassMotion != BassAny && prev != "" {
		if prevChord, err := ResolveNumeral(prev, h.key); err == nil {
			prevBass := prevChord.Root.Class()
			for i, cand := range cands {
				chord, err := ResolveNumeral(cand.numeral, h.key)
				if err != nil {
					continue
				}
				interval := chord.Root.Class() - prevBass
				if interval < 0 {
					interval = -interval
				}
				switch {
				case h.bassMotion == BassStepwise && interval <= 2:
					cands[i].score += 0.2
				case h.bassMotion == BassFifths && (interval == 5 || interval == 7):
					cands[i].score += 0.2
				case h.bassMotion == BassPedal && interval == 0:
					cands[i].score += 0.3
				}
			}
			sort.SliceStable(cands, func(a, b int) bool { return cands[a].score > cands[b].score })
		}
	}

	top := cands
	if len(top) > 3 {
		top = top[:3]
	}
	total := 0.0
	for _, cand := range top {
		total += maxf(0.1, cand.score)
	}
	r := rng.Float64() * total
	cumulative := 0.0
	for _, cand := range top {
		cumulative += maxf(0.1, cand.score)
		if r <= cumulative {
			return cand.numeral
		}
	}
	return top[0].numeral
}

// score rates a full progression: voice leading against the melody,
// chord-melody consonance across each span, and style adherence.
func (h *harmonizer) score(numerals []string) candidateProgression {
	vl := h.scoreVoiceLeading(numerals)
	fit := h.scoreMelodyFit(numerals)
	style := h.scoreStyle(numerals)
	return candidateProgression{
		numerals: numerals,
		scores: Scores{
			VoiceLeading:   vl,
			ChordMelodyFit: fit,
			StyleAdherence: style,
			Overall:        0.4*vl + 0.35*fit + 0.25*style,
		},
	}
}

// scoreVoiceLeading treats the melody's strong-beat pitches and the
// chord roots as a two-voice texture and hands them to the shared
// scorer.
func (h *harmonizer) scoreVoiceLeading(numerals []string) float64 {
	var upper, lower []int
	lastMelody := 0
	for i, numeral := range numerals {
		chord, err := ResolveNumeral(numeral, h.key)
		if err != nil {
			continue
		}
		melodyMIDI, ok := h.melodyPitchAt(i)
		if !ok {
			if lastMelody == 0 {
				continue
			}
			melodyMIDI = lastMelody
		}
		lastMelody = melodyMIDI
		upper = append(upper, melodyMIDI)
		lower = append(lower, chord.Root.WithOctave(3).MIDI())
	}
	analysis := voicelead.Score(upper, lower, voicelead.DefaultPenalties())
	return analysis.Score
}

func (h *harmonizer) scoreMelodyFit(numerals []string) float64 {
	total := 0.0
	count := 0
	for i, numeral := range numerals {
		chord, err := ResolveNumeral(numeral, h.key)
		if err != nil {
			continue
		}
		classes := h.melody.ClassesSounding(h.points[i], h.windowAt(i))
		if len(classes) == 0 {
			continue
		}
		matches := 0
		for _, class := range classes {
			if chord.ContainsClass(class) {
				matches++
			}
		}
		total += float64(matches) / float64(len(classes))
		count++
	}
	if count == 0 {
		return 0.5
	}
	return total / float64(count)
}

func (h *harmonizer) scoreStyle(numerals []string) float64 {
	score := 0.5
	joined := " " + strings.Join(numerals, " ") + " "
	for _, prog := range h.rules.CommonProgressions {
		if strings.Contains(joined, " "+strings.Join(prog, " ")+" ") {
			score += 0.2
		}
	}
	if h.rules.HasCadence(numerals) {
		score += 0.15
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// realize resolves numerals to concrete chords and strips extensions
// when the caller disallowed them.
func (h *harmonizer) realize(cand candidateProgression) (*Progression, error) {
	prog := &Progression{
		Numerals: cand.numerals,
		Scores:   cand.scores,
		Offsets:  h.points,
	}
	for _, numeral := range cand.numerals {
		chord, err := ResolveNumeral(numeral, h.key)
		if err != nil {
			return nil, err
		}
		if !h.allowExtended && len(chord.Extensions) > 0 {
			chord = &theory.Chord{
				Root:    chord.Root,
				Quality: chord.Quality,
				Symbol:  chordSymbol(chord.Root, chord.Quality, nil),
			}
		}
		prog.Chords = append(prog.Chords, chord)
		prog.Symbols = append(prog.Symbols, chord.Symbol)
	}
	return prog, nil
}

// melodyPitchAt returns the MIDI value of the melody note sounding at
// chord point i.
func (h *harmonizer) melodyPitchAt(i int) (int, bool) {
	point := h.points[i]
	for j := 0; j < h.melody.Len(); j++ {
		start := h.melody.OffsetOf(j)
		end := start.Add(h.melody.At(j).Dur)
		if start.Cmp(point) <= 0 && end.Cmp(point) > 0 {
			if pitch, ok := h.melody.At(j).Pitch(); ok {
				return pitch.MIDI(), true
			}
			return 0, false
		}
	}
	return 0, false
}

// windowAt is the span from chord point i to the next point (or the
// end of the melody).
func (h *harmonizer) windowAt(i int) theory.Duration {
	if i < len(h.points)-1 {
		return h.points[i+1].Sub(h.points[i])
	}
	return h.melody.TotalDuration().Sub(h.points[i])
}

// chordPoints partitions the melody into chord-change offsets at the
// requested granularity.
func chordPoints(melody *theory.Stream, granularity string) []theory.Duration {
	meter := melody.Meter()
	var step theory.Duration
	switch granularity {
	case PerBeat:
		step = theory.NewDuration(4, meter.BeatUnit)
	case PerHalf:
		step = meter.MeasureDuration().Mul(theory.NewDuration(1, 2))
	default:
		step = meter.MeasureDuration()
	}

	total := melody.TotalDuration()
	var points []theory.Duration
	offset := theory.NewDuration(0, 1)
	for offset.Cmp(total) < 0 {
		points = append(points, offset)
		offset = offset.Add(step)
	}
	return points
}

func parseGranularity(s string) (string, error) {
	switch s {
	case "":
		return PerMeasure, nil
	case PerMeasure, PerHalf, PerBeat:
		return s, nil
	}
	return "", theory.NewError(theory.CodeParseError,
		fmt.Sprintf("unknown chord rhythm %q", s)).
		WithField("chord_rhythm").
		WithSuggestions(PerMeasure, PerHalf, PerBeat)
}

func parseBassMotion(s string) (string, error) {
	switch s {
	case "":
		return BassAny, nil
	case BassAny, BassStepwise, BassFifths, BassPedal:
		return s, nil
	}
	return "", theory.NewError(theory.CodeParseError,
		fmt.Sprintf("unknown bass motion %q", s)).
		WithField("bass_motion").
		WithSuggestions(BassAny, BassStepwise, BassFifths, BassPedal)
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
