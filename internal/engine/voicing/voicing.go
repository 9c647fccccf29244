// Package voicing renders chord specifications into concrete ordered
// pitches: close, open, drop-2, drop-3 and quartal styles under
// per-instrument range and note-count constraints.
package voicing

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/conceptual-machines/composer-api/internal/theory"
	"github.com/conceptual-machines/composer-api/pkg/embedded"
)

// Style names a voicing layout.
type Style string

const (
	StyleClose   Style = "close"
	StyleOpen    Style = "open"
	StyleDrop2   Style = "drop2"
	StyleDrop3   Style = "drop3"
	StyleQuartal Style = "quartal"
)

// ParseStyle validates a voicing style name. Empty means close.
func ParseStyle(s string) (Style, error) {
	switch Style(s) {
	case StyleClose, StyleOpen, StyleDrop2, StyleDrop3, StyleQuartal:
		return Style(s), nil
	case "":
		return StyleClose, nil
	}
	return "", theory.NewError(theory.CodeParseError,
		fmt.Sprintf("unknown voicing style %q", s)).
		WithField("voicing_style").
		WithSuggestions("close", "open", "drop2", "drop3", "quartal")
}

// Instrument bounds the playable result.
type Instrument struct {
	Name     string
	Low      theory.Pitch
	High     theory.Pitch
	MaxNotes int
}

// Instruments is the constraint table, loaded from the embedded rule
// data at startup and read-only afterwards.
var Instruments = loadInstruments()

type instrumentsFile struct {
	Instruments map[string]struct {
		Low      string `yaml:"low"`
		High     string `yaml:"high"`
		MaxNotes int    `yaml:"max_notes"`
	} `yaml:"instruments"`
}

func loadInstruments() map[string]Instrument {
	var file instrumentsFile
	if err := yaml.Unmarshal(embedded.InstrumentsYAML, &file); err != nil {
		panic(fmt.Sprintf("embedded instrument table: %v", err))
	}
	out := make(map[string]Instrument, len(file.Instruments))
	for name, row := range file.Instruments {
		out[name] = Instrument{
			Name:     name,
			Low:      theory.MustPitch(row.Low),
			High:     theory.MustPitch(row.High),
			MaxNotes: row.MaxNotes,
		}
	}
	return out
}

// Params describe one voicing request.
type Params struct {
	Chord      *theory.Chord
	Style      Style
	Inversion  int
	Instrument string
	RangeLow   *theory.Pitch // overrides the instrument range
	RangeHigh  *theory.Pitch
	Previous   []theory.Pitch // previous voicing for minimal movement
	Octave     int            // register of the root, default 4
}

// Result is a rendered voicing.
type Result struct {
	Pitches  []theory.Pitch
	Style    Style
	Warnings []theory.Warning
}

// Realize renders the chord into concrete pitches.
func Realize(p Params) (*Result, error) {
	if p.Chord == nil {
		return nil, theory.NewError(theory.CodeInvalidChordSymbol, "no chord supplied").
			WithField("chord_symbol")
	}
	octave := p.Octave
	if octave == 0 {
		octave = 4
	}

	stack := p.Chord.Pitches(octave)
	if p.Chord.Bass != nil {
		stack = applySlashBass(stack, *p.Chord.Bass)
	}

	var voiced []theory.Pitch
	switch p.Style {
	case StyleOpen:
		voiced = openVoicing(stack, p.Inversion)
	case StyleDrop2:
		voiced = dropVoicing(stack, 2)
	case StyleDrop3:
		voiced = dropVoicing(stack, 3)
	case StyleQuartal:
		voiced = quartalVoicing(stack[0])
	default:
		voiced = closeVoicing(stack, p.Inversion)
	}

	if len(p.Previous) > 0 && p.Style == StyleClose {
		voiced = minimizeMovement(stack, voiced, p.Previous)
	}

	result := &Result{Style: p.Style}
	voiced, warnings, err := constrain(voiced, p)
	if err != nil {
		return nil, err
	}
	result.Pitches = voiced
	result.Warnings = warnings
	return result, nil
}

// closeVoicing rotates the stack by the inversion, then lifts each
// successive pitch up octaves as needed to ascend strictly from the
// bass. The lowest note is therefore always the inversion's bass tone.
func closeVoicing(stack []theory.Pitch, inversion int) []theory.Pitch {
	if len(stack) == 0 {
		return nil
	}
	rotated := make([]theory.Pitch, len(stack))
	copy(rotated, stack)
	if inversion > 0 && inversion < len(rotated) {
		rotated = append(rotated[inversion:], rotated[:inversion]...)
	}

	out := []theory.Pitch{rotated[0]}
	for _, p := range rotated[1:] {
		next := p
		for next.MIDI() <= out[len(out)-1].MIDI() {
			next = next.Transpose(12)
		}
		out = append(out, next)
	}
	return out
}

// openVoicing spreads a close voicing by dropping alternate upper
// notes an octave, then re-sorting.
func openVoicing(stack []theory.Pitch, inversion int) []theory.Pitch {
	base := closeVoicing(stack, inversion)
	if len(base) < 3 {
		return base
	}
	out := make([]theory.Pitch, len(base))
	copy(out, base)
	for i := 1; i < len(out); i += 2 {
		out[i] = out[i].Transpose(-12)
	}
	return theory.SortPitches(out)
}

// dropVoicing lowers the nth-from-top note of the close voicing by an
// octave and re-sorts.
func dropVoicing(stack []theory.Pitch, nth int) []theory.Pitch {
	base := closeVoicing(stack, 0)
	if len(base) < 4 {
		return base
	}
	out := make([]theory.Pitch, len(base))
	copy(out, base)
	idx := len(out) - nth
	if idx < 0 {
		idx = 0
	}
	out[idx] = out[idx].Transpose(-12)
	return theory.SortPitches(out)
}

// quartalVoicing stacks root, +P4, +m7 and +M10 regardless of the
// chord's own thirds.
func quartalVoicing(root theory.Pitch) []theory.Pitch {
	return []theory.Pitch{
		root,
		root.Transpose(5),
		root.Transpose(10),
		root.Transpose(16),
	}
}

// applySlashBass removes the bass class from the stack and reinserts it
// at the bottom, an octave under the root.
func applySlashBass(stack []theory.Pitch, bass theory.Pitch) []theory.Pitch {
	var out []theory.Pitch
	for _, p := range stack {
		if p.Class() != bass.Class() {
			out = append(out, p)
		}
	}
	bassPitch := bass.WithOctave(stack[0].Octave() - 1)
	return append([]theory.Pitch{bassPitch}, out...)
}

// minimizeMovement tries every rotation of the chord stack and keeps
// the close voicing whose retained tones move the least total semitone
// distance from the previous voicing.
func minimizeMovement(stack, current, previous []theory.Pitch) []theory.Pitch {
	best := current
	bestCost := movementCost(current, previous)
	for inv := 0; inv < len(stack); inv++ {
		cand := closeVoicing(stack, inv)
		// Try nearby octaves of each rotation as well.
		for _, shift := range []int{-12, 0, 12} {
			shifted := make([]theory.Pitch, len(cand))
			for i, p := range cand {
				shifted[i] = p.Transpose(shift)
			}
			if cost := movementCost(shifted, previous); cost < bestCost {
				bestCost = cost
				best = shifted
			}
		}
	}
	return best
}

func movementCost(voicing, previous []theory.Pitch) int {
	n := len(voicing)
	if len(previous) < n {
		n = len(previous)
	}
	cost := 0
	for i := 0; i < n; i++ {
		d := voicing[i].MIDI() - previous[i].MIDI()
		if d < 0 {
			d = -d
		}
		cost += d
	}
	return cost
}

// constrain fits the voicing into the requested range and note budget.
// Extensions go first; the root, the quality-defining third (or sus
// tone) and the bass always survive, or the chord cannot be voiced.
func constrain(voiced []theory.Pitch, p Params) ([]theory.Pitch, []theory.Warning, error) {
	inst, ok := Instruments[p.Instrument]
	if !ok {
		inst = Instruments["piano"]
	}
	low := inst.Low
	high := inst.High
	if p.RangeLow != nil {
		low = *p.RangeLow
	}
	if p.RangeHigh != nil {
		high = *p.RangeHigh
	}

	var warnings []theory.Warning

	// Octave-fold pitches into range.
	var fitted []theory.Pitch
	for _, pitch := range voiced {
		adj := pitch
		for adj.MIDI() < low.MIDI() {
			adj = adj.Transpose(12)
		}
		for adj.MIDI() > high.MIDI() {
			adj = adj.Transpose(-12)
		}
		if adj.MIDI() < low.MIDI() || adj.MIDI() > high.MIDI() {
			continue // range narrower than an octave
		}
		fitted = append(fitted, adj)
	}
	fitted = theory.SortPitches(fitted)
	fitted = dedupeMIDI(fitted)

	if len(fitted) > inst.MaxNotes {
		fitted = dropExtensionsFirst(fitted, p.Chord, inst.MaxNotes)
		warnings = append(warnings, theory.Warningf("NOTES_DROPPED",
			"voicing reduced to %d notes for %s", len(fitted), inst.Name))
	}

	if !coversCore(fitted, p.Chord, p.Style) {
		return nil, nil, theory.NewError(theory.CodeUnsatisfiableConstraints,
			fmt.Sprintf("cannot voice %s within %s-%s for %s",
				p.Chord, low, high, inst.Name)).
			WithField("chord_symbol")
	}

	return fitted, warnings, nil
}

// dropExtensionsFirst removes extension tones before core chord tones
// until the voicing fits the note budget.
func dropExtensionsFirst(pitches []theory.Pitch, chord *theory.Chord, max int) []theory.Pitch {
	core := map[int]bool{}
	intervals := chord.Intervals()
	for i, iv := range intervals {
		if i < 3 { // triad tones
			core[(chord.Root.Class()+iv)%12] = true
		}
	}
	if chord.Bass != nil {
		core[chord.Bass.Class()] = true
	}

	out := make([]theory.Pitch, len(pitches))
	copy(out, pitches)
	// Drop non-core tones from the top down.
	for len(out) > max {
		dropped := false
		for i := len(out) - 1; i >= 0; i-- {
			if !core[out[i].Class()] {
				out = append(out[:i], out[i+1:]...)
				dropped = true
				break
			}
		}
		if !dropped {
			// Only core tones left; drop inner doublings from the top.
			out = out[:len(out)-1]
		}
	}
	return out
}

// coversCore reports whether the voicing still states the chord: the
// root and the quality-defining tone (third, or the sus replacement)
// must both sound. A quartal stack is fourths over the root independent
// of the chord's own thirds, so only the root is required there.
func coversCore(pitches []theory.Pitch, chord *theory.Chord, style Style) bool {
	if len(pitches) == 0 {
		return false
	}
	rootClass := chord.Root.Class()

	hasRoot := false
	for _, p := range pitches {
		if p.Class() == rootClass {
			hasRoot = true
			break
		}
	}
	if style == StyleQuartal {
		return hasRoot
	}

	intervals := chord.Intervals()
	if len(intervals) < 2 {
		return false
	}
	qualityClass := (rootClass + intervals[1]) % 12
	for _, p := range pitches {
		if p.Class() == qualityClass {
			return hasRoot
		}
	}
	return false
}

func dedupeMIDI(pitches []theory.Pitch) []theory.Pitch {
	var out []theory.Pitch
	seen := map[int]bool{}
	for _, p := range pitches {
		if !seen[p.MIDI()] {
			seen[p.MIDI()] = true
			out = append(out, p)
		}
	}
	return out
}

// IntervalsFromBass names the interval from the lowest note to each
// upper note, for voicing analysis output.
func IntervalsFromBass(pitches []theory.Pitch) []string {
	if len(pitches) < 2 {
		return nil
	}
	out := make([]string, 0, len(pitches)-1)
	for _, p := range pitches[1:] {
		out = append(out, theory.IntervalBetween(pitches[0], p).SimpleName())
	}
	return out
}
