// Package midiexport renders Streams as Standard MIDI Files, with
// optional humanization of timing, velocity and duration applied
// before encoding.
package midiexport

import (
	"bytes"
	"fmt"
	"math/rand"
	"sort"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/conceptual-machines/composer-api/internal/theory"
)

// ticks per quarter note in emitted files.
const ppq = 960

// Velocity curves understood by Humanize.
const (
	CurveFlat       = "flat"
	CurveDynamic    = "dynamic"
	CurveCrescendo  = "crescendo"
	CurveDiminuendo = "diminuendo"
)

const defaultVelocity = 64

// Options configure one export.
type Options struct {
	Tempo          float64 // BPM, default 120
	Humanize       bool
	HumanizeAmount float64 // 0..1, default 0.3
	VelocityCurve  string
	Seed           int64
}

// Note is one scheduled MIDI note, in absolute ticks.
type Note struct {
	Start    float64
	Duration float64
	Key      uint8
	Velocity uint8
}

// Export encodes the stream as a single-track SMF.
func Export(s *theory.Stream, opt Options) ([]byte, error) {
	if s == nil || s.Len() == 0 {
		return nil, theory.NewError(theory.CodeEmptyInput, "stream contains no events").
			WithField("music_input")
	}
	if opt.Tempo <= 0 {
		opt.Tempo = 120
	}
	if opt.Tempo < 20 || opt.Tempo > 400 {
		return nil, theory.NewError(theory.CodeUnsatisfiableConstraints,
			fmt.Sprintf("tempo %g out of supported range 20-400", opt.Tempo)).
			WithField("tempo")
	}

	notes := Flatten(s)
	if opt.Humanize {
		amount := opt.HumanizeAmount
		if amount == 0 {
			amount = 0.3
		}
		curve := opt.VelocityCurve
		if curve == "" {
			curve = CurveFlat
		}
		notes = Humanize(notes, amount, curve, rand.New(rand.NewSource(opt.Seed)))
	}

	return encode(notes, opt.Tempo, s.Meter())
}

// Flatten expands the stream into absolute-tick notes at the default
// velocity. Chord events contribute one note per pitch.
func Flatten(s *theory.Stream) []Note {
	var notes []Note
	cursor := 0.0
	for i := 0; i < s.Len(); i++ {
		ev := s.At(i)
		ticks := ev.Dur.Quarters() * ppq
		for _, p := range ev.Pitches {
			midiKey := p.MIDI()
			if midiKey < 0 || midiKey > 127 {
				continue
			}
			notes = append(notes, Note{
				Start:    cursor,
				Duration: ticks,
				Key:      uint8(midiKey),
				Velocity: defaultVelocity,
			})
		}
		cursor += ticks
	}
	return notes
}

// Humanize jitters start times and durations and shapes velocities.
// Deterministic for a given rng seed.
func Humanize(notes []Note, amount float64, curve string, rng *rand.Rand) []Note {
	timingJitter := 0.05 * amount * ppq
	velocityJitter := 25.0 * amount
	durationJitter := 0.15 * amount
	if curve == CurveDynamic {
		velocityJitter = 40.0 * amount
	}

	out := make([]Note, len(notes))
	total := len(notes)
	for i, n := range notes {
		start := n.Start + rng.NormFloat64()*timingJitter
		if start < 0 {
			start = 0
		}

		base := float64(n.Velocity)
		switch {
		case curve == CurveCrescendo && total > 1:
			base = 50 + float64(i)/float64(total-1)*77
		case curve == CurveDiminuendo && total > 1:
			base = 50 + (1-float64(i)/float64(total-1))*77
		}
		velocity := base + (rng.Float64()*2-1)*velocityJitter
		if velocity < 1 {
			velocity = 1
		}
		if velocity > 127 {
			velocity = 127
		}

		duration := n.Duration * (1 + (rng.Float64()*2-1)*durationJitter)

		out[i] = Note{
			Start:    start,
			Duration: duration,
			Key:      n.Key,
			Velocity: uint8(velocity + 0.5),
		}
	}
	return out
}

type timedMessage struct {
	tick float64
	// note-offs sort before note-ons at the same tick
	off bool
	msg midi.Message
}

func encode(notes []Note, tempo float64, meter theory.Meter) ([]byte, error) {
	var timeline []timedMessage
	for _, n := range notes {
		timeline = append(timeline, timedMessage{
			tick: n.Start,
			msg:  midi.NoteOn(0, n.Key, n.Velocity),
		})
		timeline = append(timeline, timedMessage{
			tick: n.Start + n.Duration,
			off:  true,
			msg:  midi.NoteOff(0, n.Key),
		})
	}
	sort.SliceStable(timeline, func(i, j int) bool {
		if timeline[i].tick != timeline[j].tick {
			return timeline[i].tick < timeline[j].tick
		}
		return timeline[i].off && !timeline[j].off
	})

	var track smf.Track
	track.Add(0, smf.MetaTempo(tempo))
	track.Add(0, smf.MetaMeter(uint8(meter.Beats), uint8(meter.BeatUnit)))

	cursor := 0.0
	for _, tm := range timeline {
		delta := tm.tick - cursor
		if delta < 0 {
			delta = 0
		}
		track.Add(uint32(delta+0.5), tm.msg)
		cursor = tm.tick
	}
	track.Close(0)

	file := smf.New()
	file.TimeFormat = smf.MetricTicks(ppq)
	file.Add(track)

	var buf bytes.Buffer
	if _, err := file.WriteTo(&buf); err != nil {
		return nil, theory.NewError(theory.CodeGenerationFailed,
			fmt.Sprintf("could not encode midi file: %v", err))
	}
	return buf.Bytes(), nil
}

// DurationSeconds is the playing time of the stream at a tempo.
func DurationSeconds(s *theory.Stream, tempo float64) float64 {
	if tempo <= 0 {
		tempo = 120
	}
	return s.TotalDuration().Quarters() * 60.0 / tempo
}
