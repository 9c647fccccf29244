package theory

import (
	"fmt"
	"strconv"
	"strings"
)

// Meter is a time signature.
type Meter struct {
	Beats    int // beats per measure
	BeatUnit int // 4 = quarter gets the beat, 8 = eighth...
}

// CommonTime is 4/4.
var CommonTime = Meter{Beats: 4, BeatUnit: 4}

// ParseMeter parses time signatures like "4/4", "3/4" or "6/8".
func ParseMeter(s string) (Meter, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 2 {
		return Meter{}, NewError(CodeInvalidTimeSignature,
			fmt.Sprintf("invalid time signature %q, expected format like 4/4, 3/4, 6/8", s)).
			WithField("time_signature")
	}
	beats, err1 := strconv.Atoi(parts[0])
	unit, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || beats < 1 || unit < 1 {
		return Meter{}, NewError(CodeInvalidTimeSignature,
			fmt.Sprintf("invalid time signature %q", s)).
			WithField("time_signature")
	}
	return Meter{Beats: beats, BeatUnit: unit}, nil
}

// MeasureDuration returns the exact quarter length of one measure.
func (m Meter) MeasureDuration() Duration {
	return NewDuration(4*m.Beats, m.BeatUnit)
}

func (m Meter) String() string {
	return fmt.Sprintf("%d/%d", m.Beats, m.BeatUnit)
}

// Stream is an ordered sequence of timed events with meter and key
// context. Streams are immutable: every transform returns a new Stream
// and never touches its receiver, so callers may reuse an input across
// derived calls.
type Stream struct {
	events []Event
	meter  Meter
	key    *Key
}

// NewStream builds a stream over a copy of the given events.
func NewStream(events []Event, meter Meter, key *Key) *Stream {
	evs := make([]Event, len(events))
	copy(evs, events)
	if meter.Beats == 0 {
		meter = CommonTime
	}
	return &Stream{events: evs, meter: meter, key: key}
}

// Events returns a copy of the event sequence.
func (s *Stream) Events() []Event {
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// Len returns the number of events.
func (s *Stream) Len() int { return len(s.events) }

// At returns the event at index i.
func (s *Stream) At(i int) Event { return s.events[i] }

// Meter returns the stream's time signature.
func (s *Stream) Meter() Meter { return s.meter }

// Key returns the stream's key context, nil when unset.
func (s *Stream) Key() *Key { return s.key }

// WithKey returns a copy of the stream with another key context.
func (s *Stream) WithKey(k Key) *Stream {
	out := NewStream(s.events, s.meter, &k)
	return out
}

// TotalDuration returns the exact sum of all event durations.
func (s *Stream) TotalDuration() Duration {
	total := NewDuration(0, 1)
	for _, e := range s.events {
		total = total.Add(e.Dur)
	}
	return total
}

// OffsetOf returns the exact quarter-length offset of event i.
func (s *Stream) OffsetOf(i int) Duration {
	total := NewDuration(0, 1)
	for j := 0; j < i && j < len(s.events); j++ {
		total = total.Add(s.events[j].Dur)
	}
	return total
}

// MeasureAndBeat returns the 1-based measure and beat of event i.
func (s *Stream) MeasureAndBeat(i int) (int, float64) {
	offset := s.OffsetOf(i).Quarters()
	measureLen := s.meter.MeasureDuration().Quarters()
	measure := int(offset/measureLen) + 1
	beat := offset - float64(measure-1)*measureLen + 1
	return measure, beat
}

// Notes returns the indices of all sounding (non-rest) events.
func (s *Stream) Notes() []int {
	var out []int
	for i, e := range s.events {
		if !e.IsRest() {
			out = append(out, i)
		}
	}
	return out
}

// ClassesSounding returns the distinct pitch classes sounding in the
// half-open offset window [from, from+window).
func (s *Stream) ClassesSounding(from, window Duration) []int {
	seen := map[int]bool{}
	var out []int
	start := NewDuration(0, 1)
	end := from.Add(window)
	for _, e := range s.events {
		evEnd := start.Add(e.Dur)
		if start.Cmp(end) < 0 && evEnd.Cmp(from) > 0 {
			for _, p := range e.Pitches {
				if !seen[p.Class()] {
					seen[p.Class()] = true
					out = append(out, p.Class())
				}
			}
		}
		start = evEnd
	}
	return out
}

// Append returns a new stream with the events added at the end.
func (s *Stream) Append(events ...Event) *Stream {
	evs := make([]Event, 0, len(s.events)+len(events))
	evs = append(evs, s.events...)
	evs = append(evs, events...)
	return &Stream{events: evs, meter: s.meter, key: s.key}
}

// Concat returns a new stream with o's events appended to s's.
func (s *Stream) Concat(o *Stream) *Stream {
	return s.Append(o.events...)
}

// Transposed returns a new stream with every pitch shifted by semitones.
func (s *Stream) Transposed(semitones int) *Stream {
	evs := make([]Event, len(s.events))
	for i, e := range s.events {
		evs[i] = e.Transposed(semitones)
	}
	return &Stream{events: evs, meter: s.meter, key: s.key}
}

// Retrograde returns a new stream with the event order reversed.
// Durations ride along with their events, so applying it twice restores
// the original sequence.
func (s *Stream) Retrograde() *Stream {
	evs := make([]Event, len(s.events))
	for i, e := range s.events {
		evs[len(s.events)-1-i] = e
	}
	return &Stream{events: evs, meter: s.meter, key: s.key}
}

// Inverted returns a new stream with the melodic contour mirrored
// around the first sounding pitch.
func (s *Stream) Inverted() *Stream {
	var axis *Pitch
	for _, e := range s.events {
		if p, ok := e.Pitch(); ok {
			axis = &p
			break
		}
	}
	if axis == nil {
		return NewStream(s.events, s.meter, s.key)
	}
	evs := make([]Event, len(s.events))
	for i, e := range s.events {
		if e.IsRest() {
			evs[i] = e
			continue
		}
		pitches := make([]Pitch, len(e.Pitches))
		for j, p := range e.Pitches {
			pitches[j] = PitchFromMIDI(2*axis.MIDI() - p.MIDI())
		}
		evs[i] = Event{Pitches: SortPitches(pitches), Dur: e.Dur}
	}
	return &Stream{events: evs, meter: s.meter, key: s.key}
}

// Scaled returns a new stream with every duration multiplied by factor.
// Augmentation is Scaled(2/1); diminution Scaled(1/2). Rational
// arithmetic guarantees augmentation then diminution is exact identity.
func (s *Stream) Scaled(factor Duration) *Stream {
	evs := make([]Event, len(s.events))
	for i, e := range s.events {
		evs[i] = e.WithDuration(e.Dur.Mul(factor))
	}
	return &Stream{events: evs, meter: s.meter, key: s.key}
}

// Fragment returns a new stream over events [from, to).
func (s *Stream) Fragment(from, to int) *Stream {
	if from < 0 {
		from = 0
	}
	if to > len(s.events) {
		to = len(s.events)
	}
	if from > to {
		from = to
	}
	return NewStream(s.events[from:to], s.meter, s.key)
}
