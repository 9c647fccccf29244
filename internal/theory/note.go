package theory

// Event is a single timed element of a Stream: a note, a chord or a
// rest. An event with no pitches is a rest; one pitch is a note; more
// than one is a chord. Events are values and never mutated in place.
type Event struct {
	Pitches []Pitch
	Dur     Duration
}

// NewNote builds a single-pitch event.
func NewNote(p Pitch, d Duration) Event {
	return Event{Pitches: []Pitch{p}, Dur: d}
}

// NewRest builds a silent event.
func NewRest(d Duration) Event {
	return Event{Dur: d}
}

// NewChordEvent builds a multi-pitch event with pitches sorted ascending.
func NewChordEvent(pitches []Pitch, d Duration) Event {
	return Event{Pitches: SortPitches(pitches), Dur: d}
}

// IsRest reports whether the event is silent.
func (e Event) IsRest() bool { return len(e.Pitches) == 0 }

// IsChord reports whether the event carries more than one pitch.
func (e Event) IsChord() bool { return len(e.Pitches) > 1 }

// Pitch returns the single pitch of a note event. Chords return their
// lowest pitch; rests return false.
func (e Event) Pitch() (Pitch, bool) {
	if len(e.Pitches) == 0 {
		return Pitch{}, false
	}
	return e.Pitches[0], true
}

// Transposed returns a copy of the event shifted by semitones.
func (e Event) Transposed(semitones int) Event {
	out := Event{Dur: e.Dur}
	if len(e.Pitches) > 0 {
		out.Pitches = make([]Pitch, len(e.Pitches))
		for i, p := range e.Pitches {
			out.Pitches[i] = p.Transpose(semitones)
		}
	}
	return out
}

// WithDuration returns a copy of the event with another duration.
func (e Event) WithDuration(d Duration) Event {
	out := e
	out.Dur = d
	return out
}
