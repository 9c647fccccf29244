package notation

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/conceptual-machines/composer-api/internal/theory"
)

// divisions per quarter note in emitted MusicXML.
const xmlDivisions = 480

type xmlScore struct {
	XMLName xml.Name  `xml:"score-partwise"`
	Version string    `xml:"version,attr,omitempty"`
	Parts   []xmlPart `xml:"part"`
}

type xmlPart struct {
	ID       string       `xml:"id,attr,omitempty"`
	Measures []xmlMeasure `xml:"measure"`
}

type xmlMeasure struct {
	Number     int            `xml:"number,attr"`
	Attributes *xmlAttributes `xml:"attributes,omitempty"`
	Notes      []xmlNote      `xml:"note"`
}

type xmlAttributes struct {
	Divisions int      `xml:"divisions,omitempty"`
	Key       *xmlKey  `xml:"key,omitempty"`
	Time      *xmlTime `xml:"time,omitempty"`
}

type xmlKey struct {
	Fifths int    `xml:"fifths"`
	Mode   string `xml:"mode,omitempty"`
}

type xmlTime struct {
	Beats    int `xml:"beats"`
	BeatType int `xml:"beat-type"`
}

type xmlNote struct {
	Chord    *struct{} `xml:"chord,omitempty"`
	Rest     *struct{} `xml:"rest,omitempty"`
	Pitch    *xmlPitch `xml:"pitch,omitempty"`
	Duration int       `xml:"duration"`
}

type xmlPitch struct {
	Step   string `xml:"step"`
	Alter  int    `xml:"alter,omitempty"`
	Octave int    `xml:"octave"`
}

// Major-key tonic classes around the circle of fifths, indexed by
// fifths+7 (from 7 flats to 7 sharps).
var fifthsToMajorTonic = [15]int{11, 6, 1, 8, 3, 10, 5, 0, 7, 2, 9, 4, 11, 6, 1}

// ParseMusicXML parses a score-partwise document. Only the first part
// is read; chords, rests, key and time signatures are honored.
func ParseMusicXML(input string) (*theory.Stream, error) {
	var score xmlScore
	if err := xml.Unmarshal([]byte(input), &score); err != nil {
		return nil, theory.NewError(theory.CodeParseError,
			fmt.Sprintf("malformed musicxml: %v", err)).WithField("melody")
	}
	if len(score.Parts) == 0 {
		return nil, theory.NewError(theory.CodeEmptyInput, "musicxml has no parts").
			WithField("melody")
	}

	meter, _ := theory.ParseMeter("4/4")
	var key *theory.Key
	divisions := 1

	var events []theory.Event
	for _, measure := range score.Parts[0].Measures {
		if attrs := measure.Attributes; attrs != nil {
			if attrs.Divisions > 0 {
				divisions = attrs.Divisions
			}
			if attrs.Time != nil && attrs.Time.BeatType > 0 {
				m, err := theory.ParseMeter(
					fmt.Sprintf("%d/%d", attrs.Time.Beats, attrs.Time.BeatType))
				if err == nil {
					meter = m
				}
			}
			if attrs.Key != nil {
				if k, ok := keyFromFifths(attrs.Key.Fifths, attrs.Key.Mode); ok {
					key = &k
				}
			}
		}

		for _, note := range measure.Notes {
			// divisions counts ticks per quarter note.
			dur := theory.NewDuration(note.Duration, divisions)
			switch {
			case note.Rest != nil:
				events = append(events, theory.NewRest(dur))
			case note.Pitch != nil:
				pitch, err := pitchFromXML(*note.Pitch)
				if err != nil {
					return nil, err
				}
				if note.Chord != nil && len(events) > 0 && !events[len(events)-1].IsRest() {
					last := &events[len(events)-1]
					last.Pitches = append(last.Pitches, pitch)
				} else {
					events = append(events, theory.NewNote(pitch, dur))
				}
			}
		}
	}

	if len(events) == 0 {
		return nil, theory.NewError(theory.CodeEmptyInput, "musicxml has no notes").
			WithField("melody")
	}
	return theory.NewStream(events, meter, key), nil
}

func keyFromFifths(fifths int, mode string) (theory.Key, bool) {
	if fifths < -7 || fifths > 7 {
		return theory.Key{}, false
	}
	tonic := fifthsToMajorTonic[fifths+7]
	modeName := "major"
	if strings.EqualFold(mode, "minor") {
		tonic = (tonic + 9) % 12
		modeName = "minor"
	}
	k, err := theory.ParseKey(theory.NewPitch(tonic, 4).ClassName() + " " + modeName)
	if err != nil {
		return theory.Key{}, false
	}
	return k, true
}

func pitchFromXML(p xmlPitch) (theory.Pitch, error) {
	if len(p.Step) != 1 {
		return theory.Pitch{}, theory.NewError(theory.CodeParseError,
			fmt.Sprintf("invalid step %q in musicxml pitch", p.Step)).WithField("melody")
	}
	base, err := theory.ParsePitch(fmt.Sprintf("%s%d", p.Step, p.Octave))
	if err != nil {
		return theory.Pitch{}, err
	}
	return base.Transpose(p.Alter), nil
}

// SerializeMusicXML renders a Stream as a minimal single-part
// score-partwise document. Events that span a barline stay in the
// measure they start in.
func SerializeMusicXML(s *theory.Stream) (string, error) {
	measureDur := s.Meter().MeasureDuration()

	attrs := &xmlAttributes{
		Divisions: xmlDivisions,
		Time:      &xmlTime{Beats: s.Meter().Beats, BeatType: s.Meter().BeatUnit},
	}
	if k := s.Key(); k != nil {
		if fifths, ok := fifthsForKey(*k); ok {
			mode := "major"
			if k.IsMinor() {
				mode = "minor"
			}
			attrs.Key = &xmlKey{Fifths: fifths, Mode: mode}
		}
	}

	var measures []xmlMeasure
	current := xmlMeasure{Number: 1, Attributes: attrs}
	elapsed := theory.NewDuration(0, 1)

	flush := func() {
		if len(current.Notes) > 0 {
			measures = append(measures, current)
			current = xmlMeasure{Number: len(measures) + 1}
		}
	}

	for i := 0; i < s.Len(); i++ {
		ev := s.At(i)
		ticks := int(ev.Dur.Quarters()*xmlDivisions + 0.5)

		if ev.IsRest() {
			current.Notes = append(current.Notes, xmlNote{Rest: &struct{}{}, Duration: ticks})
		} else {
			for j, p := range ev.Pitches {
				note := xmlNote{Pitch: xmlPitchOf(p), Duration: ticks}
				if j > 0 {
					note.Chord = &struct{}{}
				}
				current.Notes = append(current.Notes, note)
			}
		}

		elapsed = elapsed.Add(ev.Dur)
		for elapsed.Cmp(measureDur) >= 0 {
			elapsed = elapsed.Sub(measureDur)
			if elapsed.IsZero() {
				flush()
			}
		}
	}
	flush()

	score := xmlScore{
		Version: "4.0",
		Parts:   []xmlPart{{ID: "P1", Measures: measures}},
	}
	out, err := xml.MarshalIndent(score, "", "  ")
	if err != nil {
		return "", theory.NewError(theory.CodeParseError,
			fmt.Sprintf("could not serialize musicxml: %v", err))
	}
	return xml.Header + string(out) + "\n", nil
}

func fifthsForKey(k theory.Key) (int, bool) {
	tonic := k.Tonic.Class()
	if k.IsMinor() {
		tonic = (tonic + 3) % 12
	}
	for fifths := -7; fifths <= 7; fifths++ {
		if fifthsToMajorTonic[fifths+7] == tonic {
			return fifths, true
		}
	}
	return 0, false
}

func xmlPitchOf(p theory.Pitch) *xmlPitch {
	name := p.ClassName()
	out := &xmlPitch{Step: string(name[0]), Octave: p.Octave()}
	if len(name) > 1 {
		if name[1] == '#' {
			out.Alter = 1
		} else {
			out.Alter = -1
		}
	}
	return out
}
