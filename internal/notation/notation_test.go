package notation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conceptual-machines/composer-api/internal/theory"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		input string
		want  Format
	}{
		{"C4:q D4:q E4:h", FormatNotes},
		{"c4 d4 e4", FormatNotes},
		{"X:1\nK:C\nCDEF", FormatABC},
		{"<?xml version=\"1.0\"?><score-partwise/>", FormatMusicXML},
		{"<score-partwise version=\"4.0\">", FormatMusicXML},
	}
	for _, tt := range tests {
		got, err := DetectFormat(tt.input)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
	}
}

func TestDetectFormatErrors(t *testing.T) {
	_, err := DetectFormat("   ")
	var terr *theory.Error
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, theory.CodeEmptyInput, terr.Code)

	_, err = DetectFormat("??? what")
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, theory.CodeParseError, terr.Code)
}

func TestParseNoteList(t *testing.T) {
	s, err := ParseNoteList("C4:q, D4:e, E4:h, r:q, F#4:qd")
	require.NoError(t, err)
	require.Equal(t, 5, s.Len())

	p, ok := s.At(0).Pitch()
	require.True(t, ok)
	assert.Equal(t, 60, p.MIDI())
	assert.True(t, s.At(3).IsRest())
	assert.InDelta(t, 1.5, s.At(4).Dur.Quarters(), 1e-9)
}

func TestParseNoteListDefaultsToQuarter(t *testing.T) {
	s, err := ParseNoteList("C4 E4 G4")
	require.NoError(t, err)
	require.Equal(t, 3, s.Len())
	for i := 0; i < s.Len(); i++ {
		assert.Zero(t, s.At(i).Dur.Cmp(theory.Quarter))
	}
}

func TestParseNoteListErrors(t *testing.T) {
	var terr *theory.Error

	_, err := ParseNoteList("H4:q")
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, theory.CodeParseError, terr.Code)
	assert.Contains(t, terr.Message, "token 0")

	_, err = ParseNoteList("C4:x")
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, theory.CodeParseError, terr.Code)
}

func TestNoteListRoundTrip(t *testing.T) {
	original := "C4:q D4:e E4:h r:q F#4:qd C4+E4+G4:w"
	s, err := ParseNoteList(original)
	require.NoError(t, err)
	assert.Equal(t, original, SerializeNoteList(s))
}

func TestParseABC(t *testing.T) {
	input := strings.Join([]string{
		"X:1",
		"T:Test",
		"M:3/4",
		"L:1/8",
		"K:G",
		"G2 A2 B2 | c2 B2 A2 |",
	}, "\n")
	s, err := ParseABC(input)
	require.NoError(t, err)
	assert.Equal(t, 6, s.Len())
	assert.Equal(t, 3, s.Meter().Beats)

	require.NotNil(t, s.Key())
	assert.Equal(t, 7, s.Key().Tonic.Class())
	assert.Equal(t, theory.ModeMajor, s.Key().Mode)

	// G2 with L:1/8 is a quarter note; lowercase c is C5.
	assert.Zero(t, s.At(0).Dur.Cmp(theory.Quarter))
	p, ok := s.At(3).Pitch()
	require.True(t, ok)
	assert.Equal(t, 72, p.MIDI())
}

func TestParseABCAccidentalsAndRests(t *testing.T) {
	s, err := ParseABC("X:1\nK:Am\n^F G z2 _B,")
	require.NoError(t, err)
	require.Equal(t, 4, s.Len())

	fs, _ := s.At(0).Pitch()
	assert.Equal(t, 66, fs.MIDI()) // F#4
	assert.True(t, s.At(2).IsRest())
	bb, _ := s.At(3).Pitch()
	assert.Equal(t, 58, bb.MIDI()) // Bb3

	require.NotNil(t, s.Key())
	assert.Equal(t, theory.ModeMinor, s.Key().Mode)
}

func TestABCRoundTrip(t *testing.T) {
	meter, _ := theory.ParseMeter("4/4")
	key, _ := theory.ParseKey("D major")
	events := []theory.Event{
		theory.NewNote(theory.MustPitch("D4"), theory.Quarter),
		theory.NewNote(theory.MustPitch("F#4"), theory.Eighth),
		theory.NewRest(theory.Eighth),
		theory.NewNote(theory.MustPitch("A4"), theory.Half),
		theory.NewNote(theory.MustPitch("D5"), theory.Whole),
	}
	s := theory.NewStream(events, meter, &key)

	parsed, err := ParseABC(SerializeABC(s))
	require.NoError(t, err)
	require.Equal(t, s.Len(), parsed.Len())
	for i := 0; i < s.Len(); i++ {
		assert.Zero(t, s.At(i).Dur.Cmp(parsed.At(i).Dur), "duration %d", i)
		op, oOK := s.At(i).Pitch()
		pp, pOK := parsed.At(i).Pitch()
		require.Equal(t, oOK, pOK, "event %d", i)
		if oOK {
			assert.Equal(t, op.MIDI(), pp.MIDI(), "pitch %d", i)
		}
	}
	assert.Equal(t, s.Meter(), parsed.Meter())
}

func TestMusicXMLRoundTrip(t *testing.T) {
	meter, _ := theory.ParseMeter("4/4")
	key, _ := theory.ParseKey("F major")
	events := []theory.Event{
		theory.NewNote(theory.MustPitch("F4"), theory.Quarter),
		theory.NewNote(theory.MustPitch("Bb4"), theory.Eighth),
		theory.NewRest(theory.Eighth),
		theory.NewChordEvent([]theory.Pitch{
			theory.MustPitch("F4"), theory.MustPitch("A4"), theory.MustPitch("C5"),
		}, theory.Half),
	}
	s := theory.NewStream(events, meter, &key)

	text, err := SerializeMusicXML(s)
	require.NoError(t, err)
	assert.Contains(t, text, "score-partwise")

	parsed, err := ParseMusicXML(text)
	require.NoError(t, err)
	require.Equal(t, s.Len(), parsed.Len())
	for i := 0; i < s.Len(); i++ {
		assert.Zero(t, s.At(i).Dur.Cmp(parsed.At(i).Dur), "duration %d", i)
		assert.Equal(t, len(s.At(i).Pitches), len(parsed.At(i).Pitches), "event %d", i)
		for j := range s.At(i).Pitches {
			assert.Equal(t, s.At(i).Pitches[j].MIDI(), parsed.At(i).Pitches[j].MIDI())
		}
	}
	require.NotNil(t, parsed.Key())
	assert.Equal(t, 5, parsed.Key().Tonic.Class())
	assert.Equal(t, s.Meter(), parsed.Meter())
}

func TestParseMusicXMLDivisionsPerQuarter(t *testing.T) {
	input := strings.Join([]string{
		`<score-partwise><part id="P1"><measure number="1">`,
		`<attributes><divisions>4</divisions></attributes>`,
		`<note><pitch><step>C</step><octave>4</octave></pitch><duration>4</duration></note>`,
		`<note><pitch><step>D</step><octave>4</octave></pitch><duration>2</duration></note>`,
		`<note><pitch><step>E</step><octave>4</octave></pitch><duration>16</duration></note>`,
		`</measure></part></score-partwise>`,
	}, "")
	s, err := ParseMusicXML(input)
	require.NoError(t, err)
	require.Equal(t, 3, s.Len())

	// divisions=4 means 4 ticks per quarter note.
	assert.Zero(t, s.At(0).Dur.Cmp(theory.Quarter))
	assert.Zero(t, s.At(1).Dur.Cmp(theory.Eighth))
	assert.Zero(t, s.At(2).Dur.Cmp(theory.Whole))
}

func TestParseMusicXMLMalformed(t *testing.T) {
	_, err := ParseMusicXML("<score-partwise><unclosed>")
	var terr *theory.Error
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, theory.CodeParseError, terr.Code)
}

func TestParseDispatchesOnDetection(t *testing.T) {
	s, err := Parse("C4:q D4:q", "")
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())
}
