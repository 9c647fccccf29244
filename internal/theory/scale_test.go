package theory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKey(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantTonic int
		wantMode  Mode
		wantErr   bool
	}{
		{name: "C major", input: "C major", wantTonic: 0, wantMode: ModeMajor},
		{name: "sharp tonic", input: "F# minor", wantTonic: 6, wantMode: ModeMinor},
		{name: "mode", input: "D dorian", wantTonic: 2, wantMode: ModeDorian},
		{name: "case insensitive mode", input: "G Mixolydian", wantTonic: 7, wantMode: ModeMixolydian},
		{name: "missing mode", input: "C", wantErr: true},
		{name: "unknown mode", input: "C ionian", wantErr: true},
		{name: "bad tonic", input: "H major", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k, err := ParseKey(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				var terr *Error
				require.ErrorAs(t, err, &terr)
				assert.Equal(t, CodeInvalidKey, terr.Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTonic, k.Tonic.Class())
			assert.Equal(t, tt.wantMode, k.Mode)
		})
	}
}

func TestKeyClasses(t *testing.T) {
	cMajor, err := ParseKey("C major")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 4, 5, 7, 9, 11}, cMajor.Classes())

	aMinor, err := ParseKey("A minor")
	require.NoError(t, err)
	assert.Equal(t, []int{9, 11, 0, 2, 4, 5, 7}, aMinor.Classes())

	dDorian, err := ParseKey("D dorian")
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4, 5, 7, 9, 0, 11}, dDorian.Classes())
}

func TestResolveScale(t *testing.T) {
	cMajor, err := ParseKey("C major")
	require.NoError(t, err)

	sc, err := ResolveScale(cMajor, MustPitch("C4"), MustPitch("C5"))
	require.NoError(t, err)

	names := make([]string, len(sc.Pitches))
	for i, p := range sc.Pitches {
		names[i] = p.Name()
	}
	assert.Equal(t, []string{"C4", "D4", "E4", "F4", "G4", "A4", "B4", "C5"}, names)

	// Every pitch ascends and lies inside the range.
	for i := 1; i < len(sc.Pitches); i++ {
		assert.Greater(t, sc.Pitches[i].MIDI(), sc.Pitches[i-1].MIDI())
	}
}

func TestResolveScaleErrors(t *testing.T) {
	cMajor, err := ParseKey("C major")
	require.NoError(t, err)

	// Inverted range.
	_, err = ResolveScale(cMajor, MustPitch("C6"), MustPitch("C4"))
	var terr *Error
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, CodeInvalidRange, terr.Code)

	// Too narrow: two scale tones only.
	_, err = ResolveScale(cMajor, MustPitch("C4"), MustPitch("D4"))
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, CodeUnsatisfiableConstraints, terr.Code)
}

func TestScaleNearest(t *testing.T) {
	cMajor, _ := ParseKey("C major")
	sc, err := ResolveScale(cMajor, MustPitch("C4"), MustPitch("C5"))
	require.NoError(t, err)

	assert.Equal(t, 60, sc.Nearest(MustPitch("C4")).MIDI())
	// C#4 snaps to an adjacent scale tone.
	near := sc.Nearest(MustPitch("C#4"))
	assert.Contains(t, []int{60, 62}, near.MIDI())
	assert.True(t, sc.Contains(MustPitch("G4")))
	assert.False(t, sc.Contains(MustPitch("F#4")))
}

