package harmony

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conceptual-machines/composer-api/internal/theory"
)

func cMajorMelody(t *testing.T) *theory.Stream {
	t.Helper()
	meter, err := theory.ParseMeter("4/4")
	require.NoError(t, err)
	key, err := theory.ParseKey("C major")
	require.NoError(t, err)

	names := []string{
		"C4", "E4", "G4", "E4",
		"F4", "A4", "G4", "F4",
		"E4", "D4", "E4", "F4",
		"D4", "B3", "C4", "C4",
	}
	events := make([]theory.Event, len(names))
	for i, n := range names {
		events[i] = theory.NewNote(theory.MustPitch(n), theory.Quarter)
	}
	s := theory.NewStream(events, meter, &key)
	return s
}

func TestDetectKeyCMajor(t *testing.T) {
	k := DetectKey(cMajorMelody(t))
	assert.Equal(t, 0, k.Tonic.Class())
	assert.Equal(t, theory.ModeMajor, k.Mode)
}

func TestDetectKeyAMinor(t *testing.T) {
	meter, _ := theory.ParseMeter("4/4")
	names := []string{"A3", "C4", "E4", "A4", "G#4", "A4", "E4", "C4",
		"B3", "A3", "E4", "A4", "C4", "B3", "A3", "A3"}
	events := make([]theory.Event, len(names))
	for i, n := range names {
		events[i] = theory.NewNote(theory.MustPitch(n), theory.Quarter)
	}
	k := DetectKey(theory.NewStream(events, meter, nil))
	assert.Equal(t, 9, k.Tonic.Class())
	assert.Equal(t, theory.ModeMinor, k.Mode)
}

func TestResolveNumeral(t *testing.T) {
	key, err := theory.ParseKey("C major")
	require.NoError(t, err)

	tests := []struct {
		numeral     string
		wantRoot    int
		wantQuality string
		wantSymbol  string
	}{
		{"I", 0, theory.QualityMajor, "C"},
		{"ii", 2, theory.QualityMinor, "Dm"},
		{"V", 7, theory.QualityMajor, "G"},
		{"V7", 7, theory.QualityMajor, "G7"},
		{"vi7", 9, theory.QualityMinor, "Am7"},
		{"viio", 11, theory.QualityDiminished, "Bdim"},
		{"Imaj7", 0, theory.QualityMajor, "Cmaj7"},
		{"bII7", 1, theory.QualityMajor, "C#7"},
	}
	for _, tt := range tests {
		chord, err := ResolveNumeral(tt.numeral, key)
		require.NoError(t, err, tt.numeral)
		assert.Equal(t, tt.wantRoot, chord.Root.Class(), tt.numeral)
		assert.Equal(t, tt.wantQuality, chord.Quality, tt.numeral)
		assert.Equal(t, tt.wantSymbol, chord.Symbol, tt.numeral)
	}

	_, err = ResolveNumeral("X", key)
	require.Error(t, err)
}

func TestStyleFor(t *testing.T) {
	for _, name := range []string{"classical", "jazz", "pop", "modal"} {
		s, err := StyleFor(name)
		require.NoError(t, err)
		assert.NotEmpty(t, s.AllowedNumerals, name)
	}

	s, err := StyleFor("")
	require.NoError(t, err)
	assert.Equal(t, "classical", s.Name)

	_, err = StyleFor("baroque")
	require.Error(t, err)
	var terr *theory.Error
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, theory.CodeParseError, terr.Code)
}

func TestHarmonizeBasics(t *testing.T) {
	out, err := Harmonize(Params{
		Melody:  cMajorMelody(t),
		Style:   "classical",
		Options: 3,
		Seed:    42,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, out.DetectedKey.Tonic.Class())
	require.NotEmpty(t, out.Options)
	assert.LessOrEqual(t, len(out.Options), 3)

	for _, opt := range out.Options {
		// One chord per measure on a 4-measure melody.
		assert.Len(t, opt.Numerals, 4)
		assert.Len(t, opt.Chords, 4)
		assert.Len(t, opt.Symbols, 4)
		assert.GreaterOrEqual(t, opt.Scores.Overall, 0.0)
		assert.LessOrEqual(t, opt.Scores.VoiceLeading, 1.0)
	}

	// Options are ranked best first.
	for i := 1; i < len(out.Options); i++ {
		assert.GreaterOrEqual(t,
			out.Options[i-1].Scores.Overall, out.Options[i].Scores.Overall)
		assert.Equal(t, i+1, out.Options[i].Rank)
	}
}

func TestHarmonizeDistinctOptions(t *testing.T) {
	out, err := Harmonize(Params{
		Melody:  cMajorMelody(t),
		Options: 4,
		Seed:    7,
	})
	require.NoError(t, err)
	seen := map[string]bool{}
	for _, opt := range out.Options {
		sig := strings.Join(opt.Numerals, " ")
		assert.False(t, seen[sig], "duplicate progression %s", sig)
		seen[sig] = true
	}
}

func TestHarmonizeDeterministic(t *testing.T) {
	run := func() [][]string {
		out, err := Harmonize(Params{Melody: cMajorMelody(t), Options: 3, Seed: 99})
		require.NoError(t, err)
		var progs [][]string
		for _, opt := range out.Options {
			progs = append(progs, opt.Numerals)
		}
		return progs
	}
	assert.Equal(t, run(), run())
}

func TestHarmonizeCadence(t *testing.T) {
	out, err := Harmonize(Params{
		Melody:  cMajorMelody(t),
		Style:   "classical",
		Options: 2,
		Seed:    5,
	})
	require.NoError(t, err)
	rules, err := StyleFor("classical")
	require.NoError(t, err)
	for _, opt := range out.Options {
		assert.True(t, rules.HasCadence(opt.Numerals),
			"no cadence in %v", opt.Numerals)
	}
}

func TestHarmonizeGranularity(t *testing.T) {
	out, err := Harmonize(Params{
		Melody:      cMajorMelody(t),
		Granularity: PerHalf,
		Options:     1,
		Seed:        1,
	})
	require.NoError(t, err)
	require.NotEmpty(t, out.Options)
	assert.Len(t, out.Options[0].Numerals, 8)
}

func TestHarmonizeJazzExtensions(t *testing.T) {
	out, err := Harmonize(Params{
		Melody:  cMajorMelody(t),
		Style:   "jazz",
		Options: 1,
		Seed:    3,
	})
	require.NoError(t, err)
	require.NotEmpty(t, out.Options)
	// Jazz prefers extensions; at least one seventh chord shows up.
	found := false
	for _, chord := range out.Options[0].Chords {
		if len(chord.Extensions) > 0 {
			found = true
		}
	}
	assert.True(t, found)
}

func TestHarmonizeEmptyMelody(t *testing.T) {
	meter, _ := theory.ParseMeter("4/4")
	rests := theory.NewStream([]theory.Event{theory.NewRest(theory.Whole)}, meter, nil)

	_, err := Harmonize(Params{Melody: rests, Options: 1})
	require.Error(t, err)
	var terr *theory.Error
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, theory.CodeEmptyInput, terr.Code)
}

func TestHarmonizeUnknownGranularity(t *testing.T) {
	_, err := Harmonize(Params{
		Melody:      cMajorMelody(t),
		Granularity: "per_phrase",
	})
	require.Error(t, err)
	var terr *theory.Error
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, theory.CodeParseError, terr.Code)
}
