package counterpoint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conceptual-machines/composer-api/internal/theory"
)

func cantusFirmus(t *testing.T) *theory.Stream {
	t.Helper()
	meter, err := theory.ParseMeter("4/4")
	require.NoError(t, err)
	key, err := theory.ParseKey("C major")
	require.NoError(t, err)

	names := []string{"C4", "D4", "F4", "E4", "F4", "G4", "E4", "D4", "C4"}
	events := make([]theory.Event, len(names))
	for i, n := range names {
		events[i] = theory.NewNote(theory.MustPitch(n), theory.Whole)
	}
	return theory.NewStream(events, meter, &key)
}

func TestFirstSpeciesOneToOne(t *testing.T) {
	out, err := Generate(Params{
		Cantus:    cantusFirmus(t),
		VoiceType: "soprano",
		Species:   1,
		Seed:      42,
	})
	require.NoError(t, err)
	require.NotNil(t, out.Voice)
	assert.True(t, out.Above)

	// 1:1 rhythm, durations mirror the cantus.
	require.Equal(t, cantusFirmus(t).Len(), out.Voice.Len())
	for i := 0; i < out.Voice.Len(); i++ {
		assert.Zero(t, out.Voice.At(i).Dur.Cmp(theory.Whole))
	}
}

func TestFirstSpeciesBoundaryIntervals(t *testing.T) {
	cantus := cantusFirmus(t)
	out, err := Generate(Params{
		Cantus:    cantus,
		VoiceType: "soprano",
		Species:   1,
		Seed:      7,
	})
	require.NoError(t, err)
	if len(out.Warnings) > 0 {
		t.Skipf("best-effort result: %v", out.Warnings)
	}

	for _, idx := range []int{0, out.Voice.Len() - 1} {
		vp, ok := out.Voice.At(idx).Pitch()
		require.True(t, ok)
		cp, ok := cantus.At(idx).Pitch()
		require.True(t, ok)
		iv := ((vp.MIDI() - cp.MIDI()) % 12 + 12) % 12
		assert.Contains(t, []int{0, 7}, iv, "boundary interval at %d", idx)
	}
}

func TestSecondSpeciesTwoToOne(t *testing.T) {
	out, err := Generate(Params{
		Cantus:    cantusFirmus(t),
		VoiceType: "alto",
		Species:   2,
		Seed:      3,
	})
	require.NoError(t, err)
	assert.Equal(t, cantusFirmus(t).Len()*2, out.Voice.Len())
	assert.Zero(t, out.Voice.TotalDuration().Cmp(cantusFirmus(t).TotalDuration()))
}

func TestThirdSpeciesFourToOne(t *testing.T) {
	out, err := Generate(Params{
		Cantus:    cantusFirmus(t),
		VoiceType: "soprano",
		Species:   3,
		Seed:      11,
	})
	require.NoError(t, err)
	assert.Equal(t, cantusFirmus(t).Len()*4, out.Voice.Len())
}

func TestFourthSpeciesOpensWithRest(t *testing.T) {
	out, err := Generate(Params{
		Cantus:    cantusFirmus(t),
		VoiceType: "soprano",
		Species:   4,
		Seed:      13,
	})
	require.NoError(t, err)
	assert.True(t, out.Voice.At(0).IsRest())
	assert.Zero(t, out.Voice.TotalDuration().Cmp(cantusFirmus(t).TotalDuration()))
}

func TestBassVoiceSitsBelow(t *testing.T) {
	cantus := cantusFirmus(t)
	out, err := Generate(Params{
		Cantus:    cantus,
		VoiceType: "bass",
		Species:   1,
		Seed:      2,
	})
	require.NoError(t, err)
	assert.False(t, out.Above)
	for i := 0; i < out.Voice.Len(); i++ {
		vp, ok := out.Voice.At(i).Pitch()
		require.True(t, ok)
		cp, ok := cantus.At(i).Pitch()
		require.True(t, ok)
		assert.LessOrEqual(t, vp.MIDI(), cp.MIDI(), "crossing at %d", i)
	}
}

func TestVoiceStaysInRangeAndScale(t *testing.T) {
	out, err := Generate(Params{
		Cantus:    cantusFirmus(t),
		VoiceType: "soprano",
		Species:   1,
		Seed:      21,
	})
	require.NoError(t, err)
	voice := Voices["soprano"]
	key, _ := theory.ParseKey("C major")
	for i := 0; i < out.Voice.Len(); i++ {
		p, ok := out.Voice.At(i).Pitch()
		require.True(t, ok)
		assert.GreaterOrEqual(t, p.MIDI(), voice.Low.MIDI())
		assert.LessOrEqual(t, p.MIDI(), voice.High.MIDI())
		assert.True(t, key.Contains(p.Class()), "chromatic pitch %s", p)
	}
}

func TestRangeOverrideHonored(t *testing.T) {
	low := theory.MustPitch("C5")
	high := theory.MustPitch("A5")
	out, err := Generate(Params{
		Cantus:    cantusFirmus(t),
		VoiceType: "soprano",
		Species:   1,
		RangeLow:  &low,
		RangeHigh: &high,
		Seed:      5,
	})
	require.NoError(t, err)
	for i := 0; i < out.Voice.Len(); i++ {
		p, ok := out.Voice.At(i).Pitch()
		require.True(t, ok)
		assert.GreaterOrEqual(t, p.MIDI(), low.MIDI())
		assert.LessOrEqual(t, p.MIDI(), high.MIDI())
	}
}

func TestDeterministicUnderSeed(t *testing.T) {
	run := func() []int {
		out, err := Generate(Params{
			Cantus:    cantusFirmus(t),
			VoiceType: "alto",
			Species:   2,
			Seed:      77,
		})
		require.NoError(t, err)
		return out.Voice.Notes()
	}
	assert.Equal(t, run(), run())
}

func TestContraryMotionOpposesCantus(t *testing.T) {
	cantus := cantusFirmus(t)
	out, err := Generate(Params{
		Cantus:       cantus,
		VoiceType:    "soprano",
		Relationship: "contrary",
		Species:      1,
		Seed:         42,
	})
	require.NoError(t, err)
	if len(out.Warnings) > 0 {
		t.Skipf("best-effort result: %v", out.Warnings)
	}

	for i := 1; i < out.Voice.Len(); i++ {
		vp, ok := out.Voice.At(i).Pitch()
		require.True(t, ok)
		vq, ok := out.Voice.At(i - 1).Pitch()
		require.True(t, ok)
		cp, ok := cantus.At(i).Pitch()
		require.True(t, ok)
		cq, ok := cantus.At(i - 1).Pitch()
		require.True(t, ok)

		voiceMotion := vp.MIDI() - vq.MIDI()
		cantusMotion := cp.MIDI() - cq.MIDI()
		if cantusMotion != 0 && voiceMotion != 0 {
			assert.False(t, (voiceMotion > 0) == (cantusMotion > 0),
				"similar motion at %d", i)
		}
	}
}

func TestWeakBeatDissonanceApproachedAndLeftByStep(t *testing.T) {
	cantus := cantusFirmus(t)
	out, err := Generate(Params{
		Cantus:    cantus,
		VoiceType: "soprano",
		Species:   3,
		Seed:      11,
	})
	require.NoError(t, err)

	consonant := func(iv int) bool {
		for _, c := range []int{0, 3, 4, 7, 8, 9} {
			if iv == c {
				return true
			}
		}
		return false
	}

	for i := 0; i < out.Voice.Len(); i++ {
		vp, ok := out.Voice.At(i).Pitch()
		require.True(t, ok)
		cp, ok := cantus.At(i / 4).Pitch()
		require.True(t, ok)
		iv := ((vp.MIDI()-cp.MIDI())%12 + 12) % 12
		if consonant(iv) {
			continue
		}

		if i > 0 {
			prev, ok := out.Voice.At(i - 1).Pitch()
			require.True(t, ok)
			in := vp.MIDI() - prev.MIDI()
			if in < 0 {
				in = -in
			}
			assert.LessOrEqual(t, in, 2, "dissonance at %d entered by leap", i)
		}
		if i < out.Voice.Len()-1 {
			next, ok := out.Voice.At(i + 1).Pitch()
			require.True(t, ok)
			outMotion := next.MIDI() - vp.MIDI()
			if outMotion < 0 {
				outMotion = -outMotion
			}
			assert.LessOrEqual(t, outMotion, 2, "dissonance at %d left by leap", i)
		}
	}
}

func TestAnalysisAttached(t *testing.T) {
	out, err := Generate(Params{
		Cantus:    cantusFirmus(t),
		VoiceType: "soprano",
		Species:   1,
		Seed:      42,
	})
	require.NoError(t, err)
	require.NotNil(t, out.Analysis)
	assert.GreaterOrEqual(t, out.Analysis.Score, 0.0)
	assert.LessOrEqual(t, out.Analysis.Score, 1.0)
}

func TestUnknownVoiceType(t *testing.T) {
	_, err := Generate(Params{Cantus: cantusFirmus(t), VoiceType: "baritone"})
	require.Error(t, err)
	var terr *theory.Error
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, theory.CodeParseError, terr.Code)
}

func TestEmptyCantus(t *testing.T) {
	meter, _ := theory.ParseMeter("4/4")
	rests := theory.NewStream([]theory.Event{theory.NewRest(theory.Whole)}, meter, nil)
	_, err := Generate(Params{Cantus: rests, VoiceType: "alto"})
	require.Error(t, err)
	var terr *theory.Error
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, theory.CodeEmptyInput, terr.Code)
}

func TestParseRelationship(t *testing.T) {
	r, err := ParseRelationship("")
	require.NoError(t, err)
	assert.Equal(t, RelContrary, r)

	_, err = ParseRelationship("similar")
	require.Error(t, err)
}
