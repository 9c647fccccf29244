package theory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChordSymbol(t *testing.T) {
	tests := []struct {
		symbol     string
		quality    string
		rootClass  int
		extensions []string
	}{
		{symbol: "C", quality: QualityMajor, rootClass: 0},
		{symbol: "Cm", quality: QualityMinor, rootClass: 0},
		{symbol: "Em", quality: QualityMinor, rootClass: 4},
		{symbol: "G7", quality: QualityMajor, rootClass: 7, extensions: []string{"7"}},
		{symbol: "Cmaj7", quality: QualityMajor, rootClass: 0, extensions: []string{"maj7"}},
		{symbol: "Am7", quality: QualityMinor, rootClass: 9, extensions: []string{"7"}},
		{symbol: "F#dim", quality: QualityDiminished, rootClass: 6},
		{symbol: "Baug", quality: QualityAugmented, rootClass: 11},
		{symbol: "Dsus4", quality: QualitySus4, rootClass: 2},
		{symbol: "Bb9", quality: QualityMajor, rootClass: 10, extensions: []string{"9"}},
		{symbol: "C7add9", quality: QualityMajor, rootClass: 0, extensions: []string{"9", "7"}},
	}

	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			c, err := ParseChordSymbol(tt.symbol)
			require.NoError(t, err)
			assert.Equal(t, tt.quality, c.Quality)
			assert.Equal(t, tt.rootClass, c.Root.Class())
			assert.ElementsMatch(t, tt.extensions, c.Extensions)
			assert.Equal(t, tt.symbol, c.Symbol)
		})
	}
}

func TestParseChordSymbolSlashBass(t *testing.T) {
	c, err := ParseChordSymbol("C/G")
	require.NoError(t, err)
	require.NotNil(t, c.Bass)
	assert.Equal(t, 7, c.Bass.Class())

	c, err = ParseChordSymbol("G7/B")
	require.NoError(t, err)
	require.NotNil(t, c.Bass)
	assert.Equal(t, 11, c.Bass.Class())
}

func TestParseChordSymbolErrors(t *testing.T) {
	for _, symbol := range []string{"", "Xmaj7", "H7", "C/X"} {
		_, err := ParseChordSymbol(symbol)
		require.Error(t, err, "symbol %q", symbol)
		var terr *Error
		require.ErrorAs(t, err, &terr)
		assert.Equal(t, CodeInvalidChordSymbol, terr.Code)
	}
}

func TestChordIntervals(t *testing.T) {
	c, err := ParseChordSymbol("Cmaj7")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 4, 7, 11}, c.Intervals())

	c, err = ParseChordSymbol("Dm7")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 3, 7, 10}, c.Intervals())
}

func TestChordPitchClassesAndMembership(t *testing.T) {
	c, err := ParseChordSymbol("G7")
	require.NoError(t, err)
	assert.Equal(t, []int{7, 11, 2, 5}, c.PitchClasses())
	assert.True(t, c.ContainsClass(11))
	assert.True(t, c.ContainsClass(5))
	assert.False(t, c.ContainsClass(0))
}

func TestChordPitches(t *testing.T) {
	c, err := ParseChordSymbol("Cm")
	require.NoError(t, err)
	pitches := c.Pitches(4)
	require.Len(t, pitches, 3)
	assert.Equal(t, 60, pitches[0].MIDI())
	assert.Equal(t, 63, pitches[1].MIDI())
	assert.Equal(t, 67, pitches[2].MIDI())
}
