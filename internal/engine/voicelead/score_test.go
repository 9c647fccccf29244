package voicelead

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreCleanPairIsPerfect(t *testing.T) {
	// Contrary stepwise motion between imperfect consonances.
	upper := []int{64, 65, 64, 62} // E4 F4 E4 D4
	lower := []int{60, 57, 55, 59} // C4 A3 G3 B3

	a := Score(upper, lower, DefaultPenalties())
	assert.Equal(t, 1.0, a.Score)
	assert.Empty(t, a.Issues)
}

func TestScoreSingleParallelFifthDeductsExactly(t *testing.T) {
	// C4/G4 moving up one step to D4/A4: one parallel fifth, nothing else.
	upper := []int{67, 69}
	lower := []int{60, 62}

	a := Score(upper, lower, DefaultPenalties())
	require.Len(t, a.IssuesOfType(IssueParallelFifth), 1)
	assert.InDelta(t, 1.0-0.15, a.Score, 1e-9)
}

func TestScoreParallelOctave(t *testing.T) {
	upper := []int{72, 74}
	lower := []int{60, 62}

	a := Score(upper, lower, DefaultPenalties())
	require.Len(t, a.IssuesOfType(IssueParallelOctave), 1)
	assert.InDelta(t, 0.85, a.Score, 1e-9)
}

func TestScoreDirectFifth(t *testing.T) {
	// Similar motion into a fifth from a third: hidden, not parallel.
	upper := []int{64, 69} // E4 -> A4
	lower := []int{60, 62} // C4 -> D4

	a := Score(upper, lower, DefaultPenalties())
	require.Len(t, a.IssuesOfType(IssueDirectInterval), 1)
	assert.Empty(t, a.IssuesOfType(IssueParallelFifth))
	assert.InDelta(t, 0.95, a.Score, 1e-9)
}

func TestScoreVoiceCrossing(t *testing.T) {
	upper := []int{64, 55} // upper dives below lower
	lower := []int{60, 59}

	a := Score(upper, lower, DefaultPenalties())
	assert.NotEmpty(t, a.IssuesOfType(IssueVoiceCrossing))
}

func TestScoreSpacingBeyondOctave(t *testing.T) {
	upper := []int{72, 76} // C5 E5
	lower := []int{60, 59} // C4 B3, 17 semitones below the top

	a := Score(upper, lower, DefaultPenalties())
	assert.NotEmpty(t, a.IssuesOfType(IssueSpacing))
}

func TestScoreUnresolvedLeap(t *testing.T) {
	// Upper leaps a minor seventh and keeps going up.
	upper := []int{60, 70, 72}
	lower := []int{48, 53, 52}

	a := Score(upper, lower, DefaultPenalties())
	assert.NotEmpty(t, a.IssuesOfType(IssueUnresolvedLeap))
}

func TestScoreLeapRecoveredByContraryStep(t *testing.T) {
	// Octave leap up recovered by a step down: no deduction for it.
	upper := []int{60, 72, 71, 69}
	lower := []int{48, 45, 47, 45}

	a := Score(upper, lower, DefaultPenalties())
	assert.Empty(t, a.IssuesOfType(IssueUnresolvedLeap))
}

func TestScoreRepeatedSameDirectionLeaps(t *testing.T) {
	upper := []int{60, 64, 69, 67} // two upward leaps in a row
	lower := []int{48, 45, 43, 47}

	a := Score(upper, lower, DefaultPenalties())
	assert.NotEmpty(t, a.IssuesOfType(IssueRepeatedLeaps))
}

func TestScoreFlooredAtZero(t *testing.T) {
	// Parallel fifths all the way down a long scale.
	var upper, lower []int
	for i := 0; i < 30; i++ {
		upper = append(upper, 67+i)
		lower = append(lower, 60+i)
	}

	a := Score(upper, lower, DefaultPenalties())
	assert.Equal(t, 0.0, a.Score)
}

func TestScoreDeterministic(t *testing.T) {
	upper := []int{64, 69, 67, 72, 60}
	lower := []int{60, 62, 59, 64, 48}

	a := Score(upper, lower, DefaultPenalties())
	b := Score(upper, lower, DefaultPenalties())
	assert.Equal(t, a.Score, b.Score)
	assert.Equal(t, a.Issues, b.Issues)
}

func TestScoreShortInputs(t *testing.T) {
	a := Score([]int{60}, []int{55}, DefaultPenalties())
	assert.Equal(t, 1.0, a.Score)

	a = Score(nil, nil, DefaultPenalties())
	assert.Equal(t, 1.0, a.Score)
}
