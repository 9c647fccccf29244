package harmony

import (
	"math"

	"github.com/conceptual-machines/composer-api/internal/theory"
)

// Krumhansl-Schmuckler key profiles: perceived stability of each
// chromatic degree relative to the tonic.
var (
	majorProfile = [12]float64{6.35, 2.23, 3.48, 2.33, 4.38, 4.09, 2.52, 5.19, 2.39, 3.66, 2.29, 2.88}
	minorProfile = [12]float64{6.33, 2.68, 3.52, 5.38, 2.60, 3.53, 2.54, 4.75, 3.98, 2.69, 3.34, 3.17}
)

// Accidental counts of each major key signature, indexed by tonic
// class. Minor keys share their relative major's signature.
var majorAccidentals = [12]int{0, 5, 2, 3, 4, 1, 6, 1, 4, 3, 2, 5}

func keyAccidentals(k theory.Key) int {
	class := k.Tonic.Class()
	if k.IsMinor() {
		class = (class + 3) % 12
	}
	return majorAccidentals[class]
}

// DetectKey correlates the melody's duration-weighted pitch-class
// histogram against all 24 major/minor profiles and returns the best
// match. Ties go to the key with the fewest accidentals.
func DetectKey(s *theory.Stream) theory.Key {
	var histogram [12]float64
	for _, ev := range s.Events() {
		weight := ev.Dur.Quarters()
		for _, p := range ev.Pitches {
			histogram[p.Class()] += weight
		}
	}

	best := theory.Key{Tonic: theory.NewPitch(0, 4), Mode: theory.ModeMajor}
	bestCorr := math.Inf(-1)
	bestAcc := 0

	for tonic := 0; tonic < 12; tonic++ {
		for _, mode := range []theory.Mode{theory.ModeMajor, theory.ModeMinor} {
			profile := majorProfile
			if mode == theory.ModeMinor {
				profile = minorProfile
			}
			var rotated [12]float64
			for i := 0; i < 12; i++ {
				rotated[(i+tonic)%12] = profile[i]
			}
			corr := correlate(histogram, rotated)
			cand := theory.Key{Tonic: theory.NewPitch(tonic, 4), Mode: mode}
			acc := keyAccidentals(cand)
			if corr > bestCorr+1e-9 ||
				(math.Abs(corr-bestCorr) <= 1e-9 && acc < bestAcc) {
				bestCorr = corr
				bestAcc = acc
				best = cand
			}
		}
	}
	return best
}

// correlate computes the Pearson correlation of two 12-bin vectors.
func correlate(a, b [12]float64) float64 {
	var meanA, meanB float64
	for i := 0; i < 12; i++ {
		meanA += a[i]
		meanB += b[i]
	}
	meanA /= 12
	meanB /= 12

	var num, denA, denB float64
	for i := 0; i < 12; i++ {
		da := a[i] - meanA
		db := b[i] - meanB
		num += da * db
		denA += da * da
		denB += db * db
	}
	if denA == 0 || denB == 0 {
		return 0
	}
	return num / math.Sqrt(denA*denB)
}
