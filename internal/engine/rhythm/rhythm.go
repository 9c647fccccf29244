// Package rhythm generates duration sequences that close each measure
// exactly, sampling from density-weighted duration pools.
package rhythm

import (
	"fmt"
	"math/rand"

	"github.com/conceptual-machines/composer-api/internal/theory"
)

// Density selects a weighted duration pool.
type Density string

const (
	DensitySparse Density = "sparse"
	DensityMedium Density = "medium"
	DensityDense  Density = "dense"
)

type weightedDuration struct {
	dur    theory.Duration
	weight float64
}

// Duration pools per density. Weights lean each pool toward its target
// events-per-measure band.
var densityPools = map[Density][]weightedDuration{
	DensitySparse: {
		{dur: theory.Whole, weight: 1.5},
		{dur: theory.NewDuration(3, 1), weight: 1.0}, // dotted half
		{dur: theory.Half, weight: 3.0},
		{dur: theory.Quarter, weight: 1.0},
	},
	DensityMedium: {
		{dur: theory.Half, weight: 1.0},
		{dur: theory.NewDuration(3, 2), weight: 1.0}, // dotted quarter
		{dur: theory.Quarter, weight: 4.0},
		{dur: theory.Eighth, weight: 1.5},
	},
	DensityDense: {
		{dur: theory.Quarter, weight: 1.5},
		{dur: theory.Eighth, weight: 4.0},
		{dur: theory.Sixteenth, weight: 1.5},
	},
}

// ParseDensity validates a density name.
func ParseDensity(s string) (Density, error) {
	switch Density(s) {
	case DensitySparse, DensityMedium, DensityDense:
		return Density(s), nil
	case "":
		return DensityMedium, nil
	}
	return "", theory.NewError(theory.CodeParseError,
		fmt.Sprintf("unknown rhythmic density %q", s)).
		WithField("rhythmic_density").
		WithSuggestions("sparse", "medium", "dense")
}

// Generate produces a duration sequence for the given measure count.
// Each measure is filled by sampling from the density's weighted pool;
// the final sample of a measure is truncated to close the remainder
// exactly, so the total always equals measures × the meter's measure
// duration. Deterministic for a fixed rng state.
func Generate(density Density, meter theory.Meter, measures int, rng *rand.Rand) []theory.Duration {
	pool := densityPools[density]
	if pool == nil {
		pool = densityPools[DensityMedium]
	}

	measureLen := meter.MeasureDuration()
	var out []theory.Duration

	for m := 0; m < measures; m++ {
		remaining := measureLen
		for remaining.Cmp(theory.NewDuration(0, 1)) > 0 {
			d := sample(pool, rng)
			if d.Cmp(remaining) > 0 {
				d = remaining
			}
			out = append(out, d)
			remaining = remaining.Sub(d)
		}
	}

	return out
}

func sample(pool []weightedDuration, rng *rand.Rand) theory.Duration {
	total := 0.0
	for _, w := range pool {
		total += w.weight
	}
	r := rng.Float64() * total
	cum := 0.0
	for _, w := range pool {
		cum += w.weight
		if r <= cum {
			return w.dur
		}
	}
	return pool[len(pool)-1].dur
}
