package melody

import (
	"fmt"
	"math"

	"github.com/conceptual-machines/composer-api/internal/theory"
)

// Contour names the target macro-shape of pitch height over the melody.
type Contour string

const (
	ContourNone       Contour = ""
	ContourArch       Contour = "arch"
	ContourAscending  Contour = "ascending"
	ContourDescending Contour = "descending"
	ContourWave       Contour = "wave"
	ContourStatic     Contour = "static"
)

// ParseContour validates a contour name. Empty means no contour.
func ParseContour(s string) (Contour, error) {
	switch Contour(s) {
	case ContourNone, ContourArch, ContourAscending, ContourDescending, ContourWave, ContourStatic:
		return Contour(s), nil
	}
	return "", theory.NewError(theory.CodeParseError,
		fmt.Sprintf("unknown contour %q", s)).
		WithField("contour").
		WithSuggestions("arch", "ascending", "descending", "wave", "static")
}

// Tunables holds the stylistic bias magnitudes of the walk. They encode
// taste, not correctness, so callers may override the defaults.
type Tunables struct {
	ArchBias       float64 // upward bias before the arch peak
	ArchPeak       float64 // position ratio where the arch turns
	DirectionBias  float64 // constant bias for ascending/descending
	WaveBias       float64 // amplitude of the wave bias
	WavePeriod     float64 // measures per half wave
	StaticHold     float64 // repetition weight multiplier for static
	RepeatDamp     float64 // repetition weight multiplier otherwise
	StepBoost      float64 // stepwise weight factor scale
	LeapDamp       float64 // weight reduction for wide motion
	TargetPull     float64 // end-note approach weight scale
	ApproachWindow int     // measures re-biased toward the end note
}

// DefaultTunables mirrors the conventional settings.
func DefaultTunables() Tunables {
	return Tunables{
		ArchBias:       0.5,
		ArchPeak:       0.6,
		DirectionBias:  0.4,
		WaveBias:       0.4,
		WavePeriod:     2,
		StaticHold:     1.5,
		RepeatDamp:     0.5,
		StepBoost:      2.0,
		LeapDamp:       0.3,
		TargetPull:     3.0,
		ApproachWindow: 2,
	}
}

// bias returns the directional bias in [-1, 1] for a contour at a
// position ratio. measurePos is the fractional measure index, used by
// the wave contour so its sign flips roughly every WavePeriod measures.
func (t Tunables) bias(c Contour, positionRatio, measurePos float64) float64 {
	switch c {
	case ContourArch:
		if positionRatio < t.ArchPeak {
			return t.ArchBias
		}
		return -t.ArchBias
	case ContourAscending:
		return t.DirectionBias
	case ContourDescending:
		return -t.DirectionBias
	case ContourWave:
		return t.WaveBias * math.Sin(math.Pi*measurePos/t.WavePeriod)
	default:
		return 0
	}
}
