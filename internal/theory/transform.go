package theory

import "fmt"

// Transformation names a phrase transform.
type Transformation string

const (
	TransformRepeat              Transformation = "repeat"
	TransformSequence            Transformation = "sequence"
	TransformInversion           Transformation = "inversion"
	TransformRetrograde          Transformation = "retrograde"
	TransformRetrogradeInversion Transformation = "retrograde_inversion"
	TransformAugmentation        Transformation = "augmentation"
	TransformDiminution          Transformation = "diminution"
	TransformFragmentFirst       Transformation = "fragment_first"
	TransformFragmentLast        Transformation = "fragment_last"
)

// TransformOptions tunes a phrase transform.
type TransformOptions struct {
	Repetitions int      // for repeat and sequence, default 1
	Interval    Interval // transposition step for sequence
	Down        bool     // sequence direction
	Append      bool     // keep the original phrase in front of the result
}

// Transform applies a named transformation and returns the derived
// stream. The input stream is never modified.
func Transform(s *Stream, t Transformation, opts TransformOptions) (*Stream, error) {
	reps := opts.Repetitions
	if reps < 1 {
		reps = 1
	}

	var out *Stream
	switch t {
	case TransformRepeat:
		out = NewStream(nil, s.Meter(), s.Key())
		for i := 0; i < reps; i++ {
			out = out.Concat(s)
		}

	case TransformSequence:
		step := opts.Interval.Semitones
		if step < 0 {
			step = -step
		}
		if opts.Down {
			step = -step
		}
		out = NewStream(nil, s.Meter(), s.Key())
		for i := 1; i <= reps; i++ {
			out = out.Concat(s.Transposed(step * i))
		}

	case TransformInversion:
		out = s.Inverted()

	case TransformRetrograde:
		out = s.Retrograde()

	case TransformRetrogradeInversion:
		out = s.Inverted().Retrograde()

	case TransformAugmentation:
		out = s.Scaled(NewDuration(2, 1))

	case TransformDiminution:
		out = s.Scaled(NewDuration(1, 2))

	case TransformFragmentFirst:
		out = s.Fragment(0, (s.Len()+1)/2)

	case TransformFragmentLast:
		out = s.Fragment(s.Len()/2, s.Len())

	default:
		return nil, NewError(CodeParseError,
			fmt.Sprintf("unknown transformation %q", t)).
			WithField("transformation").
			WithSuggestions("retrograde", "inversion", "sequence", "augmentation")
	}

	if opts.Append && t != TransformRepeat {
		out = s.Concat(out)
	}
	return out, nil
}
