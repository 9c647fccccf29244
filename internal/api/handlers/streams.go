package handlers

import (
	"github.com/conceptual-machines/composer-api/internal/models"
	"github.com/conceptual-machines/composer-api/internal/notation"
	"github.com/conceptual-machines/composer-api/internal/theory"
)

// noteDataFromStream renders every event with its measure position.
func noteDataFromStream(s *theory.Stream) []models.NoteData {
	out := make([]models.NoteData, 0, s.Len())
	for i := 0; i < s.Len(); i++ {
		ev := s.At(i)
		measure, beat := s.MeasureAndBeat(i)
		name := "rest"
		if len(ev.Pitches) > 0 {
			name = ev.Pitches[0].Name()
			for _, p := range ev.Pitches[1:] {
				name += "+" + p.Name()
			}
		}
		out = append(out, models.NoteData{
			Pitch:    name,
			Duration: ev.Dur.Code(),
			Measure:  measure,
			Beat:     beat,
		})
	}
	return out
}

// parseInputStream resolves the optional format hint and parses.
func parseInputStream(input, formatHint, field string) (*theory.Stream, error) {
	format := notation.Format(formatHint)
	s, err := notation.Parse(input, format)
	if err != nil {
		var terr *theory.Error
		if e, ok := err.(*theory.Error); ok {
			terr = e
		} else {
			terr = theory.NewError(theory.CodeParseError, err.Error())
		}
		if terr.Field == "" {
			terr = terr.WithField(field)
		}
		return nil, terr
	}
	return s, nil
}

// optionalPitch parses a pitch when present.
func optionalPitch(value, field string) (*theory.Pitch, error) {
	if value == "" {
		return nil, nil
	}
	p, err := theory.ParsePitch(value)
	if err != nil {
		if terr, ok := err.(*theory.Error); ok {
			return nil, terr.WithField(field)
		}
		return nil, err
	}
	return &p, nil
}
