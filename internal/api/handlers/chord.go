package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/conceptual-machines/composer-api/internal/engine/voicing"
	"github.com/conceptual-machines/composer-api/internal/models"
	"github.com/conceptual-machines/composer-api/internal/theory"
)

type ChordHandler struct{}

func NewChordHandler() *ChordHandler {
	return &ChordHandler{}
}

// Realize renders a chord symbol into concrete pitches, with
// alternative voicings in the remaining styles.
func (h *ChordHandler) Realize(c *gin.Context) {
	var req models.RealizeChordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	chord, err := theory.ParseChordSymbol(req.ChordSymbol)
	if err != nil {
		respondError(c, err)
		return
	}
	if req.BassNote != "" {
		bass, err := optionalPitch(req.BassNote, "bass_note")
		if err != nil {
			respondError(c, err)
			return
		}
		chord.Bass = bass
	}

	style, err := voicing.ParseStyle(req.VoicingStyle)
	if err != nil {
		respondError(c, err)
		return
	}
	rangeLow, err := optionalPitch(req.RangeLow, "range_low")
	if err != nil {
		respondError(c, err)
		return
	}
	rangeHigh, err := optionalPitch(req.RangeHigh, "range_high")
	if err != nil {
		respondError(c, err)
		return
	}

	var previous []theory.Pitch
	for _, name := range req.PreviousVoicing {
		p, err := theory.ParsePitch(name)
		if err != nil {
			respondError(c, wrapField(err, "previous_voicing"))
			return
		}
		previous = append(previous, p)
	}

	params := voicing.Params{
		Chord:      chord,
		Style:      style,
		Inversion:  req.Inversion,
		Instrument: req.Instrument,
		RangeLow:   rangeLow,
		RangeHigh:  rangeHigh,
		Previous:   previous,
	}
	result, err := voicing.Realize(params)
	if err != nil {
		respondError(c, err)
		return
	}

	data := models.ChordResponseData{
		Voicing: models.VoicingData{
			Notes:       pitchNames(result.Pitches),
			MidiPitches: midiPitches(result.Pitches),
		},
		Analysis: models.VoicingAnalysis{
			ChordQuality:      chord.Quality,
			VoicingStyle:      string(result.Style),
			Inversion:         req.Inversion,
			IntervalsFromBass: voicing.IntervalsFromBass(result.Pitches),
		},
		Alternatives: alternativeVoicings(params, result.Style),
	}
	c.JSON(http.StatusOK, models.SuccessResponse(data, result.Warnings))
}

// alternativeVoicings realizes the same chord in every other style.
// Styles the constraints cannot satisfy are simply omitted.
func alternativeVoicings(params voicing.Params, chosen voicing.Style) []models.ChordAlternative {
	styles := []voicing.Style{
		voicing.StyleClose, voicing.StyleOpen,
		voicing.StyleDrop2, voicing.StyleDrop3, voicing.StyleQuartal,
	}
	alternatives := []models.ChordAlternative{}
	for _, style := range styles {
		if style == chosen {
			continue
		}
		alt := params
		alt.Style = style
		result, err := voicing.Realize(alt)
		if err != nil {
			continue
		}
		alternatives = append(alternatives, models.ChordAlternative{
			Style:       string(style),
			Notes:       pitchNames(result.Pitches),
			MidiPitches: midiPitches(result.Pitches),
		})
	}
	return alternatives
}

func pitchNames(pitches []theory.Pitch) []string {
	out := make([]string, len(pitches))
	for i, p := range pitches {
		out[i] = p.Name()
	}
	return out
}

func midiPitches(pitches []theory.Pitch) []int {
	out := make([]int, len(pitches))
	for i, p := range pitches {
		out[i] = p.MIDI()
	}
	return out
}
