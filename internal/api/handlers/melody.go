package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/conceptual-machines/composer-api/internal/engine/melody"
	"github.com/conceptual-machines/composer-api/internal/engine/rhythm"
	"github.com/conceptual-machines/composer-api/internal/models"
	"github.com/conceptual-machines/composer-api/internal/notation"
	"github.com/conceptual-machines/composer-api/internal/theory"
)

type MelodyHandler struct {
	db *gorm.DB
}

func NewMelodyHandler(db *gorm.DB) *MelodyHandler {
	return &MelodyHandler{db: db}
}

// Generate produces a constrained melodic line.
func (h *MelodyHandler) Generate(c *gin.Context) {
	start := time.Now()

	var req models.MelodyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	params, err := h.buildParams(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	out, err := melody.Generate(*params)
	recordGeneration(c, h.db, "melody", params.Seed, start, warningCount(out), err)
	if err != nil {
		respondError(c, err)
		return
	}
	sentryMetrics.RecordAttemptCount(c.Request.Context(), "melody", out.Attempts)

	musicxml, err := notation.Serialize(out.Stream, notation.FormatMusicXML)
	if err != nil {
		respondError(c, err)
		return
	}
	abc, err := notation.Serialize(out.Stream, notation.FormatABC)
	if err != nil {
		respondError(c, err)
		return
	}

	noteCount, actualRange := melody.Describe(out.Stream)
	data := models.MelodyResponseData{
		Melody: models.MelodyData{
			Notes:    noteDataFromStream(out.Stream),
			MusicXML: musicxml,
			ABC:      abc,
		},
		Metadata: models.MelodyMetadata{
			Measures:    req.LengthMeasures,
			NoteCount:   noteCount,
			ActualRange: actualRange,
			Key:         params.Key.String(),
			SeedUsed:    out.SeedUsed,
			Attempts:    out.Attempts,
		},
	}

	c.JSON(http.StatusOK, models.SuccessResponse(data, out.Warnings))
}

func (h *MelodyHandler) buildParams(req *models.MelodyRequest) (*melody.Params, error) {
	key, err := theory.ParseKey(req.Key)
	if err != nil {
		return nil, err
	}

	timeSignature := req.TimeSignature
	if timeSignature == "" {
		timeSignature = "4/4"
	}
	meter, err := theory.ParseMeter(timeSignature)
	if err != nil {
		return nil, err
	}

	rangeLow, rangeHigh := req.RangeLow, req.RangeHigh
	if rangeLow == "" {
		rangeLow = "C4"
	}
	if rangeHigh == "" {
		rangeHigh = "C6"
	}
	low, err := theory.ParsePitch(rangeLow)
	if err != nil {
		return nil, wrapField(err, "range_low")
	}
	high, err := theory.ParsePitch(rangeHigh)
	if err != nil {
		return nil, wrapField(err, "range_high")
	}

	contour, err := melody.ParseContour(req.Contour)
	if err != nil {
		return nil, err
	}
	density, err := rhythm.ParseDensity(req.RhythmicDensity)
	if err != nil {
		return nil, err
	}

	startNote, err := optionalPitch(req.StartNote, "start_note")
	if err != nil {
		return nil, err
	}
	endNote, err := optionalPitch(req.EndNote, "end_note")
	if err != nil {
		return nil, err
	}

	var maxLeap *theory.Interval
	if req.AvoidLeapsGreaterThan != "" {
		iv, err := theory.ParseInterval(req.AvoidLeapsGreaterThan)
		if err != nil {
			return nil, wrapField(err, "avoid_leaps_greater_than")
		}
		maxLeap = &iv
	}

	preferStepwise := 0.7
	if req.PreferStepwise != nil {
		preferStepwise = *req.PreferStepwise
	}

	return &melody.Params{
		Key:            key,
		Meter:          meter,
		Measures:       req.LengthMeasures,
		RangeLow:       low,
		RangeHigh:      high,
		Contour:        contour,
		Density:        density,
		StartNote:      startNote,
		EndNote:        endNote,
		MaxLeap:        maxLeap,
		PreferStepwise: preferStepwise,
		Seed:           resolveSeed(req.Seed),
		MaxAttempts:    req.MaxAttempts,
	}, nil
}

func warningCount(out *melody.Output) int {
	if out == nil {
		return 0
	}
	return len(out.Warnings)
}

// resolveSeed uses the client's seed when given, the clock otherwise.
func resolveSeed(seed *int64) int64 {
	if seed != nil {
		return *seed
	}
	return time.Now().UnixNano()
}

func wrapField(err error, field string) error {
	if terr, ok := err.(*theory.Error); ok && terr.Field == "" {
		return terr.WithField(field)
	}
	return err
}
