package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/conceptual-machines/composer-api/internal/engine/counterpoint"
	"github.com/conceptual-machines/composer-api/internal/models"
	"github.com/conceptual-machines/composer-api/internal/notation"
)

type VoiceHandler struct {
	db *gorm.DB
}

func NewVoiceHandler(db *gorm.DB) *VoiceHandler {
	return &VoiceHandler{db: db}
}

// AddVoice generates a counterpoint voice against an existing line.
func (h *VoiceHandler) AddVoice(c *gin.Context) {
	start := time.Now()

	var req models.AddVoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	cantus, err := parseInputStream(req.ExistingVoice, req.InputFormat, "existing_voice")
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

	seed := resolveSeed(req.Seed)
	out, err := counterpoint.Generate(counterpoint.Params{
		Cantus:       cantus,
		VoiceType:    req.NewVoiceType,
		Relationship: req.Relationship,
		Species:      req.Species,
		RangeLow:     rangeLow,
		RangeHigh:    rangeHigh,
		Seed:         seed,
		MaxAttempts:  req.MaxAttempts,
	})
	warnings := 0
	if out != nil {
		warnings = len(out.Warnings)
	}
	recordGeneration(c, h.db, "add_voice", seed, start, warnings, err)
	if err != nil {
		respondError(c, err)
		return
	}
	sentryMetrics.RecordAttemptCount(c.Request.Context(), "add_voice", out.Attempts)

	relationship := req.Relationship
	if relationship == "" {
		relationship = string(counterpoint.RelContrary)
	}

	serialized, err := notation.Serialize(out.Voice, notation.FormatNotes)
	if err != nil {
		respondError(c, err)
		return
	}

	issues := make([]models.VoiceLeadingIssue, len(out.Analysis.Issues))
	for i, is := range out.Analysis.Issues {
		issues[i] = models.VoiceLeadingIssue{Type: is.Type, Index: is.Index}
	}

	data := models.AddVoiceResponseData{
		Voice:        noteDataFromStream(out.Voice),
		Serialized:   serialized,
		VoiceType:    req.NewVoiceType,
		Relationship: relationship,
		Species:      req.Species,
		Above:        out.Above,
		Key:          out.Key.String(),
		Analysis: models.VoiceLeadingAnalysis{
			Score:  out.Analysis.Score,
			Issues: issues,
		},
		Attempts: out.Attempts,
	}
	c.JSON(http.StatusOK, models.SuccessResponse(data, out.Warnings))
}
