package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/conceptual-machines/composer-api/internal/engine/harmony"
	"github.com/conceptual-machines/composer-api/internal/models"
)

type ReharmonizeHandler struct {
	db *gorm.DB
}

func NewReharmonizeHandler(db *gorm.DB) *ReharmonizeHandler {
	return &ReharmonizeHandler{db: db}
}

// Reharmonize returns ranked chord progressions under a melody.
func (h *ReharmonizeHandler) Reharmonize(c *gin.Context) {
	start := time.Now()

	var req models.ReharmonizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	melodyStream, err := parseInputStream(req.Melody, req.InputFormat, "melody")
	if err != nil {
		respondError(c, err)
		return
	}

	seed := resolveSeed(req.Seed)
	out, err := harmony.Harmonize(harmony.Params{
		Melody:        melodyStream,
		Style:         req.Style,
		Granularity:   req.ChordRhythm,
		Options:       req.NumOptions,
		BassMotion:    req.BassMotion,
		AllowExtended: req.AllowExtended,
		Seed:          seed,
	})
	warnings := 0
	if out != nil {
		warnings = len(out.Warnings)
	}
	recordGeneration(c, h.db, "reharmonize", seed, start, warnings, err)
	if err != nil {
		respondError(c, err)
		return
	}

	options := make([]models.HarmonizationOption, len(out.Options))
	for i, opt := range out.Options {
		offsets := make([]float64, len(opt.Offsets))
		for j, off := range opt.Offsets {
			offsets[j] = off.Quarters()
		}
		options[i] = models.HarmonizationOption{
			Rank:          opt.Rank,
			Chords:        opt.Symbols,
			RomanNumerals: opt.Numerals,
			Offsets:       offsets,
			Scores: models.HarmonizationScores{
				VoiceLeading:   opt.Scores.VoiceLeading,
				ChordMelodyFit: opt.Scores.ChordMelodyFit,
				StyleAdherence: opt.Scores.StyleAdherence,
				Overall:        opt.Scores.Overall,
			},
		}
	}

	data := models.ReharmonizeResponseData{
		DetectedKey:    out.DetectedKey.String(),
		Style:          out.Style,
		ChordRhythm:    out.Granularity,
		SeedUsed:       seed,
		Harmonizations: options,
	}
	c.JSON(http.StatusOK, models.SuccessResponse(data, out.Warnings))
}
