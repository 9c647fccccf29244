package handlers

import (
	"encoding/base64"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/conceptual-machines/composer-api/internal/midiexport"
	"github.com/conceptual-machines/composer-api/internal/models"
	"github.com/conceptual-machines/composer-api/internal/notation"
)

type MidiHandler struct {
	db *gorm.DB
}

func NewMidiHandler(db *gorm.DB) *MidiHandler {
	return &MidiHandler{db: db}
}

// Export renders musical input as a base64 Standard MIDI File.
func (h *MidiHandler) Export(c *gin.Context) {
	start := time.Now()

	var req models.ExportMidiRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	stream, err := parseInputStream(req.Stream, req.InputFormat, "stream")
	if err != nil {
		respondError(c, err)
		return
	}

	tempo := req.Tempo
	if tempo == 0 {
		tempo = 120
	}
	seed := resolveSeed(req.Seed)

	data, err := midiexport.Export(stream, midiexport.Options{
		Tempo:          float64(tempo),
		Humanize:       req.Humanize,
		HumanizeAmount: req.HumanizeAmount,
		VelocityCurve:  req.VelocityCurve,
		Seed:           seed,
	})
	recordGeneration(c, h.db, "export_midi", seed, start, 0, err)
	if err != nil {
		respondError(c, err)
		return
	}

	keySignature := ""
	if k := stream.Key(); k != nil {
		keySignature = k.String()
	}
	noteCount := 0
	for _, ev := range stream.Events() {
		if !ev.IsRest() {
			noteCount++
		}
	}
	measureQuarters := stream.Meter().MeasureDuration().Quarters()
	measures := int(math.Ceil(stream.TotalDuration().Quarters() / measureQuarters))

	payload := models.MidiResponseData{
		Midi: models.MidiData{
			Base64:          base64.StdEncoding.EncodeToString(data),
			DurationSeconds: midiexport.DurationSeconds(stream, float64(tempo)),
			TrackCount:      1,
			Tempo:           tempo,
		},
		Metadata: models.MidiMetadata{
			Measures:      measures,
			TimeSignature: stream.Meter().String(),
			KeySignature:  keySignature,
			NoteCount:     noteCount,
		},
	}
	if req.IncludeABC {
		if abc, err := notation.Serialize(stream, notation.FormatABC); err == nil {
			payload.ABC = abc
		}
	}

	c.JSON(http.StatusOK, models.SuccessResponse(payload, nil))
}
