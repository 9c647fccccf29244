// Package handlers implements the HTTP endpoints. Handlers validate
// eagerly, call the pure engines, and translate results into the
// standard response envelope; they hold no musical state of their own.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/conceptual-machines/composer-api/internal/logger"
	"github.com/conceptual-machines/composer-api/internal/metrics"
	"github.com/conceptual-machines/composer-api/internal/models"
	"github.com/conceptual-machines/composer-api/internal/theory"
)

var sentryMetrics = metrics.NewSentryMetrics()

// respondError maps a failure onto the envelope. Structured errors are
// client errors; anything else is reported as a generation failure.
func respondError(c *gin.Context, err error) {
	var terr *theory.Error
	if !errors.As(err, &terr) {
		terr = theory.NewError(theory.CodeGenerationFailed, err.Error())
	}

	logger.Warn("Request rejected", logger.Fields{
		"request_id": c.GetString("request_id"),
		"path":       c.Request.URL.Path,
		"code":       terr.Code,
		"field":      terr.Field,
	})
	c.JSON(http.StatusBadRequest, models.ErrorResponse(terr))
}

// respondBindingError converts gin binding failures to the envelope.
func respondBindingError(c *gin.Context, err error) {
	respondError(c, theory.NewError(theory.CodeParseError, err.Error()))
}

// recordGeneration emits the generation span and log line, and
// persists one history row when a database is configured. Persistence
// failures are logged, never surfaced.
func recordGeneration(c *gin.Context, db *gorm.DB, endpoint string, seed int64, start time.Time, warnings int, genErr error) {
	duration := time.Since(start)
	sentryMetrics.RecordGenerationDuration(c.Request.Context(), endpoint, duration, genErr == nil)
	logger.LogGenerationRequest(c.Request.Context(), endpoint, duration, seed, logger.Fields{
		"request_id": c.GetString("request_id"),
		"warnings":   warnings,
		"success":    genErr == nil,
	})

	if db == nil {
		return
	}
	rec := models.Generation{
		RequestID:    c.GetString("request_id"),
		Endpoint:     endpoint,
		Seed:         seed,
		Success:      genErr == nil,
		WarningCount: warnings,
		DurationMs:   time.Since(start).Milliseconds(),
	}
	var terr *theory.Error
	if errors.As(genErr, &terr) {
		rec.ErrorCode = terr.Code
	}
	if err := db.Create(&rec).Error; err != nil {
		logger.Error("Failed to record generation", err, logger.Fields{
			"request_id": rec.RequestID,
			"endpoint":   endpoint,
		})
	}
}
