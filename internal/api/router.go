package api

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/conceptual-machines/composer-api/internal/api/handlers"
	apimiddleware "github.com/conceptual-machines/composer-api/internal/api/middleware"
	"github.com/conceptual-machines/composer-api/internal/config"
)

func SetupRouter(db *gorm.DB, cfg *config.Config, version string) *gin.Engine {
	router := gin.New()

	// Recovery middleware (must be first)
	router.Use(apimiddleware.RecoverWithSentry())

	// Sentry middleware for error tracking
	router.Use(apimiddleware.SentryMiddleware())

	// Request tracking and structured logging
	router.Use(apimiddleware.RequestTracking())

	// CORS middleware
	router.Use(apimiddleware.CORS())

	// Health check
	healthHandler := handlers.NewHealthHandler(db, version)
	router.GET("/health", healthHandler.HealthCheck)

	// Composition API
	v1 := router.Group("/api/v1")
	if cfg.IsGatewayMode() {
		v1.Use(apimiddleware.GatewayAuth())
	} else {
		v1.Use(apimiddleware.NoAuth())
	}
	{
		melodyHandler := handlers.NewMelodyHandler(db)
		v1.POST("/melody", melodyHandler.Generate)

		transformHandler := handlers.NewTransformHandler()
		v1.POST("/transform", transformHandler.Transform)

		reharmonizeHandler := handlers.NewReharmonizeHandler(db)
		v1.POST("/reharmonize", reharmonizeHandler.Reharmonize)

		voiceHandler := handlers.NewVoiceHandler(db)
		v1.POST("/voice", voiceHandler.AddVoice)

		chordHandler := handlers.NewChordHandler()
		v1.POST("/chord", chordHandler.Realize)

		midiHandler := handlers.NewMidiHandler(db)
		v1.POST("/midi", midiHandler.Export)
	}

	return router
}
