package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/conceptual-machines/composer-api/internal/models"
	"github.com/conceptual-machines/composer-api/internal/notation"
	"github.com/conceptual-machines/composer-api/internal/theory"
)

type TransformHandler struct{}

func NewTransformHandler() *TransformHandler {
	return &TransformHandler{}
}

// Transform applies a phrase transformation to musical input and
// returns the derived phrase in the same notation format.
func (h *TransformHandler) Transform(c *gin.Context) {
	var req models.TransformRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	stream, err := parseInputStream(req.InputStream, req.InputFormat, "input_stream")
	if err != nil {
		respondError(c, err)
		return
	}

	interval := req.Interval
	if interval == "" {
		interval = "M2"
	}
	iv, err := theory.ParseInterval(interval)
	if err != nil {
		respondError(c, wrapField(err, "interval"))
		return
	}

	appendOriginal := true
	if req.Append != nil {
		appendOriginal = *req.Append
	}

	opts := theory.TransformOptions{
		Repetitions: req.Repetitions,
		Interval:    iv,
		Down:        req.Direction == "down",
		Append:      appendOriginal,
	}

	out, err := theory.Transform(stream, theory.Transformation(req.Transformation), opts)
	if err != nil {
		respondError(c, err)
		return
	}

	format := notation.Format(req.InputFormat)
	if format == "" {
		format, _ = notation.DetectFormat(req.InputStream)
	}
	serialized, err := notation.Serialize(out, format)
	if err != nil {
		respondError(c, err)
		return
	}

	data := models.TransformResponseData{
		Notes:          noteDataFromStream(out),
		Serialized:     serialized,
		Format:         string(format),
		Transformation: req.Transformation,
		EventCount:     out.Len(),
	}
	c.JSON(http.StatusOK, models.SuccessResponse(data, nil))
}
