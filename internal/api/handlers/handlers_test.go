package handlers

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conceptual-machines/composer-api/internal/models"
)

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	router.GET("/health", NewHealthHandler(nil, "test").HealthCheck)

	v1 := router.Group("/api/v1")
	v1.POST("/melody", NewMelodyHandler(nil).Generate)
	v1.POST("/transform", NewTransformHandler().Transform)
	v1.POST("/reharmonize", NewReharmonizeHandler(nil).Reharmonize)
	v1.POST("/voice", NewVoiceHandler(nil).AddVoice)
	v1.POST("/chord", NewChordHandler().Realize)
	v1.POST("/midi", NewMidiHandler(nil).Export)

	return router
}

func postJSON(t *testing.T, router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	jsonBody, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest("POST", path, bytes.NewBuffer(jsonBody))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) models.ApiResponse {
	t.Helper()
	var resp models.ApiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func dataMap(t *testing.T, resp models.ApiResponse) map[string]interface{} {
	t.Helper()
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok, "data should be an object")
	return data
}

func TestHealthCheck(t *testing.T) {
	router := setupTestRouter()

	req, err := http.NewRequest("GET", "/health", nil)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "test", body["version"])
}

func TestGenerateMelody(t *testing.T) {
	router := setupTestRouter()
	seed := int64(42)

	w := postJSON(t, router, "/api/v1/melody", models.MelodyRequest{
		Key:            "C major",
		LengthMeasures: 2,
		Seed:           &seed,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decodeEnvelope(t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, models.APIVersion, resp.APIVersion)

	data := dataMap(t, resp)
	metadata := data["metadata"].(map[string]interface{})
	assert.Equal(t, "C major", metadata["key"])
	assert.Equal(t, float64(2), metadata["measures"])
	assert.Equal(t, float64(seed), metadata["seed_used"])

	melodyData := data["melody"].(map[string]interface{})
	notes := melodyData["notes"].([]interface{})
	assert.NotEmpty(t, notes)
	assert.Contains(t, melodyData["musicxml"].(string), "score-partwise")
	assert.NotEmpty(t, melodyData["abc"])
}

func TestGenerateMelodyDeterministic(t *testing.T) {
	router := setupTestRouter()
	seed := int64(7)
	request := models.MelodyRequest{
		Key:            "D dorian",
		LengthMeasures: 2,
		Contour:        "arch",
		Seed:           &seed,
	}

	first := postJSON(t, router, "/api/v1/melody", request)
	second := postJSON(t, router, "/api/v1/melody", request)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
}

func TestGenerateMelodyInvalidKey(t *testing.T) {
	router := setupTestRouter()

	w := postJSON(t, router, "/api/v1/melody", models.MelodyRequest{
		Key:            "H sharp",
		LengthMeasures: 2,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	resp := decodeEnvelope(t, w)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_KEY", resp.Error.Code)
}

func TestGenerateMelodyMissingBody(t *testing.T) {
	router := setupTestRouter()

	w := postJSON(t, router, "/api/v1/melody", map[string]interface{}{})
	require.Equal(t, http.StatusBadRequest, w.Code)

	resp := decodeEnvelope(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "PARSE_ERROR", resp.Error.Code)
}

func TestTransformRetrograde(t *testing.T) {
	router := setupTestRouter()
	appendOriginal := false

	w := postJSON(t, router, "/api/v1/transform", models.TransformRequest{
		InputStream:    "C4:q D4:q E4:q",
		Transformation: "retrograde",
		Append:         &appendOriginal,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decodeEnvelope(t, w)
	require.True(t, resp.Success)

	data := dataMap(t, resp)
	notes := data["notes"].([]interface{})
	require.Len(t, notes, 3)
	assert.Equal(t, "E4", notes[0].(map[string]interface{})["pitch"])
	assert.Equal(t, "C4", notes[2].(map[string]interface{})["pitch"])
	assert.Equal(t, "E4:q D4:q C4:q", data["serialized"])
}

func TestTransformUnknownType(t *testing.T) {
	router := setupTestRouter()

	w := postJSON(t, router, "/api/v1/transform", models.TransformRequest{
		InputStream:    "C4:q",
		Transformation: "shuffle",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	resp := decodeEnvelope(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "PARSE_ERROR", resp.Error.Code)
}

func TestReharmonize(t *testing.T) {
	router := setupTestRouter()

	w := postJSON(t, router, "/api/v1/reharmonize", models.ReharmonizeRequest{
		Melody: "C4:q E4:q G4:q C5:q C4:q E4:q G4:q C5:q",
		Style:  "classical",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decodeEnvelope(t, w)
	require.True(t, resp.Success)

	data := dataMap(t, resp)
	assert.Equal(t, "C major", data["detected_key"])
	assert.Equal(t, "classical", data["style"])

	harmonizations := data["harmonizations"].([]interface{})
	require.NotEmpty(t, harmonizations)
	first := harmonizations[0].(map[string]interface{})
	assert.Equal(t, float64(1), first["rank"])
	assert.NotEmpty(t, first["roman_numerals"])
	scores := first["scores"].(map[string]interface{})
	overall := scores["overall"].(float64)
	assert.GreaterOrEqual(t, overall, 0.0)
	assert.LessOrEqual(t, overall, 1.0)
}

func TestReharmonizeDeterministicUnderSeed(t *testing.T) {
	router := setupTestRouter()
	seed := int64(99)

	req := models.ReharmonizeRequest{
		Melody: "C4:q E4:q G4:q C5:q C4:q E4:q G4:q C5:q",
		Style:  "jazz",
		Seed:   &seed,
	}
	first := postJSON(t, router, "/api/v1/reharmonize", req)
	second := postJSON(t, router, "/api/v1/reharmonize", req)
	require.Equal(t, http.StatusOK, first.Code, first.Body.String())
	require.Equal(t, http.StatusOK, second.Code)

	assert.Equal(t, first.Body.String(), second.Body.String())

	data := dataMap(t, decodeEnvelope(t, first))
	assert.Equal(t, float64(seed), data["seed_used"])
}

func TestReharmonizeUnknownStyle(t *testing.T) {
	router := setupTestRouter()

	w := postJSON(t, router, "/api/v1/reharmonize", models.ReharmonizeRequest{
		Melody: "C4:q E4:q",
		Style:  "baroque",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	resp := decodeEnvelope(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "PARSE_ERROR", resp.Error.Code)
}

func TestAddVoice(t *testing.T) {
	router := setupTestRouter()
	seed := int64(3)

	w := postJSON(t, router, "/api/v1/voice", models.AddVoiceRequest{
		ExistingVoice: "C4:w D4:w E4:w D4:w C4:w",
		NewVoiceType:  "soprano",
		Species:       1,
		Seed:          &seed,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decodeEnvelope(t, w)
	require.True(t, resp.Success)

	data := dataMap(t, resp)
	voice := data["voice"].([]interface{})
	assert.Len(t, voice, 5)
	assert.Equal(t, true, data["above"])

	analysis := data["analysis"].(map[string]interface{})
	score := analysis["score"].(float64)
	assert.GreaterOrEqual(t, score, 0.0)
	assert.LessOrEqual(t, score, 1.0)
}

func TestAddVoiceUnknownVoiceType(t *testing.T) {
	router := setupTestRouter()

	w := postJSON(t, router, "/api/v1/voice", models.AddVoiceRequest{
		ExistingVoice: "C4:w",
		NewVoiceType:  "baritone",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	resp := decodeEnvelope(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "PARSE_ERROR", resp.Error.Code)
}

func TestRealizeChord(t *testing.T) {
	router := setupTestRouter()

	w := postJSON(t, router, "/api/v1/chord", models.RealizeChordRequest{
		ChordSymbol:  "Cmaj7",
		VoicingStyle: "close",
		Instrument:   "piano",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decodeEnvelope(t, w)
	require.True(t, resp.Success)

	data := dataMap(t, resp)
	voicingData := data["voicing"].(map[string]interface{})
	midi := voicingData["midi_pitches"].([]interface{})
	require.Len(t, midi, 4)
	assert.Equal(t, float64(60), midi[0])
	assert.Equal(t, float64(71), midi[3])

	analysis := data["analysis"].(map[string]interface{})
	assert.Equal(t, "major", analysis["chord_quality"])
	assert.Equal(t, "close", analysis["voicing_style"])

	alternatives := data["alternatives"].([]interface{})
	assert.NotEmpty(t, alternatives)
	for _, alt := range alternatives {
		assert.NotEqual(t, "close", alt.(map[string]interface{})["style"])
	}
}

func TestRealizeChordInvalidSymbol(t *testing.T) {
	router := setupTestRouter()

	w := postJSON(t, router, "/api/v1/chord", models.RealizeChordRequest{
		ChordSymbol: "Xmaj7",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	resp := decodeEnvelope(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_CHORD_SYMBOL", resp.Error.Code)
}

func TestExportMidi(t *testing.T) {
	router := setupTestRouter()

	w := postJSON(t, router, "/api/v1/midi", models.ExportMidiRequest{
		Stream:     "C4:q D4:q E4:q F4:q",
		Tempo:      120,
		IncludeABC: true,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decodeEnvelope(t, w)
	require.True(t, resp.Success)

	data := dataMap(t, resp)
	midi := data["midi"].(map[string]interface{})

	raw, err := base64.StdEncoding.DecodeString(midi["base64"].(string))
	require.NoError(t, err)
	assert.Equal(t, "MThd", string(raw[:4]))

	assert.InDelta(t, 2.0, midi["duration_seconds"].(float64), 0.001)
	assert.Equal(t, float64(120), midi["tempo"])

	metadata := data["metadata"].(map[string]interface{})
	assert.Equal(t, float64(1), metadata["measures"])
	assert.Equal(t, "4/4", metadata["time_signature"])
	assert.Equal(t, float64(4), metadata["note_count"])

	assert.NotEmpty(t, data["abc"])
}

func TestExportMidiHumanized(t *testing.T) {
	router := setupTestRouter()
	seed := int64(11)

	w := postJSON(t, router, "/api/v1/midi", models.ExportMidiRequest{
		Stream:         "C4:q E4:q G4:q",
		Humanize:       true,
		HumanizeAmount: 0.5,
		VelocityCurve:  "crescendo",
		Seed:           &seed,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decodeEnvelope(t, w)
	assert.True(t, resp.Success)
}

func TestExportMidiBadInput(t *testing.T) {
	router := setupTestRouter()

	w := postJSON(t, router, "/api/v1/midi", models.ExportMidiRequest{
		Stream: "not music at all !!!",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	resp := decodeEnvelope(t, w)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
}
