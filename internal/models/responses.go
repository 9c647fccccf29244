package models

import "github.com/conceptual-machines/composer-api/internal/theory"

// APIVersion is reported in every response envelope.
const APIVersion = "0.1.0"

// ApiResponse is the envelope every endpoint returns. A call either
// succeeds with Data (plus any relaxation warnings) or fails with Error.
type ApiResponse struct {
	Success    bool             `json:"success"`
	Data       interface{}      `json:"data,omitempty"`
	Warnings   []theory.Warning `json:"warnings"`
	Error      *theory.Error    `json:"error,omitempty"`
	APIVersion string           `json:"api_version"`
}

// SuccessResponse wraps data and warnings in the standard envelope.
func SuccessResponse(data interface{}, warnings []theory.Warning) ApiResponse {
	if warnings == nil {
		warnings = []theory.Warning{}
	}
	return ApiResponse{
		Success:    true,
		Data:       data,
		Warnings:   warnings,
		APIVersion: APIVersion,
	}
}

// ErrorResponse wraps a structured error in the standard envelope.
func ErrorResponse(err *theory.Error) ApiResponse {
	return ApiResponse{
		Success:    false,
		Warnings:   []theory.Warning{},
		Error:      err,
		APIVersion: APIVersion,
	}
}

// NoteData is one event of a rendered stream.
type NoteData struct {
	Pitch    string  `json:"pitch"`
	Duration string  `json:"duration"`
	Measure  int     `json:"measure"`
	Beat     float64 `json:"beat"`
}

// MelodyData carries the generated line in both structured and score form.
type MelodyData struct {
	Notes    []NoteData `json:"notes"`
	MusicXML string     `json:"musicxml"`
	ABC      string     `json:"abc"`
}

// MelodyMetadata summarizes a generated melody.
type MelodyMetadata struct {
	Measures    int    `json:"measures"`
	NoteCount   int    `json:"note_count"`
	ActualRange string `json:"actual_range"`
	Key         string `json:"key"`
	SeedUsed    int64  `json:"seed_used"`
	Attempts    int    `json:"attempts"`
}

// MelodyResponseData is the payload of a melody generation.
type MelodyResponseData struct {
	Melody   MelodyData     `json:"melody"`
	Metadata MelodyMetadata `json:"metadata"`
}

// TransformResponseData is the payload of a phrase transformation.
type TransformResponseData struct {
	Notes          []NoteData `json:"notes"`
	Serialized     string     `json:"serialized"`
	Format         string     `json:"format"`
	Transformation string     `json:"transformation"`
	EventCount     int        `json:"event_count"`
}

// HarmonizationScores itemizes the ranking of one progression.
type HarmonizationScores struct {
	VoiceLeading   float64 `json:"voice_leading"`
	ChordMelodyFit float64 `json:"chord_melody_fit"`
	StyleAdherence float64 `json:"style_adherence"`
	Overall        float64 `json:"overall"`
}

// HarmonizationOption is one ranked progression.
type HarmonizationOption struct {
	Rank          int                 `json:"rank"`
	Chords        []string            `json:"chords"`
	RomanNumerals []string            `json:"roman_numerals"`
	Offsets       []float64           `json:"offsets"`
	Scores        HarmonizationScores `json:"scores"`
}

// ReharmonizeResponseData is the payload of a reharmonization.
type ReharmonizeResponseData struct {
	DetectedKey    string                `json:"detected_key"`
	Style          string                `json:"style"`
	ChordRhythm    string                `json:"chord_rhythm"`
	SeedUsed       int64                 `json:"seed_used"`
	Harmonizations []HarmonizationOption `json:"harmonizations"`
}

// VoiceLeadingIssue locates one deduction in an analysis.
type VoiceLeadingIssue struct {
	Type  string `json:"type"`
	Index int    `json:"index"`
}

// VoiceLeadingAnalysis is the scored analysis of two voices.
type VoiceLeadingAnalysis struct {
	Score  float64             `json:"score"`
	Issues []VoiceLeadingIssue `json:"issues"`
}

// AddVoiceResponseData is the payload of an added counterpoint voice.
type AddVoiceResponseData struct {
	Voice        []NoteData           `json:"voice"`
	Serialized   string               `json:"serialized"`
	VoiceType    string               `json:"voice_type"`
	Relationship string               `json:"relationship"`
	Species      int                  `json:"species"`
	Above        bool                 `json:"above"`
	Key          string               `json:"key"`
	Analysis     VoiceLeadingAnalysis `json:"analysis"`
	Attempts     int                  `json:"attempts"`
}

// VoicingData is a rendered chord voicing.
type VoicingData struct {
	Notes       []string `json:"notes"`
	MidiPitches []int    `json:"midi_pitches"`
}

// VoicingAnalysis describes the shape of a voicing.
type VoicingAnalysis struct {
	ChordQuality      string   `json:"chord_quality"`
	VoicingStyle      string   `json:"voicing_style"`
	Inversion         int      `json:"inversion"`
	IntervalsFromBass []string `json:"intervals_from_bass"`
}

// ChordAlternative is one additional voicing in another style.
type ChordAlternative struct {
	Style       string   `json:"style"`
	Notes       []string `json:"notes"`
	MidiPitches []int    `json:"midi_pitches"`
}

// ChordResponseData is the payload of a chord realization.
type ChordResponseData struct {
	Voicing      VoicingData        `json:"voicing"`
	Analysis     VoicingAnalysis    `json:"analysis"`
	Alternatives []ChordAlternative `json:"alternatives"`
}

// MidiData is the encoded file plus its playback attributes.
type MidiData struct {
	Base64          string  `json:"base64"`
	DurationSeconds float64 `json:"duration_seconds"`
	TrackCount      int     `json:"track_count"`
	Tempo           int     `json:"tempo"`
}

// MidiMetadata summarizes the exported stream.
type MidiMetadata struct {
	Measures      int    `json:"measures"`
	TimeSignature string `json:"time_signature"`
	KeySignature  string `json:"key_signature,omitempty"`
	NoteCount     int    `json:"note_count"`
}

// MidiResponseData is the payload of a MIDI export.
type MidiResponseData struct {
	Midi     MidiData     `json:"midi"`
	Metadata MidiMetadata `json:"metadata"`
	ABC      string       `json:"abc,omitempty"`
}
