// Package models holds the request/response DTOs for the HTTP surface
// and the persisted generation history record.
package models

// MelodyRequest asks for a constrained melodic line.
type MelodyRequest struct {
	Key                   string   `json:"key" binding:"required"`
	LengthMeasures        int      `json:"length_measures" binding:"required,min=1,max=64"`
	TimeSignature         string   `json:"time_signature"`
	RangeLow              string   `json:"range_low"`
	RangeHigh             string   `json:"range_high"`
	Contour               string   `json:"contour"`
	RhythmicDensity       string   `json:"rhythmic_density"`
	StartNote             string   `json:"start_note"`
	EndNote               string   `json:"end_note"`
	AvoidLeapsGreaterThan string   `json:"avoid_leaps_greater_than"`
	PreferStepwise        *float64 `json:"prefer_stepwise"`
	Seed                  *int64   `json:"seed"`
	MaxAttempts           int      `json:"max_attempts"`
}

// TransformRequest applies a phrase transformation to musical input.
type TransformRequest struct {
	InputStream    string `json:"input_stream" binding:"required"`
	InputFormat    string `json:"input_format"`
	Transformation string `json:"transformation" binding:"required"`
	Repetitions    int    `json:"repetitions"`
	Interval       string `json:"interval"`
	Direction      string `json:"direction"`
	Append         *bool  `json:"append"`
}

// ReharmonizeRequest asks for ranked chord progressions under a melody.
type ReharmonizeRequest struct {
	Melody        string `json:"melody" binding:"required"`
	InputFormat   string `json:"input_format"`
	Style         string `json:"style" binding:"required"`
	ChordRhythm   string `json:"chord_rhythm"`
	NumOptions    int    `json:"num_options"`
	AllowExtended *bool  `json:"allow_extended"`
	BassMotion    string `json:"bass_motion"`
	Seed          *int64 `json:"seed"`
}

// AddVoiceRequest asks for a counterpoint voice against an existing one.
type AddVoiceRequest struct {
	ExistingVoice string `json:"existing_voice" binding:"required"`
	InputFormat   string `json:"input_format"`
	NewVoiceType  string `json:"new_voice_type" binding:"required"`
	Relationship  string `json:"relationship"`
	Species       int    `json:"species"`
	RangeLow      string `json:"range_low"`
	RangeHigh     string `json:"range_high"`
	Seed          *int64 `json:"seed"`
	MaxAttempts   int    `json:"max_attempts"`
}

// RealizeChordRequest asks for a concrete voicing of a chord symbol.
type RealizeChordRequest struct {
	ChordSymbol     string   `json:"chord_symbol" binding:"required"`
	VoicingStyle    string   `json:"voicing_style"`
	Instrument      string   `json:"instrument"`
	Inversion       int      `json:"inversion" binding:"min=0,max=6"`
	BassNote        string   `json:"bass_note"`
	RangeLow        string   `json:"range_low"`
	RangeHigh       string   `json:"range_high"`
	PreviousVoicing []string `json:"previous_voicing"`
}

// ExportMidiRequest asks for a MIDI rendering of musical input.
type ExportMidiRequest struct {
	Stream         string  `json:"stream" binding:"required"`
	InputFormat    string  `json:"input_format"`
	Tempo          int     `json:"tempo"`
	Humanize       bool    `json:"humanize"`
	HumanizeAmount float64 `json:"humanize_amount"`
	VelocityCurve  string  `json:"velocity_curve"`
	Seed           *int64  `json:"seed"`
	IncludeABC     bool    `json:"include_abc"`
}
