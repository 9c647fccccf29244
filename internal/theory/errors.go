package theory

import "fmt"

// Error codes surfaced to API clients
const (
	CodeInvalidKey               = "INVALID_KEY"
	CodeInvalidNote              = "INVALID_NOTE"
	CodeInvalidRange             = "INVALID_RANGE"
	CodeInvalidInterval          = "INVALID_INTERVAL"
	CodeInvalidChordSymbol       = "INVALID_CHORD_SYMBOL"
	CodeInvalidTimeSignature     = "INVALID_TIME_SIGNATURE"
	CodeParseError               = "PARSE_ERROR"
	CodeUnsatisfiableConstraints = "UNSATISFIABLE_CONSTRAINTS"
	CodeGenerationFailed         = "GENERATION_FAILED"
	CodeEmptyInput               = "EMPTY_INPUT"
)

// Error is a structured error carrying a stable code, an optional offending
// field, and suggestions the client can surface to the user.
type Error struct {
	Code        string   `json:"code"`
	Message     string   `json:"message"`
	Field       string   `json:"field,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s (%s): %s", e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError builds a structured error with a stable code.
func NewError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithField attaches the offending request field.
func (e *Error) WithField(field string) *Error {
	e.Field = field
	return e
}

// WithSuggestions attaches example values the client can show.
func (e *Error) WithSuggestions(suggestions ...string) *Error {
	e.Suggestions = suggestions
	return e
}

// Warning reports a constraint that was relaxed while still producing a
// usable result. A call either fails hard with an Error, or succeeds and
// discloses every relaxation as a Warning.
type Warning struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Location *int   `json:"location,omitempty"`
}

// Warningf builds a warning without a location.
func Warningf(code, format string, args ...interface{}) Warning {
	return Warning{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WarningAt builds a warning tied to an event index.
func WarningAt(code string, location int, format string, args ...interface{}) Warning {
	return Warning{Code: code, Message: fmt.Sprintf(format, args...), Location: &location}
}
