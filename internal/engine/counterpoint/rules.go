package counterpoint

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/conceptual-machines/composer-api/internal/theory"
	"github.com/conceptual-machines/composer-api/pkg/embedded"
)

// Relationship constrains the new voice's melodic motion relative to
// the cantus.
type Relationship string

const (
	RelContrary       Relationship = "contrary"
	RelOblique        Relationship = "oblique"
	RelParallelThirds Relationship = "parallel_thirds"
	RelParallelSixths Relationship = "parallel_sixths"
	RelFree           Relationship = "free"
)

// ParseRelationship validates a relationship name. Empty means contrary.
func ParseRelationship(s string) (Relationship, error) {
	switch Relationship(s) {
	case RelContrary, RelOblique, RelParallelThirds, RelParallelSixths, RelFree:
		return Relationship(s), nil
	case "":
		return RelContrary, nil
	}
	return "", theory.NewError(theory.CodeParseError,
		fmt.Sprintf("unknown relationship %q", s)).
		WithField("relationship").
		WithSuggestions("contrary", "oblique", "parallel_thirds", "parallel_sixths", "free")
}

// Suspension is a prepared dissonance and its stepwise-down resolution,
// both as semitone classes above the cantus.
type Suspension struct {
	Dissonance int `yaml:"dissonance"`
	Resolution int `yaml:"resolution"`
}

// SpeciesRule is the rhythm and consonance contract of one species.
type SpeciesRule struct {
	Ratio       int          `yaml:"ratio"` // notes per cantus note; 0 = mixed
	Syncopated  bool         `yaml:"syncopated"`
	Strong      []int        `yaml:"strong"`
	Weak        []int        `yaml:"weak"`
	StartEnd    []int        `yaml:"start_end"`
	Suspensions []Suspension `yaml:"suspensions"`
}

// VoiceRange bounds one voice type.
type VoiceRange struct {
	Name string
	Low  theory.Pitch
	High theory.Pitch
}

type rulesFile struct {
	Voices map[string]struct {
		Low  string `yaml:"low"`
		High string `yaml:"high"`
	} `yaml:"voices"`
	Species map[int]*SpeciesRule `yaml:"species"`
}

// Voices and SpeciesRules are loaded from the embedded tables at
// startup, read-only afterwards.
var (
	Voices       map[string]VoiceRange
	SpeciesRules map[int]*SpeciesRule
)

func init() {
	var file rulesFile
	if err := yaml.Unmarshal(embedded.SpeciesYAML, &file); err != nil {
		panic(fmt.Sprintf("embedded species table: %v", err))
	}
	Voices = make(map[string]VoiceRange, len(file.Voices))
	for name, row := range file.Voices {
		Voices[name] = VoiceRange{
			Name: name,
			Low:  theory.MustPitch(row.Low),
			High: theory.MustPitch(row.High),
		}
	}
	SpeciesRules = file.Species
}

// VoiceFor resolves a voice type name.
func VoiceFor(name string) (VoiceRange, error) {
	v, ok := Voices[name]
	if !ok {
		return VoiceRange{}, theory.NewError(theory.CodeParseError,
			fmt.Sprintf("unknown voice type %q", name)).
			WithField("new_voice_type").
			WithSuggestions("soprano", "alto", "tenor", "bass")
	}
	return v, nil
}

// ruleFor returns the consonance contract for a species. Species 0 is
// unconstrained: one note per cantus note, the widest interval set.
func ruleFor(species int) (*SpeciesRule, error) {
	if species == 0 {
		return &SpeciesRule{
			Ratio:  1,
			Strong: []int{0, 2, 3, 4, 5, 7, 8, 9, 10},
			Weak:   []int{0, 2, 3, 4, 5, 7, 8, 9, 10},
		}, nil
	}
	rule, ok := SpeciesRules[species]
	if !ok {
		return nil, theory.NewError(theory.CodeParseError,
			fmt.Sprintf("species must be 0-5, got %d", species)).
			WithField("species")
	}
	return rule, nil
}

func contains(set []int, class int) bool {
	for _, c := range set {
		if c == class {
			return true
		}
	}
	return false
}

// sameSign reports whether two motions point the same direction.
func sameSign(a, b int) bool {
	return (a > 0 && b > 0) || (a < 0 && b < 0)
}
