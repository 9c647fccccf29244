package harmony

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/conceptual-machines/composer-api/internal/theory"
	"github.com/conceptual-machines/composer-api/pkg/embedded"
)

// Substitution swaps one numeral for another during candidate
// generation, with some probability.
type Substitution struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// StyleRuleSet holds the harmonization vocabulary of one style.
type StyleRuleSet struct {
	Name                 string
	AllowedNumerals      []string            `yaml:"allowed_numerals"`
	PreferExtensions     bool                `yaml:"prefer_extensions"`
	CommonProgressions   [][]string          `yaml:"common_progressions"`
	Cadences             map[string][]string `yaml:"cadences"`
	Substitutions        []Substitution      `yaml:"substitutions"`
	AvoidParallelFifths  bool                `yaml:"avoid_parallel_fifths"`
	AvoidParallelOctaves bool                `yaml:"avoid_parallel_octaves"`
	PreferRootPosition   bool                `yaml:"prefer_root_position"`
	ChromaticApproach    bool                `yaml:"chromatic_approach"`
}

type stylesFile struct {
	Styles map[string]*StyleRuleSet `yaml:"styles"`
}

// Styles is the rule table loaded from the embedded data at startup.
var Styles = loadStyles()

func loadStyles() map[string]*StyleRuleSet {
	var file stylesFile
	if err := yaml.Unmarshal(embedded.StylesYAML, &file); err != nil {
		panic(fmt.Sprintf("embedded style table: %v", err))
	}
	for name, s := range file.Styles {
		s.Name = name
	}
	return file.Styles
}

// StyleFor resolves a style name, defaulting empty to classical.
func StyleFor(name string) (*StyleRuleSet, error) {
	if name == "" {
		name = "classical"
	}
	s, ok := Styles[strings.ToLower(name)]
	if !ok {
		names := make([]string, 0, len(Styles))
		for n := range Styles {
			names = append(names, n)
		}
		return nil, theory.NewError(theory.CodeParseError,
			fmt.Sprintf("unknown harmonization style %q", name)).
			WithField("style").
			WithSuggestions(names...)
	}
	return s, nil
}

// HasCadence reports whether the final numerals of a progression match
// the tail of any of the style's cadence patterns.
func (s *StyleRuleSet) HasCadence(progression []string) bool {
	if len(progression) < 2 {
		return false
	}
	last2 := progression[len(progression)-2:]
	for _, pattern := range s.Cadences {
		if len(pattern) >= 2 &&
			pattern[len(pattern)-2] == last2[0] &&
			pattern[len(pattern)-1] == last2[1] {
			return true
		}
	}
	return false
}

// PreferredCadence returns the style's default closing pattern.
func (s *StyleRuleSet) PreferredCadence() []string {
	if p, ok := s.Cadences["perfect"]; ok && len(p) >= 2 {
		return p[len(p)-2:]
	}
	for _, p := range s.Cadences {
		if len(p) >= 2 {
			return p[len(p)-2:]
		}
	}
	return nil
}

// SubstitutesFor lists the numerals the style may swap in for the
// given one.
func (s *StyleRuleSet) SubstitutesFor(numeral string) []string {
	var out []string
	for _, sub := range s.Substitutions {
		if sub.From == numeral {
			out = append(out, sub.To)
		}
	}
	return out
}

var romanDegrees = []struct {
	text   string
	degree int
}{
	{"vii", 7}, {"iii", 3}, {"vi", 6}, {"iv", 4}, {"ii", 2}, {"v", 5}, {"i", 1},
}

// ResolveNumeral builds the concrete chord a roman numeral denotes in
// a key. Lowercase numerals are minor, uppercase major, a trailing "o"
// diminished; "7" and "maj7" extensions are honored; a leading "b"
// flattens the root (tritone substitutions).
func ResolveNumeral(numeral string, k theory.Key) (*theory.Chord, error) {
	rest := numeral
	flat := false
	if strings.HasPrefix(rest, "b") {
		flat = true
		rest = rest[1:]
	}

	degree := 0
	minor := false
	lower := strings.ToLower(rest)
	for _, rd := range romanDegrees {
		if strings.HasPrefix(lower, rd.text) {
			degree = rd.degree
			minor = strings.HasPrefix(rest, rd.text) // lowercase in source
			rest = rest[len(rd.text):]
			break
		}
	}
	if degree == 0 {
		return nil, theory.NewError(theory.CodeInvalidChordSymbol,
			fmt.Sprintf("unrecognized roman numeral %q", numeral)).
			WithField("numeral").
			WithSuggestions("I", "ii", "V7", "viio")
	}

	quality := theory.QualityMajor
	if minor {
		quality = theory.QualityMinor
	}
	if strings.HasPrefix(rest, "o") {
		quality = theory.QualityDiminished
		rest = rest[1:]
	}

	var extensions []string
	switch rest {
	case "":
	case "7":
		extensions = []string{"7"}
	case "maj7":
		extensions = []string{"maj7"}
	default:
		return nil, theory.NewError(theory.CodeInvalidChordSymbol,
			fmt.Sprintf("unsupported numeral extension %q in %q", rest, numeral)).
			WithField("numeral")
	}

	class := k.Degree(degree)
	if flat {
		class--
	}
	root := theory.NewPitch(class, 4)

	return &theory.Chord{
		Root:       root,
		Quality:    quality,
		Extensions: extensions,
		Symbol:     chordSymbol(root, quality, extensions),
	}, nil
}

func chordSymbol(root theory.Pitch, quality string, extensions []string) string {
	var b strings.Builder
	b.WriteString(root.ClassName())
	switch quality {
	case theory.QualityMinor:
		b.WriteString("m")
	case theory.QualityDiminished:
		b.WriteString("dim")
	case theory.QualityAugmented:
		b.WriteString("aug")
	}
	for _, ext := range extensions {
		b.WriteString(ext)
	}
	return b.String()
}
