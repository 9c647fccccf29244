package embedded

import (
	_ "embed"
)

// Rule tables compiled into the binary. Loaded once at startup by the
// engines that consume them; read-only afterwards.

//go:embed data/styles.yaml
var StylesYAML []byte

//go:embed data/species.yaml
var SpeciesYAML []byte

//go:embed data/instruments.yaml
var InstrumentsYAML []byte
