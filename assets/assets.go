// Package assets embeds the static color tables the resolver and the
// spreadsheet pipeline depend on.
package assets

import (
	_ "embed"
	"encoding/json"
	"log"
	"strings"
)

type component struct {
	Code string `json:"code"`
	Hex  string `json:"hex"`
	Base bool   `json:"base"`
}

type componentData struct {
	Components []component `json:"components"`
}

//go:embed specialty.json
var specialtyData []byte

//go:embed components.json
var componentsData []byte

//go:embed stub_swatches.json
var stubSwatchesData []byte

// Specialty maps uppercase specialty color names (blacks, grays, process
// colors) that are missing from the reference swatch set to "#RRGGBB".
var Specialty map[string]string

// ComponentHex maps spreadsheet component codes to a bare "RRGGBB" hex.
// Codes are matched exactly.
var ComponentHex map[string]string

// BaseCodes is the set of base, clear and white component codes.
var BaseCodes map[string]bool

func init() {
	if err := json.Unmarshal(specialtyData, &Specialty); err != nil {
		log.Fatal(err)
	}
	for name, hex := range Specialty {
		if name != strings.ToUpper(name) {
			log.Fatalf("specialty name %q must be uppercase", name)
		}
		Specialty[name] = strings.ToUpper(hex)
	}

	var c componentData
	if err := json.Unmarshal(componentsData, &c); err != nil {
		log.Fatal(err)
	}
	ComponentHex = make(map[string]string, len(c.Components))
	BaseCodes = make(map[string]bool)
	for _, comp := range c.Components {
		ComponentHex[comp.Code] = comp.Hex
		if comp.Base {
			BaseCodes[comp.Code] = true
		}
	}
}

// StubSwatches returns the reference swatch JSON used when no swatch file
// is installed.
func StubSwatches() []byte {
	return stubSwatchesData
}
