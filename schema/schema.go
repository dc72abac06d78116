// Package schema defines the record families persisted by pms-finder and the
// canonical formula shape every source is adapted into.
package schema

import (
	"math"
	"strings"

	"github.com/b-clawson/pms-finder/colorutils"
)

// Series is the coating of a reference swatch.
type Series string

const (
	Coated   Series = "C"
	Uncoated Series = "U"
)

// Swatch is a reference color standard.
type Swatch struct {
	Code   string `json:"pms"`
	Series Series `json:"series" validate:"oneof=C U"`
	Hex    string `json:"hex" validate:"rgbhex"`
	Name   string `json:"name"`
	Notes  string `json:"notes"`
}

// ComparisonHex implements match.Candidate.
func (s Swatch) ComparisonHex() (string, bool) {
	return colorutils.NormalizeHex(s.Hex)
}

// Source identifies where a canonical formula came from.
type Source string

const (
	SourceScraped     Source = "scraped"
	SourceSpreadsheet Source = "spreadsheet"
	SourceMatsui      Source = "matsui"
	SourceGreenGalaxy Source = "greengalaxy"
	SourceFnInk       Source = "fnink"
)

// Tolerance is the allowed distance of a formula's percentage sum from 100.
func (s Source) Tolerance() float64 {
	if s == SourceScraped {
		return 1
	}
	return 5
}

// Component is one ingredient of a canonical formula.
type Component struct {
	ComponentCode        string  `json:"componentCode"`
	ComponentDescription string  `json:"componentDescription"`
	Percentage           float64 `json:"percentage" validate:"gte=0"`
	Hex                  *string `json:"hex" validate:"omitempty,rgbhex"`
	IsBase               bool    `json:"isBase"`
}

// Formula is the canonical shape shared by every source.
type Formula struct {
	ID           string      `json:"id"`
	Code         string      `json:"code"`
	Description  string      `json:"description"`
	PartitionKey string      `json:"partitionKey"`
	Source       Source      `json:"source"`
	ResolvedHex  *string     `json:"resolvedHex" validate:"omitempty,rgbhex"`
	Components   []Component `json:"components" validate:"min=1,dive"`
}

// ComparisonHex returns the color used for ranking. Formulas without a
// resolved color, or carrying the blend fallback gray, are not rankable.
func (f Formula) ComparisonHex() (string, bool) {
	if f.ResolvedHex == nil {
		return "", false
	}
	hex, ok := colorutils.NormalizeHex(*f.ResolvedHex)
	if !ok || hex == colorutils.FallbackGray {
		return "", false
	}
	return hex, true
}

// PercentageSum adds up component percentages.
func (f Formula) PercentageSum() float64 {
	var sum float64
	for _, c := range f.Components {
		sum += c.Percentage
	}
	return sum
}

// WithinTolerance reports whether the percentage sum is within tol of 100.
func (f Formula) WithinTolerance(tol float64) bool {
	return math.Abs(f.PercentageSum()-100) <= tol
}

// ScrapedLine is one ingredient row of a scraped formula.
type ScrapedLine struct {
	PartNumber string  `json:"part_number"`
	Name       string  `json:"name"`
	Percent    float64 `json:"percent" validate:"gte=0"`
	Weight     float64 `json:"weight"`
	Category   string  `json:"category"`
	Density    float64 `json:"density"`
}

// ScrapedFormula is a formula extracted from the mixing-system web site.
type ScrapedFormula struct {
	ID     string        `json:"id"`
	Code   string        `json:"code"`
	Name   string        `json:"name"`
	Hex    *string       `json:"hex" validate:"omitempty,rgbhex"`
	Family string        `json:"family"`
	Lines  []ScrapedLine `json:"lines" validate:"min=1,dive"`
}

// Canonical adapts the scraped shape.
func (f ScrapedFormula) Canonical() Formula {
	out := Formula{
		ID:           f.ID,
		Code:         f.Code,
		Description:  f.Name,
		PartitionKey: f.Family,
		Source:       SourceScraped,
		ResolvedHex:  normalizedPtr(f.Hex),
		Components:   make([]Component, 0, len(f.Lines)),
	}
	if out.ID == "" {
		out.ID = f.Code
	}
	for _, l := range f.Lines {
		out.Components = append(out.Components, Component{
			ComponentCode:        l.PartNumber,
			ComponentDescription: l.Name,
			Percentage:           l.Percent,
			IsBase:               strings.EqualFold(l.Category, "base"),
		})
	}
	return out
}

// SwatchColor is the nested display color of a spreadsheet formula.
type SwatchColor struct {
	ID           string `json:"_id"`
	FormulaCode  string `json:"formulaCode"`
	FormulaColor string `json:"formulaColor"`
}

// SpreadsheetComponent is one ingredient of a spreadsheet formula. Hex is a
// bare "RRGGBB", or empty when the component code has no known color. It is
// never null.
type SpreadsheetComponent struct {
	ComponentCode        string  `json:"componentCode"`
	ComponentDescription string  `json:"componentDescription"`
	Percentage           float64 `json:"percentage" validate:"gte=0"`
	Hex                  string  `json:"hex" validate:"omitempty,rgbhexbare"`
	IsBase               bool    `json:"isBase"`
}

// SpreadsheetFormula is the vendor export shape, also returned by the vendor
// REST formula search.
type SpreadsheetFormula struct {
	ID                 string                 `json:"_id"`
	FormulaCode        string                 `json:"formulaCode"`
	FormulaDescription string                 `json:"formulaDescription"`
	FormulaSeries      string                 `json:"formulaSeries"`
	FormulaColor       string                 `json:"formulaColor"`
	FormulaSwatchColor SwatchColor            `json:"formulaSwatchColor"`
	Components         []SpreadsheetComponent `json:"components" validate:"min=1,dive"`
}

// Canonical adapts the spreadsheet shape. The swatch color wins over the
// top-level formula color.
func (f SpreadsheetFormula) Canonical(source Source) Formula {
	out := Formula{
		ID:           f.ID,
		Code:         f.FormulaCode,
		Description:  f.FormulaDescription,
		PartitionKey: f.FormulaSeries,
		Source:       source,
		Components:   make([]Component, 0, len(f.Components)),
	}
	if out.ID == "" {
		out.ID = f.FormulaCode
	}
	for _, candidate := range []string{f.FormulaSwatchColor.FormulaColor, f.FormulaColor} {
		if hex, ok := colorutils.NormalizeHex(candidate); ok {
			out.ResolvedHex = &hex
			break
		}
	}
	for _, c := range f.Components {
		out.Components = append(out.Components, Component{
			ComponentCode:        c.ComponentCode,
			ComponentDescription: c.ComponentDescription,
			Percentage:           c.Percentage,
			Hex:                  HexPtr(c.Hex),
			IsBase:               c.IsBase,
		})
	}
	return out
}

func normalizedPtr(hex *string) *string {
	if hex == nil {
		return nil
	}
	norm, ok := colorutils.NormalizeHex(*hex)
	if !ok {
		return nil
	}
	return &norm
}

// HexPtr returns a pointer to the normalized hex, or nil.
func HexPtr(hex string) *string {
	return normalizedPtr(&hex)
}
