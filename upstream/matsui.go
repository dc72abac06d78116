package upstream

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/b-clawson/pms-finder/colorutils"
	"github.com/b-clawson/pms-finder/errs"
	"github.com/b-clawson/pms-finder/schema"
)

const MatsuiBaseURL = "https://api2.matsui-color.com"

type MatsuiSeries struct {
	ID         string `json:"_id"`
	SeriesName string `json:"seriesName"`
}

type MatsuiPigment struct {
	ID          string    `json:"_id"`
	Code        string    `json:"code"`
	Description string    `json:"description"`
	Serie       string    `json:"serie"`
	Hex         string    `json:"hex"`
	RGB         []float64 `json:"rgb"`
	CMYK        []float64 `json:"cmyk"`
	Lab         []float64 `json:"lab"`
	IsBase      bool      `json:"isBase"`
	PricePerKg  float64   `json:"pricePerKg"`
}

// ResolvedHex picks hex, then rgb, then cmyk, then lab.
func (p MatsuiPigment) ResolvedHex() (string, bool) {
	if hex, ok := colorutils.NormalizeHex(p.Hex); ok {
		return hex, true
	}
	switch {
	case len(p.RGB) == 3:
		return colorutils.RGB{R: int(p.RGB[0]), G: int(p.RGB[1]), B: int(p.RGB[2])}.Hex(), true
	case len(p.CMYK) == 4:
		return colorutils.Cmyk2rgb(p.CMYK).Hex(), true
	case len(p.Lab) == 3:
		return colorutils.Lab2rgb(p.Lab).Hex(), true
	}
	return "", false
}

type MatsuiComponent struct {
	ComponentCode        string    `json:"componentCode"`
	ComponentDescription string    `json:"componentDescription"`
	Percentage           float64   `json:"percentage"`
	Hex                  *string   `json:"hex"`
	IsBase               bool      `json:"isBase"`
	CMYK                 []float64 `json:"cmyk"`
	PricePerKg           float64   `json:"pricePerKg"`
}

type MatsuiFormula struct {
	ID                 string             `json:"_id"`
	FormulaCode        string             `json:"formulaCode"`
	FormulaDescription string             `json:"formulaDescription"`
	FormulaSeries      string             `json:"formulaSeries"`
	FormulaColor       string             `json:"formulaColor"`
	FormulaSwatchColor schema.SwatchColor `json:"formulaSwatchColor"`
	Components         []MatsuiComponent  `json:"components"`
}

// Canonical adapts the API shape. Components without a hex fall back to
// their CMYK values.
func (f MatsuiFormula) Canonical() schema.Formula {
	sf := schema.SpreadsheetFormula{
		ID:                 f.ID,
		FormulaCode:        f.FormulaCode,
		FormulaDescription: f.FormulaDescription,
		FormulaSeries:      f.FormulaSeries,
		FormulaColor:       f.FormulaColor,
		FormulaSwatchColor: f.FormulaSwatchColor,
	}
	for _, c := range f.Components {
		var hex string
		if c.Hex != nil {
			hex = trimmed(*c.Hex)
		}
		if hex == "" && len(c.CMYK) == 4 {
			hex = strings.TrimPrefix(colorutils.Cmyk2rgb(c.CMYK).Hex(), "#")
		}
		sf.Components = append(sf.Components, schema.SpreadsheetComponent{
			ComponentCode:        c.ComponentCode,
			ComponentDescription: c.ComponentDescription,
			Percentage:           c.Percentage,
			Hex:                  hex,
			IsBase:               c.IsBase,
		})
	}
	return sf.Canonical(schema.SourceMatsui)
}

type formulaQuery struct {
	FormulaSeries      string `json:"formulaSeries"`
	FormulaSearchQuery string `json:"formulaSearchQuery"`
	UserCompany        string `json:"userCompany"`
	SelectedCompany    string `json:"selectedCompany"`
	UserEmail          string `json:"userEmail"`
}

// Matsui serves every series not claimed by another vendor.
type Matsui struct {
	c *Client
}

func NewMatsui(c *Client) *Matsui { return &Matsui{c: c} }

func (m *Matsui) Name() string { return m.c.Name() }

func (m *Matsui) Owns(string) bool { return true }

func (m *Matsui) Series(ctx context.Context) ([]MatsuiSeries, error) {
	data, err := m.c.Get(ctx, "components/GetSeries", ArrayOf("seriesName"))
	if err != nil {
		return nil, err
	}
	var out []MatsuiSeries
	return out, JsonScan(m.Name(), data, &out)
}

func (m *Matsui) Pigments(ctx context.Context) ([]MatsuiPigment, error) {
	data, err := m.c.Get(ctx, "components/GetPigments", ArrayOf("code"))
	if err != nil {
		return nil, err
	}
	var out []MatsuiPigment
	return out, JsonScan(m.Name(), data, &out)
}

// Search runs an uncached formula search within a series.
func (m *Matsui) Search(ctx context.Context, series, query string) ([]MatsuiFormula, error) {
	data, err := m.c.Post(ctx, "components/GetFormulas", formulaQuery{
		FormulaSeries:      series,
		FormulaSearchQuery: query,
	})
	if err != nil {
		return nil, err
	}
	var out []MatsuiFormula
	return out, JsonScan(m.Name(), data, &out)
}

// Closest forwards a closest-color query as is.
func (m *Matsui) Closest(ctx context.Context, body json.RawMessage) (json.RawMessage, error) {
	return m.c.Post(ctx, "components/GetClosestColors", body)
}

func (m *Matsui) Formulas(ctx context.Context, partition string) ([]schema.Formula, error) {
	found, err := m.Search(ctx, partition, "")
	if err != nil {
		return nil, err
	}
	out := make([]schema.Formula, 0, len(found))
	for _, f := range found {
		out = append(out, f.Canonical())
	}
	return out, nil
}

func (m *Matsui) Detail(ctx context.Context, code, partition string) (schema.Formula, error) {
	found, err := m.Search(ctx, partition, trimmed(code))
	if err != nil {
		return schema.Formula{}, err
	}
	for _, f := range found {
		if strings.EqualFold(trimmed(f.FormulaCode), trimmed(code)) {
			return f.Canonical(), nil
		}
	}
	return schema.Formula{}, errs.Newf(errs.FormulaNotFound, "matsui.Detail", "no formula %q in %q", code, partition)
}
