package upstream

import (
	"context"
	"net/url"
	"strings"

	"github.com/b-clawson/pms-finder/colorutils"
	"github.com/b-clawson/pms-finder/errs"
	"github.com/b-clawson/pms-finder/schema"
)

const GreenGalaxyBaseURL = "https://gg-fusion-dba9a0f2a2e0.herokuapp.com/api/v2"

// Category is a Green Galaxy formula line.
type Category string

const (
	CategoryUD Category = "UD"
	CategoryCD Category = "CD"
)

// ParseCategory defaults to UD and rejects anything but UD or CD.
func ParseCategory(s string) (Category, error) {
	switch c := Category(strings.ToUpper(strings.TrimSpace(s))); c {
	case "":
		return CategoryUD, nil
	case CategoryUD, CategoryCD:
		return c, nil
	}
	return "", errs.Newf(errs.InvalidInput, "greengalaxy.ParseCategory", "category must be UD or CD, got %q", s)
}

type GreenGalaxyColor struct {
	ID   string `json:"_id"`
	Code string `json:"code"`
	Name string `json:"name"`
	Hex  string `json:"hex"`
	R    *int   `json:"r"`
	G    *int   `json:"g"`
	B    *int   `json:"b"`
}

// ResolvedHex prefers the r,g,b channels over the hex string.
func (c GreenGalaxyColor) ResolvedHex() (string, bool) {
	if c.R != nil && c.G != nil && c.B != nil {
		return colorutils.RGB{R: *c.R, G: *c.G, B: *c.B}.Hex(), true
	}
	return colorutils.NormalizeHex(c.Hex)
}

func (c GreenGalaxyColor) Canonical(cat Category) schema.Formula {
	f := schema.Formula{
		ID:           c.ID,
		Code:         c.Code,
		Description:  c.Name,
		PartitionKey: string(cat),
		Source:       schema.SourceGreenGalaxy,
	}
	if f.ID == "" {
		f.ID = c.Code
	}
	if hex, ok := c.ResolvedHex(); ok {
		f.ResolvedHex = &hex
	}
	return f
}

type GreenGalaxyMaterial struct {
	Code         string `json:"code"`
	Name         string `json:"name"`
	Hex          string `json:"hex"`
	URL          string `json:"url,omitempty"`
	MaterialType string `json:"materialType,omitempty"`
}

type GreenGalaxyDetail struct {
	Color struct {
		ID       string `json:"_id"`
		Code     string `json:"code"`
		Name     string `json:"name"`
		Hex      string `json:"hex"`
		Category string `json:"category"`
	} `json:"color"`
	Materials []struct {
		Material GreenGalaxyMaterial `json:"material"`
		Amount   float64             `json:"amount"`
	} `json:"materials"`
	Comments string `json:"comments,omitempty"`
}

// Canonical turns material amounts into percentage shares.
func (d GreenGalaxyDetail) Canonical(cat Category) schema.Formula {
	f := schema.Formula{
		ID:           d.Color.ID,
		Code:         d.Color.Code,
		Description:  d.Color.Name,
		PartitionKey: string(cat),
		Source:       schema.SourceGreenGalaxy,
		ResolvedHex:  hexPtr(d.Color.Hex),
		Components:   make([]schema.Component, 0, len(d.Materials)),
	}
	if f.ID == "" {
		f.ID = f.Code
	}
	amounts := make([]float64, len(d.Materials))
	for i, m := range d.Materials {
		amounts[i] = m.Amount
	}
	for i, pct := range shares(amounts) {
		m := d.Materials[i].Material
		f.Components = append(f.Components, schema.Component{
			ComponentCode:        m.Code,
			ComponentDescription: m.Name,
			Percentage:           pct,
			Hex:                  hexPtr(m.Hex),
		})
	}
	return f
}

// GreenGalaxy serves the UD and CD categories.
type GreenGalaxy struct {
	c *Client
}

func NewGreenGalaxy(c *Client) *GreenGalaxy { return &GreenGalaxy{c: c} }

func (g *GreenGalaxy) Name() string { return g.c.Name() }

func (g *GreenGalaxy) Owns(partition string) bool {
	switch Category(strings.ToUpper(trimmed(partition))) {
	case CategoryUD, CategoryCD:
		return true
	}
	return false
}

func (g *GreenGalaxy) Colors(ctx context.Context, cat Category) ([]GreenGalaxyColor, error) {
	data, err := g.c.Get(ctx, "colors/"+string(cat), ArrayOf("code"))
	if err != nil {
		return nil, err
	}
	var out []GreenGalaxyColor
	return out, JsonScan(g.Name(), data, &out)
}

func (g *GreenGalaxy) Formulas(ctx context.Context, partition string) ([]schema.Formula, error) {
	cat, err := ParseCategory(partition)
	if err != nil {
		return nil, err
	}
	colors, err := g.Colors(ctx, cat)
	if err != nil {
		return nil, err
	}
	out := make([]schema.Formula, 0, len(colors))
	for _, c := range colors {
		out = append(out, c.Canonical(cat))
	}
	return out, nil
}

func (g *GreenGalaxy) Detail(ctx context.Context, code, partition string) (schema.Formula, error) {
	cat, err := ParseCategory(partition)
	if err != nil {
		return schema.Formula{}, err
	}
	data, err := g.c.Get(ctx, "formulas/"+url.PathEscape(trimmed(code))+"/"+string(cat), nil)
	if err != nil {
		return schema.Formula{}, err
	}
	var d GreenGalaxyDetail
	if err := JsonScan(g.Name(), data, &d); err != nil {
		return schema.Formula{}, err
	}
	if d.Color.Code == "" {
		return schema.Formula{}, errs.Newf(errs.FormulaNotFound, "greengalaxy.Detail", "no formula %q in %s", code, cat)
	}
	return d.Canonical(cat), nil
}
