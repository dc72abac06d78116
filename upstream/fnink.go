package upstream

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/b-clawson/pms-finder/errs"
	"github.com/b-clawson/pms-finder/schema"
)

const (
	FnInkURL       = "https://fnink-mixing-server.herokuapp.com"
	FnInkPartition = "FN-INK"

	fnInkColorsQuery    = `{ colors { id code name hex formula { multiplier materials { amount material { id name hex } } } } }`
	fnInkMaterialsQuery = `{ materials { id name hex } }`
)

type FnInkMaterial struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Hex  string `json:"hex"`
}

type FnInkColor struct {
	ID      string `json:"id"`
	Code    string `json:"code"`
	Name    string `json:"name"`
	Hex     string `json:"hex"`
	Formula struct {
		Multiplier float64 `json:"multiplier"`
		Materials  []struct {
			Amount   float64       `json:"amount"`
			Material FnInkMaterial `json:"material"`
		} `json:"materials"`
	} `json:"formula"`
}

func (c FnInkColor) Canonical() schema.Formula {
	f := schema.Formula{
		ID:           c.ID,
		Code:         c.Code,
		Description:  c.Name,
		PartitionKey: FnInkPartition,
		Source:       schema.SourceFnInk,
		ResolvedHex:  hexPtr(c.Hex),
		Components:   make([]schema.Component, 0, len(c.Formula.Materials)),
	}
	if f.ID == "" {
		f.ID = c.Code
	}
	amounts := make([]float64, len(c.Formula.Materials))
	for i, m := range c.Formula.Materials {
		amounts[i] = m.Amount
	}
	for i, pct := range shares(amounts) {
		m := c.Formula.Materials[i].Material
		f.Components = append(f.Components, schema.Component{
			ComponentCode:        m.ID,
			ComponentDescription: m.Name,
			Percentage:           pct,
			Hex:                  hexPtr(m.Hex),
		})
	}
	return f
}

type graphQLEnvelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// FnInk is the GraphQL mixing server. It has a single partition.
type FnInk struct {
	c *Client
}

func NewFnInk(c *Client) *FnInk { return &FnInk{c: c} }

func (f *FnInk) Name() string { return f.c.Name() }

func (f *FnInk) Owns(partition string) bool {
	return strings.EqualFold(trimmed(partition), FnInkPartition)
}

// fnQuery posts a GraphQL query and decodes its data into dst. GraphQL
// errors are reported as UpstreamUnavailable.
func fnQuery[T any](ctx context.Context, f *FnInk, q, cacheKey string, check ShapeCheck, dst *T) error {
	data, err := f.c.Post(ctx, "api", map[string]string{"query": q}, Cached(cacheKey, check))
	if err != nil {
		return err
	}
	var env graphQLEnvelope
	if err := JsonScan(f.Name(), data, &env); err != nil {
		return err
	}
	if len(env.Errors) > 0 {
		return errs.Newf(errs.UpstreamUnavailable, "fnink.query", "%s", env.Errors[0].Message)
	}
	return JsonScan(f.Name(), env.Data, dst)
}

func (f *FnInk) Colors(ctx context.Context) ([]FnInkColor, error) {
	var out struct {
		Colors []FnInkColor `json:"colors"`
	}
	if err := fnQuery(ctx, f, fnInkColorsQuery, "fnink:colors", GraphQLField("colors", "code"), &out); err != nil {
		return nil, err
	}
	return out.Colors, nil
}

func (f *FnInk) Materials(ctx context.Context) ([]FnInkMaterial, error) {
	var out struct {
		Materials []FnInkMaterial `json:"materials"`
	}
	if err := fnQuery(ctx, f, fnInkMaterialsQuery, "fnink:materials", GraphQLField("materials", ""), &out); err != nil {
		return nil, err
	}
	return out.Materials, nil
}

func (f *FnInk) Formulas(ctx context.Context, _ string) ([]schema.Formula, error) {
	colors, err := f.Colors(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]schema.Formula, 0, len(colors))
	for _, c := range colors {
		out = append(out, c.Canonical())
	}
	return out, nil
}

// Detail reads from the color list; the server has no per-code query.
func (f *FnInk) Detail(ctx context.Context, code, _ string) (schema.Formula, error) {
	colors, err := f.Colors(ctx)
	if err != nil {
		return schema.Formula{}, err
	}
	for _, c := range colors {
		if strings.EqualFold(trimmed(c.Code), trimmed(code)) {
			return c.Canonical(), nil
		}
	}
	return schema.Formula{}, errs.Newf(errs.FormulaNotFound, "fnink.Detail", "no formula %q", code)
}
