package colorutils_test

import (
	"testing"

	"github.com/b-clawson/pms-finder/colorutils"
	"github.com/stretchr/testify/assert"
)

type mapIndex map[string]string

func (m mapIndex) Lookup(name string) (string, bool) {
	hex, ok := m[name]
	return hex, ok
}

func TestResolverResolve(t *testing.T) {
	t.Parallel()

	specialty := map[string]string{
		"REFLEX BLUE C": "#001489",
		"COOL GRAY 7 C": "#97999B",
	}
	index := mapIndex{
		"PMS 485 C":     "#DA291C",
		"113 C":         "#FAE053",
		"PANTONE 282 C": "#041E42",
		"PMS 152 C":     "#DD7500",
		"7621 C":        "#AB2328",
		"BAD":           "#12",
	}
	r := colorutils.NewResolver(specialty, index)

	tests := map[string]struct {
		name string
		hex  string
		step colorutils.Step
		ok   bool
	}{
		"specialty exact":            {name: "Reflex Blue C", hex: "#001489", step: colorutils.StepSpecialty, ok: true},
		"specialty trimmed":          {name: "  cool gray 7 c ", hex: "#97999B", step: colorutils.StepSpecialty, ok: true},
		"pms prefix":                 {name: "485 C", hex: "#DA291C", step: colorutils.StepReference, ok: true},
		"glued coating":              {name: "485C", hex: "#DA291C", step: colorutils.StepReference, ok: true},
		"date suffix with dash":      {name: "113C - 6-2023", hex: "#FAE053", step: colorutils.StepDateSuffix, ok: true},
		"date suffix short year":     {name: "282C - 8-2-24", hex: "#041E42", step: colorutils.StepDateSuffix, ok: true},
		"date suffix without dash":   {name: "152C 10-29-24", hex: "#DD7500", step: colorutils.StepDateSuffix, ok: true},
		"appended coated":            {name: "7621", hex: "#AB2328", step: colorutils.StepReference, ok: true},
		"appended coated with pms":   {name: "152", hex: "#DD7500", step: colorutils.StepReference, ok: true},
		"uncoated not promoted to c": {name: "485 U", ok: false},
		"unknown":                    {name: "Mystery Teal", ok: false},
		"invalid index hex":          {name: "bad", ok: false},
		"empty":                      {name: "   ", ok: false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			hex, step, ok := r.Resolve(tt.name)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.hex, hex)
			assert.Equal(t, tt.step, step)
		})
	}
}

func TestResolverWithoutIndex(t *testing.T) {
	t.Parallel()

	r := colorutils.NewResolver(map[string]string{"BLACK C": "#2D2926"}, nil)

	hex, ok := r.ResolveByName("black c")
	assert.True(t, ok)
	assert.Equal(t, "#2D2926", hex)

	_, ok = r.ResolveByName("485 C")
	assert.False(t, ok)
}
