package schema_test

import (
	"encoding/json"
	"testing"

	"github.com/b-clawson/pms-finder/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScrapedCanonical(t *testing.T) {
	t.Parallel()

	var f schema.ScrapedFormula
	require.NoError(t, json.Unmarshal([]byte(validScraped), &f))

	c := f.Canonical()
	assert.Equal(t, "icc-001", c.ID)
	assert.Equal(t, "PMS 100", c.Code)
	assert.Equal(t, "Yellow", c.Description)
	assert.Equal(t, "7500 Coated", c.PartitionKey)
	assert.Equal(t, schema.SourceScraped, c.Source)
	require.NotNil(t, c.ResolvedHex)
	assert.Equal(t, "#FFFF00", *c.ResolvedHex)
	require.Len(t, c.Components, 2)
	assert.Equal(t, "P001", c.Components[0].ComponentCode)
	assert.InDelta(t, 100, c.PercentageSum(), 1e-9)
	assert.True(t, c.WithinTolerance(schema.SourceScraped.Tolerance()))
}

func TestSpreadsheetCanonical(t *testing.T) {
	t.Parallel()

	var f schema.SpreadsheetFormula
	require.NoError(t, json.Unmarshal([]byte(validSpreadsheet), &f))
	f.FormulaSwatchColor.FormulaColor = "00ff00"

	c := f.Canonical(schema.SourceSpreadsheet)
	assert.Equal(t, "mat-001", c.ID)
	assert.Equal(t, "FC100", c.Code)
	assert.Equal(t, "301 RC NEO", c.PartitionKey)
	require.NotNil(t, c.ResolvedHex)
	assert.Equal(t, "#00FF00", *c.ResolvedHex)
	require.NotNil(t, c.Components[0].Hex)
	assert.Equal(t, "#FF0000", *c.Components[0].Hex)
	assert.True(t, c.Components[0].IsBase)

	f.FormulaSwatchColor.FormulaColor = ""
	c = f.Canonical(schema.SourceMatsui)
	assert.Equal(t, "#FF0000", *c.ResolvedHex)
	assert.Equal(t, schema.SourceMatsui, c.Source)

	f.Components[1].Hex = ""
	c = f.Canonical(schema.SourceSpreadsheet)
	assert.Nil(t, c.Components[1].Hex)
}

func TestFormulaComparisonHex(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		hex  *string
		want string
		ok   bool
	}{
		"resolved":      {hex: schema.HexPtr("da291c"), want: "#DA291C", ok: true},
		"unresolved":    {hex: nil},
		"fallback gray": {hex: schema.HexPtr("#888888")},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got, ok := schema.Formula{ResolvedHex: tt.hex}.ComparisonHex()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSourceTolerance(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1.0, schema.SourceScraped.Tolerance())
	assert.Equal(t, 5.0, schema.SourceSpreadsheet.Tolerance())

	f := schema.Formula{Components: []schema.Component{{Percentage: 60}, {Percentage: 36}}}
	assert.False(t, f.WithinTolerance(1))
	assert.True(t, f.WithinTolerance(5))
}
