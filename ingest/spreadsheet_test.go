package ingest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/b-clawson/pms-finder/assets"
	"github.com/b-clawson/pms-finder/blob"
	"github.com/b-clawson/pms-finder/ingest"
	"github.com/b-clawson/pms-finder/schema"
	"github.com/b-clawson/pms-finder/swatch"
)

var header = []any{"FormulaCode", "FormulaDescription", "ComponentCode", "ComponentDescription", "Percentage"}

func xlsx(t *testing.T, rows ...[]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, r := range append([][]any{header}, rows...) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func newSpreadsheet(t *testing.T, files map[string][]byte) (*ingest.Spreadsheet, blob.Store) {
	t.Helper()
	store := blob.NewMemory()
	for key, b := range files {
		require.NoError(t, store.Put(context.Background(), key, bytes.NewReader(b), ""))
	}
	idx := swatch.NewIndex([]schema.Swatch{
		{Code: "485", Series: schema.Coated, Hex: "#DA291C", Name: "PMS 485 C"},
	})
	return &ingest.Spreadsheet{
		Store:        store,
		Swatches:     idx,
		ComponentHex: assets.ComponentHex,
		BaseCodes:    assets.BaseCodes,
		Workers:      2,
	}, store
}

func readFormulas(t *testing.T, store blob.Store, key string) []schema.SpreadsheetFormula {
	t.Helper()
	b, err := blob.ReadAll(context.Background(), store, key)
	require.NoError(t, err)
	var out []schema.SpreadsheetFormula
	require.NoError(t, json.Unmarshal(b, &out))
	return out
}

func TestSpreadsheetRun(t *testing.T) {
	t.Parallel()

	book := xlsx(t,
		[]any{"7621 C", "Deep Red", "RED MFB", "Red", 100},
		[]any{"485 C", "Bright Red", "RED MFB", "Red", 60},
		[]any{"", "orphan", "BLK MK", "Black", 10},
		[]any{"485 C", "Bright Red", "ST WHT 301", "White", "40"},
		[]any{"Neon Pink", "Pink", "UNKNOWN", "Mystery", "n/a"},
	)
	sp, store := newSpreadsheet(t, map[string][]byte{"ow_raw.xlsx": book})

	rep, results := sp.Run(context.Background(), []ingest.Series{
		{Name: "OW Stretch", Input: "ow_raw.xlsx", Output: "ow.json"},
		{Name: "HM Discharge", Input: "hm_raw.xlsx", Output: "hm.json"},
	})
	assert.NotEmpty(t, rep.RunID)
	assert.Equal(t, 3, rep.Converted)
	assert.Equal(t, 1, rep.Skipped)
	assert.Equal(t, 0, rep.Errors)
	require.Len(t, results, 2)
	assert.True(t, results[1].Skipped)
	assert.Equal(t, 1, results[0].PMSMatched)
	assert.Equal(t, 1, results[0].MissingHex)
	assert.Equal(t, 0, results[0].Invalid)

	out := readFormulas(t, store, "ow.json")
	require.Len(t, out, 3)
	assert.Equal(t, []string{"485 C", "7621 C", "Neon Pink"},
		[]string{out[0].FormulaCode, out[1].FormulaCode, out[2].FormulaCode})

	red := out[0]
	assert.Equal(t, "485 C", red.ID)
	assert.Equal(t, "OW Stretch", red.FormulaSeries)
	assert.Equal(t, "", red.FormulaColor)
	assert.Equal(t, "DA291C", red.FormulaSwatchColor.FormulaColor)
	require.Len(t, red.Components, 2)
	assert.Equal(t, 40.0, red.Components[1].Percentage)
	assert.True(t, red.Components[1].IsBase)
	assert.Equal(t, "C92A4F", red.Components[0].Hex)

	assert.Equal(t, "C92A4F", out[1].FormulaSwatchColor.FormulaColor)

	pink := out[2]
	assert.Empty(t, pink.Components[0].Hex)
	assert.Equal(t, 0.0, pink.Components[0].Percentage)
	assert.Equal(t, "888888", pink.FormulaSwatchColor.FormulaColor)

	_, err := store.Get(context.Background(), "hm.json")
	assert.ErrorIs(t, err, blob.ErrNotFound)
}

func TestSpreadsheetBlendFallback(t *testing.T) {
	t.Parallel()

	csv := strings.Join([]string{
		"FormulaCode,FormulaDescription,ComponentCode,ComponentDescription,Percentage",
		"286 C,Royal Blue,BLU MB,Blue,50",
		"286 C,Royal Blue,BLK MK,Black,50",
	}, "\n")
	sp, store := newSpreadsheet(t, map[string][]byte{"blue.csv": []byte(csv)})

	res := sp.Convert(context.Background(), ingest.Series{Name: "301 RC Neo", Input: "blue.csv", Output: "blue.json"})
	require.NoError(t, res.Err)
	assert.Equal(t, 1, res.Formulas)
	assert.Equal(t, 0, res.PMSMatched)

	out := readFormulas(t, store, "blue.json")
	require.Len(t, out, 1)
	// (0x00+0x3E)/2, (0x66+0x3D)/2, (0xB0+0x39)/2
	assert.Equal(t, "1F5275", out[0].FormulaSwatchColor.FormulaColor)

	f := out[0].Canonical(schema.SourceSpreadsheet)
	hex, ok := f.ComparisonHex()
	assert.True(t, ok)
	assert.Equal(t, "#1F5275", hex)
}

func TestSortFormulas(t *testing.T) {
	t.Parallel()

	codes := []string{"Warm Red", "100 U", "12 C", "apple", "100 C", "7 C"}
	formulas := make([]schema.SpreadsheetFormula, len(codes))
	for i, c := range codes {
		formulas[i].FormulaCode = c
	}
	ingest.SortFormulas(formulas)

	got := make([]string, len(formulas))
	for i, f := range formulas {
		got[i] = f.FormulaCode
	}
	assert.Equal(t, []string{"7 C", "12 C", "100 U", "100 C", "apple", "Warm Red"}, got)
}
