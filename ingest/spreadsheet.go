package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/alitto/pond"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/b-clawson/pms-finder/blob"
	"github.com/b-clawson/pms-finder/colorutils"
	"github.com/b-clawson/pms-finder/schema"
)

// Series maps one spreadsheet export to its partition file.
type Series struct {
	Name   string `koanf:"name" json:"name" validate:"required"`
	Input  string `koanf:"input" json:"input" validate:"required"`
	Output string `koanf:"output" json:"output" validate:"required"`
}

// DefaultSeries lists the exports converted by a default run.
func DefaultSeries() []Series {
	return []Series{
		{Name: "301 RC Neo", Input: "matsui_301_rc_neo_raw.xlsx", Output: "matsui_301_rc_neo.json"},
		{Name: "Alpha Discharge", Input: "matsui_alpha_discharge_raw.xlsx", Output: "matsui_alpha_discharge.json"},
		{Name: "Brite Discharge", Input: "matsui_brite_discharge_raw.xlsx", Output: "matsui_brite_discharge.json"},
		{Name: "HM Discharge", Input: "matsui_hm_discharge_raw.xlsx", Output: "matsui_hm_discharge.json"},
		{Name: "OW Stretch", Input: "matsui_ow_stretch_raw.xlsx", Output: "matsui_ow_stretch.json"},
	}
}

// CodeLookup finds a reference swatch hex by its code.
type CodeLookup interface {
	LookupCode(code string) (string, bool)
}

// Row is one component line of an export.
type Row struct {
	FormulaCode          string
	FormulaDescription   string
	ComponentCode        string
	ComponentDescription string
	Percentage           float64
}

// Spreadsheet converts exports into spreadsheet-shape partition files.
type Spreadsheet struct {
	Store        blob.Store
	Swatches     CodeLookup
	ComponentHex map[string]string
	BaseCodes    map[string]bool
	Workers      int
}

// SeriesResult is the outcome of converting one export.
type SeriesResult struct {
	Series     Series
	Formulas   int
	PMSMatched int
	MissingHex int
	Invalid    int
	Skipped    bool
	Err        error
}

// Run converts every series concurrently. A missing export is skipped; it
// never aborts the batch.
func (s *Spreadsheet) Run(ctx context.Context, series []Series) (Report, []SeriesResult) {
	st := time.Now()
	rep := newReport("spreadsheet")
	log.Printf("[>] Convert %d spreadsheet series, run %s", len(series), rep.RunID)

	workers := max(1, s.Workers)
	panicHandler := func(p interface{}) {
		log.Printf("[!] Task panicked: %v", p)
	}
	pool := pond.New(workers, len(series)+1, pond.MinWorkers(workers), pond.PanicHandler(panicHandler))

	results := make([]SeriesResult, len(series))
	for i, sr := range series {
		pool.Submit(func() {
			results[i] = s.Convert(ctx, sr)
		})
	}
	pool.StopAndWait()

	for i, res := range results {
		switch {
		case res.Series.Name == "":
			// the task panicked
			results[i].Series = series[i]
			results[i].Err = fmt.Errorf("%s: conversion aborted", series[i].Name)
			rep.Errors++
		case res.Skipped:
			rep.Skipped++
		case res.Err != nil:
			log.Printf("[!] %s: %v", res.Series.Name, res.Err)
			rep.Errors++
		default:
			rep.Converted += res.Formulas
		}
	}
	rep.Duration = time.Since(st)
	log.Printf("[<] Convert spreadsheets: %d formulas across %d series, at %s", rep.Converted, len(series), rep.Duration)
	return rep, results
}

// Convert reads one export, groups it by formula code and writes the
// sorted, validated partition file.
func (s *Spreadsheet) Convert(ctx context.Context, sr Series) SeriesResult {
	res := SeriesResult{Series: sr}
	rows, err := s.readRows(ctx, sr.Input)
	if errors.Is(err, blob.ErrNotFound) {
		log.Printf("[-] %s: SKIP, %s not found", sr.Name, sr.Input)
		res.Skipped = true
		return res
	}
	if err != nil {
		res.Err = fmt.Errorf("cannot read %s: %w", sr.Input, err)
		return res
	}
	log.Printf("[*] %s: %d rows from %s", sr.Name, len(rows), sr.Input)

	formulas := s.Build(sr.Name, rows, &res)
	SortFormulas(formulas)

	vr := schema.ValidateRecords(sr.Name, formulas, schema.SpreadsheetFormulaSchema)
	res.Invalid = vr.Invalid
	vr.Log(5)

	if err := writeJSON(ctx, s.Store, sr.Output, formulas); err != nil {
		res.Err = err
		return res
	}
	res.Formulas = len(formulas)
	log.Printf("[*] %s: wrote %d formulas to %s (%d PMS matched, %d blended)",
		sr.Name, len(formulas), sr.Output, res.PMSMatched, len(formulas)-res.PMSMatched)
	if res.MissingHex > 0 {
		log.Printf("[!] %s: %d components had no hex mapping", sr.Name, res.MissingHex)
	}
	return res
}

// Build groups rows by formula code in first-seen order. The swatch color is
// the reference hex found through the formula code, else the blend of the
// components.
func (s *Spreadsheet) Build(seriesName string, rows []Row, res *SeriesResult) []schema.SpreadsheetFormula {
	var order []string
	grouped := make(map[string]*schema.SpreadsheetFormula)
	for _, r := range rows {
		code := strings.TrimSpace(r.FormulaCode)
		if code == "" {
			continue
		}
		f, ok := grouped[code]
		if !ok {
			f = &schema.SpreadsheetFormula{
				ID:                 code,
				FormulaCode:        code,
				FormulaDescription: strings.TrimSpace(r.FormulaDescription),
				FormulaSeries:      seriesName,
				FormulaSwatchColor: schema.SwatchColor{ID: code, FormulaCode: code},
			}
			grouped[code] = f
			order = append(order, code)
		}
		compCode := strings.TrimSpace(r.ComponentCode)
		hex := s.ComponentHex[compCode]
		f.Components = append(f.Components, schema.SpreadsheetComponent{
			ComponentCode:        compCode,
			ComponentDescription: strings.TrimSpace(r.ComponentDescription),
			Percentage:           r.Percentage,
			Hex:                  hex,
			IsBase:               s.BaseCodes[compCode],
		})
	}

	out := make([]schema.SpreadsheetFormula, 0, len(order))
	for _, code := range order {
		f := grouped[code]
		weighted := make([]colorutils.Weighted, 0, len(f.Components))
		for _, c := range f.Components {
			if c.Hex == "" {
				res.MissingHex++
				continue
			}
			weighted = append(weighted, colorutils.Weighted{Hex: c.Hex, Percentage: c.Percentage})
		}
		color := colorutils.Blend(weighted)
		if s.Swatches != nil {
			if hex, ok := s.Swatches.LookupCode(PMSKey(code)); ok {
				if norm, ok := colorutils.NormalizeHex(hex); ok {
					color = norm
					res.PMSMatched++
				}
			}
		}
		f.FormulaSwatchColor.FormulaColor = strings.TrimPrefix(color, "#")
		out = append(out, *f)
	}
	return out
}

var leadingIntRe = regexp.MustCompile(`^\s*[+-]?\d+`)

func leadingInt(s string) (int, bool) {
	m := leadingIntRe.FindString(s)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(m))
	return n, err == nil
}

// SortFormulas orders by the leading number of the code; numbered codes come
// first, the rest are collated alphabetically. Ties keep input order.
func SortFormulas(formulas []schema.SpreadsheetFormula) {
	coll := collate.New(language.English)
	sort.SliceStable(formulas, func(i, j int) bool {
		a, b := formulas[i].FormulaCode, formulas[j].FormulaCode
		an, aok := leadingInt(a)
		bn, bok := leadingInt(b)
		switch {
		case aok && bok:
			return an < bn
		case aok:
			return true
		case bok:
			return false
		}
		return coll.CompareString(a, b) < 0
	})
}

func (s *Spreadsheet) readRows(ctx context.Context, key string) ([]Row, error) {
	rc, err := s.Store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var table [][]string
	switch strings.ToLower(path.Ext(key)) {
	case ".csv":
		r := csv.NewReader(rc)
		r.FieldsPerRecord = -1
		table, err = r.ReadAll()
	default:
		table, err = readSheet(rc)
	}
	if err != nil {
		return nil, err
	}
	return toRows(table), nil
}

func readSheet(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("[!] Error closing workbook: %v", err)
		}
	}()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	return f.GetRows(sheets[0])
}

// toRows maps the header row onto Row fields. Unknown columns are ignored.
func toRows(table [][]string) []Row {
	if len(table) == 0 {
		return nil
	}
	col := make(map[string]int)
	for i, h := range table[0] {
		col[strings.TrimSpace(h)] = i
	}
	cell := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return rec[i]
	}
	rows := make([]Row, 0, len(table)-1)
	for _, rec := range table[1:] {
		rows = append(rows, Row{
			FormulaCode:          cell(rec, "FormulaCode"),
			FormulaDescription:   cell(rec, "FormulaDescription"),
			ComponentCode:        cell(rec, "ComponentCode"),
			ComponentDescription: cell(rec, "ComponentDescription"),
			Percentage:           number(cell(rec, "Percentage")),
		})
	}
	return rows
}

// number parses a cell as a float. Anything unparsable is 0.
func number(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
