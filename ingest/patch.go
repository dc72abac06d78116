package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/b-clawson/pms-finder/blob"
	"github.com/b-clawson/pms-finder/colorutils"
	"github.com/b-clawson/pms-finder/schema"
)

// PatchResult counts how null colors were filled.
type PatchResult struct {
	Report
	Resolved    int `json:"resolved"`
	BySpecialty int `json:"bySpecialty"`
	ByDateStrip int `json:"byDateStrip"`
	ByReference int `json:"byReference"`
	NullBefore  int `json:"nullBefore"`
	NullAfter   int `json:"nullAfter"`
}

// Patcher fills null hex values of a scraped file through the resolver.
type Patcher struct {
	Store    blob.Store
	Resolver *colorutils.Resolver
}

// Run rewrites key with every record it could resolve. Records that stay
// unresolved keep a null hex.
func (p *Patcher) Run(ctx context.Context, key string) (PatchResult, error) {
	st := time.Now()
	res := PatchResult{Report: newReport("patch")}
	log.Printf("[>] Patch null colors in %s, run %s", key, res.RunID)

	b, err := blob.ReadAll(ctx, p.Store, key)
	if err != nil {
		return res, err
	}
	var formulas []schema.ScrapedFormula
	if err := json.Unmarshal(b, &formulas); err != nil {
		return res, fmt.Errorf("cannot parse %s: %w", key, err)
	}

	for i := range formulas {
		if formulas[i].Hex != nil {
			continue
		}
		res.NullBefore++
		hex, step, ok := p.Resolver.Resolve(formulas[i].Name)
		if !ok {
			res.NullAfter++
			continue
		}
		formulas[i].Hex = &hex
		res.Resolved++
		switch step {
		case colorutils.StepSpecialty:
			res.BySpecialty++
		case colorutils.StepDateSuffix:
			res.ByDateStrip++
		default:
			res.ByReference++
		}
	}
	res.Converted = res.Resolved
	res.Skipped = len(formulas) - res.NullBefore

	log.Printf("[*] Loaded %d formulas (%d with null hex)", len(formulas), res.NullBefore)
	if err := writeJSON(ctx, p.Store, key, formulas); err != nil {
		return res, err
	}
	res.Duration = time.Since(st)
	log.Printf("[<] Patch: resolved %d (%d specialty, %d date-suffix, %d reference), null %d -> %d, at %s",
		res.Resolved, res.BySpecialty, res.ByDateStrip, res.ByReference, res.NullBefore, res.NullAfter, res.Duration)
	return res, nil
}
