// Package audit checks the canonical files against their schemas and a
// manifest of expected sizes. Only schema failures are fatal.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"strings"
	"time"

	"github.com/alitto/pond"
	"github.com/google/uuid"

	"github.com/b-clawson/pms-finder/blob"
	"github.com/b-clawson/pms-finder/catalog"
	"github.com/b-clawson/pms-finder/colorutils"
	"github.com/b-clawson/pms-finder/schema"
)

// MaxExamples bounds the out-of-tolerance records listed per file.
const MaxExamples = 5

// SumExample is a record whose percentage sum is out of tolerance.
type SumExample struct {
	ID  string
	Sum float64
}

// FileReport is the outcome of one manifest entry.
type FileReport struct {
	Entry   Entry
	Skipped bool
	Err     error
	Records int
	Result  schema.Result

	BelowMinimum bool
	OutOfRange   int
	Examples     []SumExample
	Duplicates   []string
	DuplicateN   int
	Junk         int
}

// SchemaFailed reports a structural problem: invalid records or a file
// that is not a JSON array.
func (f FileReport) SchemaFailed() bool {
	return f.Err != nil || f.Result.Invalid > 0
}

// Warnings counts the advisory checks that fired.
func (f FileReport) Warnings() int {
	n := 0
	if f.BelowMinimum {
		n++
	}
	if f.OutOfRange > 0 {
		n++
	}
	if f.DuplicateN > 0 {
		n++
	}
	return n
}

// Report is one audit run.
type Report struct {
	RunID    string
	Files    []FileReport
	Duration time.Duration
}

func (r Report) SchemaFailed() bool {
	for _, f := range r.Files {
		if f.SchemaFailed() {
			return true
		}
	}
	return false
}

func (r Report) Warnings() int {
	n := 0
	for _, f := range r.Files {
		n += f.Warnings()
	}
	return n
}

// ExitCode is 1 on schema failure. Warnings never change it.
func (r Report) ExitCode() int {
	if r.SchemaFailed() {
		return 1
	}
	return 0
}

// Auditor runs a manifest against a store.
type Auditor struct {
	Store   blob.Store
	Junk    catalog.JunkRules
	Workers int
}

// Run checks every entry concurrently; the report keeps manifest order.
func (a *Auditor) Run(ctx context.Context, m Manifest) Report {
	st := time.Now()
	rep := Report{RunID: uuid.NewString(), Files: make([]FileReport, len(m.Files))}
	log.Printf("[>] Audit %d files, run %s", len(m.Files), rep.RunID)

	workers := max(1, a.Workers)
	panicHandler := func(p interface{}) {
		log.Printf("[!] Task panicked: %v", p)
	}
	pool := pond.New(workers, len(m.Files)+1, pond.MinWorkers(workers), pond.PanicHandler(panicHandler))
	for i, e := range m.Files {
		pool.Submit(func() {
			rep.Files[i] = a.check(ctx, e)
		})
	}
	pool.StopAndWait()

	for i, f := range rep.Files {
		if f.Entry.File == "" {
			rep.Files[i] = FileReport{Entry: m.Files[i], Err: errors.New("check aborted")}
		}
	}
	rep.Duration = time.Since(st)
	log.Printf("[<] Audit: exit code %d, %d warning(s), at %s", rep.ExitCode(), rep.Warnings(), rep.Duration)
	return rep
}

func (a *Auditor) check(ctx context.Context, e Entry) FileReport {
	fr := FileReport{Entry: e}
	b, err := blob.ReadAll(ctx, a.Store, e.File)
	if errors.Is(err, blob.ErrNotFound) {
		fr.Skipped = true
		return fr
	}
	if err != nil {
		fr.Err = err
		return fr
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(b, &raws); err != nil {
		fr.Err = fmt.Errorf("cannot parse %s: %w", e.File, err)
		return fr
	}
	fr.Records = len(raws)
	fr.BelowMinimum = fr.Records < e.MinRecords

	if e.Kind == KindSwatch {
		fr.Result = schema.Validate(e.Label, raws, schema.SwatchSchema)
		a.checkDuplicates(&fr, raws)
		return fr
	}

	formulas, res := catalog.Decode(catalog.Partition{Key: e.Label, File: e.File, Source: e.Source()}, raws)
	fr.Result = res
	tol := e.SumTolerance()
	for _, f := range formulas {
		if len(f.Components) > 0 && !f.WithinTolerance(tol) {
			fr.OutOfRange++
			if len(fr.Examples) < MaxExamples {
				fr.Examples = append(fr.Examples, SumExample{ID: f.Code, Sum: colorutils.Round2(f.PercentageSum())})
			}
		}
		if e.Kind == KindSpreadsheet && a.Junk.IsJunk(f) {
			fr.Junk++
		}
	}
	return fr
}

func (a *Auditor) checkDuplicates(fr *FileReport, raws []json.RawMessage) {
	seen := make(map[string]bool, len(raws))
	for _, raw := range raws {
		var s struct {
			Code   any `json:"pms"`
			Series any `json:"series"`
		}
		if json.Unmarshal(raw, &s) != nil {
			continue
		}
		key := fmt.Sprintf("%v-%v", s.Code, s.Series)
		if !seen[key] {
			seen[key] = true
			continue
		}
		fr.DuplicateN++
		if len(fr.Duplicates) < MaxExamples {
			fr.Duplicates = append(fr.Duplicates, key)
		}
	}
}

// Print writes the human-readable report.
func (r Report) Print(w io.Writer) {
	fmt.Fprintf(w, "\n=== Data Validation Report (run %s) ===\n", r.RunID)
	for _, f := range r.Files {
		fmt.Fprintf(w, "\n%s (%s):\n", f.Entry.Label, f.Entry.File)
		switch {
		case f.Skipped:
			fmt.Fprintf(w, "  SKIP: %s not found\n", f.Entry.File)
			continue
		case f.Err != nil:
			fmt.Fprintf(w, "  [FAIL] %s: %v\n", f.Entry.Label, f.Err)
			continue
		}

		status := "PASS"
		if f.Result.Invalid > 0 {
			status = "FAIL"
		}
		fmt.Fprintf(w, "  [%s] %s: %d/%d valid\n", status, f.Entry.Label, f.Result.Valid, f.Result.Total)
		for _, e := range f.Result.Errors {
			fmt.Fprintf(w, "    record %s: %s\n", e.ID, strings.Join(e.Issues, "; "))
		}
		if more := f.Result.Invalid - len(f.Result.Errors); more > 0 {
			fmt.Fprintf(w, "    ... and %d more errors\n", more)
		}
		if f.BelowMinimum {
			fmt.Fprintf(w, "  WARN: %s has only %d records (expected >= %d)\n", f.Entry.Label, f.Records, f.Entry.MinRecords)
		}
		if f.OutOfRange > 0 {
			fmt.Fprintf(w, "  WARN: %s: %d records with percentage sum outside 100 ± %s%%\n",
				f.Entry.Label, f.OutOfRange, formatFloat(f.Entry.SumTolerance()))
			for _, ex := range f.Examples {
				fmt.Fprintf(w, "    %s: sum = %s%%\n", ex.ID, formatFloat(ex.Sum))
			}
		}
		for _, d := range f.Duplicates {
			fmt.Fprintf(w, "  WARN: duplicate swatch %s\n", d)
		}
		if f.DuplicateN > 0 {
			fmt.Fprintf(w, "  WARN: %d total duplicate PMS+series entries\n", f.DuplicateN)
		}
		if f.Junk > 0 {
			fmt.Fprintf(w, "  INFO: %d junk records filtered at runtime (COPY/TEST/bad sums)\n", f.Junk)
		}
	}

	fmt.Fprintln(w, "\n--- Summary ---")
	if r.SchemaFailed() {
		fmt.Fprintln(w, "Schema validation FAILED, see errors above.")
	} else {
		fmt.Fprintln(w, "All schema checks passed.")
	}
	if n := r.Warnings(); n > 0 {
		fmt.Fprintf(w, "%d warning(s), review above.\n", n)
	}
}

func formatFloat(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%g", v)
}
