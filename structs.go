package pmsfinder

import (
	"time"

	"github.com/b-clawson/pms-finder/ingest"
	"github.com/b-clawson/pms-finder/match"
	"github.com/b-clawson/pms-finder/schema"
	"github.com/b-clawson/pms-finder/swatch"
)

// Pool sources reported in Closest.Source.
const (
	SourceLocal = "local"
)

type ScoredFormula = match.Scored[schema.Formula]
type ScoredSwatch = match.Scored[schema.Swatch]

// Closest is the answer to FindClosest.
type Closest struct {
	Target    string          `json:"target"`
	Partition string          `json:"partition"`
	Source    string          `json:"source"`
	Matches   []ScoredFormula `json:"matches"`
}

// SwatchMatches is the answer to MatchSwatches.
type SwatchMatches struct {
	Target  string         `json:"target"`
	Series  swatch.Filter  `json:"series"`
	Mode    swatch.Mode    `json:"mode"`
	Matches []ScoredSwatch `json:"matches"`
}

// Swatches is the answer to ListSwatches.
type Swatches struct {
	Mode     swatch.Mode     `json:"mode"`
	Swatches []schema.Swatch `json:"swatches"`
}

// Detail is the answer to GetFormulaDetail.
type Detail struct {
	Source  string         `json:"source"`
	Formula schema.Formula `json:"formula"`
}

// IngestionReport sums every pipeline of a RunIngestion call.
type IngestionReport struct {
	RunID     string          `json:"runId"`
	Converted int             `json:"converted"`
	Skipped   int             `json:"skipped"`
	Errors    int             `json:"errors"`
	Duration  time.Duration   `json:"duration"`
	Pipelines []ingest.Report `json:"pipelines"`

	Series []ingest.SeriesResult `json:"-"`
	Patch  *ingest.PatchResult   `json:"patch,omitempty"`
}

func (r *IngestionReport) add(o ingest.Report) {
	r.Converted += o.Converted
	r.Skipped += o.Skipped
	r.Errors += o.Errors
	r.Pipelines = append(r.Pipelines, o)
}
