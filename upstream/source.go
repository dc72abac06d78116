package upstream

import (
	"context"
	"strings"

	"github.com/b-clawson/pms-finder/colorutils"
	"github.com/b-clawson/pms-finder/errs"
	"github.com/b-clawson/pms-finder/schema"
)

// Source is one vendor adapted to the canonical formula shape.
type Source interface {
	Name() string
	// Owns reports whether the vendor serves the partition.
	Owns(partition string) bool
	// Formulas lists the partition's formulas.
	Formulas(ctx context.Context, partition string) ([]schema.Formula, error)
	// Detail fetches one formula, bypassing every cache.
	Detail(ctx context.Context, code, partition string) (schema.Formula, error)
}

// Router picks the first source owning a partition.
type Router []Source

// Route returns the source for partition.
func (r Router) Route(partition string) (Source, error) {
	for _, s := range r {
		if s.Owns(partition) {
			return s, nil
		}
	}
	return nil, errs.Newf(errs.PartitionNotFound, "upstream.Route", "no vendor serves %q", partition)
}

// shares turns raw amounts into percentages of their total.
func shares(amounts []float64) []float64 {
	var total float64
	for _, a := range amounts {
		total += a
	}
	out := make([]float64, len(amounts))
	if total <= 0 {
		return out
	}
	for i, a := range amounts {
		out[i] = colorutils.Round2(a / total * 100)
	}
	return out
}

func hexPtr(s string) *string {
	if hex, ok := colorutils.NormalizeHex(s); ok {
		return &hex
	}
	return nil
}

func trimmed(s string) string { return strings.TrimSpace(s) }
