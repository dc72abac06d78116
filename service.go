package pmsfinder

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/b-clawson/pms-finder/catalog"
	"github.com/b-clawson/pms-finder/colorutils"
	"github.com/b-clawson/pms-finder/errs"
	"github.com/b-clawson/pms-finder/match"
	"github.com/b-clawson/pms-finder/schema"
	"github.com/b-clawson/pms-finder/swatch"
	"github.com/b-clawson/pms-finder/upstream"
)

// FindClosest ranks the partition's formulas against targetHex. Local
// partitions are served from the catalog; a partition with no local file is
// fetched from the vendor owning it, except scraped families, which only
// exist locally. limit is clamped to 1..MaxLimit.
func (s *Service) FindClosest(ctx context.Context, targetHex, partition string, limit int) (Closest, error) {
	st := time.Now()
	hex, ok := colorutils.NormalizeHex(targetHex)
	if !ok {
		return Closest{}, invalidHex("FindClosest", targetHex)
	}
	if partition == "" {
		partition = catalog.DefaultScrapedFamily
	}

	res := Closest{Target: hex, Partition: partition, Source: SourceLocal}
	pool, err := s.catalog.Load(ctx, partition)
	if errors.Is(err, errs.PartitionNotFound) {
		src, rerr := s.vendorFor(partition, err)
		if rerr != nil {
			return Closest{}, rerr
		}
		res.Source = src.Name()
		pool, err = src.Formulas(ctx, partition)
	}
	if err != nil {
		return Closest{}, err
	}

	res.Matches, _ = match.RankHex(hex, pool, s.clamp(limit))
	s.metrics.ObserveMatch(res.Source)
	log.Printf("[*] %s in %s: %d of %d %s formulas, at %s",
		hex, partition, len(res.Matches), len(pool), res.Source, time.Since(st))
	return res, nil
}

// MatchSwatches ranks the reference swatches of series against targetHex.
func (s *Service) MatchSwatches(ctx context.Context, targetHex string, series swatch.Filter, limit int) (SwatchMatches, error) {
	hex, ok := colorutils.NormalizeHex(targetHex)
	if !ok {
		return SwatchMatches{}, invalidHex("MatchSwatches", targetHex)
	}
	if series == "" {
		series = swatch.FilterBoth
	}
	matches, mode, err := s.swatches.Match(ctx, hex, series, s.clamp(limit))
	if err != nil {
		return SwatchMatches{}, err
	}
	s.metrics.ObserveMatch("swatch")
	return SwatchMatches{Target: hex, Series: series, Mode: mode, Matches: matches}, nil
}

// ListSwatches returns the whole reference set.
func (s *Service) ListSwatches(ctx context.Context) (Swatches, error) {
	all, mode, err := s.swatches.All(ctx)
	if err != nil {
		return Swatches{}, err
	}
	return Swatches{Mode: mode, Swatches: all}, nil
}

// GetFormulaDetail returns one formula. Local partitions are read from the
// catalog; vendor partitions are fetched on every call.
func (s *Service) GetFormulaDetail(ctx context.Context, code, partition string) (Detail, error) {
	if code == "" {
		return Detail{}, errs.New(errs.InvalidInput, "GetFormulaDetail", "formula code required", nil)
	}
	if partition == "" {
		partition = catalog.DefaultScrapedFamily
	}

	f, err := s.catalog.Find(ctx, partition, code)
	if err == nil {
		return Detail{Source: SourceLocal, Formula: f}, nil
	}
	if !errors.Is(err, errs.PartitionNotFound) {
		return Detail{}, err
	}

	src, err := s.vendorFor(partition, err)
	if err != nil {
		return Detail{}, err
	}
	if f, err = src.Detail(ctx, code, partition); err != nil {
		return Detail{}, err
	}
	return Detail{Source: src.Name(), Formula: f}, nil
}

// Partitions lists the local partition keys.
func (s *Service) Partitions() []string {
	return s.catalog.Partitions()
}

// Formulas searches a local partition by code or description.
func (s *Service) Formulas(ctx context.Context, partition, query string) ([]schema.Formula, error) {
	return s.catalog.Search(ctx, partition, query)
}

// vendorFor picks the vendor serving a partition that has no local data.
// Scraped families exist only locally, so their cause is returned as is.
func (s *Service) vendorFor(partition string, cause error) (upstream.Source, error) {
	if src, ok := s.catalog.SourceOf(partition); ok && src == schema.SourceScraped {
		return nil, cause
	}
	v, err := s.vendors.Route(partition)
	if err != nil {
		return nil, cause
	}
	return v, nil
}

func (s *Service) clamp(limit int) int {
	hi := s.config.MaxLimit
	if hi <= 0 {
		hi = MaxLimit
	}
	return min(max(1, limit), hi)
}

func invalidHex(op, hex string) error {
	return errs.Newf(errs.InvalidInput, op, "invalid hex %q: expected #RRGGBB or RRGGBB", hex)
}
