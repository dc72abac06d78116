// Package catalog serves the locally ingested formula files, one partition
// (spreadsheet series or scraped family) per file.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/text/cases"

	"github.com/b-clawson/pms-finder/blob"
	"github.com/b-clawson/pms-finder/errs"
	"github.com/b-clawson/pms-finder/metrics"
	"github.com/b-clawson/pms-finder/schema"
)

// Partition names a local file and the record family it holds.
type Partition struct {
	Key    string        `yaml:"key" json:"key"`
	File   string        `yaml:"file" json:"file"`
	Source schema.Source `yaml:"source" json:"source"`
}

// DefaultScrapedFamily is the family served when a caller names none.
const DefaultScrapedFamily = "7500 Coated"

// DefaultPartitions lists the files produced by the ingestion pipelines.
func DefaultPartitions() []Partition {
	return []Partition{
		{Key: "301 RC Neo", File: "matsui_301_rc_neo.json", Source: schema.SourceSpreadsheet},
		{Key: "Alpha Discharge", File: "matsui_alpha_discharge.json", Source: schema.SourceSpreadsheet},
		{Key: "Brite Discharge", File: "matsui_brite_discharge.json", Source: schema.SourceSpreadsheet},
		{Key: "HM Discharge", File: "matsui_hm_discharge.json", Source: schema.SourceSpreadsheet},
		{Key: "OW Stretch", File: "matsui_ow_stretch.json", Source: schema.SourceSpreadsheet},
		{Key: DefaultScrapedFamily, File: "icc_7500_coated.json", Source: schema.SourceScraped},
	}
}

// JunkRules identify records that are not usable formulas.
type JunkRules struct {
	CopyPrefix    string
	TestSentinel  string
	MaxPercentSum float64
}

// DefaultJunkRules are tuned against the spreadsheet exports.
func DefaultJunkRules() JunkRules {
	return JunkRules{CopyPrefix: "COPY:", TestSentinel: "TEST", MaxPercentSum: 110}
}

// IsJunk reports whether f is a copy, a test entry, or has an impossible
// percentage sum.
func (r JunkRules) IsJunk(f schema.Formula) bool {
	code := strings.TrimSpace(f.Code)
	if r.CopyPrefix != "" && strings.HasPrefix(strings.ToUpper(code), strings.ToUpper(r.CopyPrefix)) {
		return true
	}
	if r.TestSentinel != "" && strings.EqualFold(code, r.TestSentinel) {
		return true
	}
	return r.MaxPercentSum > 0 && f.PercentageSum() > r.MaxPercentSum
}

// Option configures a Store.
type Option func(*Store)

// WithJunkRules replaces the default junk rules.
func WithJunkRules(r JunkRules) Option {
	return func(s *Store) { s.junk = r }
}

// WithMetrics records partition loads.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// Store caches each partition's filtered records for the process lifetime.
type Store struct {
	blob       blob.Store
	partitions map[string]Partition
	junk       JunkRules
	metrics    *metrics.Metrics

	mu    sync.RWMutex
	cache map[string][]schema.Formula
	group singleflight.Group
}

// New builds a Store reading partition files from b.
func New(b blob.Store, partitions []Partition, opts ...Option) *Store {
	s := &Store{
		blob:       b,
		partitions: make(map[string]Partition, len(partitions)),
		junk:       DefaultJunkRules(),
		cache:      make(map[string][]schema.Formula),
	}
	for _, p := range partitions {
		s.partitions[p.Key] = p
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Partitions returns the registered partition keys, sorted.
func (s *Store) Partitions() []string {
	keys := make([]string, 0, len(s.partitions))
	for k := range s.partitions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Has reports whether key is a registered partition. The file may still be
// missing.
func (s *Store) Has(key string) bool {
	_, ok := s.partitions[key]
	return ok
}

// SourceOf returns the record family of a registered partition.
func (s *Store) SourceOf(key string) (schema.Source, bool) {
	p, ok := s.partitions[key]
	return p.Source, ok
}

// PartitionsOf returns the registered partitions holding source records.
func (s *Store) PartitionsOf(source schema.Source) []string {
	var keys []string
	for _, k := range s.Partitions() {
		if s.partitions[k].Source == source {
			keys = append(keys, k)
		}
	}
	return keys
}

// Load returns the partition's usable records. An unknown partition or a
// missing file yields errs.PartitionNotFound; an unreadable file is a plain
// error.
func (s *Store) Load(ctx context.Context, key string) ([]schema.Formula, error) {
	s.mu.RLock()
	cached, ok := s.cache[key]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	p, ok := s.partitions[key]
	if !ok {
		return nil, errs.Newf(errs.PartitionNotFound, "catalog.Load", "no local data for %q", key)
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		formulas, err := s.read(ctx, p)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.cache[key] = formulas
		s.mu.Unlock()
		return formulas, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]schema.Formula), nil
}

func (s *Store) read(ctx context.Context, p Partition) ([]schema.Formula, error) {
	st := time.Now()
	b, err := blob.ReadAll(ctx, s.blob, p.File)
	if errors.Is(err, blob.ErrNotFound) {
		s.metrics.ObserveCatalogLoad(p.Key, "missing")
		return nil, errs.New(errs.PartitionNotFound, "catalog.Load", fmt.Sprintf("no local data for %q", p.Key), err)
	}
	if err != nil {
		s.metrics.ObserveCatalogLoad(p.Key, "error")
		return nil, fmt.Errorf("cannot read %s: %w", p.File, err)
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(b, &raws); err != nil {
		s.metrics.ObserveCatalogLoad(p.Key, "error")
		return nil, fmt.Errorf("cannot parse %s: %w", p.File, err)
	}

	formulas, res := Decode(p, raws)
	res.Log(5)

	kept := make([]schema.Formula, 0, len(formulas))
	for _, f := range formulas {
		if !s.junk.IsJunk(f) {
			kept = append(kept, f)
		}
	}
	s.metrics.ObserveCatalogLoad(p.Key, "loaded")
	log.Printf("[*] Loaded %d %s formulas for %s (%d junk dropped), at %s",
		len(kept), p.Source, p.Key, len(formulas)-len(kept), time.Since(st))
	return kept, nil
}

// Decode validates raw records of p's family and adapts them to the
// canonical shape. Records that fail validation are kept; records that are
// not JSON objects are dropped.
func Decode(p Partition, raws []json.RawMessage) ([]schema.Formula, schema.Result) {
	out := make([]schema.Formula, 0, len(raws))
	switch p.Source {
	case schema.SourceScraped:
		res := schema.Validate(p.Key, raws, schema.ScrapedFormulaSchema)
		for _, raw := range raws {
			var f schema.ScrapedFormula
			if decodeLoose(raw, &f) {
				out = append(out, f.Canonical())
			}
		}
		return out, res
	case schema.SourceSpreadsheet:
		res := schema.Validate(p.Key, raws, schema.SpreadsheetFormulaSchema)
		for _, raw := range raws {
			var f schema.SpreadsheetFormula
			if decodeLoose(raw, &f) {
				out = append(out, f.Canonical(schema.SourceSpreadsheet))
			}
		}
		return out, res
	default:
		res := schema.Validate(p.Key, raws, schema.FormulaSchema)
		for _, raw := range raws {
			var f schema.Formula
			if decodeLoose(raw, &f) {
				out = append(out, f)
			}
		}
		return out, res
	}
}

// decodeLoose keeps a record whose fields partly mismatch their types.
func decodeLoose(raw json.RawMessage, v any) bool {
	err := json.Unmarshal(raw, v)
	var typeErr *json.UnmarshalTypeError
	return err == nil || errors.As(err, &typeErr)
}

// Search filters a partition by a case-insensitive substring of code or
// description. An empty query returns the whole partition.
func (s *Store) Search(ctx context.Context, key, query string) ([]schema.Formula, error) {
	formulas, err := s.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	return Filter(formulas, query), nil
}

// Filter is the search predicate of Search.
func Filter(formulas []schema.Formula, query string) []schema.Formula {
	fold := cases.Fold()
	q := fold.String(strings.TrimSpace(query))
	if q == "" {
		return formulas
	}
	out := make([]schema.Formula, 0)
	for _, f := range formulas {
		if strings.Contains(fold.String(f.Code), q) || strings.Contains(fold.String(f.Description), q) {
			out = append(out, f)
		}
	}
	return out
}

// Find returns the record with the given code, compared case-insensitively.
func (s *Store) Find(ctx context.Context, key, code string) (schema.Formula, error) {
	formulas, err := s.Load(ctx, key)
	if err != nil {
		return schema.Formula{}, err
	}
	for _, f := range formulas {
		if strings.EqualFold(strings.TrimSpace(f.Code), strings.TrimSpace(code)) {
			return f, nil
		}
	}
	return schema.Formula{}, errs.Newf(errs.FormulaNotFound, "catalog.Find", "no formula %q in %q", code, key)
}
