// Package pmsfinder is the composition root of the color finder: it owns
// every process-scoped cache and exposes the query and ingestion
// operations.
package pmsfinder

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/b-clawson/pms-finder/assets"
	"github.com/b-clawson/pms-finder/audit"
	"github.com/b-clawson/pms-finder/blob"
	"github.com/b-clawson/pms-finder/catalog"
	"github.com/b-clawson/pms-finder/colorutils"
	"github.com/b-clawson/pms-finder/ingest"
	"github.com/b-clawson/pms-finder/metrics"
	"github.com/b-clawson/pms-finder/swatch"
	"github.com/b-clawson/pms-finder/upstream"
)

type Config struct {
	DataDir    string
	BlobDriver blob.Driver
	S3Host     string
	S3Key      string
	S3Secret   string
	S3Bucket   string
	S3Region   string
	S3Prefix   string

	SwatchFile string

	MatsuiURL           string
	GreenGalaxyURL      string
	FnInkURL            string
	VendorTimeout       time.Duration
	VendorTTL           time.Duration
	MatsuiInsecure      bool
	GreenGalaxyInsecure bool
	FnInkInsecure       bool

	JunkThreshold float64
	DefaultLimit  int
	MaxLimit      int
	Workers       int
}

// DefaultConfig serves ./data with the production vendor endpoints.
func DefaultConfig() Config {
	return Config{
		DataDir:        "data",
		BlobDriver:     blob.DriverFilesystem,
		SwatchFile:     swatch.DefaultFile,
		MatsuiURL:      upstream.MatsuiBaseURL,
		GreenGalaxyURL: upstream.GreenGalaxyBaseURL,
		FnInkURL:       upstream.FnInkURL,
		VendorTimeout:  upstream.DefaultTimeout,
		VendorTTL:      upstream.DefaultTTL,
		JunkThreshold:  catalog.DefaultJunkRules().MaxPercentSum,
		DefaultLimit:   DefaultLimit,
		MaxLimit:       MaxLimit,
		Workers:        4,
	}
}

// BlobConfig is the store holding the canonical files.
func (c Config) BlobConfig() blob.Config {
	return blob.Config{
		Driver: c.BlobDriver,
		Root:   c.DataDir,
		S3: blob.S3Config{
			Host:      c.S3Host,
			Key:       c.S3Key,
			Secret:    c.S3Secret,
			Bucket:    c.S3Bucket,
			Region:    c.S3Region,
			Prefix:    c.S3Prefix,
			PathStyle: c.S3Host != "",
		},
	}
}

type options struct {
	store      blob.Store
	vendors    upstream.Router
	partitions []catalog.Partition
	registerer prometheus.Registerer
}

// Option overrides a collaborator built by New.
type Option func(*options)

// WithStore serves canonical files from s instead of the configured store.
func WithStore(s blob.Store) Option {
	return func(o *options) { o.store = s }
}

// WithVendors replaces the vendor adapters.
func WithVendors(r upstream.Router) Option {
	return func(o *options) { o.vendors = r }
}

// WithPartitions replaces the local partition registry.
func WithPartitions(p []catalog.Partition) Option {
	return func(o *options) { o.partitions = p }
}

// WithRegisterer registers the service metrics with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// Service answers closest-match queries over the local catalog, the vendor
// APIs and the reference swatches.
type Service struct {
	config   Config
	store    blob.Store
	swatches *swatch.Library
	catalog  *catalog.Store
	vendors  upstream.Router
	metrics  *metrics.Metrics

	partitions []catalog.Partition
	junk       catalog.JunkRules
}

// New wires a Service. Nothing is read until the first query.
func New(ctx context.Context, c Config, opts ...Option) (*Service, error) {
	o := options{partitions: catalog.DefaultPartitions()}
	for _, opt := range opts {
		opt(&o)
	}

	store := o.store
	if store == nil {
		var err error
		if store, err = blob.Open(ctx, c.BlobConfig()); err != nil {
			return nil, fmt.Errorf("cannot open %s store: %w", c.BlobDriver, err)
		}
	}

	m := metrics.New(o.registerer)

	junk := catalog.DefaultJunkRules()
	if c.JunkThreshold > 0 {
		junk.MaxPercentSum = c.JunkThreshold
	}

	vendors := o.vendors
	if vendors == nil {
		vendors = upstream.Router{
			upstream.NewGreenGalaxy(upstream.NewClient(c.vendor("greengalaxy", c.GreenGalaxyURL, c.GreenGalaxyInsecure, m))),
			upstream.NewFnInk(upstream.NewClient(c.vendor("fnink", c.FnInkURL, c.FnInkInsecure, m))),
			upstream.NewMatsui(upstream.NewClient(c.vendor("matsui", c.MatsuiURL, c.MatsuiInsecure, m))),
		}
	}

	return &Service{
		config:   c,
		store:    store,
		swatches: swatch.NewLibrary(store, c.SwatchFile),
		catalog:  catalog.New(store, o.partitions, catalog.WithJunkRules(junk), catalog.WithMetrics(m)),
		vendors:  vendors,
		metrics:  m,

		partitions: o.partitions,
		junk:       junk,
	}, nil
}

func (c Config) vendor(name, baseURL string, insecure bool, m *metrics.Metrics) upstream.Config {
	return upstream.Config{
		Name:     name,
		BaseURL:  baseURL,
		Timeout:  c.VendorTimeout,
		TTL:      c.VendorTTL,
		Insecure: insecure,
		Metrics:  m,
	}
}

// Store is the blob store holding the canonical files.
func (s *Service) Store() blob.Store { return s.store }

// RunIngestion runs the configured pipelines in order: spreadsheet, scrape,
// patch. A failing pipeline is logged and counted; the remaining ones still
// run and the failures are returned joined.
func (s *Service) RunIngestion(ctx context.Context, sc ingest.SourceConfig) (IngestionReport, error) {
	st := time.Now()
	rep := IngestionReport{RunID: uuid.NewString()}
	log.Printf("[>] Ingestion %v, run %s", sc.Pipelines, rep.RunID)
	defer func() {
		log.Printf("[<] Ingestion run %s: %d converted, %d skipped, %d errors, at %s",
			rep.RunID, rep.Converted, rep.Skipped, rep.Errors, time.Since(st))
	}()

	idx, err := s.swatches.Index(ctx)
	if err != nil {
		return rep, fmt.Errorf("cannot load reference swatches: %w", err)
	}
	resolver := colorutils.NewResolver(assets.Specialty, idx)

	var failures []error
	if sc.Has(ingest.PipelineSpreadsheet) {
		sp := &ingest.Spreadsheet{
			Store:        s.store,
			Swatches:     idx,
			ComponentHex: assets.ComponentHex,
			BaseCodes:    assets.BaseCodes,
			Workers:      sc.Workers,
		}
		r, results := sp.Run(ctx, sc.Series)
		rep.add(r)
		rep.Series = results
	}
	if sc.Has(ingest.PipelineScrape) {
		sr := &ingest.Scraper{Config: sc.Scrape, Store: s.store, Resolver: resolver}
		r, err := sr.Run(ctx)
		if err != nil {
			log.Printf("[!] Scrape failed: %v", err)
			failures = append(failures, fmt.Errorf("scrape: %w", err))
			r.Errors++
		}
		rep.add(r)
	}
	if sc.Has(ingest.PipelinePatch) {
		p := &ingest.Patcher{Store: s.store, Resolver: resolver}
		r, err := p.Run(ctx, sc.PatchFile)
		if err != nil {
			log.Printf("[!] Patch failed: %v", err)
			failures = append(failures, fmt.Errorf("patch: %w", err))
			r.Errors++
		} else {
			rep.Patch = &r
		}
		rep.add(r.Report)
	}
	rep.Duration = time.Since(st)
	return rep, errors.Join(failures...)
}

// Audit checks the canonical files named by m with the service's junk rules.
func (s *Service) Audit(ctx context.Context, m audit.Manifest) audit.Report {
	a := &audit.Auditor{Store: s.store, Junk: s.junk, Workers: max(1, s.config.Workers)}
	return a.Run(ctx, m)
}
