package ingest

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Pipeline names accepted in SourceConfig.Pipelines.
const (
	PipelineSpreadsheet = "spreadsheet"
	PipelineScrape      = "scrape"
	PipelinePatch       = "patch"
)

// EnvPrefix is the prefix of environment overrides, e.g.
// PMSFINDER_INGEST_SCRAPE__DELAY=250ms sets scrape.delay.
const EnvPrefix = "PMSFINDER_INGEST_"

// SourceConfig selects the pipelines of an ingestion run and their inputs.
type SourceConfig struct {
	Pipelines []string     `koanf:"pipelines" json:"pipelines" validate:"min=1,dive,oneof=spreadsheet scrape patch"`
	Series    []Series     `koanf:"series" json:"series" validate:"dive"`
	Scrape    ScrapeConfig `koanf:"scrape" json:"scrape"`
	PatchFile string       `koanf:"patch_file" json:"patch_file" validate:"required"`
	Workers   int          `koanf:"workers" json:"workers" validate:"gte=1"`
}

// Has reports whether the run includes pipeline.
func (c SourceConfig) Has(pipeline string) bool {
	for _, p := range c.Pipelines {
		if p == pipeline {
			return true
		}
	}
	return false
}

// DefaultSourceConfig runs the spreadsheet pipeline over the default series.
func DefaultSourceConfig() SourceConfig {
	return SourceConfig{
		Pipelines: []string{PipelineSpreadsheet},
		Series:    DefaultSeries(),
		Scrape:    DefaultScrapeConfig(),
		PatchFile: DefaultScrapeConfig().Output,
		Workers:   4,
	}
}

func defaults() map[string]any {
	d := DefaultSourceConfig()
	return map[string]any{
		"patch_file":         d.PatchFile,
		"workers":            d.Workers,
		"scrape.base_url":    d.Scrape.BaseURL,
		"scrape.family":      d.Scrape.Family,
		"scrape.family_name": d.Scrape.FamilyName,
		"scrape.output":      d.Scrape.Output,
		"scrape.delay":       d.Scrape.Delay.String(),
		"scrape.checkpoint":  d.Scrape.Checkpoint,
		"scrape.timeout":     d.Scrape.Timeout.String(),
		"scrape.insecure":    d.Scrape.Insecure,
	}
}

// LoadSourceConfig layers defaults, the JSON file at path (when path is
// set) and PMSFINDER_INGEST_ environment variables, then validates.
func LoadSourceConfig(path string) (SourceConfig, error) {
	k := koanf.New(".")
	for key, value := range defaults() {
		if err := k.Set(key, value); err != nil {
			return SourceConfig{}, err
		}
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return SourceConfig{}, fmt.Errorf("source config: %w", err)
		}
		if err := k.Load(file.Provider(path), json.Parser()); err != nil {
			return SourceConfig{}, fmt.Errorf("failed to load source config: %w", err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return SourceConfig{}, fmt.Errorf("failed to load environment: %w", err)
	}

	var cfg SourceConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return SourceConfig{}, fmt.Errorf("failed to unmarshal source config: %w", err)
	}
	if len(cfg.Pipelines) == 0 {
		cfg.Pipelines = DefaultSourceConfig().Pipelines
	}
	if len(cfg.Series) == 0 {
		cfg.Series = DefaultSeries()
	}
	if err := cfg.Validate(); err != nil {
		return SourceConfig{}, err
	}
	return cfg, nil
}

// Validate checks the struct tags of the whole config.
func (c SourceConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("source config validation failed: %w", err)
	}
	return nil
}

// envTransform maps PMSFINDER_INGEST_SCRAPE__BASE_URL to scrape.base_url.
func envTransform(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}
