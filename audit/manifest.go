package audit

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/b-clawson/pms-finder/schema"
)

// Kind is the record family of a manifest file.
type Kind string

const (
	KindScraped     Kind = "scraped"
	KindSpreadsheet Kind = "spreadsheet"
	KindSwatch      Kind = "swatch"
)

// Entry is one file the auditor must check.
type Entry struct {
	Label      string  `yaml:"label" validate:"required"`
	File       string  `yaml:"file" validate:"required"`
	Kind       Kind    `yaml:"kind" validate:"oneof=scraped spreadsheet swatch"`
	MinRecords int     `yaml:"min_records" validate:"gte=0"`
	Tolerance  float64 `yaml:"tolerance,omitempty" validate:"gte=0"`
}

// Source is the formula source of the entry's records.
func (e Entry) Source() schema.Source {
	if e.Kind == KindScraped {
		return schema.SourceScraped
	}
	return schema.SourceSpreadsheet
}

// SumTolerance is the allowed distance of a percentage sum from 100.
func (e Entry) SumTolerance() float64 {
	if e.Tolerance > 0 {
		return e.Tolerance
	}
	return e.Source().Tolerance()
}

// Manifest lists the canonical files and their expected sizes.
type Manifest struct {
	Version string  `yaml:"version"`
	Files   []Entry `yaml:"files" validate:"min=1,dive"`
}

//go:embed manifest.yaml
var defaultManifest []byte

// DefaultManifest covers every file the ingestion pipelines produce.
func DefaultManifest() Manifest {
	m, err := ParseManifest(defaultManifest)
	if err != nil {
		panic(err)
	}
	return m
}

// ParseManifest decodes and validates a YAML manifest.
func ParseManifest(b []byte) (Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(b, &m); err != nil {
		return Manifest{}, fmt.Errorf("cannot parse manifest: %w", err)
	}
	if err := validator.New().Struct(m); err != nil {
		return Manifest{}, fmt.Errorf("invalid manifest: %w", err)
	}
	return m, nil
}

// ReadManifest loads path, or the default manifest when path is empty.
func ReadManifest(path string) (Manifest, error) {
	if path == "" {
		return DefaultManifest(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, err
	}
	return ParseManifest(b)
}
