package main

import (
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"

	pmsfinder "github.com/b-clawson/pms-finder"
	"github.com/b-clawson/pms-finder/blob"
)

type Config struct {
	DataDir    string `envconfig:"DATA_DIR" default:"data" validate:"required"`
	BlobDriver string `envconfig:"BLOB_DRIVER" default:"fs" validate:"oneof=fs s3 memory"`
	S3Host     string `envconfig:"S3_HOST"`
	S3Key      string `envconfig:"S3_KEY"`
	S3Secret   string `envconfig:"S3_SECRET"`
	S3Bucket   string `envconfig:"S3_BUCKET" default:"pms-finder" validate:"required_if=BlobDriver s3"`
	S3Region   string `envconfig:"S3_REGION" default:"us-east-1"`
	S3Prefix   string `envconfig:"S3_PREFIX"`
	SwatchFile string `envconfig:"SWATCH_FILE" default:"pantone_swatches.json" validate:"required"`

	MatsuiURL           string        `envconfig:"MATSUI_URL" default:"https://api2.matsui-color.com" validate:"url"`
	GreenGalaxyURL      string        `envconfig:"GREEN_GALAXY_URL" default:"https://gg-fusion-dba9a0f2a2e0.herokuapp.com/api/v2" validate:"url"`
	FnInkURL            string        `envconfig:"FNINK_URL" default:"https://fnink-mixing-server.herokuapp.com" validate:"url"`
	VendorTimeout       time.Duration `envconfig:"VENDOR_TIMEOUT" default:"15s" validate:"gt=0"`
	VendorTTL           time.Duration `envconfig:"VENDOR_TTL" default:"10m" validate:"gt=0"`
	MatsuiInsecure      bool          `envconfig:"MATSUI_INSECURE" default:"false"`
	GreenGalaxyInsecure bool          `envconfig:"GREEN_GALAXY_INSECURE" default:"false"`
	FnInkInsecure       bool          `envconfig:"FNINK_INSECURE" default:"false"`

	JunkThreshold float64 `envconfig:"JUNK_THRESHOLD" default:"110" validate:"gt=100"`
	MaxLimit      int     `envconfig:"MAX_LIMIT" default:"50" validate:"gte=1"`
	MaxCpuCount   int     `envconfig:"MAX_CPU_COUNT" default:"4" validate:"gte=1"`
}

func (c Config) MakeConfig() pmsfinder.Config {
	return pmsfinder.Config{
		DataDir:             c.DataDir,
		BlobDriver:          blob.Driver(c.BlobDriver),
		S3Host:              c.S3Host,
		S3Key:               c.S3Key,
		S3Secret:            c.S3Secret,
		S3Bucket:            c.S3Bucket,
		S3Region:            c.S3Region,
		S3Prefix:            c.S3Prefix,
		SwatchFile:          c.SwatchFile,
		MatsuiURL:           c.MatsuiURL,
		GreenGalaxyURL:      c.GreenGalaxyURL,
		FnInkURL:            c.FnInkURL,
		VendorTimeout:       c.VendorTimeout,
		VendorTTL:           c.VendorTTL,
		MatsuiInsecure:      c.MatsuiInsecure,
		GreenGalaxyInsecure: c.GreenGalaxyInsecure,
		FnInkInsecure:       c.FnInkInsecure,
		JunkThreshold:       c.JunkThreshold,
		DefaultLimit:        pmsfinder.DefaultLimit,
		MaxLimit:            c.MaxLimit,
		Workers:             c.MaxCpuCount,
	}
}

func loadConfig() (Config, error) {
	var c Config
	if err := envconfig.Process("PMSFINDER", &c); err != nil {
		return c, err
	}
	if err := validator.New().Struct(c); err != nil {
		return c, err
	}
	return c, nil
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	Execute()
}
