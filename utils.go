package pmsfinder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/b-clawson/pms-finder/blob"
	"github.com/b-clawson/pms-finder/swatch"
	"github.com/b-clawson/pms-finder/upstream"
)

const (
	DefaultLimit = 10
	MaxLimit     = 50
)

// ParseLimit reads a result limit. Anything unparsable or below 1 gives
// DefaultLimit; values above MaxLimit are capped.
func ParseLimit(s string) int {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || f < 1 {
		return DefaultLimit
	}
	if f > MaxLimit {
		return MaxLimit
	}
	return int(f)
}

// ParseSeries reads a swatch coating filter: C, U or BOTH.
func ParseSeries(s string) (swatch.Filter, error) {
	return swatch.ParseFilter(s)
}

// ParseCategory reads a Green Galaxy category: UD or CD.
func ParseCategory(s string) (upstream.Category, error) {
	return upstream.ParseCategory(s)
}

// Publish copies the reference swatches and every partition file to dst
// and writes a manifest.json describing the copy. Missing files are
// skipped.
func (s *Service) Publish(ctx context.Context, dst blob.Store) (*Manifest, error) {
	st := time.Now()
	log.Printf("[>] Publish %s to %s", s.store.Driver(), dst.Driver())
	defer func() {
		log.Printf("[<] Publish to %s, at %s", dst.Driver(), time.Since(st))
	}()

	m := newManifest(string(s.store.Driver()), string(dst.Driver()))

	type file struct{ key, partition string }
	files := []file{{key: s.config.SwatchFile}}
	if files[0].key == "" {
		files[0].key = swatch.DefaultFile
	}
	for _, p := range s.partitions {
		files = append(files, file{key: p.File, partition: p.Key})
	}

	for _, f := range files {
		b, err := blob.ReadAll(ctx, s.store, f.key)
		if errors.Is(err, blob.ErrNotFound) {
			log.Printf("[-] %s: not found, skipped", f.key)
			m.Missing = append(m.Missing, f.key)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("cannot read %s: %w", f.key, err)
		}
		if err := dst.Put(ctx, f.key, bytes.NewReader(b), "application/json"); err != nil {
			return nil, fmt.Errorf("cannot publish %s: %w", f.key, err)
		}
		m.add(f.key, f.partition, b)
		log.Printf("[*] Published %s (%d bytes)", f.key, len(b))
	}

	m.TimestampEnd = time.Now().Format("2006-01-02 15:04:05")
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := dst.Put(ctx, ManifestKey, bytes.NewReader(b), "application/json"); err != nil {
		return nil, fmt.Errorf("cannot publish %s: %w", ManifestKey, err)
	}
	return m, nil
}
