// Package swatch loads the reference swatch set and answers lookups and
// nearest-swatch queries against it.
package swatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/b-clawson/pms-finder/assets"
	"github.com/b-clawson/pms-finder/blob"
	"github.com/b-clawson/pms-finder/colorutils"
	"github.com/b-clawson/pms-finder/errs"
	"github.com/b-clawson/pms-finder/match"
	"github.com/b-clawson/pms-finder/schema"
)

// DefaultFile is the reference swatch file key.
const DefaultFile = "pantone_swatches.json"

// Mode tells whether the installed swatch file or the embedded stub set is
// being served.
type Mode string

const (
	ModeLive Mode = "live"
	ModeStub Mode = "stub"
)

// Filter selects swatches by coating.
type Filter string

const (
	FilterCoated   Filter = "C"
	FilterUncoated Filter = "U"
	FilterBoth     Filter = "BOTH"
)

// ParseFilter accepts C, U or BOTH in any case. Empty means BOTH.
func ParseFilter(s string) (Filter, error) {
	switch f := Filter(strings.ToUpper(strings.TrimSpace(s))); f {
	case "":
		return FilterBoth, nil
	case FilterCoated, FilterUncoated, FilterBoth:
		return f, nil
	default:
		return "", errs.Newf(errs.InvalidInput, "swatch", "invalid series %q: expected one of C, U, BOTH", s)
	}
}

// Library lazily loads the reference set once per process.
type Library struct {
	store blob.Store
	key   string

	once     sync.Once
	swatches []schema.Swatch
	index    *Index
	mode     Mode
	err      error
}

// NewLibrary reads key from store on first use.
func NewLibrary(store blob.Store, key string) *Library {
	if key == "" {
		key = DefaultFile
	}
	return &Library{store: store, key: key}
}

func (l *Library) load(ctx context.Context) {
	st := time.Now()
	swatches, err := l.read(ctx)
	if err == nil {
		l.mode = ModeLive
		log.Printf("[*] Loaded %d swatches from %s, at %s", len(swatches), l.key, time.Since(st))
	} else {
		if !errors.Is(err, blob.ErrNotFound) {
			log.Printf("[!] Failed to load %s, falling back to stubs: %v", l.key, err)
		}
		swatches, err = Decode(assets.StubSwatches())
		if err != nil {
			l.err = err
			return
		}
		l.mode = ModeStub
		log.Printf("[!] Using %d stub swatches (no %s found)", len(swatches), l.key)
	}
	l.swatches = swatches
	l.index = NewIndex(swatches)
}

func (l *Library) read(ctx context.Context) ([]schema.Swatch, error) {
	b, err := blob.ReadAll(ctx, l.store, l.key)
	if err != nil {
		return nil, err
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(b, &raws); err != nil {
		return nil, fmt.Errorf("cannot parse %s: %w", l.key, err)
	}
	schema.Validate(l.key, raws, schema.SwatchSchema).Log(5)
	return Decode(b)
}

// Decode parses a swatch JSON array.
func Decode(b []byte) ([]schema.Swatch, error) {
	var swatches []schema.Swatch
	if err := json.Unmarshal(b, &swatches); err != nil {
		return nil, fmt.Errorf("cannot parse swatches: %w", err)
	}
	return swatches, nil
}

// All returns every swatch and the serving mode. The set is loaded once per
// process, so the first caller's cancellation does not stick to it.
func (l *Library) All(ctx context.Context) ([]schema.Swatch, Mode, error) {
	l.once.Do(func() { l.load(context.WithoutCancel(ctx)) })
	return l.swatches, l.mode, l.err
}

// Index returns the lookup index over the loaded swatches.
func (l *Library) Index(ctx context.Context) (*Index, error) {
	l.once.Do(func() { l.load(context.WithoutCancel(ctx)) })
	return l.index, l.err
}

// Match ranks swatches of the given coating against targetHex.
func (l *Library) Match(ctx context.Context, targetHex string, f Filter, limit int) ([]match.Scored[schema.Swatch], Mode, error) {
	swatches, mode, err := l.All(ctx)
	if err != nil {
		return nil, "", err
	}
	res, err := Match(targetHex, swatches, f, limit)
	return res, mode, err
}

// Match ranks swatches of the given coating against targetHex.
func Match(targetHex string, swatches []schema.Swatch, f Filter, limit int) ([]match.Scored[schema.Swatch], error) {
	target, ok := colorutils.HexToRGB(targetHex)
	if !ok {
		return nil, errs.Newf(errs.InvalidInput, "swatch.Match", "invalid hex %q: expected #RRGGBB or RRGGBB", targetHex)
	}
	pool := swatches
	if f != FilterBoth && f != "" {
		pool = make([]schema.Swatch, 0, len(swatches))
		for _, s := range swatches {
			if string(s.Series) == string(f) {
				pool = append(pool, s)
			}
		}
	}
	return match.Rank(target, pool, limit), nil
}

var namePrefixRe = regexp.MustCompile(`^(PMS|PANTONE)\s*`)

// Index maps swatch names to hex. It satisfies colorutils.Lookup.
type Index struct {
	byName map[string]string
	byCode map[string]string
}

// NewIndex indexes each swatch under its uppercase name (or code when the
// name is empty), the name without a PMS/PANTONE prefix, and its lowercase
// code.
func NewIndex(swatches []schema.Swatch) *Index {
	idx := &Index{byName: make(map[string]string), byCode: make(map[string]string)}
	for _, s := range swatches {
		if s.Hex == "" {
			continue
		}
		key := s.Name
		if key == "" {
			key = s.Code
		}
		key = strings.ToUpper(strings.TrimSpace(key))
		if key != "" {
			idx.byName[key] = s.Hex
		}
		if short := namePrefixRe.ReplaceAllString(key, ""); short != "" {
			idx.byName[short] = s.Hex
		}
		if code := strings.ToLower(strings.TrimSpace(s.Code)); code != "" {
			idx.byCode[code] = s.Hex
		}
	}
	return idx
}

// Lookup finds a swatch hex by name. name is matched uppercase.
func (i *Index) Lookup(name string) (string, bool) {
	hex, ok := i.byName[strings.ToUpper(name)]
	return hex, ok
}

// LookupCode finds a swatch hex by its code, case-insensitively.
func (i *Index) LookupCode(code string) (string, bool) {
	hex, ok := i.byCode[strings.ToLower(strings.TrimSpace(code))]
	return hex, ok
}

// Len is the number of name keys.
func (i *Index) Len() int {
	return len(i.byName)
}
