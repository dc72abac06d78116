package ingest

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/time/rate"

	"github.com/b-clawson/pms-finder/blob"
	"github.com/b-clawson/pms-finder/colorutils"
	"github.com/b-clawson/pms-finder/schema"
)

// ScrapeConfig points the scraper at one formula family.
type ScrapeConfig struct {
	BaseURL    string        `koanf:"base_url" json:"base_url" validate:"required,url"`
	Family     int           `koanf:"family" json:"family" validate:"gt=0"`
	FamilyName string        `koanf:"family_name" json:"family_name" validate:"required"`
	Output     string        `koanf:"output" json:"output" validate:"required"`
	Delay      time.Duration `koanf:"delay" json:"delay" validate:"gte=0"`
	Checkpoint int           `koanf:"checkpoint" json:"checkpoint" validate:"gte=1"`
	Timeout    time.Duration `koanf:"timeout" json:"timeout" validate:"gte=0"`
	Insecure   bool          `koanf:"insecure" json:"insecure"`
}

// DefaultScrapeConfig targets the 7500 Coated family.
func DefaultScrapeConfig() ScrapeConfig {
	return ScrapeConfig{
		BaseURL:    "https://www.ultramixmanager.com",
		Family:     7,
		FamilyName: "7500 Coated",
		Output:     "icc_7500_coated.json",
		Delay:      100 * time.Millisecond,
		Checkpoint: 50,
		Timeout:    30 * time.Second,
		Insecure:   true,
	}
}

// Scraper downloads a family's formulas into a scraped-shape file. Runs
// resume from the ids already in the file.
type Scraper struct {
	Config     ScrapeConfig
	Store      blob.Store
	Resolver   *colorutils.Resolver
	HTTPClient *http.Client
}

// scrapeState is the resumable part of a run: ids still to fetch, ids
// already written, and the records that will be checkpointed.
type scrapeState struct {
	pending []int
	done    map[string]bool
	records []schema.ScrapedFormula

	fetched, skipped, errors int
}

func (st *scrapeState) progress(total int) string {
	return fmt.Sprintf("%d fetched, %d skipped, %d errors / %d total", st.fetched, st.skipped, st.errors, total)
}

// Run discovers, fetches and checkpoints. Per-page failures are counted,
// not returned.
func (s *Scraper) Run(ctx context.Context) (Report, error) {
	start := time.Now()
	rep := newReport("scrape")
	c := s.Config
	log.Printf("[>] Scrape family %d (%s) into %s, run %s", c.Family, c.FamilyName, c.Output, rep.RunID)

	unlock, err := lockOutput(s.Store, c.Output)
	if err != nil {
		return rep, err
	}
	defer unlock()

	state, err := s.resume(ctx)
	if err != nil {
		return rep, err
	}

	listing, err := s.fetch(ctx, s.pageURL(1))
	if err != nil {
		return rep, fmt.Errorf("cannot fetch listing: %w", err)
	}
	state.pending = DiscoverIDs(listing)
	if len(state.pending) == 0 {
		return rep, errors.New("no formula ids found, the page format may have changed")
	}
	total := len(state.pending)
	log.Printf("[*] Found %d formula ids", total)

	every := rate.Inf
	if c.Delay > 0 {
		every = rate.Every(c.Delay)
	}
	limiter := rate.NewLimiter(every, 1)
	checkpoint := max(1, c.Checkpoint)

	for len(state.pending) > 0 {
		id := state.pending[0]
		state.pending = state.pending[1:]
		key := strconv.Itoa(id)
		if state.done[key] {
			state.skipped++
			continue
		}
		if err := limiter.Wait(ctx); err != nil {
			return s.finish(ctx, rep, state, start, err)
		}

		html, err := s.fetch(ctx, s.pageURL(id))
		if err != nil {
			state.errors++
			log.Printf("[!] Error fetching formula %d: %v", id, err)
			continue
		}
		state.records = append(state.records, s.record(id, html))
		state.done[key] = true
		state.fetched++

		if (state.fetched+state.skipped)%checkpoint == 0 {
			log.Printf("[*] Progress: %s", state.progress(total))
			if err := writeJSON(ctx, s.Store, c.Output, state.records); err != nil {
				return s.finish(ctx, rep, state, start, err)
			}
		}
	}
	return s.finish(ctx, rep, state, start, nil)
}

func (s *Scraper) finish(ctx context.Context, rep Report, state *scrapeState, start time.Time, cause error) (Report, error) {
	rep.Converted, rep.Skipped, rep.Errors = state.fetched, state.skipped, state.errors
	rep.Duration = time.Since(start)
	if err := writeJSON(context.WithoutCancel(ctx), s.Store, s.Config.Output, state.records); err != nil {
		return rep, errors.Join(cause, err)
	}
	log.Printf("[<] Scrape: %d formulas saved to %s (%d fetched, %d skipped, %d errors), at %s",
		len(state.records), s.Config.Output, state.fetched, state.skipped, state.errors, rep.Duration)
	return rep, cause
}

// resume loads the records of a previous run. A missing file starts fresh;
// an unparsable one stops the run rather than being overwritten.
func (s *Scraper) resume(ctx context.Context) (*scrapeState, error) {
	state := &scrapeState{done: make(map[string]bool)}
	b, err := blob.ReadAll(ctx, s.Store, s.Config.Output)
	if errors.Is(err, blob.ErrNotFound) {
		return state, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(b, &state.records); err != nil {
		return nil, fmt.Errorf("cannot resume from %s: %w", s.Config.Output, err)
	}
	for _, f := range state.records {
		id := f.ID
		if id == "" {
			id = f.Code
		}
		state.done[id] = true
	}
	log.Printf("[*] Resuming: %d formulas already downloaded", len(state.records))
	return state, nil
}

func (s *Scraper) record(id int, html string) schema.ScrapedFormula {
	name, lines := ExtractPage(html, id)
	f := schema.ScrapedFormula{
		ID:     strconv.Itoa(id),
		Code:   name,
		Name:   name,
		Family: s.Config.FamilyName,
		Lines:  lines,
	}
	if lines == nil {
		f.Lines = []schema.ScrapedLine{}
	}
	if s.Resolver != nil {
		if hex, ok := s.Resolver.ResolveByName(name); ok {
			f.Hex = &hex
		}
	}
	return f
}

func (s *Scraper) pageURL(id int) string {
	return fmt.Sprintf("%s/families/%d/formulas/%d", strings.TrimRight(s.Config.BaseURL, "/"), s.Config.Family, id)
}

func (s *Scraper) client() *http.Client {
	if s.HTTPClient != nil {
		return s.HTTPClient
	}
	tr := http.DefaultTransport.(*http.Transport).Clone()
	if s.Config.Insecure {
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}
	s.HTTPClient = &http.Client{Transport: tr, Timeout: s.Config.Timeout}
	return s.HTTPClient
}

// fetch returns the page as UTF-8. Pages that are not valid UTF-8 are
// decoded as Windows-1252.
func (s *Scraper) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := s.client().Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("GET %s: %s", url, resp.Status)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		if b, err = charmap.Windows1252.NewDecoder().Bytes(b); err != nil {
			return "", err
		}
	}
	return string(b), nil
}
