// Package ingest builds the canonical partition files offline: the
// spreadsheet export converter, the mixing-system scraper and the
// null-color patcher.
package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/b-clawson/pms-finder/blob"
)

// Report counts the outcome of one pipeline run.
type Report struct {
	RunID     string        `json:"runId"`
	Pipeline  string        `json:"pipeline"`
	Converted int           `json:"converted"`
	Skipped   int           `json:"skipped"`
	Errors    int           `json:"errors"`
	Duration  time.Duration `json:"duration"`
}

func newReport(pipeline string) Report {
	return Report{RunID: uuid.NewString(), Pipeline: pipeline}
}

// Add folds o's counters into r.
func (r *Report) Add(o Report) {
	r.Converted += o.Converted
	r.Skipped += o.Skipped
	r.Errors += o.Errors
}

func (r Report) String() string {
	return fmt.Sprintf("%s run %s: %d converted, %d skipped, %d errors in %s",
		r.Pipeline, r.RunID, r.Converted, r.Skipped, r.Errors, r.Duration.Round(time.Millisecond))
}

// writeJSON replaces key with a pretty-printed document. Stores write the
// whole object at once, so readers never see a partial file.
func writeJSON(ctx context.Context, store blob.Store, key string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot encode %s: %w", key, err)
	}
	if err := store.Put(ctx, key, bytes.NewReader(b), "application/json"); err != nil {
		return fmt.Errorf("cannot write %s: %w", key, err)
	}
	return nil
}

type pather interface {
	Path(key string) (string, error)
}

// lockOutput takes an exclusive lock next to key so that two runs cannot
// interleave checkpoints. Stores without local files are not locked.
func lockOutput(store blob.Store, key string) (func(), error) {
	p, ok := store.(pather)
	if !ok {
		return func() {}, nil
	}
	path, err := p.Path(key)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), blob.DefaultFolderPerm); err != nil {
		return nil, err
	}
	fl := flock.New(path + ".lock")
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("cannot lock %s: %w", key, err)
	}
	if !locked {
		return nil, fmt.Errorf("%s is locked by another run", key)
	}
	return func() {
		if err := fl.Unlock(); err != nil {
			log.Printf("[!] Error unlocking %s: %v", key, err)
		}
		_ = os.Remove(path + ".lock")
	}, nil
}
