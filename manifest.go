package pmsfinder

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
)

const ManifestKey = "manifest.json"

// PublishedFile is one canonical file copied by Publish.
type PublishedFile struct {
	Key       string `json:"key"`
	Partition string `json:"partition,omitempty"`
	Records   int    `json:"records"`
	Bytes     int    `json:"bytes"`
	SHA256    string `json:"sha256"`
}

// Manifest describes one Publish run. It is written next to the files.
type Manifest struct {
	Version        string           `json:"version"`
	ID             string           `json:"id"`
	TimestampStart string           `json:"timestamp_start"`
	TimestampEnd   string           `json:"timestamp_end"`
	Source         string           `json:"source"`
	Target         string           `json:"target"`
	Files          []*PublishedFile `json:"files"`
	Missing        []string         `json:"missing,omitempty"`
}

func newManifest(source, target string) *Manifest {
	return &Manifest{
		Version:        "1",
		ID:             uuid.NewString(),
		TimestampStart: time.Now().Format("2006-01-02 15:04:05"),
		Source:         source,
		Target:         target,
		Files:          make([]*PublishedFile, 0),
	}
}

// add records a copied file. Records is -1 when the file is not a JSON array.
func (m *Manifest) add(key, partition string, b []byte) {
	sum := sha256.Sum256(b)
	records := -1
	var raws []json.RawMessage
	if err := json.Unmarshal(b, &raws); err == nil {
		records = len(raws)
	} else {
		log.Printf("[!] %s is not a JSON array: %v", key, err)
	}
	m.Files = append(m.Files, &PublishedFile{
		Key:       key,
		Partition: partition,
		Records:   records,
		Bytes:     len(b),
		SHA256:    hex.EncodeToString(sum[:]),
	})
}

// GetFileByKey returns the published file or nil.
func (m *Manifest) GetFileByKey(key string) *PublishedFile {
	for _, f := range m.Files {
		if f.Key == key {
			return f
		}
	}
	return nil
}

// Records sums the records of every published file.
func (m *Manifest) Records() int {
	n := 0
	for _, f := range m.Files {
		if f.Records > 0 {
			n += f.Records
		}
	}
	return n
}
