// Package blob abstracts where canonical JSON files live: a local directory,
// an S3-compatible bucket or memory (tests).
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// Driver identifies a blob backend.
type Driver string

const (
	DriverFilesystem Driver = "fs"
	DriverS3         Driver = "s3"
	DriverMemory     Driver = "memory"
)

// ErrNotFound is returned by Get for a missing key.
var ErrNotFound = errors.New("blob not found")

// Store reads and writes whole objects by key. Put replaces existing objects.
type Store interface {
	Driver() Driver
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Put(ctx context.Context, key string, r io.Reader, contentType string) error
	List(ctx context.Context, prefix string) ([]string, error)
}

// Config selects and configures a Store.
type Config struct {
	Driver Driver
	Root   string
	S3     S3Config
}

// Open builds the configured Store. An empty driver means fs.
func Open(ctx context.Context, c Config) (Store, error) {
	switch c.Driver {
	case DriverFilesystem, "":
		return NewFilesystem(c.Root)
	case DriverS3:
		return NewS3(ctx, c.S3)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", c.Driver)
	}
}

// ReadAll fetches a whole object.
func ReadAll(ctx context.Context, s Store, key string) ([]byte, error) {
	rc, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
