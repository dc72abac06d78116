package blob_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/b-clawson/pms-finder/blob"
	"github.com/stretchr/testify/require"
)

// mockS3 is a path-style S3 endpoint that keeps objects in memory. It handles
// GetObject, PutObject and ListObjectsV2.
type mockS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMockS3(t *testing.T, prefix string) blob.Store {
	t.Helper()
	rt := &mockS3{objects: make(map[string][]byte)}
	s, err := blob.NewS3(context.Background(), blob.S3Config{
		Host:       "https://mock.s3.local",
		Key:        "AKIA",
		Secret:     "SECRET",
		Bucket:     "pms",
		Prefix:     prefix,
		PathStyle:  true,
		HTTPClient: &http.Client{Transport: rt},
	})
	require.NoError(t, err)
	return s
}

func respond(status int, body string, header http.Header) *http.Response {
	if header == nil {
		header = http.Header{}
	}
	return &http.Response{
		StatusCode:    status,
		Body:          io.NopCloser(strings.NewReader(body)),
		Header:        header,
		ContentLength: int64(len(body)),
	}
}

func (m *mockS3) RoundTrip(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	parts := strings.SplitN(strings.TrimPrefix(req.URL.Path, "/"), "/", 2)
	key := ""
	if len(parts) == 2 {
		key = parts[1]
	}

	if req.Method == http.MethodGet && req.URL.Query().Get("list-type") == "2" {
		prefix := req.URL.Query().Get("prefix")
		var keys []string
		for k := range m.objects {
			if strings.HasPrefix(k, prefix) {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		var b strings.Builder
		b.WriteString(`<?xml version="1.0"?><ListBucketResult><IsTruncated>false</IsTruncated>`)
		for _, k := range keys {
			fmt.Fprintf(&b, "<Contents><Key>%s</Key><Size>%d</Size></Contents>", k, len(m.objects[k]))
		}
		b.WriteString("</ListBucketResult>")
		return respond(http.StatusOK, b.String(), http.Header{"Content-Type": {"application/xml"}}), nil
	}

	switch req.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(req.Body)
		m.objects[key] = bytes.Clone(body)
		return respond(http.StatusOK, "", http.Header{"Etag": {`"etag"`}}), nil
	case http.MethodGet:
		body, ok := m.objects[key]
		if !ok {
			return respond(http.StatusNotFound,
				`<?xml version="1.0"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`,
				http.Header{"Content-Type": {"application/xml"}}), nil
		}
		return respond(http.StatusOK, string(body), http.Header{"Content-Type": {"application/json"}}), nil
	}
	return respond(http.StatusNotImplemented, "", nil), nil
}
