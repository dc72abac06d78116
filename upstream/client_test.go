package upstream_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/b-clawson/pms-finder/errs"
	"github.com/b-clawson/pms-finder/metrics"
	"github.com/b-clawson/pms-finder/upstream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counted struct {
	hits atomic.Int32
	body string
	code int
}

func (c *counted) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	c.hits.Add(1)
	if c.code != 0 {
		w.WriteHeader(c.code)
	}
	_, _ = w.Write([]byte(c.body))
}

func newClient(t *testing.T, h http.Handler, m *metrics.Metrics) *upstream.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return upstream.NewClient(upstream.Config{Name: "matsui", BaseURL: srv.URL, Metrics: m})
}

func TestClientGetCache(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		body     string
		check    upstream.ShapeCheck
		wantHits int32
		result   string
	}{
		"well shaped response is cached": {
			body:     `[{"code": "A"}]`,
			check:    upstream.ArrayOf("code"),
			wantHits: 1,
			result:   metrics.CacheHit,
		},
		"malformed response is returned but not cached": {
			body:     `[{"name": "A"}]`,
			check:    upstream.ArrayOf("code"),
			wantHits: 2,
			result:   metrics.CacheSkip,
		},
		"no check means no cache": {
			body:     `{"code": "A"}`,
			wantHits: 2,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			h := &counted{body: tt.body}
			m := metrics.New(prometheus.NewRegistry())
			c := newClient(t, h, m)
			ctx := context.Background()

			for range 2 {
				data, err := c.Get(ctx, "components/GetPigments", tt.check)
				require.NoError(t, err)
				assert.JSONEq(t, tt.body, string(data))
			}
			assert.Equal(t, tt.wantHits, h.hits.Load())
			if tt.result != "" {
				assert.Positive(t, testutil.ToFloat64(m.UpstreamCache.WithLabelValues("matsui", tt.result)))
			}
			assert.Equal(t, 2.0, testutil.ToFloat64(m.UpstreamRequests.WithLabelValues("matsui", "GET", "ok"))+
				testutil.ToFloat64(m.UpstreamCache.WithLabelValues("matsui", metrics.CacheHit)))
		})
	}
}

func TestClientPostIsNotCached(t *testing.T) {
	t.Parallel()

	h := &counted{body: `[]`}
	c := newClient(t, h, nil)
	for range 3 {
		_, err := c.Post(context.Background(), "components/GetFormulas", map[string]string{"formulaSeries": "OW Stretch"})
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), h.hits.Load())
}

func TestClientErrors(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		handler http.Handler
		kind    errs.Kind
		message string
	}{
		"server error": {
			handler: &counted{code: http.StatusBadGateway, body: `{}`},
			kind:    errs.UpstreamUnavailable,
			message: "502",
		},
		"not JSON": {
			handler: &counted{body: `<html>maintenance</html>`},
			kind:    errs.UpstreamUnavailable,
			message: "invalid JSON from matsui API",
		},
		"too slow": {
			handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(2 * time.Second):
				}
			}),
			kind:    errs.UpstreamTimeout,
			message: "timeout",
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(tt.handler)
			t.Cleanup(srv.Close)
			c := upstream.NewClient(upstream.Config{Name: "matsui", BaseURL: srv.URL, Timeout: 50 * time.Millisecond})

			_, err := c.Get(context.Background(), "components/GetSeries", upstream.ObjectOrArray)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.kind))
			assert.True(t, errors.Is(err, errs.UpstreamUnavailable))
			assert.Contains(t, err.Error(), tt.message)
			assert.Equal(t, tt.kind == errs.UpstreamTimeout, errs.IsRetryable(err))
		})
	}
}

func TestClientUnreachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := upstream.NewClient(upstream.Config{Name: "fnink", BaseURL: url})
	_, err := c.Post(context.Background(), "api", map[string]string{"query": "{ colors { id } }"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.UpstreamUnavailable))
	assert.False(t, errs.IsRetryable(err))
}
