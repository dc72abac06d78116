// Package upstream adapts the remote vendor APIs. Every adapter goes through
// Client, which bounds each call with a timeout and keeps idempotent reads in
// a TTL cache once they pass a shape check.
package upstream

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/b-clawson/pms-finder/errs"
	"github.com/b-clawson/pms-finder/metrics"
)

const (
	DefaultTimeout = 15 * time.Second
	DefaultTTL     = 10 * time.Minute

	maxBody = 32 << 20
)

// Config configures one vendor client.
type Config struct {
	Name     string
	BaseURL  string
	Timeout  time.Duration
	TTL      time.Duration
	Insecure bool

	HTTPClient *http.Client
	Metrics    *metrics.Metrics
}

// Client talks JSON to one vendor.
type Client struct {
	name    string
	baseURL string
	timeout time.Duration
	http    *http.Client
	cache   *cache.Cache
	metrics *metrics.Metrics
}

// NewClient builds a client with its own cache.
func NewClient(c Config) *Client {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.TTL <= 0 {
		c.TTL = DefaultTTL
	}
	hc := c.HTTPClient
	if hc == nil {
		tr := http.DefaultTransport.(*http.Transport).Clone()
		if c.Insecure {
			tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
		}
		hc = &http.Client{Transport: tr}
	}
	return &Client{
		name:    c.Name,
		baseURL: strings.TrimRight(c.BaseURL, "/"),
		timeout: c.Timeout,
		http:    hc,
		cache:   cache.New(c.TTL, 2*c.TTL),
		metrics: c.Metrics,
	}
}

// Name is the vendor name used in logs, metrics and errors.
func (c *Client) Name() string { return c.name }

type call struct {
	cacheKey string
	check    ShapeCheck
}

// CallOption tunes a single request.
type CallOption func(*call)

// Cached stores the response under key when it passes check.
func Cached(key string, check ShapeCheck) CallOption {
	return func(c *call) {
		c.cacheKey = key
		c.check = check
	}
}

// Get fetches path. GET responses are cached under "GET:<path>" when check
// is non-nil.
func (c *Client) Get(ctx context.Context, path string, check ShapeCheck) (json.RawMessage, error) {
	var opts []CallOption
	if check != nil {
		opts = append(opts, Cached("GET:"+path, check))
	}
	return c.do(ctx, http.MethodGet, path, nil, opts...)
}

// Post sends body as JSON. Responses are not cached unless opts say so.
func (c *Client) Post(ctx context.Context, path string, body any, opts ...CallOption) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, path, body, opts...)
}

func (c *Client) do(ctx context.Context, method, path string, body any, opts ...CallOption) (json.RawMessage, error) {
	var cl call
	for _, o := range opts {
		o(&cl)
	}
	op := fmt.Sprintf("%s %s %s", c.name, method, path)

	if cl.cacheKey != "" {
		if v, ok := c.cache.Get(cl.cacheKey); ok {
			c.metrics.ObserveCache(c.name, metrics.CacheHit)
			return v.(json.RawMessage), nil
		}
		c.metrics.ObserveCache(c.name, metrics.CacheMiss)
	}

	st := time.Now()
	data, err := c.roundTrip(ctx, method, path, body, op)
	outcome := "ok"
	switch {
	case errors.Is(err, errs.UpstreamTimeout):
		outcome = "timeout"
	case err != nil:
		outcome = "error"
	}
	c.metrics.ObserveUpstream(c.name, method, outcome, time.Since(st))
	if err != nil {
		return nil, err
	}

	if cl.cacheKey != "" {
		if err := cl.check(data); err != nil {
			c.metrics.ObserveCache(c.name, metrics.CacheSkip)
			log.Printf("[!] %s: skipping cache for %s: %v", c.name, cl.cacheKey, err)
		} else {
			c.cache.SetDefault(cl.cacheKey, data)
		}
	}
	return data, nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body any, op string) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s: cannot encode request: %w", op, err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+strings.TrimLeft(path, "/"), rd)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.transportError(op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, c.transportError(op, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, errs.Newf(errs.UpstreamUnavailable, op, "%s API returned %s", c.name, resp.Status)
	}
	if !json.Valid(data) {
		return nil, errs.Newf(errs.UpstreamUnavailable, op, "invalid JSON from %s API", c.name)
	}
	return data, nil
}

func (c *Client) transportError(op string, err error) error {
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return errs.New(errs.UpstreamTimeout, op, fmt.Sprintf("%s API timeout after %s", c.name, c.timeout), err)
	}
	return errs.New(errs.UpstreamUnavailable, op, fmt.Sprintf("%s API unreachable", c.name), err)
}
