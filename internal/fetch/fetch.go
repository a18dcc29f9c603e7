// Package fetch downloads source image bytes over HTTP.
//
// There is no retry: a failed fetch fails the item, and re-running the
// pipeline picks it up again because nothing was persisted.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds one fetch.
const DefaultTimeout = 30 * time.Second

// ErrTooLarge reports a body above the configured cap.
var ErrTooLarge = errors.New("response exceeds size limit")

// HTTPDoer abstracts http.Client for testing.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// StatusError reports a non-2xx response.
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s returned %d", e.URL, e.Status)
}

// Source fetches bytes by URL.
type Source interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// HTTPSource is a Source over a shared HTTP client. It is safe for concurrent use.
type HTTPSource struct {
	client    HTTPDoer
	timeout   time.Duration
	maxBytes  int64
	userAgent string
}

// Option configures an HTTPSource.
type Option func(*HTTPSource)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client HTTPDoer) Option {
	return func(s *HTTPSource) {
		if client != nil {
			s.client = client
		}
	}
}

// WithMaxBytes caps the response body size. Zero disables the cap.
func WithMaxBytes(n int64) Option {
	return func(s *HTTPSource) { s.maxBytes = n }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(s *HTTPSource) { s.userAgent = strings.TrimSpace(ua) }
}

// NewHTTPSource constructs an HTTPSource. timeout <= 0 selects DefaultTimeout.
func NewHTTPSource(timeout time.Duration, opts ...Option) *HTTPSource {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	src := &HTTPSource{
		timeout: timeout,
		client: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConnsPerHost: 16,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(src)
	}
	return src
}

// Get downloads url with the per-request timeout.
func (s *HTTPSource) Get(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s (latency=%v): %w", url, time.Since(start).Round(time.Millisecond), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{URL: url, Status: resp.StatusCode}
	}

	body := io.Reader(resp.Body)
	if s.maxBytes > 0 {
		if resp.ContentLength > s.maxBytes {
			return nil, fmt.Errorf("%w: content length %d > %d", ErrTooLarge, resp.ContentLength, s.maxBytes)
		}
		body = io.LimitReader(resp.Body, s.maxBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, s.maxBytes)
	}
	return data, nil
}
