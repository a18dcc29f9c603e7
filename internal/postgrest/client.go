// Package postgrest is a small client for Supabase-style PostgREST endpoints.
//
// It covers the calls cardsync makes: ranged selects for paging, and inserts
// with upsert preferences. Table names may carry a schema prefix
// ("storage.objects"), which is sent through the profile headers.
package postgrest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// HTTPDoer abstracts http.Client for testing.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// StatusError reports a non-success response.
type StatusError struct {
	Method string
	Table  string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("postgrest %s %s returned %d", e.Method, e.Table, e.Status)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// IsConflict reports whether err is a 409 response.
func IsConflict(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.Status == http.StatusConflict
}

// Client talks to one PostgREST base URL.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient HTTPDoer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client HTTPDoer) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates a client. baseURL is the REST root, e.g. https://x.supabase.co/rest/v1.
func New(baseURL, apiKey string, timeout time.Duration, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("postgrest base url required")
	}
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("postgrest api key required")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Select runs GET /table?query with an optional Range header and decodes the
// JSON array into out. limit <= 0 omits the Range header.
func (c *Client) Select(ctx context.Context, table string, query url.Values, offset, limit int, out any) error {
	schema, name := splitTable(table)
	endpoint := c.baseURL + "/" + url.PathEscape(name)
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	c.authorize(req)
	if schema != "" {
		req.Header.Set("Accept-Profile", schema)
	}
	if limit > 0 {
		req.Header.Set("Range-Unit", "items")
		req.Header.Set("Range", strconv.Itoa(offset)+"-"+strconv.Itoa(offset+limit-1))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("select %s: %w", table, err)
	}
	defer resp.Body.Close()

	// 206 Partial Content is the normal answer to a ranged request; 416 means
	// the offset is past the end.
	switch resp.StatusCode {
	case http.StatusOK, http.StatusPartialContent:
	case http.StatusRequestedRangeNotSatisfiable:
		return json.Unmarshal([]byte("[]"), out)
	default:
		return statusError(http.MethodGet, table, resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", table, err)
	}
	return nil
}

// Upsert POSTs row to table with resolution=merge-duplicates. 200, 201, and 204
// are success; any other status returns a *StatusError.
func (c *Client) Upsert(ctx context.Context, table string, row any) error {
	schema, name := splitTable(table)
	body, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("encode %s row: %w", table, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+url.PathEscape(name), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "resolution=merge-duplicates,return=minimal")
	if schema != "" {
		req.Header.Set("Content-Profile", schema)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", table, err)
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	default:
		return statusError(http.MethodPost, table, resp)
	}
}

// Ping checks the endpoint answers with the configured key.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	c.authorize(req)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return statusError(http.MethodGet, "/", resp)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
}

func splitTable(table string) (schema, name string) {
	if s, n, ok := strings.Cut(table, "."); ok {
		return s, n
	}
	return "", table
}

func statusError(method, table string, resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
	return &StatusError{Method: method, Table: table, Status: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
}

// InList renders ids as a PostgREST in.(...) filter value.
func InList(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return "in.(" + strings.Join(parts, ",") + ")"
}
