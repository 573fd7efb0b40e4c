// Package remote is the HTTP client for the canonical activity service.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	repoerrors "winrec/internal/infrastructure/errors"
	"winrec/internal/infrastructure/logging"
	"winrec/internal/types"
)

const (
	DefaultBaseURL        = "http://127.0.0.1:8000"
	DefaultRequestTimeout = 5 * time.Second
	DefaultPullTimeout    = 30 * time.Second
	DefaultPageLimit      = 20000

	maxErrorBody = 512
)

// Config configures a Client
type Config struct {
	BaseURL        string
	APIKey         string
	RequestTimeout time.Duration // single record submissions and small reads
	PullTimeout    time.Duration // bulk GET /logs
}

// Client talks to the remote service. Every failure is returned as a
// *errors.RepositoryError in the remote layer.
type Client struct {
	baseURL        string
	apiKey         string
	requestTimeout time.Duration
	pullTimeout    time.Duration
	httpClient     *http.Client
	logger         logging.Logger
}

// NewClient creates a client for cfg.BaseURL
func NewClient(cfg Config, logger logging.Logger) (*Client, error) {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid remote base url %q", cfg.BaseURL)
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.PullTimeout <= 0 {
		cfg.PullTimeout = DefaultPullTimeout
	}

	return &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:         strings.TrimSpace(cfg.APIKey),
		requestTimeout: cfg.RequestTimeout,
		pullTimeout:    cfg.PullTimeout,
		httpClient:     &http.Client{},
		logger:         logging.With(logger, "component", "remote"),
	}, nil
}

// BaseURL returns the service root the client was built for
func (c *Client) BaseURL() string { return c.baseURL }

// HasCredential reports whether an API key is configured
func (c *Client) HasCredential() bool { return c.apiKey != "" }

type request struct {
	op       string
	method   string
	path     string
	query    url.Values
	body     interface{}
	auth     bool // fail before sending when no key is configured
	timeout  time.Duration
	response interface{}
}

func (c *Client) do(ctx context.Context, r request) error {
	if r.auth && !c.HasCredential() {
		return repoerrors.NewRemoteError(r.op, repoerrors.ErrMissingCredential, repoerrors.ErrCodeAuth, nil)
	}

	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		payload, err := json.Marshal(r.body)
		if err != nil {
			return repoerrors.NewRemoteError(r.op, fmt.Errorf("encode request: %w", err), repoerrors.ErrCodeValidation, nil)
		}
		body = bytes.NewReader(payload)
	}

	timeout := r.timeout
	if timeout <= 0 {
		timeout = c.requestTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return repoerrors.NewRemoteError(r.op, fmt.Errorf("create request: %w", err), repoerrors.ErrCodeInternal, nil)
	}
	req.Header.Set("Accept", "application/json")
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.HasCredential() {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return repoerrors.NewRemoteError(r.op, err, repoerrors.ClassifyNetworkError(err), map[string]string{
			"path": r.path,
		})
	}
	defer resp.Body.Close()

	c.logger.Debug("Remote request completed",
		"operation", r.op,
		"method", r.method,
		"path", r.path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return repoerrors.HTTPStatusError(r.op, resp.StatusCode, strings.TrimSpace(string(snippet))).
			WithContext("path", r.path)
	}

	if r.response == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(r.response); err != nil {
		code := repoerrors.ErrCodeInternal
		if ctx.Err() != nil {
			code = repoerrors.ErrCodeTimeout
		}
		return repoerrors.NewRemoteError(r.op, fmt.Errorf("decode response: %w", err), code, map[string]string{
			"path": r.path,
		})
	}
	return nil
}

// PostLog submits one record. It needs a credential.
func (c *Client) PostLog(ctx context.Context, sub types.LogSubmission) (types.RemoteRecord, error) {
	var stored types.RemoteRecord
	err := c.do(ctx, request{
		op:       "PostLog",
		method:   http.MethodPost,
		path:     "/log",
		body:     sub,
		auth:     true,
		response: &stored,
	})
	return stored, err
}

// ListLogs fetches stored records. A non-positive limit uses DefaultPageLimit.
func (c *Client) ListLogs(ctx context.Context, skip, limit int) ([]types.RemoteRecord, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	records := []types.RemoteRecord{}
	err := c.do(ctx, request{
		op:     "ListLogs",
		method: http.MethodGet,
		path:   "/logs",
		query: url.Values{
			"skip":  []string{strconv.Itoa(skip)},
			"limit": []string{strconv.Itoa(limit)},
		},
		timeout:  c.pullTimeout,
		response: &records,
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Ping performs the cheapest read the service offers
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.ListLogs(ctx, 0, 1)
	return err
}

// Days lists the day keys the service holds records for, newest first
func (c *Client) Days(ctx context.Context) ([]string, error) {
	days := []string{}
	if err := c.do(ctx, request{op: "Days", method: http.MethodGet, path: "/days", response: &days}); err != nil {
		return nil, err
	}
	return days, nil
}

// Summary returns the category totals the service computes for day
func (c *Client) Summary(ctx context.Context, day string) ([]types.CategoryTotal, error) {
	if !types.ValidDay(day) {
		return nil, repoerrors.NewRemoteError("Summary", fmt.Errorf("invalid day %q, expected YYYY-MM-DD", day), repoerrors.ErrCodeValidation, nil)
	}
	totals := []types.CategoryTotal{}
	err := c.do(ctx, request{
		op:       "Summary",
		method:   http.MethodGet,
		path:     "/summary/" + url.PathEscape(day),
		response: &totals,
	})
	if err != nil {
		return nil, err
	}
	return totals, nil
}

// ClearData deletes every record held by the service. It needs a credential.
func (c *Client) ClearData(ctx context.Context) error {
	return c.do(ctx, request{op: "ClearData", method: http.MethodDelete, path: "/clear-data", auth: true})
}
