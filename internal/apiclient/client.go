// Package apiclient is the typed client for the Mutuals+ backend REST API.
// Every response is decoded into one Envelope and normalized here, so callers
// only ever see models and Page values.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/mutualsplus/site/internal/pkg/metrics"
)

const maxResponseBytes = 8 << 20

// Options configures a Client.
type Options struct {
	BaseURL    string
	UploadURL  string
	Timeout    time.Duration
	Logger     *zap.Logger
	Metrics    *metrics.Collector
	HTTPClient *http.Client
}

// Client talks to the backend API. The zero token is anonymous; WithToken
// derives an authenticated client sharing the same transport.
type Client struct {
	baseURL    string
	uploadURL  string
	httpClient *http.Client
	token      string
	logger     *zap.Logger
	metrics    *metrics.Collector
	group      *singleflight.Group
}

func New(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	base := strings.TrimRight(opts.BaseURL, "/")
	upload := opts.UploadURL
	if upload == "" {
		upload = base + "/media/upload"
	}
	return &Client{
		baseURL:    base,
		uploadURL:  upload,
		httpClient: hc,
		logger:     logger.Named("apiclient"),
		metrics:    opts.Metrics,
		group:      &singleflight.Group{},
	}
}

// WithToken returns a copy of c that sends token as a bearer credential.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

// Token returns the bearer token of the client, or "".
func (c *Client) Token() string { return c.token }

// Meta is the pagination block of list responses.
type Meta struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// Envelope is the backend response shape {success, message, data, meta}. URL is
// only set by some upload responses.
type Envelope struct {
	Success *bool           `json:"success,omitempty"`
	Message string          `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Meta    *Meta           `json:"meta,omitempty"`
	URL     string          `json:"url,omitempty"`
}

// Page is a normalized list response.
type Page[T any] struct {
	Items []T
	Meta  Meta
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// resourceOf returns the first path segment, used as the metrics label.
func resourceOf(path string) string {
	p := strings.TrimLeft(path, "/")
	if i := strings.IndexByte(p, '/'); i >= 0 {
		p = p[:i]
	}
	if p == "" {
		return "root"
	}
	return p
}

func (c *Client) get(ctx context.Context, path string, query url.Values) (*Envelope, error) {
	target := c.endpoint(path, query)
	key := http.MethodGet + " " + target + " " + c.token
	// The shared fetch outlives any one caller and is bounded by the HTTP
	// client timeout. Each caller still stops waiting when its own ctx ends.
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		return c.send(shared, http.MethodGet, path, target, nil, "")
	})
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s %s: %w", http.MethodGet, path, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Envelope), nil
	}
}

func (c *Client) sendJSON(ctx context.Context, method, path string, body interface{}) (*Envelope, error) {
	var payload io.Reader
	contentType := ""
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		payload = bytes.NewReader(raw)
		contentType = "application/json"
	}
	return c.send(ctx, method, path, c.endpoint(path, nil), payload, contentType)
}

func (c *Client) send(ctx context.Context, method, path, target string, body io.Reader, contentType string) (*Envelope, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	resource := resourceOf(path)
	if err != nil {
		c.metrics.ObserveUpstream(resource, method, 0, time.Since(start))
		c.logger.Warn("upstream request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	c.metrics.ObserveUpstream(resource, method, resp.StatusCode, time.Since(start))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", method, path, err)
	}

	env := &Envelope{}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, env); err != nil && resp.StatusCode < 300 {
			return nil, fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}

	if resp.StatusCode >= 300 || (env.Success != nil && !*env.Success) {
		apiErr := &Error{
			Status:   resp.StatusCode,
			Message:  firstNonEmpty(env.Message, env.Error),
			Method:   method,
			Resource: path,
		}
		c.logger.Debug("upstream error",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", apiErr.Message),
		)
		return nil, apiErr
	}
	return env, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
