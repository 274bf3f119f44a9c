package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mutualsplus/site/internal/pkg/redis"
)

const (
	defaultHTTPCacheTTL     = 30 * time.Second
	defaultHTTPCacheStale   = 24 * time.Hour
	defaultHTTPCacheMaxBody = 1 << 20
	staleWhileRevalidate    = 60

	httpCacheNamespace = "pagecache"
	httpCacheCtxKey    = "httpcache.state"
)

type HTTPCacheOptions struct {
	TTL time.Duration
	// StaleTTL is how long a copy is kept for ServeStale after it expired.
	StaleTTL     time.Duration
	Disable      bool
	SkipPaths    []string
	MaxBodyBytes int
	// Vary adds per-visitor parts to the cache key, e.g. the cart size.
	Vary func(c *gin.Context) string
	// Bypass skips the cache for the request, e.g. when a flash cookie is set.
	Bypass func(c *gin.Context) bool
}

type cachedHTTPResponse struct {
	Status      int       `json:"status"`
	ContentType string    `json:"contentType,omitempty"`
	Body        []byte    `json:"body"`
	StoredAt    time.Time `json:"storedAt"`
}

type cacheBodyWriter struct {
	gin.ResponseWriter
	body         []byte
	maxBodyBytes int
	overflow     bool
}

func (w *cacheBodyWriter) Write(data []byte) (int, error) {
	w.capture(data)
	return w.ResponseWriter.Write(data)
}

func (w *cacheBodyWriter) WriteString(s string) (int, error) {
	w.capture([]byte(s))
	return w.ResponseWriter.WriteString(s)
}

func (w *cacheBodyWriter) capture(data []byte) {
	if w.overflow || len(data) == 0 {
		return
	}
	if len(w.body)+len(data) > w.maxBodyBytes {
		w.overflow = true
		w.body = nil
		return
	}
	w.body = append(w.body, data...)
}

type httpCacheState struct {
	rdb      *redis.Client
	staleKey string
}

func normalizeHTTPCacheOptions(opts HTTPCacheOptions) HTTPCacheOptions {
	if opts.TTL <= 0 {
		opts.TTL = defaultHTTPCacheTTL
	}
	if opts.StaleTTL <= 0 {
		opts.StaleTTL = defaultHTTPCacheStale
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultHTTPCacheMaxBody
	}
	return opts
}

// HTTPCache caches successful anonymous GET pages in Redis. Each stored page
// also gets a long-lived stale copy that handlers can fall back to through
// ServeStale when the backend is unavailable.
func HTTPCache(rdb *redis.Client, opts HTTPCacheOptions) gin.HandlerFunc {
	options := normalizeHTTPCacheOptions(opts)
	return func(c *gin.Context) {
		if options.Disable || rdb == nil || c.Request.Method != http.MethodGet {
			c.Next()
			return
		}
		path := c.Request.URL.Path
		if shouldSkipCachePath(path, options.SkipPaths) || hasBypassTimestamp(c) ||
			(options.Bypass != nil && options.Bypass(c)) {
			c.Next()
			return
		}

		suffix := c.Request.URL.RequestURI()
		if options.Vary != nil {
			if v := options.Vary(c); v != "" {
				suffix += "|" + v
			}
		}
		freshKey := rdb.Key(httpCacheNamespace, "fresh", suffix)
		staleKey := rdb.Key(httpCacheNamespace, "stale", suffix)
		ctx := c.Request.Context()

		if payload, ok := readCachedResponse(ctx, rdb, freshKey); ok {
			setCacheHeader(c.Writer, "hit", options.TTL)
			c.Data(payload.Status, payload.ContentType, payload.Body)
			c.Abort()
			return
		}
		c.Set(httpCacheCtxKey, &httpCacheState{rdb: rdb, staleKey: staleKey})

		buffer := &cacheBodyWriter{ResponseWriter: c.Writer, maxBodyBytes: options.MaxBodyBytes}
		c.Writer = buffer
		c.Next()

		status := c.Writer.Status()
		if !isCacheableResponse(status, c.Writer.Header()) || buffer.overflow || len(buffer.body) == 0 {
			return
		}
		raw, err := json.Marshal(cachedHTTPResponse{
			Status:      status,
			ContentType: c.Writer.Header().Get("Content-Type"),
			Body:        buffer.body,
			StoredAt:    time.Now(),
		})
		if err != nil {
			return
		}
		_ = rdb.Set(ctx, freshKey, raw, options.TTL)
		_ = rdb.Set(ctx, staleKey, raw, options.StaleTTL)
	}
}

// ServeStale writes the last stored copy of the current page, if any, and
// reports whether it did. Handlers call it when the backend request failed.
func ServeStale(c *gin.Context) bool {
	v, ok := c.Get(httpCacheCtxKey)
	if !ok {
		return false
	}
	state := v.(*httpCacheState)
	payload, ok := readCachedResponse(c.Request.Context(), state.rdb, state.staleKey)
	if !ok {
		return false
	}
	c.Header("Cache-Control", "no-store")
	c.Header("X-Cache", "stale")
	c.Header("Age", strconv.Itoa(int(time.Since(payload.StoredAt).Seconds())))
	c.Data(payload.Status, payload.ContentType, payload.Body)
	c.Abort()
	return true
}

// PurgeHTTPCache drops every fresh page so the next visit sees new content.
// Stale copies are kept for outages.
func PurgeHTTPCache(ctx context.Context, rdb *redis.Client) (int, error) {
	if rdb == nil {
		return 0, nil
	}
	return rdb.DelPrefix(ctx, rdb.Key(httpCacheNamespace, "fresh", ""))
}

func readCachedResponse(ctx context.Context, rdb *redis.Client, key string) (cachedHTTPResponse, bool) {
	raw, err := rdb.GetBytes(ctx, key)
	if err != nil || len(raw) == 0 {
		return cachedHTTPResponse{}, false
	}
	var payload cachedHTTPResponse
	if err := json.Unmarshal(raw, &payload); err != nil || len(payload.Body) == 0 {
		return cachedHTTPResponse{}, false
	}
	if payload.Status <= 0 {
		payload.Status = http.StatusOK
	}
	if payload.ContentType == "" {
		payload.ContentType = "text/html; charset=utf-8"
	}
	return payload, true
}

func shouldSkipCachePath(path string, patterns []string) bool {
	for _, pattern := range patterns {
		p := strings.TrimSpace(pattern)
		if p == "" {
			continue
		}
		if strings.HasSuffix(p, "*") {
			if strings.HasPrefix(path, strings.TrimSuffix(p, "*")) {
				return true
			}
			continue
		}
		if path == p {
			return true
		}
	}
	return false
}

func hasBypassTimestamp(c *gin.Context) bool {
	query := c.Request.URL.Query()
	for _, key := range []string{"ts", "_t"} {
		if strings.TrimSpace(query.Get(key)) != "" {
			return true
		}
	}
	return false
}

// isCacheableResponse accepts plain 200s that set no cookies and did not opt out.
func isCacheableResponse(status int, headers http.Header) bool {
	if status != http.StatusOK || len(headers.Values("Set-Cookie")) > 0 {
		return false
	}
	cacheControl := strings.ToLower(headers.Get("Cache-Control"))
	return !strings.Contains(cacheControl, "no-cache") &&
		!strings.Contains(cacheControl, "no-store") &&
		!strings.Contains(cacheControl, "private")
}

func setCacheHeader(w gin.ResponseWriter, state string, ttl time.Duration) {
	w.Header().Set("X-Cache", state)
	if w.Header().Get("Cache-Control") != "" {
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=0, s-maxage="+strconv.Itoa(int(ttl/time.Second))+
		", stale-while-revalidate="+strconv.Itoa(staleWhileRevalidate))
}
