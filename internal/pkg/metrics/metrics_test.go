package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveUpstream(t *testing.T) {
	c := New()
	c.ObserveUpstream("articles", http.MethodGet, 200, 10*time.Millisecond)
	c.ObserveUpstream("articles", http.MethodGet, 404, 5*time.Millisecond)
	c.ObserveUpstream("articles", http.MethodGet, 0, time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.UpstreamRequests.WithLabelValues("articles", "GET", "2xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.UpstreamRequests.WithLabelValues("articles", "GET", "4xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.UpstreamRequests.WithLabelValues("articles", "GET", "error")))
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector
	c.ObserveUpstream("events", "GET", 200, time.Millisecond)
	c.ObserveUpload("api", errors.New("x"))
	c.ObserveCart("add")
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c := New()
	r := gin.New()
	r.Use(c.Middleware())
	r.GET("/events/:slug", func(ctx *gin.Context) { ctx.Status(http.StatusOK) })
	r.GET("/metrics", gin.WrapH(c.Handler()))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/events/launch", nil))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.HTTPRequests.WithLabelValues("/events/:slug", "GET", "200")))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "mutuals_http_requests_total")
}
