package app

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchOrigin(t *testing.T) {
	cases := []struct {
		pattern, origin string
		want            bool
	}{
		{"mutualsplus.com", "https://mutualsplus.com", true},
		{"*.mutualsplus.com", "https://shop.mutualsplus.com", true},
		{"*.mutualsplus.com", "https://evilmutualsplus.com", false},
		{"localhost:*", "http://localhost:5173", true},
		{"localhost:*", "http://localhost.evil.test", false},
		{"mutualsplus.com", "https://other.com", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, matchOrigin(tc.pattern, originHost(tc.origin)), tc.pattern+" "+tc.origin)
	}
}

func TestAPICORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(apiCORS([]string{"*.mutualsplus.com"}, false))
	r.GET("/api/cart", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.Header.Set("Origin", "https://shop.mutualsplus.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "https://shop.mutualsplus.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.Header.Set("Origin", "https://elsewhere.test")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestParseTimezone(t *testing.T) {
	loc, err := parseTimezone("+01:00")
	require.NoError(t, err)
	_, offset := time.Date(2024, 1, 1, 0, 0, 0, 0, loc).Zone()
	assert.Equal(t, 3600, offset)

	loc, err = parseTimezone("-05:30")
	require.NoError(t, err)
	_, offset = time.Date(2024, 1, 1, 0, 0, 0, 0, loc).Zone()
	assert.Equal(t, -(5*3600 + 30*60), offset)

	_, err = parseTimezone("Mars/Olympus")
	assert.Error(t, err)
}

func TestHumanizeDuration(t *testing.T) {
	assert.Equal(t, "42s", humanizeDuration(42*time.Second+300*time.Millisecond))
	assert.Equal(t, "5m0s", humanizeDuration(5*time.Minute+10*time.Second))
	assert.Equal(t, "3h0m0s", humanizeDuration(3*time.Hour+59*time.Minute))
	assert.Equal(t, "48h0m0s", humanizeDuration(50*time.Hour))
}
