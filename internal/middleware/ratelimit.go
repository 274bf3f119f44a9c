package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mutualsplus/site/internal/pkg/redis"
	"github.com/mutualsplus/site/internal/pkg/response"
	"github.com/mutualsplus/site/internal/pkg/view"
)

const rateLimitMessage = "Too many requests. Please wait a moment and try again."

type RateLimitOptions struct {
	// Name separates counters of independently limited route groups.
	Name   string
	Max    int64
	Window time.Duration
}

// RateLimit caps submissions per client IP in fixed windows counted in Redis.
// GET, HEAD and OPTIONS are never counted. A Redis failure lets the request
// through.
func RateLimit(rdb *redis.Client, opts RateLimitOptions) gin.HandlerFunc {
	if opts.Max <= 0 {
		opts.Max = 10
	}
	if opts.Window <= 0 {
		opts.Window = time.Minute
	}
	if opts.Name == "" {
		opts.Name = "default"
	}
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if rdb == nil || ip == "" || isSafeMethod(c.Request.Method) {
			c.Next()
			return
		}

		window := time.Now().UnixNano() / int64(opts.Window)
		key := rdb.Key("ratelimit", opts.Name, ip, strconv.FormatInt(window, 10))
		count, err := rdb.Incr(c.Request.Context(), key, opts.Window+time.Second)
		if err != nil {
			c.Next()
			return
		}

		if count > opts.Max {
			c.Header("Retry-After", strconv.Itoa(int(opts.Window/time.Second)))
			if WantsJSON(c) {
				c.AbortWithStatusJSON(http.StatusTooManyRequests, response.Envelope{Success: false, Message: rateLimitMessage})
				return
			}
			view.SetFlash(c, view.FlashError, rateLimitMessage)
			c.Redirect(http.StatusSeeOther, view.Back(c, "/"))
			c.Abort()
			return
		}

		c.Next()
	}
}

func isSafeMethod(method string) bool {
	return method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions
}
