package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mutualsplus/site/internal/pkg/redis"
	"github.com/mutualsplus/site/internal/pkg/response"
	"github.com/mutualsplus/site/internal/pkg/view"
)

const (
	idempotenceHeader = "X-Idempotence"
	idempotenceTTL    = 60 * time.Second
	// Bodies above this size are not hashed and the request is not guarded.
	idempotenceMaxBody = 32 << 20
)

const (
	msgDuplicateDone    = "This was already submitted a moment ago."
	msgDuplicateRunning = "This submission is still being processed."
)

// Idempotence rejects a repeat of an identical POST, PUT, PATCH or DELETE while
// the first is running or for a minute after it succeeded. Identity is the
// X-Idempotence header, or a hash of the method, URL, body, client and cookie
// values named in cookies.
func Idempotence(rdb *redis.Client, cookies ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		default:
			c.Next()
			return
		}
		if rdb == nil {
			c.Next()
			return
		}

		key, ok := idempotenceKey(c, cookies)
		if !ok {
			c.Next()
			return
		}
		redisKey := rdb.Key("idempotence", key)
		ctx := c.Request.Context()

		val, err := rdb.Get(ctx, redisKey)
		if err != nil {
			c.Next()
			return
		}
		if val != "" {
			msg := msgDuplicateDone
			if val == "0" {
				msg = msgDuplicateRunning
			}
			if WantsJSON(c) {
				c.AbortWithStatusJSON(http.StatusConflict, response.Envelope{Success: false, Message: msg})
				return
			}
			view.SetFlash(c, view.FlashInfo, msg)
			c.Redirect(http.StatusSeeOther, view.Back(c, "/"))
			c.Abort()
			return
		}

		if err := rdb.Set(ctx, redisKey, "0", idempotenceTTL); err != nil {
			c.Next()
			return
		}

		c.Next()

		// Forms answer a successful POST with a redirect.
		status := c.Writer.Status()
		if status >= 200 && status < 400 && !c.IsAborted() {
			_ = rdb.Set(ctx, redisKey, "1", idempotenceTTL)
		} else {
			_ = rdb.Del(ctx, redisKey)
		}
	}
}

func idempotenceKey(c *gin.Context, cookies []string) (string, bool) {
	if hdr := c.GetHeader(idempotenceHeader); hdr != "" {
		return hdr, true
	}
	if c.Request.ContentLength > idempotenceMaxBody {
		return "", false
	}

	var body []byte
	if c.Request.Body != nil {
		raw, err := io.ReadAll(io.LimitReader(c.Request.Body, idempotenceMaxBody+1))
		c.Request.Body = readCloser{io.MultiReader(bytes.NewReader(raw), c.Request.Body), c.Request.Body}
		if err != nil || len(raw) > idempotenceMaxBody {
			return "", false
		}
		body = raw
	}

	h := sha256.New()
	for _, part := range []string{c.Request.Method, c.Request.URL.RequestURI(), c.Request.UserAgent(), c.ClientIP()} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	for _, name := range cookies {
		v, _ := c.Cookie(name)
		h.Write([]byte(v))
		h.Write([]byte{0})
	}
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil)), true
}

type readCloser struct {
	io.Reader
	io.Closer
}
