package view

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

const flashCookie = "mutuals_flash"

const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashInfo    = "info"
)

// Flash is a one-shot message shown on the next rendered page, the server-side
// stand-in for a toast.
type Flash struct {
	Kind    string `json:"k"`
	Message string `json:"m"`
}

// SetFlash stores a message for the next page render, typically after a redirect.
func SetFlash(c *gin.Context, kind, message string) {
	raw, err := json.Marshal(Flash{Kind: kind, Message: message})
	if err != nil {
		return
	}
	f := &Flash{Kind: kind, Message: message}
	c.Set(flashCookie, f)
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     flashCookie,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// FlashNow shows a message on the page rendered by this request only.
func FlashNow(c *gin.Context, kind, message string) {
	c.Set(flashCookie+".now", &Flash{Kind: kind, Message: message})
}

// PopFlash returns the pending message, if any, and clears it.
func PopFlash(c *gin.Context) *Flash {
	if v, ok := c.Get(flashCookie + ".now"); ok {
		return v.(*Flash)
	}
	raw, err := c.Cookie(flashCookie)
	if err != nil || raw == "" {
		return nil
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     flashCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	data, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil
	}
	var f Flash
	if err := json.Unmarshal(data, &f); err != nil || f.Message == "" {
		return nil
	}
	return &f
}

// Back returns the same-site Referer path and query, or fallback.
func Back(c *gin.Context, fallback string) string {
	ref := c.Request.Referer()
	if ref == "" {
		return fallback
	}
	u, err := url.Parse(ref)
	if err != nil || (u.Host != "" && u.Host != c.Request.Host) || !strings.HasPrefix(u.Path, "/") {
		return fallback
	}
	if u.RawQuery != "" {
		return u.Path + "?" + u.RawQuery
	}
	return u.Path
}

// HasFlash reports whether a message from a previous request is waiting.
func HasFlash(c *gin.Context) bool {
	raw, err := c.Cookie(flashCookie)
	return err == nil && raw != ""
}
