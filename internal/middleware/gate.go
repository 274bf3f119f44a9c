package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	AdminPrefix    = "/admin"
	AdminLoginPath = "/admin/login"
)

// AdminGate redirects by cookie presence alone. A signed-in visitor asking for
// the login page goes to the dashboard, and an anonymous one asking for any
// other admin page goes to the login page with the original path in "from".
// Token validity is checked later by the session guard, which clears a stale
// cookie so the login page becomes reachable again.
func AdminGate(cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := strings.TrimRight(c.Request.URL.Path, "/")
		if path == "" {
			path = "/"
		}
		if path != AdminPrefix && !strings.HasPrefix(path, AdminPrefix+"/") {
			c.Next()
			return
		}

		token, _ := c.Cookie(cookieName)
		hasSession := strings.TrimSpace(token) != ""

		switch {
		case path == AdminLoginPath && hasSession:
			c.Redirect(http.StatusFound, AdminPrefix)
			c.Abort()
		case path != AdminLoginPath && !hasSession:
			c.Redirect(http.StatusFound, LoginRedirect(c.Request.URL.Path))
			c.Abort()
		default:
			c.Next()
		}
	}
}

// LoginRedirect returns the login URL that comes back to from after sign-in.
func LoginRedirect(from string) string {
	return AdminLoginPath + "?from=" + url.QueryEscape(from)
}

// SafeAdminRedirect returns from when it is a local admin path, otherwise the
// dashboard.
func SafeAdminRedirect(from string) string {
	if from == "" || strings.HasPrefix(from, "//") || strings.Contains(from, "\\") {
		return AdminPrefix
	}
	u, err := url.Parse(from)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return AdminPrefix
	}
	if u.Path != AdminPrefix && !strings.HasPrefix(u.Path, AdminPrefix+"/") {
		return AdminPrefix
	}
	if u.Path == AdminLoginPath {
		return AdminPrefix
	}
	return u.RequestURI()
}

// WantsJSON reports whether the client asked for a JSON response.
func WantsJSON(c *gin.Context) bool {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		return true
	}
	accept := c.GetHeader("Accept")
	return strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html")
}
