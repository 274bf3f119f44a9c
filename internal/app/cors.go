package app

import (
	"net/url"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// apiCORS allows the storefront widgets on the configured origins to call the
// JSON cart API with the cart cookie. Development allows every origin.
func apiCORS(origins []string, dev bool) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Idempotence"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}
	if len(origins) == 0 || dev {
		cfg.AllowOriginFunc = func(string) bool { return true }
		return cors.New(cfg)
	}
	cfg.AllowOriginFunc = func(origin string) bool {
		host := originHost(origin)
		for _, pattern := range origins {
			if matchOrigin(pattern, host) {
				return true
			}
		}
		return false
	}
	return cors.New(cfg)
}

func originHost(origin string) string {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return origin
	}
	return u.Host
}

// matchOrigin accepts exact hosts, "*.example.com" subdomains and
// "localhost:*" ports.
func matchOrigin(pattern, host string) bool {
	switch {
	case pattern == host:
		return true
	case strings.HasPrefix(pattern, "*."):
		return strings.HasSuffix(host, pattern[1:])
	case strings.HasSuffix(pattern, ":*"):
		return strings.HasPrefix(host, strings.TrimSuffix(pattern, "*"))
	}
	return false
}
