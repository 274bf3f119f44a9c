package app

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mutualsplus/site/internal/middleware"
	"github.com/mutualsplus/site/internal/modules/admin"
	"github.com/mutualsplus/site/internal/modules/auth"
	"github.com/mutualsplus/site/internal/modules/cart"
	"github.com/mutualsplus/site/internal/modules/settings"
	"github.com/mutualsplus/site/internal/modules/site"
	"github.com/mutualsplus/site/internal/pkg/response"
	"github.com/mutualsplus/site/internal/pkg/view"
)

const (
	formRateLimit  = 10
	loginRateLimit = 5
	staleTTL       = 24 * time.Hour
)

func (a *App) registerRoutes() {
	r := a.router
	rdb := a.rc
	secure := !a.cfg.IsDev()

	purge := func(ctx context.Context) {
		deleted, err := middleware.PurgeHTTPCache(ctx, rdb)
		if err != nil {
			a.logger.Warn("purge page cache", zap.Error(err))
			return
		}
		a.logger.Debug("page cache purged", zap.Int("keys", deleted))
	}

	siteHandler := site.NewHandler(site.Options{
		Client:   a.client,
		View:     a.view,
		Settings: a.settings,
		Logger:   a.logger,
		URL:      a.cfg.Site.URL,
	})
	r.NoRoute(siteHandler.NoRoute)
	r.NoMethod(func(c *gin.Context) { response.MethodNotAllowed(c) })

	// Infrastructure
	r.StaticFS("/static", view.Static())
	r.GET("/healthz", a.healthz)
	r.GET("/metrics", gin.WrapH(a.metrics.Handler()))

	carts := cart.NewStore(a.state, a.logger, secure)
	cartHandler := cart.NewHandler(carts, a.client, a.view, a.metrics, a.cfg.Shop.CheckoutURL, a.logger)

	forms := []gin.HandlerFunc{
		middleware.RateLimit(rdb, middleware.RateLimitOptions{Name: "forms", Max: formRateLimit, Window: time.Minute}),
		middleware.Idempotence(rdb, cart.CookieName),
	}

	// JSON cart API for storefront scripts
	api := r.Group("/api", apiCORS(a.cfg.AllowedOrigins, a.cfg.IsDev()), carts.Middleware())
	api.OPTIONS("/*path", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	cartHandler.RegisterAPI(api)

	// Public pages, cached per cart size
	public := r.Group("", carts.Middleware(), middleware.HTTPCache(rdb, middleware.HTTPCacheOptions{
		TTL:      a.cfg.Cache.TTL,
		StaleTTL: staleTTL,
		Disable:  a.cfg.Cache.Disable,
		Vary: func(c *gin.Context) string {
			return "cart" + strconv.Itoa(c.GetInt(view.KeyCartCount))
		},
		Bypass: view.HasFlash,
	}))
	siteHandler.RegisterRoutes(public, forms...)

	// The cart page shows line items, so it is never cached. Cart forms are
	// repeatable: adding the same item twice raises its quantity.
	cartHandler.RegisterRoutes(r.Group("", carts.Middleware()))

	// Admin: cookie gate, then login, then the session guard
	sessions := auth.NewService(a.client, a.state, auth.CookieOptions{
		HTTPOnly: a.cfg.Auth.CookieHTTPOnly,
		Secure:   secure,
	}, a.logger)
	gate := r.Group(middleware.AdminPrefix, middleware.AdminGate(auth.CookieName))
	auth.NewHandler(sessions, a.view).RegisterRoutes(gate.Group("",
		middleware.RateLimit(rdb, middleware.RateLimitOptions{Name: "login", Max: loginRateLimit, Window: time.Minute})))

	guarded := gate.Group("", sessions.Guard(), middleware.Idempotence(rdb, auth.CookieName))
	admin.NewHandler(admin.Options{
		Client:         a.client,
		View:           a.view,
		Settings:       a.settings,
		Scheduler:      a.sched,
		Metrics:        a.metrics,
		Logger:         a.logger,
		ImageBed:       a.imageBed,
		MaxUploadBytes: int64(a.cfg.Uploads.ImageBed.MaxSizeMB) << 20,
		Purge:          purge,
	}).RegisterRoutes(guarded)
	settings.NewHandler(a.settings, a.client, a.view, func(c *gin.Context) {
		purge(c.Request.Context())
	}).RegisterRoutes(guarded)
}

type health struct {
	Redis            bool      `json:"redis"`
	Uptime           string    `json:"uptime"`
	SettingsLoadedAt time.Time `json:"settingsLoadedAt"`
	StateDriver      string    `json:"stateDriver"`
}

// healthz reports liveness and whether Redis answers. The backend API is not
// probed so an upstream outage does not take this server out of rotation.
func (a *App) healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	h := health{
		Redis:            a.rc.Ping(ctx) == nil,
		Uptime:           humanizeDuration(time.Since(a.started)),
		SettingsLoadedAt: a.settings.LoadedAt(),
		StateDriver:      a.cfg.State.Driver,
	}
	status := http.StatusOK
	if !h.Redis {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, response.Envelope{Success: h.Redis, Data: h})
}
