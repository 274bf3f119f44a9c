// Package site serves the public pages: home, editorial, Select+, events, shop,
// music, the contact forms and the syndication feeds.
package site

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mutualsplus/site/internal/apiclient"
	"github.com/mutualsplus/site/internal/middleware"
	"github.com/mutualsplus/site/internal/modules/settings"
	"github.com/mutualsplus/site/internal/pkg/view"
)

type Options struct {
	Client   *apiclient.Client
	View     *view.Renderer
	Settings *settings.Service
	Logger   *zap.Logger
	// URL is the public origin used for absolute links in feeds.
	URL string
}

type Handler struct {
	client   *apiclient.Client
	view     *view.Renderer
	settings *settings.Service
	logger   *zap.Logger
	url      string
}

func NewHandler(o Options) *Handler {
	logger := o.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		client:   o.Client,
		view:     o.View,
		settings: o.Settings,
		logger:   logger.Named("site"),
		url:      strings.TrimRight(o.URL, "/"),
	}
}

// RegisterRoutes mounts the public pages. formMW runs in front of every form
// POST (rate limiting, duplicate-submit protection).
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, formMW ...gin.HandlerFunc) {
	rg.GET("/", h.home)
	rg.GET("/editorial", h.editorial)
	rg.GET("/editorial/:slug", h.article)
	rg.GET("/select-plus", h.selectPlus)
	rg.GET("/select-plus/:slug", h.feature)
	rg.GET("/events", h.events)
	rg.GET("/events/:slug", h.event)
	rg.GET("/shop", h.shop)
	rg.GET("/shop/:slug", h.product)
	rg.GET("/music", h.music)
	rg.GET("/contact", h.contact)
	rg.GET("/artists", h.artistPage)

	rg.POST("/contact", append(formMW, h.submitContact)...)
	rg.POST("/artists", append(formMW, h.submitArtist)...)
	rg.POST("/newsletter", append(formMW, h.subscribe)...)

	rg.GET("/feed.xml", h.rss)
	rg.GET("/sitemap.xml", h.sitemap)
}

// NoRoute renders the not-found page for unknown public paths.
func (h *Handler) NoRoute(c *gin.Context) {
	if middleware.WantsJSON(c) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Not found"})
		return
	}
	h.view.NotFound(c, "/", "Back to the homepage")
}

// unavailable handles a failed fetch for a whole page: the last cached copy
// when there is one, otherwise the error page.
func (h *Handler) unavailable(c *gin.Context, err error, what string) {
	h.logger.Warn("load "+what, zap.String("path", c.Request.URL.Path), zap.Error(err))
	if middleware.ServeStale(c) {
		return
	}
	h.view.Render(c, http.StatusBadGateway, "site/error", "Something went wrong", gin.H{
		"Message": apiclient.MessageOr(err, "We could not load this page right now. Please try again shortly."),
	})
}
