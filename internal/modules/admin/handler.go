// Package admin serves the session-guarded dashboard for editing articles,
// Select+ features, events, media and submissions.
package admin

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mutualsplus/site/internal/apiclient"
	"github.com/mutualsplus/site/internal/modules/auth"
	"github.com/mutualsplus/site/internal/modules/settings"
	"github.com/mutualsplus/site/internal/modules/upload"
	"github.com/mutualsplus/site/internal/pkg/cron"
	"github.com/mutualsplus/site/internal/pkg/metrics"
	"github.com/mutualsplus/site/internal/pkg/view"
)

type Options struct {
	Client    *apiclient.Client
	View      *view.Renderer
	Settings  *settings.Service
	Scheduler *cron.Scheduler
	Metrics   *metrics.Collector
	Logger    *zap.Logger
	// ImageBed receives inline editor images when set; otherwise they go to
	// the backend media endpoint like every other upload.
	ImageBed       upload.Uploader
	MaxUploadBytes int64
	// Purge drops cached public pages after content changes.
	Purge func(ctx context.Context)
}

type Handler struct {
	client    *apiclient.Client
	view      *view.Renderer
	settings  *settings.Service
	scheduler *cron.Scheduler
	metrics   *metrics.Collector
	logger    *zap.Logger
	imageBed  upload.Uploader
	maxUpload int64
	purge     func(ctx context.Context)
	now       func() time.Time
}

func NewHandler(o Options) *Handler {
	logger := o.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	maxUpload := o.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = 20 << 20
	}
	return &Handler{
		client:    o.Client,
		view:      o.View,
		settings:  o.Settings,
		scheduler: o.Scheduler,
		metrics:   o.Metrics,
		logger:    logger.Named("admin"),
		imageBed:  o.ImageBed,
		maxUpload: maxUpload,
		purge:     o.Purge,
		now:       time.Now,
	}
}

// RegisterRoutes mounts every dashboard screen on rg, which must already run
// the admin gate and the session guard.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.dashboard)

	rg.GET("/articles", h.listArticles)
	rg.GET("/articles/new", h.newArticle)
	rg.POST("/articles", h.createArticle)
	rg.GET("/articles/:id/edit", h.editArticle)
	rg.POST("/articles/:id", h.updateArticle)
	rg.POST("/articles/:id/delete", h.deleteArticle)
	rg.POST("/preview", h.preview)

	rg.GET("/select-plus", h.listFeatures)
	rg.GET("/select-plus/new", h.newFeature)
	rg.POST("/select-plus", h.createFeature)
	rg.GET("/select-plus/:id/edit", h.editFeature)
	rg.POST("/select-plus/:id", h.updateFeature)
	rg.POST("/select-plus/:id/delete", h.deleteFeature)

	rg.GET("/events", h.listEvents)
	rg.GET("/events/new", h.newEvent)
	rg.POST("/events", h.createEvent)
	rg.GET("/events/:id/edit", h.editEvent)
	rg.POST("/events/:id", h.updateEvent)
	rg.POST("/events/:id/delete", h.deleteEvent)

	rg.GET("/media", h.listMedia)
	rg.POST("/media", h.uploadMedia)
	rg.POST("/media/:id/delete", h.deleteMedia)

	rg.GET("/submissions", h.listSubmissions)
	rg.GET("/submissions/:kind/:id", h.showSubmission)
	rg.POST("/submissions/:kind/:id/status", h.updateSubmissionStatus)
	rg.POST("/submissions/:kind/:id/delete", h.deleteSubmission)

	rg.POST("/uploads/image", h.uploadImage)
}

// api returns the client authorised as the signed-in admin.
func (h *Handler) api(c *gin.Context) *apiclient.Client {
	return h.client.WithToken(auth.Token(c))
}

// uploader sends form attachments to the backend as the signed-in admin.
func (h *Handler) uploader(c *gin.Context) upload.Uploader {
	return upload.NewAPIUploader(h.api(c), h.metrics)
}

func (h *Handler) changed(c *gin.Context) {
	if h.purge != nil {
		h.purge(c.Request.Context())
	}
}

// fail flashes the backend's message, or fallback, and redirects to target.
func (h *Handler) fail(c *gin.Context, err error, fallback, target string) {
	h.logger.Warn(fallback, zap.String("path", c.Request.URL.Path), zap.Error(err))
	view.SetFlash(c, view.FlashError, apiclient.MessageOr(err, fallback))
	c.Redirect(http.StatusSeeOther, target)
}

// missing renders the not-found page when err is a backend 404 and reports
// whether it did.
func (h *Handler) missing(c *gin.Context, err error, back, label string) bool {
	if !errors.Is(err, apiclient.ErrNotFound) {
		return false
	}
	h.view.NotFound(c, back, label)
	return true
}

// pendingFile reads the optional multipart file field into a pending upload.
func (h *Handler) pendingFile(c *gin.Context, field, target, folder string) (upload.Pending, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return upload.Pending{Field: target}, nil
		}
		return upload.Pending{}, err
	}
	f, err := upload.FromFormFile(fh, folder, h.maxUpload)
	if err != nil {
		return upload.Pending{}, err
	}
	return upload.Pending{Field: target, File: f}, nil
}

func uploadMessage(err error) string {
	if errors.Is(err, upload.ErrTooLarge) {
		return "That file is too large."
	}
	return apiclient.MessageOr(err, "The file could not be uploaded, nothing was saved. Please try again.")
}
