// Package app wires configuration, storage, the backend client and every HTTP
// module into one gin engine.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mutualsplus/site/internal/apiclient"
	"github.com/mutualsplus/site/internal/config"
	"github.com/mutualsplus/site/internal/database"
	"github.com/mutualsplus/site/internal/middleware"
	"github.com/mutualsplus/site/internal/modules/settings"
	"github.com/mutualsplus/site/internal/modules/upload"
	pkgcron "github.com/mutualsplus/site/internal/pkg/cron"
	"github.com/mutualsplus/site/internal/pkg/metrics"
	pkgredis "github.com/mutualsplus/site/internal/pkg/redis"
	"github.com/mutualsplus/site/internal/pkg/statestore"
	"github.com/mutualsplus/site/internal/pkg/view"
)

// App holds all application dependencies.
type App struct {
	cfg      *config.AppConfig
	router   *gin.Engine
	logger   *zap.Logger
	rc       *pkgredis.Client
	db       *gorm.DB
	state    statestore.Store
	client   *apiclient.Client
	view     *view.Renderer
	settings *settings.Service
	metrics  *metrics.Collector
	imageBed upload.Uploader
	sched    *pkgcron.Scheduler
	cancel   context.CancelFunc
	started  time.Time
}

// New initializes the application: runtime settings, Redis, the state store,
// the backend client, templates, background jobs and routes.
func New(logger *zap.Logger, cfg *config.AppConfig) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if err := applyRuntimeSettings(cfg); err != nil {
		return nil, err
	}

	rc, err := pkgredis.Connect(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}

	a := &App{cfg: cfg, logger: logger, rc: rc, started: time.Now()}
	if err := a.openState(); err != nil {
		_ = rc.Close()
		return nil, err
	}

	a.metrics = metrics.New()
	a.client = apiclient.New(apiclient.Options{
		BaseURL:   cfg.API.BaseURL,
		UploadURL: cfg.UploadEndpoint(),
		Timeout:   cfg.API.Timeout,
		Logger:    logger,
		Metrics:   a.metrics,
	})

	a.view, err = view.New(view.Site{
		Name:        cfg.Site.Name,
		Description: cfg.Site.Description,
		URL:         cfg.Site.URL,
		Currency:    cfg.Shop.Currency,
	}, logger)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("templates: %w", err)
	}

	if cfg.Uploads.ImageBed.Enable {
		bed, err := upload.NewS3Uploader(cfg.Uploads.ImageBed, a.metrics)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("image bed: %w", err)
		}
		a.imageBed = bed
		logger.Info("editor images go to the image bed", zap.String("bucket", cfg.Uploads.ImageBed.Bucket))
	}

	a.settings = settings.NewService(a.client, logger)

	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	a.router = gin.New()
	a.router.HandleMethodNotAllowed = true
	a.router.Use(gin.Recovery())
	a.router.Use(middleware.Logger(logger))
	a.router.Use(a.metrics.Middleware())

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.sched = pkgcron.New(logger)
	a.registerCronJobs()
	a.sched.Start(ctx)

	a.registerRoutes()
	return a, nil
}

// openState picks the backing store for carts and sessions.
func (a *App) openState() error {
	switch a.cfg.State.Driver {
	case config.StateDriverSQL:
		db, err := database.Connect(a.cfg)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		a.db = db
		a.state = statestore.NewSQL(db)
	case config.StateDriverMemory:
		a.logger.Warn("state.driver is memory, carts and sessions are lost on restart")
		a.state = statestore.NewMemory()
	default:
		a.state = statestore.NewRedis(a.rc)
	}
	return nil
}

// Addr returns the listen address.
func (a *App) Addr() string { return fmt.Sprintf(":%d", a.cfg.Port) }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }

// Shutdown stops background jobs and closes connections.
func (a *App) Shutdown() {
	a.cancel()
	a.sched.Wait()
	a.close()
}

func (a *App) close() {
	if err := database.Close(a.db); err != nil {
		a.logger.Warn("close database", zap.Error(err))
	}
	if err := a.rc.Close(); err != nil {
		a.logger.Warn("close redis", zap.Error(err))
	}
}
