package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	pkgcron "github.com/mutualsplus/site/internal/pkg/cron"
	"github.com/mutualsplus/site/internal/pkg/statestore"
)

// registerCronJobs registers all scheduled background jobs.
func (a *App) registerCronJobs() {
	a.sched.Register(a.settings.RefreshJob())

	// Redis and memory expire entries themselves; SQL rows need a sweep.
	if sqlStore, ok := a.state.(*statestore.SQL); ok {
		logger := a.logger.Named("CronService")
		a.sched.Register(pkgcron.Job{
			Name:        "state.purge_expired",
			Description: "Delete expired carts and sessions from the database",
			Interval:    time.Hour,
			Fn: func(ctx context.Context) error {
				n, err := sqlStore.PurgeExpired(ctx)
				if err != nil {
					logger.Warn("purge expired state failed", zap.Error(err))
					return err
				}
				if n > 0 {
					logger.Info("purged expired state", zap.Int64("rows", n))
				}
				return nil
			},
		})
	}
}
