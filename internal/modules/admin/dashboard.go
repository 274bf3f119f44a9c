package admin

import (
	"context"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mutualsplus/site/internal/apiclient"
	"github.com/mutualsplus/site/internal/models"
	"github.com/mutualsplus/site/internal/pkg/cron"
)

// Stats are the dashboard counters. A counter is -1 when its request failed.
type Stats struct {
	Articles       map[string]int
	SelectPlus     int
	UpcomingEvents int
	NewContact     int
	NewArtist      int
}

// stats queries every counter concurrently with limit=1 and reads the totals.
// One failing counter does not hide the others.
func (h *Handler) stats(ctx context.Context, api *apiclient.Client) Stats {
	st := Stats{Articles: map[string]int{}}
	var mu sync.Mutex
	set := func(apply func(), err error, what string) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			h.logger.Warn("dashboard counter", zap.String("counter", what), zap.Error(err))
		}
		apply()
	}
	one := apiclient.ListQuery{Page: 1, Limit: 1}

	var g errgroup.Group
	for _, status := range models.ArticleStatuses {
		g.Go(func() error {
			q := one
			q.Status = string(status)
			res, err := api.ListArticles(ctx, q)
			set(func() { st.Articles[string(status)] = totalOr(res.Meta.Total, err) }, err, "articles")
			return nil
		})
	}
	g.Go(func() error {
		q := one
		q.Category = models.CategorySelectPlus
		res, err := api.ListArticles(ctx, q)
		set(func() { st.SelectPlus = totalOr(res.Meta.Total, err) }, err, "select-plus")
		return nil
	})
	g.Go(func() error {
		q := one
		q.Status = string(models.EventUpcoming)
		res, err := api.ListEvents(ctx, q)
		set(func() { st.UpcomingEvents = totalOr(res.Meta.Total, err) }, err, "events")
		return nil
	})
	for _, kind := range []models.SubmissionKind{models.SubmissionContact, models.SubmissionArtist} {
		g.Go(func() error {
			q := one
			q.Status = string(models.SubmissionNew)
			res, err := api.ListSubmissions(ctx, kind, q)
			set(func() {
				if kind == models.SubmissionContact {
					st.NewContact = totalOr(res.Meta.Total, err)
				} else {
					st.NewArtist = totalOr(res.Meta.Total, err)
				}
			}, err, "submissions")
			return nil
		})
	}
	_ = g.Wait()
	return st
}

func totalOr(total int, err error) int {
	if err != nil {
		return -1
	}
	return total
}

func (h *Handler) dashboard(c *gin.Context) {
	var jobs []cron.ListItem
	if h.scheduler != nil {
		jobs = h.scheduler.List()
	}
	h.view.Render(c, http.StatusOK, "admin/dashboard", "Dashboard", gin.H{
		"Stats":            h.stats(c.Request.Context(), h.api(c)),
		"Jobs":             jobs,
		"SettingsLoadedAt": h.settings.LoadedAt(),
	})
}
