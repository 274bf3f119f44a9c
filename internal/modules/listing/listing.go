// Package listing builds the admin "all statuses" view. The backend filters
// lists to a single status, so the view queries each status separately,
// merges the results and pages through them in memory.
package listing

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mutualsplus/site/internal/apiclient"
	"github.com/mutualsplus/site/internal/models"
	"github.com/mutualsplus/site/internal/pkg/pagination"
	"github.com/mutualsplus/site/internal/pkg/response"
)

// PerStatusLimit is the page size used for every per-status query.
const PerStatusLimit = 100

// FetchFunc loads the first PerStatusLimit records of one status.
type FetchFunc[T any] func(ctx context.Context, status string) (apiclient.Page[T], error)

// Merged is the combined result of every status query.
type Merged[T any] struct {
	Items []T
	// Truncated lists statuses whose backend total exceeded PerStatusLimit.
	Truncated []string
}

// MergeAll runs fetch for every status concurrently and returns the union
// sorted by date descending, ties broken by id ascending. Any failure fails the
// whole merge.
func MergeAll[T any](ctx context.Context, statuses []string, fetch FetchFunc[T], date func(T) time.Time, id func(T) string) (Merged[T], error) {
	pages := make([]apiclient.Page[T], len(statuses))
	g, gctx := errgroup.WithContext(ctx)
	for i, status := range statuses {
		g.Go(func() error {
			p, err := fetch(gctx, status)
			if err != nil {
				return fmt.Errorf("list status %s: %w", status, err)
			}
			pages[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Merged[T]{}, err
	}

	var out Merged[T]
	for i, p := range pages {
		out.Items = append(out.Items, p.Items...)
		if p.Meta.Total > PerStatusLimit {
			out.Truncated = append(out.Truncated, statuses[i])
		}
	}
	SortByDateDesc(out.Items, date, id)
	return out, nil
}

// SortByDateDesc orders items newest first with a deterministic tie-break.
func SortByDateDesc[T any](items []T, date func(T) time.Time, id func(T) string) {
	sort.SliceStable(items, func(i, j int) bool {
		di, dj := date(items[i]), date(items[j])
		if !di.Equal(dj) {
			return di.After(dj)
		}
		return id(items[i]) < id(items[j])
	})
}

// ArticlePage is one page of the admin articles list.
type ArticlePage struct {
	Items     []models.Article
	Meta      response.Meta
	Truncated []string
}

// Articles loads one page of articles. An empty or "ALL" status merges every
// status; any other status is paged by the backend directly.
func Articles(ctx context.Context, client *apiclient.Client, logger *zap.Logger, q apiclient.ListQuery, page pagination.Query) (ArticlePage, error) {
	if q.Status != "" && q.Status != "ALL" {
		q.Page = page.Page
		q.Limit = page.Size
		res, err := client.ListArticles(ctx, q)
		if err != nil {
			return ArticlePage{}, err
		}
		return ArticlePage{
			Items: res.Items,
			Meta: response.Meta{
				Total:      res.Meta.Total,
				Page:       page.Page,
				Limit:      page.Size,
				TotalPages: pagination.TotalPages(res.Meta.Total, page.Size),
			},
		}, nil
	}

	statuses := make([]string, len(models.ArticleStatuses))
	for i, s := range models.ArticleStatuses {
		statuses[i] = string(s)
	}
	merged, err := MergeAll(ctx, statuses,
		func(ctx context.Context, status string) (apiclient.Page[models.Article], error) {
			sq := q
			sq.Status = status
			sq.Page = 1
			sq.Limit = PerStatusLimit
			return client.ListArticles(ctx, sq)
		},
		models.Article.SortDate,
		func(a models.Article) string { return a.ID },
	)
	if err != nil {
		return ArticlePage{}, err
	}
	if len(merged.Truncated) > 0 && logger != nil {
		logger.Warn("all-status article list truncated",
			zap.Strings("statuses", merged.Truncated),
			zap.Int("per_status_limit", PerStatusLimit),
		)
	}

	items, meta := pagination.Slice(merged.Items, page)
	return ArticlePage{Items: items, Meta: meta, Truncated: merged.Truncated}, nil
}
