package site

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mutualsplus/site/internal/apiclient"
	"github.com/mutualsplus/site/internal/models"
	"github.com/mutualsplus/site/internal/modules/content/selectplus"
	"github.com/mutualsplus/site/internal/pkg/pagination"
	"github.com/mutualsplus/site/internal/pkg/response"
)

const published = string(models.ArticlePublished)

// homeSections is what the homepage shows. A section whose request failed is
// left empty.
type homeSections struct {
	Slides     []models.HeroSlide
	Featured   []models.Article
	Latest     []models.Article
	SelectPlus []models.Article
	Events     []models.Event
}

func (h *Handler) home(c *gin.Context) {
	ctx := c.Request.Context()
	var s homeSections
	errs := make([]error, 5)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.Slides, errs[0] = h.client.ListHeroSlides(gctx)
		return nil
	})
	g.Go(func() error {
		res, err := h.client.ListArticles(gctx, apiclient.ListQuery{Limit: 3, Status: published, Featured: apiclient.Bool(true)})
		s.Featured, errs[1] = res.Items, err
		return nil
	})
	g.Go(func() error {
		res, err := h.client.ListArticles(gctx, apiclient.ListQuery{Limit: 6, Status: published})
		s.Latest, errs[2] = res.Items, err
		return nil
	})
	g.Go(func() error {
		res, err := h.client.ListArticles(gctx, apiclient.ListQuery{Limit: 3, Status: published, Category: models.CategorySelectPlus})
		s.SelectPlus, errs[3] = res.Items, err
		return nil
	})
	g.Go(func() error {
		res, err := h.client.ListEvents(gctx, apiclient.ListQuery{Limit: 3, Status: string(models.EventUpcoming)})
		s.Events, errs[4] = res.Items, err
		return nil
	})
	_ = g.Wait()

	var last error
	failures := 0
	for _, err := range errs {
		if err != nil {
			failures++
			last = err
			h.logger.Warn("load home section", zap.Error(err))
		}
	}
	if failures == len(errs) {
		h.unavailable(c, last, "home")
		return
	}
	h.view.Render(c, http.StatusOK, "site/home", "", s)
}

// listPage is the data behind every paginated public grid.
type listPage[T any] struct {
	Items      []T
	Meta       response.Meta
	Query      url.Values
	Categories []string
	Heading    string
}

func metaFor(res apiclient.Meta, page pagination.Query) response.Meta {
	return response.Meta{
		Total:      res.Total,
		Page:       page.Page,
		Limit:      page.Size,
		TotalPages: pagination.TotalPages(res.Total, page.Size),
	}
}

func (h *Handler) editorial(c *gin.Context) {
	page := pagination.FromContext(c)
	res, err := h.client.ListArticles(c.Request.Context(), apiclient.ListQuery{
		Page:     page.Page,
		Limit:    page.Size,
		Status:   published,
		Category: c.Query("category"),
		Search:   c.Query("search"),
	})
	if err != nil {
		h.unavailable(c, err, "editorial")
		return
	}
	h.view.Render(c, http.StatusOK, "site/editorial/list", "Editorial", listPage[models.Article]{
		Items:      res.Items,
		Meta:       metaFor(res.Meta, page),
		Query:      c.Request.URL.Query(),
		Categories: h.settings.ArticleCategories(),
		Heading:    "Editorial",
	})
}

// publishedArticle loads a public article. Drafts and archived pieces are
// treated as missing.
func (h *Handler) publishedArticle(c *gin.Context) (models.Article, error) {
	a, err := h.client.GetArticleBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		return a, err
	}
	if a.Status != "" && a.Status != models.ArticlePublished {
		return models.Article{}, apiclient.ErrNotFound
	}
	return a, nil
}

func (h *Handler) article(c *gin.Context) {
	a, err := h.publishedArticle(c)
	if err != nil {
		if errors.Is(err, apiclient.ErrNotFound) {
			h.view.NotFound(c, "/editorial", "Back to editorial")
			return
		}
		h.unavailable(c, err, "article")
		return
	}
	if a.Category == models.CategorySelectPlus {
		c.Redirect(http.StatusMovedPermanently, "/select-plus/"+a.Slug)
		return
	}
	h.view.Render(c, http.StatusOK, "site/editorial/detail", a.Title, gin.H{"Article": a})
}

func (h *Handler) selectPlus(c *gin.Context) {
	page := pagination.FromContext(c)
	res, err := h.client.ListArticles(c.Request.Context(), apiclient.ListQuery{
		Page:     page.Page,
		Limit:    page.Size,
		Status:   published,
		Category: models.CategorySelectPlus,
		Search:   c.Query("search"),
	})
	if err != nil {
		h.unavailable(c, err, "select-plus")
		return
	}
	h.view.Render(c, http.StatusOK, "site/selectplus/list", "Select+", listPage[models.Article]{
		Items:   res.Items,
		Meta:    metaFor(res.Meta, page),
		Query:   c.Request.URL.Query(),
		Heading: "Select+",
	})
}

func (h *Handler) feature(c *gin.Context) {
	a, err := h.publishedArticle(c)
	if err != nil {
		if errors.Is(err, apiclient.ErrNotFound) {
			h.view.NotFound(c, "/select-plus", "Back to Select+")
			return
		}
		h.unavailable(c, err, "feature")
		return
	}
	if a.Category != models.CategorySelectPlus {
		c.Redirect(http.StatusMovedPermanently, "/editorial/"+a.Slug)
		return
	}
	h.view.Render(c, http.StatusOK, "site/selectplus/detail", a.Title, gin.H{
		"Article": a,
		"Feature": selectplus.FromArticle(a),
	})
}

func (h *Handler) events(c *gin.Context) {
	page := pagination.FromContext(c)
	status := models.EventUpcoming
	if c.Query("status") == string(models.EventPast) {
		status = models.EventPast
	}
	res, err := h.client.ListEvents(c.Request.Context(), apiclient.ListQuery{
		Page:    page.Page,
		Limit:   page.Size,
		Status:  string(status),
		Search:  c.Query("search"),
		Filters: map[string]string{"eventType": c.Query("eventType")},
	})
	if err != nil {
		h.unavailable(c, err, "events")
		return
	}
	heading := "Upcoming events"
	if status == models.EventPast {
		heading = "Past events"
	}
	h.view.Render(c, http.StatusOK, "site/events/list", "Events", listPage[models.Event]{
		Items:      res.Items,
		Meta:       metaFor(res.Meta, page),
		Query:      c.Request.URL.Query(),
		Categories: h.settings.EventTypes(),
		Heading:    heading,
	})
}

func (h *Handler) event(c *gin.Context) {
	e, err := h.client.GetEventBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, apiclient.ErrNotFound) {
			h.view.NotFound(c, "/events", "Back to events")
			return
		}
		h.unavailable(c, err, "event")
		return
	}
	h.view.Render(c, http.StatusOK, "site/events/detail", e.Title, gin.H{"Event": e})
}

func (h *Handler) shop(c *gin.Context) {
	page := pagination.FromContext(c)
	res, err := h.client.ListProducts(c.Request.Context(), apiclient.ListQuery{
		Page:     page.Page,
		Limit:    page.Size,
		Category: c.Query("category"),
		Search:   c.Query("search"),
	})
	if err != nil {
		h.unavailable(c, err, "shop")
		return
	}
	h.view.Render(c, http.StatusOK, "site/shop/list", "Shop", listPage[models.Product]{
		Items:   res.Items,
		Meta:    metaFor(res.Meta, page),
		Query:   c.Request.URL.Query(),
		Heading: "Shop",
	})
}

func (h *Handler) product(c *gin.Context) {
	p, err := h.client.GetProductBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, apiclient.ErrNotFound) {
			h.view.NotFound(c, "/shop", "Back to the shop")
			return
		}
		h.unavailable(c, err, "product")
		return
	}
	h.view.Render(c, http.StatusOK, "site/shop/product", p.Name, gin.H{"Product": p})
}

func (h *Handler) music(c *gin.Context) {
	var djs []models.DJ
	var playlists []models.Playlist
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error {
		res, err := h.client.ListDJs(ctx, apiclient.ListQuery{Limit: 100})
		djs = res.Items
		return err
	})
	g.Go(func() error {
		res, err := h.client.ListPlaylists(ctx, apiclient.ListQuery{Limit: 100})
		playlists = res.Items
		return err
	})
	if err := g.Wait(); err != nil {
		h.unavailable(c, err, "music")
		return
	}
	h.view.Render(c, http.StatusOK, "site/music", "Music", gin.H{
		"DJs":       djs,
		"Playlists": playlists,
	})
}
