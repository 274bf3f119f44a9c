package admin

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mutualsplus/site/internal/apiclient"
	"github.com/mutualsplus/site/internal/models"
	"github.com/mutualsplus/site/internal/modules/listing"
	"github.com/mutualsplus/site/internal/modules/upload"
	"github.com/mutualsplus/site/internal/pkg/pagination"
	"github.com/mutualsplus/site/internal/pkg/response"
	"github.com/mutualsplus/site/internal/pkg/validation"
	"github.com/mutualsplus/site/internal/pkg/view"
)

func (h *Handler) listFeatures(c *gin.Context) {
	page := pagination.FromContext(c)
	q := apiclient.ListQuery{
		Status:   c.Query("status"),
		Category: models.CategorySelectPlus,
		Search:   c.Query("search"),
	}
	res, err := listing.Articles(c.Request.Context(), h.api(c), h.logger, q, page)
	if err != nil {
		h.logger.Warn("list select+ features", zap.Error(err))
		view.FlashNow(c, view.FlashError, apiclient.MessageOr(err, "Could not load Select+ features."))
		res = listing.ArticlePage{Items: []models.Article{}, Meta: response.Meta{Page: page.Page, Limit: page.Size}}
	}
	h.view.Render(c, http.StatusOK, "admin/selectplus/list", "Select+", gin.H{
		"Items":     res.Items,
		"Meta":      res.Meta,
		"Truncated": res.Truncated,
		"PerStatus": listing.PerStatusLimit,
		"Query":     c.Request.URL.Query(),
		"Statuses":  articleStatuses(),
		"Sizes":     pageSizes,
	})
}

func (h *Handler) renderFeatureForm(c *gin.Context, status int, id string, form FeatureForm, errs validation.Errors) {
	title, action := "New Select+ feature", "/admin/select-plus"
	if id != "" {
		title, action = "Edit Select+ feature", "/admin/select-plus/"+id
	}
	form.Category = models.CategorySelectPlus
	if form.ContentFormat == "" {
		form.ContentFormat = formatHTML
	}
	h.view.Render(c, status, "admin/selectplus/form", title, gin.H{
		"ID":       id,
		"Action":   action,
		"Form":     form,
		"Errors":   errs,
		"Statuses": articleStatuses(),
		"Preview":  form.Feature(),
	})
}

func (h *Handler) newFeature(c *gin.Context) {
	form := FeatureForm{ArticleForm: ArticleForm{Status: string(models.ArticleDraft)}}
	h.renderFeatureForm(c, http.StatusOK, "", form, validation.Errors{})
}

func (h *Handler) editFeature(c *gin.Context) {
	a, err := h.api(c).GetArticle(c.Request.Context(), c.Param("id"))
	if err != nil {
		if h.missing(c, err, "/admin/select-plus", "Back to Select+") {
			return
		}
		h.fail(c, err, "Could not load the feature.", "/admin/select-plus")
		return
	}
	h.renderFeatureForm(c, http.StatusOK, a.ID, featureFormFrom(a), validation.Errors{})
}

func (h *Handler) createFeature(c *gin.Context) { h.saveFeature(c, "") }

func (h *Handler) updateFeature(c *gin.Context) { h.saveFeature(c, c.Param("id")) }

func (h *Handler) saveFeature(c *gin.Context, id string) {
	var form FeatureForm
	errs := bindForm(c, &form)
	if !errs.Empty() {
		h.renderFeatureForm(c, http.StatusUnprocessableEntity, id, form, errs)
		return
	}
	hero, err := h.pendingFile(c, "heroMedia", "heroMediaUrl", "select-plus")
	if err != nil {
		errs.Add("HeroMediaURL", uploadMessage(err))
		h.renderFeatureForm(c, http.StatusUnprocessableEntity, id, form, errs)
		return
	}

	api := h.api(c)
	article, err := upload.Submit(c.Request.Context(), h.uploader(c), []upload.Pending{hero},
		func(ctx context.Context, urls map[string]string) (models.Article, error) {
			in := form.Input(urls["heroMediaUrl"], h.now())
			if id == "" {
				return api.CreateArticle(ctx, in)
			}
			return api.UpdateArticle(ctx, id, in)
		})
	if err != nil {
		h.formFailure(c, err, errs, "HeroMediaURL", "Could not save the feature.")
		h.renderFeatureForm(c, http.StatusBadGateway, id, form, errs)
		return
	}

	h.changed(c)
	view.SetFlash(c, view.FlashSuccess, "Saved \""+article.Title+"\".")
	c.Redirect(http.StatusSeeOther, "/admin/select-plus")
}

func (h *Handler) deleteFeature(c *gin.Context) {
	if err := h.api(c).DeleteArticle(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err, "Could not delete the feature.", "/admin/select-plus")
		return
	}
	h.changed(c)
	view.SetFlash(c, view.FlashSuccess, "Feature deleted.")
	c.Redirect(http.StatusSeeOther, "/admin/select-plus")
}
