package admin

import (
	"context"
	"errors"
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

var pageSizes = []int{10, 20, 50, 100}

type checker interface {
	Check(validation.Errors)
}

// bindForm binds and validates the posted form into dst.
func bindForm(c *gin.Context, dst checker) validation.Errors {
	errs := validation.Errors{}
	if err := c.ShouldBind(dst); err != nil {
		errs = validation.FromBinding(err)
	}
	dst.Check(errs)
	return errs
}

func articleStatuses() []string {
	out := make([]string, len(models.ArticleStatuses))
	for i, s := range models.ArticleStatuses {
		out[i] = string(s)
	}
	return out
}

func (h *Handler) listArticles(c *gin.Context) {
	page := pagination.FromContext(c)
	q := apiclient.ListQuery{
		Status:   c.Query("status"),
		Category: c.Query("category"),
		Search:   c.Query("search"),
	}
	res, err := listing.Articles(c.Request.Context(), h.api(c), h.logger, q, page)
	if err != nil {
		h.logger.Warn("list articles", zap.Error(err))
		view.FlashNow(c, view.FlashError, apiclient.MessageOr(err, "Could not load articles."))
		res = listing.ArticlePage{Items: []models.Article{}, Meta: response.Meta{Page: page.Page, Limit: page.Size}}
	}
	h.view.Render(c, http.StatusOK, "admin/articles/list", "Articles", gin.H{
		"Items":      res.Items,
		"Meta":       res.Meta,
		"Truncated":  res.Truncated,
		"PerStatus":  listing.PerStatusLimit,
		"Query":      c.Request.URL.Query(),
		"Statuses":   articleStatuses(),
		"Categories": h.settings.ArticleCategories(),
		"Sizes":      pageSizes,
	})
}

func (h *Handler) renderArticleForm(c *gin.Context, status int, id string, form ArticleForm, errs validation.Errors) {
	title, action := "New article", "/admin/articles"
	if id != "" {
		title, action = "Edit article", "/admin/articles/"+id
	}
	if form.ContentFormat == "" {
		form.ContentFormat = formatHTML
	}
	h.view.Render(c, status, "admin/articles/form", title, gin.H{
		"ID":         id,
		"Action":     action,
		"Form":       form,
		"Errors":     errs,
		"Statuses":   articleStatuses(),
		"Categories": h.settings.ArticleCategories(),
	})
}

func (h *Handler) newArticle(c *gin.Context) {
	h.renderArticleForm(c, http.StatusOK, "", ArticleForm{Status: string(models.ArticleDraft)}, validation.Errors{})
}

func (h *Handler) editArticle(c *gin.Context) {
	a, err := h.api(c).GetArticle(c.Request.Context(), c.Param("id"))
	if err != nil {
		if h.missing(c, err, "/admin/articles", "Back to articles") {
			return
		}
		h.fail(c, err, "Could not load the article.", "/admin/articles")
		return
	}
	if a.Category == models.CategorySelectPlus {
		c.Redirect(http.StatusFound, "/admin/select-plus/"+a.ID+"/edit")
		return
	}
	h.renderArticleForm(c, http.StatusOK, a.ID, articleFormFrom(a), validation.Errors{})
}

func (h *Handler) createArticle(c *gin.Context) { h.saveArticle(c, "") }

func (h *Handler) updateArticle(c *gin.Context) { h.saveArticle(c, c.Param("id")) }

// saveArticle validates the form, uploads a new hero image if one was chosen
// and only then creates or updates the article.
func (h *Handler) saveArticle(c *gin.Context, id string) {
	var form ArticleForm
	errs := bindForm(c, &form)
	if !errs.Empty() {
		h.renderArticleForm(c, http.StatusUnprocessableEntity, id, form, errs)
		return
	}
	hero, err := h.pendingFile(c, "heroMedia", "heroMediaUrl", "articles")
	if err != nil {
		errs.Add("HeroMediaURL", uploadMessage(err))
		h.renderArticleForm(c, http.StatusUnprocessableEntity, id, form, errs)
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
		h.formFailure(c, err, errs, "HeroMediaURL", "Could not save the article.")
		h.renderArticleForm(c, http.StatusBadGateway, id, form, errs)
		return
	}

	h.changed(c)
	view.SetFlash(c, view.FlashSuccess, "Saved \""+article.Title+"\".")
	c.Redirect(http.StatusSeeOther, "/admin/articles")
}

// formFailure records a failed submit on the re-rendered form. Upload errors
// sit next to the file field, backend errors become the page message.
func (h *Handler) formFailure(c *gin.Context, err error, errs validation.Errors, fileField, fallback string) {
	var upErr *upload.Error
	if errors.As(err, &upErr) {
		h.logger.Warn("upload failed, form not submitted", zap.String("field", upErr.Field), zap.Error(upErr.Err))
		errs.Add(fileField, uploadMessage(upErr.Err))
		view.FlashNow(c, view.FlashError, uploadMessage(upErr.Err))
		return
	}
	h.logger.Warn(fallback, zap.Error(err))
	view.FlashNow(c, view.FlashError, apiclient.MessageOr(err, fallback))
}

func (h *Handler) deleteArticle(c *gin.Context) {
	if err := h.api(c).DeleteArticle(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err, "Could not delete the article.", "/admin/articles")
		return
	}
	h.changed(c)
	view.SetFlash(c, view.FlashSuccess, "Article deleted.")
	c.Redirect(http.StatusSeeOther, "/admin/articles")
}

// preview renders posted editor content the way the public page shows it.
func (h *Handler) preview(c *gin.Context) {
	form := ArticleForm{
		ContentFormat: c.PostForm("contentFormat"),
		Content:       c.PostForm("content"),
		Markdown:      c.PostForm("markdown"),
	}
	h.view.Render(c, http.StatusOK, "fragment/preview", "Preview", gin.H{"HTML": form.HTML()})
}
