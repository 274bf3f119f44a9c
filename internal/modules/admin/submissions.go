package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mutualsplus/site/internal/apiclient"
	"github.com/mutualsplus/site/internal/models"
	"github.com/mutualsplus/site/internal/pkg/pagination"
	"github.com/mutualsplus/site/internal/pkg/response"
	"github.com/mutualsplus/site/internal/pkg/view"
)

var submissionStatuses = []string{string(models.SubmissionNew), string(models.SubmissionReviewed), string(models.SubmissionArchived)}

func submissionKind(raw string) (models.SubmissionKind, bool) {
	switch models.SubmissionKind(raw) {
	case models.SubmissionContact, "":
		return models.SubmissionContact, true
	case models.SubmissionArtist:
		return models.SubmissionArtist, true
	}
	return "", false
}

func (h *Handler) listSubmissions(c *gin.Context) {
	kind, ok := submissionKind(c.Query("kind"))
	if !ok {
		h.view.NotFound(c, "/admin/submissions", "Back to submissions")
		return
	}
	page := pagination.FromContext(c)
	status := c.Query("status")
	if status == "ALL" {
		status = ""
	}
	res, err := h.api(c).ListSubmissions(c.Request.Context(), kind, apiclient.ListQuery{
		Page:     page.Page,
		Limit:    page.Size,
		Status:   status,
		Category: c.Query("category"),
		Search:   c.Query("search"),
	})
	items := []models.Submission{}
	meta := response.Meta{Page: page.Page, Limit: page.Size}
	if err != nil {
		h.logger.Warn("list submissions", zap.String("kind", string(kind)), zap.Error(err))
		view.FlashNow(c, view.FlashError, apiclient.MessageOr(err, "Could not load submissions."))
	} else {
		items = res.Items
		meta.Total = res.Meta.Total
		meta.TotalPages = pagination.TotalPages(res.Meta.Total, page.Size)
	}
	var categories []string
	if kind == models.SubmissionContact {
		categories = h.settings.ContactCategories()
	}
	h.view.Render(c, http.StatusOK, "admin/submissions/list", "Submissions", gin.H{
		"Kind":       string(kind),
		"Items":      items,
		"Meta":       meta,
		"Query":      c.Request.URL.Query(),
		"Statuses":   submissionStatuses,
		"Categories": categories,
		"Sizes":      pageSizes,
	})
}

func (h *Handler) submissionTarget(c *gin.Context) (models.SubmissionKind, string, bool) {
	kind, ok := submissionKind(c.Param("kind"))
	if !ok || c.Param("kind") == "" {
		h.view.NotFound(c, "/admin/submissions", "Back to submissions")
		return "", "", false
	}
	return kind, c.Param("id"), true
}

func (h *Handler) showSubmission(c *gin.Context) {
	kind, id, ok := h.submissionTarget(c)
	if !ok {
		return
	}
	back := "/admin/submissions?kind=" + string(kind)
	s, err := h.api(c).GetSubmission(c.Request.Context(), kind, id)
	if err != nil {
		if h.missing(c, err, back, "Back to submissions") {
			return
		}
		h.fail(c, err, "Could not load the submission.", back)
		return
	}
	h.view.Render(c, http.StatusOK, "admin/submissions/show", "Submission from "+s.Name, gin.H{
		"Item":     s,
		"Kind":     string(kind),
		"Statuses": submissionStatuses,
	})
}

func (h *Handler) updateSubmissionStatus(c *gin.Context) {
	kind, id, ok := h.submissionTarget(c)
	if !ok {
		return
	}
	back := "/admin/submissions/" + string(kind) + "/" + id
	var form StatusForm
	if err := c.ShouldBind(&form); err != nil {
		view.SetFlash(c, view.FlashError, "Choose a valid status.")
		c.Redirect(http.StatusSeeOther, back)
		return
	}
	if _, err := h.api(c).UpdateSubmissionStatus(c.Request.Context(), kind, id, models.SubmissionStatus(form.Status)); err != nil {
		h.fail(c, err, "Could not update the submission.", back)
		return
	}
	view.SetFlash(c, view.FlashSuccess, "Marked as "+form.Status+".")
	c.Redirect(http.StatusSeeOther, back)
}

func (h *Handler) deleteSubmission(c *gin.Context) {
	kind, id, ok := h.submissionTarget(c)
	if !ok {
		return
	}
	list := "/admin/submissions?kind=" + string(kind)
	if err := h.api(c).DeleteSubmission(c.Request.Context(), kind, id); err != nil {
		h.fail(c, err, "Could not delete the submission.", list)
		return
	}
	view.SetFlash(c, view.FlashSuccess, "Submission deleted.")
	c.Redirect(http.StatusSeeOther, list)
}
