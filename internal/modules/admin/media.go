package admin

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mutualsplus/site/internal/apiclient"
	"github.com/mutualsplus/site/internal/models"
	"github.com/mutualsplus/site/internal/modules/upload"
	"github.com/mutualsplus/site/internal/pkg/pagination"
	"github.com/mutualsplus/site/internal/pkg/response"
	"github.com/mutualsplus/site/internal/pkg/view"
)

var fileTypes = []string{string(models.FileImage), string(models.FileVideo), string(models.FileAudio), string(models.FileDocument)}

func (h *Handler) listMedia(c *gin.Context) {
	page := pagination.FromContext(c)
	res, err := h.api(c).ListMedia(c.Request.Context(), apiclient.ListQuery{
		Page:    page.Page,
		Limit:   page.Size,
		Search:  c.Query("search"),
		Filters: map[string]string{"fileType": c.Query("fileType"), "folder": c.Query("folder")},
	})
	items := []models.MediaFile{}
	meta := response.Meta{Page: page.Page, Limit: page.Size}
	if err != nil {
		h.logger.Warn("list media", zap.Error(err))
		view.FlashNow(c, view.FlashError, apiclient.MessageOr(err, "Could not load media."))
	} else {
		items = res.Items
		meta.Total = res.Meta.Total
		meta.TotalPages = pagination.TotalPages(res.Meta.Total, page.Size)
	}
	h.view.Render(c, http.StatusOK, "admin/media/list", "Media", gin.H{
		"Items":     items,
		"Meta":      meta,
		"Query":     c.Request.URL.Query(),
		"FileTypes": fileTypes,
		"Sizes":     pageSizes,
	})
}

func (h *Handler) uploadMedia(c *gin.Context) {
	folder := strings.TrimSpace(c.PostForm("folder"))
	if folder == "" {
		folder = "library"
	}
	pending, err := h.pendingFile(c, "file", "file", folder)
	if err != nil || pending.File == nil {
		msg := "Choose a file to upload."
		if err != nil {
			msg = uploadMessage(err)
		}
		view.SetFlash(c, view.FlashError, msg)
		c.Redirect(http.StatusSeeOther, "/admin/media")
		return
	}
	url, err := h.uploader(c).Upload(c.Request.Context(), *pending.File)
	if err != nil {
		h.fail(c, err, uploadMessage(err), "/admin/media")
		return
	}
	h.logger.Info("media uploaded", zap.String("file", pending.File.Filename), zap.String("url", url))
	view.SetFlash(c, view.FlashSuccess, "Uploaded "+pending.File.Filename+".")
	c.Redirect(http.StatusSeeOther, "/admin/media")
}

func (h *Handler) deleteMedia(c *gin.Context) {
	if err := h.api(c).DeleteMedia(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err, "Could not delete the file.", "/admin/media")
		return
	}
	view.SetFlash(c, view.FlashSuccess, "File deleted.")
	c.Redirect(http.StatusSeeOther, "/admin/media")
}

type imageUploadResponse struct {
	URL string `json:"url"`
}

// uploadImage stores an image inserted in the rich text editor and answers
// with its public URL.
func (h *Handler) uploadImage(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "No image provided")
		return
	}
	f, err := upload.FromFormFile(fh, "editor", h.maxUpload)
	if err != nil {
		if errors.Is(err, upload.ErrTooLarge) {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, response.Envelope{Success: false, Message: "Image is too large"})
			return
		}
		response.BadRequest(c, err.Error())
		return
	}
	if f == nil {
		response.BadRequest(c, "No image provided")
		return
	}
	if models.FileTypeForMime(f.ContentType) != models.FileImage {
		response.UnprocessableEntity(c, "Only images can be inserted")
		return
	}

	up := h.imageBed
	if up == nil {
		up = h.uploader(c)
	}
	url, err := up.Upload(c.Request.Context(), *f)
	if err != nil {
		h.logger.Warn("editor image upload", zap.Error(err))
		response.UpstreamError(c, err, "Image upload failed")
		return
	}
	response.OK(c, imageUploadResponse{URL: url})
}
