package admin

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mutualsplus/site/internal/apiclient"
	"github.com/mutualsplus/site/internal/models"
	"github.com/mutualsplus/site/internal/modules/upload"
	"github.com/mutualsplus/site/internal/pkg/pagination"
	"github.com/mutualsplus/site/internal/pkg/response"
	"github.com/mutualsplus/site/internal/pkg/validation"
	"github.com/mutualsplus/site/internal/pkg/view"
)

var eventStatuses = []string{string(models.EventUpcoming), string(models.EventPast)}

func (h *Handler) listEvents(c *gin.Context) {
	page := pagination.FromContext(c)
	status := c.Query("status")
	if status == "ALL" {
		status = ""
	}
	res, err := h.api(c).ListEvents(c.Request.Context(), apiclient.ListQuery{
		Page:   page.Page,
		Limit:  page.Size,
		Status: status,
		Search: c.Query("search"),
	})
	meta := response.Meta{Page: page.Page, Limit: page.Size}
	items := []models.Event{}
	if err != nil {
		h.logger.Warn("list events", zap.Error(err))
		view.FlashNow(c, view.FlashError, apiclient.MessageOr(err, "Could not load events."))
	} else {
		items = res.Items
		meta.Total = res.Meta.Total
		meta.TotalPages = pagination.TotalPages(res.Meta.Total, page.Size)
	}
	h.view.Render(c, http.StatusOK, "admin/events/list", "Events", gin.H{
		"Items":    items,
		"Meta":     meta,
		"Query":    c.Request.URL.Query(),
		"Statuses": eventStatuses,
		"Sizes":    pageSizes,
	})
}

func (h *Handler) renderEventForm(c *gin.Context, status int, id string, form EventForm, errs validation.Errors) {
	title, action := "New event", "/admin/events"
	if id != "" {
		title, action = "Edit event", "/admin/events/"+id
	}
	h.view.Render(c, status, "admin/events/form", title, gin.H{
		"ID":         id,
		"Action":     action,
		"Form":       form,
		"Errors":     errs,
		"Statuses":   eventStatuses,
		"EventTypes": h.settings.EventTypes(),
	})
}

func (h *Handler) newEvent(c *gin.Context) {
	h.renderEventForm(c, http.StatusOK, "", EventForm{Status: string(models.EventUpcoming)}, validation.Errors{})
}

func (h *Handler) editEvent(c *gin.Context) {
	e, err := h.api(c).GetEvent(c.Request.Context(), c.Param("id"))
	if err != nil {
		if h.missing(c, err, "/admin/events", "Back to events") {
			return
		}
		h.fail(c, err, "Could not load the event.", "/admin/events")
		return
	}
	h.renderEventForm(c, http.StatusOK, e.ID, eventFormFrom(e), validation.Errors{})
}

func (h *Handler) createEvent(c *gin.Context) { h.saveEvent(c, "") }

func (h *Handler) updateEvent(c *gin.Context) { h.saveEvent(c, c.Param("id")) }

func (h *Handler) saveEvent(c *gin.Context, id string) {
	var form EventForm
	errs := bindForm(c, &form)
	if !errs.Empty() {
		h.renderEventForm(c, http.StatusUnprocessableEntity, id, form, errs)
		return
	}
	image, err := h.pendingFile(c, "image", "imageUrl", "events")
	if err != nil {
		errs.Add("ImageURL", uploadMessage(err))
		h.renderEventForm(c, http.StatusUnprocessableEntity, id, form, errs)
		return
	}

	api := h.api(c)
	event, err := upload.Submit(c.Request.Context(), h.uploader(c), []upload.Pending{image},
		func(ctx context.Context, urls map[string]string) (models.Event, error) {
			in := form.Input(urls["imageUrl"])
			if id == "" {
				return api.CreateEvent(ctx, in)
			}
			return api.UpdateEvent(ctx, id, in)
		})
	if err != nil {
		h.formFailure(c, err, errs, "ImageURL", "Could not save the event.")
		h.renderEventForm(c, http.StatusBadGateway, id, form, errs)
		return
	}

	h.changed(c)
	view.SetFlash(c, view.FlashSuccess, "Saved \""+event.Title+"\".")
	c.Redirect(http.StatusSeeOther, "/admin/events")
}

func (h *Handler) deleteEvent(c *gin.Context) {
	if err := h.api(c).DeleteEvent(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err, "Could not delete the event.", "/admin/events")
		return
	}
	h.changed(c)
	view.SetFlash(c, view.FlashSuccess, "Event deleted.")
	c.Redirect(http.StatusSeeOther, "/admin/events")
}
