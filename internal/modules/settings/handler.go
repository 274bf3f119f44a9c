package settings

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mutualsplus/site/internal/apiclient"
	"github.com/mutualsplus/site/internal/models"
	"github.com/mutualsplus/site/internal/modules/auth"
	"github.com/mutualsplus/site/internal/pkg/view"
)

type UpdateForm struct {
	Value string             `form:"value"`
	Type  models.SettingType `form:"type" binding:"omitempty,oneof=text json boolean number"`
}

type Handler struct {
	svc    *Service
	client *apiclient.Client
	view   *view.Renderer
	// onChange runs after a successful update, e.g. to purge page caches.
	onChange func(c *gin.Context)
}

func NewHandler(svc *Service, client *apiclient.Client, renderer *view.Renderer, onChange func(c *gin.Context)) *Handler {
	return &Handler{svc: svc, client: client, view: renderer, onChange: onChange}
}

// RegisterRoutes mounts the admin settings screen on a guarded group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/settings", h.list)
	rg.POST("/settings/:key", h.update)
}

func (h *Handler) list(c *gin.Context) {
	list, err := h.client.WithToken(auth.Token(c)).ListSettings(c.Request.Context())
	if err != nil {
		h.svc.logger.Warn("list settings", zap.Error(err))
		view.FlashNow(c, view.FlashError, apiclient.MessageOr(err, "Could not load settings."))
		list = h.svc.All()
	}
	h.view.Render(c, http.StatusOK, "admin/settings", "Settings", gin.H{"Settings": list})
}

func (h *Handler) update(c *gin.Context) {
	key := c.Param("key")
	var form UpdateForm
	if err := c.ShouldBind(&form); err != nil {
		view.SetFlash(c, view.FlashError, "Unknown setting type.")
		c.Redirect(http.StatusSeeOther, "/admin/settings")
		return
	}
	if form.Type == "" {
		form.Type = models.SettingText
	}
	value := strings.TrimSpace(form.Value)
	if !validValue(form.Type, value) {
		view.SetFlash(c, view.FlashError, "The value of "+key+" is not valid "+string(form.Type)+".")
		c.Redirect(http.StatusSeeOther, "/admin/settings")
		return
	}

	st, err := h.client.WithToken(auth.Token(c)).UpdateSetting(c.Request.Context(), key, value, form.Type)
	if err != nil {
		view.SetFlash(c, view.FlashError, apiclient.MessageOr(err, "Could not save the setting."))
		c.Redirect(http.StatusSeeOther, "/admin/settings")
		return
	}
	h.svc.Store(st)
	if h.onChange != nil {
		h.onChange(c)
	}
	view.SetFlash(c, view.FlashSuccess, "Saved "+key+".")
	c.Redirect(http.StatusSeeOther, "/admin/settings")
}

func validValue(typ models.SettingType, value string) bool {
	switch typ {
	case models.SettingJSON:
		return json.Valid([]byte(value))
	case models.SettingBoolean:
		_, err := strconv.ParseBool(value)
		return err == nil
	case models.SettingNumber:
		_, err := strconv.ParseFloat(value, 64)
		return err == nil
	default:
		return true
	}
}
