package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mutualsplus/site/internal/apiclient"
	"github.com/mutualsplus/site/internal/middleware"
	"github.com/mutualsplus/site/internal/pkg/validation"
	"github.com/mutualsplus/site/internal/pkg/view"
)

const loginFailed = "Login failed. Please check your credentials."

type LoginForm struct {
	Email    string `form:"email" binding:"required,email"`
	Password string `form:"password" binding:"required"`
	From     string `form:"from"`
}

type Handler struct {
	svc  *Service
	view *view.Renderer
}

func NewHandler(svc *Service, renderer *view.Renderer) *Handler {
	return &Handler{svc: svc, view: renderer}
}

// RegisterRoutes mounts the login and logout endpoints. rg must sit behind the
// admin gate so signed-in visitors skip the login page.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/login", h.loginPage)
	rg.POST("/login", h.login)
	rg.POST("/logout", h.logout)
}

func (h *Handler) renderLogin(c *gin.Context, status int, form LoginForm, errs validation.Errors) {
	h.view.Render(c, status, "admin/login", "Sign in", gin.H{
		"Form":   form,
		"Errors": errs,
	})
}

func (h *Handler) loginPage(c *gin.Context) {
	h.renderLogin(c, http.StatusOK, LoginForm{From: c.Query("from")}, validation.Errors{})
}

func (h *Handler) login(c *gin.Context) {
	var form LoginForm
	if err := c.ShouldBind(&form); err != nil {
		form.Password = ""
		h.renderLogin(c, http.StatusUnprocessableEntity, form, validation.FromBinding(err))
		return
	}

	sess, err := h.svc.Login(c.Request.Context(), form.Email, form.Password)
	if err != nil {
		h.svc.logger.Info("login rejected", zap.String("email", form.Email), zap.Error(err))
		form.Password = ""
		view.FlashNow(c, view.FlashError, apiclient.MessageOr(err, loginFailed))
		h.renderLogin(c, http.StatusUnauthorized, form, validation.Errors{})
		return
	}

	h.svc.SetCookie(c, sess.AccessToken)
	c.Redirect(http.StatusSeeOther, middleware.SafeAdminRedirect(form.From))
}

func (h *Handler) logout(c *gin.Context) {
	token, _ := c.Cookie(CookieName)
	if err := h.svc.Logout(c.Request.Context(), token); err != nil {
		h.svc.logger.Warn("logout", zap.Error(err))
	}
	h.svc.ClearCookie(c)
	c.Redirect(http.StatusSeeOther, middleware.AdminLoginPath)
}
