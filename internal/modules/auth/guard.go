package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mutualsplus/site/internal/middleware"
	"github.com/mutualsplus/site/internal/models"
	"github.com/mutualsplus/site/internal/pkg/response"
	"github.com/mutualsplus/site/internal/pkg/view"
)

const (
	ctxKeySession = "auth.session"
)

// Guard rehydrates the session named by the cookie and puts it on the request.
// Requests without a usable session have the cookie cleared and are sent to the
// login page, or get a 401 envelope when they expect JSON.
func (s *Service) Guard() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie(CookieName)
		sess, err := s.Resolve(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, ErrNoSession) && !errors.Is(err, ErrSessionExpired) {
				s.logger.Error("load session", zap.Error(err))
			}
			s.ClearCookie(c)
			if middleware.WantsJSON(c) {
				response.Unauthorized(c)
				return
			}
			if errors.Is(err, ErrSessionExpired) {
				view.SetFlash(c, view.FlashInfo, "Your session has expired. Please sign in again.")
			}
			c.Redirect(http.StatusFound, middleware.LoginRedirect(c.Request.URL.RequestURI()))
			c.Abort()
			return
		}
		if sess.AccessToken != token {
			s.SetCookie(c, sess.AccessToken)
		}
		c.Set(ctxKeySession, sess)
		c.Set(view.KeyUser, sess.User)
		c.Next()
	}
}

// Session returns the guarded request's session.
func Session(c *gin.Context) (models.AuthSession, bool) {
	v, ok := c.Get(ctxKeySession)
	if !ok {
		return models.AuthSession{}, false
	}
	sess, ok := v.(models.AuthSession)
	return sess, ok
}

// Token returns the backend access token of the guarded request.
func Token(c *gin.Context) string {
	sess, _ := Session(c)
	return sess.AccessToken
}
