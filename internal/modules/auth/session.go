// Package auth signs admins in against the backend and keeps their session on
// the server, addressed by the token in the mutuals_auth_token cookie.
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/mutualsplus/site/internal/apiclient"
	"github.com/mutualsplus/site/internal/models"
	"github.com/mutualsplus/site/internal/pkg/jwt"
	"github.com/mutualsplus/site/internal/pkg/statestore"
)

const (
	CookieName = "mutuals_auth_token"
	SessionTTL = 7 * 24 * time.Hour

	// expiryLeeway treats tokens this close to expiry as already expired.
	expiryLeeway = 30 * time.Second
	// rotationGrace is how long a replaced access token still resolves.
	rotationGrace = time.Minute
)

var (
	ErrNoSession      = errors.New("no session")
	ErrSessionExpired = errors.New("session expired")
)

// Backend is the part of the API client the session service calls.
type Backend interface {
	Login(ctx context.Context, email, password string) (apiclient.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (apiclient.AuthResult, error)
	CurrentUser(ctx context.Context, token string) (models.User, error)
}

type CookieOptions struct {
	HTTPOnly bool
	Secure   bool
}

type Service struct {
	backend Backend
	state   statestore.Store
	cookie  CookieOptions
	logger  *zap.Logger
	now     func() time.Time

	refreshes singleflight.Group
}

func NewService(backend Backend, state statestore.Store, cookie CookieOptions, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		backend: backend,
		state:   state,
		cookie:  cookie,
		logger:  logger.Named("auth"),
		now:     time.Now,
	}
}

// sessionKey hashes the token so raw bearer tokens never become store keys.
func sessionKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "session:" + hex.EncodeToString(sum[:])
}

func (s *Service) save(ctx context.Context, sess models.AuthSession) error {
	if err := statestore.SaveJSON(ctx, s.state, sessionKey(sess.AccessToken), sess, SessionTTL); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Login authenticates against the backend and stores the new session.
func (s *Service) Login(ctx context.Context, email, password string) (models.AuthSession, error) {
	res, err := s.backend.Login(ctx, email, password)
	if err != nil {
		return models.AuthSession{}, err
	}
	if res.User.Email == "" {
		// Some backends return only the token pair.
		if u, err := s.backend.CurrentUser(ctx, res.AccessToken); err == nil {
			res.User = u
		} else {
			s.logger.Warn("fetch signed-in user", zap.Error(err))
		}
	}
	sess := models.AuthSession{
		User:         res.User,
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		SavedAt:      s.now(),
	}
	if err := s.save(ctx, sess); err != nil {
		return models.AuthSession{}, err
	}
	s.logger.Info("admin signed in", zap.String("user", res.User.Email))
	return sess, nil
}

// Load returns the stored session for token.
func (s *Service) Load(ctx context.Context, token string) (models.AuthSession, error) {
	if token == "" {
		return models.AuthSession{}, ErrNoSession
	}
	var sess models.AuthSession
	err := statestore.LoadJSON(ctx, s.state, sessionKey(token), &sess)
	if errors.Is(err, statestore.ErrNotFound) {
		return models.AuthSession{}, ErrNoSession
	}
	if err != nil {
		return models.AuthSession{}, err
	}
	return sess, nil
}

// Resolve loads the session for token and refreshes it once when the access
// token has expired. The returned session may carry a new access token.
func (s *Service) Resolve(ctx context.Context, token string) (models.AuthSession, error) {
	sess, err := s.Load(ctx, token)
	if err != nil {
		return models.AuthSession{}, err
	}
	if !jwt.Expired(sess.AccessToken, s.now(), expiryLeeway) {
		return sess, nil
	}
	if sess.RefreshToken == "" {
		_ = s.state.Delete(ctx, sessionKey(token))
		return models.AuthSession{}, ErrSessionExpired
	}

	v, err, _ := s.refreshes.Do(sessionKey(token), func() (interface{}, error) {
		return s.refresh(context.WithoutCancel(ctx), token, sess)
	})
	if err != nil {
		return models.AuthSession{}, err
	}
	return v.(models.AuthSession), nil
}

// refresh trades the refresh token of sess for a new pair. After a rotation the
// old token forwards to the new session for rotationGrace.
func (s *Service) refresh(ctx context.Context, token string, sess models.AuthSession) (models.AuthSession, error) {
	res, err := s.backend.Refresh(ctx, sess.RefreshToken)
	if err != nil {
		// Another instance may have rotated the pair first.
		if cur, loadErr := s.Load(ctx, token); loadErr == nil && cur.AccessToken != token &&
			!jwt.Expired(cur.AccessToken, s.now(), expiryLeeway) {
			return cur, nil
		}
		s.logger.Info("session refresh failed", zap.String("user", sess.User.Email), zap.Error(err))
		_ = s.state.Delete(ctx, sessionKey(token))
		return models.AuthSession{}, fmt.Errorf("%w: %v", ErrSessionExpired, err)
	}
	next := models.AuthSession{
		User:         sess.User,
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		SavedAt:      s.now(),
	}
	if res.User.ID != "" {
		next.User = res.User
	}
	if err := s.save(ctx, next); err != nil {
		return models.AuthSession{}, err
	}
	if next.AccessToken != token {
		if err := statestore.SaveJSON(ctx, s.state, sessionKey(token), next, rotationGrace); err != nil {
			s.logger.Warn("forward rotated session", zap.Error(err))
		}
	}
	return next, nil
}

// Logout forgets the session for token.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.state.Delete(ctx, sessionKey(token))
}

// SetCookie writes the session cookie for token.
func (s *Service) SetCookie(c *gin.Context, token string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(SessionTTL / time.Second),
		HttpOnly: s.cookie.HTTPOnly,
		Secure:   s.cookie.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearCookie expires the session cookie.
func (s *Service) ClearCookie(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: s.cookie.HTTPOnly,
		Secure:   s.cookie.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}
