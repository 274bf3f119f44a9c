package cart

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mutualsplus/site/internal/pkg/statestore"
	"github.com/mutualsplus/site/internal/pkg/view"
)

const (
	CookieName = "mutuals_cart"
	CookieTTL  = 30 * 24 * time.Hour

	ctxKey = "cart.session"
)

// Store loads and saves carts in the state store.
type Store struct {
	state  statestore.Store
	logger *zap.Logger
	secure bool
}

func NewStore(state statestore.Store, logger *zap.Logger, secure bool) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{state: state, logger: logger.Named("cart"), secure: secure}
}

func stateKey(id string) string { return "cart:" + id }

// Load returns the cart for id. An unknown id yields an empty cart.
func (s *Store) Load(ctx context.Context, id string) (*Cart, error) {
	cart := &Cart{}
	if id == "" {
		return cart, nil
	}
	err := statestore.LoadJSON(ctx, s.state, stateKey(id), cart)
	if errors.Is(err, statestore.ErrNotFound) {
		return &Cart{}, nil
	}
	if err != nil {
		return &Cart{}, fmt.Errorf("load cart: %w", err)
	}
	return cart, nil
}

// Save persists cart under id, refreshing its expiry.
func (s *Store) Save(ctx context.Context, id string, cart *Cart) error {
	if err := statestore.SaveJSON(ctx, s.state, stateKey(id), cart, CookieTTL); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

// Session is the cart bound to the current request.
type Session struct {
	ID   string
	Cart *Cart

	store *Store
	isNew bool
}

// Save persists the session cart and issues the cookie on first write.
func (s *Session) Save(c *gin.Context) error {
	if s.isNew {
		http.SetCookie(c.Writer, &http.Cookie{
			Name:     CookieName,
			Value:    s.ID,
			Path:     "/",
			MaxAge:   int(CookieTTL / time.Second),
			HttpOnly: true,
			Secure:   s.store.secure,
			SameSite: http.SameSiteLaxMode,
		})
		s.isNew = false
	}
	return s.store.Save(c.Request.Context(), s.ID, s.Cart)
}

// Middleware loads the visitor's cart once per request and exposes its item
// count to page templates.
func (s *Store) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := s.session(c)
		c.Set(ctxKey, sess)
		c.Set(view.KeyCartCount, sess.Cart.TotalItems())
		c.Next()
	}
}

func (s *Store) session(c *gin.Context) *Session {
	id, _ := c.Cookie(CookieName)
	if _, err := uuid.Parse(id); err != nil {
		return &Session{ID: uuid.NewString(), Cart: &Cart{}, store: s, isNew: true}
	}
	cart, err := s.Load(c.Request.Context(), id)
	if err != nil {
		s.logger.Warn("cart load failed, starting empty", zap.String("cart", id), zap.Error(err))
	}
	return &Session{ID: id, Cart: cart, store: s}
}

// FromContext returns the request's cart session, loading it when the
// middleware did not run.
func (s *Store) FromContext(c *gin.Context) *Session {
	if v, ok := c.Get(ctxKey); ok {
		return v.(*Session)
	}
	sess := s.session(c)
	c.Set(ctxKey, sess)
	return sess
}
