package cart

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mutualsplus/site/internal/apiclient"
	"github.com/mutualsplus/site/internal/models"
	"github.com/mutualsplus/site/internal/pkg/metrics"
	"github.com/mutualsplus/site/internal/pkg/response"
	"github.com/mutualsplus/site/internal/pkg/view"
)

// ProductSource resolves the product snapshot stored in a cart line.
type ProductSource interface {
	GetProduct(ctx context.Context, id string) (models.Product, error)
}

type AddDTO struct {
	ProductID string `form:"productId" json:"productId" binding:"required"`
	Size      string `form:"size" json:"size"`
	Quantity  int    `form:"quantity" json:"quantity" binding:"omitempty,min=1"`
}

type UpdateDTO struct {
	ProductID string `form:"productId" json:"productId" binding:"required"`
	Size      string `form:"size" json:"size"`
	Quantity  int    `form:"quantity" json:"quantity"`
}

type cartResponse struct {
	Items      []models.CartItem `json:"items"`
	TotalItems int               `json:"totalItems"`
	TotalPrice float64           `json:"totalPrice"`
}

func toResponse(c *Cart) cartResponse {
	items := c.Items
	if items == nil {
		items = []models.CartItem{}
	}
	return cartResponse{Items: items, TotalItems: c.TotalItems(), TotalPrice: c.TotalPrice()}
}

type Handler struct {
	store    *Store
	products ProductSource
	view     *view.Renderer
	metrics  *metrics.Collector
	logger   *zap.Logger
	checkout string
}

func NewHandler(store *Store, products ProductSource, renderer *view.Renderer, m *metrics.Collector, checkoutURL string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		store:    store,
		products: products,
		view:     renderer,
		metrics:  m,
		logger:   logger.Named("cart"),
		checkout: checkoutURL,
	}
}

// RegisterRoutes mounts the HTML cart pages and form endpoints.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/cart")
	g.GET("", h.page)
	g.POST("/add", h.addForm)
	g.POST("/update", h.updateForm)
	g.POST("/remove", h.removeForm)
	g.POST("/clear", h.clearForm)
	g.GET("/checkout", h.checkoutRedirect)
}

// RegisterAPI mounts the JSON cart endpoints.
func (h *Handler) RegisterAPI(rg *gin.RouterGroup) {
	g := rg.Group("/cart")
	g.GET("", h.get)
	g.POST("/items", h.add)
	g.PATCH("/items", h.update)
	g.DELETE("/items/:productId", h.remove)
	g.DELETE("", h.clear)
}

// apply runs op on the request cart, persists it and records the mutation.
func (h *Handler) apply(c *gin.Context, op string, fn func(*Cart)) (*Cart, error) {
	sess := h.store.FromContext(c)
	fn(sess.Cart)
	if err := sess.Save(c); err != nil {
		h.logger.Error("save cart", zap.String("cart", sess.ID), zap.String("op", op), zap.Error(err))
		return sess.Cart, err
	}
	h.metrics.ObserveCart(op)
	c.Set(view.KeyCartCount, sess.Cart.TotalItems())
	return sess.Cart, nil
}

var errSizeRequired = errors.New("size not offered")

const msgChooseSize = "Please choose an available size."

func (h *Handler) resolve(c *gin.Context, dto AddDTO) (models.Product, error) {
	product, err := h.products.GetProduct(c.Request.Context(), dto.ProductID)
	if err != nil {
		return models.Product{}, err
	}
	if !product.HasSize(dto.Size) {
		return models.Product{}, errSizeRequired
	}
	return product, nil
}

func quantityOr1(q int) int {
	if q < 1 {
		return 1
	}
	return q
}

// HTML handlers

func (h *Handler) page(c *gin.Context) {
	sess := h.store.FromContext(c)
	_, canCheckout := CheckoutURL(h.checkout, sess.Cart)
	h.view.Render(c, http.StatusOK, "site/cart", "Cart", gin.H{
		"Cart":        sess.Cart,
		"TotalItems":  sess.Cart.TotalItems(),
		"TotalPrice":  sess.Cart.TotalPrice(),
		"CanCheckout": canCheckout || h.checkout != "",
	})
}

func (h *Handler) addForm(c *gin.Context) {
	var dto AddDTO
	if err := c.ShouldBind(&dto); err != nil {
		view.SetFlash(c, view.FlashError, "Could not add that item.")
		c.Redirect(http.StatusSeeOther, view.Back(c, "/shop"))
		return
	}
	product, err := h.resolve(c, dto)
	if err != nil {
		view.SetFlash(c, view.FlashError, addErrorMessage(err))
		c.Redirect(http.StatusSeeOther, view.Back(c, "/shop"))
		return
	}
	if _, err := h.apply(c, "add", func(ct *Cart) { ct.AddToCart(product, dto.Size, quantityOr1(dto.Quantity)) }); err != nil {
		view.SetFlash(c, view.FlashError, "Your cart could not be saved. Please try again.")
		c.Redirect(http.StatusSeeOther, view.Back(c, "/shop"))
		return
	}
	view.SetFlash(c, view.FlashSuccess, product.Name+" added to your cart.")
	c.Redirect(http.StatusSeeOther, "/cart")
}

func (h *Handler) updateForm(c *gin.Context) {
	var dto UpdateDTO
	if err := c.ShouldBind(&dto); err != nil {
		view.SetFlash(c, view.FlashError, "Could not update that item.")
		c.Redirect(http.StatusSeeOther, "/cart")
		return
	}
	if _, err := h.apply(c, "update", func(ct *Cart) { ct.UpdateQuantity(dto.ProductID, dto.Size, dto.Quantity) }); err != nil {
		view.SetFlash(c, view.FlashError, "Your cart could not be saved. Please try again.")
	}
	c.Redirect(http.StatusSeeOther, "/cart")
}

func (h *Handler) removeForm(c *gin.Context) {
	productID := c.PostForm("productId")
	size := c.PostForm("size")
	if _, err := h.apply(c, "remove", func(ct *Cart) { ct.RemoveFromCart(productID, size) }); err != nil {
		view.SetFlash(c, view.FlashError, "Your cart could not be saved. Please try again.")
	}
	c.Redirect(http.StatusSeeOther, "/cart")
}

func (h *Handler) clearForm(c *gin.Context) {
	if _, err := h.apply(c, "clear", func(ct *Cart) { ct.ClearCart() }); err != nil {
		view.SetFlash(c, view.FlashError, "Your cart could not be saved. Please try again.")
	}
	c.Redirect(http.StatusSeeOther, "/cart")
}

func (h *Handler) checkoutRedirect(c *gin.Context) {
	sess := h.store.FromContext(c)
	target, ok := CheckoutURL(h.checkout, sess.Cart)
	if target == "" {
		view.SetFlash(c, view.FlashError, "Checkout is not available right now.")
		c.Redirect(http.StatusSeeOther, "/cart")
		return
	}
	if !ok {
		h.logger.Info("checkout falls back to store front", zap.String("cart", sess.ID))
	}
	h.metrics.ObserveCart("checkout")
	c.Redirect(http.StatusSeeOther, target)
}

// JSON handlers

func (h *Handler) get(c *gin.Context) {
	response.OK(c, toResponse(h.store.FromContext(c).Cart))
}

func (h *Handler) add(c *gin.Context) {
	var dto AddDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	product, err := h.resolve(c, dto)
	if err != nil {
		if errors.Is(err, errSizeRequired) {
			response.UnprocessableEntity(c, msgChooseSize)
			return
		}
		if errors.Is(err, apiclient.ErrNotFound) {
			response.NotFoundMsg(c, "Product not found")
			return
		}
		response.UpstreamError(c, err, "Could not load the product")
		return
	}
	cart, err := h.apply(c, "add", func(ct *Cart) { ct.AddToCart(product, dto.Size, quantityOr1(dto.Quantity)) })
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, toResponse(cart))
}

func (h *Handler) update(c *gin.Context) {
	var dto UpdateDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	cart, err := h.apply(c, "update", func(ct *Cart) { ct.UpdateQuantity(dto.ProductID, dto.Size, dto.Quantity) })
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, toResponse(cart))
}

func (h *Handler) remove(c *gin.Context) {
	productID := c.Param("productId")
	size := c.Query("size")
	cart, err := h.apply(c, "remove", func(ct *Cart) { ct.RemoveFromCart(productID, size) })
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, toResponse(cart))
}

func (h *Handler) clear(c *gin.Context) {
	cart, err := h.apply(c, "clear", func(ct *Cart) { ct.ClearCart() })
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, toResponse(cart))
}

func addErrorMessage(err error) string {
	switch {
	case errors.Is(err, errSizeRequired):
		return msgChooseSize
	case errors.Is(err, apiclient.ErrNotFound):
		return "That product is no longer available."
	default:
		return apiclient.MessageOr(err, "Could not add that item.")
	}
}
