// Package cart keeps the visitor's shopping cart on the server, keyed by a
// cookie, and builds the checkout hand-off to the external store.
package cart

import "github.com/mutualsplus/site/internal/models"

// Cart is one visitor's cart. Items are unique by (product id, size). A Cart is
// owned by a single request and is not safe for concurrent use.
type Cart struct {
	Items []models.CartItem `json:"items"`
}

func (c *Cart) index(productID, size string) int {
	for i, it := range c.Items {
		if it.Product.ID == productID && it.Size == size {
			return i
		}
	}
	return -1
}

// AddToCart adds quantity units of product in size. An existing line for the
// same product and size is incremented. Non-positive quantities are ignored.
func (c *Cart) AddToCart(product models.Product, size string, quantity int) {
	if quantity <= 0 {
		return
	}
	if i := c.index(product.ID, size); i >= 0 {
		c.Items[i].Quantity += quantity
		return
	}
	c.Items = append(c.Items, models.CartItem{Product: product, Size: size, Quantity: quantity})
}

// UpdateQuantity sets the quantity of a line. Zero or less removes it. Unknown
// lines are ignored.
func (c *Cart) UpdateQuantity(productID, size string, quantity int) {
	if quantity <= 0 {
		c.RemoveFromCart(productID, size)
		return
	}
	if i := c.index(productID, size); i >= 0 {
		c.Items[i].Quantity = quantity
	}
}

// RemoveFromCart drops the line for productID and size.
func (c *Cart) RemoveFromCart(productID, size string) {
	if i := c.index(productID, size); i >= 0 {
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
	}
}

// ClearCart empties the cart.
func (c *Cart) ClearCart() {
	c.Items = nil
}

// TotalItems returns the sum of all quantities.
func (c *Cart) TotalItems() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

// TotalPrice returns the sum of price × quantity over all lines.
func (c *Cart) TotalPrice() float64 {
	total := 0.0
	for _, it := range c.Items {
		total += it.LineTotal()
	}
	return total
}

// Empty reports whether the cart has no lines.
func (c *Cart) Empty() bool { return len(c.Items) == 0 }
