package cart

import (
	"fmt"
	"strings"
)

// CheckoutURL builds a Shopify cart permalink of the form
// <store>/cart/<variant>:<qty>,... . When any line lacks a variant id for its
// size the plain store URL is returned and ok is false.
func CheckoutURL(store string, cart *Cart) (target string, ok bool) {
	store = strings.TrimRight(store, "/")
	if cart == nil || cart.Empty() {
		return store, false
	}
	parts := make([]string, 0, len(cart.Items))
	for _, it := range cart.Items {
		variant := it.Product.Variants[it.Size]
		if variant == "" && it.Size == "" && len(it.Product.Variants) == 1 {
			for _, v := range it.Product.Variants {
				variant = v
			}
		}
		if variant == "" {
			return store, false
		}
		parts = append(parts, fmt.Sprintf("%s:%d", variant, it.Quantity))
	}
	return store + "/cart/" + strings.Join(parts, ","), true
}
