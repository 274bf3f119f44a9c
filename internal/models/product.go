package models

// Product is a shop item. Variants maps a size onto its Shopify variant id.
type Product struct {
	Base
	Name        string            `json:"name"`
	Slug        string            `json:"slug"`
	Description string            `json:"description,omitempty"`
	Price       float64           `json:"price"`
	Currency    string            `json:"currency,omitempty"`
	Images      StringList        `json:"images,omitempty"`
	Sizes       StringList        `json:"sizes,omitempty"`
	Variants    map[string]string `json:"variants,omitempty"`
	InStock     bool              `json:"inStock"`
}

// Image returns the first product image, or "".
func (p Product) Image() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// HasSize reports whether size is offered. Products without sizes accept "".
func (p Product) HasSize(size string) bool {
	if len(p.Sizes) == 0 {
		return size == ""
	}
	for _, s := range p.Sizes {
		if s == size {
			return true
		}
	}
	return false
}
