package apiclient

import (
	"context"
	"net/url"

	"github.com/mutualsplus/site/internal/models"
)

func (c *Client) ListProducts(ctx context.Context, q ListQuery) (Page[models.Product], error) {
	env, err := c.get(ctx, "/products", q.Values())
	if err != nil {
		return Page[models.Product]{}, err
	}
	return decodeList[models.Product](env, "products", "/products")
}

func (c *Client) GetProductBySlug(ctx context.Context, slug string) (models.Product, error) {
	path := "/products/slug/" + url.PathEscape(slug)
	env, err := c.get(ctx, path, nil)
	if err != nil {
		return models.Product{}, err
	}
	return decodeOne[models.Product](env, path)
}

func (c *Client) GetProduct(ctx context.Context, id string) (models.Product, error) {
	path := "/products/" + url.PathEscape(id)
	env, err := c.get(ctx, path, nil)
	if err != nil {
		return models.Product{}, err
	}
	return decodeOne[models.Product](env, path)
}
