package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/mutualsplus/site/internal/models"
)

func (c *Client) ListArticles(ctx context.Context, q ListQuery) (Page[models.Article], error) {
	env, err := c.get(ctx, "/articles", q.Values())
	if err != nil {
		return Page[models.Article]{}, err
	}
	return decodeList[models.Article](env, "articles", "/articles")
}

// GetArticleBySlug fetches a published article by its public slug.
func (c *Client) GetArticleBySlug(ctx context.Context, slug string) (models.Article, error) {
	path := "/articles/slug/" + url.PathEscape(slug)
	env, err := c.get(ctx, path, nil)
	if err != nil {
		return models.Article{}, err
	}
	return decodeOne[models.Article](env, path)
}

// GetArticle fetches an article by id, the admin lookup key.
func (c *Client) GetArticle(ctx context.Context, id string) (models.Article, error) {
	path := "/articles/" + url.PathEscape(id)
	env, err := c.get(ctx, path, nil)
	if err != nil {
		return models.Article{}, err
	}
	return decodeOne[models.Article](env, path)
}

func (c *Client) CreateArticle(ctx context.Context, in models.ArticleInput) (models.Article, error) {
	env, err := c.sendJSON(ctx, http.MethodPost, "/articles", in)
	if err != nil {
		return models.Article{}, err
	}
	return decodeOne[models.Article](env, "/articles")
}

func (c *Client) UpdateArticle(ctx context.Context, id string, in models.ArticleInput) (models.Article, error) {
	path := "/articles/" + url.PathEscape(id)
	env, err := c.sendJSON(ctx, http.MethodPut, path, in)
	if err != nil {
		return models.Article{}, err
	}
	return decodeOne[models.Article](env, path)
}

func (c *Client) DeleteArticle(ctx context.Context, id string) error {
	_, err := c.sendJSON(ctx, http.MethodDelete, "/articles/"+url.PathEscape(id), nil)
	return err
}
