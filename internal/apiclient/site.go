package apiclient

import (
	"context"
	"net/http"
	"sort"

	"github.com/mutualsplus/site/internal/models"
)

func (c *Client) ListDJs(ctx context.Context, q ListQuery) (Page[models.DJ], error) {
	env, err := c.get(ctx, "/djs", q.Values())
	if err != nil {
		return Page[models.DJ]{}, err
	}
	return decodeList[models.DJ](env, "djs", "/djs")
}

func (c *Client) ListPlaylists(ctx context.Context, q ListQuery) (Page[models.Playlist], error) {
	env, err := c.get(ctx, "/playlists", q.Values())
	if err != nil {
		return Page[models.Playlist]{}, err
	}
	return decodeList[models.Playlist](env, "playlists", "/playlists")
}

// ListHeroSlides returns the homepage carousel ordered by its order field.
func (c *Client) ListHeroSlides(ctx context.Context) ([]models.HeroSlide, error) {
	env, err := c.get(ctx, "/homepage/hero-slides", nil)
	if err != nil {
		return nil, err
	}
	page, err := decodeList[models.HeroSlide](env, "slides", "/homepage/hero-slides")
	if err != nil {
		return nil, err
	}
	sort.SliceStable(page.Items, func(i, j int) bool { return page.Items[i].Order < page.Items[j].Order })
	return page.Items, nil
}

type newsletterSignup struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// SubscribeNewsletter signs an email up for the newsletter.
func (c *Client) SubscribeNewsletter(ctx context.Context, email, name string) error {
	_, err := c.sendJSON(ctx, http.MethodPost, "/newsletter/subscribe", newsletterSignup{Email: email, Name: name})
	return err
}
