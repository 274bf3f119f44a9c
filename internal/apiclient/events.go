package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/mutualsplus/site/internal/models"
)

func (c *Client) ListEvents(ctx context.Context, q ListQuery) (Page[models.Event], error) {
	env, err := c.get(ctx, "/events", q.Values())
	if err != nil {
		return Page[models.Event]{}, err
	}
	return decodeList[models.Event](env, "events", "/events")
}

func (c *Client) GetEventBySlug(ctx context.Context, slug string) (models.Event, error) {
	path := "/events/slug/" + url.PathEscape(slug)
	env, err := c.get(ctx, path, nil)
	if err != nil {
		return models.Event{}, err
	}
	return decodeOne[models.Event](env, path)
}

func (c *Client) GetEvent(ctx context.Context, id string) (models.Event, error) {
	path := "/events/" + url.PathEscape(id)
	env, err := c.get(ctx, path, nil)
	if err != nil {
		return models.Event{}, err
	}
	return decodeOne[models.Event](env, path)
}

func (c *Client) CreateEvent(ctx context.Context, in models.EventInput) (models.Event, error) {
	env, err := c.sendJSON(ctx, http.MethodPost, "/events", in)
	if err != nil {
		return models.Event{}, err
	}
	return decodeOne[models.Event](env, "/events")
}

func (c *Client) UpdateEvent(ctx context.Context, id string, in models.EventInput) (models.Event, error) {
	path := "/events/" + url.PathEscape(id)
	env, err := c.sendJSON(ctx, http.MethodPut, path, in)
	if err != nil {
		return models.Event{}, err
	}
	return decodeOne[models.Event](env, path)
}

func (c *Client) DeleteEvent(ctx context.Context, id string) error {
	_, err := c.sendJSON(ctx, http.MethodDelete, "/events/"+url.PathEscape(id), nil)
	return err
}
