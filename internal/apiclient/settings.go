package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/mutualsplus/site/internal/models"
)

func (c *Client) ListSettings(ctx context.Context) ([]models.SiteSetting, error) {
	env, err := c.get(ctx, "/settings", nil)
	if err != nil {
		return nil, err
	}
	page, err := decodeList[models.SiteSetting](env, "settings", "/settings")
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

type settingUpdate struct {
	Value string             `json:"value"`
	Type  models.SettingType `json:"type,omitempty"`
}

func (c *Client) UpdateSetting(ctx context.Context, key, value string, typ models.SettingType) (models.SiteSetting, error) {
	path := "/settings/" + url.PathEscape(key)
	env, err := c.sendJSON(ctx, http.MethodPut, path, settingUpdate{Value: value, Type: typ})
	if err != nil {
		return models.SiteSetting{}, err
	}
	return decodeOne[models.SiteSetting](env, path)
}
