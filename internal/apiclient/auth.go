package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mutualsplus/site/internal/models"
)

// AuthResult is the token pair and user returned by login and refresh.
type AuthResult struct {
	User         models.User
	AccessToken  string
	RefreshToken string
}

type authData struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"accessToken"`
	Token        string       `json:"token"`
	RefreshToken string       `json:"refreshToken"`
}

func decodeAuth(env *Envelope, path string) (AuthResult, error) {
	var data authData
	if isNull(env.Data) {
		return AuthResult{}, fmt.Errorf("decode %s: empty auth payload", path)
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return AuthResult{}, fmt.Errorf("decode %s: %w", path, err)
	}
	res := AuthResult{
		AccessToken:  firstNonEmpty(data.AccessToken, data.Token),
		RefreshToken: data.RefreshToken,
	}
	if data.User != nil {
		res.User = *data.User
	}
	if res.AccessToken == "" {
		return res, fmt.Errorf("decode %s: no access token in response", path)
	}
	return res, nil
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *Client) Login(ctx context.Context, email, password string) (AuthResult, error) {
	env, err := c.sendJSON(ctx, http.MethodPost, "/auth/login", credentials{Email: email, Password: password})
	if err != nil {
		return AuthResult{}, err
	}
	return decodeAuth(env, "/auth/login")
}

// Refresh trades a refresh token for a new token pair. The backend may omit a
// new refresh token, in which case the old one stays valid.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (AuthResult, error) {
	env, err := c.sendJSON(ctx, http.MethodPost, "/auth/refresh", map[string]string{"refreshToken": refreshToken})
	if err != nil {
		return AuthResult{}, err
	}
	res, err := decodeAuth(env, "/auth/refresh")
	if err == nil && res.RefreshToken == "" {
		res.RefreshToken = refreshToken
	}
	return res, err
}

// Me returns the user behind the client's bearer token.
func (c *Client) Me(ctx context.Context) (models.User, error) {
	env, err := c.get(ctx, "/auth/me", nil)
	if err != nil {
		return models.User{}, err
	}
	return decodeOne[models.User](env, "/auth/me")
}

// CurrentUser is Me with token as the bearer.
func (c *Client) CurrentUser(ctx context.Context, token string) (models.User, error) {
	return c.WithToken(token).Me(ctx)
}
