package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/dryerwatch/internal/client/models"
)

type userEnvelope struct {
	User models.User `json:"user"`
}

func (c *Client) Login(ctx context.Context, username, password string) (*models.LoginData, error) {
	data, err := call[models.LoginData](ctx, c, http.MethodPost, "/auth/login",
		models.LoginRequest{Username: username, Password: password})
	if err != nil {
		return nil, err
	}
	if data.Token == "" {
		return nil, fmt.Errorf("%w: login response carries no token", ErrMalformed)
	}
	return &data, nil
}

func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	data, err := call[userEnvelope](ctx, c, http.MethodPost, "/auth/register", req)
	if err != nil {
		return nil, err
	}
	return &data.User, nil
}

// Logout tells the backend the session is over. Callers treat failures as
// advisory.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.Request(ctx, http.MethodPost, "/auth/logout", nil, nil)
	return err
}

// Me verifies the current token and returns its user.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	data, err := get[userEnvelope](ctx, c, "/auth/me")
	if err != nil {
		return nil, err
	}
	return &data.User, nil
}

func (c *Client) AuthInfo(ctx context.Context) (*models.AuthInfo, error) {
	data, err := get[models.AuthInfo](ctx, c, "/auth/info")
	if err != nil {
		return nil, err
	}
	return &data, nil
}

func (c *Client) Users(ctx context.Context) ([]models.User, error) {
	data, err := get[struct {
		Users []models.User `json:"users"`
	}](ctx, c, "/auth/users")
	if err != nil {
		return nil, err
	}
	return data.Users, nil
}
