package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Chqrety/reservation/internal/models"
)

// Login exchanges credentials for a session. Login never clears a session on
// 401: the caller shows the backend message instead.
func (c *Client) Login(ctx context.Context, creds models.Credentials) (*models.Session, error) {
	req, err := jsonRequest("auth.login", http.MethodPost, "/auth/login", creds)
	if err != nil {
		return nil, err
	}
	body, err := c.backend.Public().do(ctx, req)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Data struct {
			Token string      `json:"token"`
			User  models.User `json:"user"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode login: %w", err)
	}
	if resp.Data.Token == "" {
		return nil, fmt.Errorf("login: %w", ErrRejected)
	}
	return &models.Session{Token: resp.Data.Token, User: resp.Data.User}, nil
}

// Logout ends the session on the backend. The local session is the caller's
// to clear regardless of the result.
func (c *Client) Logout(ctx context.Context) error {
	req, _ := jsonRequest("auth.logout", http.MethodPost, "/auth/logout", nil)
	_, err := c.do(ctx, req)
	return err
}
