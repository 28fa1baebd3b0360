package api

import (
	"context"
	"fmt"
	"net/http"
)

// LoginResponse is the body returned by POST /auth/login.
type LoginResponse struct {
	Token        string  `json:"token"`
	RefreshToken string  `json:"refreshToken"`
	Type         string  `json:"type"`
	ID           int64   `json:"id"`
	Username     string  `json:"username"`
	Email        string  `json:"email"`
	FullName     string  `json:"fullName"`
	Role         string  `json:"role"`
	LastLogin    *string `json:"lastLogin"`
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	FullName string `json:"fullName,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// Login authenticates and stores the returned token pair in the session.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	body := map[string]string{"username": username, "password": password}
	var resp LoginResponse
	if err := c.DoAnonymous(ctx, http.MethodPost, "/auth/login", body, &resp); err != nil {
		return nil, fmt.Errorf("login %q: %w", username, err)
	}
	if resp.Token == "" {
		return nil, &AuthError{Message: "login returned no token"}
	}
	creds := Credentials{
		AccessToken:  resp.Token,
		RefreshToken: resp.RefreshToken,
		TokenType:    resp.Type,
		UserID:       resp.ID,
		Username:     resp.Username,
		Email:        resp.Email,
		FullName:     resp.FullName,
		Role:         resp.Role,
	}
	if err := c.session.Set(ctx, creds); err != nil {
		return nil, err
	}
	c.logger.WithField("username", resp.Username).Info("logged in")
	return &resp, nil
}

// Register creates a new user account. It does not log in.
func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	if err := c.DoAnonymous(ctx, http.MethodPost, "/auth/register", req, nil); err != nil {
		return fmt.Errorf("register %q: %w", req.Username, err)
	}
	return nil
}

// Logout clears local credentials. The API keeps no server-side session.
func (c *Client) Logout(ctx context.Context) error {
	return c.session.Clear(ctx)
}
