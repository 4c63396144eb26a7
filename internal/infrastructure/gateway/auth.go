package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// User is the authenticated customer snapshot
type User struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
	// Address is the default delivery address saved at a previous checkout
	Address string `json:"address,omitempty"`
}

// LoginRequest authenticates by phone or email
type LoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

// RegisterRequest creates a customer account
type RegisterRequest struct {
	Name                 string `json:"name"`
	Phone                string `json:"phone"`
	Email                string `json:"email,omitempty"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// AuthResult carries the issued bearer token and its user
type AuthResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Login exchanges credentials for a token. The guest token of the current
// credentials lets the API merge the guest cart into the user's.
func (c *Client) Login(ctx context.Context, req LoginRequest) (AuthResult, error) {
	return c.authenticate(ctx, "client/login", req)
}

// Register creates an account and signs it in
func (c *Client) Register(ctx context.Context, req RegisterRequest) (AuthResult, error) {
	return c.authenticate(ctx, "client/register", req)
}

func (c *Client) authenticate(ctx context.Context, path string, body any) (AuthResult, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, path, body, &raw); err != nil {
		return AuthResult{}, err
	}
	var res AuthResult
	if err := json.Unmarshal(unwrap(raw), &res); err != nil {
		return AuthResult{}, fmt.Errorf("decode auth response: %w", err)
	}
	if res.Token == "" {
		return AuthResult{}, fmt.Errorf("auth response carried no token")
	}
	return res, nil
}

// Logout ends the API session; the caller drops its token
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "client/logout", nil, nil)
}

// Me returns the user behind the bearer token
func (c *Client) Me(ctx context.Context) (User, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "client/me", nil, &raw); err != nil {
		return User{}, err
	}
	var u User
	if err := json.Unmarshal(unwrap(raw), &u); err != nil {
		return User{}, fmt.Errorf("decode user: %w", err)
	}
	return u, nil
}
