package api

import (
	"context"
	"net/http"

	"github.com/guardget/guardget/internal/client/models"
)

// RegisterRequest is the payload for account creation.
type RegisterRequest struct {
	FirstName  string   `json:"firstName"`
	LastName   string   `json:"lastName"`
	UserName   string   `json:"username"`
	Email      string   `json:"email"`
	Phone      string   `json:"phone"`
	Password   string   `json:"password"`
	Keyholders []string `json:"keyholders"`
}

// Register creates an account. The account stays unusable until the emailed
// code is confirmed with VerifyOTP.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodPost, "/users/auth/register", nil, req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// VerifyOTP confirms the registration code and returns the first token pair.
func (c *Client) VerifyOTP(ctx context.Context, email, otp string) (*models.TokenPair, error) {
	body := map[string]string{"email": email, "otp": otp}
	var pair models.TokenPair
	if err := c.do(ctx, http.MethodPost, "/users/auth/verify-otp", nil, body, &pair); err != nil {
		return nil, err
	}
	return &pair, nil
}

// ResendOTP requests a fresh registration code.
func (c *Client) ResendOTP(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	return c.do(ctx, http.MethodPost, "/users/auth/resend-otp", nil, body, nil)
}

// Login authenticates with a username or email plus password.
func (c *Client) Login(ctx context.Context, login, password string) (*models.TokenPair, error) {
	body := map[string]string{"login": login, "password": password}
	var pair models.TokenPair
	if err := c.do(ctx, http.MethodPost, "/users/login", nil, body, &pair); err != nil {
		return nil, err
	}
	return &pair, nil
}

// Refresh exchanges a refresh token for a new pair; the old token is revoked
// server-side.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	body := map[string]string{"refreshToken": refreshToken}
	var pair models.TokenPair
	if err := c.do(ctx, http.MethodPost, "/users/auth/refresh", nil, body, &pair); err != nil {
		return nil, err
	}
	return &pair, nil
}

// Logout revokes the refresh token server-side.
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	body := map[string]string{"refreshToken": refreshToken}
	return c.do(ctx, http.MethodPost, "/users/auth/logout", nil, body, nil)
}

// ForgotPassword starts a password reset; the code goes to the keyholder
// when one is configured.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	return c.do(ctx, http.MethodPost, "/users/auth/forgot-password", nil, body, nil)
}

// ResetPassword completes a password reset with the received code.
func (c *Client) ResetPassword(ctx context.Context, email, otp, newPassword string) error {
	body := map[string]string{"email": email, "otp": otp, "newPassword": newPassword}
	return c.do(ctx, http.MethodPost, "/users/auth/reset-password", nil, body, nil)
}

// UpdateKeyholders replaces the keyholder list.
func (c *Client) UpdateKeyholders(ctx context.Context, keyholders []string) (*models.User, error) {
	body := map[string][]string{"keyholders": keyholders}
	var user models.User
	if err := c.do(ctx, http.MethodPut, "/users/keyholders", nil, body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetMe fetches the profile with device count and subscription state.
func (c *Client) GetMe(ctx context.Context) (*models.Profile, error) {
	var profile models.Profile
	if err := c.do(ctx, http.MethodGet, "/users/getme", nil, nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}
