// Package adminclient talks to the Auth API on behalf of an administrator and
// keeps the client side of the password-reset flow.
package adminclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vedx/vedx-site/internal/domain"
)

const defaultTimeout = 15 * time.Second

// APIError is a non-2xx response from the API.
type APIError struct {
	Status  int
	Message string
	Code    string
	Field   string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return e.Message
}

// Client calls the Auth API. BaseURL is the server root, e.g. http://localhost:5000.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: defaultTimeout},
	}
}

func (c *Client) Login(ctx context.Context, identifier, password string) (*domain.LoginResponse, error) {
	var out domain.LoginResponse
	in := domain.LoginRequest{Identifier: identifier, Password: password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", "", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Logout(ctx context.Context, token string) (*domain.MessageResponse, error) {
	var out domain.MessageResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/logout", token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ForgotPassword(ctx context.Context, email string) (*domain.MessageResponse, error) {
	return c.message(ctx, "/api/auth/forgot-password", domain.ForgotPasswordRequest{Email: email})
}

func (c *Client) ResendOTP(ctx context.Context, email string) (*domain.MessageResponse, error) {
	return c.message(ctx, "/api/auth/resend-otp", domain.ForgotPasswordRequest{Email: email})
}

func (c *Client) VerifyOTP(ctx context.Context, email, otp string) (*domain.MessageResponse, error) {
	return c.message(ctx, "/api/auth/verify-otp", domain.VerifyOTPRequest{Email: email, OTP: otp})
}

func (c *Client) ResetPassword(ctx context.Context, email, otp, newPassword string) (*domain.MessageResponse, error) {
	return c.message(ctx, "/api/auth/reset-password", domain.ResetPasswordRequest{Email: email, OTP: otp, NewPassword: newPassword})
}

func (c *Client) ChangePassword(ctx context.Context, token, currentPassword, newPassword string) (*domain.MessageResponse, error) {
	var out domain.MessageResponse
	in := domain.ChangePasswordRequest{CurrentPassword: currentPassword, NewPassword: newPassword}
	if err := c.do(ctx, http.MethodPost, "/api/admin/change-password", token, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Profile(ctx context.Context, token string) (*domain.ProfileResponse, error) {
	var out domain.ProfileResponse
	if err := c.do(ctx, http.MethodGet, "/api/admin/profile", token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateProfile(ctx context.Context, token string, req domain.UpdateProfileRequest) (*domain.ProfileResponse, error) {
	var out domain.ProfileResponse
	if err := c.do(ctx, http.MethodPut, "/api/admin/profile", token, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) message(ctx context.Context, path string, in interface{}) (*domain.MessageResponse, error) {
	var out domain.MessageResponse
	if err := c.do(ctx, http.MethodPost, path, "", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s %s: read body: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload struct {
			Message string `json:"message"`
			Code    string `json:"code"`
			Field   string `json:"field"`
		}
		if json.Unmarshal(raw, &payload) == nil {
			apiErr.Message = payload.Message
			apiErr.Code = payload.Code
			apiErr.Field = payload.Field
		}
		return apiErr
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}
