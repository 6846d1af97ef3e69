package nexbit

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/alejandrodnm/nexbit/internal/domain"
)

// ErrInvalidCredentials es el rechazo del login; el mensaje del backend va envuelto.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Login intercambia email y password por un bearer token en POST /user/login.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var resp loginResponse
	err := c.post(ctx, c.userLimiter, "/user/login", "", loginRequest{Email: email, Password: password}, &resp, 0)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && (apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusBadRequest) {
			return "", fmt.Errorf("nexbit.Login: %w: %s", ErrInvalidCredentials, apiErr.Message)
		}
		return "", fmt.Errorf("nexbit.Login: %w", err)
	}
	if resp.Token == "" {
		msg := resp.Message
		if msg == "" {
			msg = "no token in response"
		}
		return "", fmt.Errorf("nexbit.Login: %w: %s", ErrInvalidCredentials, msg)
	}
	return resp.Token, nil
}

// SignUp registra una cuenta en POST /user/signup. Sin reintentos.
// Un 4xx vuelve como *APIError con el mensaje del backend.
func (c *Client) SignUp(ctx context.Context, form domain.SignUpForm) error {
	body := signUpRequest{Email: form.Email, Password: form.Password, Username: form.Username}
	if err := c.post(ctx, c.userLimiter, "/user/signup", "", body, nil, 0); err != nil {
		return fmt.Errorf("nexbit.SignUp: %w", err)
	}
	return nil
}
