package nexbit

import (
	"context"
	"fmt"

	"github.com/alejandrodnm/nexbit/internal/domain"
)

// AIStatus consulta GET /user/ai/status.
func (c *Client) AIStatus(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, fmt.Errorf("nexbit.AIStatus: %w", domain.ErrNotAuthenticated)
	}
	var resp aiStatusResponse
	if err := c.get(ctx, c.userLimiter, "/user/ai/status", nil, token, &resp); err != nil {
		return false, fmt.Errorf("nexbit.AIStatus: %w", err)
	}
	active, err := parseStatus(resp.Status)
	if err != nil {
		return false, fmt.Errorf("nexbit.AIStatus: %w", err)
	}
	return active, nil
}

// SetAITrading arranca o para el bot con POST /user/ai/start|stop.
func (c *Client) SetAITrading(ctx context.Context, token string, active bool) error {
	if token == "" {
		return fmt.Errorf("nexbit.SetAITrading: %w", domain.ErrNotAuthenticated)
	}
	path := "/user/ai/stop"
	if active {
		path = "/user/ai/start"
	}
	if err := c.post(ctx, c.userLimiter, path, token, struct{}{}, nil, 0); err != nil {
		return fmt.Errorf("nexbit.SetAITrading: %w", err)
	}
	return nil
}
