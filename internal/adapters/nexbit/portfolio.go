package nexbit

import (
	"context"
	"fmt"

	"github.com/alejandrodnm/nexbit/internal/domain"
)

// FetchPosition obtiene los saldos de GET /user/myasset.
func (c *Client) FetchPosition(ctx context.Context, token, market string) (domain.Position, error) {
	if token == "" {
		return domain.Position{}, fmt.Errorf("nexbit.FetchPosition: %w", domain.ErrNotAuthenticated)
	}
	var resp myAssetResponse
	if err := c.get(ctx, c.userLimiter, "/user/myasset", nil, token, &resp); err != nil {
		return domain.Position{}, fmt.Errorf("nexbit.FetchPosition: %w", err)
	}
	p, err := toPosition(resp, market)
	if err != nil {
		return domain.Position{}, fmt.Errorf("nexbit.FetchPosition: %w", err)
	}
	return p, nil
}
