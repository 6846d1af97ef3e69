package ports

import (
	"context"

	"github.com/alejandrodnm/nexbit/internal/domain"
)

// OrderExecutor submits limit orders to the exchange.
type OrderExecutor interface {
	// PlaceOrder submits a validated limit order with the user's bearer token.
	// Server-side rejections come back as *domain.RejectionError.
	PlaceOrder(ctx context.Context, token string, req domain.OrderRequest) (domain.OrderReceipt, error)
}

// AITrading reads and toggles the server-side automatic trading bot.
type AITrading interface {
	AIStatus(ctx context.Context, token string) (bool, error)
	SetAITrading(ctx context.Context, token string, active bool) error
}
