package nexbit

import (
	"context"
	"errors"
	"fmt"

	"github.com/alejandrodnm/nexbit/internal/domain"
	"github.com/shopspring/decimal"
)

// PlaceOrder envía una orden límite a POST /api/order. Nunca se reintenta:
// un timeout tras el envío puede haber creado la orden igualmente.
// Implementa ports.OrderExecutor.
func (c *Client) PlaceOrder(ctx context.Context, token string, req domain.OrderRequest) (domain.OrderReceipt, error) {
	if token == "" {
		return domain.OrderReceipt{}, fmt.Errorf("nexbit.PlaceOrder: %w", domain.ErrNotAuthenticated)
	}
	body := toOrderRequest(req)

	var resp orderResponse
	if err := c.post(ctx, c.userLimiter, "/api/order", token, body, &resp, 0); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return domain.OrderReceipt{}, &domain.RejectionError{Status: apiErr.Status, Message: apiErr.Message}
		}
		return domain.OrderReceipt{}, fmt.Errorf("nexbit.PlaceOrder: %w", err)
	}
	return domain.OrderReceipt{
		ExchangeID: resp.UUID,
		Request:    req,
		State:      resp.State,
	}, nil
}

// toOrderRequest formatea precio sin decimales y volumen con 8.
func toOrderRequest(req domain.OrderRequest) orderRequest {
	return orderRequest{
		Market:  req.Market,
		Side:    req.Side.Wire(),
		Price:   decimal.NewFromFloat(req.Price).StringFixed(0),
		Volume:  decimal.NewFromFloat(req.Quantity).StringFixed(8),
		OrdType: "limit",
	}
}
