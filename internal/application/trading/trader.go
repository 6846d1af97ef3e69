// Package trading envía órdenes del usuario, controla el bot de auto-trading y
// consulta el historial.
package trading

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/nexbit/internal/domain"
	"github.com/alejandrodnm/nexbit/internal/metrics"
	"github.com/alejandrodnm/nexbit/internal/ports"
	"github.com/google/uuid"
)

// TokenSource expone el bearer token de la sesión actual.
type TokenSource interface {
	Token() (string, bool)
}

// Trader valida y envía órdenes límite.
type Trader struct {
	executor    ports.OrderExecutor
	tokens      TokenSource
	archive     ports.Archive // opcional
	market      string
	minNotional float64
	now         func() time.Time
}

// TraderOption configura un Trader.
type TraderOption func(*Trader)

// WithJournal guarda cada intento enviado en el archive.
func WithJournal(a ports.Archive) TraderOption {
	return func(t *Trader) { t.archive = a }
}

// WithMinNotional cambia el importe mínimo (5,000 KRW por defecto).
func WithMinNotional(v float64) TraderOption {
	return func(t *Trader) {
		if v > 0 {
			t.minNotional = v
		}
	}
}

// WithNow reemplaza el reloj (tests).
func WithNow(now func() time.Time) TraderOption {
	return func(t *Trader) { t.now = now }
}

// NewTrader crea un Trader para market.
func NewTrader(executor ports.OrderExecutor, tokens TokenSource, market string, opts ...TraderOption) *Trader {
	t := &Trader{
		executor:    executor,
		tokens:      tokens,
		market:      market,
		minNotional: domain.DefaultMinNotional,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// PlaceOrder valida el formulario y, si pasa, envía la orden con el token de la sesión.
// Los fallos de validación nunca llegan a la red. Los rechazos del servidor vuelven
// como *domain.RejectionError con el mensaje original.
func (t *Trader) PlaceOrder(ctx context.Context, side domain.Side, price, amount string) (domain.OrderReceipt, error) {
	token, authenticated := t.tokens.Token()
	req, err := domain.ValidateOrder(domain.OrderForm{
		Market: t.market,
		Side:   side,
		Price:  price,
		Amount: amount,
	}, authenticated, t.minNotional)
	if err != nil {
		metrics.OrdersTotal.WithLabelValues(string(side), "INVALID").Inc()
		return domain.OrderReceipt{}, err
	}

	localID := uuid.NewString()
	submittedAt := t.now()
	slog.Info("trading: submitting order",
		"id", localID,
		"side", req.Side,
		"price", req.Price,
		"amount", req.Amount,
		"quantity", req.Quantity,
	)

	receipt, err := t.executor.PlaceOrder(ctx, token, req)
	receipt.LocalID = localID
	receipt.Request = req
	receipt.SubmittedAt = submittedAt

	entry := domain.OrderJournalEntry{
		LocalID:    localID,
		ExchangeID: receipt.ExchangeID,
		Market:     req.Market,
		Side:       req.Side,
		Price:      req.Price,
		Quantity:   req.Quantity,
		Amount:     req.Amount,
		Status:     domain.OrderSubmitted,
		At:         submittedAt,
	}
	if err != nil {
		entry.Status = domain.OrderFailed
		var rej *domain.RejectionError
		if errors.As(err, &rej) {
			entry.Status = domain.OrderRejected
		}
		entry.Reason = domain.Reason(err)
		slog.Warn("trading: order not accepted", "id", localID, "status", entry.Status, "reason", entry.Reason)
	}
	metrics.OrdersTotal.WithLabelValues(string(req.Side), string(entry.Status)).Inc()
	t.journal(ctx, entry)

	if err != nil {
		return receipt, fmt.Errorf("trading.PlaceOrder: %w", err)
	}
	return receipt, nil
}

func (t *Trader) journal(ctx context.Context, e domain.OrderJournalEntry) {
	if t.archive == nil {
		return
	}
	if err := t.archive.SaveOrder(ctx, e); err != nil {
		slog.Warn("trading: journal order failed", "id", e.LocalID, "err", err)
	}
}
