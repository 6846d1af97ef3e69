package trading

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/nexbit/internal/domain"
	"github.com/alejandrodnm/nexbit/internal/ports"
)

// AutoTrader controla el bot de trading automático del servidor.
type AutoTrader struct {
	ai     ports.AITrading
	tokens TokenSource
}

// NewAutoTrader crea un AutoTrader.
func NewAutoTrader(ai ports.AITrading, tokens TokenSource) *AutoTrader {
	return &AutoTrader{ai: ai, tokens: tokens}
}

// Status indica si el bot está activo.
func (a *AutoTrader) Status(ctx context.Context) (bool, error) {
	token, ok := a.tokens.Token()
	if !ok {
		return false, domain.ErrNotAuthenticated
	}
	active, err := a.ai.AIStatus(ctx, token)
	if err != nil {
		return false, fmt.Errorf("trading.Status: %w", err)
	}
	return active, nil
}

// Set arranca o para el bot.
func (a *AutoTrader) Set(ctx context.Context, active bool) error {
	token, ok := a.tokens.Token()
	if !ok {
		return domain.ErrNotAuthenticated
	}
	if err := a.ai.SetAITrading(ctx, token, active); err != nil {
		return fmt.Errorf("trading.Set: %w", err)
	}
	slog.Info("trading: ai trading changed", "active", active)
	return nil
}

// Toggle lee el estado actual y pide el contrario. Devuelve el nuevo estado.
func (a *AutoTrader) Toggle(ctx context.Context) (bool, error) {
	active, err := a.Status(ctx)
	if err != nil {
		return false, err
	}
	if err := a.Set(ctx, !active); err != nil {
		return active, err
	}
	return !active, nil
}
