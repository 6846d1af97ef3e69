package trading

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alejandrodnm/nexbit/internal/domain"
	"github.com/alejandrodnm/nexbit/internal/ports"
)

// ErrNoArchive se devuelve al consultar el archive local si está deshabilitado.
var ErrNoArchive = errors.New("local archive disabled")

// History consulta el historial del exchange y el archive local.
type History struct {
	logs    ports.TradeLogProvider
	tokens  TokenSource
	archive ports.Archive // opcional
	now     func() time.Time
}

// NewHistory crea un History. archive puede ser nil.
func NewHistory(logs ports.TradeLogProvider, tokens TokenSource, archive ports.Archive) *History {
	return &History{logs: logs, tokens: tokens, archive: archive, now: time.Now}
}

// TradeLogs devuelve las órdenes del usuario que cumplen el filtro, más recientes primero.
func (h *History) TradeLogs(ctx context.Context, filter domain.TradeLogFilter) ([]domain.TradeLog, error) {
	token, ok := h.tokens.Token()
	if !ok {
		return nil, domain.ErrNotAuthenticated
	}
	logs, err := h.logs.FetchTradeLogs(ctx, token, filter.Query(h.now()))
	if err != nil {
		return nil, fmt.Errorf("trading.TradeLogs: %w", err)
	}
	return logs, nil
}

// Journal devuelve los intentos de orden locales en el periodo.
func (h *History) Journal(ctx context.Context, period domain.TradeLogPeriod) ([]domain.OrderJournalEntry, error) {
	if h.archive == nil {
		return nil, ErrNoArchive
	}
	from, to := h.window(period)
	entries, err := h.archive.GetOrders(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("trading.Journal: %w", err)
	}
	return entries, nil
}

// Predictions devuelve las predicciones archivadas en el periodo.
func (h *History) Predictions(ctx context.Context, period domain.TradeLogPeriod) ([]domain.PredictionSnapshot, error) {
	if h.archive == nil {
		return nil, ErrNoArchive
	}
	from, to := h.window(period)
	preds, err := h.archive.GetPredictions(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("trading.Predictions: %w", err)
	}
	return preds, nil
}

// window resuelve el periodo hasta ahora. "all" abarca todo el archive.
func (h *History) window(period domain.TradeLogPeriod) (time.Time, time.Time) {
	now := h.now()
	to := now.Add(24 * time.Hour) // incluye el boundary ya calculado de la ventana actual
	if start, _, ok := period.Range(now); ok {
		return start, to
	}
	return time.Unix(0, 0), to
}
