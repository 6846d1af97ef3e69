package ports

import (
	"context"

	"github.com/alejandrodnm/nexbit/internal/domain"
)

// TradeLogProvider obtiene el historial de órdenes del usuario.
type TradeLogProvider interface {
	FetchTradeLogs(ctx context.Context, token string, q domain.TradeLogQuery) ([]domain.TradeLog, error)
}
