package ports

import (
	"context"

	"github.com/alejandrodnm/nexbit/internal/domain"
)

// Notifier recibe cada snapshot que el sincronizador confirma.
type Notifier interface {
	// NotifyQuotes se llama tras reemplazar el snapshot de quotes.
	NotifyQuotes(ctx context.Context, q domain.QuoteSnapshot) error

	// NotifyPrediction se llama tras reemplazar el snapshot de predicción.
	NotifyPrediction(ctx context.Context, p domain.PredictionSnapshot) error
}
