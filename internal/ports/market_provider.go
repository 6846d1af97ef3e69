package ports

import (
	"context"

	"github.com/alejandrodnm/nexbit/internal/domain"
)

// QuoteProvider obtiene velas OHLCV del exchange.
type QuoteProvider interface {
	// FetchCandles devuelve hasta count velas del mercado en el orden del wire
	// (la más reciente primero). El llamador normaliza a orden cronológico.
	FetchCandles(ctx context.Context, market string, interval domain.Interval, count int) ([]domain.Candle, error)
}

// PredictionProvider obtiene la predicción del modelo, regenerada cada 4 horas.
type PredictionProvider interface {
	// FetchPredictedPrice devuelve el precio predicho para el próximo boundary.
	FetchPredictedPrice(ctx context.Context) (float64, error)

	// FetchUpProbability devuelve la probabilidad de subida en [0, 1].
	FetchUpProbability(ctx context.Context) (float64, error)
}
