package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/nexbit/internal/domain"
)

// Archive persiste el histórico de predicciones y el journal de órdenes.
// Es opcional: sin archive el core funciona solo en memoria.
type Archive interface {
	// SavePrediction guarda el snapshot de su ventana (identificada por ValidUntil).
	// Un segundo snapshot de la misma ventana reemplaza al anterior.
	SavePrediction(ctx context.Context, p domain.PredictionSnapshot) error

	// GetPredictions devuelve los snapshots con ValidUntil en [from, to], más antiguos primero.
	GetPredictions(ctx context.Context, from, to time.Time) ([]domain.PredictionSnapshot, error)

	// SaveOrder añade un intento de orden al journal.
	SaveOrder(ctx context.Context, e domain.OrderJournalEntry) error

	// GetOrders devuelve el journal en el rango dado, más recientes primero.
	GetOrders(ctx context.Context, from, to time.Time) ([]domain.OrderJournalEntry, error)

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
