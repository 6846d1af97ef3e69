package storage

// sqlite.go — archivo local de predicciones y journal de órdenes.
//
// Estrategia:
//   - `predictions`: UNA fila por ventana de 4h (UPSERT por valid_until).
//     Un re-fetch dentro de la misma ventana reemplaza la fila.
//   - `orders`: append-only, una fila por intento (enviado, rechazado o fallido).
//   - Cache en memoria del último snapshot: si el re-fetch trae los mismos valores
//     no se escribe.
//   - Prune automático al arrancar: predicciones > 180d. Las órdenes no se borran.
//
// Los timestamps se guardan como TEXT UTC de ancho fijo para que el orden
// lexicográfico coincida con el cronológico.

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/alejandrodnm/nexbit/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
-- Un snapshot por ventana de predicción
CREATE TABLE IF NOT EXISTS predictions (
    valid_until     TEXT PRIMARY KEY,
    fetched_at      TEXT NOT NULL,
    predicted_price REAL NOT NULL,
    up_probability  REAL NOT NULL
);

-- Journal de intentos de orden
CREATE TABLE IF NOT EXISTS orders (
    local_id    TEXT PRIMARY KEY,
    exchange_id TEXT NOT NULL DEFAULT '',
    market      TEXT NOT NULL,
    side        TEXT NOT NULL,
    price       REAL NOT NULL DEFAULT 0,
    quantity    REAL NOT NULL DEFAULT 0,
    amount      REAL NOT NULL DEFAULT 0,
    status      TEXT NOT NULL,
    reason      TEXT NOT NULL DEFAULT '',
    at          TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_pred_fetched ON predictions(fetched_at DESC);
CREATE INDEX IF NOT EXISTS idx_orders_at    ON orders(at DESC);
`

const (
	retentionPredictions = 180 * 24 * time.Hour
	tsLayout             = "2006-01-02T15:04:05.000000000Z"
)

// SQLiteStorage implementa ports.Archive usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db   *sql.DB
	last *domain.PredictionSnapshot // último snapshot escrito
	mu   sync.Mutex
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada.
// Aplica el schema, limpia predicciones antiguas y precarga la cache.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	s := &SQLiteStorage{db: db}
	s.pruneOld(context.Background())
	s.warmCache(context.Background())
	return s, nil
}

// SavePrediction hace upsert del snapshot de su ventana. Si coincide con el
// último escrito no toca disco.
func (s *SQLiteStorage) SavePrediction(ctx context.Context, p domain.PredictionSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.last != nil && sameWindow(*s.last, p) &&
		s.last.PredictedPrice == p.PredictedPrice && s.last.UpProbability == p.UpProbability {
		return nil
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO predictions (valid_until, fetched_at, predicted_price, up_probability)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(valid_until) DO UPDATE SET
			fetched_at      = excluded.fetched_at,
			predicted_price = excluded.predicted_price,
			up_probability  = excluded.up_probability`,
		ts(p.ValidUntil), ts(p.FetchedAt), p.PredictedPrice, p.UpProbability,
	); err != nil {
		return fmt.Errorf("storage.SavePrediction: upsert: %w", err)
	}

	saved := p
	s.last = &saved
	return nil
}

// GetPredictions devuelve los snapshots con valid_until en [from, to], más antiguos primero.
func (s *SQLiteStorage) GetPredictions(ctx context.Context, from, to time.Time) ([]domain.PredictionSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT valid_until, fetched_at, predicted_price, up_probability
		FROM predictions
		WHERE valid_until BETWEEN ? AND ?
		ORDER BY valid_until ASC`,
		ts(from), ts(to),
	)
	if err != nil {
		return nil, fmt.Errorf("storage.GetPredictions: %w", err)
	}
	defer rows.Close()

	var out []domain.PredictionSnapshot
	for rows.Next() {
		var p domain.PredictionSnapshot
		var validUntil, fetchedAt string
		if err := rows.Scan(&validUntil, &fetchedAt, &p.PredictedPrice, &p.UpProbability); err != nil {
			return nil, fmt.Errorf("storage.GetPredictions: scan: %w", err)
		}
		p.ValidUntil, _ = time.Parse(tsLayout, validUntil)
		p.FetchedAt, _ = time.Parse(tsLayout, fetchedAt)
		out = append(out, p)
	}
	return out, rows.Err()
}

// SaveOrder añade un intento al journal. Un local_id repetido es un error.
func (s *SQLiteStorage) SaveOrder(ctx context.Context, e domain.OrderJournalEntry) error {
	if e.LocalID == "" {
		return fmt.Errorf("storage.SaveOrder: empty local id")
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO orders (local_id, exchange_id, market, side, price, quantity, amount, status, reason, at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.LocalID, e.ExchangeID, e.Market, string(e.Side), e.Price, e.Quantity, e.Amount,
		string(e.Status), e.Reason, ts(e.At),
	); err != nil {
		return fmt.Errorf("storage.SaveOrder: insert: %w", err)
	}
	return nil
}

// GetOrders devuelve el journal en [from, to], más recientes primero.
func (s *SQLiteStorage) GetOrders(ctx context.Context, from, to time.Time) ([]domain.OrderJournalEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT local_id, exchange_id, market, side, price, quantity, amount, status, reason, at
		FROM orders
		WHERE at BETWEEN ? AND ?
		ORDER BY at DESC`,
		ts(from), ts(to),
	)
	if err != nil {
		return nil, fmt.Errorf("storage.GetOrders: %w", err)
	}
	defer rows.Close()

	var out []domain.OrderJournalEntry
	for rows.Next() {
		var e domain.OrderJournalEntry
		var side, status, at string
		if err := rows.Scan(&e.LocalID, &e.ExchangeID, &e.Market, &side,
			&e.Price, &e.Quantity, &e.Amount, &status, &e.Reason, &at); err != nil {
			return nil, fmt.Errorf("storage.GetOrders: scan: %w", err)
		}
		e.Side = domain.Side(side)
		e.Status = domain.OrderStatus(status)
		e.At, _ = time.Parse(tsLayout, at)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// pruneOld elimina predicciones antiguas para mantener la DB ligera.
func (s *SQLiteStorage) pruneOld(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-retentionPredictions)
	s.db.ExecContext(ctx, `DELETE FROM predictions WHERE valid_until < ?`, ts(cutoff))
}

// warmCache carga el último snapshot guardado.
func (s *SQLiteStorage) warmCache(ctx context.Context) {
	var p domain.PredictionSnapshot
	var validUntil, fetchedAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT valid_until, fetched_at, predicted_price, up_probability
		FROM predictions ORDER BY valid_until DESC LIMIT 1`,
	).Scan(&validUntil, &fetchedAt, &p.PredictedPrice, &p.UpProbability)
	if err != nil {
		return
	}
	p.ValidUntil, _ = time.Parse(tsLayout, validUntil)
	p.FetchedAt, _ = time.Parse(tsLayout, fetchedAt)
	s.last = &p
}

func sameWindow(a, b domain.PredictionSnapshot) bool {
	return a.ValidUntil.Equal(b.ValidUntil)
}

func ts(t time.Time) string {
	return t.UTC().Format(tsLayout)
}
