// Package dashboard mantiene sincronizados los snapshots de mercado, predicción
// y cartera que consumen los informes.
//
// Dos cadencias independientes:
//   - quotes: cada sync.quote_interval (10s por defecto)
//   - predicciones: en cada boundary de N horas (00:00, 04:00, ... hora local)
//
// Cada stream tiene un número de secuencia creciente. Una respuesta solo se
// confirma si su secuencia sigue siendo la última emitida para ese stream; así
// una respuesta lenta nunca pisa a una más nueva.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alejandrodnm/nexbit/internal/domain"
	"github.com/alejandrodnm/nexbit/internal/metrics"
	"github.com/alejandrodnm/nexbit/internal/ports"
	"github.com/alejandrodnm/nexbit/internal/scheduler"
	"golang.org/x/sync/errgroup"
)

const (
	streamQuotes      = "quotes"
	streamPredictions = "predictions"
	streamPortfolio   = "portfolio"
)

// ErrEmptySeries se devuelve cuando el exchange responde sin velas.
var ErrEmptySeries = errors.New("empty candle series")

// Config parametriza el sincronizador.
type Config struct {
	Market        string
	Interval      domain.Interval
	Count         int // velas por tick; 0 = Interval.DefaultCount()
	QuoteEvery    time.Duration
	BoundaryHours int
	Location      *time.Location // zona de los boundaries; nil = la del reloj
}

func (c Config) validate() error {
	if c.Market == "" {
		return fmt.Errorf("market is required")
	}
	if !c.Interval.Valid() {
		return fmt.Errorf("invalid interval %q", c.Interval)
	}
	if c.QuoteEvery <= 0 {
		return fmt.Errorf("quote interval must be positive, got %s", c.QuoteEvery)
	}
	return nil
}

// Syncer orquesta los fetches periódicos y guarda el último estado confirmado.
type Syncer struct {
	cfg         Config
	quotes      ports.QuoteProvider
	predictions ports.PredictionProvider
	portfolio   ports.PortfolioProvider
	archive     ports.Archive  // opcional
	notifier    ports.Notifier // opcional
	clock       scheduler.Clock
	boundary    *scheduler.Boundary

	quote      atomic.Pointer[domain.QuoteSnapshot]
	prediction atomic.Pointer[domain.PredictionSnapshot]
	position   atomic.Pointer[domain.Position]

	seqMu   sync.Mutex
	seq     map[string]uint64
	stopped bool

	loopsMu   sync.Mutex
	quoteLoop *scheduler.Loop
	predLoop  *scheduler.Loop
	stopLoops context.CancelFunc
	started   bool
}

// Option configura un Syncer.
type Option func(*Syncer)

// WithArchive persiste cada predicción confirmada.
func WithArchive(a ports.Archive) Option {
	return func(s *Syncer) { s.archive = a }
}

// WithNotifier recibe cada snapshot confirmado.
func WithNotifier(n ports.Notifier) Option {
	return func(s *Syncer) { s.notifier = n }
}

// WithClock reemplaza el reloj del sistema (tests).
func WithClock(c scheduler.Clock) Option {
	return func(s *Syncer) { s.clock = c }
}

// New crea un Syncer parado.
func New(cfg Config, quotes ports.QuoteProvider, predictions ports.PredictionProvider, portfolio ports.PortfolioProvider, opts ...Option) (*Syncer, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("dashboard.New: %w", err)
	}
	if cfg.BoundaryHours == 0 {
		cfg.BoundaryHours = scheduler.DefaultBoundaryHours
	}
	boundary, err := scheduler.NewBoundary(cfg.BoundaryHours)
	if err != nil {
		return nil, fmt.Errorf("dashboard.New: %w", err)
	}
	if cfg.Count <= 0 {
		cfg.Count = cfg.Interval.DefaultCount()
	}

	s := &Syncer{
		cfg:         cfg,
		quotes:      quotes,
		predictions: predictions,
		portfolio:   portfolio,
		clock:       scheduler.SystemClock,
		boundary:    boundary,
		seq:         make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.clock = scheduler.InLocation(s.clock, cfg.Location)
	return s, nil
}

// Start lanza las dos cadencias. Ambas disparan una vez al arrancar.
func (s *Syncer) Start(ctx context.Context) error {
	s.loopsMu.Lock()
	defer s.loopsMu.Unlock()
	if s.started {
		return scheduler.ErrLoopStarted
	}
	s.started = true

	ctx, cancel := context.WithCancel(ctx)
	s.stopLoops = cancel

	s.quoteLoop = scheduler.NewLoop(streamQuotes, scheduler.Every(s.cfg.QuoteEvery), s.RefreshQuotes,
		scheduler.WithClock(s.clock), scheduler.WithImmediate())
	s.predLoop = scheduler.NewLoop(streamPredictions, s.boundary, s.RefreshPrediction,
		scheduler.WithClock(s.clock), scheduler.WithImmediate())

	if err := s.quoteLoop.Start(ctx); err != nil {
		return fmt.Errorf("dashboard.Start: quotes: %w", err)
	}
	if err := s.predLoop.Start(ctx); err != nil {
		s.quoteLoop.Stop()
		return fmt.Errorf("dashboard.Start: predictions: %w", err)
	}
	slog.Info("dashboard: sync started",
		"market", s.cfg.Market,
		"interval", s.cfg.Interval,
		"quote_every", s.cfg.QuoteEvery,
		"boundary_hours", s.boundary.Hours(),
	)
	return nil
}

// Stop para ambas cadencias y cancela los fetches en vuelo. Ninguna respuesta
// que llegue después se confirma. Es idempotente.
func (s *Syncer) Stop() {
	s.seqMu.Lock()
	s.stopped = true
	s.seqMu.Unlock()

	s.loopsMu.Lock()
	quoteLoop, predLoop, cancel := s.quoteLoop, s.predLoop, s.stopLoops
	s.loopsMu.Unlock()

	if cancel != nil {
		cancel()
	}
	if quoteLoop != nil {
		quoteLoop.Stop()
	}
	if predLoop != nil {
		predLoop.Stop()
	}
}

// NextPredictionAt devuelve el próximo disparo de predicciones (zero si parado).
func (s *Syncer) NextPredictionAt() time.Time {
	s.loopsMu.Lock()
	defer s.loopsMu.Unlock()
	if s.predLoop == nil {
		return time.Time{}
	}
	return s.predLoop.NextAt()
}

// RefreshQuotes hace un fetch de velas y reemplaza el snapshot de quotes.
// Un fallo deja el snapshot anterior intacto.
func (s *Syncer) RefreshQuotes(ctx context.Context) error {
	start := time.Now()
	seq, ok := s.issue(streamQuotes)
	if !ok {
		return nil
	}

	raw, err := s.quotes.FetchCandles(ctx, s.cfg.Market, s.cfg.Interval, s.cfg.Count)
	if err != nil {
		metrics.ObserveFetch(streamQuotes, start, metrics.Result(err))
		return fmt.Errorf("dashboard.RefreshQuotes: %w", err)
	}
	candles := domain.NormalizeCandles(raw)
	price, ok := domain.LastClose(candles)
	if !ok {
		metrics.ObserveFetch(streamQuotes, start, metrics.ResultError)
		return fmt.Errorf("dashboard.RefreshQuotes: %w", ErrEmptySeries)
	}

	snap := &domain.QuoteSnapshot{
		Market:       s.cfg.Market,
		Interval:     s.cfg.Interval,
		Candles:      candles,
		CurrentPrice: price,
		FetchedAt:    s.clock.Now(),
	}
	if !s.commit(streamQuotes, seq, func() { s.quote.Store(snap) }) {
		metrics.ObserveFetch(streamQuotes, start, metrics.ResultStale)
		return nil
	}
	metrics.ObserveFetch(streamQuotes, start, metrics.ResultOK)
	metrics.QuotePrice.WithLabelValues(s.cfg.Market).Set(price)
	slog.Debug("dashboard: quotes updated", "market", s.cfg.Market, "price", price, "candles", len(candles))

	if s.notifier != nil {
		if err := s.notifier.NotifyQuotes(ctx, *snap); err != nil {
			slog.Warn("dashboard: notify quotes failed", "err", err)
		}
	}
	return nil
}

// RefreshPrediction pide precio y probabilidad en paralelo y reemplaza el
// snapshot solo si ambos llegan. El snapshot vale hasta el próximo boundary.
func (s *Syncer) RefreshPrediction(ctx context.Context) error {
	start := time.Now()
	seq, ok := s.issue(streamPredictions)
	if !ok {
		return nil
	}

	var price, prob float64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		price, err = s.predictions.FetchPredictedPrice(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		prob, err = s.predictions.FetchUpProbability(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		metrics.ObserveFetch(streamPredictions, start, metrics.Result(err))
		return fmt.Errorf("dashboard.RefreshPrediction: %w", err)
	}

	now := s.clock.Now()
	snap := &domain.PredictionSnapshot{
		PredictedPrice: price,
		UpProbability:  prob,
		FetchedAt:      now,
		ValidUntil:     s.boundary.Next(now),
	}
	if !s.commit(streamPredictions, seq, func() { s.prediction.Store(snap) }) {
		metrics.ObserveFetch(streamPredictions, start, metrics.ResultStale)
		return nil
	}
	metrics.ObserveFetch(streamPredictions, start, metrics.ResultOK)
	metrics.UpProbability.Set(prob)
	slog.Info("dashboard: prediction updated",
		"predicted_price", price,
		"up_probability", prob,
		"valid_until", snap.ValidUntil,
	)

	if s.archive != nil {
		if err := s.archive.SavePrediction(ctx, *snap); err != nil {
			slog.Warn("dashboard: archive prediction failed", "err", err)
		}
	}
	if s.notifier != nil {
		if err := s.notifier.NotifyPrediction(ctx, *snap); err != nil {
			slog.Warn("dashboard: notify prediction failed", "err", err)
		}
	}
	return nil
}

// RefreshPosition reemplaza la posición con los saldos actuales del usuario.
func (s *Syncer) RefreshPosition(ctx context.Context, token string) error {
	start := time.Now()
	seq, ok := s.issue(streamPortfolio)
	if !ok {
		return nil
	}

	pos, err := s.portfolio.FetchPosition(ctx, token, s.cfg.Market)
	if err != nil {
		metrics.ObserveFetch(streamPortfolio, start, metrics.Result(err))
		return fmt.Errorf("dashboard.RefreshPosition: %w", err)
	}
	if !s.commit(streamPortfolio, seq, func() { s.position.Store(&pos) }) {
		metrics.ObserveFetch(streamPortfolio, start, metrics.ResultStale)
		return nil
	}
	metrics.ObserveFetch(streamPortfolio, start, metrics.ResultOK)
	slog.Debug("dashboard: position updated", "currency", pos.Currency, "balance", pos.Balance)
	return nil
}

// OnSession es el listener de session: login → refetch de la cartera, logout → se borra.
func (s *Syncer) OnSession(ctx context.Context, token string) {
	if token == "" {
		s.clearPosition()
		return
	}
	if err := s.RefreshPosition(ctx, token); err != nil {
		slog.Warn("dashboard: portfolio fetch failed", "err", err)
	}
}

// clearPosition invalida cualquier fetch de cartera en vuelo y borra la posición.
func (s *Syncer) clearPosition() {
	s.seqMu.Lock()
	defer s.seqMu.Unlock()
	s.seq[streamPortfolio]++
	s.position.Store(nil)
}

// Quote devuelve el último snapshot de quotes confirmado.
func (s *Syncer) Quote() (domain.QuoteSnapshot, bool) {
	q := s.quote.Load()
	if q == nil {
		return domain.QuoteSnapshot{}, false
	}
	return *q, true
}

// Prediction devuelve el último snapshot de predicción confirmado.
// Puede estar vencido (Stale) si el fetch del boundary falló.
func (s *Syncer) Prediction() (domain.PredictionSnapshot, bool) {
	p := s.prediction.Load()
	if p == nil {
		return domain.PredictionSnapshot{}, false
	}
	return *p, true
}

// Position devuelve la posición actual, nil sin sesión.
func (s *Syncer) Position() *domain.Position {
	return s.position.Load()
}

// Price devuelve el precio de la quote en vivo; sin quote, el que reportó la cartera.
func (s *Syncer) Price() float64 {
	if q := s.quote.Load(); q != nil && q.CurrentPrice > 0 {
		return q.CurrentPrice
	}
	if p := s.position.Load(); p != nil {
		return p.CurrentPrice
	}
	return 0
}

// Valuation valora la posición actual al precio vivo. Sin sesión devuelve ceros.
func (s *Syncer) Valuation() domain.Valuation {
	return domain.Evaluate(s.position.Load(), s.Price())
}

// Allocation devuelve el reparto activo/cash al precio vivo.
func (s *Syncer) Allocation() domain.Allocation {
	return domain.Allocate(s.position.Load(), s.Price())
}

// ProfitHistory reconstruye el P&L de la posición actual sobre count velas del
// intervalo dado. El último periodo cierra al precio vivo.
func (s *Syncer) ProfitHistory(ctx context.Context, interval domain.Interval, count int) (domain.ProfitReport, error) {
	pos := s.position.Load()
	if pos == nil {
		return domain.ProfitReport{}, fmt.Errorf("dashboard.ProfitHistory: %w", domain.ErrNotAuthenticated)
	}

	raw, err := s.quotes.FetchCandles(ctx, s.cfg.Market, interval, count)
	if err != nil {
		return domain.ProfitReport{}, fmt.Errorf("dashboard.ProfitHistory: %w", err)
	}
	candles := domain.NormalizeCandles(raw)

	price := s.Price()
	if price <= 0 {
		price, _ = domain.LastClose(candles)
	}

	records := domain.Reconstruct(*pos, candles, price)
	return domain.ProfitReport{
		Summary: domain.Summarize(*pos, records),
		Records: domain.NewestFirst(records),
	}, nil
}

// issue emite la siguiente secuencia del stream. false si el Syncer está parado.
func (s *Syncer) issue(stream string) (uint64, bool) {
	s.seqMu.Lock()
	defer s.seqMu.Unlock()
	if s.stopped {
		return 0, false
	}
	s.seq[stream]++
	return s.seq[stream], true
}

// commit aplica el cambio solo si seq sigue siendo la última emitida del stream.
func (s *Syncer) commit(stream string, seq uint64, apply func()) bool {
	s.seqMu.Lock()
	defer s.seqMu.Unlock()
	if s.stopped || s.seq[stream] != seq {
		metrics.StaleResponses.WithLabelValues(stream).Inc()
		slog.Debug("dashboard: stale response discarded", "stream", stream, "seq", seq, "latest", s.seq[stream])
		return false
	}
	apply()
	return true
}
