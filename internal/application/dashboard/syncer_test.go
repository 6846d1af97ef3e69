package dashboard_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alejandrodnm/nexbit/internal/application/dashboard"
	"github.com/alejandrodnm/nexbit/internal/domain"
	"github.com/alejandrodnm/nexbit/internal/metrics"
	"github.com/alejandrodnm/nexbit/internal/scheduler/schedulertest"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockQuotes struct {
	mu    sync.Mutex
	calls int
	fetch func(call int, interval domain.Interval) ([]domain.Candle, error)
}

func (m *mockQuotes) FetchCandles(_ context.Context, _ string, interval domain.Interval, _ int) ([]domain.Candle, error) {
	m.mu.Lock()
	m.calls++
	n := m.calls
	m.mu.Unlock()
	return m.fetch(n, interval)
}

func (m *mockQuotes) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockPredictions struct {
	price    float64
	prob     float64
	priceErr error
	probErr  error
	calls    atomic.Int32
}

func (m *mockPredictions) FetchPredictedPrice(context.Context) (float64, error) {
	m.calls.Add(1)
	return m.price, m.priceErr
}

func (m *mockPredictions) FetchUpProbability(context.Context) (float64, error) {
	return m.prob, m.probErr
}

type mockPortfolio struct {
	fetch func(token string) (domain.Position, error)
}

func (m *mockPortfolio) FetchPosition(_ context.Context, token, _ string) (domain.Position, error) {
	return m.fetch(token)
}

type mockArchive struct {
	mu    sync.Mutex
	saved []domain.PredictionSnapshot
}

func (m *mockArchive) SavePrediction(_ context.Context, p domain.PredictionSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, p)
	return nil
}

func (m *mockArchive) GetPredictions(context.Context, time.Time, time.Time) ([]domain.PredictionSnapshot, error) {
	return nil, nil
}

func (m *mockArchive) SaveOrder(context.Context, domain.OrderJournalEntry) error { return nil }

func (m *mockArchive) GetOrders(context.Context, time.Time, time.Time) ([]domain.OrderJournalEntry, error) {
	return nil, nil
}

func (m *mockArchive) Close() error { return nil }

type mockNotifier struct {
	mu          sync.Mutex
	quotes      int
	predictions int
}

func (m *mockNotifier) NotifyQuotes(context.Context, domain.QuoteSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quotes++
	return nil
}

func (m *mockNotifier) NotifyPrediction(context.Context, domain.PredictionSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictions++
	return nil
}

// --- helpers ---

var kst = time.FixedZone("KST", 9*3600)

func at(hour, minute, second int) time.Time {
	return time.Date(2025, 5, 19, hour, minute, second, 0, kst)
}

// wire devuelve velas en orden del wire (la más reciente primero), una por día.
func wire(closes ...float64) []domain.Candle {
	out := make([]domain.Candle, len(closes))
	for i, c := range closes {
		out[len(closes)-1-i] = domain.Candle{Time: at(0, 0, 0).AddDate(0, 0, i), Close: c}
	}
	return out
}

func staticQuotes(closes ...float64) *mockQuotes {
	return &mockQuotes{fetch: func(int, domain.Interval) ([]domain.Candle, error) {
		return wire(closes...), nil
	}}
}

func config() dashboard.Config {
	return dashboard.Config{
		Market:     "KRW-BTC",
		Interval:   domain.IntervalMinute10,
		QuoteEvery: 10 * time.Second,
	}
}

func noPortfolio() *mockPortfolio {
	return &mockPortfolio{fetch: func(string) (domain.Position, error) {
		return domain.Position{}, errors.New("unexpected portfolio call")
	}}
}

// --- tests ---

func TestNew_Validation(t *testing.T) {
	quotes := staticQuotes(1)
	preds := &mockPredictions{}

	cfg := config()
	cfg.Interval = "hours"
	_, err := dashboard.New(cfg, quotes, preds, noPortfolio())
	assert.Error(t, err)

	cfg = config()
	cfg.BoundaryHours = 5
	_, err = dashboard.New(cfg, quotes, preds, noPortfolio())
	assert.Error(t, err)

	cfg = config()
	cfg.QuoteEvery = 0
	_, err = dashboard.New(cfg, quotes, preds, noPortfolio())
	assert.Error(t, err)
}

func TestSyncer_TwoCadences(t *testing.T) {
	clock := schedulertest.NewFakeClock(at(15, 59, 50))
	quotes := staticQuotes(100, 101, 102)
	preds := &mockPredictions{price: 110, prob: 0.62}
	archive := &mockArchive{}
	notifier := &mockNotifier{}

	s, err := dashboard.New(config(), quotes, preds, noPortfolio(),
		dashboard.WithClock(clock), dashboard.WithArchive(archive), dashboard.WithNotifier(notifier))
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))

	// ambas cadencias disparan al arrancar
	clock.Advance(0)
	assert.Equal(t, 1, quotes.Calls())
	assert.Equal(t, int32(1), preds.calls.Load())

	p, ok := s.Prediction()
	require.True(t, ok)
	assert.Equal(t, at(15, 59, 50), p.FetchedAt)
	assert.Equal(t, at(16, 0, 0), p.ValidUntil)
	assert.Equal(t, at(16, 0, 0), s.NextPredictionAt())

	q, ok := s.Quote()
	require.True(t, ok)
	assert.Equal(t, 102.0, q.CurrentPrice)
	assert.True(t, q.Candles[0].Time.Before(q.Candles[2].Time))

	// 16:00:00 y 16:00:10 de quotes, 16:00 de predicciones
	clock.Advance(20 * time.Second)
	assert.Equal(t, 3, quotes.Calls())
	assert.Equal(t, int32(2), preds.calls.Load())

	p, _ = s.Prediction()
	assert.Equal(t, at(20, 0, 0), p.ValidUntil)
	assert.Equal(t, at(20, 0, 0), s.NextPredictionAt())

	assert.Len(t, archive.saved, 2)
	assert.Equal(t, 3, notifier.quotes)
	assert.Equal(t, 2, notifier.predictions)

	s.Stop()
	assert.Equal(t, 0, clock.Pending())
	clock.Advance(time.Hour)
	assert.Equal(t, 3, quotes.Calls())
	assert.True(t, s.NextPredictionAt().IsZero())

	// no reiniciable
	assert.Error(t, s.Start(context.Background()))
}

func TestSyncer_FailedQuoteFetchKeepsSnapshot(t *testing.T) {
	fail := false
	quotes := &mockQuotes{fetch: func(int, domain.Interval) ([]domain.Candle, error) {
		if fail {
			return nil, errors.New("upstream 503")
		}
		return wire(100, 200), nil
	}}
	s, err := dashboard.New(config(), quotes, &mockPredictions{}, noPortfolio())
	require.NoError(t, err)

	require.NoError(t, s.RefreshQuotes(context.Background()))
	fail = true
	errorsBefore := testutil.ToFloat64(metrics.FetchesTotal.WithLabelValues("quotes", metrics.ResultError))
	assert.Error(t, s.RefreshQuotes(context.Background()))
	assert.Equal(t, errorsBefore+1, testutil.ToFloat64(metrics.FetchesTotal.WithLabelValues("quotes", metrics.ResultError)))

	q, ok := s.Quote()
	require.True(t, ok)
	assert.Equal(t, 200.0, q.CurrentPrice)
}

func TestSyncer_EmptySeriesIsError(t *testing.T) {
	s, err := dashboard.New(config(), staticQuotes(), &mockPredictions{}, noPortfolio())
	require.NoError(t, err)

	assert.ErrorIs(t, s.RefreshQuotes(context.Background()), dashboard.ErrEmptySeries)
	_, ok := s.Quote()
	assert.False(t, ok)
}

func TestSyncer_PredictionNeedsBothValues(t *testing.T) {
	preds := &mockPredictions{price: 110, prob: 0.6}
	archive := &mockArchive{}
	s, err := dashboard.New(config(), staticQuotes(1), preds, noPortfolio(), dashboard.WithArchive(archive))
	require.NoError(t, err)

	require.NoError(t, s.RefreshPrediction(context.Background()))

	preds.price, preds.probErr = 999, errors.New("probability unavailable")
	assert.Error(t, s.RefreshPrediction(context.Background()))

	p, ok := s.Prediction()
	require.True(t, ok)
	assert.Equal(t, 110.0, p.PredictedPrice)
	assert.Len(t, archive.saved, 1)
}

func TestSyncer_StaleResponseDiscarded(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	quotes := &mockQuotes{fetch: func(call int, _ domain.Interval) ([]domain.Candle, error) {
		if call == 1 {
			close(entered)
			<-release
			return wire(111), nil // respuesta vieja y lenta
		}
		return wire(222), nil
	}}
	s, err := dashboard.New(config(), quotes, &mockPredictions{}, noPortfolio())
	require.NoError(t, err)

	done := make(chan error)
	go func() { done <- s.RefreshQuotes(context.Background()) }()
	<-entered

	require.NoError(t, s.RefreshQuotes(context.Background()))
	close(release)
	require.NoError(t, <-done)

	q, ok := s.Quote()
	require.True(t, ok)
	assert.Equal(t, 222.0, q.CurrentPrice)
}

func TestSyncer_StopDiscardsInFlight(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	quotes := &mockQuotes{fetch: func(int, domain.Interval) ([]domain.Candle, error) {
		close(entered)
		<-release
		return wire(100), nil
	}}
	s, err := dashboard.New(config(), quotes, &mockPredictions{}, noPortfolio())
	require.NoError(t, err)

	done := make(chan error)
	go func() { done <- s.RefreshQuotes(context.Background()) }()
	<-entered
	s.Stop()
	close(release)
	require.NoError(t, <-done)

	_, ok := s.Quote()
	assert.False(t, ok)
	assert.NoError(t, s.RefreshQuotes(context.Background()))
	assert.Equal(t, 1, quotes.Calls())
}

func TestSyncer_SessionDrivesPosition(t *testing.T) {
	portfolio := &mockPortfolio{fetch: func(token string) (domain.Position, error) {
		assert.Equal(t, "tok", token)
		return domain.Position{
			Market: "KRW-BTC", Currency: "BTC",
			Balance: 0.01, AvgBuyPrice: 50000000, CashBalance: 100000, CurrentPrice: 54000000,
		}, nil
	}}
	s, err := dashboard.New(config(), staticQuotes(55000000), &mockPredictions{}, portfolio)
	require.NoError(t, err)

	// sin sesión todo es cero
	assert.Nil(t, s.Position())
	assert.Equal(t, domain.Valuation{}, s.Valuation())

	s.OnSession(context.Background(), "tok")
	require.NotNil(t, s.Position())

	// sin quote en vivo se usa el precio que reporta la cartera
	assert.Equal(t, 54000000.0, s.Price())
	assert.Equal(t, 40000.0, s.Valuation().TotalProfit)

	require.NoError(t, s.RefreshQuotes(context.Background()))
	v := s.Valuation()
	assert.Equal(t, 650000.0, v.TotalAssets)
	assert.Equal(t, 500000.0, v.TotalInvestment)
	assert.Equal(t, 50000.0, v.TotalProfit)
	assert.Equal(t, 10.0, v.ProfitRate)
	assert.InDelta(t, 84.6, s.Allocation().AssetPercent, 1e-9)

	s.OnSession(context.Background(), "")
	assert.Nil(t, s.Position())
	assert.Equal(t, domain.Valuation{}, s.Valuation())
}

func TestSyncer_LogoutDiscardsInFlightPortfolio(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	portfolio := &mockPortfolio{fetch: func(string) (domain.Position, error) {
		close(entered)
		<-release
		return domain.Position{Balance: 1}, nil
	}}
	s, err := dashboard.New(config(), staticQuotes(1), &mockPredictions{}, portfolio)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		s.OnSession(context.Background(), "tok")
		close(done)
	}()
	<-entered
	s.OnSession(context.Background(), "")
	close(release)
	<-done

	assert.Nil(t, s.Position())
}

func TestSyncer_PortfolioErrorKeepsPosition(t *testing.T) {
	fail := false
	portfolio := &mockPortfolio{fetch: func(string) (domain.Position, error) {
		if fail {
			return domain.Position{}, errors.New("401")
		}
		return domain.Position{Balance: 2}, nil
	}}
	s, err := dashboard.New(config(), staticQuotes(1), &mockPredictions{}, portfolio)
	require.NoError(t, err)

	require.NoError(t, s.RefreshPosition(context.Background(), "tok"))
	fail = true
	assert.Error(t, s.RefreshPosition(context.Background(), "tok"))
	require.NotNil(t, s.Position())
	assert.Equal(t, 2.0, s.Position().Balance)
}

func TestSyncer_ProfitHistory(t *testing.T) {
	quotes := &mockQuotes{fetch: func(_ int, interval domain.Interval) ([]domain.Candle, error) {
		if interval == domain.IntervalDay {
			return wire(52000000, 54000000), nil
		}
		return wire(55000000), nil
	}}
	portfolio := &mockPortfolio{fetch: func(string) (domain.Position, error) {
		return domain.Position{Market: "KRW-BTC", Currency: "BTC", Balance: 0.01, AvgBuyPrice: 50000000}, nil
	}}
	s, err := dashboard.New(config(), quotes, &mockPredictions{}, portfolio)
	require.NoError(t, err)

	_, err = s.ProfitHistory(context.Background(), domain.IntervalDay, 30)
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)

	s.OnSession(context.Background(), "tok")
	require.NoError(t, s.RefreshQuotes(context.Background()))

	report, err := s.ProfitHistory(context.Background(), domain.IntervalDay, 30)
	require.NoError(t, err)
	require.Len(t, report.Records, 2)

	// más reciente primero; el último periodo cierra al precio vivo (55M)
	last, first := report.Records[0], report.Records[1]
	assert.InDelta(t, 550000, last.ClosingBalance, 1e-6)
	assert.InDelta(t, 520000, last.OpeningBalance, 1e-6)
	assert.InDelta(t, 30000, last.DailyProfit, 1e-6)
	assert.InDelta(t, 50000, last.CumulativeProfit, 1e-6)
	assert.InDelta(t, 500000, first.OpeningBalance, 1e-6)
	assert.InDelta(t, 20000, first.DailyProfit, 1e-6)

	assert.InDelta(t, 10, report.Summary.CumulativeProfitRate, 1e-9)
	assert.InDelta(t, 500000, report.Summary.InvestedCapital, 1e-6)
}
