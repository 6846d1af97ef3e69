package trading_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alejandrodnm/nexbit/internal/application/trading"
	"github.com/alejandrodnm/nexbit/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type tokens string

func (t tokens) Token() (string, bool) { return string(t), t != "" }

type mockExecutor struct {
	calls   int
	token   string
	req     domain.OrderRequest
	receipt domain.OrderReceipt
	err     error
}

func (m *mockExecutor) PlaceOrder(_ context.Context, token string, req domain.OrderRequest) (domain.OrderReceipt, error) {
	m.calls++
	m.token, m.req = token, req
	return m.receipt, m.err
}

type mockArchive struct {
	orders      []domain.OrderJournalEntry
	predictions []domain.PredictionSnapshot
	from, to    time.Time
	err         error
}

func (m *mockArchive) SavePrediction(context.Context, domain.PredictionSnapshot) error { return nil }

func (m *mockArchive) GetPredictions(_ context.Context, from, to time.Time) ([]domain.PredictionSnapshot, error) {
	m.from, m.to = from, to
	return m.predictions, m.err
}

func (m *mockArchive) SaveOrder(_ context.Context, e domain.OrderJournalEntry) error {
	m.orders = append(m.orders, e)
	return m.err
}

func (m *mockArchive) GetOrders(_ context.Context, from, to time.Time) ([]domain.OrderJournalEntry, error) {
	m.from, m.to = from, to
	return m.orders, m.err
}

func (m *mockArchive) Close() error { return nil }

type mockAI struct {
	active bool
	sets   []bool
	err    error
}

func (m *mockAI) AIStatus(context.Context, string) (bool, error) { return m.active, m.err }

func (m *mockAI) SetAITrading(_ context.Context, _ string, active bool) error {
	if m.err != nil {
		return m.err
	}
	m.sets = append(m.sets, active)
	m.active = active
	return nil
}

type mockLogs struct {
	query domain.TradeLogQuery
	logs  []domain.TradeLog
	err   error
}

func (m *mockLogs) FetchTradeLogs(_ context.Context, _ string, q domain.TradeLogQuery) ([]domain.TradeLog, error) {
	m.query = q
	return m.logs, m.err
}

var submitted = time.Date(2025, 5, 19, 14, 10, 0, 0, time.UTC)

func newTrader(exec *mockExecutor, tok tokens, archive *mockArchive) *trading.Trader {
	return trading.NewTrader(exec, tok, "KRW-BTC",
		trading.WithJournal(archive),
		trading.WithNow(func() time.Time { return submitted }))
}

// --- Trader ---

func TestTrader_PlaceOrder_Success(t *testing.T) {
	exec := &mockExecutor{receipt: domain.OrderReceipt{ExchangeID: "ex-1", State: "wait"}}
	archive := &mockArchive{}

	receipt, err := newTrader(exec, "tok", archive).PlaceOrder(context.Background(), domain.SideBuy, "50,000,000", "10000")
	require.NoError(t, err)

	assert.Equal(t, 1, exec.calls)
	assert.Equal(t, "tok", exec.token)
	assert.Equal(t, "KRW-BTC", exec.req.Market)
	assert.InDelta(t, 0.0002, exec.req.Quantity, 1e-12)

	assert.NotEmpty(t, receipt.LocalID)
	assert.Equal(t, "ex-1", receipt.ExchangeID)
	assert.Equal(t, submitted, receipt.SubmittedAt)

	require.Len(t, archive.orders, 1)
	e := archive.orders[0]
	assert.Equal(t, receipt.LocalID, e.LocalID)
	assert.Equal(t, domain.OrderSubmitted, e.Status)
	assert.Equal(t, 10000.0, e.Amount)
	assert.Empty(t, e.Reason)
}

func TestTrader_NoNetworkCallOnLocalFailure(t *testing.T) {
	cases := []struct {
		name   string
		tok    tokens
		price  string
		amount string
		want   error
	}{
		{"unauthenticated", "", "50000000", "10000", domain.ErrNotAuthenticated},
		{"price zero", "tok", "0", "10000", domain.ErrInvalidInput},
		{"missing amount", "tok", "50000000", "", domain.ErrMissingInput},
		{"below minimum", "tok", "50000000", "4999", domain.ErrBelowMinimum},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			exec := &mockExecutor{}
			archive := &mockArchive{}
			_, err := newTrader(exec, tc.tok, archive).PlaceOrder(context.Background(), domain.SideBuy, tc.price, tc.amount)
			assert.ErrorIs(t, err, tc.want)
			assert.Zero(t, exec.calls)
			assert.Empty(t, archive.orders)
		})
	}
}

func TestTrader_RejectionVerbatim(t *testing.T) {
	exec := &mockExecutor{err: &domain.RejectionError{Status: 400, Message: "주문가능한 금액(KRW)이 부족합니다."}}
	archive := &mockArchive{}

	receipt, err := newTrader(exec, "tok", archive).PlaceOrder(context.Background(), domain.SideSell, "150000000", "5000")
	require.Error(t, err)
	assert.Equal(t, "주문가능한 금액(KRW)이 부족합니다.", domain.Reason(err))
	assert.NotEmpty(t, receipt.LocalID)

	require.Len(t, archive.orders, 1)
	assert.Equal(t, domain.OrderRejected, archive.orders[0].Status)
	assert.Equal(t, "주문가능한 금액(KRW)이 부족합니다.", archive.orders[0].Reason)
}

func TestTrader_TransportFailure(t *testing.T) {
	exec := &mockExecutor{err: errors.New("dial tcp: i/o timeout")}
	archive := &mockArchive{}

	_, err := newTrader(exec, "tok", archive).PlaceOrder(context.Background(), domain.SideBuy, "100", "5000")
	require.Error(t, err)
	assert.Equal(t, "order execution failed", domain.Reason(err))
	assert.Equal(t, domain.OrderFailed, archive.orders[0].Status)
}

func TestTrader_JournalErrorDoesNotFailOrder(t *testing.T) {
	exec := &mockExecutor{}
	archive := &mockArchive{err: errors.New("disk full")}

	_, err := newTrader(exec, "tok", archive).PlaceOrder(context.Background(), domain.SideBuy, "100", "5000")
	assert.NoError(t, err)
}

func TestTrader_MinNotionalOption(t *testing.T) {
	exec := &mockExecutor{}
	tr := trading.NewTrader(exec, tokens("tok"), "KRW-BTC", trading.WithMinNotional(10000))

	_, err := tr.PlaceOrder(context.Background(), domain.SideBuy, "100", "9999")
	assert.ErrorIs(t, err, domain.ErrBelowMinimum)
	assert.Equal(t, "minimum order amount is 10,000 KRW", domain.Reason(err))
}

// --- AutoTrader ---

func TestAutoTrader_Toggle(t *testing.T) {
	ai := &mockAI{}
	auto := trading.NewAutoTrader(ai, tokens("tok"))

	active, err := auto.Toggle(context.Background())
	require.NoError(t, err)
	assert.True(t, active)

	active, err = auto.Toggle(context.Background())
	require.NoError(t, err)
	assert.False(t, active)
	assert.Equal(t, []bool{true, false}, ai.sets)
}

func TestAutoTrader_RequiresSession(t *testing.T) {
	ai := &mockAI{}
	auto := trading.NewAutoTrader(ai, tokens(""))

	_, err := auto.Status(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
	assert.ErrorIs(t, auto.Set(context.Background(), true), domain.ErrNotAuthenticated)
	assert.Empty(t, ai.sets)
}

func TestAutoTrader_ToggleFailureKeepsState(t *testing.T) {
	ai := &mockAI{active: true}
	auto := trading.NewAutoTrader(ai, tokens("tok"))
	ai.err = errors.New("503")

	_, err := auto.Toggle(context.Background())
	assert.Error(t, err)
	assert.True(t, ai.active)
}

// --- History ---

func TestHistory_TradeLogs(t *testing.T) {
	logs := &mockLogs{logs: []domain.TradeLog{{UUID: "a1"}}}
	h := trading.NewHistory(logs, tokens("tok"), nil)

	got, err := h.TradeLogs(context.Background(), domain.TradeLogFilter{Side: domain.TradeLogSell, Period: domain.PeriodMonth})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, "ask", logs.query.Side)
	assert.Equal(t, "done", logs.query.State)
	assert.False(t, logs.query.Start.IsZero())
	assert.Equal(t, 20, logs.query.Limit)

	_, err = trading.NewHistory(logs, tokens(""), nil).TradeLogs(context.Background(), domain.TradeLogFilter{})
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
}

func TestHistory_ArchiveQueries(t *testing.T) {
	archive := &mockArchive{
		orders:      []domain.OrderJournalEntry{{LocalID: "l-1"}},
		predictions: []domain.PredictionSnapshot{{PredictedPrice: 1}},
	}
	h := trading.NewHistory(&mockLogs{}, tokens("tok"), archive)

	orders, err := h.Journal(context.Background(), domain.PeriodWeek)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, -7), archive.from, 25*time.Hour)
	assert.True(t, archive.to.After(time.Now()))

	preds, err := h.Predictions(context.Background(), domain.PeriodAll)
	require.NoError(t, err)
	assert.Len(t, preds, 1)
	assert.Equal(t, int64(0), archive.from.Unix())

	_, err = trading.NewHistory(&mockLogs{}, tokens("tok"), nil).Journal(context.Background(), domain.PeriodAll)
	assert.ErrorIs(t, err, trading.ErrNoArchive)
}
