package domain

import "time"

// TradeLog es una orden del historial del usuario.
type TradeLog struct {
	UUID           string
	Market         string
	Side           string // "bid" | "ask"
	OrdType        string
	State          string // "wait" | "done" | "cancel"
	Price          float64
	Volume         float64
	ExecutedVolume float64
	Funds          float64 // Price * Volume
	PaidFee        float64
	CreatedAt      time.Time
	ExecutedAt     time.Time // zero si no se ejecutó
}

// Time devuelve el instante de ejecución si existe; si no, el de creación.
func (l TradeLog) Time() time.Time {
	if !l.ExecutedAt.IsZero() {
		return l.ExecutedAt
	}
	return l.CreatedAt
}

// TradeLogSide filtra el historial por lado.
type TradeLogSide string

const (
	TradeLogAll  TradeLogSide = "all"
	TradeLogBuy  TradeLogSide = "buy"
	TradeLogSell TradeLogSide = "sell"
)

// TradeLogPeriod es la ventana temporal del historial.
type TradeLogPeriod string

const (
	PeriodWeek        TradeLogPeriod = "1w"
	PeriodMonth       TradeLogPeriod = "1m"
	PeriodThreeMonths TradeLogPeriod = "3m"
	PeriodSixMonths   TradeLogPeriod = "6m"
	PeriodAll         TradeLogPeriod = "all"
)

// TradeLogFilter es el filtro que se envía a /mytradelogs.
type TradeLogFilter struct {
	Side   TradeLogSide
	Period TradeLogPeriod
	Page   int
	Limit  int
}

// Range resuelve el periodo en fechas de inicio y fin (medianoche local de cada día).
// Para PeriodAll, o un periodo desconocido, ok = false y no se filtra por fecha.
func (p TradeLogPeriod) Range(now time.Time) (start, end time.Time, ok bool) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch p {
	case PeriodWeek:
		start = today.AddDate(0, 0, -7)
	case PeriodMonth:
		start = today.AddDate(0, -1, 0)
	case PeriodThreeMonths:
		start = today.AddDate(0, -3, 0)
	case PeriodSixMonths:
		start = today.AddDate(0, -6, 0)
	default:
		return time.Time{}, time.Time{}, false
	}
	return start, today, true
}

// WireSide devuelve el lado en formato de la API; vacío para "all".
func (s TradeLogSide) WireSide() string {
	switch s {
	case TradeLogBuy:
		return SideBuy.Wire()
	case TradeLogSell:
		return SideSell.Wire()
	default:
		return ""
	}
}

// WireState devuelve el estado a filtrar: "done" para compras o ventas, vacío para "all".
func (s TradeLogSide) WireState() string {
	if s == TradeLogBuy || s == TradeLogSell {
		return "done"
	}
	return ""
}

// TradeLogQuery es el filtro resuelto que se envía a la API.
// Campos vacíos o zero no se envían.
type TradeLogQuery struct {
	Side    string
	State   string
	Start   time.Time
	End     time.Time
	Page    int
	Limit   int
	OrderBy string
}

// Query resuelve el filtro contra la fecha actual.
func (f TradeLogFilter) Query(now time.Time) TradeLogQuery {
	q := TradeLogQuery{
		Side:    f.Side.WireSide(),
		State:   f.Side.WireState(),
		Page:    f.Page,
		Limit:   f.Limit,
		OrderBy: "desc",
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = 20
	}
	if start, end, ok := f.Period.Range(now); ok {
		q.Start, q.End = start, end
	}
	return q
}
