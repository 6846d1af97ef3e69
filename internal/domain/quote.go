package domain

import "time"

// QuoteSnapshot es el estado de mercado de un tick: velas recientes y precio actual.
// Se reemplaza entero en cada tick.
type QuoteSnapshot struct {
	Market       string
	Interval     Interval
	Candles      []Candle // cronológicas
	CurrentPrice float64
	FetchedAt    time.Time
}

// ChangeRate devuelve la variación % del precio actual respecto a back velas atrás.
func (q QuoteSnapshot) ChangeRate(back int) float64 {
	return ChangeRate(q.Candles, back)
}
