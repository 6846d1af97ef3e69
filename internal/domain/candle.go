package domain

import (
	"sort"
	"time"
)

// Candle es una muestra OHLCV de un periodo fijo.
type Candle struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Interval es la granularidad de velas que acepta /exchangePrice.
type Interval string

const (
	IntervalMinute1   Interval = "minutes/1"
	IntervalMinute10  Interval = "minutes/10"
	IntervalMinute30  Interval = "minutes/30"
	IntervalMinute60  Interval = "minutes/60"
	IntervalMinute240 Interval = "minutes/240"
	IntervalDay       Interval = "days"
	IntervalWeek      Interval = "weeks"
	IntervalMonth     Interval = "months"
)

// Intervals lista las granularidades en el orden en que se muestran.
var Intervals = []Interval{
	IntervalMinute1, IntervalMinute10, IntervalMinute30, IntervalMinute60,
	IntervalMinute240, IntervalDay, IntervalWeek, IntervalMonth,
}

// DefaultCount devuelve cuántas velas pedir por defecto para el intervalo.
// Las intradía cubren un día completo de 10 minutos; 4h cubre 6 días.
func (i Interval) DefaultCount() int {
	switch i {
	case IntervalMinute1, IntervalMinute10, IntervalMinute30, IntervalMinute60:
		return 6 * 24
	case IntervalMinute240:
		return 6 * 6
	case IntervalDay, IntervalWeek, IntervalMonth:
		return 30
	default:
		return 0
	}
}

// Valid devuelve true si el intervalo es uno de los soportados.
func (i Interval) Valid() bool {
	return i.DefaultCount() > 0
}

// NormalizeCandles devuelve una copia ordenada de la más antigua a la más reciente,
// sin timestamps duplicados (gana la última ocurrencia en el input).
// La API entrega las velas en orden inverso; nunca se modifica el slice de entrada.
func NormalizeCandles(raw []Candle) []Candle {
	out := make([]Candle, len(raw))
	copy(out, raw)

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Time.Before(out[j].Time)
	})

	n := 0
	for i := range out {
		if n > 0 && out[i].Time.Equal(out[n-1].Time) {
			out[n-1] = out[i]
			continue
		}
		out[n] = out[i]
		n++
	}
	return out[:n]
}

// LastClose devuelve el cierre de la vela más reciente de una serie cronológica.
func LastClose(candles []Candle) (float64, bool) {
	if len(candles) == 0 {
		return 0, false
	}
	return candles[len(candles)-1].Close, true
}

// ChangeRate devuelve la variación porcentual del último cierre respecto al cierre
// de back periodos antes. Devuelve 0 si no hay suficientes velas o la referencia es 0.
//
//	rate = last / ref × 100 − 100
func ChangeRate(candles []Candle, back int) float64 {
	if back <= 0 || len(candles) <= back {
		return 0
	}
	last := candles[len(candles)-1].Close
	ref := candles[len(candles)-1-back].Close
	if ref == 0 {
		return 0
	}
	return round2(last/ref*100 - 100)
}
