package domain

import (
	"math"
	"time"
)

// DailyProfitRecord es una fila del histórico de P&L reconstruido.
type DailyProfitRecord struct {
	Date                 time.Time
	OpeningBalance       float64
	ClosingBalance       float64
	DailyProfit          float64
	DailyProfitRate      float64 // % sobre el capital invertido
	CumulativeProfit     float64
	CumulativeProfitRate float64 // % sobre el capital invertido
}

// Reconstruct reproduce el P&L periodo a periodo de una posición fija sobre una
// serie de cierres ordenada de la más antigua a la más reciente.
//
// Para cada periodo i:
//
//	closingPrice_i     = livePrice si i es el último, si no candles[i].Close
//	closingBalance_i   = balance × closingPrice_i
//	invested           = balance × avgBuyPrice (constante)
//	cumulativeProfit_i = closingBalance_i − invested
//	openingBalance_i   = invested si i = 0, si no balance × candles[i−1].Close
//	dailyProfit_i      = cumulativeProfit_i − cumulativeProfit_{i−1}   (cumulativeProfit_{−1} = 0)
//
// Las tasas se expresan en % sobre invested y valen 0 si invested = 0.
// Asume que la posición no cambió durante la ventana: es una aproximación, no contabilidad.
// Serie vacía → slice vacío (no nil).
func Reconstruct(p Position, candles []Candle, livePrice float64) []DailyProfitRecord {
	records := make([]DailyProfitRecord, 0, len(candles))
	if len(candles) == 0 {
		return records
	}

	invested := p.InvestedCapital()
	last := len(candles) - 1
	prevCumulative := 0.0

	for i, c := range candles {
		closingPrice := c.Close
		if i == last {
			closingPrice = livePrice
		}
		closing := p.Balance * closingPrice
		cumulative := closing - invested

		opening := invested
		if i > 0 {
			opening = p.Balance * candles[i-1].Close
		}
		daily := cumulative - prevCumulative
		if i == 0 {
			daily = cumulative
		}

		records = append(records, DailyProfitRecord{
			Date:                 c.Time,
			OpeningBalance:       opening,
			ClosingBalance:       closing,
			DailyProfit:          daily,
			DailyProfitRate:      rateOf(daily, invested),
			CumulativeProfit:     cumulative,
			CumulativeProfitRate: rateOf(cumulative, invested),
		})
		prevCumulative = cumulative
	}
	return records
}

// NewestFirst devuelve una copia de los registros en orden inverso, para presentación.
func NewestFirst(records []DailyProfitRecord) []DailyProfitRecord {
	out := make([]DailyProfitRecord, len(records))
	for i, r := range records {
		out[len(records)-1-i] = r
	}
	return out
}

// ProfitSummary resume un histórico reconstruido.
type ProfitSummary struct {
	From                 time.Time
	To                   time.Time
	InvestedCapital      float64
	CumulativeProfit     float64
	CumulativeProfitRate float64
	AverageBalance       float64 // media de los saldos de cierre
	BestDay              DailyProfitRecord
	WorstDay             DailyProfitRecord
}

// Summarize calcula el resumen del periodo. Espera registros en orden cronológico.
func Summarize(p Position, records []DailyProfitRecord) ProfitSummary {
	s := ProfitSummary{InvestedCapital: p.InvestedCapital()}
	if len(records) == 0 {
		return s
	}

	first, last := records[0], records[len(records)-1]
	s.From = first.Date
	s.To = last.Date
	s.CumulativeProfit = last.CumulativeProfit
	s.CumulativeProfitRate = last.CumulativeProfitRate
	s.BestDay, s.WorstDay = first, first

	total := 0.0
	for _, r := range records {
		total += r.ClosingBalance
		if r.DailyProfit > s.BestDay.DailyProfit {
			s.BestDay = r
		}
		if r.DailyProfit < s.WorstDay.DailyProfit {
			s.WorstDay = r
		}
	}
	s.AverageBalance = total / float64(len(records))
	return s
}

// rateOf devuelve part / base × 100 sin redondear; 0 si base <= 0.
func rateOf(part, base float64) float64 {
	if base <= 0 {
		return 0
	}
	r := part / base * 100
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}

// ProfitReport es el histórico listo para presentar: resumen más filas de la
// más reciente a la más antigua.
type ProfitReport struct {
	Summary ProfitSummary
	Records []DailyProfitRecord
}
