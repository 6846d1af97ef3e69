package domain

import "time"

// PredictionSnapshot es la última predicción del modelo de IA.
// Vale hasta el próximo boundary; pasada esa hora se reemplaza, no es un error.
type PredictionSnapshot struct {
	PredictedPrice float64
	UpProbability  float64 // [0, 1]
	FetchedAt      time.Time
	ValidUntil     time.Time
}

// Stale devuelve true si el snapshot ya no corresponde a la ventana actual.
func (p PredictionSnapshot) Stale(now time.Time) bool {
	return !now.Before(p.ValidUntil)
}

// Direction devuelve "UP", "DOWN" o "FLAT" según la probabilidad de subida.
func (p PredictionSnapshot) Direction() string {
	switch {
	case p.UpProbability > 0.5:
		return "UP"
	case p.UpProbability < 0.5:
		return "DOWN"
	default:
		return "FLAT"
	}
}

// ExpectedChange devuelve la variación % esperada respecto a un precio de referencia.
func (p PredictionSnapshot) ExpectedChange(price float64) float64 {
	if price <= 0 {
		return 0
	}
	return round2((p.PredictedPrice - price) / price * 100)
}
