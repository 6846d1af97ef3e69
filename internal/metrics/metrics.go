// Package metrics expone los contadores Prometheus del proceso.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Resultados de un fetch.
const (
	ResultOK    = "ok"
	ResultError = "error"
	ResultStale = "stale" // llegó después de otra más nueva y se descartó
)

var (
	FetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nexbit_fetches_total",
			Help: "Total number of upstream fetches by stream and result",
		},
		[]string{"stream", "result"},
	)

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nexbit_fetch_duration_seconds",
			Help:    "Upstream fetch duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stream"},
	)

	StaleResponses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nexbit_stale_responses_total",
			Help: "Responses discarded because a newer request was issued",
		},
		[]string{"stream"},
	)

	OrdersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nexbit_orders_total",
			Help: "Order attempts by side and status",
		},
		[]string{"side", "status"},
	)

	QuotePrice = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "nexbit_quote_price",
			Help: "Last committed price per market",
		},
		[]string{"market"},
	)

	UpProbability = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nexbit_prediction_up_probability",
			Help: "Up probability of the current prediction window",
		},
	)
)

// ObserveFetch registra la duración y el resultado de un fetch.
func ObserveFetch(stream string, start time.Time, result string) {
	FetchDuration.WithLabelValues(stream).Observe(time.Since(start).Seconds())
	FetchesTotal.WithLabelValues(stream, result).Inc()
}

// Result traduce un error de fetch a su etiqueta.
func Result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}
