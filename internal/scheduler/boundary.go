package scheduler

// boundary.go — alineación a boundaries fijos de reloj de pared.
//
// Las predicciones se regeneran cada 4 horas a horas fijas (00:00, 04:00, 08:00 …
// hora local). El scheduler no cuenta 4h desde que arrancó: calcula siempre el
// próximo boundary a partir de la hora actual, así un reinicio o un fetch lento no
// desplaza la fase.

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultBoundaryHours es el periodo de regeneración de predicciones.
const DefaultBoundaryHours = 4

// Boundary calcula los instantes alineados a múltiplos de Hours desde medianoche local.
// Implementa Policy.
type Boundary struct {
	hours    int
	schedule cron.Schedule
}

// NewBoundary crea un Boundary de periodo hours. hours debe dividir 24.
func NewBoundary(hours int) (*Boundary, error) {
	if hours <= 0 || hours > 24 || 24%hours != 0 {
		return nil, fmt.Errorf("scheduler.NewBoundary: %d hours does not divide a day", hours)
	}
	// minuto 0 de cada hora múltiplo de hours; la zona es la del instante consultado
	sched, err := cron.ParseStandard(fmt.Sprintf("0 */%d * * *", hours))
	if err != nil {
		return nil, fmt.Errorf("scheduler.NewBoundary: parse: %w", err)
	}
	return &Boundary{hours: hours, schedule: sched}, nil
}

// MustBoundary es NewBoundary que hace panic ante un periodo inválido.
func MustBoundary(hours int) *Boundary {
	b, err := NewBoundary(hours)
	if err != nil {
		panic(err)
	}
	return b
}

// Hours devuelve el periodo del boundary.
func (b *Boundary) Hours() int { return b.hours }

// Next devuelve el próximo boundary estrictamente posterior a now, en la zona de now.
// 14:10 → 16:00 del mismo día; 23:50 → 00:00 del día siguiente; 16:00 → 20:00.
func (b *Boundary) Next(now time.Time) time.Time {
	return b.schedule.Next(now)
}

// Delay devuelve cuánto falta hasta el próximo boundary.
func (b *Boundary) Delay(now time.Time) time.Duration {
	return b.Next(now).Sub(now)
}

var defaultBoundary = MustBoundary(DefaultBoundaryHours)

// NextBoundary devuelve el próximo boundary de 4 horas estrictamente posterior a now.
func NextBoundary(now time.Time) time.Time {
	return defaultBoundary.Next(now)
}

// ScheduleNext devuelve el delay hasta el próximo boundary de 4 horas.
func ScheduleNext(now time.Time) time.Duration {
	return defaultBoundary.Delay(now)
}

// Every es una Policy de intervalo constante (cadencia de quotes).
type Every time.Duration

// Delay devuelve siempre el mismo intervalo.
func (e Every) Delay(time.Time) time.Duration {
	return time.Duration(e)
}
