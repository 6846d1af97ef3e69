package scheduler

// loop.go — bucle auto-reprogramado: calcula el delay, dispara una vez, reprograma.
//
// Máquina de estados explícita:
//
//	idle ──Start──▶ scheduled ──timer──▶ firing ──task ok/err──▶ scheduled
//	  │                 │                   │
//	  └──────Stop───────┴───────Stop────────┴──▶ stopped (terminal)
//
// Cada disparo reprograma a partir de clock.Now(), no del instante previsto:
// un intervalo fijo acumularía deriva respecto al boundary.

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrLoopStarted se devuelve al llamar Start sobre un Loop que no está idle.
var ErrLoopStarted = errors.New("scheduler: loop already started or stopped")

// Clock abstrae el reloj para poder testear el bucle sin esperar horas.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer es un disparo pendiente cancelable.
type Timer interface {
	Stop() bool
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// SystemClock es el reloj real.
var SystemClock Clock = systemClock{}

type zonedClock struct {
	Clock
	loc *time.Location
}

func (z zonedClock) Now() time.Time { return z.Clock.Now().In(z.loc) }

// InLocation devuelve un reloj que lee la hora en loc, de modo que los
// boundaries caen en la hora local de loc y no en la del proceso.
func InLocation(c Clock, loc *time.Location) Clock {
	if loc == nil {
		return c
	}
	return zonedClock{Clock: c, loc: loc}
}

// Policy decide cuánto esperar hasta el próximo disparo.
type Policy interface {
	Delay(now time.Time) time.Duration
}

// Task es el trabajo de cada disparo. Un error se loguea y no detiene el bucle.
type Task func(ctx context.Context) error

// State es el estado del bucle.
type State int

const (
	StateIdle State = iota
	StateScheduled
	StateFiring
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScheduled:
		return "scheduled"
	case StateFiring:
		return "firing"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Loop ejecuta Task según Policy hasta Stop.
type Loop struct {
	name      string
	policy    Policy
	task      Task
	clock     Clock
	immediate bool

	mu     sync.Mutex
	state  State
	timer  Timer
	nextAt time.Time
	fires  int
	ctx    context.Context
	cancel context.CancelFunc
	active sync.WaitGroup
}

// Option configura un Loop.
type Option func(*Loop)

// WithClock reemplaza el reloj del sistema.
func WithClock(c Clock) Option {
	return func(l *Loop) { l.clock = c }
}

// WithImmediate hace que el primer disparo ocurra al arrancar, sin esperar a la Policy.
func WithImmediate() Option {
	return func(l *Loop) { l.immediate = true }
}

// NewLoop crea un Loop en estado idle.
func NewLoop(name string, policy Policy, task Task, opts ...Option) *Loop {
	l := &Loop{
		name:   name,
		policy: policy,
		task:   task,
		clock:  SystemClock,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Start arma el primer disparo. ctx se pasa a cada Task y se cancela en Stop.
func (l *Loop) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != StateIdle {
		return ErrLoopStarted
	}
	l.ctx, l.cancel = context.WithCancel(ctx)

	delay := time.Duration(0)
	if !l.immediate {
		delay = l.policy.Delay(l.clock.Now())
	}
	l.armLocked(delay)
	return nil
}

// Stop cancela el disparo pendiente y espera a que termine un disparo en curso.
// Tras Stop ninguna Task vuelve a ejecutarse. Es idempotente.
// No debe llamarse desde dentro de la propia Task.
func (l *Loop) Stop() {
	l.mu.Lock()
	if l.state == StateStopped {
		l.mu.Unlock()
		return
	}
	l.state = StateStopped
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
	if l.cancel != nil {
		l.cancel()
	}
	l.mu.Unlock()

	l.active.Wait()
	slog.Debug("loop stopped", "loop", l.name, "fires", l.Fires())
}

// State devuelve el estado actual.
func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// NextAt devuelve el instante del próximo disparo armado (zero si no hay).
func (l *Loop) NextAt() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != StateScheduled {
		return time.Time{}
	}
	return l.nextAt
}

// Fires devuelve cuántas veces se ejecutó la Task.
func (l *Loop) Fires() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.fires
}

func (l *Loop) armLocked(delay time.Duration) {
	if delay < 0 {
		delay = 0
	}
	l.state = StateScheduled
	l.nextAt = l.clock.Now().Add(delay)
	l.timer = l.clock.AfterFunc(delay, l.fire)
	slog.Debug("loop armed", "loop", l.name, "next", l.nextAt, "delay", delay)
}

func (l *Loop) fire() {
	l.mu.Lock()
	if l.state != StateScheduled {
		// Stop ganó la carrera con el timer
		l.mu.Unlock()
		return
	}
	l.state = StateFiring
	l.timer = nil
	l.fires++
	ctx := l.ctx
	l.active.Add(1)
	l.mu.Unlock()
	defer l.active.Done()

	if err := l.task(ctx); err != nil {
		slog.Warn("scheduled task failed", "loop", l.name, "err", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == StateFiring {
		l.armLocked(l.policy.Delay(l.clock.Now()))
	}
}
