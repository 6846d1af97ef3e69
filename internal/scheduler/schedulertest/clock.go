// Package schedulertest provee un reloj manual para tests de bucles programados.
package schedulertest

import (
	"sort"
	"sync"
	"time"

	"github.com/alejandrodnm/nexbit/internal/scheduler"
)

// FakeClock es un scheduler.Clock que solo avanza con Advance.
// Los timers vencidos se disparan de forma síncrona dentro de Advance.
type FakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *FakeClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

// NewFakeClock crea un reloj parado en now.
func NewFakeClock(now time.Time) *FakeClock {
	return &FakeClock{now: now}
}

// Now devuelve la hora simulada.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// AfterFunc registra f para dispararse cuando la hora simulada alcance now+d.
func (c *FakeClock) AfterFunc(d time.Duration, f func()) scheduler.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

// Stop cancela el timer; devuelve false si ya había disparado o estaba parado.
func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Advance mueve la hora d hacia delante disparando, en orden, los timers que vencen
// por el camino. Antes de cada disparo la hora se coloca en el vencimiento del timer,
// así un timer re-armado desde su callback ve la hora correcta.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		t := c.nextDue(target)
		if t == nil {
			break
		}
		t.f()
	}

	c.mu.Lock()
	if target.After(c.now) {
		c.now = target
	}
	c.mu.Unlock()
}

// Set mueve la hora a un instante concreto (no hacia atrás) y dispara lo vencido.
func (c *FakeClock) Set(now time.Time) {
	c.mu.Lock()
	d := now.Sub(c.now)
	c.mu.Unlock()
	if d < 0 {
		d = 0
	}
	c.Advance(d)
}

// Pending devuelve cuántos timers siguen armados.
func (c *FakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

func (c *FakeClock) nextDue(target time.Time) *fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()

	live := c.timers[:0]
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			live = append(live, t)
		}
	}
	c.timers = live

	sort.SliceStable(c.timers, func(i, j int) bool { return c.timers[i].at.Before(c.timers[j].at) })
	for _, t := range c.timers {
		if !t.at.After(target) {
			t.fired = true
			if t.at.After(c.now) {
				c.now = t.at
			}
			return t
		}
	}
	return nil
}
