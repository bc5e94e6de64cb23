package dispatch

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrBusy is returned by TryAcquire while a generation run is in flight.
var ErrBusy = errors.New("generation already in progress")

// CooldownError is returned by TryAcquire during the idle window after a
// completed run.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("generation cooling down, retry in %s", e.Remaining.Round(time.Second))
}

// Dispatcher serializes app generation: at most one token is outstanding at
// any time, and a mandatory cooldown separates completions. Acquisition
// never blocks; losers are told why and are expected to retry later. One
// mutex guards the busy flag and the completion timestamp together.
type Dispatcher struct {
	mu              sync.Mutex
	busy            bool
	lastCompletedAt time.Time
	cooldown        time.Duration

	now func() time.Time
}

func New(cooldown time.Duration) *Dispatcher {
	return &Dispatcher{
		cooldown: cooldown,
		now:      time.Now,
	}
}

// Token permits one generation run. Release must be called when the run
// finishes; extra calls are no-ops, so callers can both defer Release and
// release early once the critical section is done.
type Token struct {
	d    *Dispatcher
	once sync.Once
}

// TryAcquire attempts to start a generation run. It fails fast with ErrBusy
// while a run is in flight, or with a *CooldownError when the idle window
// since the last completion has not elapsed yet.
func (d *Dispatcher) TryAcquire() (*Token, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.busy {
		return nil, ErrBusy
	}
	if !d.lastCompletedAt.IsZero() {
		elapsed := d.now().Sub(d.lastCompletedAt)
		if elapsed < d.cooldown {
			return nil, &CooldownError{Remaining: d.cooldown - elapsed}
		}
	}
	d.busy = true
	return &Token{d: d}, nil
}

// Release marks the run complete and starts the cooldown window. A token
// that is never released would stall the installation for good, so holders
// must defer Release immediately after a successful TryAcquire.
func (t *Token) Release() {
	t.once.Do(func() {
		t.d.mu.Lock()
		defer t.d.mu.Unlock()
		t.d.busy = false
		t.d.lastCompletedAt = t.d.now()
	})
}

// Do runs fn while holding the generation slot and releases it afterwards,
// also when fn panics. Acquisition failures are returned unchanged so
// callers can branch on ErrBusy and *CooldownError.
func (d *Dispatcher) Do(fn func() error) error {
	token, err := d.TryAcquire()
	if err != nil {
		return err
	}
	defer token.Release()
	return fn()
}
