package dispatch

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeClock lets tests move time forward without sleeping.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestDispatcher(cooldown time.Duration) (*Dispatcher, *fakeClock) {
	clock := newFakeClock()
	d := New(cooldown)
	d.now = clock.now
	return d, clock
}

func TestTryAcquire_SecondCallerRejectedBusy(t *testing.T) {
	d, _ := newTestDispatcher(30 * time.Second)

	tok, err := d.TryAcquire()
	if err != nil {
		t.Fatalf("expected first acquire to succeed, got %v", err)
	}
	defer tok.Release()

	if _, err := d.TryAcquire(); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy on second acquire, got %v", err)
	}
}

func TestTryAcquire_FreshDispatcherHasNoCooldown(t *testing.T) {
	d, _ := newTestDispatcher(30 * time.Second)

	tok, err := d.TryAcquire()
	if err != nil {
		t.Fatalf("expected acquire on a fresh dispatcher to succeed, got %v", err)
	}
	tok.Release()
}

func TestRelease_StartsCooldownWindow(t *testing.T) {
	d, clock := newTestDispatcher(30 * time.Second)

	tok, err := d.TryAcquire()
	if err != nil {
		t.Fatalf("expected acquire to succeed, got %v", err)
	}
	tok.Release()

	clock.advance(10 * time.Second)

	_, err = d.TryAcquire()
	var cd *CooldownError
	if !errors.As(err, &cd) {
		t.Fatalf("expected a CooldownError, got %v", err)
	}
	if cd.Remaining != 20*time.Second {
		t.Errorf("expected 20s remaining, got %s", cd.Remaining)
	}
	if cd.Remaining <= 0 {
		t.Errorf("expected remaining > 0, got %s", cd.Remaining)
	}
}

func TestTryAcquire_SucceedsAfterCooldownElapses(t *testing.T) {
	d, clock := newTestDispatcher(30 * time.Second)

	tok, _ := d.TryAcquire()
	tok.Release()

	clock.advance(30 * time.Second)

	tok2, err := d.TryAcquire()
	if err != nil {
		t.Fatalf("expected acquire after cooldown to succeed, got %v", err)
	}
	tok2.Release()
}

func TestRelease_Idempotent(t *testing.T) {
	d, clock := newTestDispatcher(30 * time.Second)

	tok, _ := d.TryAcquire()
	tok.Release()

	// A second Release must not restart the cooldown window.
	clock.advance(20 * time.Second)
	tok.Release()

	_, err := d.TryAcquire()
	var cd *CooldownError
	if !errors.As(err, &cd) {
		t.Fatalf("expected a CooldownError, got %v", err)
	}
	if cd.Remaining != 10*time.Second {
		t.Errorf("expected cooldown measured from the first Release (10s left), got %s", cd.Remaining)
	}
}

func TestPanickingWorkflowStillReleases(t *testing.T) {
	d, clock := newTestDispatcher(30 * time.Second)

	run := func() {
		defer func() { _ = recover() }()
		tok, err := d.TryAcquire()
		if err != nil {
			t.Fatalf("expected acquire to succeed, got %v", err)
		}
		defer tok.Release()
		panic("generation blew up")
	}
	run()

	// The lock is back to idle: only the cooldown stands in the way.
	if _, err := d.TryAcquire(); errors.Is(err, ErrBusy) {
		t.Fatal("expected the panicking workflow to have released the lock")
	}

	clock.advance(30 * time.Second)
	tok, err := d.TryAcquire()
	if err != nil {
		t.Fatalf("expected acquire after cooldown to succeed, got %v", err)
	}
	tok.Release()
}

func TestTryAcquire_ConcurrentRace(t *testing.T) {
	d, _ := newTestDispatcher(0)

	const callers = 32
	var wg sync.WaitGroup
	tokens := make(chan *Token, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if tok, err := d.TryAcquire(); err == nil {
				tokens <- tok
			}
		}()
	}
	wg.Wait()
	close(tokens)

	if len(tokens) != 1 {
		t.Fatalf("expected exactly one winner, got %d", len(tokens))
	}
	for tok := range tokens {
		tok.Release()
	}
}

func TestDo_ReleasesOnPanic(t *testing.T) {
	d, clock := newTestDispatcher(30 * time.Second)

	func() {
		defer func() { _ = recover() }()
		_ = d.Do(func() error {
			panic("generation blew up")
		})
	}()

	if _, err := d.TryAcquire(); errors.Is(err, ErrBusy) {
		t.Fatal("expected Do to release the slot after a panic")
	}

	clock.advance(30 * time.Second)
	tok, err := d.TryAcquire()
	if err != nil {
		t.Fatalf("expected acquire after cooldown to succeed, got %v", err)
	}
	tok.Release()
}

func TestDo_PropagatesWorkloadError(t *testing.T) {
	d, _ := newTestDispatcher(0)

	wantErr := errors.New("generation failed")
	if err := d.Do(func() error { return wantErr }); !errors.Is(err, wantErr) {
		t.Fatalf("expected the workload error back, got %v", err)
	}

	// Slot is free again despite the failure.
	tok, err := d.TryAcquire()
	if err != nil {
		t.Fatalf("expected acquire after a failed run to succeed, got %v", err)
	}
	tok.Release()
}

func TestDo_RejectedWhileBusy(t *testing.T) {
	d, _ := newTestDispatcher(0)

	tok, err := d.TryAcquire()
	if err != nil {
		t.Fatalf("expected acquire to succeed, got %v", err)
	}
	defer tok.Release()

	ran := false
	err = d.Do(func() error {
		ran = true
		return nil
	})
	if !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if ran {
		t.Error("expected the workload to be skipped while busy")
	}
}
