package state

import (
	"sync"

	"github.com/haukesand/vibecoder/internal/models"
)

// Installation holds the process-wide display slots shared by the HTTP
// handlers and the background poller: the last payment seen, the last app
// generated, and the email-monitoring switch. Slots are overwritten in
// place; no history is kept.
type Installation struct {
	mu          sync.RWMutex
	monitoring  bool
	lastPayment *models.PaymentRecord
	lastApp     *models.GeneratedApp
}

func New() *Installation {
	return &Installation{}
}

// SetMonitoring flips the email-monitoring switch. The poller checks it on
// every tick, so toggling takes effect without restarting anything.
func (s *Installation) SetMonitoring(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.monitoring = enabled
}

func (s *Installation) Monitoring() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.monitoring
}

// SetLastPayment overwrites the last-payment slot.
func (s *Installation) SetLastPayment(rec models.PaymentRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastPayment = &rec
}

// LastPayment returns the last payment seen, or nil before the first one.
// Records are immutable once extracted, so sharing the pointer is safe.
func (s *Installation) LastPayment() *models.PaymentRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastPayment
}

// SetLastApp overwrites the last-generated-app slot.
func (s *Installation) SetLastApp(app models.GeneratedApp) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastApp = &app
}

// LastApp returns the last generated app, or nil before the first one.
func (s *Installation) LastApp() *models.GeneratedApp {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastApp
}
