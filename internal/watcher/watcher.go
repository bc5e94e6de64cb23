package watcher

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/haukesand/vibecoder/internal/logstore"
	"github.com/haukesand/vibecoder/internal/mailbox"
	"github.com/haukesand/vibecoder/internal/models"
	"github.com/haukesand/vibecoder/internal/state"
	"github.com/haukesand/vibecoder/internal/venmo"
)

// paymentSubjectMarker is the phrase Venmo puts in every payment
// notification subject. Mail without it is skipped without extraction.
const paymentSubjectMarker = "paid you"

// reconnectThreshold is the number of consecutive fetch failures after
// which the IMAP connection gets torn down and re-dialed.
const reconnectThreshold = 3

// Inbox interface for the mail source
type Inbox interface {
	FetchUnseen(limit int) ([]mailbox.Message, error)
	MarkSeen(uid uint32) error
	Reconnect() error
}

// PaymentHandler interface for reacting to parsed payments
type PaymentHandler interface {
	HandlePayment(ctx context.Context, rec models.PaymentRecord) error
}

// Watcher polls the inbox for Venmo notifications and feeds every payment
// mail through the extractor into the payment handler.
type Watcher struct {
	inbox     Inbox
	extractor *venmo.Extractor
	handler   PaymentHandler
	state     *state.Installation
	logs      *logstore.Store

	interval  time.Duration
	maxEmails int

	consecutiveErrors int
}

func New(
	inbox Inbox,
	extractor *venmo.Extractor,
	handler PaymentHandler,
	st *state.Installation,
	logs *logstore.Store,
	interval time.Duration,
	maxEmails int,
) *Watcher {
	return &Watcher{
		inbox:     inbox,
		extractor: extractor,
		handler:   handler,
		state:     st,
		logs:      logs,
		interval:  interval,
		maxEmails: maxEmails,
	}
}

// Start polls the inbox until ctx is canceled. Ticks are skipped while
// email monitoring is switched off.
func (w *Watcher) Start(ctx context.Context) error {
	log.Printf("Starting email watcher (checking every %s)...", w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Email watcher shutting down...")
			return ctx.Err()
		case <-ticker.C:
			if !w.state.Monitoring() {
				continue
			}
			if _, err := w.CheckNow(ctx); err != nil {
				log.Printf("Error checking emails: %v", err)
			}
		}
	}
}

// CheckNow fetches unseen mail once and processes every payment
// notification in the batch, returning how many payments it handled. The
// manual check endpoint calls this directly, bypassing the monitoring
// switch.
func (w *Watcher) CheckNow(ctx context.Context) (int, error) {
	messages, err := w.inbox.FetchUnseen(w.maxEmails)
	if err != nil {
		w.noteFetchError(err)
		return 0, err
	}
	w.consecutiveErrors = 0

	if len(messages) == 0 {
		return 0, nil
	}
	log.Printf("Found %d unseen message(s)", len(messages))

	payments := 0
	for _, msg := range messages {
		if w.processMessage(ctx, msg) {
			payments++
		}
	}
	return payments, nil
}

// processMessage reports whether the mail was a payment notification.
func (w *Watcher) processMessage(ctx context.Context, msg mailbox.Message) bool {
	if !strings.Contains(strings.ToLower(msg.Subject), paymentSubjectMarker) {
		log.Printf("Skipping non-payment mail %d: %q", msg.UID, msg.Subject)
		w.markSeen(msg.UID)
		return false
	}

	w.logs.Info("Processing payment email: %q", msg.Subject)

	rec := w.extractor.Extract(msg.Subject, msg.BodyText, msg.BodyHTML)
	if !msg.Date.IsZero() {
		rec.ReceivedAt = msg.Date
	}

	if err := w.handler.HandlePayment(ctx, rec); err != nil {
		log.Printf("Warning: payment from %q not fulfilled: %v", rec.Sender, err)
	}

	// Marked seen regardless of the outcome so the same payment never
	// triggers twice.
	w.markSeen(msg.UID)
	return true
}

func (w *Watcher) markSeen(uid uint32) {
	if err := w.inbox.MarkSeen(uid); err != nil {
		log.Printf("Warning: failed to mark message %d seen: %v", uid, err)
	}
}

// noteFetchError counts consecutive failures and forces a reconnect once
// they pile up. A flaky tick here and there does not warrant re-dialing.
func (w *Watcher) noteFetchError(err error) {
	w.consecutiveErrors++
	w.logs.Error("Email check failed (%d in a row): %v", w.consecutiveErrors, err)

	if w.consecutiveErrors < reconnectThreshold {
		return
	}
	if rerr := w.inbox.Reconnect(); rerr != nil {
		log.Printf("Reconnect failed: %v", rerr)
		return
	}
	w.consecutiveErrors = 0
}
