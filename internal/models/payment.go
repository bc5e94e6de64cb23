package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Generation tier constants
const (
	TierLow  = "low"
	TierHigh = "high"
)

// PlaceholderNote is substituted when no usable note text can be recovered
// from a payment email.
const PlaceholderNote = "Generic App"

// PlaceholderDescription is used when the note failed validation and the app
// has to be generated without a real request.
const PlaceholderDescription = "mystery app"

// highTierAmount is the price of a high-tier app in dollars.
var highTierAmount = decimal.New(1, 0)

func init() {
	// Amounts render as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// TierForAmount returns the generation tier a payment amount buys.
func TierForAmount(amount decimal.Decimal) string {
	if amount.GreaterThanOrEqual(highTierAmount) {
		return TierHigh
	}
	return TierLow
}

// PaymentRecord is the structured result of parsing a Venmo notification
// email. Extraction is best-effort: Amount falls back to a configured
// default, Note to PlaceholderNote, so a record is always usable downstream.
type PaymentRecord struct {
	Amount     decimal.Decimal `json:"amount"`
	Sender     string          `json:"sender,omitempty"`
	Note       string          `json:"note"`
	PaymentID  string          `json:"payment_id,omitempty"`
	RawText    string          `json:"-"`
	ReceivedAt time.Time       `json:"timestamp"`
}

// UsableNote reports whether the note looks like a real app request rather
// than leaked notification boilerplate.
func (p PaymentRecord) UsableNote() bool {
	return len(p.Note) > 5 && !strings.Contains(strings.ToLower(p.Note), "paid you")
}

// GeneratedApp describes one generated app: where it lives on disk, where it
// is hosted, and what the UI and the completion receipt should show.
type GeneratedApp struct {
	ID          string          `json:"app_id"`
	Description string          `json:"app_type"`
	Tier        string          `json:"tier"`
	Amount      decimal.Decimal `json:"amount"`
	Dir         string          `json:"-"`
	RepoURL     string          `json:"github_url,omitempty"`
	HostedURL   string          `json:"hosted_url_full,omitempty"`
	HostedPath  string          `json:"hosted_url_relative,omitempty"`
	QRCode      string          `json:"qr_code_image,omitempty"`
	Message     string          `json:"message,omitempty"`
	CreatedAt   time.Time       `json:"timestamp"`
}
