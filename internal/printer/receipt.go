package printer

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/haukesand/vibecoder/internal/models"
)

const (
	divider      = "--------------------"
	qrModuleSize = 10
)

// Two-line ASCII masthead reading "Vibe Coder".
var mastheadArt = []string{
	"\\  /o|_  _   /   _  _| _  _",
	" \\/ ||_)(-`  \\__(_)(_|(-`| ",
}

// Receipts renders the installation's continuous receipt. One physical
// strip of paper accumulates a header with payment instructions, then a
// confirmation section when a payment lands, then the finished app's details
// and QR code, and only then gets cut so the visitor can tear it off.
type Receipts struct {
	printer  *Printer
	venmoURL string
}

func NewReceipts(p *Printer, venmoURL string) *Receipts {
	return &Receipts{printer: p, venmoURL: venmoURL}
}

// PrintHeader cuts off any receipt still hanging out of the printer and
// starts a fresh one: masthead, pricing, payment instructions and the Venmo
// QR code, ending in a WAITING FOR PAYMENT line. The paper is left uncut.
func (r *Receipts) PrintHeader() {
	r.printer.CutPaper()

	now := time.Now()
	r.printer.PrintLines(headerLines(now), AlignCenter, false)
	r.printer.PrintQR(r.venmoURL, "PAY WITH VENMO", "Include app description in payment note", qrModuleSize, false)
	r.printer.PrintLines(waitingLines(now), AlignCenter, false)
}

// PrintScanned prints a standalone note that somebody scanned the Venmo QR
// code and is presumably typing a payment right now.
func (r *Receipts) PrintScanned() {
	r.printer.PrintLines(scannedLines(time.Now()), AlignLeft, true)
}

// PrintPaymentReceived appends the payment confirmation section to the
// current receipt without cutting.
func (r *Receipts) PrintPaymentReceived(rec models.PaymentRecord) {
	r.printer.PrintLines(paymentReceivedLines(rec, time.Now()), AlignLeft, false)
}

// PrintAppCompletion appends the generated app's details and a QR code
// pointing at the hosted app, then cuts the receipt for the visitor.
func (r *Receipts) PrintAppCompletion(app models.GeneratedApp) {
	r.printer.PrintLines(completionLines(app), AlignLeft, false)
	r.printer.PrintQR(app.HostedURL, "YOUR APP IS READY", "Thank you for using Vibe Coder!", qrModuleSize, false)
	r.printer.PrintLines(thankYouLines(time.Now()), AlignCenter, true)
}

// PrintGenerationFailed ends the current receipt with an apology. Cutting
// here matters: the next header must start on fresh paper.
func (r *Receipts) PrintGenerationFailed(description string, amount decimal.Decimal) {
	r.printer.PrintLines(failureLines(description, amount, time.Now()), AlignLeft, true)
}

func headerLines(now time.Time) []string {
	return []string{
		"App Design as a Commodity",
		"Interactive Art Installation",
		now.Format("01/02/2006"),
		"www.haukesand.github.io",
		"",
		"",
		"",
		mastheadArt[0],
		mastheadArt[1],
		"",
		"ITEM:",
		"CUSTOM APP DEVELOPMENT",
		"",
		"- Pay $0.25 for a quick app",
		"- Pay $1.00 for a high quality app",
		"",
		"In the Venmo description,",
		"describe the app you want.",
		"",
		"Your app will be automatically",
		"generated after payment.",
		divider,
		"Scan QR code to pay with Venmo:",
		"",
	}
}

func waitingLines(now time.Time) []string {
	return []string{
		"",
		"WAITING FOR PAYMENT...",
		now.Format("15:04:05"),
		"",
		"",
	}
}

func scannedLines(now time.Time) []string {
	return []string{
		"VENMO QR SCANNED!",
		"User is at the payment step.",
		"Waiting for Venmo email...",
		divider,
		now.Format("2006-01-02 15:04:05"),
	}
}

func paymentReceivedLines(rec models.PaymentRecord, now time.Time) []string {
	sender := rec.Sender
	if sender == "" {
		sender = "Customer"
	}
	return []string{
		divider,
		"PAYMENT RECEIVED!",
		divider,
		"FROM: " + sender,
		"AMOUNT: $" + rec.Amount.StringFixed(2),
		"REQUEST: " + rec.Note,
		"",
		"Generating your app now...",
		"Please wait",
		now.Format("2006-01-02 15:04:05"),
		"",
		"",
	}
}

func completionLines(app models.GeneratedApp) []string {
	lines := []string{
		divider,
		"APP GENERATED SUCCESSFULLY!",
		divider,
		"App Type: " + app.Description,
		"Tier: " + app.Tier,
		"ID: " + app.ID,
		"",
	}
	if app.RepoURL == "" {
		lines = append(lines, "GITHUB PUSH FAILED.", "App was generated locally.")
	} else {
		lines = append(lines, "GitHub Repository:", app.RepoURL)
	}
	return append(lines,
		"",
		"Access your app at:",
		app.HostedURL,
		"",
		"SCAN QR CODE TO USE YOUR APP:",
	)
}

func thankYouLines(now time.Time) []string {
	return []string{
		"",
		"Thank you for supporting",
		"App Design as a Commodity",
		"",
		"Made with ♥ by Vibe Coder",
		now.Format("2006-01-02 15:04:05"),
		"",
		"",
	}
}

func failureLines(description string, amount decimal.Decimal, now time.Time) []string {
	return []string{
		"APP GENERATION FAILED",
		"Request: " + description,
		fmt.Sprintf("Amount: $%s", amount.StringFixed(2)),
		"We apologize for the inconvenience.",
		"Please see server logs for details.",
		divider,
		now.Format("2006-01-02 15:04:05"),
	}
}
