package service

import (
	"context"
	"fmt"
	"log"
	"net"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/haukesand/vibecoder/internal/dispatch"
	"github.com/haukesand/vibecoder/internal/logstore"
	"github.com/haukesand/vibecoder/internal/models"
	"github.com/haukesand/vibecoder/internal/qr"
	"github.com/haukesand/vibecoder/internal/state"
)

// AppGenerator interface for turning a description into app files on disk
type AppGenerator interface {
	Generate(ctx context.Context, description string, amount decimal.Decimal) (*models.GeneratedApp, error)
}

// RepoPublisher interface for pushing generated apps to GitHub
type RepoPublisher interface {
	Configured() bool
	Publish(ctx context.Context, appDir, appID, description string) (string, error)
}

// ReceiptPrinter interface for the thermal receipt flow
type ReceiptPrinter interface {
	PrintHeader()
	PrintPaymentReceived(rec models.PaymentRecord)
	PrintAppCompletion(app models.GeneratedApp)
	PrintGenerationFailed(description string, amount decimal.Decimal)
}

// PaymentProcessor drives the full flow from a parsed Venmo payment to a
// hosted app: record the payment, print the confirmation, generate the code
// behind the single-flight gate, push it to GitHub and announce the result.
type PaymentProcessor struct {
	dispatcher *dispatch.Dispatcher
	generator  AppGenerator
	publisher  RepoPublisher
	receipts   ReceiptPrinter
	state      *state.Installation
	logs       *logstore.Store

	externalHost string
	port         int
}

func NewPaymentProcessor(
	dispatcher *dispatch.Dispatcher,
	generator AppGenerator,
	publisher RepoPublisher,
	receipts ReceiptPrinter,
	st *state.Installation,
	logs *logstore.Store,
	externalHost string,
	port int,
) *PaymentProcessor {
	return &PaymentProcessor{
		dispatcher:   dispatcher,
		generator:    generator,
		publisher:    publisher,
		receipts:     receipts,
		state:        st,
		logs:         logs,
		externalHost: externalHost,
		port:         port,
	}
}

// HandlePayment reacts to one parsed Venmo payment: remembers it, prints the
// confirmation section on the receipt and kicks off fulfillment. The payment
// is recorded even when the generation slot rejects the request.
func (p *PaymentProcessor) HandlePayment(ctx context.Context, rec models.PaymentRecord) error {
	sender := rec.Sender
	if sender == "" {
		sender = "Customer"
	}
	p.logs.Success("Payment received: $%s from %s", rec.Amount.StringFixed(2), sender)

	p.state.SetLastPayment(rec)
	p.receipts.PrintPaymentReceived(rec)

	description := rec.Note
	if !rec.UsableNote() {
		log.Printf("note %q is not usable as an app description, using placeholder", rec.Note)
		description = models.PlaceholderDescription
	}

	_, err := p.FulfillRequest(ctx, description, rec.Amount)
	return err
}

// FulfillRequest generates, publishes and hosts one app. Only one request
// runs at a time; a concurrent caller gets dispatch.ErrBusy and a caller
// inside the cooldown window gets a dispatch.CooldownError.
func (p *PaymentProcessor) FulfillRequest(ctx context.Context, description string, amount decimal.Decimal) (*models.GeneratedApp, error) {
	token, err := p.dispatcher.TryAcquire()
	if err != nil {
		p.logs.Warning("Generation request rejected: %v", err)
		return nil, err
	}
	defer token.Release()

	p.logs.Info("Starting app generation for %q ($%s)", description, amount.StringFixed(2))

	app, err := p.generator.Generate(ctx, description, amount)
	if err != nil {
		p.logs.Error("App generation failed: %v", err)
		p.receipts.PrintGenerationFailed(description, amount)
		return nil, err
	}

	// The slot frees up as soon as the files exist. Pushing and printing
	// can take a while and must not extend the busy window.
	token.Release()

	if p.publisher.Configured() {
		repoURL, err := p.publisher.Publish(ctx, app.Dir, app.ID, app.Description)
		if err != nil {
			p.logs.Error("GitHub push failed for app %s: %v", app.ID, err)
		} else {
			app.RepoURL = repoURL
		}
	} else {
		p.logs.Warning("GitHub publishing not configured, app stays local")
	}

	app.HostedPath = "/apps/" + app.ID + "/"
	app.HostedURL = p.baseURL() + app.HostedPath
	app.Message = fmt.Sprintf("App %s generated successfully (Tier: %s).", app.ID, app.Tier)

	if code, err := qr.DataURL(app.HostedURL); err != nil {
		p.logs.Error("QR code generation failed: %v", err)
	} else {
		app.QRCode = code
	}

	p.receipts.PrintAppCompletion(*app)
	// Start the next visitor's receipt right away.
	p.receipts.PrintHeader()
	p.state.SetLastApp(*app)

	p.logs.Success("App generation completed: %s ($%s)", description, amount.StringFixed(2))
	p.logs.Info("App available at: %s", app.HostedURL)
	if app.RepoURL != "" {
		p.logs.Info("GitHub repository: %s", app.RepoURL)
	}

	return app, nil
}

// baseURL resolves the address printed on receipts and encoded in QR codes.
// An explicitly configured external host wins over the local interface
// address.
func (p *PaymentProcessor) baseURL() string {
	if p.externalHost != "" {
		host := p.externalHost
		if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
			host = "http://" + host
		}
		return strings.TrimRight(host, "/")
	}
	return fmt.Sprintf("http://%s:%d", localIP(), p.port)
}

// localIP finds the interface address used for outbound traffic. Dialing
// UDP does not send any packet.
func localIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "localhost"
	}
	defer conn.Close()

	if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok {
		return addr.IP.String()
	}
	return "localhost"
}
