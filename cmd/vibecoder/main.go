package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/haukesand/vibecoder/internal/appgen"
	"github.com/haukesand/vibecoder/internal/config"
	"github.com/haukesand/vibecoder/internal/dispatch"
	"github.com/haukesand/vibecoder/internal/gemini"
	"github.com/haukesand/vibecoder/internal/logstore"
	"github.com/haukesand/vibecoder/internal/mailbox"
	"github.com/haukesand/vibecoder/internal/printer"
	"github.com/haukesand/vibecoder/internal/publisher"
	"github.com/haukesand/vibecoder/internal/server"
	"github.com/haukesand/vibecoder/internal/service"
	"github.com/haukesand/vibecoder/internal/state"
	"github.com/haukesand/vibecoder/internal/venmo"
	"github.com/haukesand/vibecoder/internal/watcher"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	// Load configuration
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logs := logstore.New()
	st := state.New()
	dispatcher := dispatch.New(time.Duration(cfg.CooldownSeconds) * time.Second)

	// Receipt printer falls back to console output when not configured
	prn := printer.New(cfg.PrinterAddr, cfg.PrinterDevice)
	receipts := printer.NewReceipts(prn, cfg.VenmoProfileURL)

	// Initialize Gemini client. Without it the installation still runs,
	// generation requests fail with a clear error.
	var codegen appgen.CodeGenerator
	gem, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		log.Printf("Warning: Gemini client unavailable: %v", err)
	} else {
		defer gem.Close()
		codegen = gem
	}

	generator, err := appgen.New(codegen, cfg.AppsDir)
	if err != nil {
		return err
	}

	pub := publisher.New(cfg.GitHubUsername, cfg.GitHubPAT, cfg.RepoPrefix)

	// Initialize services
	processor := service.NewPaymentProcessor(dispatcher, generator, pub, receipts, st, logs, cfg.ExternalHost, cfg.Port)

	// Initialize mailbox and watcher
	mbox := mailbox.New(cfg.IMAPServer, cfg.IMAPPort, cfg.EmailAddress, cfg.EmailPassword)
	defer mbox.Close()

	minAmount := decimal.NewFromFloat(cfg.MinAmount)
	extractor := venmo.NewExtractor(minAmount)
	w := watcher.New(mbox, extractor, processor, st, logs, time.Duration(cfg.CheckInterval)*time.Second, cfg.MaxEmails)

	srv := server.New(cfg.Port, cfg.AppsDir, cfg.VenmoProfileURL, minAmount, st, logs, processor, w, receipts)

	// Email monitoring is on from the start, the UI can toggle it off.
	st.SetMonitoring(true)
	logs.Info("Email monitoring started")

	// Welcome receipt with the Venmo QR code for the first visitor
	receipts.PrintHeader()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start watcher and server in goroutines
	errChan := make(chan error, 2)
	go func() {
		errChan <- w.Start(ctx)
	}()
	go func() {
		errChan <- srv.Start()
	}()

	// Wait for shutdown signal or error
	select {
	case <-sigChan:
		log.Println("Shutdown signal received")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeout)*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}

		select {
		case <-shutdownCtx.Done():
			log.Println("Shutdown timeout exceeded")
		case err := <-errChan:
			if err != nil && err != context.Canceled {
				log.Printf("Error during shutdown: %v", err)
			}
		}

		log.Println("Application stopped")
		return nil

	case err := <-errChan:
		cancel()
		return err
	}
}
