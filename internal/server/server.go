// Package server exposes the installation's HTTP surface: the kiosk UI,
// the JSON API and the generated apps themselves.
package server

import (
	"context"
	"embed"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/haukesand/vibecoder/internal/logstore"
	"github.com/haukesand/vibecoder/internal/qr"
	"github.com/haukesand/vibecoder/internal/state"
)

//go:embed static/index.html
var staticFS embed.FS

// Server wires the gin router over the installation's services.
type Server struct {
	router *gin.Engine
	http   *http.Server

	st        *state.Installation
	logs      *logstore.Store
	fulfiller Fulfiller
	checker   EmailChecker
	receipts  ScanPrinter

	appsDir         string
	venmoProfileURL string
	venmoQRCode     string
	minAmount       decimal.Decimal
	indexPage       []byte
}

// New builds the router and the underlying http.Server. The Venmo profile
// QR code shown in the UI is rendered once here.
func New(
	port int,
	appsDir string,
	venmoProfileURL string,
	minAmount decimal.Decimal,
	st *state.Installation,
	logs *logstore.Store,
	fulfiller Fulfiller,
	checker EmailChecker,
	receipts ScanPrinter,
) *Server {
	s := &Server{
		st:              st,
		logs:            logs,
		fulfiller:       fulfiller,
		checker:         checker,
		receipts:        receipts,
		appsDir:         appsDir,
		venmoProfileURL: venmoProfileURL,
		minAmount:       minAmount,
	}

	if code, err := qr.DataURL(venmoProfileURL); err != nil {
		log.Printf("Warning: failed to render Venmo QR code: %v", err)
	} else {
		s.venmoQRCode = code
	}

	page, err := staticFS.ReadFile("static/index.html")
	if err != nil {
		// The embed directive guarantees the file at build time.
		panic(fmt.Sprintf("embedded UI missing: %v", err))
	}
	s.indexPage = page

	// No request logger: the UI polls the status endpoint every few
	// seconds and would drown the installation log.
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/", s.handleIndex)
	router.GET("/apps/:app_id/", s.handleApp)
	router.POST("/generate", s.handleGenerate)

	api := router.Group("/api")
	{
		api.GET("/venmo-scanned", s.handleVenmoScanned)
		api.POST("/email-monitor", s.handleEmailMonitor)
		api.GET("/email-status", s.handleEmailStatus)
		api.POST("/check-emails", s.handleCheckEmails)
		api.GET("/logs", s.handleLogs)
	}

	s.router = router
	s.http = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: router,
	}
	return s
}

// Start blocks serving HTTP until the listener fails or Shutdown runs.
func (s *Server) Start() error {
	log.Printf("HTTP server listening on %s", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
