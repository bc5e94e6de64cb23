package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/haukesand/vibecoder/internal/dispatch"
	"github.com/haukesand/vibecoder/internal/models"
)

// appIDRe matches generated app IDs. Anything else is rejected before the
// ID gets near the filesystem.
var appIDRe = regexp.MustCompile(`^[a-zA-Z0-9-]+$`)

// Fulfiller interface for generation requests arriving over HTTP
type Fulfiller interface {
	FulfillRequest(ctx context.Context, description string, amount decimal.Decimal) (*models.GeneratedApp, error)
}

// EmailChecker interface for the manual check endpoint
type EmailChecker interface {
	CheckNow(ctx context.Context) (int, error)
}

// ScanPrinter interface for the QR-scan receipt section
type ScanPrinter interface {
	PrintScanned()
}

func (s *Server) handleIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", s.indexPage)
}

// handleApp serves a generated app's index.html.
func (s *Server) handleApp(c *gin.Context) {
	appID := c.Param("app_id")
	if !appIDRe.MatchString(appID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid app ID format"})
		return
	}

	path := filepath.Join(s.appsDir, appID, "index.html")
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "App not found"})
		return
	}
	c.File(path)
}

// handleVenmoScanned records that a visitor reached the payment step. The
// phone hits this right after scanning the kiosk QR code.
func (s *Server) handleVenmoScanned(c *gin.Context) {
	s.logs.Info("Someone scanned the Venmo QR code")
	s.receipts.PrintScanned()

	c.JSON(http.StatusOK, gin.H{
		"message":      "Scan recorded. Check your Venmo app to complete payment.",
		"instructions": "In the payment note, describe the app you want to have built.",
		"pricing": gin.H{
			"quick_app":        "$0.25",
			"high_quality_app": "$1.00",
		},
	})
}

type emailMonitorRequest struct {
	Enabled bool `json:"enabled"`
}

func (s *Server) handleEmailMonitor(c *gin.Context) {
	var req emailMonitorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing request data"})
		return
	}

	s.st.SetMonitoring(req.Enabled)
	if req.Enabled {
		s.logs.Info("Email monitoring started")
		c.JSON(http.StatusOK, gin.H{"message": "Email monitoring started", "status": "active"})
		return
	}
	s.logs.Info("Email monitoring stopped")
	c.JSON(http.StatusOK, gin.H{"message": "Email monitoring stopped", "status": "inactive"})
}

func (s *Server) handleEmailStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"email_monitoring":   s.st.Monitoring(),
		"last_payment":       s.st.LastPayment(),
		"last_generated_app": s.st.LastApp(),
		"venmo_profile_url":  s.venmoProfileURL,
		"venmo_qr_code":      s.venmoQRCode,
		"timestamp":          time.Now().Unix(),
	})
}

func (s *Server) handleCheckEmails(c *gin.Context) {
	if !s.st.Monitoring() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email monitoring is not active"})
		return
	}

	count, err := s.checker.CheckNow(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Email check failed: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":        "Email check completed",
		"payments_found": count,
	})
}

type generateRequest struct {
	AppType string           `json:"app_type"`
	Amount  *decimal.Decimal `json:"amount"`
}

// handleGenerate runs a generation directly, without a payment. Used by the
// kiosk UI for testing and demos. Rejections from the single-flight gate
// map to 429.
func (s *Server) handleGenerate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.AppType == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing app_type or amount in request"})
		return
	}

	// A request without an amount gets the cheapest tier.
	amount := s.minAmount
	if req.Amount != nil {
		if !req.Amount.IsPositive() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid amount specified"})
			return
		}
		amount = *req.Amount
	}

	app, err := s.fulfiller.FulfillRequest(c.Request.Context(), req.AppType, amount)
	if err != nil {
		var cooldownErr *dispatch.CooldownError
		switch {
		case errors.Is(err, dispatch.ErrBusy):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
		case errors.As(err, &cooldownErr):
			retryAfter := int(cooldownErr.Remaining.Seconds()) + 1
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":               cooldownErr.Error(),
				"retry_after_seconds": retryAfter,
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate app code for type: " + req.AppType})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":             app.Message,
		"app_id":              app.ID,
		"app_type_received":   app.Description,
		"amount_received":     app.Amount,
		"tier":                app.Tier,
		"hosted_url_relative": app.HostedPath,
		"hosted_url_full":     app.HostedURL,
		"github_url":          app.RepoURL,
		"qr_code_image":       app.QRCode,
	})
}

func (s *Server) handleLogs(c *gin.Context) {
	limit := 100
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = n
	}

	entries := s.logs.Recent(limit)
	c.JSON(http.StatusOK, gin.H{"logs": entries, "count": len(entries)})
}
