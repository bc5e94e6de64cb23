package appgen

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/haukesand/vibecoder/internal/models"
)

// CodeGenerator produces a complete single-file web app for a description
// and tier.
type CodeGenerator interface {
	GenerateApp(ctx context.Context, description, tier string) (string, error)
}

// Generator turns paid-for requests into hosted app directories: one folder
// per app under baseDir, each holding a self-contained index.html.
type Generator struct {
	codegen CodeGenerator
	baseDir string
}

// New creates a Generator, making sure baseDir exists.
func New(codegen CodeGenerator, baseDir string) (*Generator, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create apps directory %s: %w", baseDir, err)
	}
	return &Generator{codegen: codegen, baseDir: baseDir}, nil
}

// BaseDir returns the directory generated apps are written under.
func (g *Generator) BaseDir() string {
	return g.baseDir
}

// Generate creates the app files for a paid request and returns their
// details. The payment amount decides the tier. A partially written app
// directory is removed again on failure.
func (g *Generator) Generate(ctx context.Context, description string, amount decimal.Decimal) (*models.GeneratedApp, error) {
	if g.codegen == nil {
		return nil, fmt.Errorf("no code generator configured, is GEMINI_API_KEY set?")
	}

	appID := uuid.NewString()
	tier := models.TierForAmount(amount)

	html, err := g.codegen.GenerateApp(ctx, description, tier)
	if err != nil {
		return nil, fmt.Errorf("failed to generate code for %q (%s tier): %w", description, tier, err)
	}

	appDir := filepath.Join(g.baseDir, appID)
	if err := os.MkdirAll(appDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create app directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(appDir, "index.html"), []byte(html), 0o644); err != nil {
		os.RemoveAll(appDir)
		return nil, fmt.Errorf("failed to write app %s: %w", appID, err)
	}

	log.Printf("appgen: generated app %s (%q, %s tier) at %s", appID, description, tier, appDir)

	return &models.GeneratedApp{
		ID:          appID,
		Description: description,
		Tier:        tier,
		Amount:      amount,
		Dir:         appDir,
		CreatedAt:   time.Now(),
	}, nil
}
