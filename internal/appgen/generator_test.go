package appgen

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/haukesand/vibecoder/internal/models"
)

type mockCodeGenerator struct {
	generateFunc func(ctx context.Context, description, tier string) (string, error)
}

func (m *mockCodeGenerator) GenerateApp(ctx context.Context, description, tier string) (string, error) {
	return m.generateFunc(ctx, description, tier)
}

func TestGenerator_Generate(t *testing.T) {
	const doc = "<!DOCTYPE html>\n<html><body>weather</body></html>"

	var gotDescription, gotTier string
	mock := &mockCodeGenerator{
		generateFunc: func(ctx context.Context, description, tier string) (string, error) {
			gotDescription = description
			gotTier = tier
			return doc, nil
		},
	}

	baseDir := t.TempDir()
	g, err := New(mock, baseDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	app, err := g.Generate(context.Background(), "a weather app", decimal.RequireFromString("0.25"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotDescription != "a weather app" {
		t.Errorf("expected description passed through, got %q", gotDescription)
	}
	if gotTier != models.TierLow {
		t.Errorf("expected low tier for $0.25, got %q", gotTier)
	}
	if app.ID == "" {
		t.Error("expected non-empty app ID")
	}
	if app.Tier != models.TierLow {
		t.Errorf("expected low tier on app, got %q", app.Tier)
	}
	if !strings.HasPrefix(app.Dir, baseDir) {
		t.Errorf("expected app dir under %s, got %s", baseDir, app.Dir)
	}
	if app.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}

	content, err := os.ReadFile(filepath.Join(app.Dir, "index.html"))
	if err != nil {
		t.Fatalf("failed to read generated file: %v", err)
	}
	if string(content) != doc {
		t.Errorf("unexpected file content: %q", content)
	}
}

func TestGenerator_Generate_HighTier(t *testing.T) {
	var gotTier string
	mock := &mockCodeGenerator{
		generateFunc: func(ctx context.Context, description, tier string) (string, error) {
			gotTier = tier
			return "<html></html>", nil
		},
	}

	g, err := New(mock, t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := g.Generate(context.Background(), "chess", decimal.RequireFromString("1.00")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotTier != models.TierHigh {
		t.Errorf("expected high tier for $1.00, got %q", gotTier)
	}
}

func TestGenerator_Generate_CodeGenerationFails(t *testing.T) {
	mock := &mockCodeGenerator{
		generateFunc: func(ctx context.Context, description, tier string) (string, error) {
			return "", errors.New("model overloaded")
		},
	}

	baseDir := t.TempDir()
	g, err := New(mock, baseDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := g.Generate(context.Background(), "chess", decimal.RequireFromString("0.25")); err == nil {
		t.Fatal("expected error when code generation fails")
	}

	entries, err := os.ReadDir(baseDir)
	if err != nil {
		t.Fatalf("failed to list base dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no app directories after failure, found %d", len(entries))
	}
}

func TestNew_CreatesBaseDir(t *testing.T) {
	baseDir := filepath.Join(t.TempDir(), "generated_apps")

	if _, err := New(&mockCodeGenerator{}, baseDir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	info, err := os.Stat(baseDir)
	if err != nil {
		t.Fatalf("expected base dir to exist: %v", err)
	}
	if !info.IsDir() {
		t.Error("expected base dir to be a directory")
	}
}

func TestGenerator_Generate_NoCodeGenerator(t *testing.T) {
	g, err := New(nil, t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = g.Generate(context.Background(), "a chess game", decimal.RequireFromString("0.25"))
	if err == nil {
		t.Fatal("expected error without a code generator, got nil")
	}
	if !strings.Contains(err.Error(), "GEMINI_API_KEY") {
		t.Errorf("expected error to point at the missing key, got %v", err)
	}
}
