package gemini

import (
	"strings"
	"testing"

	"github.com/google/generative-ai-go/genai"

	"github.com/haukesand/vibecoder/internal/models"
)

func TestBuildPrompt(t *testing.T) {
	tests := []struct {
		name     string
		tier     string
		expected []string
		absent   []string
	}{
		{
			name: "high tier",
			tier: models.TierHigh,
			expected: []string{
				`"a weather app"`,
				"High Tier",
				"autonomy-supporting",
				"Output ONLY the complete HTML code",
			},
			absent: []string{"Low Tier"},
		},
		{
			name: "low tier",
			tier: models.TierLow,
			expected: []string{
				"Low Tier",
				"autonomy-blocking",
				"only the most basic functionality",
			},
			absent: []string{"High Tier"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prompt := buildPrompt("a weather app", tt.tier)
			for _, want := range tt.expected {
				if !strings.Contains(prompt, want) {
					t.Errorf("prompt missing %q", want)
				}
			}
			for _, unwanted := range tt.absent {
				if strings.Contains(prompt, unwanted) {
					t.Errorf("prompt unexpectedly contains %q", unwanted)
				}
			}
		})
	}
}

func TestExtractHTML(t *testing.T) {
	doc := "<!DOCTYPE html>\n<html><body>hi</body></html>"

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain document",
			input:    doc,
			expected: doc,
		},
		{
			name:     "document with surrounding whitespace",
			input:    "\n\n" + doc + "\n",
			expected: doc,
		},
		{
			name:     "markdown fenced document",
			input:    "```html\n" + doc + "\n```",
			expected: doc,
		},
		{
			name:     "uppercase fence tag",
			input:    "```HTML\n" + doc + "\n```",
			expected: doc,
		},
		{
			name:     "explanatory text around fence",
			input:    "Sure, here is your app:\n```html\n" + doc + "\n```\nEnjoy!",
			expected: doc,
		},
		{
			name:     "html tag without doctype",
			input:    "<html><body>bare</body></html>",
			expected: "<html><body>bare</body></html>",
		},
		{
			name:     "non-html response kept raw",
			input:    "I cannot generate that app.",
			expected: "I cannot generate that app.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := extractHTML(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result != tt.expected {
				t.Errorf("Expected:\n%s\n\nGot:\n%s", tt.expected, result)
			}
		})
	}
}

func TestExtractHTML_EmptyResponse(t *testing.T) {
	for _, input := range []string{"", "   \n\t  "} {
		if _, err := extractHTML(input); err == nil {
			t.Errorf("expected error for input %q", input)
		}
	}
}

func TestResponseText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				Content: &genai.Content{
					Parts: []genai.Part{genai.Text("<!DOCTYPE html>"), genai.Text("<html></html>")},
				},
			},
		},
	}

	if got := responseText(resp); got != "<!DOCTYPE html><html></html>" {
		t.Errorf("unexpected text: %q", got)
	}
	if got := responseText(nil); got != "" {
		t.Errorf("expected empty text for nil response, got %q", got)
	}
	if got := responseText(&genai.GenerateContentResponse{}); got != "" {
		t.Errorf("expected empty text for empty response, got %q", got)
	}
}
