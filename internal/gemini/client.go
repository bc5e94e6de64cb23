package gemini

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/haukesand/vibecoder/internal/models"
)

// htmlFenceRe matches a markdown-fenced HTML block.
var htmlFenceRe = regexp.MustCompile("(?is)```html\\s*\\n(.*?)\\n```")

// Client wraps the Gemini SDK for single-file web app generation.
type Client struct {
	client *genai.Client
	model  *genai.GenerativeModel
	name   string
}

// NewClient dials the Gemini API with the given key and model name.
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is not set")
	}

	c, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Client{client: c, model: c.GenerativeModel(model), name: model}, nil
}

// Close releases the underlying API connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// GenerateApp asks Gemini for a complete single-file web application and
// returns the HTML document. The tier steers the prompt: high-tier apps get
// full features and a bright interface, low-tier apps only the basics.
func (c *Client) GenerateApp(ctx context.Context, description, tier string) (string, error) {
	prompt := buildPrompt(description, tier)

	log.Printf("gemini: sending prompt for %q (%s tier) to %s", description, tier, c.name)
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to call gemini: %w", err)
	}

	return extractHTML(responseText(resp))
}

func buildPrompt(description, tier string) string {
	tierDescription := `High Tier ("bright"/"autonomy-supporting"): Implement all reasonable features for the app type. Use a clean, bright, user-friendly interface (light background, clear text).`
	if tier == models.TierLow {
		tierDescription = `Low Tier ("dark"/"autonomy-blocking"): Implement only the most basic functionality. Use a darker, potentially less intuitive interface (dark background, maybe slightly lower contrast). For example, a low-tier calculator might lack advanced functions, or a low-tier timer might not allow custom time input.`
	}

	return fmt.Sprintf("Generate a single, self-contained HTML file (including CSS and JavaScript) for a web application: %q.\n"+
		"The application's features and style should reflect an \"ethical tier\" based on the following description:\n"+
		"%s\n"+
		"Ensure the code is functional and contained within one HTML file. "+
		"Output ONLY the complete HTML code, starting with <!DOCTYPE html> and ending with </html>. "+
		"Do not include any explanatory text before or after the code block.",
		description, tierDescription)
}

// responseText flattens the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String()
}

// extractHTML unwraps a markdown code fence if the model added one and
// checks that the result looks like an HTML document. A response that does
// not start like HTML is kept as-is rather than discarded, since partial
// documents still render.
func extractHTML(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("gemini returned an empty response")
	}

	code := trimmed
	if m := htmlFenceRe.FindStringSubmatch(raw); m != nil {
		code = strings.TrimSpace(m[1])
	}

	lower := strings.ToLower(code)
	if !strings.HasPrefix(lower, "<!doctype html") && !strings.HasPrefix(lower, "<html") {
		log.Println("gemini: response does not look like HTML, keeping raw text")
		code = trimmed
	}
	return code, nil
}
