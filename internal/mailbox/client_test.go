package mailbox

import (
	"strings"
	"testing"

	"github.com/emersion/go-imap"
)

const multipartEmail = "From: Venmo <venmo@venmo.com>\r\n" +
	"To: art@example.com\r\n" +
	"Subject: Jane Doe paid you $5.00\r\n" +
	"Date: Sun, 01 Jun 2025 14:30:05 +0000\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/alternative; boundary=b1\r\n" +
	"\r\n" +
	"--b1\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"Jane Doe paid you $5.00\r\n" +
	"Note: \"a weather app\"\r\n" +
	"--b1\r\n" +
	"Content-Type: text/html; charset=utf-8\r\n" +
	"\r\n" +
	"<html><body><p>a weather app</p></body></html>\r\n" +
	"--b1--\r\n"

const plainEmail = "From: Venmo <venmo@venmo.com>\r\n" +
	"Subject: You received $1.00\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"Somebody paid you $1.00\r\n"

func TestReadBodies_Multipart(t *testing.T) {
	text, html, err := readBodies(strings.NewReader(multipartEmail))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(text, "Jane Doe paid you $5.00") {
		t.Errorf("text body missing payment line: %q", text)
	}
	if strings.Contains(text, "\r\n") {
		t.Error("expected line endings normalized to \\n")
	}
	if !strings.Contains(text, "paid you $5.00\nNote:") {
		t.Errorf("expected normalized newline between lines: %q", text)
	}
	if !strings.Contains(html, "<p>a weather app</p>") {
		t.Errorf("html body missing paragraph: %q", html)
	}
}

func TestReadBodies_PlainText(t *testing.T) {
	text, html, err := readBodies(strings.NewReader(plainEmail))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(text, "Somebody paid you $1.00") {
		t.Errorf("unexpected text body: %q", text)
	}
	if html != "" {
		t.Errorf("expected no html body, got %q", html)
	}
}

func TestFormatAddress(t *testing.T) {
	tests := []struct {
		name     string
		addr     *imap.Address
		expected string
	}{
		{
			name:     "with personal name",
			addr:     &imap.Address{PersonalName: "Venmo", MailboxName: "venmo", HostName: "venmo.com"},
			expected: "Venmo <venmo@venmo.com>",
		},
		{
			name:     "bare address",
			addr:     &imap.Address{MailboxName: "venmo", HostName: "venmo.com"},
			expected: "venmo@venmo.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatAddress(tt.addr); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestNormalizeNewlines(t *testing.T) {
	if got := normalizeNewlines("a\r\nb\r\nc"); got != "a\nb\nc" {
		t.Errorf("expected normalized string, got %q", got)
	}
}
