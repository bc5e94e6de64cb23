// Package mailbox reads Venmo notification mail from an IMAP inbox.
package mailbox

import (
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
)

// Message is one mail pulled from the inbox.
type Message struct {
	UID      uint32
	Subject  string
	From     string
	Date     time.Time
	BodyText string
	BodyHTML string
}

// Client maintains an IMAP connection to the inbox receiving Venmo
// notifications. All methods are safe for concurrent use; the connection is
// re-established lazily after a loss.
type Client struct {
	addr     string
	username string
	password string

	mu   sync.Mutex
	conn *client.Client
}

// New creates a Client for the given IMAP server. No connection is made
// until Connect or the first fetch.
func New(host string, port int, username, password string) *Client {
	return &Client{
		addr:     fmt.Sprintf("%s:%d", host, port),
		username: username,
		password: password,
	}
}

// Connect dials the server over TLS and authenticates. Calling it again
// replaces an existing connection.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectLocked()
}

func (c *Client) connectLocked() error {
	if c.conn != nil {
		c.conn.Logout()
		c.conn = nil
	}

	conn, err := client.DialTLS(c.addr, nil)
	if err != nil {
		return fmt.Errorf("failed to dial %s: %w", c.addr, err)
	}
	if err := conn.Login(c.username, c.password); err != nil {
		conn.Logout()
		return fmt.Errorf("failed to login as %s: %w", c.username, err)
	}

	c.conn = conn
	log.Printf("mailbox: connected to %s as %s", c.addr, c.username)
	return nil
}

// Reconnect drops the current connection and dials again. The watcher calls
// this after repeated fetch failures.
func (c *Client) Reconnect() error {
	log.Println("mailbox: reconnecting")
	return c.Connect()
}

// Close logs out of the server.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	err := c.conn.Logout()
	c.conn = nil
	return err
}

// FetchUnseen returns up to limit unseen messages from INBOX, oldest first.
// Fetching peeks at the bodies, so messages stay unseen until MarkSeen.
func (c *Client) FetchUnseen(limit int) ([]Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		if err := c.connectLocked(); err != nil {
			return nil, err
		}
	}

	if _, err := c.conn.Select("INBOX", false); err != nil {
		return nil, fmt.Errorf("failed to select INBOX: %w", err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	ids, err := c.conn.Search(criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to search for unseen messages: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	if limit > 0 && len(ids) > limit {
		// Search returns sequence numbers in mailbox order, keep the oldest.
		ids = ids[:limit]
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(ids...)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchUid, section.FetchItem()}

	ch := make(chan *imap.Message, len(ids))
	done := make(chan error, 1)
	go func() {
		done <- c.conn.Fetch(seqset, items, ch)
	}()

	var messages []Message
	for msg := range ch {
		m, err := decodeMessage(msg, section)
		if err != nil {
			// Keep the partial message anyway: envelope and UID are enough
			// to mark it seen, otherwise it would be re-fetched forever.
			log.Printf("Warning: failed to parse message %d: %v", msg.SeqNum, err)
		}
		if m.UID == 0 {
			continue
		}
		messages = append(messages, m)
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	return messages, nil
}

// MarkSeen flags a message as read so the next fetch skips it.
func (c *Client) MarkSeen(uid uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return fmt.Errorf("not connected")
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(uid)
	item := imap.FormatFlagsOp(imap.AddFlags, true)
	flags := []interface{}{imap.SeenFlag}
	if err := c.conn.UidStore(seqset, item, flags, nil); err != nil {
		return fmt.Errorf("failed to mark message %d seen: %w", uid, err)
	}
	return nil
}

func decodeMessage(msg *imap.Message, section *imap.BodySectionName) (Message, error) {
	m := Message{UID: msg.Uid}
	if msg.Envelope != nil {
		m.Subject = msg.Envelope.Subject
		m.Date = msg.Envelope.Date
		if len(msg.Envelope.From) > 0 {
			m.From = formatAddress(msg.Envelope.From[0])
		}
	}

	r := msg.GetBody(section)
	if r == nil {
		return m, fmt.Errorf("server returned no body section")
	}

	text, html, err := readBodies(r)
	if err != nil {
		return m, err
	}
	m.BodyText = text
	m.BodyHTML = html
	return m, nil
}

func formatAddress(addr *imap.Address) string {
	email := addr.MailboxName + "@" + addr.HostName
	if addr.PersonalName != "" {
		return fmt.Sprintf("%s <%s>", addr.PersonalName, email)
	}
	return email
}

// readBodies walks the MIME tree and collects the first text/plain and
// text/html parts. Line endings are normalized to \n so downstream regexes
// only deal with one newline flavor.
func readBodies(r io.Reader) (text, html string, err error) {
	mr, err := mail.CreateReader(r)
	if err != nil {
		return "", "", fmt.Errorf("failed to read message: %w", err)
	}

	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", "", fmt.Errorf("failed to read message part: %w", err)
		}

		h, ok := p.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		ct, _, err := h.ContentType()
		if err != nil {
			continue
		}

		body, err := io.ReadAll(p.Body)
		if err != nil {
			return "", "", fmt.Errorf("failed to read part body: %w", err)
		}

		switch ct {
		case "text/plain":
			if text == "" {
				text = normalizeNewlines(string(body))
			}
		case "text/html":
			if html == "" {
				html = normalizeNewlines(string(body))
			}
		}
	}

	return text, html, nil
}

func normalizeNewlines(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}
