package printer

import (
	"errors"
	"io"
	"log"
	"net"
	"os"
	"sync"
	"time"
)

const dialTimeout = 5 * time.Second

var errNotConfigured = errors.New("no printer configured")

// Printer owns the connection to a receipt printer. It prefers a network
// printer at addr (host:port, conventionally port 9100), falls back to a raw
// character device, and when neither is configured echoes receipts to the
// process log so the installation keeps running without hardware.
//
// Printing is fire and forget: failures are logged and never propagated,
// because a jammed printer must not block payment processing.
type Printer struct {
	mu     sync.Mutex
	addr   string
	device string
}

// New creates a Printer. Both addr and device may be empty.
func New(addr, device string) *Printer {
	p := &Printer{addr: addr, device: device}
	switch {
	case addr != "":
		log.Printf("printer: using network printer at %s", addr)
	case device != "":
		log.Printf("printer: using device %s", device)
	default:
		log.Println("printer: not configured, receipts go to console")
	}
	return p
}

// Configured reports whether a hardware sink is set up.
func (p *Printer) Configured() bool {
	return p.addr != "" || p.device != ""
}

func (p *Printer) open() (io.WriteCloser, error) {
	switch {
	case p.addr != "":
		conn, err := net.DialTimeout("tcp", p.addr, dialTimeout)
		if err != nil {
			return nil, err
		}
		return conn, nil
	case p.device != "":
		f, err := os.OpenFile(p.device, os.O_WRONLY, 0)
		if err != nil {
			return nil, err
		}
		return f, nil
	default:
		return nil, errNotConfigured
	}
}

// PrintLines prints each line with the given justification, optionally
// cutting the paper afterwards.
func (p *Printer) PrintLines(lines []string, align byte, cut bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	w, err := p.open()
	if err != nil {
		p.reportOpenError(err)
		p.console(lines, "")
		return
	}
	defer w.Close()

	e := NewEncoder(w)
	e.Init()
	e.Align(align)
	for _, line := range lines {
		e.Line(line)
	}
	if cut {
		e.Feed(3)
		e.Cut()
	}
	if err := e.Err(); err != nil {
		log.Printf("printer: write failed: %v", err)
	}
}

// PrintQR prints a centered QR code with optional bold caption above and
// plain caption below.
func (p *Printer) PrintQR(data, textAbove, textBelow string, moduleSize byte, cut bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	w, err := p.open()
	if err != nil {
		p.reportOpenError(err)
		var lines []string
		if textAbove != "" {
			lines = append(lines, textAbove)
		}
		if textBelow != "" {
			lines = append(lines, textBelow)
		}
		p.console(lines, data)
		return
	}
	defer w.Close()

	e := NewEncoder(w)
	e.Init()
	e.Align(AlignCenter)
	if textAbove != "" {
		e.Bold(true)
		e.Line(textAbove)
		e.Bold(false)
		e.Feed(1)
	}
	e.QR(data, moduleSize)
	e.Feed(1)
	if textBelow != "" {
		e.Line(textBelow)
	}
	if cut {
		e.Feed(3)
		e.Cut()
	}
	if err := e.Err(); err != nil {
		log.Printf("printer: write failed: %v", err)
	}
}

// CutPaper feeds and cuts without printing anything. Used to end whatever
// receipt is hanging out of the printer before a fresh header.
func (p *Printer) CutPaper() {
	p.mu.Lock()
	defer p.mu.Unlock()

	w, err := p.open()
	if err != nil {
		p.reportOpenError(err)
		return
	}
	defer w.Close()

	e := NewEncoder(w)
	e.Init()
	e.Feed(3)
	e.Cut()
	if err := e.Err(); err != nil {
		log.Printf("printer: cut failed: %v", err)
	}
}

func (p *Printer) reportOpenError(err error) {
	if !errors.Is(err, errNotConfigured) {
		log.Printf("printer: unavailable, falling back to console: %v", err)
	}
}

func (p *Printer) console(lines []string, qrData string) {
	log.Println("printer: ----- receipt -----")
	for _, line := range lines {
		log.Printf("printer: | %s", line)
	}
	if qrData != "" {
		log.Printf("printer: | [QR] %s", qrData)
	}
	log.Println("printer: -------------------")
}
