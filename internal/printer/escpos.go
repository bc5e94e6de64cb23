// Package printer drives ESC/POS thermal receipt printers over TCP or a
// character device and renders the installation's continuous receipt.
package printer

import (
	"fmt"
	"io"
)

// Text justification modes for Encoder.Align.
const (
	AlignLeft   byte = 0
	AlignCenter byte = 1
	AlignRight  byte = 2
)

// qrMaxPayload is the model-2 QR capacity in bytes.
const qrMaxPayload = 7089

// Encoder emits ESC/POS command sequences to an io.Writer. The first write
// error sticks and turns all later calls into no-ops, so callers can issue a
// full command sequence and check Err once at the end.
type Encoder struct {
	w   io.Writer
	err error
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

func (e *Encoder) write(b ...byte) {
	if e.err != nil {
		return
	}
	_, e.err = e.w.Write(b)
}

// Init resets the printer to its power-on state.
func (e *Encoder) Init() {
	e.write(0x1b, '@')
}

// Align sets line justification for subsequent text.
func (e *Encoder) Align(mode byte) {
	if mode > AlignRight {
		mode = AlignLeft
	}
	e.write(0x1b, 'a', mode)
}

// Bold toggles emphasized printing.
func (e *Encoder) Bold(on bool) {
	var n byte
	if on {
		n = 1
	}
	e.write(0x1b, 'E', n)
}

// Size sets character scaling. Width and height are clamped to 1..8.
func (e *Encoder) Size(width, height byte) {
	e.write(0x1d, '!', (clampScale(width)-1)<<4|(clampScale(height)-1))
}

func clampScale(n byte) byte {
	if n < 1 {
		return 1
	}
	if n > 8 {
		return 8
	}
	return n
}

// Line prints text followed by a line feed.
func (e *Encoder) Line(s string) {
	if e.err == nil {
		_, e.err = io.WriteString(e.w, s)
	}
	e.write('\n')
}

// Feed advances the paper n lines.
func (e *Encoder) Feed(n byte) {
	e.write(0x1b, 'd', n)
}

// Cut feeds past the tear bar and performs a partial cut.
func (e *Encoder) Cut() {
	e.write(0x1d, 'V', 'B', 3)
}

// QR prints data as a model-2 QR code with the given module size (1..16
// dots, values outside that range fall back to 6). Uses error correction
// level L to keep the symbol small on 58mm paper.
func (e *Encoder) QR(data string, moduleSize byte) {
	if len(data) == 0 || len(data) > qrMaxPayload {
		if e.err == nil {
			e.err = fmt.Errorf("escpos: qr payload of %d bytes out of range", len(data))
		}
		return
	}
	if moduleSize < 1 || moduleSize > 16 {
		moduleSize = 6
	}
	e.write(0x1d, '(', 'k', 4, 0, 49, 65, 50, 0)          // select model 2
	e.write(0x1d, '(', 'k', 3, 0, 49, 67, moduleSize)     // module size
	e.write(0x1d, '(', 'k', 3, 0, 49, 69, 48)             // error correction L
	n := len(data) + 3
	e.write(0x1d, '(', 'k', byte(n), byte(n>>8), 49, 80, 48) // store data
	if e.err == nil {
		_, e.err = io.WriteString(e.w, data)
	}
	e.write(0x1d, '(', 'k', 3, 0, 49, 81, 48) // print stored symbol
}

// Err reports the first write error encountered, if any.
func (e *Encoder) Err() error {
	return e.err
}
