package modem

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"

	"i4.energy/across/simmodem/at"
)

// LineChannel frames commands onto a Transport and turns what the modem
// sends back into text lines. It owns the Transport exclusively.
//
// A LineChannel is not safe for concurrent use and does not poll: every
// write is followed by an unconditional sleep and every read drains the
// transport until its read timeout passes without data.
type LineChannel struct {
	transport Transport
	delay     time.Duration
	charset   *charmap.Charmap
	logger    *slog.Logger
	closed    bool
}

// NewLineChannel wraps t. A nil charset means ISO-8859-1 and a nil logger
// means slog.Default().
func NewLineChannel(t Transport, delay time.Duration, charset *charmap.Charmap, logger *slog.Logger) *LineChannel {
	if charset == nil {
		charset = charmap.ISO8859_1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LineChannel{
		transport: t,
		delay:     delay,
		charset:   charset,
		logger:    logger,
	}
}

// SendCommand writes text followed by CR and waits for the settle delay.
func (c *LineChannel) SendCommand(text string) error {
	wire, err := c.encode(text)
	if err != nil {
		return err
	}
	c.logger.Debug("sending", "command", text)
	return c.SendRaw(append(wire, at.CR...))
}

func (c *LineChannel) encode(text string) ([]byte, error) {
	wire, err := c.charset.NewEncoder().String(text)
	if err != nil {
		return nil, fmt.Errorf("%w: encode %q: %v", ErrInvalidArgument, text, err)
	}
	return []byte(wire), nil
}

// SendRaw writes p unchanged and waits for the settle delay.
func (c *LineChannel) SendRaw(p []byte) error {
	if c.closed {
		return &TransportError{Op: "write", Err: ErrAlreadyClosed}
	}
	if _, err := c.transport.Write(p); err != nil {
		return &TransportError{Op: "write", Err: err}
	}
	time.Sleep(c.delay)
	return nil
}

// ReadLines drains the transport and returns the received lines, decoded
// and trimmed, blank lines included. No data before the read timeout gives
// an empty result, not an error.
func (c *LineChannel) ReadLines() ([]string, error) {
	if c.closed {
		return nil, &TransportError{Op: "read", Err: ErrAlreadyClosed}
	}

	var buf bytes.Buffer
	chunk := make([]byte, 512)
	for {
		n, err := c.transport.Read(chunk)
		buf.Write(chunk[:n])
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &TransportError{Op: "read", Err: err}
		}
		if n == 0 {
			break
		}
	}

	var lines []string
	decoder := c.charset.NewDecoder()
	scanner := bufio.NewScanner(&buf)
	scanner.Split(at.ScanLines)
	for scanner.Scan() {
		text, err := decoder.Bytes(scanner.Bytes())
		if err != nil {
			return lines, &TransportError{Op: "decode", Err: err}
		}
		lines = append(lines, strings.TrimSpace(string(text)))
	}
	if err := scanner.Err(); err != nil {
		return lines, &TransportError{Op: "read", Err: err}
	}

	c.logger.Debug("device responded", "lines", lines)
	return lines, nil
}

// ReadRaw reads up to n bytes, stopping early when the read timeout passes
// without data.
func (c *LineChannel) ReadRaw(n int) ([]byte, error) {
	if c.closed {
		return nil, &TransportError{Op: "read", Err: ErrAlreadyClosed}
	}
	out := make([]byte, 0, n)
	for len(out) < n {
		m, err := c.transport.Read(out[len(out):n])
		out = out[:len(out)+m]
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return out, &TransportError{Op: "read", Err: err}
		}
		if m == 0 {
			break
		}
	}
	return out, nil
}

// Close releases the transport. Calling it again is a no-op.
func (c *LineChannel) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	if err := c.transport.Close(); err != nil {
		return &TransportError{Op: "close", Err: err}
	}
	return nil
}
