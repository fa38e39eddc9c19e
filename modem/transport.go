package modem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"
)

//go:generate go tool mockgen -destination=mock_transport.go -package=modem . Transport,Dialer

// Transport represents an established, bidirectional byte stream to a modem.
//
// A Transport is assumed to be already connected and ready for use. Read must
// block for at most the transport's read timeout and return (0, nil) when no
// byte arrived in that time; the LineChannel relies on this to know that the
// modem has finished talking. Typical implementations include serial ports or
// in-memory fakes used for testing.
type Transport interface {
	io.ReadWriteCloser
}

// Dialer opens a Transport to a modem.
//
// The Modem keeps its Dialer for its whole life: Reconnect dials again with
// the very same settings instead of reading them back from a transport that
// is already gone.
type Dialer interface {
	// Dial is responsible for creating and returning a connected Transport. It may
	// perform blocking operations and should respect cancellation and deadlines
	// provided by the context. Dial returns an error if the transport cannot be
	// established.
	Dial(ctx context.Context) (Transport, error)
}

const (
	// DefaultBaudRate is the rate SIMCom USB modems run their AT port at.
	DefaultBaudRate = 460800
	// DefaultReadTimeout bounds how long a read waits for the next byte.
	DefaultReadTimeout = 5 * time.Second
)

// SerialDialer opens a modem over a serial port using go.bug.st/serial.
type SerialDialer struct {
	// PortName is the device path, e.g. /dev/ttyUSB2 or COM3.
	PortName string
	// BaudRate defaults to DefaultBaudRate. Ignored when Mode is set.
	BaudRate int
	// ReadTimeout defaults to DefaultReadTimeout.
	ReadTimeout time.Duration
	// Mode overrides the 8N1 line settings derived from BaudRate.
	Mode *serial.Mode
}

// Dial opens the port and applies the read timeout.
func (d SerialDialer) Dial(ctx context.Context) (Transport, error) {
	if ctx == nil {
		return nil, errors.New("modem: context is nil")
	}
	if d.PortName == "" {
		return nil, errors.New("modem: serial port name is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mode := d.Mode
	if mode == nil {
		baud := d.BaudRate
		if baud == 0 {
			baud = DefaultBaudRate
		}
		mode = &serial.Mode{
			BaudRate: baud,
			DataBits: 8,
			Parity:   serial.NoParity,
			StopBits: serial.OneStopBit,
		}
	}

	port, err := serial.Open(d.PortName, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", d.PortName, err)
	}

	timeout := d.ReadTimeout
	if timeout == 0 {
		timeout = DefaultReadTimeout
	}
	if err := port.SetReadTimeout(timeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", d.PortName, err)
	}

	return port, nil
}
