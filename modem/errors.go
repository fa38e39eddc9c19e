package modem

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoDialer is returned when a Modem is constructed without a Dialer.
	//
	// This indicates a configuration error. A Dialer is required in order to
	// establish a connection to the modem.
	ErrNoDialer = errors.New("no dialer configured")

	// ErrNotReady is returned when a command is executed while the connection
	// is not in the Ready state, for example after a failed Reconnect.
	ErrNotReady = errors.New("modem not ready")

	// ErrAlreadyClosed is returned when Close is called on a Modem that has
	// already been closed.
	ErrAlreadyClosed = errors.New("modem already closed")

	// ErrTransport is matched by every *TransportError.
	ErrTransport = errors.New("transport failure")

	// ErrHandshakeFailed is returned by New when the modem does not answer
	// the ATZ/ATE1 handshake with two OKs.
	ErrHandshakeFailed = errors.New("handshake failed")

	// ErrConnectionLost is returned by Reconnect when the port cannot be
	// reopened or the handshake fails on the new port. The Modem is left
	// Disconnected; callers may call Reconnect again.
	ErrConnectionLost = errors.New("connection lost")

	// ErrUnsupportedCommand is returned when probing is enabled and the modem
	// rejects the test form of a command.
	ErrUnsupportedCommand = errors.New("unsupported command")

	// ErrCommandFailed is returned when a response does not end in an
	// accepted terminal token, including the case of no response at all.
	ErrCommandFailed = errors.New("command failed")

	// ErrDecode is matched by every *DecodeError.
	ErrDecode = errors.New("unexpected response")

	// ErrLoopRunning is returned when Worker.Loop is called while a Loop is
	// already running.
	ErrLoopRunning = errors.New("worker loop already running")

	// ErrWorkerStopped is returned by Worker.Do once the Loop has returned.
	ErrWorkerStopped = errors.New("worker stopped")

	// ErrInvalidArgument is returned before anything is sent when a caller
	// supplied value is outside the range the command accepts.
	ErrInvalidArgument = errors.New("invalid argument")
)

// TransportError wraps a failure of the underlying Transport.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() []error { return []error{ErrTransport, e.Err} }

// CommandError reports a transaction the modem did not accept. Err is
// ErrCommandFailed or ErrUnsupportedCommand; Lines holds the raw response
// for diagnosis.
type CommandError struct {
	Command string
	Lines   []string
	Err     error
}

func (e *CommandError) Error() string {
	if len(e.Lines) == 0 {
		return fmt.Sprintf("%s: %v: no response", e.Command, e.Err)
	}
	return fmt.Sprintf("%s: %v: %q", e.Command, e.Err, e.Lines)
}

func (e *CommandError) Unwrap() error { return e.Err }

// DecodeError reports a response whose payload does not have the expected
// shape.
type DecodeError struct {
	Reason string
	Lines  []string
	Err    error
}

func (e *DecodeError) Error() string {
	var b strings.Builder
	b.WriteString("decode: ")
	b.WriteString(e.Reason)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	fmt.Fprintf(&b, " in %q", e.Lines)
	return b.String()
}

func (e *DecodeError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrDecode}
	}
	return []error{ErrDecode, e.Err}
}

func decodeError(lines []string, err error, format string, args ...any) error {
	return &DecodeError{Reason: fmt.Sprintf(format, args...), Lines: lines, Err: err}
}
