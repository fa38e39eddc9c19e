package modem

import (
	"context"
	"fmt"
	"log/slog"

	"i4.energy/across/simmodem/at"
)

// State is the connection state of a Modem.
type State int

const (
	Disconnected State = iota
	Handshaking
	Ready
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Handshaking:
		return "handshaking"
	case Ready:
		return "ready"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Modem represents a SIMCom cellular/GPS modem that communicates via AT
// commands.
//
// A Modem runs one transaction at a time and blocks the caller for its
// whole duration. It is not safe for concurrent use; share it through a
// Worker when several goroutines need it.
type Modem struct {
	// config is kept apart from the channel so that Reconnect can dial again
	config Config
	// channel is the live line channel, nil while Disconnected
	channel *LineChannel
	// state tracks the connection lifecycle
	state State
	// closed indicates if the modem has been shut down
	closed bool
	logger *slog.Logger
}

// New creates a new Modem with the given configuration. It dials the
// transport and runs the ATZ/ATE1 handshake.
//
// Returns an error wrapping ErrHandshakeFailed if the modem does not answer
// the handshake; the transport is closed in that case.
func New(ctx context.Context, config Config) (*Modem, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	config.setDefaults()

	m := &Modem{
		config: config,
		logger: config.Logger,
	}
	if err := m.connect(ctx); err != nil {
		return nil, err
	}
	if config.Probe {
		m.logger.Debug("modem connected, probing enabled")
	}
	return m, nil
}

// State returns the current connection state.
func (m *Modem) State() State {
	return m.state
}

// Channel returns the live line channel for exchanges no Command covers,
// or nil while Disconnected.
func (m *Modem) Channel() *LineChannel {
	return m.channel
}

// Reconnect drops the current channel, ignoring any error closing it, dials
// again with the same configuration and repeats the handshake. On
// failure the Modem is left Disconnected and the error wraps
// ErrConnectionLost.
//
// Close is final: Reconnect on a closed Modem returns ErrAlreadyClosed
// without dialing.
func (m *Modem) Reconnect(ctx context.Context) error {
	if m.closed {
		return ErrAlreadyClosed
	}
	m.drop()
	if err := m.connect(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionLost, err)
	}
	m.logger.Info("modem reconnected")
	return nil
}

// Close shuts down the modem and releases the transport. After calling
// Close the modem cannot be reused.
func (m *Modem) Close() error {
	if m.closed {
		return ErrAlreadyClosed
	}
	m.closed = true
	m.state = Disconnected
	if m.channel == nil {
		return nil
	}
	err := m.channel.Close()
	m.channel = nil
	return err
}

func (m *Modem) connect(ctx context.Context) error {
	transport, err := m.config.Dialer.Dial(ctx)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	if transport == nil {
		return fmt.Errorf("dial: %w", ErrNotReady)
	}

	m.channel = NewLineChannel(transport, m.config.SettleDelay, m.config.Charset, m.logger)
	m.state = Handshaking

	if err := m.handshake(); err != nil {
		m.drop()
		return err
	}
	m.state = Ready
	return nil
}

// handshake resets the modem and turns echo on. Both commands are written
// before reading, the modem answers with ATZ, OK, ATE1, OK.
func (m *Modem) handshake() error {
	resp, err := m.transact(Cmd(at.CmdReset, at.CmdEchoOn).Accepting(handshakeAccepted))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrHandshakeFailed, err)
	}
	m.logger.Debug("handshake complete", "lines", []string(resp))
	return nil
}

func handshakeAccepted(r Response) bool {
	finals := 0
	for _, line := range r {
		if at.IsFinal(line) {
			if line != at.OK {
				return false
			}
			finals++
		}
	}
	return finals == 2 && r.Last() == at.OK
}

func (m *Modem) drop() {
	if m.channel != nil {
		if err := m.channel.Close(); err != nil {
			m.logger.Warn("closing channel", "error", err)
		}
	}
	m.channel = nil
	m.state = Disconnected
}

// Execute runs one transaction and returns the full response when the
// command's success rule accepts it.
//
// With probing enabled and cmd.Probe set, the probe is sent first and a
// rejection fails with ErrUnsupportedCommand before the command itself is
// written. A rejected response fails with a *CommandError wrapping
// ErrCommandFailed that carries the lines.
func (m *Modem) Execute(cmd Command) (Response, error) {
	if m.closed {
		return nil, ErrAlreadyClosed
	}
	if m.state != Ready || m.channel == nil {
		return nil, ErrNotReady
	}
	if err := m.encodable(cmd); err != nil {
		return nil, err
	}

	if m.config.Probe && cmd.Probe != "" {
		if err := m.probe(cmd.Probe); err != nil {
			return nil, err
		}
	}

	return m.transact(cmd)
}

func (m *Modem) probe(text string) error {
	if err := m.channel.SendCommand(text); err != nil {
		return err
	}
	lines, err := m.channel.ReadLines()
	if err != nil {
		return err
	}
	if Response(lines).Last() != at.OK {
		return &CommandError{Command: text, Lines: lines, Err: ErrUnsupportedCommand}
	}
	return nil
}

// encodable fails when any step of cmd cannot be written in the channel's
// charset. Nothing of cmd may reach the modem then: a half written SMS
// leaves it waiting at the text prompt.
func (m *Modem) encodable(cmd Command) error {
	for _, step := range cmd.Steps {
		if _, err := m.channel.encode(step); err != nil {
			return err
		}
	}
	return nil
}

func (m *Modem) transact(cmd Command) (Response, error) {
	if err := m.encodable(cmd); err != nil {
		return nil, err
	}
	for _, step := range cmd.Steps {
		if err := m.channel.SendCommand(step); err != nil {
			return nil, err
		}
	}
	lines, err := m.channel.ReadLines()
	if err != nil {
		return nil, err
	}

	resp := Response(lines)
	if !cmd.accepts(resp) {
		return resp, &CommandError{Command: cmd.String(), Lines: lines, Err: ErrCommandFailed}
	}
	return resp, nil
}

// expectOK runs a command whose only payload is its success.
func (m *Modem) expectOK(cmd Command) error {
	_, err := m.Execute(cmd)
	return err
}

// payload runs a command and extracts one field of its response.
func (m *Modem) payload(cmd Command, field at.Field, what string) (string, error) {
	resp, err := m.Execute(cmd)
	if err != nil {
		return "", err
	}
	return extract(resp, field, what)
}

func extract(resp Response, field at.Field, what string) (string, error) {
	v, err := field.Extract(resp)
	if err != nil {
		return "", decodeError(resp, err, "%s", what)
	}
	return v, nil
}
