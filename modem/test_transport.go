package modem

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
)

// TestTransport is an in-memory modem for tests and dry runs. Every write
// is matched against the registered replies and the reply, if any, is
// queued for reading. Read returns (0, nil) once the queue is empty, the
// way a serial port behaves when its read timeout passes.
type TestTransport struct {
	mu      sync.Mutex
	replies map[string]string
	pending bytes.Buffer
	written []string
	closed  bool
}

// NewTestTransport creates a new test transport with no replies.
func NewTestTransport() *TestTransport {
	return &TestTransport{replies: make(map[string]string)}
}

// Reply registers response, CRLF framed, as the answer to command. The
// command is matched without its trailing CR.
func (t *TestTransport) Reply(command, response string) *TestTransport {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.replies[command] = response
	return t
}

// Handshake registers the replies to ATZ and ATE1.
func (t *TestTransport) Handshake() *TestTransport {
	return t.Reply("ATZ", "ATZ\r\nOK\r\n").Reply("ATE1", "ATE1\r\nOK\r\n")
}

func (t *TestTransport) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return 0, io.ErrClosedPipe
	}
	text := strings.TrimSuffix(string(p), "\r")
	t.written = append(t.written, text)
	if r, ok := t.replies[text]; ok {
		t.pending.WriteString(r)
	}
	return len(p), nil
}

func (t *TestTransport) Read(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return 0, io.EOF
	}
	if t.pending.Len() == 0 {
		return 0, nil
	}
	return t.pending.Read(p)
}

func (t *TestTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

// Written returns every write so far without the trailing CR.
func (t *TestTransport) Written() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.written...)
}

// Closed reports whether Close was called.
func (t *TestTransport) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// Dial returns the transport itself, so a TestTransport also serves as the
// Dialer of a Modem. Dialing again after Close reopens it with an empty
// read queue.
func (t *TestTransport) Dial(ctx context.Context) (Transport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = false
	t.pending.Reset()
	return t, nil
}
