package modem_test

import (
	"context"
	"slices"
	"testing"
	"time"

	gomock "go.uber.org/mock/gomock"
	"i4.energy/across/simmodem/modem"
)

type MockSequenceBuilder struct {
	transport *modem.MockTransport
	calls     []any
}

func NewMockSequence(transport *modem.MockTransport) *MockSequenceBuilder {
	return &MockSequenceBuilder{
		transport: transport,
		calls:     []any{},
	}
}

// Write expects each command, CR terminated, in order.
func (b *MockSequenceBuilder) Write(cmds ...string) *MockSequenceBuilder {
	for _, cmd := range cmds {
		b.calls = append(b.calls,
			b.transport.EXPECT().Write([]byte(cmd+"\r")).Return(len(cmd)+1, nil),
		)
	}
	return b
}

// Respond makes the next drain return resp followed by a read timeout.
func (b *MockSequenceBuilder) Respond(resp string) *MockSequenceBuilder {
	b.calls = append(b.calls,
		b.transport.EXPECT().Read(gomock.Any()).DoAndReturn(func(p []byte) (int, error) {
			return copy(p, resp), nil
		}),
	)
	return b.Silence()
}

// Silence makes the next read time out without data.
func (b *MockSequenceBuilder) Silence() *MockSequenceBuilder {
	b.calls = append(b.calls,
		b.transport.EXPECT().Read(gomock.Any()).Return(0, nil),
	)
	return b
}

// Exchange writes cmds and answers them with resp in one drain.
func (b *MockSequenceBuilder) Exchange(resp string, cmds ...string) *MockSequenceBuilder {
	return b.Write(cmds...).Respond(resp)
}

func (b *MockSequenceBuilder) Handshake() *MockSequenceBuilder {
	return b.Exchange("ATZ\r\nOK\r\nATE1\r\nOK\r\n", "ATZ", "ATE1")
}

func (b *MockSequenceBuilder) Close(err error) *MockSequenceBuilder {
	b.calls = append(b.calls, b.transport.EXPECT().Close().Return(err))
	return b
}

func (b *MockSequenceBuilder) Build() []any {
	return b.calls
}

// newTestModem connects a Modem over a mock transport that first answers
// the handshake and then follows script.
func newTestModem(t *testing.T, probe bool, script func(*MockSequenceBuilder)) *modem.Modem {
	t.Helper()
	ctrl := gomock.NewController(t)

	mockTransport := modem.NewMockTransport(ctrl)
	mockDialer := modem.NewMockDialer(ctrl)

	seq := NewMockSequence(mockTransport).Handshake()
	if script != nil {
		script(seq)
	}
	gomock.InOrder(slices.Concat(
		[]any{
			mockDialer.EXPECT().Dial(gomock.Any()).Return(mockTransport, nil),
		},
		seq.Build(),
	)...)

	config, err := modem.NewConfigBuilder().
		WithDialer(mockDialer).
		WithSettleDelay(time.Millisecond).
		WithProbe(probe).
		Build()
	if err != nil {
		t.Fatalf("unexpected error from Build(): %v", err)
	}

	m, err := modem.New(context.Background(), config)
	if err != nil {
		t.Fatalf("unexpected error from New(): %v", err)
	}
	return m
}
