package modem

import (
	"fmt"
	"strings"

	"i4.energy/across/simmodem/at"
)

// Dial starts a voice call to number and returns the line the modem
// answered with after the echo.
func (m *Modem) Dial(number string) (string, error) {
	if number == "" || strings.ContainsAny(number, ";\r\n") {
		return "", fmt.Errorf("%w: number %q", ErrInvalidArgument, number)
	}
	return m.payload(Cmd(fmt.Sprintf(at.CmdDial, number)), payloadLine, "dial result")
}

// Answer picks up an incoming call.
func (m *Modem) Answer() (string, error) {
	return m.payload(Cmd(at.CmdAnswer), payloadLine, "answer result")
}

// Hangup ends the current call.
func (m *Modem) Hangup() (string, error) {
	return m.payload(Cmd(at.CmdHangup), payloadLine, "hangup result")
}
