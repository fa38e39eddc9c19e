package modem

import (
	"fmt"
	"strconv"

	"i4.energy/across/simmodem/at"
)

var (
	// payloadLine is the line after the command echo.
	payloadLine = at.Field{Line: 1}
	// payloadValue is the value of a "+KEY: value" payload line.
	payloadValue = at.Field{Line: 1, Path: []at.Step{at.Split(": ", 1)}}
)

func probed(text string) Command {
	return Cmd(text).Probing(at.Test(text))
}

// Manufacturer returns the manufacturer identification (AT+CGMI).
func (m *Modem) Manufacturer() (string, error) {
	return m.payload(probed(at.CmdManufacturer), payloadLine, "manufacturer")
}

// Model returns the model identification (AT+CGMM).
func (m *Modem) Model() (string, error) {
	return m.payload(probed(at.CmdModel), payloadLine, "model")
}

// SerialNumber returns the IMEI (AT+CGSN).
func (m *Modem) SerialNumber() (string, error) {
	return m.payload(probed(at.CmdSerialNumber), payloadLine, "serial number")
}

// FirmwareVersion returns the revision reported by AT+CGMR without its
// "+CGMR: " key.
func (m *Modem) FirmwareVersion() (string, error) {
	return m.payload(probed(at.CmdFirmware), payloadValue, "firmware version")
}

// Volume returns the loudspeaker volume level, 0 to 5.
func (m *Modem) Volume() (int, error) {
	resp, err := m.Execute(probed(at.CmdGetVolume))
	if err != nil {
		return 0, err
	}
	return decodeVolume(resp)
}

func decodeVolume(resp Response) (int, error) {
	v, err := extract(resp, payloadValue, "volume")
	if err != nil {
		return 0, err
	}
	level, err := strconv.Atoi(v)
	if err != nil {
		return 0, decodeError(resp, err, "volume %q", v)
	}
	return level, nil
}

// SetVolume sets the loudspeaker volume level. Levels outside 0 to 5 are
// rejected without talking to the modem.
func (m *Modem) SetVolume(level int) error {
	if level < 0 || level > 5 {
		return fmt.Errorf("%w: volume %d not in 0..5", ErrInvalidArgument, level)
	}
	return m.expectOK(probed(fmt.Sprintf(at.CmdSetVolume, level)))
}

// ImproveTDD applies the SIMCom power control setting that reduces TDD
// noise on the audio path (AT+PWRCTL=0,1,3).
func (m *Modem) ImproveTDD() error {
	return m.expectOK(probed(at.CmdPowerTDD))
}

// EnableEchoSuppression turns on acoustic echo cancellation (AT+CECM=1).
func (m *Modem) EnableEchoSuppression() error {
	return m.expectOK(probed(fmt.Sprintf(at.CmdEchoSupp, 1)))
}

// DisableEchoSuppression turns off acoustic echo cancellation (AT+CECM=0).
func (m *Modem) DisableEchoSuppression() error {
	return m.expectOK(probed(fmt.Sprintf(at.CmdEchoSupp, 0)))
}
