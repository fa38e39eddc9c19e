package modem

import (
	"fmt"
	"strconv"

	"i4.energy/across/simmodem/at"
)

// NetworkMode is the radio access preference set with AT+CNMP.
type NetworkMode int

const (
	Automatic NetworkMode = 2
	GsmOnly   NetworkMode = 13
	LteOnly   NetworkMode = 38
	AnyButLte NetworkMode = 48
)

func (n NetworkMode) String() string {
	switch n {
	case Automatic:
		return "automatic"
	case GsmOnly:
		return "gsm-only"
	case LteOnly:
		return "lte-only"
	case AnyButLte:
		return "any-but-lte"
	default:
		return fmt.Sprintf("NetworkMode(%d)", int(n))
	}
}

// ParseNetworkMode maps the integer reported by the modem to a NetworkMode.
func ParseNetworkMode(v int) (NetworkMode, error) {
	switch n := NetworkMode(v); n {
	case Automatic, GsmOnly, LteOnly, AnyButLte:
		return n, nil
	default:
		return 0, &DecodeError{Reason: fmt.Sprintf("unknown network mode %d", v)}
	}
}

// SignalQuality is a coarse rating of the RSSI index.
type SignalQuality int

const (
	SignalLow SignalQuality = iota
	SignalFair
	SignalGood
	SignalExcellent
)

func (s SignalQuality) String() string {
	switch s {
	case SignalLow:
		return "LOW"
	case SignalFair:
		return "FAIR"
	case SignalGood:
		return "GOOD"
	case SignalExcellent:
		return "EXCELLENT"
	default:
		return fmt.Sprintf("SignalQuality(%d)", int(s))
	}
}

// SignalQualityOf rates a raw RSSI index. 99 (unknown) is not special and
// rates Excellent like any other index from 20 up.
func SignalQualityOf(rssi int) SignalQuality {
	switch {
	case rssi < 7:
		return SignalLow
	case rssi < 15:
		return SignalFair
	case rssi < 20:
		return SignalGood
	default:
		return SignalExcellent
	}
}

// RSSIToDBm converts a raw RSSI index to dBm.
func RSSIToDBm(rssi int) int {
	return -(111 - 2*rssi)
}

// RegistrationStatus is the <stat> field of +CREG.
type RegistrationStatus int

const (
	NotRegistered RegistrationStatus = iota
	RegisteredHome
	Searching
	RegistrationDenied
	RegistrationUnknown
	RegisteredRoaming
)

func (r RegistrationStatus) String() string {
	switch r {
	case NotRegistered:
		return "not registered"
	case RegisteredHome:
		return "registered, home"
	case Searching:
		return "searching"
	case RegistrationDenied:
		return "denied"
	case RegistrationUnknown:
		return "unknown"
	case RegisteredRoaming:
		return "registered, roaming"
	default:
		return fmt.Sprintf("RegistrationStatus(%d)", int(r))
	}
}

var (
	registrationField = at.Field{Line: 1, Path: []at.Step{at.Split(": ", 1), at.Split(",", 1)}}
	operatorNameField = at.Field{Line: 1, Path: []at.Step{at.Split(",", 2), at.Unquote}}
	operatorField     = at.Field{Line: 1, Path: []at.Step{at.Split(",", 2), at.Unquote, at.Split(" ", 0)}}
	rssiField         = at.Field{Line: 1, Path: []at.Step{at.Split(": ", 1), at.Split(",", 0)}}
	numberField       = at.Field{Line: 1, Path: []at.Step{at.Split(",", 1), at.Unquote}}
)

// RegistrationStatus returns the network registration state (AT+CREG?).
func (m *Modem) RegistrationStatus() (RegistrationStatus, error) {
	resp, err := m.Execute(probed(at.CmdRegistration))
	if err != nil {
		return 0, err
	}
	return decodeRegistration(resp)
}

func decodeRegistration(resp Response) (RegistrationStatus, error) {
	v, err := extract(resp, registrationField, "registration status")
	if err != nil {
		return 0, err
	}
	stat, err := strconv.Atoi(v)
	if err != nil || stat < 0 || stat > int(RegisteredRoaming) {
		return 0, decodeError(resp, err, "registration status %q", v)
	}
	return RegistrationStatus(stat), nil
}

// NetworkMode returns the preferred radio access mode (AT+CNMP?).
func (m *Modem) NetworkMode() (NetworkMode, error) {
	resp, err := m.Execute(probed(at.CmdGetNetMode))
	if err != nil {
		return 0, err
	}
	return decodeNetworkMode(resp)
}

func decodeNetworkMode(resp Response) (NetworkMode, error) {
	v, err := extract(resp, payloadValue, "network mode")
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, decodeError(resp, err, "network mode %q", v)
	}
	mode, err := ParseNetworkMode(n)
	if err != nil {
		return 0, decodeError(resp, nil, "unknown network mode %d", n)
	}
	return mode, nil
}

// SetNetworkMode sets the preferred radio access mode (AT+CNMP=<mode>).
func (m *Modem) SetNetworkMode(mode NetworkMode) error {
	if _, err := ParseNetworkMode(int(mode)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, mode)
	}
	return m.expectOK(probed(fmt.Sprintf(at.CmdSetNetMode, int(mode))))
}

// NetworkName returns the long operator name, e.g. "Vodafone D2".
func (m *Modem) NetworkName() (string, error) {
	return m.payload(probed(at.CmdOperator), operatorNameField, "network name")
}

// NetworkOperator returns the first word of the operator name, e.g.
// "Vodafone".
func (m *Modem) NetworkOperator() (string, error) {
	return m.payload(probed(at.CmdOperator), operatorField, "network operator")
}

// SignalQuality returns the raw "<rssi>,<ber>" pair reported by AT+CSQ.
func (m *Modem) SignalQuality() (string, error) {
	return m.payload(probed(at.CmdSignal), payloadValue, "signal quality")
}

// SignalQualityDB returns the received signal strength in dBm.
func (m *Modem) SignalQualityDB() (int, error) {
	rssi, err := m.rssi()
	if err != nil {
		return 0, err
	}
	return RSSIToDBm(rssi), nil
}

// SignalQualityRange returns the signal strength rating.
func (m *Modem) SignalQualityRange() (SignalQuality, error) {
	rssi, err := m.rssi()
	if err != nil {
		return 0, err
	}
	return SignalQualityOf(rssi), nil
}

func (m *Modem) rssi() (int, error) {
	resp, err := m.Execute(probed(at.CmdSignal))
	if err != nil {
		return 0, err
	}
	return decodeRSSI(resp)
}

func decodeRSSI(resp Response) (int, error) {
	v, err := extract(resp, rssiField, "rssi")
	if err != nil {
		return 0, err
	}
	rssi, err := strconv.Atoi(v)
	if err != nil {
		return 0, decodeError(resp, err, "rssi %q", v)
	}
	return rssi, nil
}

// PhoneNumber returns the subscriber number stored on the SIM (AT+CNUM).
// A SIM without a stored number answers with a bare OK, which is reported
// as a *DecodeError rather than an empty number.
func (m *Modem) PhoneNumber() (string, error) {
	resp, err := m.Execute(probed(at.CmdNumber))
	if err != nil {
		return "", err
	}
	return decodePhoneNumber(resp)
}

func decodePhoneNumber(resp Response) (string, error) {
	if len(resp) > 1 && resp[1] == at.OK {
		return "", decodeError(resp, nil, "no phone number stored")
	}
	return extract(resp, numberField, "phone number")
}

// SIMStatus returns the SIM state reported by AT+CPIN?, e.g. "READY" or
// "SIM PIN". The terminal token is not checked: a SIM error still carries
// its state on the payload line.
func (m *Modem) SIMStatus() (string, error) {
	cmd := probed(at.CmdSimStatus).Accepting(func(Response) bool { return true })
	return m.payload(cmd, payloadValue, "SIM status")
}
