package at

import "strings"

const (
	// Terminal Control
	CR     = "\r"
	LF     = "\n"
	CRLF   = "\r\n"
	CtrlZ  = "\x1a"
	Esc    = "\x1b"
	Prompt = "> "

	// Response Codes
	OK         = "OK"
	ERROR      = "ERROR"
	NoCarrier  = "NO CARRIER"
	NoDialtone = "NO DIALTONE"
	Busy       = "BUSY"
	NoAnswer   = "NO ANSWER"
	CmeError   = "+CME ERROR:"
	CmsError   = "+CMS ERROR:"

	// URCs (Unsolicited Result Codes)
	UrcNewMsg         = "+CMTI:"
	UrcMessageReport  = "+CDSI:"
	UrcSignalStrength = "+CSQ:"
	UrcCall           = "RING"
)

// Commands
const (
	CmdReset    = "ATZ"
	CmdEchoOn   = "ATE1"
	CmdEchoOff  = "ATE0"
	CmdAnswer   = "ATA"
	CmdHangup   = "AT+CHUP"
	CmdDial     = "ATD%s;"
	CmdPowerTDD = "AT+PWRCTL=0,1,3"
	CmdEchoSupp = "AT+CECM=%d"

	CmdManufacturer = "AT+CGMI"
	CmdModel        = "AT+CGMM"
	CmdSerialNumber = "AT+CGSN"
	CmdFirmware     = "AT+CGMR"
	CmdGetVolume    = "AT+CLVL?"
	CmdSetVolume    = "AT+CLVL=%d"

	CmdRegistration = "AT+CREG?"
	CmdGetNetMode   = "AT+CNMP?"
	CmdSetNetMode   = "AT+CNMP=%d"
	CmdOperator     = "AT+COPS?"
	CmdSignal       = "AT+CSQ"
	CmdNumber       = "AT+CNUM"
	CmdSimStatus    = "AT+CPIN?"

	CmdGPSStatus = "AT+CGPS?"
	CmdGPSStart  = "AT+CGPS=1,1"
	CmdGPSStop   = "AT+CGPS=0"
	CmdGPSInfo   = "AT+CGPSINFO"

	CmdSetTextMode = "AT+CMGF=1"
	CmdListSMS     = `AT+CMGL="ALL"`
	CmdReadSMS     = "AT+CMGR=%d"
	CmdSendSMS     = `AT+CMGS="%s"`
	CmdDeleteSMS   = "AT+CMGD=%d"
	CmdDeleteAll   = "AT+CMGD=1,4"
)

// Response prefixes
const (
	GPSStopped = "+CGPS: 0"
	GPSInfo    = "+CGPSINFO:"
	ListedSMS  = "+CMGL:"
	ReadSMS    = "+CMGR:"
	SimReady   = "READY"
	SimPin     = "SIM PIN"
)

type ResponseType int

const (
	TypeFinal  ResponseType = iota // OK, ERROR
	TypeURC                        // Asynchronous notifications
	TypeData                       // Intermediate command output (+CSQ: ...)
	TypePrompt                     // SMS input prompt
)

// Test returns the test form of an extended command, the one a modem answers
// with the supported parameter ranges: AT+CLVL? and AT+CLVL=5 both become
// AT+CLVL=?.
func Test(cmd string) string {
	if i := strings.IndexAny(cmd, "=?"); i >= 0 {
		cmd = cmd[:i]
	}
	return cmd + "=?"
}
