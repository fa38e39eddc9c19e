package modem

import (
	"fmt"
	"strconv"
	"strings"

	"i4.energy/across/simmodem/at"
)

// SMS represents a text message stored on the SIM. Records are decoded
// fresh from every response; the SIM stays the store of record.
type SMS struct {
	Index  int    `json:"index"`
	Status string `json:"status"` // "REC UNREAD", "REC READ", "STO UNSENT", "STO SENT"
	Sender string `json:"sender"`
	Date   string `json:"date"` // yy/MM/dd
	Time   string `json:"time"` // hh:mm:ss, zone offset removed
	Text   string `json:"text"`
}

// smsHeader addresses the parameters of a +CMGL or +CMGR line. A listed
// message starts with its index, a read one does not, so offset is 1 for
// +CMGL and 0 for +CMGR.
type smsHeader struct {
	line   int
	offset int
}

func (h smsHeader) param(i int, more ...at.Step) at.Field {
	path := append([]at.Step{at.After(": "), at.Param(h.offset + i)}, more...)
	return at.Field{Line: h.line, Path: path}
}

func (h smsHeader) decode(resp Response, sms *SMS) error {
	fields := []struct {
		dst   *string
		field at.Field
		what  string
	}{
		{&sms.Status, h.param(0), "SMS status"},
		{&sms.Sender, h.param(1), "SMS sender"},
		{&sms.Date, h.param(3, at.Split(",", 0)), "SMS date"},
		{&sms.Time, h.param(3, at.Split(",", 1), at.UpTo("+-")), "SMS time"},
	}
	for _, f := range fields {
		v, err := extract(resp, f.field, f.what)
		if err != nil {
			return err
		}
		*f.dst = v
	}
	return nil
}

// smsBody joins the lines after a header up to the next header or the
// terminal token. Trailing blank lines are dropped.
func smsBody(resp Response, header int, prefix string) string {
	end := len(resp) - 1
	for i := header + 1; i < len(resp)-1; i++ {
		if strings.HasPrefix(resp[i], prefix) {
			end = i
			break
		}
	}
	body := resp[header+1 : max(end, header+1)]
	for len(body) > 0 && body[len(body)-1] == "" {
		body = body[:len(body)-1]
	}
	return strings.Join(body, "\n")
}

func textMode(steps ...string) Command {
	return Cmd(append([]string{at.CmdSetTextMode}, steps...)...).Probing(at.Test(at.CmdSetTextMode))
}

// ListSMS returns every message stored on the SIM (AT+CMGL="ALL" in text
// mode).
func (m *Modem) ListSMS() ([]SMS, error) {
	resp, err := m.Execute(textMode(at.CmdListSMS))
	if err != nil {
		return nil, err
	}
	return decodeSMSList(resp)
}

func decodeSMSList(resp Response) ([]SMS, error) {
	var list []SMS
	for i, line := range resp {
		if !strings.HasPrefix(line, at.ListedSMS) {
			continue
		}
		h := smsHeader{line: i, offset: 1}
		idx, err := extract(resp, at.Field{Line: i, Path: []at.Step{at.After(": "), at.Param(0)}}, "SMS index")
		if err != nil {
			return nil, err
		}
		sms := SMS{}
		if sms.Index, err = strconv.Atoi(strings.TrimSpace(idx)); err != nil {
			return nil, decodeError(resp, err, "SMS index %q", idx)
		}
		if err := h.decode(resp, &sms); err != nil {
			return nil, err
		}
		sms.Text = smsBody(resp, i, at.ListedSMS)
		list = append(list, sms)
	}
	return list, nil
}

// ReadSMS returns the message stored in slot (AT+CMGR=<slot>). An empty
// slot is reported as a *DecodeError.
func (m *Modem) ReadSMS(slot int) (SMS, error) {
	if slot < 0 {
		return SMS{}, fmt.Errorf("%w: slot %d", ErrInvalidArgument, slot)
	}
	cmd := textMode(fmt.Sprintf(at.CmdReadSMS, slot)).Probing(at.Test(at.CmdReadSMS))
	resp, err := m.Execute(cmd)
	if err != nil {
		return SMS{}, err
	}
	return decodeSMS(resp, slot)
}

func decodeSMS(resp Response, slot int) (SMS, error) {
	i := at.Find(resp, at.ReadSMS)
	if i < 0 {
		return SMS{}, decodeError(resp, nil, "slot %d is empty", slot)
	}
	sms := SMS{Index: slot}
	if err := (smsHeader{line: i, offset: 0}).decode(resp, &sms); err != nil {
		return SMS{}, err
	}
	sms.Text = smsBody(resp, i, at.ReadSMS)
	return sms, nil
}

// SendSMS sends a text message to recipient and returns the modem's echo
// of the prompt line, e.g. "> Hello".
//
// The message is sent in text mode (not PDU mode). The recipient should be
// in international format (e.g., "+491234567890"). An empty message or one
// containing Ctrl-Z or ESC is rejected, those bytes end the text prompt.
func (m *Modem) SendSMS(recipient, message string) (string, error) {
	if recipient == "" || strings.ContainsAny(recipient, "\"\r\n") {
		return "", fmt.Errorf("%w: recipient %q", ErrInvalidArgument, recipient)
	}
	if message == "" || strings.ContainsAny(message, at.CtrlZ+at.Esc) {
		return "", fmt.Errorf("%w: message %q", ErrInvalidArgument, message)
	}
	cmd := textMode(fmt.Sprintf(at.CmdSendSMS, recipient), message, at.CtrlZ)
	resp, err := m.Execute(cmd)
	if err != nil {
		return "", err
	}
	return extract(resp, at.Field{Prefix: at.Prompt}, "SMS prompt")
}

// DeleteSMS removes the message stored in slot.
func (m *Modem) DeleteSMS(slot int) error {
	if slot < 0 {
		return fmt.Errorf("%w: slot %d", ErrInvalidArgument, slot)
	}
	return m.expectOK(textMode(fmt.Sprintf(at.CmdDeleteSMS, slot)))
}

// DeleteAllSMS removes every message from the SIM (AT+CMGD=1,4).
func (m *Modem) DeleteAllSMS() error {
	return m.expectOK(textMode(at.CmdDeleteAll))
}
