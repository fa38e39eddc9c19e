package modem_test

import (
	"errors"
	"testing"

	"i4.energy/across/simmodem/at"
	"i4.energy/across/simmodem/modem"
)

func TestListSMS(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		m := newTestModem(t, false, func(b *MockSequenceBuilder) {
			b.Exchange("AT+CMGF=1\r\nOK\r\nAT+CMGL=\"ALL\"\r\n"+
				"+CMGL: 1,\"REC READ\",\"+491234567890\",,\"12/08/14,14:01:06+32\"\r\nTest\r\n\r\nOK\r\n",
				at.CmdSetTextMode, at.CmdListSMS)
		})

		list, err := m.ListSMS()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := modem.SMS{Index: 1, Status: "REC READ", Sender: "+491234567890", Date: "12/08/14", Time: "14:01:06", Text: "Test"}
		if len(list) != 1 || list[0] != want {
			t.Errorf("got %+v, want [%+v]", list, want)
		}
	})

	t.Run("Probes text mode once", func(t *testing.T) {
		m := newTestModem(t, true, func(b *MockSequenceBuilder) {
			b.Exchange("AT+CMGF=?\r\n+CMGF: (0-1)\r\n\r\nOK\r\n", "AT+CMGF=?").
				Exchange("AT+CMGF=1\r\nOK\r\nAT+CMGL=\"ALL\"\r\nOK\r\n", at.CmdSetTextMode, at.CmdListSMS)
		})

		list, err := m.ListSMS()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(list) != 0 {
			t.Errorf("expected empty list, got %+v", list)
		}
	})

	t.Run("CMS error", func(t *testing.T) {
		m := newTestModem(t, false, func(b *MockSequenceBuilder) {
			b.Exchange("AT+CMGF=1\r\nOK\r\nAT+CMGL=\"ALL\"\r\n+CMS ERROR: 310\r\n", at.CmdSetTextMode, at.CmdListSMS)
		})

		_, err := m.ListSMS()
		if !errors.Is(err, modem.ErrCommandFailed) {
			t.Errorf("expected ErrCommandFailed, got: %v", err)
		}
	})
}

func TestReadSMS(t *testing.T) {
	t.Run("Stored message", func(t *testing.T) {
		m := newTestModem(t, false, func(b *MockSequenceBuilder) {
			b.Exchange("AT+CMGF=1\r\nOK\r\nAT+CMGR=2\r\n"+
				"+CMGR: \"REC UNREAD\",\"+4915112345678\",,\"24/10/19,09:30:00+08\"\r\nPing\r\n\r\nOK\r\n",
				at.CmdSetTextMode, "AT+CMGR=2")
		})

		sms, err := m.ReadSMS(2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sms.Index != 2 || sms.Sender != "+4915112345678" || sms.Text != "Ping" || sms.Time != "09:30:00" {
			t.Errorf("unexpected message %+v", sms)
		}
	})

	t.Run("Empty slot", func(t *testing.T) {
		m := newTestModem(t, false, func(b *MockSequenceBuilder) {
			b.Exchange("AT+CMGF=1\r\nOK\r\nAT+CMGR=5\r\nOK\r\n", at.CmdSetTextMode, "AT+CMGR=5")
		})

		_, err := m.ReadSMS(5)
		if !errors.Is(err, modem.ErrDecode) {
			t.Errorf("expected ErrDecode, got: %v", err)
		}
	})

	t.Run("Negative slot", func(t *testing.T) {
		m := newTestModem(t, false, nil)

		if _, err := m.ReadSMS(-1); !errors.Is(err, modem.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got: %v", err)
		}
	})
}

func TestSendSMS(t *testing.T) {
	// The command, the body and Ctrl-Z are written back to back and the
	// modem's answer to all of them is read at once.
	t.Run("Success", func(t *testing.T) {
		m := newTestModem(t, false, func(b *MockSequenceBuilder) {
			b.Exchange("AT+CMGF=1\r\nOK\r\nAT+CMGS=\"+491234567890\"\r\n> Hello World\r\n+CMGS: 12\r\n\r\nOK\r\n",
				at.CmdSetTextMode, `AT+CMGS="+491234567890"`, "Hello World", at.CtrlZ)
		})

		line, err := m.SendSMS("+491234567890", "Hello World")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if line != "> Hello World" {
			t.Errorf("expected prompt line, got %q", line)
		}
	})

	t.Run("Missing prompt", func(t *testing.T) {
		m := newTestModem(t, false, func(b *MockSequenceBuilder) {
			b.Exchange("AT+CMGF=1\r\nOK\r\nAT+CMGS=\"+491234567890\"\r\nOK\r\n",
				at.CmdSetTextMode, `AT+CMGS="+491234567890"`, "Hi", at.CtrlZ)
		})

		_, err := m.SendSMS("+491234567890", "Hi")
		if !errors.Is(err, modem.ErrDecode) {
			t.Errorf("expected ErrDecode, got: %v", err)
		}
	})

	t.Run("Modem error", func(t *testing.T) {
		m := newTestModem(t, false, func(b *MockSequenceBuilder) {
			b.Exchange("AT+CMGF=1\r\nOK\r\nAT+CMGS=\"+491234567890\"\r\n> Hi\r\n+CMS ERROR: 500\r\n",
				at.CmdSetTextMode, `AT+CMGS="+491234567890"`, "Hi", at.CtrlZ)
		})

		_, err := m.SendSMS("+491234567890", "Hi")
		var cmdErr *modem.CommandError
		if !errors.As(err, &cmdErr) {
			t.Fatalf("expected *CommandError, got: %v", err)
		}
		if cmdErr.Lines[len(cmdErr.Lines)-1] != "+CMS ERROR: 500" {
			t.Errorf("unexpected lines %q", cmdErr.Lines)
		}
	})

	t.Run("Invalid recipient", func(t *testing.T) {
		m := newTestModem(t, false, nil)

		for _, recipient := range []string{"", `+49"1`, "+49\r1"} {
			if _, err := m.SendSMS(recipient, "Hi"); !errors.Is(err, modem.ErrInvalidArgument) {
				t.Errorf("%q: expected ErrInvalidArgument, got: %v", recipient, err)
			}
		}
	})

	t.Run("Invalid message", func(t *testing.T) {
		m := newTestModem(t, false, nil)

		for _, message := range []string{"", "hi\x1aAT+CMGD=1,4", "hi\x1b"} {
			if _, err := m.SendSMS("+491234567890", message); !errors.Is(err, modem.ErrInvalidArgument) {
				t.Errorf("%q: expected ErrInvalidArgument, got: %v", message, err)
			}
		}
	})

	t.Run("Unencodable message writes nothing", func(t *testing.T) {
		for _, probe := range []bool{false, true} {
			m := newTestModem(t, probe, nil)

			_, err := m.SendSMS("+491234567890", "price 5€")
			if !errors.Is(err, modem.ErrInvalidArgument) {
				t.Errorf("probe %v: expected ErrInvalidArgument, got: %v", probe, err)
			}
			if m.State() != modem.Ready {
				t.Errorf("probe %v: expected Ready, got %v", probe, m.State())
			}
		}
	})
}

func TestDeleteSMS(t *testing.T) {
	m := newTestModem(t, false, func(b *MockSequenceBuilder) {
		b.Exchange("AT+CMGF=1\r\nOK\r\nAT+CMGD=3\r\nOK\r\n", at.CmdSetTextMode, "AT+CMGD=3").
			Exchange("AT+CMGF=1\r\nOK\r\nAT+CMGD=1,4\r\nOK\r\n", at.CmdSetTextMode, at.CmdDeleteAll)
	})

	if err := m.DeleteSMS(3); err != nil {
		t.Errorf("unexpected error from DeleteSMS(): %v", err)
	}
	if err := m.DeleteAllSMS(); err != nil {
		t.Errorf("unexpected error from DeleteAllSMS(): %v", err)
	}
	if err := m.DeleteSMS(-2); !errors.Is(err, modem.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got: %v", err)
	}
}
