package archive_test

import (
	"errors"
	"path/filepath"
	"testing"

	"i4.energy/across/simmodem/archive"
	"i4.energy/across/simmodem/modem"
)

func openStore(t *testing.T) *archive.Store {
	t.Helper()
	store, err := archive.Open(filepath.Join(t.TempDir(), "data", "sms.db"))
	if err != nil {
		t.Fatalf("unexpected error from Open(): %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestOpen(t *testing.T) {
	if _, err := archive.Open(""); !errors.Is(err, archive.ErrNoPath) {
		t.Errorf("expected ErrNoPath, got: %v", err)
	}
}

func TestSave(t *testing.T) {
	first := modem.SMS{Index: 1, Status: "REC READ", Sender: "+491234567890", Date: "12/08/14", Time: "14:01:06", Text: "Test"}
	second := modem.SMS{Index: 2, Status: "REC UNREAD", Sender: "+4930123456", Date: "24/10/19", Time: "09:30:00", Text: "Ping"}

	t.Run("Skips messages already archived", func(t *testing.T) {
		store := openStore(t)

		n, err := store.Save([]modem.SMS{first})
		if err != nil || n != 1 {
			t.Fatalf("expected 1 new message, got %d (%v)", n, err)
		}

		// The same message in another slot is still the same message.
		moved := first
		moved.Index = 7
		n, err = store.Save([]modem.SMS{moved, second})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != 1 {
			t.Errorf("expected 1 new message, got %d", n)
		}

		msgs, err := store.List(0)
		if err != nil {
			t.Fatalf("unexpected error from List(): %v", err)
		}
		if len(msgs) != 2 {
			t.Fatalf("expected 2 archived messages, got %d", len(msgs))
		}
		if msgs[0].Text != "Ping" || msgs[1].Text != "Test" {
			t.Errorf("expected newest first, got %+v", msgs)
		}
		if msgs[1].Slot != 1 {
			t.Errorf("expected first slot kept, got %d", msgs[1].Slot)
		}
	})

	t.Run("Nothing to save", func(t *testing.T) {
		store := openStore(t)

		if n, err := store.Save(nil); err != nil || n != 0 {
			t.Errorf("expected (0, nil), got (%d, %v)", n, err)
		}
	})
}

func TestList(t *testing.T) {
	store := openStore(t)
	_, err := store.Save([]modem.SMS{
		{Index: 0, Sender: "+49", Date: "24/10/19", Time: "10:00:00", Text: "a"},
		{Index: 1, Sender: "+49", Date: "24/10/19", Time: "10:00:01", Text: "b"},
		{Index: 2, Sender: "+49", Date: "24/10/19", Time: "10:00:02", Text: "c"},
	})
	if err != nil {
		t.Fatalf("unexpected error from Save(): %v", err)
	}

	msgs, err := store.List(2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Text != "c" || msgs[1].Text != "b" {
		t.Errorf("unexpected messages %+v", msgs)
	}
}
