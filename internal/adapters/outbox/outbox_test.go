package outbox

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ghalamif/telegraph/internal/domain"
	"github.com/ghalamif/telegraph/internal/ports"
)

type closingOutbox interface {
	ports.Outbox
	Close() error
}

func request(content string, emitter int) *domain.Request {
	return &domain.Request{Message: domain.NewMessage(content, "op", "desk"), Emitter: emitter}
}

func collect(t *testing.T, o ports.Outbox, from ports.OutboxEntryID) []string {
	t.Helper()
	var got []string
	if err := o.Iterate(from, func(id ports.OutboxEntryID, r *domain.Request) error {
		got = append(got, r.Message.Content)
		return nil
	}); err != nil {
		t.Fatalf("iterate: %v", err)
	}
	return got
}

func exerciseOutbox(t *testing.T, open func() closingOutbox) {
	o := open()

	id1, err := o.Append(request("SOS", 0))
	if err != nil || id1 == 0 {
		t.Fatalf("append 1: %v id=%d", err, id1)
	}
	id2, err := o.Append(request("HELLO", 1))
	if err != nil || id2 != id1+1 {
		t.Fatalf("append 2: %v id=%d", err, id2)
	}
	id3, err := o.Append(request("STOP", 0))
	if err != nil {
		t.Fatalf("append 3: %v", err)
	}

	if got := collect(t, o, id2); len(got) != 2 || got[0] != "HELLO" || got[1] != "STOP" {
		t.Fatalf("unexpected iteration from %d: %v", id2, got)
	}

	var emitter int
	_ = o.Iterate(id2, func(id ports.OutboxEntryID, r *domain.Request) error {
		if id == id2 {
			emitter = r.Emitter
		}
		return nil
	})
	if emitter != 1 {
		t.Fatalf("expected emitter index to survive, got %d", emitter)
	}

	if err := o.Commit(id2); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := o.Commit(id1); err != nil {
		t.Fatalf("commit backwards: %v", err)
	}
	if err := o.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	o = open()
	defer o.Close()

	stats := o.Stats()
	if stats.LatestAppended != id3 {
		t.Fatalf("expected latest appended %d, got %d", id3, stats.LatestAppended)
	}
	if stats.OldestUncommitted != id2+1 {
		t.Fatalf("expected oldest uncommitted %d, got %d", id2+1, stats.OldestUncommitted)
	}

	if err := o.TruncateCommitted(); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	if got := collect(t, o, 0); len(got) != 1 || got[0] != "STOP" {
		t.Fatalf("expected only the uncommitted record after truncate, got %v", got)
	}

	id4, err := o.Append(request("AGAIN", 0))
	if err != nil || id4 != id3+1 {
		t.Fatalf("append after truncate: %v id=%d", err, id4)
	}
	if got := collect(t, o, stats.OldestUncommitted); len(got) != 2 {
		t.Fatalf("expected 2 pending records, got %v", got)
	}
}

func TestFileOutbox(t *testing.T) {
	dir := t.TempDir()
	exerciseOutbox(t, func() closingOutbox {
		o, err := OpenFile(dir)
		if err != nil {
			t.Fatalf("open file outbox: %v", err)
		}
		return o
	})
}

func TestBoltOutbox(t *testing.T) {
	path := filepath.Join(t.TempDir(), "outbox.db")
	exerciseOutbox(t, func() closingOutbox {
		o, err := OpenBolt(path)
		if err != nil {
			t.Fatalf("open bolt outbox: %v", err)
		}
		return o
	})
}

func TestFileOutboxCutsTornTail(t *testing.T) {
	dir := t.TempDir()
	o, err := OpenFile(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	id, err := o.Append(request("SOS", 0))
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	size := o.Stats().SizeBytes
	if err := o.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	f, err := os.OpenFile(filepath.Join(dir, logName), os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	if _, err := f.Write([]byte{0xFF, 0xAA, 0x01}); err != nil {
		t.Fatalf("write garbage: %v", err)
	}
	f.Close()

	o, err = OpenFile(dir)
	if err != nil {
		t.Fatalf("reopen after garbage: %v", err)
	}
	defer o.Close()

	stats := o.Stats()
	if stats.SizeBytes != size || stats.LatestAppended != id {
		t.Fatalf("expected torn tail removed, got %+v (size %d)", stats, size)
	}
	if got := collect(t, o, 0); len(got) != 1 {
		t.Fatalf("expected 1 record, got %v", got)
	}
}

func TestFileOutboxRejectsCorruptBody(t *testing.T) {
	dir := t.TempDir()
	o, err := OpenFile(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := o.Append(request("SOS", 0)); err != nil {
		t.Fatalf("append: %v", err)
	}
	o.Close()

	path := filepath.Join(dir, logName)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	data[len(data)-2] ^= 0xFF
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	o, err = OpenFile(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer o.Close()
	if st := o.Stats(); st.SizeBytes != 0 || st.LatestAppended != 0 {
		t.Fatalf("expected corrupt record dropped, got %+v", st)
	}
}
