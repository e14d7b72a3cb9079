package outbox

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/ghalamif/telegraph/internal/domain"
	"github.com/ghalamif/telegraph/internal/ports"
)

const (
	logName    = "outbox.log"
	commitName = "outbox.commit"

	// record: [8 bytes id][4 bytes len][4 bytes crc32][len bytes json]
	headerLen = 16
)

// ErrCorrupt reports a record whose checksum does not match its body.
var ErrCorrupt = errors.New("outbox: corrupt record")

// File is an append-only outbox log with a separate commit marker.
type File struct {
	mu         sync.Mutex
	path       string
	commitPath string
	file       *os.File
	writer     *bufio.Writer
	last       ports.OutboxEntryID
	committed  ports.OutboxEntryID
	sizeBytes  int64
}

// OpenFile opens or creates the outbox in dir. A torn tail left by a crash
// is cut off.
func OpenFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	o := &File{
		path:       filepath.Join(dir, logName),
		commitPath: filepath.Join(dir, commitName),
	}
	if err := o.open(); err != nil {
		return nil, err
	}
	if err := o.recover(); err != nil {
		_ = o.file.Close()
		return nil, err
	}
	if err := o.loadCommitted(); err != nil {
		_ = o.file.Close()
		return nil, err
	}
	if o.last < o.committed {
		o.last = o.committed
	}
	return o, nil
}

func (o *File) open() error {
	f, err := os.OpenFile(o.path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	o.file = f
	o.writer = bufio.NewWriterSize(f, 64<<10)
	return nil
}

func (o *File) recover() error {
	rf, err := os.Open(o.path)
	if err != nil {
		return err
	}
	defer rf.Close()

	var offset int64
	r := bufio.NewReader(rf)
	for {
		id, body, err := readRecord(r)
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, ErrCorrupt) {
			break
		}
		if err != nil {
			return fmt.Errorf("outbox scan: %w", err)
		}
		offset += int64(headerLen + len(body))
		o.last = id
	}

	if err := o.file.Truncate(offset); err != nil {
		return err
	}
	o.sizeBytes = offset
	return nil
}

func readRecord(r io.Reader) (ports.OutboxEntryID, []byte, error) {
	var hdr [headerLen]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return 0, nil, err
	}
	id := ports.OutboxEntryID(binary.BigEndian.Uint64(hdr[0:8]))
	body := make([]byte, binary.BigEndian.Uint32(hdr[8:12]))
	if _, err := io.ReadFull(r, body); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return 0, nil, err
	}
	if crc32.ChecksumIEEE(body) != binary.BigEndian.Uint32(hdr[12:16]) {
		return 0, nil, ErrCorrupt
	}
	return id, body, nil
}

func writeRecord(w io.Writer, id ports.OutboxEntryID, body []byte) error {
	var hdr [headerLen]byte
	binary.BigEndian.PutUint64(hdr[0:8], uint64(id))
	binary.BigEndian.PutUint32(hdr[8:12], uint32(len(body)))
	binary.BigEndian.PutUint32(hdr[12:16], crc32.ChecksumIEEE(body))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	_, err := w.Write(body)
	return err
}

func (o *File) loadCommitted() error {
	data, err := os.ReadFile(o.commitPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	val := strings.TrimSpace(string(data))
	if val == "" {
		return nil
	}
	u, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return fmt.Errorf("outbox commit parse: %w", err)
	}
	o.committed = ports.OutboxEntryID(u)
	return nil
}

// Append writes r to the log and flushes it to the OS.
func (o *File) Append(r *domain.Request) (ports.OutboxEntryID, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return 0, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	id := o.last + 1
	if err := writeRecord(o.writer, id, b); err != nil {
		return 0, err
	}
	if err := o.writer.Flush(); err != nil {
		return 0, err
	}
	o.last = id
	o.sizeBytes += int64(headerLen + len(b))
	return id, nil
}

// Iterate calls fn for every record with id >= from, in order.
func (o *File) Iterate(from ports.OutboxEntryID, fn func(id ports.OutboxEntryID, r *domain.Request) error) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.writer.Flush(); err != nil {
		return err
	}

	f, err := os.Open(o.path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	for {
		id, body, err := readRecord(r)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("outbox iterate: %w", err)
		}
		if id < from {
			continue
		}

		var req domain.Request
		if err := json.Unmarshal(body, &req); err != nil {
			return fmt.Errorf("outbox entry %d: %w", id, err)
		}
		if err := fn(id, &req); err != nil {
			return err
		}
	}
}

// Commit marks every record up to and including upto as handled.
func (o *File) Commit(upto ports.OutboxEntryID) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if upto <= o.committed {
		return nil
	}
	o.committed = upto
	return o.persistCommitLocked()
}

func (o *File) persistCommitLocked() error {
	tmp := o.commitPath + ".tmp"
	if err := os.WriteFile(tmp, []byte(fmt.Sprintf("%d\n", o.committed)), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, o.commitPath)
}

// TruncateCommitted rewrites the log keeping only uncommitted records.
func (o *File) TruncateCommitted() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.writer.Flush(); err != nil {
		return err
	}

	src, err := os.Open(o.path)
	if err != nil {
		return err
	}
	tmpPath := o.path + ".tmp"
	dst, err := os.Create(tmpPath)
	if err != nil {
		src.Close()
		return err
	}

	var kept int64
	w := bufio.NewWriter(dst)
	r := bufio.NewReader(src)
	for {
		id, body, rerr := readRecord(r)
		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil {
			err = fmt.Errorf("outbox truncate: %w", rerr)
			break
		}
		if id <= o.committed {
			continue
		}
		if err = writeRecord(w, id, body); err != nil {
			break
		}
		kept += int64(headerLen + len(body))
	}
	src.Close()
	if err == nil {
		err = w.Flush()
	}
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	if err := o.file.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, o.path); err != nil {
		return err
	}
	o.sizeBytes = kept
	return o.open()
}

func (o *File) Stats() ports.OutboxStats {
	o.mu.Lock()
	defer o.mu.Unlock()
	return ports.OutboxStats{
		OldestUncommitted: o.committed + 1,
		LatestAppended:    o.last,
		SizeBytes:         o.sizeBytes,
	}
}

func (o *File) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return errors.Join(o.writer.Flush(), o.file.Close())
}

var _ ports.Outbox = (*File)(nil)
