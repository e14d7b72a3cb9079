package outbox

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/ghalamif/telegraph/internal/domain"
	"github.com/ghalamif/telegraph/internal/ports"
)

var (
	requestsBucket = []byte("requests")
	metaBucket     = []byte("meta")
	committedKey   = []byte("committed")
)

// Bolt keeps the outbox in a BoltDB file. Ids come from the bucket sequence.
type Bolt struct {
	db *bbolt.DB
}

func OpenBolt(path string) (*Bolt, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt outbox: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{requestsBucket, metaBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Bolt{db: db}, nil
}

func binaryID(id ports.OutboxEntryID) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(id))
	return b
}

func (o *Bolt) Append(r *domain.Request) (id ports.OutboxEntryID, err error) {
	b, err := json.Marshal(r)
	if err != nil {
		return 0, err
	}
	err = o.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(requestsBucket)
		seq, err := bucket.NextSequence()
		if err != nil {
			return err
		}
		id = ports.OutboxEntryID(seq)
		return bucket.Put(binaryID(id), b)
	})
	return id, err
}

// Iterate reads the matching records in one transaction and calls fn
// outside of it, so fn may commit.
func (o *Bolt) Iterate(from ports.OutboxEntryID, fn func(id ports.OutboxEntryID, r *domain.Request) error) error {
	type record struct {
		id  ports.OutboxEntryID
		req domain.Request
	}
	var records []record
	err := o.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(requestsBucket).Cursor()
		for k, v := c.Seek(binaryID(from)); k != nil; k, v = c.Next() {
			rec := record{id: ports.OutboxEntryID(binary.BigEndian.Uint64(k))}
			if err := json.Unmarshal(v, &rec.req); err != nil {
				return fmt.Errorf("outbox entry %d: %w", rec.id, err)
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return err
	}
	for i := range records {
		if err := fn(records[i].id, &records[i].req); err != nil {
			return err
		}
	}
	return nil
}

func (o *Bolt) committed(tx *bbolt.Tx) ports.OutboxEntryID {
	v := tx.Bucket(metaBucket).Get(committedKey)
	if len(v) != 8 {
		return 0
	}
	return ports.OutboxEntryID(binary.BigEndian.Uint64(v))
}

func (o *Bolt) Commit(upto ports.OutboxEntryID) error {
	return o.db.Update(func(tx *bbolt.Tx) error {
		if upto <= o.committed(tx) {
			return nil
		}
		return tx.Bucket(metaBucket).Put(committedKey, binaryID(upto))
	})
}

// TruncateCommitted deletes committed records. The file itself does not shrink.
func (o *Bolt) TruncateCommitted() error {
	return o.db.Update(func(tx *bbolt.Tx) error {
		committed := o.committed(tx)
		bucket := tx.Bucket(requestsBucket)
		var keys [][]byte
		c := bucket.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			if ports.OutboxEntryID(binary.BigEndian.Uint64(k)) > committed {
				break
			}
			keys = append(keys, append([]byte(nil), k...))
		}
		for _, k := range keys {
			if err := bucket.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

func (o *Bolt) Stats() ports.OutboxStats {
	var st ports.OutboxStats
	_ = o.db.View(func(tx *bbolt.Tx) error {
		st.OldestUncommitted = o.committed(tx) + 1
		st.LatestAppended = ports.OutboxEntryID(tx.Bucket(requestsBucket).Sequence())
		st.SizeBytes = tx.Size()
		return nil
	})
	return st
}

func (o *Bolt) Close() error { return o.db.Close() }

var _ ports.Outbox = (*Bolt)(nil)
