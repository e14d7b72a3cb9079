package ports

import "github.com/ghalamif/telegraph/internal/domain"

type OutboxEntryID uint64

// Outbox durably records requests accepted for transmission until the line
// has attempted them.
type Outbox interface {
	Append(r *domain.Request) (OutboxEntryID, error)
	Iterate(from OutboxEntryID, fn func(id OutboxEntryID, r *domain.Request) error) error
	Commit(upto OutboxEntryID) error
	TruncateCommitted() error
	Stats() OutboxStats
}

type OutboxStats struct {
	OldestUncommitted OutboxEntryID
	LatestAppended    OutboxEntryID
	SizeBytes         int64
}
