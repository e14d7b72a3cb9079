package queue

import (
	"sync"

	"github.com/ghalamif/telegraph/internal/domain"
	"github.com/ghalamif/telegraph/internal/ports"
)

// MemQueue is a bounded in-memory FIFO of transmission requests.
type MemQueue struct {
	mu   sync.Mutex
	data []ports.QueuedRequest
	cap  int
}

func NewMemQueue(capacity int) *MemQueue {
	return &MemQueue{
		data: make([]ports.QueuedRequest, 0, capacity),
		cap:  capacity,
	}
}

func (q *MemQueue) Enqueue(id ports.OutboxEntryID, r *domain.Request) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.data) >= q.cap {
		return false
	}
	q.data = append(q.data, ports.QueuedRequest{ID: id, Request: r})
	return true
}

// DequeueBatch removes up to max requests; max <= 0 takes everything.
func (q *MemQueue) DequeueBatch(max int) []ports.QueuedRequest {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.data) == 0 {
		return nil
	}
	if max <= 0 || max > len(q.data) {
		max = len(q.data)
	}
	out := make([]ports.QueuedRequest, max)
	copy(out, q.data[:max])
	q.data = append(q.data[:0], q.data[max:]...)
	return out
}

func (q *MemQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.data)
}

func (q *MemQueue) Cap() int { return q.cap }

var _ ports.RequestQueue = (*MemQueue)(nil)
