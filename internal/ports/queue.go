package ports

import "github.com/ghalamif/telegraph/internal/domain"

type QueuedRequest struct {
	ID      OutboxEntryID
	Request *domain.Request
}

type RequestQueue interface {
	Enqueue(id OutboxEntryID, r *domain.Request) bool
	DequeueBatch(max int) []QueuedRequest
	Len() int
}
