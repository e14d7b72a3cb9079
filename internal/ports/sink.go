package ports

import "github.com/ghalamif/telegraph/internal/domain"

// Sink receives the messages a receiver decoded.
type Sink interface {
	WriteBatch(messages []*domain.Message) error
	Name() string
}
