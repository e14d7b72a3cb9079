package ports

import "github.com/ghalamif/telegraph/internal/domain"

// Source produces messages to transmit (operators, generators, replays).
type Source interface {
	Start(out chan<- *domain.Message) error
	Stop() error
}
