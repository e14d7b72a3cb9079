// Package broker forwards decoded messages to message brokers.
package broker

import (
	"encoding/json"
	"time"

	"github.com/ghalamif/telegraph/internal/domain"
)

// DefaultTimeout bounds a single publish.
const DefaultTimeout = 5 * time.Second

// envelope is the payload published for every message.
type envelope struct {
	ID        string    `json:"id"`
	OriginID  string    `json:"origin_id,omitempty"`
	Sender    string    `json:"sender"`
	Recipient string    `json:"recipient"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	Priority  int       `json:"priority"`
}

func encode(m *domain.Message) ([]byte, error) {
	return json.Marshal(envelope{
		ID:        m.ID,
		OriginID:  m.OriginID,
		Sender:    m.Sender,
		Recipient: m.Recipient,
		Content:   m.Content,
		CreatedAt: m.CreatedAt.UTC(),
		Priority:  m.Priority,
	})
}
