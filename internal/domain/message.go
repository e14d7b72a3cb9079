package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultPriority is assigned to messages created without an explicit priority.
const DefaultPriority = 5

// Message is the canonical unit of text handled by the telegraph line.
type Message struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Sender    string    `json:"sender"`
	Recipient string    `json:"recipient"`
	CreatedAt time.Time `json:"created_at"`
	Priority  int       `json:"priority"`
	// OriginID links a decoded message back to the message it was transmitted from.
	OriginID string `json:"origin_id,omitempty"`
}

// NewMessage builds a message stamped with the current time and a fresh id.
func NewMessage(content, sender, recipient string) *Message {
	now := time.Now()
	return &Message{
		ID:        NewMessageID(now),
		Content:   content,
		Sender:    sender,
		Recipient: recipient,
		CreatedAt: now,
		Priority:  DefaultPriority,
	}
}

// NewMessageID returns an id of the form MSG-<unix millis>-<suffix>.
func NewMessageID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("MSG-%d-%s", now.UnixMilli(), suffix)
}

// Request asks the line to transmit a message from one of its emitters.
type Request struct {
	Message *Message `json:"message"`
	// Emitter is the index of the emitter to key the message on.
	Emitter int `json:"emitter"`
}
