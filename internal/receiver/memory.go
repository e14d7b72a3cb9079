package receiver

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/ghalamif/telegraph/internal/domain"
	"github.com/ghalamif/telegraph/internal/ports"
)

// DefaultMemoryCapacity bounds a Memory created without a capacity.
const DefaultMemoryCapacity = 1000

// EntryKind tags an entry in the sequential log.
type EntryKind string

const (
	EntryMessage EntryKind = "message"
	EntryError   EntryKind = "error"
	EntrySent    EntryKind = "sent"
)

// SentRecord audits one message handed to the line.
type SentRecord struct {
	Content         string    `json:"content"`
	Sender          string    `json:"sender"`
	Recipient       string    `json:"recipient"`
	At              time.Time `json:"at"`
	Succeeded       bool      `json:"succeeded"`
	LatencyMs       float64   `json:"latency_ms,omitempty"`
	EncoderID       string    `json:"encoder_id,omitempty"`
	Received        string    `json:"received,omitempty"`
	Error           string    `json:"error,omitempty"`
	FailedComponent string    `json:"failed_component,omitempty"`
}

// Entry is one item of the sequential log. Exactly one payload field is set.
type Entry struct {
	Kind    EntryKind                 `json:"kind"`
	At      time.Time                 `json:"at"`
	Message *domain.Message           `json:"message,omitempty"`
	Error   *domain.TransmissionError `json:"error,omitempty"`
	Sent    *SentRecord               `json:"sent,omitempty"`
}

// Memory keeps decoded messages in a bounded FIFO indexed by sender and by
// day, plus a bounded log interleaving messages, errors and sent records.
type Memory struct {
	mu        sync.RWMutex
	capacity  int
	messages  []*domain.Message
	bySender  map[string][]*domain.Message
	byDate    map[string][]*domain.Message
	log       []Entry
	listeners []func(*domain.Message)
}

func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &Memory{
		capacity: capacity,
		bySender: make(map[string][]*domain.Message),
		byDate:   make(map[string][]*domain.Message),
	}
}

func (m *Memory) Name() string { return "memory" }

func (m *Memory) WriteBatch(messages []*domain.Message) error {
	for _, msg := range messages {
		m.store(msg)
	}
	return nil
}

func (m *Memory) store(msg *domain.Message) {
	m.mu.Lock()
	if len(m.messages) >= m.capacity {
		oldest := m.messages[0]
		m.messages = m.messages[1:]
		m.unindex(oldest)
	}
	m.messages = append(m.messages, msg)
	m.bySender[msg.Sender] = append(m.bySender[msg.Sender], msg)
	day := dayKey(msg.CreatedAt)
	m.byDate[day] = append(m.byDate[day], msg)
	m.appendLog(Entry{Kind: EntryMessage, At: time.Now(), Message: msg})
	listeners := slices.Clone(m.listeners)
	m.mu.Unlock()

	for _, fn := range listeners {
		notify(fn, msg)
	}
}

// notify isolates the store from a misbehaving listener.
func notify(fn func(*domain.Message), msg *domain.Message) {
	defer func() { _ = recover() }()
	c := *msg
	fn(&c)
}

func (m *Memory) unindex(msg *domain.Message) {
	m.bySender[msg.Sender] = without(m.bySender[msg.Sender], msg.ID)
	if len(m.bySender[msg.Sender]) == 0 {
		delete(m.bySender, msg.Sender)
	}
	day := dayKey(msg.CreatedAt)
	m.byDate[day] = without(m.byDate[day], msg.ID)
	if len(m.byDate[day]) == 0 {
		delete(m.byDate, day)
	}
}

func without(list []*domain.Message, id string) []*domain.Message {
	for i, msg := range list {
		if msg.ID == id {
			return append(list[:i:i], list[i+1:]...)
		}
	}
	return list
}

func (m *Memory) appendLog(e Entry) {
	m.log = append(m.log, e)
	if len(m.log) > m.capacity {
		m.log = m.log[len(m.log)-m.capacity:]
	}
}

func (m *Memory) RecordError(err *domain.TransmissionError) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appendLog(Entry{Kind: EntryError, At: time.Now(), Error: err})
}

func (m *Memory) RecordSent(rec SentRecord) {
	if rec.At.IsZero() {
		rec.At = time.Now()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appendLog(Entry{Kind: EntrySent, At: rec.At, Sent: &rec})
}

// Subscribe registers fn to be called with a copy of every stored message.
// A panicking listener is ignored.
func (m *Memory) Subscribe(fn func(*domain.Message)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// Search returns the retained messages whose content contains term, ignoring case.
func (m *Memory) Search(term string) []*domain.Message {
	term = strings.ToLower(term)
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Message
	for _, msg := range m.messages {
		if strings.Contains(strings.ToLower(msg.Content), term) {
			out = append(out, copyMessage(msg))
		}
	}
	return out
}

func (m *Memory) BySender(sender string) []*domain.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyMessages(m.bySender[sender])
}

// ByDate returns the messages created on the same calendar day as day.
func (m *Memory) ByDate(day time.Time) []*domain.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyMessages(m.byDate[dayKey(day)])
}

// Latest returns up to n of the most recent messages, oldest first.
func (m *Memory) Latest(n int) []*domain.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if n <= 0 {
		return nil
	}
	if n > len(m.messages) {
		n = len(m.messages)
	}
	return copyMessages(m.messages[len(m.messages)-n:])
}

func (m *Memory) Messages() []*domain.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyMessages(m.messages)
}

// Errors returns the errors still held in the sequential log.
func (m *Memory) Errors() []*domain.TransmissionError {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.TransmissionError
	for _, e := range m.log {
		if e.Kind == EntryError {
			out = append(out, e.Error.Clone())
		}
	}
	return out
}

// Sent returns the sent records still held in the sequential log.
func (m *Memory) Sent() []SentRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []SentRecord
	for _, e := range m.log {
		if e.Kind == EntrySent {
			out = append(out, *e.Sent)
		}
	}
	return out
}

// Log returns the sequential log, oldest first.
func (m *Memory) Log() []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Entry(nil), m.log...)
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.messages)
}

func (m *Memory) Capacity() int { return m.capacity }

// Clear drops messages, indexes and the log. Listeners stay registered.
func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = nil
	m.bySender = make(map[string][]*domain.Message)
	m.byDate = make(map[string][]*domain.Message)
	m.log = nil
}

func dayKey(t time.Time) string { return t.Format("2006-01-02") }

func copyMessage(msg *domain.Message) *domain.Message {
	c := *msg
	return &c
}

func copyMessages(list []*domain.Message) []*domain.Message {
	if len(list) == 0 {
		return nil
	}
	out := make([]*domain.Message, len(list))
	for i, msg := range list {
		out[i] = copyMessage(msg)
	}
	return out
}

var (
	_ ports.Sink    = (*Memory)(nil)
	_ ErrorRecorder = (*Memory)(nil)
	_ SentRecorder  = (*Memory)(nil)
)
