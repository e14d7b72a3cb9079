package telegraph

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ghalamif/telegraph/internal/domain"
)

// ErrChannelSinkClosed is returned when a channel sink is written to after being closed.
var ErrChannelSinkClosed = errors.New("telegraph: channel sink closed")

// MessageHandler is invoked with copies of the messages a receiver decoded.
type MessageHandler func([]Message) error

// NewCallbackSink adapts a MessageHandler into a Sink so callers can plug
// arbitrary functions in as receiver outputs.
func NewCallbackSink(name string, fn MessageHandler) Sink {
	if name == "" {
		name = "callback"
	}
	return &callbackSink{name: name, fn: fn}
}

// NewChannelSink exposes decoded messages via a channel; it returns the
// sink, the read-only channel, and a close function that the caller should
// invoke during shutdown.
func NewChannelSink(name string, buffer int) (Sink, <-chan []Message, func()) {
	if name == "" {
		name = "channel"
	}
	if buffer < 0 {
		buffer = 0
	}
	ch := make(chan []Message, buffer)
	s := &channelSink{
		name:   name,
		ch:     ch,
		closed: make(chan struct{}),
	}
	return s, ch, func() { s.close() }
}

type callbackSink struct {
	name string
	fn   MessageHandler
}

func (s *callbackSink) WriteBatch(messages []*domain.Message) error {
	if s.fn == nil {
		return fmt.Errorf("callback sink %q: nil handler", s.name)
	}
	if len(messages) == 0 {
		return nil
	}
	return s.fn(copyBatch(messages))
}

func (s *callbackSink) Name() string { return s.name }

type channelSink struct {
	name   string
	ch     chan []Message
	closed chan struct{}
	once   sync.Once
}

func (s *channelSink) WriteBatch(messages []*domain.Message) error {
	select {
	case <-s.closed:
		return ErrChannelSinkClosed
	default:
	}

	if len(messages) == 0 {
		return nil
	}

	batch := copyBatch(messages)

	select {
	case <-s.closed:
		return ErrChannelSinkClosed
	case s.ch <- batch:
		return nil
	}
}

func (s *channelSink) Name() string { return s.name }

func (s *channelSink) close() {
	s.once.Do(func() {
		close(s.closed)
		close(s.ch)
	})
}

func copyBatch(messages []*domain.Message) []Message {
	out := make([]Message, 0, len(messages))
	for _, m := range messages {
		if m != nil {
			out = append(out, *m)
		}
	}
	return out
}
