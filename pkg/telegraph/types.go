package telegraph

import (
	"github.com/ghalamif/telegraph/internal/app/dispatch"
	"github.com/ghalamif/telegraph/internal/app/line"
	"github.com/ghalamif/telegraph/internal/domain"
	"github.com/ghalamif/telegraph/internal/ports"
)

// Message is a text message as sent or decoded.
type Message = domain.Message

// Request asks the line to transmit a message from one of its emitters.
type Request = domain.Request

// SendReport describes the result of one transmission.
type SendReport = domain.SendReport

// Outcome is the result of one hop or of a whole transmission.
type Outcome = domain.Outcome

// Code identifies a transmission failure, e.g. "C003".
type Code = domain.Code

// Sink receives the messages a receiver decoded.
type Sink = ports.Sink

// Source produces messages for the dispatcher (generators, bridges, replays).
type Source = ports.Source

// Reporter is told about every transmission.
type Reporter = ports.Reporter

// Observability emits metrics and logs about throughput, latency and dead letters.
type Observability = ports.Observability

// Field is a structured log field used by Observability implementations.
type Field = ports.Field

// Outbox durably records accepted requests until the line attempted them.
type Outbox = ports.Outbox

// OutboxStats exposes outbox metadata for observability.
type OutboxStats = ports.OutboxStats

// OutboxEntryID uniquely identifies an outbox entry.
type OutboxEntryID = ports.OutboxEntryID

// RequestQueue is the bounded queue between the outbox and the line.
type RequestQueue = ports.RequestQueue

// QueuedRequest is an item buffered inside the queue.
type QueuedRequest = ports.QueuedRequest

// LineInfo is a snapshot of every component of the line.
type LineInfo = line.Info

// LineStats summarises the send history.
type LineStats = line.Stats

var (
	// ErrQueueFull indicates the queue rejected the request according to policy.
	ErrQueueFull = dispatch.ErrQueueFull
	// ErrOutboxFull indicates the outbox is at capacity and OnOutboxFull is "drop".
	ErrOutboxFull = dispatch.ErrOutboxFull
	// ErrStopped is returned by Submit once the runtime is shutting down.
	ErrStopped = dispatch.ErrStopped
)
