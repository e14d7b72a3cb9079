// Package dispatch runs requests through outbox -> queue -> line so that
// accepted messages survive restarts and are transmitted one at a time.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ghalamif/telegraph/internal/domain"
	"github.com/ghalamif/telegraph/internal/ports"
)

var (
	// ErrQueueFull is returned when the queue rejected a request per policy.
	ErrQueueFull = errors.New("telegraph: queue full")
	// ErrOutboxFull is returned when the outbox is at capacity and OnOutboxFull is "drop".
	ErrOutboxFull = errors.New("telegraph: outbox full")
	// ErrStopped is returned by Submit after Stop.
	ErrStopped = errors.New("telegraph: dispatcher stopped")
)

const defaultIdle = 5 * time.Millisecond

// Transmitter sends one message down a line.
type Transmitter interface {
	Transmit(ctx context.Context, msg *domain.Message, emitterIndex int) domain.SendReport
}

type Dispatcher struct {
	outbox ports.Outbox
	queue  ports.RequestQueue
	line   Transmitter
	policy ports.Policy
	obs    ports.Observability

	mu        sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
	feeds     []feed
	wg        sync.WaitGroup
	stopped   bool
	committed ports.OutboxEntryID
}

type feed struct {
	src ports.Source
	ch  chan *domain.Message
}

func New(ob ports.Outbox, q ports.RequestQueue, line Transmitter, pol ports.Policy, obs ports.Observability) *Dispatcher {
	if obs == nil {
		obs = ports.NopObservability{}
	}
	if pol.IdleSleep <= 0 {
		pol.IdleSleep = defaultIdle
	}
	if pol.MaxBatchSize <= 0 {
		pol.MaxBatchSize = 1
	}
	return &Dispatcher{outbox: ob, queue: q, line: line, policy: pol, obs: obs}
}

// Submit records r in the outbox and queues it for transmission.
func (d *Dispatcher) Submit(r *domain.Request) (ports.OutboxEntryID, error) {
	if r == nil || r.Message == nil {
		return 0, fmt.Errorf("request has no message")
	}
	d.mu.Lock()
	stopped := d.stopped
	d.mu.Unlock()
	if stopped {
		return 0, ErrStopped
	}

	if !waitForOutboxCapacity(d.outbox, d.policy, d.obs) {
		return 0, ErrOutboxFull
	}
	id, err := d.outbox.Append(r)
	if err != nil {
		d.obs.LogCritical("outbox append failed", err, ports.Field{Key: "message_id", Value: r.Message.ID})
		return 0, err
	}
	if !enqueueWithPolicy(d.queue, id, r, d.policy, d.obs) {
		d.obs.IncCounter(ports.MetricQueueDropped, 1)
		return id, ErrQueueFull
	}
	return id, nil
}

// Replay queues every uncommitted outbox entry. Call it before Start.
func (d *Dispatcher) Replay() (int, error) {
	return replayOutbox(d.outbox, d.queue, d.policy, d.obs)
}

// Start launches the drain loop. It returns immediately.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		return fmt.Errorf("dispatcher already started")
	}
	ctx, d.cancel = context.WithCancel(ctx)
	d.done = make(chan struct{})
	go func() {
		defer close(d.done)
		d.run(ctx)
	}()
	return nil
}

// Feed submits every message src produces, keyed on the emitter at index.
func (d *Dispatcher) Feed(src ports.Source, emitterIndex int) error {
	ch := make(chan *domain.Message, d.policy.MaxQueueLen)
	if err := src.Start(ch); err != nil {
		return err
	}

	d.mu.Lock()
	d.feeds = append(d.feeds, feed{src: src, ch: ch})
	d.mu.Unlock()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for msg := range ch {
			if _, err := d.Submit(&domain.Request{Message: msg, Emitter: emitterIndex}); err != nil {
				d.obs.LogError("generated message rejected", err, ports.Field{Key: "message_id", Value: msg.ID})
				if errors.Is(err, ErrStopped) {
					return
				}
			}
		}
	}()
	return nil
}

// Stop halts the sources, lets the drain loop finish its batch and waits
// for it, bounded by ctx.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	d.stopped = true
	feeds := d.feeds
	d.feeds = nil
	cancel, done := d.cancel, d.done
	d.mu.Unlock()

	var errs []error
	for _, f := range feeds {
		if err := f.src.Stop(); err != nil {
			errs = append(errs, err)
		}
		close(f.ch)
	}
	d.wg.Wait()
	if cancel != nil {
		cancel()
		select {
		case <-done:
		case <-ctx.Done():
			errs = append(errs, ctx.Err())
		}
	}
	return errors.Join(errs...)
}

func (d *Dispatcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if d.Drain(ctx) == 0 {
			d.compact()
			select {
			case <-ctx.Done():
				return
			case <-time.After(d.policy.IdleSleep):
			}
		}
	}
}

// Drain transmits one batch from the queue and commits it. It returns the
// number of requests handled.
func (d *Dispatcher) Drain(ctx context.Context) int {
	batch := d.queue.DequeueBatch(d.policy.MaxBatchSize)
	if len(batch) == 0 {
		return 0
	}

	var maxID ports.OutboxEntryID
	for _, item := range batch {
		rep := d.line.Transmit(ctx, item.Request.Message, item.Request.Emitter)
		if !rep.Outcome.Succeeded {
			d.obs.RecordDLQ(item.ID, item.Request.Message, rep.Outcome.Err())
		}
		if item.ID > maxID {
			maxID = item.ID
		}
	}

	if err := d.outbox.Commit(maxID); err != nil {
		d.obs.LogError("outbox commit failed", err, ports.Field{Key: "id", Value: maxID})
	} else {
		d.mu.Lock()
		d.committed = maxID
		d.mu.Unlock()
	}
	d.recordGauges()
	return len(batch)
}

// compact drops committed outbox entries once the queue is idle.
func (d *Dispatcher) compact() {
	d.mu.Lock()
	pending := d.committed
	d.committed = 0
	d.mu.Unlock()
	if pending == 0 {
		return
	}
	if err := d.outbox.TruncateCommitted(); err != nil {
		d.obs.LogError("outbox truncate failed", err)
	}
	d.recordGauges()
}

func (d *Dispatcher) recordGauges() {
	d.obs.SetGauge(ports.MetricQueueLength, float64(d.queue.Len()))
	d.obs.SetGauge(ports.MetricOutboxSize, float64(d.outbox.Stats().SizeBytes))
}

// Pending is the number of queued requests.
func (d *Dispatcher) Pending() int { return d.queue.Len() }

func (d *Dispatcher) Outbox() ports.OutboxStats { return d.outbox.Stats() }
