// Package line coordinates emitters, the intermediate chain and receivers
// into one telegraph line.
package line

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/ghalamif/telegraph/internal/chain"
	"github.com/ghalamif/telegraph/internal/domain"
	"github.com/ghalamif/telegraph/internal/emitter"
	"github.com/ghalamif/telegraph/internal/encoding"
	"github.com/ghalamif/telegraph/internal/ports"
	"github.com/ghalamif/telegraph/internal/receiver"
	"github.com/ghalamif/telegraph/internal/relay"
)

// DefaultHistoryLimit bounds the send history.
const DefaultHistoryLimit = 1000

// Line is safe for concurrent use; sends are serialised.
type Line struct {
	mu            sync.Mutex
	encoder       ports.Encoder
	emitters      []emitter.Emitter
	intermediates *chain.Chain
	receivers     []*receiver.Receiver

	obs       ports.Observability
	reporters []ports.Reporter
	limit     int
	history   []domain.SendReport
	now       func() time.Time
}

type Option func(*Line)

func WithObservability(o ports.Observability) Option {
	return func(l *Line) {
		if o != nil {
			l.obs = o
		}
	}
}

// WithReporter adds a reporter told about every send.
func WithReporter(r ports.Reporter) Option {
	return func(l *Line) { l.reporters = append(l.reporters, r) }
}

func WithHistoryLimit(n int) Option {
	return func(l *Line) { l.limit = n }
}

// New assembles a line. The intermediate nodes are fixed for its lifetime.
func New(enc ports.Encoder, emitters []emitter.Emitter, intermediates []ports.Node, receivers []*receiver.Receiver, opts ...Option) *Line {
	l := &Line{
		encoder:       enc,
		emitters:      append([]emitter.Emitter(nil), emitters...),
		intermediates: chain.New(intermediates...),
		receivers:     append([]*receiver.Receiver(nil), receivers...),
		obs:           ports.NopObservability{},
		limit:         DefaultHistoryLimit,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	for _, r := range l.receivers {
		r.OnOutputError(l.outputError)
	}
	return l
}

func (l *Line) outputError(sink string, err error) {
	l.obs.LogError("receiver output failed", err, ports.Field{Key: "sink", Value: sink})
}

// Configured reports whether the line has at least one emitter and one receiver.
func (l *Line) Configured() bool {
	return len(l.emitters) > 0 && len(l.receivers) > 0
}

// Send transmits content from the emitter at emitterIndex. An out of range
// index falls back to the first emitter.
func (l *Line) Send(ctx context.Context, content, sender, recipient string, emitterIndex int) domain.SendReport {
	return l.Transmit(ctx, domain.NewMessage(content, sender, recipient), emitterIndex)
}

// Transmit is Send for a message that already carries its id.
func (l *Line) Transmit(ctx context.Context, msg *domain.Message, emitterIndex int) domain.SendReport {
	l.mu.Lock()
	report := l.send(msg, emitterIndex)
	l.mu.Unlock()

	l.observe(report)
	for _, r := range l.reporters {
		if err := r.Report(ctx, &report); err != nil {
			l.obs.LogError("send report failed", err,
				ports.Field{Key: "reporter", Value: r.Name()},
				ports.Field{Key: "message_id", Value: report.MessageID})
		}
	}
	return report
}

func (l *Line) send(msg *domain.Message, emitterIndex int) domain.SendReport {
	report := domain.SendReport{
		MessageID: msg.ID,
		Content:   msg.Content,
		Sender:    msg.Sender,
		Recipient: msg.Recipient,
		EncoderID: l.encoder.ID(),
		At:        l.now(),
	}

	if !l.Configured() {
		err := domain.NewTransmissionError(domain.CodeSystemNotConfigured, domain.Identity{}, true).
			WithMessage("line needs at least one emitter and one receiver")
		report.Outcome = err.Outcome()
		return report
	}

	if emitterIndex < 0 || emitterIndex >= len(l.emitters) {
		emitterIndex = 0
	}
	e := l.emitters[emitterIndex]
	report.Emitter = e.Identity()

	e.PowerOn()
	defer e.PowerOff()

	sig, err := e.Encode(msg)
	if err != nil {
		report.Outcome = outcomeOf(err, domain.CodeEmitterEncoding)
		report.FailedComponent = e.Identity().Name
		l.record(report)
		return report
	}
	if !e.PulseOK(sig) {
		report.Outcome = domain.NewTransmissionError(domain.CodeEmitterInvalidPulse, e.Identity(), false).
			WithMessage("pulse check failed on %s", e.Identity().Name).
			Outcome()
		report.FailedComponent = e.Identity().Name
		l.record(report)
		return report
	}

	fan := &fanout{receivers: l.receivers}
	final, hops := chain.New(e).Then(l.intermediates.Nodes()...).Then(fan).Trace(sig)

	report.Outcome = final.WithLatency(chain.TotalLatency(hops))
	report.Received = fan.received
	report.Decoded = fan.decoded
	for _, h := range hops {
		if h.Outcome.Succeeded {
			continue
		}
		report.FailedComponent = h.Node.Name
		if h.Node == fanoutID {
			report.FailedComponent = fan.failed
		}
		break
	}
	l.record(report)
	return report
}

func outcomeOf(err error, fallback domain.Code) domain.Outcome {
	if te, ok := err.(*domain.TransmissionError); ok {
		return te.Outcome()
	}
	return domain.Failure(fallback, err.Error())
}

func (l *Line) record(report domain.SendReport) {
	l.history = append(l.history, report)
	if l.limit > 0 && len(l.history) > l.limit {
		l.history = l.history[len(l.history)-l.limit:]
	}

	rec := receiver.SentRecord{
		Content:         report.Content,
		Sender:          report.Sender,
		Recipient:       report.Recipient,
		At:              report.At,
		Succeeded:       report.Outcome.Succeeded,
		LatencyMs:       report.Outcome.Latency(),
		EncoderID:       report.EncoderID,
		Received:        report.Decoded,
		Error:           report.Outcome.ErrorMessage,
		FailedComponent: report.FailedComponent,
	}
	for _, r := range l.receivers {
		r.RecordSent(rec)
	}
}

func (l *Line) observe(report domain.SendReport) {
	l.obs.IncCounter(ports.MetricTransmissions, 1)
	l.obs.IncCounter(ports.MetricMessagesReceived, float64(report.Received))
	l.obs.ObserveLatency(ports.MetricTransmissionLatency, report.Outcome.Latency())
	if level, ok := l.lowestBattery(); ok {
		l.obs.SetGauge(ports.MetricBatteryLevel, level)
	}

	fields := []ports.Field{
		{Key: "message_id", Value: report.MessageID},
		{Key: "emitter", Value: report.Emitter.ID},
		{Key: "received", Value: report.Received},
	}
	if report.Outcome.Succeeded {
		l.obs.LogInfo("transmission delivered", fields...)
		return
	}
	l.obs.IncCounter(ports.MetricTransmissionFailures, 1)
	fields = append(fields,
		ports.Field{Key: "code", Value: string(report.Outcome.ErrorCode)},
		ports.Field{Key: "component", Value: report.FailedComponent})
	l.obs.LogError("transmission failed", report.Outcome.Err(), fields...)
}

func (l *Line) lowestBattery() (float64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	level, found := math.Inf(1), false
	for _, n := range l.intermediates.Nodes() {
		if b, ok := n.(*relay.Battery); ok {
			level, found = math.Min(level, b.Level()), true
		}
	}
	return level, found
}

// Automatic returns the first automatic emitter and its index.
func (l *Line) Automatic() (*emitter.Automatic, int) {
	for i, e := range l.emitters {
		if a, ok := e.(*emitter.Automatic); ok {
			return a, i
		}
	}
	return nil, -1
}

// FlushQueue sends every signal buffered on the automatic emitter through
// the intermediates to all receivers.
func (l *Line) FlushQueue() []domain.Outcome {
	a, _ := l.Automatic()
	if a == nil {
		return nil
	}

	l.mu.Lock()
	a.PowerOn()
	outs := a.ProcessQueue(append(l.intermediates.Nodes(), &fanout{receivers: l.receivers})...)
	a.PowerOff()
	l.mu.Unlock()

	for _, o := range outs {
		l.obs.IncCounter(ports.MetricTransmissions, 1)
		if !o.Succeeded {
			l.obs.IncCounter(ports.MetricTransmissionFailures, 1)
		}
	}
	return outs
}

// SetEncoder switches every emitter and receiver to the encoder id names.
func (l *Line) SetEncoder(id string) error {
	enc, err := encoding.Lookup(id)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.encoder = enc
	for _, e := range l.emitters {
		e.SetEncoder(enc)
	}
	for _, r := range l.receivers {
		r.SetEncoder(enc)
	}
	return nil
}

func (l *Line) Encoder() ports.Encoder {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.encoder
}

func (l *Line) Emitters() []emitter.Emitter {
	return append([]emitter.Emitter(nil), l.emitters...)
}

func (l *Line) Intermediates() []ports.Node { return l.intermediates.Nodes() }

func (l *Line) Receivers() []*receiver.Receiver {
	return append([]*receiver.Receiver(nil), l.receivers...)
}

// History returns the send reports, oldest first.
func (l *Line) History() []domain.SendReport {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.SendReport(nil), l.history...)
}

func (l *Line) ClearHistory() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.history = nil
}

type Stats struct {
	Total       int     `json:"total"`
	Succeeded   int     `json:"succeeded"`
	Failed      int     `json:"failed"`
	SuccessRate float64 `json:"success_rate"`
}

func (l *Line) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	var s Stats
	for _, r := range l.history {
		s.Total++
		if r.Outcome.Succeeded {
			s.Succeeded++
		}
	}
	s.Failed = s.Total - s.Succeeded
	if s.Total > 0 {
		s.SuccessRate = float64(s.Succeeded) / float64(s.Total) * 100
	}
	return s
}
