// Package receiver verifies, decodes and records the signals that reach the
// end of a line, handing each decoded message to an output sink.
package receiver

import (
	"fmt"

	"github.com/ghalamif/telegraph/internal/domain"
	"github.com/ghalamif/telegraph/internal/ports"
)

const (
	// OperatorSender is the sender stamped on every decoded message.
	OperatorSender = "Operator"
	// DefaultChecksumTolerance is the checksum difference accepted as benign.
	DefaultChecksumTolerance = 50
	// StrictChecksum asks New for exact checksum equality.
	StrictChecksum = -1
)

// Config identifies a receiver and tunes its integrity check.
type Config struct {
	ID   string
	Name string
	// ChecksumTolerance is the largest checksum difference that still
	// decodes. Zero selects DefaultChecksumTolerance; StrictChecksum (or
	// any negative value) requires equality.
	ChecksumTolerance int
	// HistoryLimit bounds the received history. Zero keeps everything.
	HistoryLimit int
}

func DefaultConfig() Config {
	return Config{ID: "receiver", Name: "Receiver", ChecksumTolerance: DefaultChecksumTolerance}
}

// ErrorRecorder is implemented by outputs that keep a copy of the error log.
type ErrorRecorder interface {
	RecordError(err *domain.TransmissionError)
}

// SentRecorder is implemented by outputs that audit sent messages.
type SentRecorder interface {
	RecordSent(rec SentRecord)
}

type clearer interface {
	Clear()
}

// Receiver is the terminal node of a line.
type Receiver struct {
	id        domain.Identity
	encoder   ports.Encoder
	output    ports.Sink
	tolerance int
	limit     int
	active    bool

	history []*domain.Message
	errs    []*domain.TransmissionError

	onOutputError func(sink string, err error)
}

// New returns an active receiver decoding with enc and writing to output.
// A nil output discards messages.
func New(cfg Config, enc ports.Encoder, output ports.Sink) *Receiver {
	def := DefaultConfig()
	if cfg.ID == "" {
		cfg.ID = def.ID
	}
	if cfg.Name == "" {
		cfg.Name = def.Name
	}
	switch {
	case cfg.ChecksumTolerance == 0:
		cfg.ChecksumTolerance = DefaultChecksumTolerance
	case cfg.ChecksumTolerance < 0:
		cfg.ChecksumTolerance = 0
	}
	if output == nil {
		output = discard{}
	}
	return &Receiver{
		id:        domain.Identity{ID: cfg.ID, Name: cfg.Name, Kind: domain.KindReceiver},
		encoder:   enc,
		output:    output,
		tolerance: cfg.ChecksumTolerance,
		limit:     cfg.HistoryLimit,
		active:    true,
	}
}

func (r *Receiver) Identity() domain.Identity { return r.id }

// Process checks, decodes and records sig.
func (r *Receiver) Process(sig domain.Signal) domain.Outcome {
	if !r.active {
		return r.fail(r.newError(domain.CodeReceiverInactive, true).
			WithMessage("receiver %s is inactive", r.id.Name).
			WithSuggestion("activate the receiver"))
	}

	payload := domain.StripTrailer(sig.Pulses)
	if carried, ok := carriedChecksum(sig); ok {
		computed := r.encoder.Checksum(payload)
		if diff := abs(computed - carried); diff > r.tolerance {
			return r.fail(r.newError(domain.CodeReceiverCorruption, false).
				WithMessage("checksum mismatch on %s: received %d, computed %d", r.id.Name, carried, computed).
				WithContext("received", carried).
				WithContext("computed", computed).
				WithContext("difference", diff).
				WithSuggestion("check the line for noise and resend"))
		}
	}

	if !r.encoder.Validate(sig.Pulses) {
		return r.fail(r.newError(domain.CodeReceiverDecode, false).
			WithMessage("invalid pulses detected on %s", r.id.Name))
	}

	msg, err := r.decode(sig)
	if err != nil {
		return r.fail(r.newError(domain.CodeReceiverDecode, false).
			WithMessage("decode failed on %s: %v", r.id.Name, err))
	}

	r.history = append(r.history, msg)
	if r.limit > 0 && len(r.history) > r.limit {
		r.history = r.history[len(r.history)-r.limit:]
	}
	if err := r.output.WriteBatch([]*domain.Message{msg}); err != nil && r.onOutputError != nil {
		r.onOutputError(r.output.Name(), err)
	}
	return domain.Success(sig)
}

// carriedChecksum prefers the signal's checksum field over the pulse trailer.
func carriedChecksum(sig domain.Signal) (int, bool) {
	if sig.Checksum != nil {
		return *sig.Checksum, true
	}
	return domain.TrailerChecksum(sig.Pulses)
}

func (r *Receiver) decode(sig domain.Signal) (msg *domain.Message, err error) {
	defer func() {
		if p := recover(); p != nil {
			msg, err = nil, fmt.Errorf("decoder panic: %v", p)
		}
	}()

	content := r.encoder.Decode(domain.StripTrailer(sig.Pulses))
	msg = domain.NewMessage(content, OperatorSender, r.id.Name)
	msg.OriginID = sig.OriginMessageID
	return msg, nil
}

func (r *Receiver) newError(code domain.Code, recoverable bool) *domain.TransmissionError {
	return domain.NewTransmissionError(code, r.id, recoverable)
}

func (r *Receiver) fail(err *domain.TransmissionError) domain.Outcome {
	r.errs = append(r.errs, err)
	if rec, ok := r.output.(ErrorRecorder); ok {
		rec.RecordError(err.Clone())
	}
	return err.Outcome()
}

// RecordSent forwards rec to the output when it audits sent messages.
func (r *Receiver) RecordSent(rec SentRecord) {
	if s, ok := r.output.(SentRecorder); ok {
		s.RecordSent(rec)
	}
}

// OnOutputError registers fn to be told when the output sink rejects a message.
// The message stays in the history either way.
func (r *Receiver) OnOutputError(fn func(sink string, err error)) {
	r.onOutputError = fn
}

// History returns copies of the decoded messages, oldest first.
func (r *Receiver) History() []*domain.Message {
	out := make([]*domain.Message, len(r.history))
	for i, m := range r.history {
		c := *m
		out[i] = &c
	}
	return out
}

// Last returns a copy of the most recently decoded message, or nil.
func (r *Receiver) Last() *domain.Message {
	if len(r.history) == 0 {
		return nil
	}
	c := *r.history[len(r.history)-1]
	return &c
}

func (r *Receiver) Received() int { return len(r.history) }

// Errors returns a copy of the error log.
func (r *Receiver) Errors() []*domain.TransmissionError {
	return domain.CloneErrors(r.errs)
}

// ClearHistory drops the history and error log, and clears a store-like output.
func (r *Receiver) ClearHistory() {
	r.history = nil
	r.errs = nil
	if c, ok := r.output.(clearer); ok {
		c.Clear()
	}
}

func (r *Receiver) Activate()    { r.active = true }
func (r *Receiver) Deactivate()  { r.active = false }
func (r *Receiver) Active() bool { return r.active }

func (r *Receiver) Encoder() ports.Encoder       { return r.encoder }
func (r *Receiver) SetEncoder(enc ports.Encoder) { r.encoder = enc }
func (r *Receiver) Output() ports.Sink           { return r.output }

func (r *Receiver) ChecksumTolerance() int     { return r.tolerance }
func (r *Receiver) SetChecksumTolerance(v int) { r.tolerance = v }

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

type discard struct{}

func (discard) WriteBatch([]*domain.Message) error { return nil }
func (discard) Name() string                       { return "discard" }

var _ ports.Node = (*Receiver)(nil)
