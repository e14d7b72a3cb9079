// Package emitter turns messages into signals and injects them into a line.
package emitter

import (
	"time"

	"github.com/ghalamif/telegraph/internal/domain"
	"github.com/ghalamif/telegraph/internal/ports"
)

// Config identifies an emitter.
type Config struct {
	ID   string
	Name string
}

// variant is the emitter specific transmission step. A nil error means the
// signal left the key.
type variant interface {
	send(sig domain.Signal) *domain.TransmissionError
}

type base struct {
	id      domain.Identity
	encoder ports.Encoder
	on      bool
	variant variant
	errs    []*domain.TransmissionError
}

func newBase(cfg Config, defaultID, defaultName string, enc ports.Encoder, v variant) *base {
	if cfg.ID == "" {
		cfg.ID = defaultID
	}
	if cfg.Name == "" {
		cfg.Name = defaultName
	}
	return &base{
		id:      domain.Identity{ID: cfg.ID, Name: cfg.Name, Kind: domain.KindEmitter},
		encoder: enc,
		variant: v,
	}
}

func (b *base) Identity() domain.Identity { return b.id }

// Encode builds the signal for msg at full intensity. The checksum is read
// back from the pulse trailer when the encoder wrote one.
func (b *base) Encode(msg *domain.Message) (domain.Signal, error) {
	if !b.on {
		return domain.Signal{}, b.record(b.offError())
	}

	pulses := b.encoder.Encode(msg.Content)
	if len(domain.StripTrailer(pulses)) == 0 {
		return domain.Signal{}, b.record(b.newError(domain.CodeEmitterEncoding, true).
			WithMessage("nothing in %q can be encoded with %s", msg.Content, b.encoder.Name()).
			WithContext("encoder", b.encoder.ID()).
			WithSuggestion("use characters supported by the encoder"))
	}

	checksum, ok := domain.TrailerChecksum(pulses)
	if !ok {
		checksum = b.encoder.Checksum(pulses)
	}
	return domain.Signal{
		Pulses:          pulses,
		Intensity:       domain.MaxIntensity,
		FrequencyHz:     domain.DefaultFrequencyHz,
		OriginMessageID: msg.ID,
		GeneratedAt:     time.Now(),
		Checksum:        &checksum,
		EncoderID:       b.encoder.ID(),
	}, nil
}

// PulseOK reports whether sig is fit to be keyed: the emitter is on, the
// signal has pulses and energy, and the encoder accepts the pulses.
func (b *base) PulseOK(sig domain.Signal) bool {
	return b.on && len(sig.Pulses) > 0 && sig.Intensity > 0 && b.encoder.Validate(sig.Pulses)
}

func (b *base) Process(sig domain.Signal) domain.Outcome {
	if !b.on {
		return b.fail(b.offError())
	}
	start := time.Now()
	if err := b.variant.send(sig); err != nil {
		return b.fail(err)
	}
	return domain.Success(sig).WithLatency(float64(time.Since(start).Microseconds()) / 1000)
}

func (b *base) offError() *domain.TransmissionError {
	return b.newError(domain.CodeEmitterOff, true).
		WithMessage("emitter %s is switched off", b.id.Name).
		WithSuggestion("power the emitter on")
}

func (b *base) newError(code domain.Code, recoverable bool) *domain.TransmissionError {
	return domain.NewTransmissionError(code, b.id, recoverable)
}

func (b *base) record(err *domain.TransmissionError) *domain.TransmissionError {
	b.errs = append(b.errs, err)
	return err
}

func (b *base) fail(err *domain.TransmissionError) domain.Outcome {
	return b.record(err).Outcome()
}

func (b *base) PowerOn()      { b.on = true }
func (b *base) PowerOff()     { b.on = false }
func (b *base) Powered() bool { return b.on }

func (b *base) Encoder() ports.Encoder       { return b.encoder }
func (b *base) SetEncoder(enc ports.Encoder) { b.encoder = enc }

// Errors returns a copy of the error log.
func (b *base) Errors() []*domain.TransmissionError {
	return domain.CloneErrors(b.errs)
}

func (b *base) ClearErrors() { b.errs = nil }

// Emitter is the behaviour shared by every emitter variant.
type Emitter interface {
	ports.Node
	Encode(msg *domain.Message) (domain.Signal, error)
	PulseOK(sig domain.Signal) bool
	PowerOn()
	PowerOff()
	Powered() bool
	Encoder() ports.Encoder
	SetEncoder(enc ports.Encoder)
	Errors() []*domain.TransmissionError
}

var (
	_ Emitter = (*Manual)(nil)
	_ Emitter = (*Automatic)(nil)
	_ Emitter = (*Diagnostic)(nil)
)
