// Package relay implements the repeaters that restore signal strength along a line.
package relay

import (
	"math"

	"github.com/ghalamif/telegraph/internal/domain"
)

// Config holds the parameters shared by every relay variant.
type Config struct {
	ID                  string
	Name                string
	DetectionThreshold  float64
	AmplificationFactor float64
}

// variant is the relay specific step run after detection and amplification.
type variant interface {
	specific(sig domain.Signal) (domain.Signal, *domain.TransmissionError)
}

type base struct {
	id        domain.Identity
	threshold float64
	factor    float64
	active    bool
	variant   variant
	errs      []*domain.TransmissionError
}

func newBase(cfg Config, defaultID, defaultName string, v variant) *base {
	if cfg.ID == "" {
		cfg.ID = defaultID
	}
	if cfg.Name == "" {
		cfg.Name = defaultName
	}
	return &base{
		id:        domain.Identity{ID: cfg.ID, Name: cfg.Name, Kind: domain.KindRelay},
		threshold: cfg.DetectionThreshold,
		factor:    cfg.AmplificationFactor,
		active:    true,
		variant:   v,
	}
}

func (b *base) Identity() domain.Identity { return b.id }

// DetectWeak reports whether the relay should amplify sig. It fires when the
// intensity is above the detection threshold.
func (b *base) DetectWeak(sig domain.Signal) bool {
	return sig.Intensity > b.threshold
}

// Amplify returns a copy of sig boosted by the amplification factor, capped at 100.
func (b *base) Amplify(sig domain.Signal) domain.Signal {
	return sig.WithIntensity(math.Min(domain.MaxIntensity, sig.Intensity*b.factor))
}

func (b *base) Process(sig domain.Signal) domain.Outcome {
	if !b.active {
		return b.fail(b.inactive())
	}

	processed := sig
	if sig.Intensity >= domain.LostThreshold && b.DetectWeak(sig) {
		processed = b.Amplify(sig)
	}

	out, err := b.variant.specific(processed)
	if err != nil {
		return b.fail(err)
	}
	// specific may have switched the relay off; a dead relay forwards nothing.
	if !b.active {
		return b.fail(b.newError(domain.CodeRelayInactive, true).
			WithMessage("relay %s went inactive before forwarding", b.id.Name).
			WithSuggestion("activate the relay"))
	}
	res := domain.Success(out)
	if l, ok := b.variant.(interface{ releaseMs() float64 }); ok {
		res = res.WithLatency(l.releaseMs())
	}
	return res
}

func (b *base) inactive() *domain.TransmissionError {
	if v, ok := b.variant.(interface {
		inactiveError() *domain.TransmissionError
	}); ok {
		return v.inactiveError()
	}
	return b.newError(domain.CodeRelayInactive, true).
		WithMessage("relay %s is inactive", b.id.Name).
		WithSuggestion("activate the relay")
}

func (b *base) newError(code domain.Code, recoverable bool) *domain.TransmissionError {
	return domain.NewTransmissionError(code, b.id, recoverable)
}

func (b *base) fail(err *domain.TransmissionError) domain.Outcome {
	b.errs = append(b.errs, err)
	return err.Outcome()
}

func (b *base) Activate()    { b.active = true }
func (b *base) Deactivate()  { b.active = false }
func (b *base) Active() bool { return b.active }

func (b *base) DetectionThreshold() float64  { return b.threshold }
func (b *base) AmplificationFactor() float64 { return b.factor }

func (b *base) SetDetectionThreshold(v float64) { b.threshold = v }

func (b *base) SetAmplificationFactor(v float64) {
	if v > 0 {
		b.factor = v
	}
}

// Errors returns a copy of the error log.
func (b *base) Errors() []*domain.TransmissionError {
	return domain.CloneErrors(b.errs)
}

func (b *base) ClearErrors() { b.errs = nil }
