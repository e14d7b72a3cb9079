// Package channel models the transport links between emitters, relays and receivers.
package channel

import (
	"math"

	"github.com/ghalamif/telegraph/internal/domain"
	"github.com/ghalamif/telegraph/internal/ports"
	"github.com/ghalamif/telegraph/internal/random"
)

// Config holds the parameters shared by every channel variant.
type Config struct {
	ID                 string
	Name               string
	DistanceKm         float64
	Attenuation        float64 // fractional loss per km
	FailureProbability float64
	// MinIntensity is the level under which the signal is lost. Zero means domain.LostThreshold.
	MinIntensity float64
	// MaxRangeKm rejects lines longer than the cable can carry. Zero means unlimited.
	MaxRangeKm float64
}

// Status is a point-in-time snapshot of a channel.
type Status struct {
	Operational        bool    `json:"operational"`
	DistanceKm         float64 `json:"distance_km"`
	CurrentAttenuation float64 `json:"current_attenuation"`
	Successes          int     `json:"successes"`
	Failures           int     `json:"failures"`
}

// model supplies the variant specific parts of a transmission.
type model interface {
	failureProbability() float64
	shape(intensity float64) float64
	latencyMs() float64
	inoperative() *domain.TransmissionError
	failure() *domain.TransmissionError
}

type base struct {
	id          domain.Identity
	cfg         Config
	operational bool
	rnd         ports.Rand
	model       model

	successes int
	failures  int
	errs      []*domain.TransmissionError
}

func newBase(cfg Config, defaultID, defaultName string, rnd ports.Rand, m model) *base {
	if cfg.ID == "" {
		cfg.ID = defaultID
	}
	if cfg.Name == "" {
		cfg.Name = defaultName
	}
	if cfg.MinIntensity <= 0 {
		cfg.MinIntensity = domain.LostThreshold
	}
	if rnd == nil {
		rnd = random.New(0)
	}
	return &base{
		id:          domain.Identity{ID: cfg.ID, Name: cfg.Name, Kind: domain.KindChannel},
		cfg:         cfg,
		operational: true,
		rnd:         rnd,
		model:       m,
	}
}

func (b *base) Identity() domain.Identity { return b.id }

func (b *base) Process(sig domain.Signal) domain.Outcome {
	if !b.operational {
		return b.fail(b.model.inoperative())
	}

	if b.cfg.MaxRangeKm > 0 && b.cfg.DistanceKm > b.cfg.MaxRangeKm {
		return b.fail(b.newError(domain.CodeChannelDistanceTooLong, false).
			WithMessage("%s spans %.0f km, beyond its %.0f km range", b.id.Name, b.cfg.DistanceKm, b.cfg.MaxRangeKm).
			WithContext("distance", b.cfg.DistanceKm).
			WithContext("maxRange", b.cfg.MaxRangeKm).
			WithSuggestion("add an intermediate relay"))
	}

	if b.rnd.Float64() < b.model.failureProbability() {
		return b.fail(b.model.failure())
	}

	out := sig.WithIntensity(b.model.shape(b.loss(sig.Intensity)))
	if out.Intensity < b.cfg.MinIntensity {
		err := b.newError(domain.CodeChannelSignalLost, false).
			WithMessage("signal lost on %s after %.0f km (intensity %.2f)", b.id.Name, b.cfg.DistanceKm, out.Intensity).
			WithContext("distance", b.cfg.DistanceKm).
			WithContext("finalIntensity", out.Intensity).
			WithSuggestion("add an intermediate relay")
		b.record(err)
		return err.DegradedOutcome(out)
	}

	b.successes++
	return domain.Success(out).WithLatency(b.model.latencyMs())
}

// loss applies distance attenuation plus a uniform jitter in [-1, 1].
func (b *base) loss(intensity float64) float64 {
	noise := (b.rnd.Float64() - 0.5) * 2
	return math.Max(0, intensity*AttenuationFactor(b.cfg.Attenuation, b.cfg.DistanceKm)+noise)
}

// AttenuationFactor is the fraction of intensity left after distanceKm.
func AttenuationFactor(perKm, distanceKm float64) float64 {
	return math.Pow(1-perKm, distanceKm)
}

func (b *base) newError(code domain.Code, recoverable bool) *domain.TransmissionError {
	return domain.NewTransmissionError(code, b.id, recoverable)
}

// failure is the random-draw C003 error shared by surface channels.
func (b *base) failure() *domain.TransmissionError {
	return b.newError(domain.CodeChannelFailure, false).
		WithMessage("transmission failure on %s", b.id.Name).
		WithContext("distance", b.cfg.DistanceKm)
}

func (b *base) record(err *domain.TransmissionError) {
	b.errs = append(b.errs, err)
	b.failures++
}

func (b *base) fail(err *domain.TransmissionError) domain.Outcome {
	b.record(err)
	return err.Outcome()
}

func (b *base) Status() Status {
	return Status{
		Operational:        b.operational,
		DistanceKm:         b.cfg.DistanceKm,
		CurrentAttenuation: b.cfg.Attenuation * b.cfg.DistanceKm,
		Successes:          b.successes,
		Failures:           b.failures,
	}
}

func (b *base) Operational() bool { return b.operational }

func (b *base) Config() Config { return b.cfg }

func (b *base) SetDistance(km float64) {
	b.cfg.DistanceKm = math.Max(0, km)
}

// Errors returns a copy of the error log.
func (b *base) Errors() []*domain.TransmissionError {
	return domain.CloneErrors(b.errs)
}

func (b *base) ClearErrors() { b.errs = nil }

// ResetStats zeroes the counters and clears the error log.
func (b *base) ResetStats() {
	b.successes, b.failures = 0, 0
	b.errs = nil
}
