package channel

import (
	"time"

	"github.com/ghalamif/telegraph/internal/domain"
	"github.com/ghalamif/telegraph/internal/ports"
)

// Forced selects the result of the next simulated transmission.
type Forced string

const (
	ForceNone    Forced = ""
	ForceSuccess Forced = "success"
	ForceFailure Forced = "failure"
)

// SimulatedConfig parameterizes the test link.
type SimulatedConfig struct {
	Config
	// FixedLatencyMs is reported on success; nil means 1 ms.
	FixedLatencyMs *float64
	// Lossless forwards every signal untouched.
	Lossless bool
}

// SimulatedSettings carries a partial update for Configure; nil fields are left alone.
type SimulatedSettings struct {
	DistanceKm         *float64
	Attenuation        *float64
	FailureProbability *float64
	FixedLatencyMs     *float64
	Lossless           *bool
}

// Transmission is one entry of the simulated link log.
type Transmission struct {
	At        time.Time      `json:"at"`
	In        domain.Signal  `json:"in"`
	Out       *domain.Signal `json:"out,omitempty"`
	Succeeded bool           `json:"succeeded"`
	LatencyMs *float64       `json:"latency_ms,omitempty"`
}

// Simulated is a fully scriptable link meant for tests and demonstrations.
type Simulated struct {
	*base
	fixedLatency *float64
	lossless     bool
	forced       Forced
	log          []Transmission
}

func NewSimulated(cfg SimulatedConfig, rnd ports.Rand) *Simulated {
	s := &Simulated{fixedLatency: cfg.FixedLatencyMs, lossless: cfg.Lossless}
	s.base = newBase(cfg.Config, "channel-simulated", "Simulated link", rnd, s)
	return s
}

func (s *Simulated) failureProbability() float64 { return s.cfg.FailureProbability }
func (s *Simulated) shape(v float64) float64     { return v }

func (s *Simulated) latencyMs() float64 {
	if s.fixedLatency != nil {
		return *s.fixedLatency
	}
	return 1
}

func (s *Simulated) inoperative() *domain.TransmissionError {
	return s.newError(domain.CodeChannelInoperative, true).
		WithMessage("channel %s is not operational", s.id.Name).
		WithSuggestion("repair the channel")
}

// Process applies a pending forced result first, then lossless mode, then the
// regular attenuation model. Every call is logged.
func (s *Simulated) Process(sig domain.Signal) domain.Outcome {
	out := s.process(sig)
	entry := Transmission{
		At:        time.Now(),
		In:        sig.Clone(),
		Succeeded: out.Succeeded,
		LatencyMs: out.LatencyMs,
	}
	if out.Signal != nil {
		c := out.Signal.Clone()
		entry.Out = &c
	}
	s.log = append(s.log, entry)
	return out
}

func (s *Simulated) process(sig domain.Signal) domain.Outcome {
	if !s.operational {
		return s.fail(s.inoperative())
	}

	forced := s.forced
	s.forced = ForceNone
	switch {
	case forced == ForceFailure:
		return s.fail(s.newError(domain.CodeChannelFailure, true).
			WithMessage("forced failure on %s", s.id.Name))
	case forced == ForceSuccess || s.lossless:
		s.successes++
		return domain.Success(sig.Clone()).WithLatency(s.latencyMs())
	}
	return s.base.Process(sig)
}

// ForceNext makes the next transmission succeed or fail unconditionally.
func (s *Simulated) ForceNext(f Forced) { s.forced = f }

// Configure applies the non-nil settings.
func (s *Simulated) Configure(set SimulatedSettings) {
	if set.DistanceKm != nil {
		s.SetDistance(*set.DistanceKm)
	}
	if set.Attenuation != nil {
		s.cfg.Attenuation = *set.Attenuation
	}
	if set.FailureProbability != nil {
		s.cfg.FailureProbability = *set.FailureProbability
	}
	if set.FixedLatencyMs != nil {
		v := *set.FixedLatencyMs
		s.fixedLatency = &v
	}
	if set.Lossless != nil {
		s.lossless = *set.Lossless
	}
}

func (s *Simulated) SetOperational(on bool) { s.operational = on }

// Log returns a copy of the transmission log.
func (s *Simulated) Log() []Transmission {
	return append([]Transmission(nil), s.log...)
}

func (s *Simulated) ClearLog() { s.log = nil }

var _ ports.Node = (*Simulated)(nil)
