package emitter

import (
	"github.com/ghalamif/telegraph/internal/domain"
	"github.com/ghalamif/telegraph/internal/ports"
	"github.com/ghalamif/telegraph/internal/random"
)

const (
	minWPM = 5
	maxWPM = 30
)

// ManualConfig describes the operator keying the line.
type ManualConfig struct {
	Config
	WPM                   int
	HumanErrorProbability float64
}

func DefaultManualConfig() ManualConfig {
	return ManualConfig{
		Config:                Config{ID: "emitter-manual", Name: "Manual emitter"},
		WPM:                   15,
		HumanErrorProbability: 0.02,
	}
}

// Manual is a human operator at the key. Each transmission may fail with an
// operator error.
type Manual struct {
	*base
	rnd       ports.Rand
	wpm       int
	errorProb float64
}

func NewManual(cfg ManualConfig, enc ports.Encoder, rnd ports.Rand) *Manual {
	if rnd == nil {
		rnd = random.New(0)
	}
	m := &Manual{rnd: rnd, errorProb: cfg.HumanErrorProbability}
	m.base = newBase(cfg.Config, "emitter-manual", "Manual emitter", enc, m)
	m.SetWPM(cfg.WPM)
	return m
}

func (m *Manual) send(domain.Signal) *domain.TransmissionError {
	if m.rnd.Float64() < m.errorProb {
		return m.newError(domain.CodeEmitterInvalidPulse, true).
			WithMessage("operator error while keying on %s", m.id.Name).
			WithContext("wpm", m.wpm).
			WithSuggestion("resend the message")
	}
	return nil
}

// SetWPM clamps the keying speed to [5, 30] words per minute.
func (m *Manual) SetWPM(wpm int) {
	m.wpm = max(minWPM, min(maxWPM, wpm))
}

func (m *Manual) WPM() int { return m.wpm }

func (m *Manual) HumanErrorProbability() float64 { return m.errorProb }

// SetHumanErrorProbability ignores values outside [0, 1].
func (m *Manual) SetHumanErrorProbability(p float64) {
	if p >= 0 && p <= 1 {
		m.errorProb = p
	}
}
