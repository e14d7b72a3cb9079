package relay

import (
	"math"

	"github.com/ghalamif/telegraph/internal/domain"
	"github.com/ghalamif/telegraph/internal/ports"
)

const (
	minReleaseMs = 10
	maxReleaseMs = 500
)

// SimpleConfig adds the armature release time to Config.
type SimpleConfig struct {
	Config
	ReleaseMs float64
}

func DefaultSimpleConfig() SimpleConfig {
	return SimpleConfig{
		Config:    Config{ID: "relay-simple", Name: "Simple relay", DetectionThreshold: 30, AmplificationFactor: 2.0},
		ReleaseMs: 50,
	}
}

// Simple amplifies and forwards, counting what it handled. Its release time
// is reported as the hop latency.
type Simple struct {
	*base
	release   float64
	processed int
}

func NewSimple(cfg SimpleConfig) *Simple {
	s := &Simple{}
	s.base = newBase(cfg.Config, "relay-simple", "Simple relay", s)
	s.SetRelease(cfg.ReleaseMs)
	return s
}

func (s *Simple) specific(sig domain.Signal) (domain.Signal, *domain.TransmissionError) {
	s.processed++
	return sig, nil
}

func (s *Simple) releaseMs() float64 { return s.release }

// SetRelease clamps ms to [10, 500].
func (s *Simple) SetRelease(ms float64) {
	s.release = math.Max(minReleaseMs, math.Min(maxReleaseMs, ms))
}

func (s *Simple) Release() float64 { return s.release }

func (s *Simple) Processed() int { return s.processed }

func (s *Simple) ResetCounter() { s.processed = 0 }

var _ ports.Node = (*Simple)(nil)
