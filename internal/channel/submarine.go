package channel

import (
	"math"

	"github.com/ghalamif/telegraph/internal/domain"
	"github.com/ghalamif/telegraph/internal/ports"
)

const maxDepthM = 11000

// SubmarineConfig adds the cable depth to Config.
type SubmarineConfig struct {
	Config
	DepthM float64
}

func DefaultSubmarineConfig() SubmarineConfig {
	return SubmarineConfig{
		Config: Config{
			ID:                 "channel-submarine",
			Name:               "Submarine cable",
			DistanceKm:         500,
			Attenuation:        0.015,
			FailureProbability: 0.02,
		},
		DepthM: 3000,
	}
}

// Submarine is a deep sea cable. Once damaged it stays down until
// ForceOperational is called.
type Submarine struct {
	*base
	depthM float64
}

func NewSubmarine(cfg SubmarineConfig, rnd ports.Rand) *Submarine {
	s := &Submarine{}
	s.base = newBase(cfg.Config, "channel-submarine", "Submarine cable", rnd, s)
	s.SetDepth(cfg.DepthM)
	return s
}

// SetDepth clamps m to [0, 11000].
func (s *Submarine) SetDepth(m float64) {
	s.depthM = math.Max(0, math.Min(maxDepthM, m))
}

func (s *Submarine) Depth() float64 { return s.depthM }

// Pressure in atmospheres at the cable depth.
func (s *Submarine) Pressure() float64 {
	return 1 + s.depthM/10
}

func (s *Submarine) failureProbability() float64 {
	return s.cfg.FailureProbability * (1 + s.Pressure()/1000)
}

func (s *Submarine) shape(v float64) float64 {
	return math.Max(0, v*(1-s.depthM/50000))
}

func (s *Submarine) latencyMs() float64 {
	return (50 + s.cfg.DistanceKm*0.01) * (1 + s.depthM/10000)
}

func (s *Submarine) inoperative() *domain.TransmissionError {
	return s.newError(domain.CodeChannelInoperative, false).
		WithMessage("submarine cable %s is damaged, a repair expedition is required", s.id.Name).
		WithContext("depth", s.depthM)
}

func (s *Submarine) failure() *domain.TransmissionError {
	return s.newError(domain.CodeChannelFailure, false).
		WithMessage("transmission failure on %s at %.0f m", s.id.Name, s.depthM).
		WithContext("distance", s.cfg.DistanceKm).
		WithContext("depth", s.depthM).
		WithContext("pressure", s.Pressure())
}

// ReportDamage takes the cable out of service.
func (s *Submarine) ReportDamage() { s.operational = false }

// ForceOperational clears the damage flag without repairing anything else.
func (s *Submarine) ForceOperational() { s.operational = true }

var _ ports.Node = (*Submarine)(nil)
