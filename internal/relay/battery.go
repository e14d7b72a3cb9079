package relay

import (
	"math"

	"github.com/ghalamif/telegraph/internal/domain"
	"github.com/ghalamif/telegraph/internal/ports"
)

const criticalBatteryLevel = 20

// BatteryConfig adds the power budget to Config.
type BatteryConfig struct {
	Config
	Capacity             float64
	BaseCost             float64
	PerAmplificationCost float64
}

func DefaultBatteryConfig() BatteryConfig {
	return BatteryConfig{
		Config:               Config{ID: "relay-battery", Name: "Battery relay", DetectionThreshold: 25, AmplificationFactor: 2.5},
		Capacity:             100,
		BaseCost:             2,
		PerAmplificationCost: 0.5,
	}
}

// BatteryStatus is a snapshot of the battery.
type BatteryStatus struct {
	Level    float64 `json:"level"`
	Capacity float64 `json:"capacity"`
	Percent  float64 `json:"percent"`
	Critical bool    `json:"critical"`
	Depleted bool    `json:"depleted"`
}

// Battery pays for every signal it handles out of a finite battery. It
// switches itself off when the battery runs dry and back on when recharged.
type Battery struct {
	*base
	level    float64
	capacity float64
	baseCost float64
	ampCost  float64
}

func NewBattery(cfg BatteryConfig) *Battery {
	if cfg.Capacity <= 0 {
		cfg.Capacity = 100
	}
	b := &Battery{
		level:    cfg.Capacity,
		capacity: cfg.Capacity,
		baseCost: cfg.BaseCost,
		ampCost:  cfg.PerAmplificationCost,
	}
	b.base = newBase(cfg.Config, "relay-battery", "Battery relay", b)
	return b
}

// Cost is what handling sig would draw from the battery.
func (b *Battery) Cost(sig domain.Signal) float64 {
	multiplier := 1.0
	if b.DetectWeak(sig) {
		multiplier = b.factor
	}
	return b.baseCost + multiplier*b.ampCost
}

func (b *Battery) specific(sig domain.Signal) (domain.Signal, *domain.TransmissionError) {
	if b.level <= 0 {
		return sig, b.exhausted()
	}

	cost := b.Cost(sig)
	if b.level < cost {
		return sig, b.newError(domain.CodeRelayBattery, true).
			WithMessage("battery too low for this signal (%.1f < %.1f)", b.level, cost).
			WithContext("level", b.level).
			WithContext("cost", cost).
			WithSuggestion("recharge the battery")
	}

	b.level -= cost
	if b.level <= 0 {
		b.active = false
	}
	return sig, nil
}

func (b *Battery) inactiveError() *domain.TransmissionError {
	if b.level <= 0 {
		return b.exhausted()
	}
	return b.newError(domain.CodeRelayInactive, true).
		WithMessage("relay %s is inactive", b.id.Name).
		WithSuggestion("activate the relay")
}

func (b *Battery) exhausted() *domain.TransmissionError {
	return b.newError(domain.CodeRelayBattery, true).
		WithMessage("battery exhausted on %s", b.id.Name).
		WithContext("level", b.level).
		WithSuggestion("recharge the battery")
}

// Recharge adds amount, capped at capacity, and reactivates a relay that has charge.
func (b *Battery) Recharge(amount float64) {
	b.level = math.Min(b.capacity, b.level+amount)
	if !b.active && b.level > 0 {
		b.active = true
	}
}

// RechargeFull fills the battery to capacity.
func (b *Battery) RechargeFull() { b.Recharge(b.capacity) }

func (b *Battery) Level() float64 { return b.level }

func (b *Battery) BatteryStatus() BatteryStatus {
	return BatteryStatus{
		Level:    b.level,
		Capacity: b.capacity,
		Percent:  b.level / b.capacity * 100,
		Critical: b.level < criticalBatteryLevel,
		Depleted: b.level <= 0,
	}
}

var _ ports.Node = (*Battery)(nil)
