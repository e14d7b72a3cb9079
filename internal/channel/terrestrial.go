package channel

import (
	"fmt"

	"github.com/ghalamif/telegraph/internal/domain"
	"github.com/ghalamif/telegraph/internal/ports"
)

// Weather selects a terrestrial failure/attenuation preset.
type Weather string

const (
	WeatherNormal Weather = "NORMAL"
	WeatherRain   Weather = "RAIN"
	WeatherStorm  Weather = "STORM"
	WeatherSnow   Weather = "SNOW"
)

type weatherPreset struct {
	failure     float64
	attenuation float64
}

var weatherPresets = map[Weather]weatherPreset{
	WeatherNormal: {failure: 0.03, attenuation: 0.008},
	WeatherRain:   {failure: 0.08, attenuation: 0.012},
	WeatherStorm:  {failure: 0.25, attenuation: 0.02},
	WeatherSnow:   {failure: 0.15, attenuation: 0.015},
}

// DefaultTerrestrialConfig describes an overland cable of 100 km.
func DefaultTerrestrialConfig() Config {
	return Config{
		ID:                 "channel-terrestrial",
		Name:               "Overland cable",
		DistanceKm:         100,
		Attenuation:        0.008,
		FailureProbability: 0.03,
	}
}

// Terrestrial is an overland cable exposed to the weather.
type Terrestrial struct {
	*base
	baseline Config
	weather  Weather
}

func NewTerrestrial(cfg Config, rnd ports.Rand) *Terrestrial {
	t := &Terrestrial{weather: WeatherNormal}
	t.base = newBase(cfg, "channel-terrestrial", "Overland cable", rnd, t)
	t.baseline = t.cfg
	return t
}

func (t *Terrestrial) failureProbability() float64 { return t.cfg.FailureProbability }
func (t *Terrestrial) shape(v float64) float64     { return v }

// 5 ms fixed plus 0.005 ms per km.
func (t *Terrestrial) latencyMs() float64 {
	return 5 + t.cfg.DistanceKm*0.005
}

func (t *Terrestrial) inoperative() *domain.TransmissionError {
	return t.newError(domain.CodeChannelInoperative, true).
		WithMessage("channel %s is not operational", t.id.Name).
		WithSuggestion("repair the channel")
}

// SetWeather replaces failure probability and attenuation with the preset for w.
func (t *Terrestrial) SetWeather(w Weather) error {
	p, ok := weatherPresets[w]
	if !ok {
		return fmt.Errorf("channel: unknown weather %q", w)
	}
	t.weather = w
	t.cfg.FailureProbability = p.failure
	t.cfg.Attenuation = p.attenuation
	return nil
}

func (t *Terrestrial) Weather() Weather { return t.weather }

// Damage degrades the cable by pct percent.
func (t *Terrestrial) Damage(pct float64) {
	t.cfg.Attenuation += pct * 0.001
	t.cfg.FailureProbability += pct * 0.005
}

// Cut takes the line out of service until Repair.
func (t *Terrestrial) Cut() { t.operational = false }

// Repair restores the configured attenuation and failure probability and puts
// the line back in service.
func (t *Terrestrial) Repair() {
	t.cfg.Attenuation = t.baseline.Attenuation
	t.cfg.FailureProbability = t.baseline.FailureProbability
	t.weather = WeatherNormal
	t.operational = true
}

var _ ports.Node = (*Terrestrial)(nil)
