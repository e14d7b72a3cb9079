package telegraph

import (
	"github.com/ghalamif/telegraph/internal/app/config"
	"github.com/ghalamif/telegraph/internal/ports"
)

// Config re-exports the root configuration struct so downstream projects can
// construct or modify it programmatically.
type Config = config.Config

type (
	// Policy controls outbox and queue thresholds.
	Policy = ports.Policy
	// LineConfig lists the components of the line.
	LineConfig         = config.LineConfig
	EmitterConfig      = config.EmitterConfig
	IntermediateConfig = config.IntermediateConfig
	ReceiverConfig     = config.ReceiverConfig
	// OutboxConfig configures on-disk durability of accepted messages.
	OutboxConfig  = config.OutboxConfig
	MetricsConfig = config.MetricsConfig
	AutoConfig    = config.AutoConfig
)

// LoadConfig loads YAML from disk, overlays the TELEGRAPH_* environment and
// validates the result. An empty path yields the defaults.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

// DefaultConfig returns the defaults with the default line.
func DefaultConfig() *Config {
	return config.Default()
}

// ParseConfig is LoadConfig for YAML already in memory.
func ParseConfig(raw []byte) (*Config, error) {
	return config.Parse(raw)
}
