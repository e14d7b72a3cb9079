package domain

import "time"

const (
	// MaxIntensity is the ceiling every signal intensity is clamped to.
	MaxIntensity = 100.0
	// LostThreshold is the intensity below which a signal counts as lost.
	LostThreshold = 5.0
	// DefaultFrequencyHz is the carrier frequency used by emitters.
	DefaultFrequencyHz = 1000.0

	// SeparatorPulse splits symbols in fixed-width encodings.
	SeparatorPulse = -1
	// ChecksumMarker announces that the next pulse is the checksum value.
	ChecksumMarker = -99
)

// Signal is the pulse train travelling through a chain. Values are never
// mutated in place; every transformation returns a copy.
type Signal struct {
	Pulses          []int     `json:"pulses"`
	Intensity       float64   `json:"intensity"`
	FrequencyHz     float64   `json:"frequency_hz"`
	OriginMessageID string    `json:"origin_message_id"`
	GeneratedAt     time.Time `json:"generated_at"`
	Checksum        *int      `json:"checksum,omitempty"`
	EncoderID       string    `json:"encoder_id,omitempty"`
}

// Clone returns a deep copy of the signal.
func (s Signal) Clone() Signal {
	out := s
	out.Pulses = append([]int(nil), s.Pulses...)
	if s.Checksum != nil {
		c := *s.Checksum
		out.Checksum = &c
	}
	return out
}

// WithIntensity returns a copy carrying the clamped intensity.
func (s Signal) WithIntensity(v float64) Signal {
	out := s.Clone()
	out.Intensity = ClampIntensity(v)
	return out
}

// WithPulses returns a copy carrying a copy of pulses.
func (s Signal) WithPulses(pulses []int) Signal {
	out := s.Clone()
	out.Pulses = append([]int(nil), pulses...)
	return out
}

// WithChecksum returns a copy carrying the checksum side value.
func (s Signal) WithChecksum(c int) Signal {
	out := s.Clone()
	out.Checksum = &c
	return out
}

// Lost reports whether the intensity fell below LostThreshold.
func (s Signal) Lost() bool {
	return s.Intensity < LostThreshold
}

// ClampIntensity bounds v to [0, MaxIntensity].
func ClampIntensity(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > MaxIntensity:
		return MaxIntensity
	default:
		return v
	}
}

// TrailerChecksum returns the value that follows the first ChecksumMarker.
func TrailerChecksum(pulses []int) (int, bool) {
	for i, p := range pulses {
		if p == ChecksumMarker {
			if i+1 < len(pulses) {
				return pulses[i+1], true
			}
			return 0, false
		}
	}
	return 0, false
}

// StripTrailer returns the payload pulses preceding the first ChecksumMarker.
func StripTrailer(pulses []int) []int {
	for i, p := range pulses {
		if p == ChecksumMarker {
			return append([]int(nil), pulses[:i]...)
		}
	}
	return append([]int(nil), pulses...)
}
