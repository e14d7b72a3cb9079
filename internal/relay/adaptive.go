package relay

import (
	"math"
	"time"

	"github.com/ghalamif/telegraph/internal/domain"
	"github.com/ghalamif/telegraph/internal/ports"
	"github.com/ghalamif/telegraph/internal/random"
)

const (
	maxPulseValue = 5
	dashPulse     = 3

	lowQuality  = 30
	highQuality = 70

	minAdaptiveFactor = 1.2
	maxAdaptiveFactor = 4.0

	calibrationMinSamples = 5
	calibrationWindow     = 10
)

// AdaptiveConfig adds signal analysis settings to Config.
type AdaptiveConfig struct {
	Config
	ErrorCorrection  bool
	Adaptive         bool
	QualityThreshold float64
}

func DefaultAdaptiveConfig() AdaptiveConfig {
	return AdaptiveConfig{
		Config:           Config{ID: "relay-adaptive", Name: "Adaptive relay", DetectionThreshold: 20, AmplificationFactor: 1.5},
		ErrorCorrection:  true,
		Adaptive:         true,
		QualityThreshold: 60,
	}
}

// Analysis describes one signal seen by an adaptive relay.
type Analysis struct {
	At                time.Time `json:"at"`
	OriginalIntensity float64   `json:"original_intensity"`
	Quality           float64   `json:"quality"`
	Noise             float64   `json:"noise"`
	Errors            int       `json:"errors"`
	Length            int       `json:"length"`
}

// AdaptiveStats summarizes the analysis history.
type AdaptiveStats struct {
	Total           int     `json:"total"`
	AverageQuality  float64 `json:"average_quality"`
	CorrectedErrors int     `json:"corrected_errors"`
	// SuccessRate is the percentage of signals at or above the quality threshold.
	SuccessRate float64 `json:"success_rate"`
}

// Adaptive analyses every signal, tunes its amplification to the line and
// repairs out-of-range pulses.
type Adaptive struct {
	*base
	rnd              ports.Rand
	correction       bool
	adaptive         bool
	qualityThreshold float64
	history          []Analysis
}

func NewAdaptive(cfg AdaptiveConfig, rnd ports.Rand) *Adaptive {
	if rnd == nil {
		rnd = random.New(0)
	}
	a := &Adaptive{
		rnd:              rnd,
		correction:       cfg.ErrorCorrection,
		adaptive:         cfg.Adaptive,
		qualityThreshold: cfg.QualityThreshold,
	}
	a.base = newBase(cfg.Config, "relay-adaptive", "Adaptive relay", a)
	return a
}

func (a *Adaptive) specific(sig domain.Signal) (domain.Signal, *domain.TransmissionError) {
	an := a.analyse(sig)
	a.history = append(a.history, an)
	a.adjust(an)

	out := sig
	if a.correction && an.Errors > 0 {
		out = sig.WithPulses(correct(sig.Pulses))
	}

	if !a.correction && an.Quality < a.qualityThreshold {
		return sig, a.newError(domain.CodeRelayQualityTooLow, true).
			WithMessage("signal quality insufficient: %.1f%%", an.Quality).
			WithContext("quality", an.Quality).
			WithContext("threshold", a.qualityThreshold).
			WithSuggestion("enable error correction or add a relay closer to the source")
	}
	return out, nil
}

func (a *Adaptive) analyse(sig domain.Signal) Analysis {
	return Analysis{
		At:                time.Now(),
		OriginalIntensity: sig.Intensity,
		Quality:           sig.Intensity,
		Noise:             math.Max(0, 100-sig.Intensity-a.rnd.Float64()*10),
		Errors:            countErrors(sig.Pulses),
		Length:            len(sig.Pulses),
	}
}

func (a *Adaptive) adjust(an Analysis) {
	if !a.adaptive {
		return
	}
	switch {
	case an.Quality < lowQuality:
		a.factor = math.Min(maxAdaptiveFactor, a.factor*1.2)
	case an.Quality > highQuality:
		a.factor = math.Max(minAdaptiveFactor, a.factor*0.9)
	}
}

// countErrors counts payload pulses after the first that fall outside
// [0, 5]. Separators and the checksum trailer are legal and skipped.
func countErrors(pulses []int) int {
	payload := domain.StripTrailer(pulses)
	n := 0
	for i := 1; i < len(payload); i++ {
		p := payload[i]
		if p != domain.SeparatorPulse && (p < 0 || p > maxPulseValue) {
			n++
		}
	}
	return n
}

// correct maps negative payload pulses to 0 and oversized ones to a dash,
// leaving separators and the trailer in place.
func correct(pulses []int) []int {
	payload := domain.StripTrailer(pulses)
	out := make([]int, 0, len(pulses))
	for _, p := range payload {
		switch {
		case p == domain.SeparatorPulse:
		case p < 0:
			p = 0
		case p > maxPulseValue:
			p = dashPulse
		}
		out = append(out, p)
	}
	return append(out, pulses[len(payload):]...)
}

// Calibrate retunes the detection and quality thresholds from the last ten
// analyses. It needs at least five and reports whether it ran.
func (a *Adaptive) Calibrate() bool {
	if len(a.history) < calibrationMinSamples {
		return false
	}
	recent := a.history
	if len(recent) > calibrationWindow {
		recent = recent[len(recent)-calibrationWindow:]
	}
	var sum float64
	for _, an := range recent {
		sum += an.Quality
	}
	avg := sum / float64(len(recent))

	a.threshold = math.Max(15, math.Min(50, 100-avg))
	a.qualityThreshold = math.Max(40, avg-10)
	return true
}

func (a *Adaptive) Stats() AdaptiveStats {
	total := len(a.history)
	if total == 0 {
		return AdaptiveStats{}
	}
	var (
		sum       float64
		corrected int
		good      int
	)
	for _, an := range a.history {
		sum += an.Quality
		corrected += an.Errors
		if an.Quality >= a.qualityThreshold {
			good++
		}
	}
	return AdaptiveStats{
		Total:           total,
		AverageQuality:  sum / float64(total),
		CorrectedErrors: corrected,
		SuccessRate:     float64(good) / float64(total) * 100,
	}
}

// History returns a copy of the analyses.
func (a *Adaptive) History() []Analysis {
	return append([]Analysis(nil), a.history...)
}

func (a *Adaptive) ClearHistory() { a.history = nil }

func (a *Adaptive) QualityThreshold() float64 { return a.qualityThreshold }

func (a *Adaptive) SetErrorCorrection(on bool) { a.correction = on }

func (a *Adaptive) SetAdaptive(on bool) { a.adaptive = on }

var _ ports.Node = (*Adaptive)(nil)
