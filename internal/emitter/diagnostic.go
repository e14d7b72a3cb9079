package emitter

import (
	"time"

	"github.com/ghalamif/telegraph/internal/domain"
	"github.com/ghalamif/telegraph/internal/ports"
)

const (
	SOSTestID         = "TEST-SOS"
	CalibrationTestID = "TEST-CALIBRATION"
)

// Transmission is one entry of a Diagnostic emitter's history.
type Transmission struct {
	At      time.Time      `json:"at"`
	Signal  domain.Signal  `json:"signal"`
	Outcome domain.Outcome `json:"outcome"`
}

// DiagnosticStats summarizes the history.
type DiagnosticStats struct {
	Total       int     `json:"total"`
	Succeeded   int     `json:"succeeded"`
	Failed      int     `json:"failed"`
	SuccessRate float64 `json:"success_rate"`
}

// SelfTestReport is the result of RunSelfTest.
type SelfTestReport struct {
	Passed  int      `json:"passed"`
	Failed  int      `json:"failed"`
	Details []string `json:"details"`
}

// Diagnostic is a test bench emitter. It records every transmission, emits
// reference patterns and can be told to fail on purpose.
type Diagnostic struct {
	*base
	forceFailure bool
	count        int
	history      []Transmission
}

func DefaultDiagnosticConfig() Config {
	return Config{ID: "emitter-test", Name: "Test emitter"}
}

func NewDiagnostic(cfg Config, enc ports.Encoder) *Diagnostic {
	d := &Diagnostic{}
	d.base = newBase(cfg, "emitter-test", "Test emitter", enc, d)
	return d
}

func (d *Diagnostic) send(sig domain.Signal) *domain.TransmissionError {
	d.count++
	if d.forceFailure {
		err := d.newError(domain.CodeEmitterInvalidPulse, true).
			WithMessage("forced failure on %s", d.id.Name).
			WithSuggestion("disable forced failure mode")
		d.remember(sig, err.Outcome())
		return err
	}
	d.remember(sig, domain.Success(sig))
	return nil
}

func (d *Diagnostic) remember(sig domain.Signal, out domain.Outcome) {
	d.history = append(d.history, Transmission{At: time.Now(), Signal: sig.Clone(), Outcome: out})
}

// SetForceFailure makes every following transmission fail with E003.
func (d *Diagnostic) SetForceFailure(on bool) { d.forceFailure = on }
func (d *Diagnostic) ForceFailure() bool      { return d.forceFailure }

// SOSSignal is the Morse pattern for SOS without a checksum trailer.
func (d *Diagnostic) SOSSignal() domain.Signal {
	return testSignal(SOSTestID, []int{1, 0, 1, 0, 1, 0, 0, 0, 3, 0, 3, 0, 3, 0, 0, 0, 1, 0, 1, 0, 1})
}

// CalibrationSignal alternates dot, gap, dash, gap ten times.
func (d *Diagnostic) CalibrationSignal() domain.Signal {
	pulses := make([]int, 0, 40)
	for i := 0; i < 10; i++ {
		pulses = append(pulses, 1, 0, 3, 0)
	}
	return testSignal(CalibrationTestID, pulses)
}

func testSignal(id string, pulses []int) domain.Signal {
	return domain.Signal{
		Pulses:          pulses,
		Intensity:       domain.MaxIntensity,
		FrequencyHz:     domain.DefaultFrequencyHz,
		OriginMessageID: id,
		GeneratedAt:     time.Now(),
	}
}

// RunSelfTest sends the SOS and calibration patterns through the emitter and
// checks the SOS pattern with PulseOK.
func (d *Diagnostic) RunSelfTest() SelfTestReport {
	var rep SelfTestReport
	check := func(name string, ok bool) {
		if ok {
			rep.Passed++
			rep.Details = append(rep.Details, name+": OK")
			return
		}
		rep.Failed++
		rep.Details = append(rep.Details, name+": FAILED")
	}

	sos := d.SOSSignal()
	check("SOS test", d.Process(sos).Succeeded)
	check("calibration test", d.Process(d.CalibrationSignal()).Succeeded)
	check("pulse check", d.PulseOK(sos))
	return rep
}

// History returns a copy of the recorded transmissions.
func (d *Diagnostic) History() []Transmission {
	return append([]Transmission(nil), d.history...)
}

// ClearHistory also resets the transmission counter.
func (d *Diagnostic) ClearHistory() {
	d.history = nil
	d.count = 0
}

func (d *Diagnostic) Stats() DiagnosticStats {
	st := DiagnosticStats{Total: d.count}
	for _, t := range d.history {
		if t.Outcome.Succeeded {
			st.Succeeded++
		} else {
			st.Failed++
		}
	}
	if st.Total > 0 {
		st.SuccessRate = float64(st.Succeeded) / float64(st.Total) * 100
	}
	return st
}
