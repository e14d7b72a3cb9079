package emitter

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghalamif/telegraph/internal/domain"
	"github.com/ghalamif/telegraph/internal/encoding"
	"github.com/ghalamif/telegraph/internal/ports"
	"github.com/ghalamif/telegraph/internal/random"
)

func encoder(t *testing.T, id string) ports.Encoder {
	t.Helper()
	enc, err := encoding.Lookup(id)
	require.NoError(t, err)
	return enc
}

func codeOf(t *testing.T, err error) domain.Code {
	t.Helper()
	var te *domain.TransmissionError
	require.True(t, errors.As(err, &te), "not a transmission error: %v", err)
	return te.Code
}

func TestEncodeRequiresPower(t *testing.T) {
	m := NewManual(DefaultManualConfig(), encoder(t, encoding.MorseID), random.NewSequence(0.5))

	_, err := m.Encode(domain.NewMessage("SOS", "op", "desk"))
	assert.Equal(t, domain.CodeEmitterOff, codeOf(t, err))
	assert.Len(t, m.Errors(), 1)

	out := m.Process(domain.Signal{Pulses: []int{1}, Intensity: 100})
	assert.Equal(t, domain.CodeEmitterOff, out.ErrorCode)
}

func TestEncodeBuildsSignal(t *testing.T) {
	m := NewManual(DefaultManualConfig(), encoder(t, encoding.MorseID), random.NewSequence(0.5))
	m.PowerOn()
	msg := domain.NewMessage("sos", "op", "desk")

	sig, err := m.Encode(msg)
	require.NoError(t, err)
	assert.Equal(t, domain.MaxIntensity, sig.Intensity)
	assert.Equal(t, domain.DefaultFrequencyHz, sig.FrequencyHz)
	assert.Equal(t, msg.ID, sig.OriginMessageID)
	assert.Equal(t, encoding.MorseID, sig.EncoderID)
	require.NotNil(t, sig.Checksum)
	assert.Equal(t, 15, *sig.Checksum)
	assert.False(t, sig.GeneratedAt.IsZero())
}

func TestEncodeRejectsUnsupportedText(t *testing.T) {
	m := NewManual(DefaultManualConfig(), encoder(t, encoding.MorseID), random.NewSequence(0.5))
	m.PowerOn()

	_, err := m.Encode(domain.NewMessage("@@@", "op", "desk"))
	assert.Equal(t, domain.CodeEmitterEncoding, codeOf(t, err))
}

func TestPulseOK(t *testing.T) {
	m := NewManual(DefaultManualConfig(), encoder(t, encoding.MorseID), random.NewSequence(0.5))
	sig := domain.Signal{Pulses: []int{1, 0, 3}, Intensity: 100}

	assert.False(t, m.PulseOK(sig))
	m.PowerOn()
	assert.True(t, m.PulseOK(sig))
	assert.False(t, m.PulseOK(sig.WithIntensity(0)))
	assert.False(t, m.PulseOK(sig.WithPulses(nil)))
	assert.False(t, m.PulseOK(sig.WithPulses([]int{1, 5})))
}

func TestManualOperatorError(t *testing.T) {
	m := NewManual(DefaultManualConfig(), encoder(t, encoding.MorseID), random.NewSequence(0.01, 0.5))
	m.PowerOn()
	sig := domain.Signal{Pulses: []int{1}, Intensity: 100}

	out := m.Process(sig)
	assert.False(t, out.Succeeded)
	assert.Equal(t, domain.CodeEmitterInvalidPulse, out.ErrorCode)
	assert.True(t, m.Errors()[0].Recoverable)

	out = m.Process(sig)
	require.True(t, out.Succeeded)
	assert.NotNil(t, out.LatencyMs)
	assert.Equal(t, sig.Pulses, out.Signal.Pulses)
}

func TestManualWPMClamp(t *testing.T) {
	m := NewManual(DefaultManualConfig(), encoder(t, encoding.MorseID), nil)
	assert.Equal(t, 15, m.WPM())
	m.SetWPM(1)
	assert.Equal(t, 5, m.WPM())
	m.SetWPM(90)
	assert.Equal(t, 30, m.WPM())

	m.SetHumanErrorProbability(2)
	assert.Equal(t, 0.02, m.HumanErrorProbability())
}

type countingNode struct{ seen int }

func (c *countingNode) Identity() domain.Identity {
	return domain.Identity{ID: "counter", Name: "counter", Kind: domain.KindReceiver}
}

func (c *countingNode) Process(sig domain.Signal) domain.Outcome {
	c.seen++
	return domain.Success(sig)
}

func TestAutomaticQueue(t *testing.T) {
	a := NewAutomatic(DefaultAutomaticConfig(), encoder(t, encoding.MorseID), random.NewSequence(0.1))
	sig := domain.Signal{Pulses: []int{1, 0, 1}, Intensity: 100}
	a.Enqueue(sig)
	a.Enqueue(sig)

	outs := a.ProcessQueue()
	require.Len(t, outs, 1)
	assert.Equal(t, domain.CodeEmitterOff, outs[0].ErrorCode)
	assert.Equal(t, 2, a.Pending())

	a.PowerOn()
	next := &countingNode{}
	outs = a.ProcessQueue(next)
	require.Len(t, outs, 2)
	assert.True(t, outs[0].Succeeded)
	assert.Equal(t, 2, next.seen)
	assert.Zero(t, a.Pending())

	a.Enqueue(sig)
	a.ClearQueue()
	assert.Empty(t, a.ProcessQueue())
}

func TestGenerateTextCanned(t *testing.T) {
	a := NewAutomatic(DefaultAutomaticConfig(), encoder(t, encoding.BaudotID), random.NewSequence(0.1))
	assert.Equal(t, "URGENT MESSAGE", a.GenerateText())
}

func TestGenerateTextPhrase(t *testing.T) {
	a := NewAutomatic(DefaultAutomaticConfig(), encoder(t, encoding.MorseID), random.NewSequence(0.5, 0, 0, 0))
	assert.Equal(t, "ALFA ALFA", a.GenerateText())
}

func TestGenerateTextRandomCharacters(t *testing.T) {
	a := NewAutomatic(DefaultAutomaticConfig(), encoder(t, encoding.MorseID), random.NewSequence(0.9))
	assert.Equal(t, strings.Repeat("W", 10), a.GenerateText())
}

func TestGenerateTextStaysInAlphabet(t *testing.T) {
	enc := encoder(t, encoding.BaudotID)
	a := NewAutomatic(DefaultAutomaticConfig(), enc, random.New(42))
	allowed := map[rune]bool{}
	for _, r := range enc.Alphabet() {
		allowed[r] = true
	}
	for i := 0; i < 200; i++ {
		text := a.GenerateText()
		require.NotEmpty(t, text)
		for _, r := range text {
			require.True(t, allowed[r], "%q not in alphabet (text %q)", r, text)
		}
	}
}

func TestGenerateQueuesEncodedSignal(t *testing.T) {
	enc := encoder(t, encoding.MorseID)
	a := NewAutomatic(DefaultAutomaticConfig(), enc, random.NewSequence(0.1))
	a.PowerOn()

	msg, sig, err := a.Generate()
	require.NoError(t, err)
	assert.Equal(t, AutoSender, msg.Sender)
	assert.Equal(t, AutoRecipient, msg.Recipient)
	assert.Equal(t, "..- .-. --. . -. - / -- . ... ... .- --. .", msg.Content)
	assert.Equal(t, "URGENT MESSAGE", enc.Decode(sig.Pulses))
	assert.Equal(t, 1, a.Pending())
	assert.Equal(t, 1, a.Generated())

	a.ResetCounter()
	assert.Zero(t, a.Generated())
}

func TestAutomaticInterval(t *testing.T) {
	a := NewAutomatic(AutomaticConfig{}, encoder(t, encoding.MorseID), nil)
	assert.Equal(t, DefaultInterval, a.Interval())
	a.SetInterval(10 * time.Millisecond)
	assert.Equal(t, MinInterval, a.Interval())
}

func TestAutomaticStartStop(t *testing.T) {
	a := NewAutomatic(DefaultAutomaticConfig(), encoder(t, encoding.MorseID), random.New(7))
	out := make(chan *domain.Message, 1)

	require.NoError(t, a.Start(out))
	assert.True(t, a.Generating())
	assert.Error(t, a.Start(out))

	select {
	case msg := <-out:
		assert.Equal(t, AutoSender, msg.Sender)
	case <-time.After(2 * time.Second):
		t.Fatal("no message generated")
	}

	require.NoError(t, a.Stop())
	assert.False(t, a.Generating())
	require.NoError(t, a.Stop())
}

func TestDiagnosticSelfTest(t *testing.T) {
	d := NewDiagnostic(DefaultDiagnosticConfig(), encoder(t, encoding.MorseID))

	rep := d.RunSelfTest()
	assert.Equal(t, 0, rep.Passed)
	assert.Equal(t, 3, rep.Failed)

	d.PowerOn()
	rep = d.RunSelfTest()
	assert.Equal(t, 3, rep.Passed)
	assert.Equal(t, []string{"SOS test: OK", "calibration test: OK", "pulse check: OK"}, rep.Details)

	st := d.Stats()
	assert.Equal(t, DiagnosticStats{Total: 2, Succeeded: 2, SuccessRate: 100}, st)
}

func TestDiagnosticForcedFailure(t *testing.T) {
	d := NewDiagnostic(DefaultDiagnosticConfig(), encoder(t, encoding.MorseID))
	d.PowerOn()
	d.SetForceFailure(true)

	out := d.Process(d.SOSSignal())
	assert.Equal(t, domain.CodeEmitterInvalidPulse, out.ErrorCode)

	hist := d.History()
	require.Len(t, hist, 1)
	assert.False(t, hist[0].Outcome.Succeeded)
	assert.Equal(t, SOSTestID, hist[0].Signal.OriginMessageID)

	d.SetForceFailure(false)
	assert.True(t, d.Process(d.CalibrationSignal()).Succeeded)
	assert.InDelta(t, 50, d.Stats().SuccessRate, 1e-9)

	d.ClearHistory()
	assert.Equal(t, DiagnosticStats{}, d.Stats())
}

func TestDiagnosticPatterns(t *testing.T) {
	d := NewDiagnostic(DefaultDiagnosticConfig(), encoder(t, encoding.MorseID))
	assert.Equal(t, "SOS", d.Encoder().Decode(d.SOSSignal().Pulses))
	assert.Len(t, d.CalibrationSignal().Pulses, 40)
}
