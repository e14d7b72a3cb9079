package factory

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghalamif/telegraph/internal/app/config"
	"github.com/ghalamif/telegraph/internal/channel"
	"github.com/ghalamif/telegraph/internal/domain"
	"github.com/ghalamif/telegraph/internal/emitter"
	"github.com/ghalamif/telegraph/internal/ports"
	"github.com/ghalamif/telegraph/internal/receiver"
	"github.com/ghalamif/telegraph/internal/relay"
)

func f64(v float64) *float64 { return &v }

type nopSink struct{}

func (nopSink) WriteBatch([]*domain.Message) error { return nil }
func (nopSink) Name() string                       { return "nop" }

func newFactory(t *testing.T, opts ...Option) *Factory {
	t.Helper()
	f, err := New("morse", 7, opts...)
	require.NoError(t, err)
	return f
}

func requireNotFound(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var te *domain.TransmissionError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, domain.CodeComponentNotFound, te.Code)
}

func TestNewRejectsUnknownEncoder(t *testing.T) {
	_, err := New("semaphore", 0)
	require.Error(t, err)
}

func TestEmitters(t *testing.T) {
	f := newFactory(t)

	e, err := f.Emitter(config.EmitterConfig{Kind: "MANUAL", Name: "Key 1"})
	require.NoError(t, err)
	m := e.(*emitter.Manual)
	assert.Equal(t, DefaultManualWPM, m.WPM())
	assert.Equal(t, DefaultHumanErrorRate, m.HumanErrorProbability())
	assert.Equal(t, "Key 1", m.Identity().Name)
	assert.Equal(t, "emitter-manual", m.Identity().ID)

	p := 0.0
	e, err = f.Emitter(config.EmitterConfig{Kind: "manual", Manual: config.ManualParams{WPM: 25, HumanErrorProbability: &p}})
	require.NoError(t, err)
	assert.Equal(t, 25, e.(*emitter.Manual).WPM())
	assert.Equal(t, 0.0, e.(*emitter.Manual).HumanErrorProbability())

	e, err = f.Emitter(config.EmitterConfig{Kind: "automatic", Automatic: config.AutomaticParams{Interval: emitter.MinInterval}})
	require.NoError(t, err)
	assert.Equal(t, emitter.MinInterval, e.(*emitter.Automatic).Interval())

	e, err = f.Emitter(config.EmitterConfig{Kind: "diagnostic", Diagnostic: config.DiagnosticParams{ForceFailure: true}})
	require.NoError(t, err)
	assert.True(t, e.(*emitter.Diagnostic).ForceFailure())

	_, err = f.Emitter(config.EmitterConfig{Kind: "telepathic"})
	requireNotFound(t, err)
}

func TestChannels(t *testing.T) {
	f := newFactory(t)

	n, err := f.Intermediate(config.IntermediateConfig{Type: "channel", Kind: "terrestrial"})
	require.NoError(t, err)
	terr := n.(*channel.Terrestrial)
	assert.Equal(t, 100.0, terr.Config().DistanceKm)
	assert.Equal(t, 0.02, terr.Config().Attenuation)

	n, err = f.Intermediate(config.IntermediateConfig{
		Type: "channel", Kind: "terrestrial",
		Channel: config.ChannelParams{Weather: "storm"},
	})
	require.NoError(t, err)
	assert.Equal(t, channel.WeatherStorm, n.(*channel.Terrestrial).Weather())

	_, err = f.Intermediate(config.IntermediateConfig{
		Type: "channel", Kind: "terrestrial",
		Channel: config.ChannelParams{Weather: "hail"},
	})
	require.Error(t, err)

	n, err = f.Intermediate(config.IntermediateConfig{
		Type: "channel", Kind: "submarine", ID: "atlantic",
		Channel: config.ChannelParams{DistanceKm: f64(3000), DepthM: f64(4000)},
	})
	require.NoError(t, err)
	sub := n.(*channel.Submarine)
	assert.Equal(t, "atlantic", sub.Identity().ID)
	assert.Equal(t, 3000.0, sub.Config().DistanceKm)
	assert.Equal(t, 0.05, sub.Config().Attenuation)
	assert.Equal(t, 4000.0, sub.Depth())

	n, err = f.Intermediate(config.IntermediateConfig{Type: "channel", Kind: "simulated"})
	require.NoError(t, err)
	sim := n.(*channel.Simulated)
	assert.Equal(t, 50.0, sim.Config().DistanceKm)
	assert.Equal(t, 0.0, sim.Config().FailureProbability)

	_, err = f.Intermediate(config.IntermediateConfig{Type: "channel", Kind: "pneumatic"})
	requireNotFound(t, err)
	_, err = f.Intermediate(config.IntermediateConfig{Type: "pigeon", Kind: "simple"})
	requireNotFound(t, err)
}

func TestRelays(t *testing.T) {
	f := newFactory(t)

	n, err := f.Intermediate(config.IntermediateConfig{Type: "relay", Kind: "simple"})
	require.NoError(t, err)
	s := n.(*relay.Simple)
	assert.Equal(t, 30.0, s.DetectionThreshold())
	assert.Equal(t, 1.5, s.AmplificationFactor())
	assert.Equal(t, 50.0, s.Release())

	n, err = f.Intermediate(config.IntermediateConfig{
		Type: "relay", Kind: "battery",
		Relay: config.RelayParams{Capacity: f64(40)},
	})
	require.NoError(t, err)
	b := n.(*relay.Battery)
	assert.Equal(t, 2.0, b.AmplificationFactor())
	assert.Equal(t, 40.0, b.Level())

	off := false
	n, err = f.Intermediate(config.IntermediateConfig{
		Type: "relay", Kind: "adaptive",
		Relay: config.RelayParams{ErrorCorrection: &off, QualityThreshold: f64(45)},
	})
	require.NoError(t, err)
	a := n.(*relay.Adaptive)
	assert.Equal(t, 1.8, a.AmplificationFactor())
	assert.Equal(t, 45.0, a.QualityThreshold())

	_, err = f.Intermediate(config.IntermediateConfig{Type: "relay", Kind: "quantum"})
	requireNotFound(t, err)
}

func TestReceivers(t *testing.T) {
	var buf bytes.Buffer
	f := newFactory(t, WithConsole(&buf), WithSink("archive", nopSink{}))

	r, err := f.Receiver(config.ReceiverConfig{Kind: "memory"})
	require.NoError(t, err)
	assert.Equal(t, "receiver-memory", r.Identity().ID)
	assert.Equal(t, receiver.DefaultChecksumTolerance, r.ChecksumTolerance())
	assert.Equal(t, DefaultMemoryLimit, r.Output().(*receiver.Memory).Capacity())

	zero := 0
	r, err = f.Receiver(config.ReceiverConfig{Kind: "file", ChecksumTolerance: &zero, File: config.FileParams{Format: "csv"}})
	require.NoError(t, err)
	assert.Equal(t, 0, r.ChecksumTolerance())
	assert.Equal(t, receiver.FormatCSV, r.Output().(*receiver.File).Format())

	_, err = f.Receiver(config.ReceiverConfig{Kind: "file", File: config.FileParams{Format: "xml"}})
	require.Error(t, err)

	r, err = f.Receiver(config.ReceiverConfig{Kind: "console"})
	require.NoError(t, err)
	out := r.Process(mustEncode(t, f, "SOS"))
	require.True(t, out.Succeeded, out.ErrorMessage)
	assert.Contains(t, buf.String(), "SOS")

	r, err = f.Receiver(config.ReceiverConfig{Kind: "archive"})
	require.NoError(t, err)
	assert.Equal(t, "nop", r.Output().Name())

	_, err = f.Receiver(config.ReceiverConfig{Kind: "kafka"})
	requireNotFound(t, err)
	_, err = f.Receiver(config.ReceiverConfig{Kind: "carrier-pigeon"})
	requireNotFound(t, err)
}

func mustEncode(t *testing.T, f *Factory, text string) domain.Signal {
	t.Helper()
	e, err := f.Emitter(config.EmitterConfig{Kind: "diagnostic"})
	require.NoError(t, err)
	e.PowerOn()
	sig, err := e.Encode(domain.NewMessage(text, "op", "desk"))
	require.NoError(t, err)
	return sig
}

func TestBuildDefaultLine(t *testing.T) {
	f := newFactory(t)
	c, err := f.Build(config.DefaultLine())
	require.NoError(t, err)
	assert.Len(t, c.Emitters, 1)
	assert.Len(t, c.Intermediates, 2)
	assert.Len(t, c.Receivers, 1)

	lc := config.DefaultLine()
	lc.Receivers = append(lc.Receivers, config.ReceiverConfig{Kind: "teletype"})
	_, err = f.Build(lc)
	requireNotFound(t, err)
}

func TestSeededFactoriesAreReproducible(t *testing.T) {
	var seeds []int64
	f := newFactory(t, WithRand(func(seed int64) ports.Rand {
		seeds = append(seeds, seed)
		return nil
	}))
	_, _ = f.Intermediate(config.IntermediateConfig{Type: "channel", Kind: "terrestrial"})
	_, _ = f.Intermediate(config.IntermediateConfig{Type: "channel", Kind: "terrestrial"})
	require.Len(t, seeds, 2)
	assert.NotEqual(t, seeds[0], seeds[1])

	g := newFactory(t)
	assert.Equal(t, len(Catalog()), len(catalog))
	assert.Equal(t, "morse", g.Encoder().ID())
}
