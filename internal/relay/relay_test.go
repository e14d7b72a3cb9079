package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghalamif/telegraph/internal/domain"
	"github.com/ghalamif/telegraph/internal/random"
)

func signal(intensity float64) domain.Signal {
	return domain.Signal{
		Pulses:          []int{1, 0, 3, domain.ChecksumMarker, 4},
		Intensity:       intensity,
		OriginMessageID: "MSG-1",
	}.WithChecksum(4)
}

func TestSimpleAmplifiesAboveThreshold(t *testing.T) {
	r := NewSimple(DefaultSimpleConfig())

	out := r.Process(signal(40))
	require.True(t, out.Succeeded)
	assert.Equal(t, 80.0, out.Signal.Intensity)
	assert.Equal(t, 50.0, out.Latency())
	assert.Equal(t, 4, *out.Signal.Checksum)

	// Intensity at or below the threshold passes through untouched.
	out = r.Process(signal(30))
	assert.Equal(t, 30.0, out.Signal.Intensity)
	assert.Equal(t, 2, r.Processed())

	r.ResetCounter()
	assert.Zero(t, r.Processed())
}

func TestSimpleBelowFloorIsNotAmplified(t *testing.T) {
	cfg := DefaultSimpleConfig()
	cfg.DetectionThreshold = 1
	r := NewSimple(cfg)

	out := r.Process(signal(4))
	require.True(t, out.Succeeded)
	assert.Equal(t, 4.0, out.Signal.Intensity)
}

func TestAmplificationCapped(t *testing.T) {
	r := NewSimple(DefaultSimpleConfig())
	for _, f := range []float64{1.5, 2, 10, 100} {
		r.SetAmplificationFactor(f)
		for _, v := range []float64{31, 55, 99, 100} {
			assert.LessOrEqual(t, r.Amplify(signal(v)).Intensity, domain.MaxIntensity)
		}
	}
}

func TestReleaseClamp(t *testing.T) {
	r := NewSimple(DefaultSimpleConfig())
	r.SetRelease(1)
	assert.Equal(t, 10.0, r.Release())
	r.SetRelease(9000)
	assert.Equal(t, 500.0, r.Release())
}

func TestInactiveRelay(t *testing.T) {
	r := NewSimple(DefaultSimpleConfig())
	r.Deactivate()

	out := r.Process(signal(50))
	assert.False(t, out.Succeeded)
	assert.Nil(t, out.Signal)
	assert.Equal(t, domain.CodeRelayInactive, out.ErrorCode)
	require.Len(t, r.Errors(), 1)

	r.Activate()
	assert.True(t, r.Process(signal(50)).Succeeded)
}

func TestBatteryCost(t *testing.T) {
	b := NewBattery(DefaultBatteryConfig())
	assert.Equal(t, 2+2.5*0.5, b.Cost(signal(50)))
	assert.Equal(t, 2.5, b.Cost(signal(10)))
}

func TestBatteryDrainsAndRecharges(t *testing.T) {
	b := NewBattery(DefaultBatteryConfig())

	// 100 / 3.25 allows 30 amplified signals before the battery runs short.
	for i := 0; i < 30; i++ {
		require.True(t, b.Process(signal(50)).Succeeded, "signal %d", i)
	}
	assert.InDelta(t, 2.5, b.Level(), 1e-9)

	out := b.Process(signal(50))
	assert.Equal(t, domain.CodeRelayBattery, out.ErrorCode)
	assert.InDelta(t, 2.5, b.Level(), 1e-9)
	assert.True(t, b.Active())

	// A weak signal costs exactly what is left: the charge is spent but the
	// relay dies before forwarding it.
	out = b.Process(signal(10))
	assert.False(t, out.Succeeded)
	assert.Equal(t, domain.CodeRelayInactive, out.ErrorCode)
	assert.Zero(t, b.Level())
	assert.False(t, b.Active())
	st := b.BatteryStatus()
	assert.True(t, st.Depleted)
	assert.True(t, st.Critical)

	out = b.Process(signal(50))
	assert.False(t, out.Succeeded)
	assert.Equal(t, domain.CodeRelayBattery, out.ErrorCode)

	b.Recharge(100)
	assert.True(t, b.Active())
	assert.Equal(t, 100.0, b.Level())
	assert.Equal(t, 100.0, b.BatteryStatus().Percent)
	assert.True(t, b.Process(signal(50)).Succeeded)
}

func TestBatteryRechargeClamped(t *testing.T) {
	b := NewBattery(DefaultBatteryConfig())
	b.Process(signal(50))
	b.Recharge(500)
	assert.Equal(t, 100.0, b.Level())

	b.Deactivate()
	assert.Equal(t, domain.CodeRelayInactive, b.Process(signal(50)).ErrorCode)
}

func TestAdaptiveAdjustsFactor(t *testing.T) {
	a := NewAdaptive(DefaultAdaptiveConfig(), random.NewSequence(0.5))

	// Below the detection threshold, so quality stays at 15.
	a.Process(signal(15))
	assert.InDelta(t, 1.8, a.AmplificationFactor(), 1e-9)

	for i := 0; i < 20; i++ {
		a.Process(signal(90))
	}
	assert.InDelta(t, 1.2, a.AmplificationFactor(), 1e-9)

	for i := 0; i < 20; i++ {
		a.Process(signal(10))
	}
	assert.InDelta(t, 4.0, a.AmplificationFactor(), 1e-9)
}

func TestAdaptiveCorrectionKeepsTrailer(t *testing.T) {
	a := NewAdaptive(DefaultAdaptiveConfig(), random.NewSequence(0.5))
	sig := signal(10).WithPulses([]int{1, -4, 9, -1, 3, domain.ChecksumMarker, 200})

	out := a.Process(sig)
	require.True(t, out.Succeeded)
	assert.Equal(t, []int{1, 0, 3, -1, 3, domain.ChecksumMarker, 200}, out.Signal.Pulses)
	assert.Equal(t, 2, a.History()[0].Errors)
	assert.Equal(t, 4, *out.Signal.Checksum)
}

func TestAdaptiveRejectsLowQualityWithoutCorrection(t *testing.T) {
	cfg := DefaultAdaptiveConfig()
	cfg.ErrorCorrection = false
	cfg.Adaptive = false
	a := NewAdaptive(cfg, random.NewSequence(0.5))

	out := a.Process(signal(10))
	assert.False(t, out.Succeeded)
	assert.Equal(t, domain.CodeRelayQualityTooLow, out.ErrorCode)

	// 35 is amplified to 52.5 which is still under 60.
	assert.Equal(t, domain.CodeRelayQualityTooLow, a.Process(signal(35)).ErrorCode)
	assert.True(t, a.Process(signal(80)).Succeeded)
}

func TestAdaptiveNoise(t *testing.T) {
	a := NewAdaptive(DefaultAdaptiveConfig(), random.NewSequence(0.5))
	a.Process(signal(10))
	assert.InDelta(t, 85, a.History()[0].Noise, 1e-9)
}

func TestAdaptiveCalibrate(t *testing.T) {
	a := NewAdaptive(DefaultAdaptiveConfig(), random.NewSequence(0.5))
	a.SetAdaptive(false)

	for i := 0; i < 4; i++ {
		a.Process(signal(10))
	}
	assert.False(t, a.Calibrate())

	for i := 0; i < 10; i++ {
		a.Process(signal(10))
	}
	require.True(t, a.Calibrate())
	// Intensity 10 is under the detection threshold so quality averages 10.
	assert.Equal(t, 50.0, a.DetectionThreshold())
	assert.Equal(t, 40.0, a.QualityThreshold())

	stats := a.Stats()
	assert.Equal(t, 14, stats.Total)
	assert.InDelta(t, 10, stats.AverageQuality, 1e-9)
	assert.Equal(t, 0.0, stats.SuccessRate)

	a.ClearHistory()
	assert.Equal(t, AdaptiveStats{}, a.Stats())
}
