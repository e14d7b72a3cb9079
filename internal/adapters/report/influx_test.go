package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghalamif/telegraph/internal/domain"
)

type fakeWriter struct {
	points []*write.Point
	err    error
}

func (f *fakeWriter) WritePoint(_ context.Context, p ...*write.Point) error {
	f.points = append(f.points, p...)
	return f.err
}

func fieldMap(p *write.Point) map[string]interface{} {
	out := map[string]interface{}{}
	for _, f := range p.FieldList() {
		out[f.Key] = f.Value
	}
	return out
}

func tagMap(p *write.Point) map[string]string {
	out := map[string]string{}
	for _, t := range p.TagList() {
		out[t.Key] = t.Value
	}
	return out
}

func TestPointForSuccess(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	sig := domain.Signal{Intensity: 72.5}
	r := &domain.SendReport{
		Content:   "SOS",
		Recipient: "desk",
		Emitter:   domain.Identity{ID: "emitter-manual"},
		EncoderID: "morse",
		At:        at,
		Outcome:   domain.Success(sig).WithLatency(12),
		Received:  2,
	}

	p := Point(r)
	assert.Equal(t, Measurement, p.Name())
	assert.Equal(t, at, p.Time())

	tags := tagMap(p)
	assert.Equal(t, "OK", tags["code"])
	assert.Equal(t, "emitter-manual", tags["emitter"])
	assert.Equal(t, "morse", tags["encoder"])

	fields := fieldMap(p)
	assert.Equal(t, true, fields["success"])
	assert.Equal(t, 12.0, fields["latency_ms"])
	assert.Equal(t, int64(2), fields["received"])
	assert.Equal(t, 72.5, fields["intensity"])
}

func TestPointForFailure(t *testing.T) {
	r := &domain.SendReport{
		At:      time.Now(),
		Outcome: domain.Failure(domain.CodeChannelFailure, "boom"),
	}
	p := Point(r)
	assert.Equal(t, "C003", tagMap(p)["code"])
	_, hasIntensity := fieldMap(p)["intensity"]
	assert.False(t, hasIntensity)
}

func TestInfluxReport(t *testing.T) {
	w := &fakeWriter{}
	i := &Influx{writer: w}

	require.NoError(t, i.Report(context.Background(), &domain.SendReport{At: time.Now(), Outcome: domain.Success(domain.Signal{})}))
	require.Len(t, w.points, 1)

	w.err = errors.New("unauthorized")
	require.Error(t, i.Report(context.Background(), &domain.SendReport{At: time.Now()}))
	require.NoError(t, i.Close())
	assert.Equal(t, "influxdb", i.Name())
}

func TestNewInfluxValidation(t *testing.T) {
	_, err := NewInflux(InfluxConfig{URL: "http://localhost:8086"})
	require.Error(t, err)

	i, err := NewInflux(InfluxConfig{URL: "http://localhost:8086", Org: "line", Bucket: "telegraph"})
	require.NoError(t, err)
	require.NoError(t, i.Close())
}
