// Package report writes transmission reports to a time-series database.
package report

import (
	"context"
	"errors"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/ghalamif/telegraph/internal/domain"
	"github.com/ghalamif/telegraph/internal/ports"
)

// Measurement is the InfluxDB measurement every report is written to.
const Measurement = "transmission"

type InfluxConfig struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

type pointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

type Influx struct {
	writer pointWriter
	close  func()
}

func NewInflux(cfg InfluxConfig) (*Influx, error) {
	if cfg.URL == "" || cfg.Org == "" || cfg.Bucket == "" {
		return nil, errors.New("influx: url, org and bucket are required")
	}
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &Influx{
		writer: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		close:  client.Close,
	}, nil
}

func (i *Influx) Name() string { return "influxdb" }

func (i *Influx) Report(ctx context.Context, r *domain.SendReport) error {
	return i.writer.WritePoint(ctx, Point(r))
}

// Point converts a report into a point tagged by emitter, encoder and result code.
func Point(r *domain.SendReport) *write.Point {
	code := "OK"
	if !r.Outcome.Succeeded {
		code = string(r.Outcome.ErrorCode)
	}
	tags := map[string]string{
		"emitter":   r.Emitter.ID,
		"encoder":   r.EncoderID,
		"code":      code,
		"recipient": r.Recipient,
	}
	fields := map[string]interface{}{
		"success":    r.Outcome.Succeeded,
		"latency_ms": r.Outcome.Latency(),
		"received":   r.Received,
		"length":     len(r.Content),
	}
	if r.Outcome.Signal != nil {
		fields["intensity"] = r.Outcome.Signal.Intensity
	}
	return write.NewPoint(Measurement, tags, fields, r.At)
}

func (i *Influx) Close() error {
	if i.close != nil {
		i.close()
	}
	return nil
}

var _ ports.Reporter = (*Influx)(nil)
