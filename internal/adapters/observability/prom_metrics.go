package observability

import (
	log "github.com/sirupsen/logrus"

	"github.com/ghalamif/telegraph/internal/domain"
	"github.com/ghalamif/telegraph/internal/ports"
	"github.com/prometheus/client_golang/prometheus"
)

// PromObs reports metrics to the default Prometheus registerer and logs
// through logrus.
type PromObs struct {
	log      log.FieldLogger
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	histos   map[string]prometheus.Observer
}

// NewPromObs registers the telegraph metrics. A nil logger uses the logrus
// standard logger.
func NewPromObs(logger log.FieldLogger) *PromObs {
	if logger == nil {
		logger = log.StandardLogger()
	}

	transmissions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: ports.MetricTransmissions,
		Help: "Messages handed to the line.",
	})
	failures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: ports.MetricTransmissionFailures,
		Help: "Transmissions whose final outcome was a failure.",
	})
	received := prometheus.NewCounter(prometheus.CounterOpts{
		Name: ports.MetricMessagesReceived,
		Help: "Messages decoded by receivers.",
	})
	queueDrops := prometheus.NewCounter(prometheus.CounterOpts{
		Name: ports.MetricQueueDropped,
		Help: "Messages lost due to queue backpressure policies.",
	})
	dlq := prometheus.NewCounter(prometheus.CounterOpts{
		Name: ports.MetricDLQ,
		Help: "Messages dead-lettered after a failed transmission.",
	})
	queueGauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: ports.MetricQueueLength,
		Help: "Messages waiting in the in-memory queue.",
	})
	outboxGauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: ports.MetricOutboxSize,
		Help: "Size of the outbox on disk.",
	})
	battery := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: ports.MetricBatteryLevel,
		Help: "Lowest battery level among battery relays.",
	})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    ports.MetricTransmissionLatency,
		Help:    "Simulated latency of a transmission summed over its hops.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})

	prometheus.MustRegister(transmissions, failures, received, queueDrops, dlq, queueGauge, outboxGauge, battery, latency)

	return &PromObs{
		log: logger,
		counters: map[string]prometheus.Counter{
			ports.MetricTransmissions:        transmissions,
			ports.MetricTransmissionFailures: failures,
			ports.MetricMessagesReceived:     received,
			ports.MetricQueueDropped:         queueDrops,
			ports.MetricDLQ:                  dlq,
		},
		gauges: map[string]prometheus.Gauge{
			ports.MetricQueueLength:  queueGauge,
			ports.MetricOutboxSize:   outboxGauge,
			ports.MetricBatteryLevel: battery,
		},
		histos: map[string]prometheus.Observer{
			ports.MetricTransmissionLatency: latency,
		},
	}
}

func withFields(l log.FieldLogger, fields []ports.Field) log.FieldLogger {
	if len(fields) == 0 {
		return l
	}
	f := make(log.Fields, len(fields))
	for _, kv := range fields {
		f[kv.Key] = kv.Value
	}
	return l.WithFields(f)
}

func (p *PromObs) LogInfo(msg string, fields ...ports.Field) {
	withFields(p.log, fields).Info(msg)
}

func (p *PromObs) LogError(msg string, err error, fields ...ports.Field) {
	withFields(p.log, fields).WithError(err).Error(msg)
}

func (p *PromObs) LogCritical(msg string, err error, fields ...ports.Field) {
	withFields(p.log, fields).WithError(err).WithField("critical", true).Error(msg)
}

func (p *PromObs) IncCounter(name string, v float64) {
	if c, ok := p.counters[name]; ok {
		c.Add(v)
	}
}

func (p *PromObs) ObserveLatency(name string, ms float64) {
	if h, ok := p.histos[name]; ok {
		h.Observe(ms)
	}
}

func (p *PromObs) SetGauge(name string, v float64) {
	if g, ok := p.gauges[name]; ok {
		g.Set(v)
	}
}

func (p *PromObs) RecordDLQ(id ports.OutboxEntryID, m *domain.Message, err error) {
	p.IncCounter(ports.MetricDLQ, 1)
	entry := p.log.WithField("outbox_id", uint64(id))
	if m != nil {
		entry = entry.WithField("message_id", m.ID)
	}
	entry.WithError(err).Warn("message dead-lettered")
}

var _ ports.Observability = (*PromObs)(nil)
