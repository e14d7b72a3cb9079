package ports

import "github.com/ghalamif/telegraph/internal/domain"

// Metric names reported through Observability.
const (
	MetricTransmissions        = "telegraph_transmissions_total"
	MetricTransmissionFailures = "telegraph_transmission_failures_total"
	MetricMessagesReceived     = "telegraph_messages_received_total"
	MetricQueueDropped         = "telegraph_queue_dropped_total"
	MetricDLQ                  = "telegraph_dlq_total"

	MetricQueueLength  = "telegraph_queue_length"
	MetricOutboxSize   = "telegraph_outbox_size_bytes"
	MetricBatteryLevel = "telegraph_relay_battery_level"

	MetricTransmissionLatency = "telegraph_transmission_latency_ms"
)

type Observability interface {
	LogInfo(msg string, fields ...Field)
	LogError(msg string, err error, fields ...Field)
	LogCritical(msg string, err error, fields ...Field)

	IncCounter(name string, v float64)
	ObserveLatency(name string, ms float64)

	SetGauge(name string, v float64)

	RecordDLQ(id OutboxEntryID, m *domain.Message, err error)
}

type Field struct {
	Key   string
	Value any
}

// NopObservability discards everything.
type NopObservability struct{}

func (NopObservability) LogInfo(string, ...Field)                        {}
func (NopObservability) LogError(string, error, ...Field)                {}
func (NopObservability) LogCritical(string, error, ...Field)             {}
func (NopObservability) IncCounter(string, float64)                      {}
func (NopObservability) ObserveLatency(string, float64)                  {}
func (NopObservability) SetGauge(string, float64)                        {}
func (NopObservability) RecordDLQ(OutboxEntryID, *domain.Message, error) {}
