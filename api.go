package telegraph

import (
	base "github.com/ghalamif/telegraph/pkg/telegraph"
)

// Re-exported errors for convenience.
var (
	ErrQueueFull         = base.ErrQueueFull
	ErrOutboxFull        = base.ErrOutboxFull
	ErrStopped           = base.ErrStopped
	ErrChannelSinkClosed = base.ErrChannelSinkClosed
)

// Type aliases so consumers can import github.com/ghalamif/telegraph directly.
type (
	Config             = base.Config
	Policy             = base.Policy
	LineConfig         = base.LineConfig
	EmitterConfig      = base.EmitterConfig
	IntermediateConfig = base.IntermediateConfig
	ReceiverConfig     = base.ReceiverConfig
	OutboxConfig       = base.OutboxConfig
	MetricsConfig      = base.MetricsConfig
	AutoConfig         = base.AutoConfig
	Flow               = base.Flow
	FlowOption         = base.FlowOption
	InboundOption      = base.InboundOption
	OutboundOption     = base.OutboundOption
	Runtime            = base.Runtime
	RuntimeOption      = base.RuntimeOption
	Exporter           = base.Exporter
	Message            = base.Message
	Request            = base.Request
	SendReport         = base.SendReport
	Outcome            = base.Outcome
	Code               = base.Code
	MessageHandler     = base.MessageHandler
	Sink               = base.Sink
	Source             = base.Source
	Reporter           = base.Reporter
	Observability      = base.Observability
	Field              = base.Field
	Outbox             = base.Outbox
	OutboxStats        = base.OutboxStats
	OutboxEntryID      = base.OutboxEntryID
	RequestQueue       = base.RequestQueue
	QueuedRequest      = base.QueuedRequest
	LineInfo           = base.LineInfo
	LineStats          = base.LineStats
)

// Config helpers.
func LoadConfig(path string) (*Config, error) {
	return base.LoadConfig(path)
}

func ParseConfig(raw []byte) (*Config, error) {
	return base.ParseConfig(raw)
}

func DefaultConfig() *Config {
	return base.DefaultConfig()
}

// Flow builder helpers.
func Conf(path string, opts ...FlowOption) (*Flow, error) {
	return base.Conf(path, opts...)
}

func ConfFromConfig(cfg *Config, opts ...FlowOption) (*Flow, error) {
	return base.ConfFromConfig(cfg, opts...)
}

func WithFlowOptions(opts ...RuntimeOption) FlowOption {
	return base.WithFlowOptions(opts...)
}

func InboundOutbox(ob Outbox) InboundOption {
	return base.InboundOutbox(ob)
}

func InboundQueue(q RequestQueue) InboundOption {
	return base.InboundQueue(q)
}

func InboundObservability(obs Observability) InboundOption {
	return base.InboundObservability(obs)
}

func OutboundSink(kind string, s Sink) OutboundOption {
	return base.OutboundSink(kind, s)
}

func OutboundCallback(kind string, fn MessageHandler) OutboundOption {
	return base.OutboundCallback(kind, fn)
}

func OutboundReporter(r Reporter) OutboundOption {
	return base.OutboundReporter(r)
}

func OutboundObservability(obs Observability) OutboundOption {
	return base.OutboundObservability(obs)
}

// Runtime and options.
func NewRuntime(cfg *Config, opts ...RuntimeOption) (*Runtime, error) {
	return base.NewRuntime(cfg, opts...)
}

func WithSink(kind string, s Sink) RuntimeOption {
	return base.WithSink(kind, s)
}

func WithReporter(r Reporter) RuntimeOption {
	return base.WithReporter(r)
}

func WithOutbox(ob Outbox) RuntimeOption {
	return base.WithOutbox(ob)
}

func WithQueue(q RequestQueue) RuntimeOption {
	return base.WithQueue(q)
}

func WithObservability(obs Observability) RuntimeOption {
	return base.WithObservability(obs)
}

func WithExporter(e Exporter) RuntimeOption {
	return base.WithExporter(e)
}

// Sink adapters.
func NewCallbackSink(name string, fn MessageHandler) Sink {
	return base.NewCallbackSink(name, fn)
}

func NewChannelSink(name string, buffer int) (Sink, <-chan []Message, func()) {
	return base.NewChannelSink(name, buffer)
}
