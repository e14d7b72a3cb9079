package telegraph

import (
	"context"
	"fmt"
)

// Flow is a convenience builder that lets callers say Conf -> Inbound ->
// Outbound without touching the underlying wiring.
type Flow struct {
	cfg  *Config
	opts []RuntimeOption
}

// FlowOption mutates the Flow after configuration is loaded.
type FlowOption func(*Flow)

// InboundOption configures the outbox/queue side of the runtime.
type InboundOption func(*Flow)

// OutboundOption configures where decoded messages and reports go.
type OutboundOption func(*Flow)

// Conf loads YAML from disk, applies FlowOption values, and returns a Flow builder.
func Conf(path string, opts ...FlowOption) (*Flow, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return ConfFromConfig(cfg, opts...)
}

// ConfFromConfig bootstraps a Flow from an in-memory Config.
func ConfFromConfig(cfg *Config, opts ...FlowOption) (*Flow, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	f := &Flow{cfg: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f, nil
}

// Config returns the underlying configuration so callers can tweak it before building a runtime.
func (f *Flow) Config() *Config {
	if f == nil {
		return nil
	}
	return f.cfg
}

// Options appends raw RuntimeOption values to the builder.
func (f *Flow) Options(opts ...RuntimeOption) *Flow {
	if f == nil {
		return nil
	}
	f.appendOptions(opts...)
	return f
}

// Inbound records outbox, queue and observability overrides.
func (f *Flow) Inbound(opts ...InboundOption) *Flow {
	if f == nil {
		return nil
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// Outbound records output overrides and builds a Runtime ready to run.
func (f *Flow) Outbound(opts ...OutboundOption) (*Runtime, error) {
	if f == nil {
		return nil, fmt.Errorf("flow is nil")
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return NewRuntime(f.cfg, f.opts...)
}

// Run is a shortcut for Outbound + runtime.Run.
func (f *Flow) Run(ctx context.Context, opts ...OutboundOption) error {
	rt, err := f.Outbound(opts...)
	if err != nil {
		return err
	}
	return rt.Run(ctx)
}

// WithFlowOptions appends RuntimeOption values during Conf.
func WithFlowOptions(opts ...RuntimeOption) FlowOption {
	return func(f *Flow) {
		if f != nil {
			f.appendOptions(opts...)
		}
	}
}

func InboundOutbox(ob Outbox) InboundOption {
	return func(f *Flow) {
		if f != nil && ob != nil {
			f.appendOptions(WithOutbox(ob))
		}
	}
}

func InboundQueue(q RequestQueue) InboundOption {
	return func(f *Flow) {
		if f != nil && q != nil {
			f.appendOptions(WithQueue(q))
		}
	}
}

func InboundObservability(obs Observability) InboundOption {
	return func(f *Flow) {
		if f != nil && obs != nil {
			f.appendOptions(WithObservability(obs))
		}
	}
}

// OutboundSink backs receivers of kind with s.
func OutboundSink(kind string, s Sink) OutboundOption {
	return func(f *Flow) {
		if f != nil && s != nil {
			f.appendOptions(WithSink(kind, s))
		}
	}
}

// OutboundCallback backs receivers of kind with a callback sink.
func OutboundCallback(kind string, fn MessageHandler) OutboundOption {
	return func(f *Flow) {
		if f != nil {
			f.appendOptions(WithSink(kind, NewCallbackSink(kind, fn)))
		}
	}
}

func OutboundReporter(r Reporter) OutboundOption {
	return func(f *Flow) {
		if f != nil && r != nil {
			f.appendOptions(WithReporter(r))
		}
	}
}

func OutboundObservability(obs Observability) OutboundOption {
	return func(f *Flow) {
		if f != nil && obs != nil {
			f.appendOptions(WithObservability(obs))
		}
	}
}

func (f *Flow) appendOptions(opts ...RuntimeOption) {
	for _, opt := range opts {
		if opt != nil {
			f.opts = append(f.opts, opt)
		}
	}
}
