// Package factory builds line components from configuration blocks.
package factory

import (
	"fmt"
	"io"
	"strings"

	"github.com/ghalamif/telegraph/internal/app/config"
	"github.com/ghalamif/telegraph/internal/channel"
	"github.com/ghalamif/telegraph/internal/domain"
	"github.com/ghalamif/telegraph/internal/emitter"
	"github.com/ghalamif/telegraph/internal/encoding"
	"github.com/ghalamif/telegraph/internal/ports"
	"github.com/ghalamif/telegraph/internal/random"
	"github.com/ghalamif/telegraph/internal/receiver"
	"github.com/ghalamif/telegraph/internal/relay"
)

// Entry describes one buildable component kind.
type Entry struct {
	Type        domain.Kind `json:"type"`
	Kind        string      `json:"kind"`
	Description string      `json:"description"`
}

var catalog = []Entry{
	{domain.KindEmitter, config.EmitterManual, "operator keyed, simulates speed and human error"},
	{domain.KindEmitter, config.EmitterAutomatic, "error free keying with automatic message generation"},
	{domain.KindEmitter, config.EmitterDiagnostic, "test emitter with forced failures and self test"},
	{domain.KindChannel, config.ChannelTerrestrial, "overland cable, medium attenuation, weather dependent"},
	{domain.KindChannel, config.ChannelSubmarine, "deep sea cable, high attenuation, pressure faults"},
	{domain.KindChannel, config.ChannelSimulated, "scriptable virtual link"},
	{domain.KindRelay, config.RelaySimple, "fixed amplification"},
	{domain.KindRelay, config.RelayBattery, "stronger amplification drawn from a finite battery"},
	{domain.KindRelay, config.RelayAdaptive, "quality driven amplification with pulse correction"},
	{domain.KindReceiver, config.ReceiverConsole, "prints decoded messages"},
	{domain.KindReceiver, config.ReceiverFile, "keeps a downloadable message log"},
	{domain.KindReceiver, config.ReceiverMemory, "indexed in-memory store"},
	{domain.KindReceiver, config.ReceiverArchive, "SQL archive"},
	{domain.KindReceiver, config.ReceiverKafka, "forwards to a Kafka topic"},
	{domain.KindReceiver, config.ReceiverMQTT, "forwards to MQTT topics"},
}

// Catalog lists every component kind the factory can build.
func Catalog() []Entry {
	return append([]Entry(nil), catalog...)
}

// Defaults applied when a block leaves a parameter unset.
const (
	DefaultManualWPM       = 20
	DefaultHumanErrorRate  = 0.02
	DefaultMemoryLimit     = 100
	DefaultDetectThreshold = 30.0
)

// Factory creates components sharing one encoder and a seeded random stream
// per component.
type Factory struct {
	encoder ports.Encoder
	seed    int64
	drawn   int64
	newRand func(seed int64) ports.Rand
	sinks   map[string]ports.Sink
	console io.Writer
}

type Option func(*Factory)

// WithSink registers the shared output used by receivers of the given kind
// (archive, kafka, mqtt).
func WithSink(kind string, s ports.Sink) Option {
	return func(f *Factory) { f.sinks[strings.ToLower(kind)] = s }
}

// WithConsole redirects console receivers.
func WithConsole(w io.Writer) Option {
	return func(f *Factory) { f.console = w }
}

// WithRand replaces the per-component random source.
func WithRand(fn func(seed int64) ports.Rand) Option {
	return func(f *Factory) { f.newRand = fn }
}

// New returns a factory for encoderID. A zero seed draws a fresh seed per
// component.
func New(encoderID string, seed int64, opts ...Option) (*Factory, error) {
	enc, err := encoding.Lookup(encoderID)
	if err != nil {
		return nil, err
	}
	f := &Factory{
		encoder: enc,
		seed:    seed,
		newRand: func(s int64) ports.Rand { return random.New(s) },
		sinks:   make(map[string]ports.Sink),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

func (f *Factory) Encoder() ports.Encoder { return f.encoder }

func (f *Factory) rand() ports.Rand {
	if f.seed == 0 {
		return f.newRand(0)
	}
	f.drawn++
	return f.newRand(f.seed + f.drawn*7919)
}

func notFound(kind domain.Kind, what string) error {
	return domain.NewTransmissionError(domain.CodeComponentNotFound, domain.Identity{Kind: kind}, false).
		WithMessage("unknown %s kind %q", strings.ToLower(string(kind)), what).
		WithSuggestion("see the component catalog")
}

func orFloat(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func orBool(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func (f *Factory) Emitter(cfg config.EmitterConfig) (emitter.Emitter, error) {
	base := emitter.Config{ID: cfg.ID, Name: cfg.Name}
	switch strings.ToLower(cfg.Kind) {
	case config.EmitterManual:
		mc := emitter.DefaultManualConfig()
		mc.WPM = DefaultManualWPM
		mc.HumanErrorProbability = orFloat(cfg.Manual.HumanErrorProbability, DefaultHumanErrorRate)
		if cfg.Manual.WPM != 0 {
			mc.WPM = cfg.Manual.WPM
		}
		mc.Config = withIdentity(mc.Config, base)
		return emitter.NewManual(mc, f.encoder, f.rand()), nil
	case config.EmitterAutomatic:
		ac := emitter.DefaultAutomaticConfig()
		if cfg.Automatic.Interval != 0 {
			ac.Interval = cfg.Automatic.Interval
		}
		ac.Config = withIdentity(ac.Config, base)
		return emitter.NewAutomatic(ac, f.encoder, f.rand()), nil
	case config.EmitterDiagnostic:
		d := emitter.NewDiagnostic(withIdentity(emitter.DefaultDiagnosticConfig(), base), f.encoder)
		d.SetForceFailure(cfg.Diagnostic.ForceFailure)
		return d, nil
	default:
		return nil, notFound(domain.KindEmitter, cfg.Kind)
	}
}

func withIdentity(def, override emitter.Config) emitter.Config {
	if override.ID != "" {
		def.ID = override.ID
	}
	if override.Name != "" {
		def.Name = override.Name
	}
	return def
}

// Intermediate builds the channel or relay a block describes.
func (f *Factory) Intermediate(cfg config.IntermediateConfig) (ports.Node, error) {
	switch strings.ToLower(cfg.Type) {
	case config.IntermediateChannel:
		return f.Channel(cfg)
	case config.IntermediateRelay:
		return f.Relay(cfg)
	default:
		return nil, notFound(domain.Kind(strings.ToUpper(cfg.Type)), cfg.Kind)
	}
}

func (f *Factory) Channel(cfg config.IntermediateConfig) (ports.Node, error) {
	p := cfg.Channel
	build := func(c channel.Config, distance, attenuation, failure float64) channel.Config {
		if cfg.ID != "" {
			c.ID = cfg.ID
		}
		if cfg.Name != "" {
			c.Name = cfg.Name
		}
		c.DistanceKm = orFloat(p.DistanceKm, distance)
		c.Attenuation = orFloat(p.Attenuation, attenuation)
		c.FailureProbability = orFloat(p.FailureProbability, failure)
		c.MinIntensity = p.MinIntensity
		c.MaxRangeKm = p.MaxRangeKm
		return c
	}

	switch strings.ToLower(cfg.Kind) {
	case config.ChannelTerrestrial:
		def := channel.DefaultTerrestrialConfig()
		t := channel.NewTerrestrial(build(def, 100, 0.02, def.FailureProbability), f.rand())
		if p.Weather != "" {
			if err := t.SetWeather(channel.Weather(strings.ToUpper(p.Weather))); err != nil {
				return nil, err
			}
		}
		return t, nil
	case config.ChannelSubmarine:
		def := channel.DefaultSubmarineConfig()
		sc := channel.SubmarineConfig{
			Config: build(def.Config, 500, 0.05, 0.05),
			DepthM: orFloat(p.DepthM, def.DepthM),
		}
		return channel.NewSubmarine(sc, f.rand()), nil
	case config.ChannelSimulated:
		sc := channel.SimulatedConfig{
			Config:         build(channel.Config{}, 50, 0.01, 0),
			FixedLatencyMs: p.FixedLatencyMs,
			Lossless:       p.Lossless,
		}
		return channel.NewSimulated(sc, f.rand()), nil
	default:
		return nil, notFound(domain.KindChannel, cfg.Kind)
	}
}

func (f *Factory) Relay(cfg config.IntermediateConfig) (ports.Node, error) {
	p := cfg.Relay
	build := func(c relay.Config, factor float64) relay.Config {
		if cfg.ID != "" {
			c.ID = cfg.ID
		}
		if cfg.Name != "" {
			c.Name = cfg.Name
		}
		c.DetectionThreshold = orFloat(p.DetectionThreshold, DefaultDetectThreshold)
		c.AmplificationFactor = orFloat(p.AmplificationFactor, factor)
		return c
	}

	switch strings.ToLower(cfg.Kind) {
	case config.RelaySimple:
		sc := relay.DefaultSimpleConfig()
		sc.Config = build(sc.Config, 1.5)
		sc.ReleaseMs = orFloat(p.ReleaseMs, sc.ReleaseMs)
		return relay.NewSimple(sc), nil
	case config.RelayBattery:
		bc := relay.DefaultBatteryConfig()
		bc.Config = build(bc.Config, 2.0)
		bc.Capacity = orFloat(p.Capacity, 100)
		bc.BaseCost = orFloat(p.BaseCost, bc.BaseCost)
		bc.PerAmplificationCost = orFloat(p.PerAmplificationCost, bc.PerAmplificationCost)
		return relay.NewBattery(bc), nil
	case config.RelayAdaptive:
		ac := relay.DefaultAdaptiveConfig()
		ac.Config = build(ac.Config, 1.8)
		ac.ErrorCorrection = orBool(p.ErrorCorrection, ac.ErrorCorrection)
		ac.Adaptive = orBool(p.Adaptive, ac.Adaptive)
		ac.QualityThreshold = orFloat(p.QualityThreshold, ac.QualityThreshold)
		return relay.NewAdaptive(ac, f.rand()), nil
	default:
		return nil, notFound(domain.KindRelay, cfg.Kind)
	}
}

// Receiver builds a receiver and the output sink its kind names.
func (f *Factory) Receiver(cfg config.ReceiverConfig) (*receiver.Receiver, error) {
	kind := strings.ToLower(cfg.Kind)
	rc := receiver.DefaultConfig()
	rc.ID = "receiver-" + kind
	rc.Name = receiverName(kind)
	if cfg.ID != "" {
		rc.ID = cfg.ID
	}
	if cfg.Name != "" {
		rc.Name = cfg.Name
	}
	if cfg.ChecksumTolerance != nil {
		rc.ChecksumTolerance = *cfg.ChecksumTolerance
		if rc.ChecksumTolerance == 0 {
			rc.ChecksumTolerance = receiver.StrictChecksum
		}
	}
	rc.HistoryLimit = cfg.HistoryLimit

	var out ports.Sink
	switch kind {
	case config.ReceiverConsole:
		c := receiver.NewConsole(f.console)
		if cfg.Console.Detail != "" {
			c.SetDetail(receiver.Detail(strings.ToUpper(cfg.Console.Detail)))
		}
		if cfg.Console.Prefix != "" {
			c.SetPrefix(cfg.Console.Prefix)
		}
		out = c
	case config.ReceiverFile:
		format := receiver.FormatText
		if cfg.File.Format != "" {
			format = receiver.Format(strings.ToUpper(cfg.File.Format))
		}
		switch format {
		case receiver.FormatText, receiver.FormatCSV, receiver.FormatJSON:
		default:
			return nil, fmt.Errorf("receiver %s: unknown file format %q", rc.ID, cfg.File.Format)
		}
		out = receiver.NewFile(cfg.File.Name, format)
	case config.ReceiverMemory:
		capacity := cfg.Memory.Capacity
		if capacity == 0 {
			capacity = DefaultMemoryLimit
		}
		out = receiver.NewMemory(capacity)
	case config.ReceiverArchive, config.ReceiverKafka, config.ReceiverMQTT:
		s, ok := f.sinks[kind]
		if !ok {
			return nil, domain.NewTransmissionError(domain.CodeComponentNotFound, domain.Identity{ID: rc.ID, Kind: domain.KindReceiver}, false).
				WithMessage("no %s output is configured", kind)
		}
		out = s
	default:
		s, ok := f.sinks[kind]
		if !ok {
			return nil, notFound(domain.KindReceiver, cfg.Kind)
		}
		out = s
	}
	return receiver.New(rc, f.encoder, out), nil
}

func receiverName(kind string) string {
	switch kind {
	case config.ReceiverConsole:
		return "Console receiver"
	case config.ReceiverFile:
		return "File receiver"
	case config.ReceiverMemory:
		return "Memory receiver"
	case config.ReceiverArchive:
		return "Archive receiver"
	case config.ReceiverKafka:
		return "Kafka receiver"
	case config.ReceiverMQTT:
		return "MQTT receiver"
	}
	return "Receiver"
}

// Components is everything a line is made of, in line order.
type Components struct {
	Emitters      []emitter.Emitter
	Intermediates []ports.Node
	Receivers     []*receiver.Receiver
}

// Build creates every component of lc, stopping at the first error.
func (f *Factory) Build(lc config.LineConfig) (*Components, error) {
	c := &Components{}
	for i, ec := range lc.Emitters {
		e, err := f.Emitter(ec)
		if err != nil {
			return nil, fmt.Errorf("emitter %d: %w", i, err)
		}
		c.Emitters = append(c.Emitters, e)
	}
	for i, ic := range lc.Intermediates {
		n, err := f.Intermediate(ic)
		if err != nil {
			return nil, fmt.Errorf("intermediate %d: %w", i, err)
		}
		c.Intermediates = append(c.Intermediates, n)
	}
	for i, rc := range lc.Receivers {
		r, err := f.Receiver(rc)
		if err != nil {
			return nil, fmt.Errorf("receiver %d: %w", i, err)
		}
		c.Receivers = append(c.Receivers, r)
	}
	return c, nil
}
