package telegraph

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/ghalamif/telegraph/internal/adapters/archive"
	"github.com/ghalamif/telegraph/internal/adapters/broker"
	"github.com/ghalamif/telegraph/internal/adapters/export"
	"github.com/ghalamif/telegraph/internal/adapters/observability"
	"github.com/ghalamif/telegraph/internal/adapters/outbox"
	"github.com/ghalamif/telegraph/internal/adapters/queue"
	"github.com/ghalamif/telegraph/internal/adapters/report"
	"github.com/ghalamif/telegraph/internal/app/config"
	"github.com/ghalamif/telegraph/internal/app/dispatch"
	"github.com/ghalamif/telegraph/internal/app/factory"
	"github.com/ghalamif/telegraph/internal/app/line"
	"github.com/ghalamif/telegraph/internal/domain"
	"github.com/ghalamif/telegraph/internal/ports"
	"github.com/ghalamif/telegraph/internal/receiver"
)

// RuntimeOption customizes the dependencies used by Runtime.
type RuntimeOption func(*runtimeOverrides)

type runtimeOverrides struct {
	sinks         map[string]Sink
	reporters     []Reporter
	outbox        Outbox
	queue         RequestQueue
	observability Observability
	console       io.Writer
	rand          func(seed int64) ports.Rand
	exporter      Exporter
}

// Exporter uploads saved receiver logs to object storage.
type Exporter interface {
	Upload(ctx context.Context, name, contentType string, content []byte) (string, error)
}

// WithSink registers the output used by receivers of the given kind. It
// replaces the archive, kafka or mqtt adapter the config would open, and
// makes any other kind name usable in the line's receivers.
func WithSink(kind string, s Sink) RuntimeOption {
	return func(o *runtimeOverrides) {
		if o.sinks == nil {
			o.sinks = make(map[string]Sink)
		}
		o.sinks[kind] = s
	}
}

// WithReporter adds a reporter on top of the configured InfluxDB one.
func WithReporter(r Reporter) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.reporters = append(o.reporters, r)
	}
}

// WithOutbox lets callers bring their own outbox or reuse an existing instance.
func WithOutbox(ob Outbox) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.outbox = ob
	}
}

// WithQueue injects a custom queue implementation.
func WithQueue(q RequestQueue) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.queue = q
	}
}

// WithObservability plugs in a custom observability backend.
func WithObservability(obs Observability) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.observability = obs
	}
}

// WithConsole redirects console receivers, which write to stdout by default.
func WithConsole(w io.Writer) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.console = w
	}
}

// WithRand replaces the random source handed to every component.
func WithRand(fn func(seed int64) ports.Rand) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.rand = fn
	}
}

// WithExporter replaces the MinIO exporter built from the export config.
func WithExporter(e Exporter) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.exporter = e
	}
}

// Runtime wires a telegraph line behind the outbox -> queue -> line
// dispatcher and exposes lifecycle hooks for embedding it in a Go service.
type Runtime struct {
	cfg        *Config
	obs        ports.Observability
	outbox     ports.Outbox
	queue      ports.RequestQueue
	line       *line.Line
	dispatcher *dispatch.Dispatcher
	exporter   Exporter
	files      []savedFile
	closers    []io.Closer

	metricsSrv  *http.Server
	gaugeStopCh chan struct{}
	started     bool
}

type savedFile struct {
	file *receiver.File
	path string
}

// NewRuntime builds the line described by cfg together with the adapters
// its receivers, reports and exports need. Callers can use RuntimeOption
// values to override any dependency.
func NewRuntime(cfg *Config, opts ...RuntimeOption) (_ *Runtime, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	var overrides runtimeOverrides
	for _, opt := range opts {
		if opt != nil {
			opt(&overrides)
		}
	}

	obs := overrides.observability
	if obs == nil {
		obs = observability.NewPromObs(log.StandardLogger())
	}

	rt := &Runtime{cfg: cfg, obs: obs}
	defer func() {
		if err != nil {
			_ = rt.closeAll()
		}
	}()

	sinks, err := rt.openSinks(overrides.sinks)
	if err != nil {
		return nil, err
	}

	fopts := []factory.Option{}
	for kind, s := range sinks {
		fopts = append(fopts, factory.WithSink(kind, s))
	}
	if overrides.console != nil {
		fopts = append(fopts, factory.WithConsole(overrides.console))
	}
	if overrides.rand != nil {
		fopts = append(fopts, factory.WithRand(overrides.rand))
	}
	f, err := factory.New(cfg.Encoder, cfg.Seed, fopts...)
	if err != nil {
		return nil, err
	}
	comps, err := f.Build(cfg.Line)
	if err != nil {
		return nil, err
	}
	for i, r := range comps.Receivers {
		if file, ok := r.Output().(*receiver.File); ok {
			rt.files = append(rt.files, savedFile{file: file, path: cfg.Line.Receivers[i].File.Path})
		}
	}

	lopts := []line.Option{line.WithObservability(obs)}
	reporters, err := rt.openReporters(overrides.reporters)
	if err != nil {
		return nil, err
	}
	for _, r := range reporters {
		lopts = append(lopts, line.WithReporter(r))
	}
	rt.line = line.New(f.Encoder(), comps.Emitters, comps.Intermediates, comps.Receivers, lopts...)

	rt.exporter = overrides.exporter
	if rt.exporter == nil && cfg.Export.Endpoint != "" {
		m, err := export.NewMinIO(export.MinIOConfig{
			Endpoint:  cfg.Export.Endpoint,
			AccessKey: cfg.Export.AccessKey,
			SecretKey: cfg.Export.SecretKey,
			UseTLS:    cfg.Export.UseTLS,
			Bucket:    cfg.Export.Bucket,
			BasePath:  cfg.Export.BasePath,
		})
		if err != nil {
			return nil, err
		}
		rt.exporter = m
	}

	rt.outbox = overrides.outbox
	if rt.outbox == nil {
		ob, err := openOutbox(cfg.Outbox)
		if err != nil {
			return nil, err
		}
		rt.outbox = ob
		rt.closers = append(rt.closers, ob)
	}

	rt.queue = overrides.queue
	if rt.queue == nil {
		rt.queue = queue.NewMemQueue(cfg.Policy.MaxQueueLen)
	}

	rt.dispatcher = dispatch.New(rt.outbox, rt.queue, rt.line, cfg.Policy, obs)
	if _, err := rt.dispatcher.Replay(); err != nil {
		return nil, err
	}
	return rt, nil
}

func (r *Runtime) openSinks(custom map[string]Sink) (map[string]Sink, error) {
	sinks := make(map[string]Sink, len(custom))
	for kind, s := range custom {
		sinks[kind] = s
	}

	for _, rc := range r.cfg.Line.Receivers {
		if _, ok := sinks[rc.Kind]; ok {
			continue
		}
		var (
			s   Sink
			err error
		)
		switch rc.Kind {
		case config.ReceiverArchive:
			var a *archive.Archive
			a, err = archive.Open(r.cfg.Archive.DSN, r.cfg.Archive.Table)
			if err == nil {
				s = a
				r.closers = append(r.closers, a)
			}
		case config.ReceiverKafka:
			var k *broker.Kafka
			k, err = broker.NewKafka(broker.KafkaConfig{Brokers: r.cfg.Kafka.Brokers, Topic: r.cfg.Kafka.Topic})
			if err == nil {
				s = k
				r.closers = append(r.closers, k)
			}
		case config.ReceiverMQTT:
			var m *broker.MQTT
			m, err = broker.NewMQTT(broker.MQTTConfig{
				BrokerURL:   r.cfg.MQTT.BrokerURL,
				ClientID:    r.cfg.MQTT.ClientID,
				Username:    r.cfg.MQTT.Username,
				Password:    r.cfg.MQTT.Password,
				TopicPrefix: r.cfg.MQTT.TopicPrefix,
				QoS:         r.cfg.MQTT.QoS,
			})
			if err == nil {
				s = m
				r.closers = append(r.closers, m)
			}
		default:
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%s receiver: %w", rc.Kind, err)
		}
		sinks[rc.Kind] = s
	}
	return sinks, nil
}

func (r *Runtime) openReporters(custom []Reporter) ([]Reporter, error) {
	reporters := append([]Reporter(nil), custom...)
	if r.cfg.Influx.URL == "" {
		return reporters, nil
	}
	in, err := report.NewInflux(report.InfluxConfig{
		URL:    r.cfg.Influx.URL,
		Token:  r.cfg.Influx.Token,
		Org:    r.cfg.Influx.Org,
		Bucket: r.cfg.Influx.Bucket,
	})
	if err != nil {
		return nil, err
	}
	r.closers = append(r.closers, in)
	return append(reporters, in), nil
}

type closableOutbox interface {
	ports.Outbox
	io.Closer
}

func openOutbox(cfg config.OutboxConfig) (closableOutbox, error) {
	switch cfg.Driver {
	case config.OutboxBolt:
		return outbox.OpenBolt(filepath.Join(cfg.Dir, "outbox.db"))
	default:
		return outbox.OpenFile(cfg.Dir)
	}
}

// Line exposes the simulated line for direct, synchronous use.
func (r *Runtime) Line() *line.Line { return r.line }

func (r *Runtime) Config() *Config { return r.cfg }

func (r *Runtime) Info() LineInfo { return r.line.Info() }

// Pending is the number of accepted requests not yet transmitted.
func (r *Runtime) Pending() int { return r.dispatcher.Pending() }

// Send transmits synchronously, bypassing the outbox.
func (r *Runtime) Send(ctx context.Context, content, sender, recipient string, emitter int) SendReport {
	return r.line.Send(ctx, content, sender, recipient, emitter)
}

// Submit accepts a message for asynchronous transmission. It is durable
// once Submit returns without error or with ErrQueueFull.
func (r *Runtime) Submit(content, sender, recipient string, emitter int) (OutboxEntryID, error) {
	return r.dispatcher.Submit(&domain.Request{
		Message: domain.NewMessage(content, sender, recipient),
		Emitter: emitter,
	})
}

// Start begins draining the queue, starts automatic generation when
// enabled, and launches the metrics server. It returns immediately; call
// Run to block on a context instead.
func (r *Runtime) Start() error {
	if r == nil {
		return fmt.Errorf("runtime is nil")
	}
	if err := r.dispatcher.Start(context.Background()); err != nil {
		return err
	}
	r.started = true

	if r.cfg.Auto.Enabled {
		auto, idx := r.line.Automatic()
		if auto == nil {
			return fmt.Errorf("auto generation needs an automatic emitter")
		}
		auto.SetInterval(r.cfg.Auto.Interval)
		if err := r.dispatcher.Feed(auto, idx); err != nil {
			return err
		}
		r.obs.LogInfo("automatic generation started",
			ports.Field{Key: "emitter", Value: auto.Identity().ID},
			ports.Field{Key: "interval", Value: r.cfg.Auto.Interval.String()})
	}

	if r.cfg.Metrics.Addr != "" {
		r.startMetrics()
	}
	return nil
}

// Run starts the runtime and blocks until ctx is cancelled, then shuts down.
func (r *Runtime) Run(ctx context.Context) error {
	if err := r.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.Shutdown(shutdownCtx)
}

// Shutdown stops generation and the dispatcher, saves and exports file
// receiver logs, and closes every adapter.
func (r *Runtime) Shutdown(ctx context.Context) error {
	var errs []error

	if r.started {
		if err := r.dispatcher.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	if r.gaugeStopCh != nil {
		close(r.gaugeStopCh)
		r.gaugeStopCh = nil
	}
	if r.metricsSrv != nil {
		if err := r.metricsSrv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs = append(errs, err)
		}
	}

	if err := r.saveFiles(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := r.closeAll(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

type bucketEnsurer interface {
	EnsureBucket(ctx context.Context) error
}

func (r *Runtime) saveFiles(ctx context.Context) error {
	var errs []error
	for _, f := range r.files {
		if f.path == "" {
			continue
		}
		if err := f.file.Save(f.path); err != nil {
			errs = append(errs, err)
		}
	}

	if r.exporter == nil || len(r.files) == 0 {
		return errors.Join(errs...)
	}
	if b, ok := r.exporter.(bucketEnsurer); ok {
		if err := b.EnsureBucket(ctx); err != nil {
			return errors.Join(append(errs, fmt.Errorf("export bucket: %w", err))...)
		}
	}
	for _, f := range r.files {
		exp := f.file.Export()
		object, err := r.exporter.Upload(ctx, exp.Name, exp.MIMEType, []byte(exp.Content))
		if err != nil {
			errs = append(errs, fmt.Errorf("export %s: %w", exp.Name, err))
			continue
		}
		r.obs.LogInfo("receiver log exported", ports.Field{Key: "object", Value: object})
	}
	return errors.Join(errs...)
}

func (r *Runtime) closeAll() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}

func (r *Runtime) startMetrics() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.metricsSrv = &http.Server{
		Addr:              r.cfg.Metrics.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := r.metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.obs.LogError("metrics server exited", err)
		}
	}()

	r.gaugeStopCh = make(chan struct{})
	go r.recordGauges(r.gaugeStopCh, time.Second)
}

func (r *Runtime) recordGauges(stop <-chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			r.obs.SetGauge(ports.MetricOutboxSize, float64(r.outbox.Stats().SizeBytes))
			r.obs.SetGauge(ports.MetricQueueLength, float64(r.queue.Len()))
		}
	}
}
