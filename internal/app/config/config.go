package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/ghalamif/telegraph/internal/encoding"
	"github.com/ghalamif/telegraph/internal/ports"
)

// Component kinds understood by the factory.
const (
	EmitterManual     = "manual"
	EmitterAutomatic  = "automatic"
	EmitterDiagnostic = "diagnostic"

	IntermediateChannel = "channel"
	IntermediateRelay   = "relay"

	ChannelTerrestrial = "terrestrial"
	ChannelSubmarine   = "submarine"
	ChannelSimulated   = "simulated"

	RelaySimple   = "simple"
	RelayBattery  = "battery"
	RelayAdaptive = "adaptive"

	ReceiverConsole = "console"
	ReceiverFile    = "file"
	ReceiverMemory  = "memory"
	ReceiverArchive = "archive"
	ReceiverKafka   = "kafka"
	ReceiverMQTT    = "mqtt"
)

const (
	OutboxFile = "file"
	OutboxBolt = "bolt"
)

// MinAutoInterval is the shortest interval between generated messages.
const MinAutoInterval = 500 * time.Millisecond

type Config struct {
	Encoder string       `yaml:"encoder" env:"TELEGRAPH_ENCODER"`
	Seed    int64        `yaml:"seed" env:"TELEGRAPH_SEED"`
	Line    LineConfig   `yaml:"line"`
	Policy  ports.Policy `yaml:"policy"`
	Auto    AutoConfig   `yaml:"auto"`

	Outbox  OutboxConfig  `yaml:"outbox"`
	Metrics MetricsConfig `yaml:"metrics"`
	Archive ArchiveConfig `yaml:"archive"`
	Kafka   KafkaConfig   `yaml:"kafka"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	Influx  InfluxConfig  `yaml:"influx"`
	Export  ExportConfig  `yaml:"export"`
}

type LineConfig struct {
	Emitters      []EmitterConfig      `yaml:"emitters"`
	Intermediates []IntermediateConfig `yaml:"intermediates"`
	Receivers     []ReceiverConfig     `yaml:"receivers"`
}

type EmitterConfig struct {
	Kind       string           `yaml:"kind"`
	ID         string           `yaml:"id"`
	Name       string           `yaml:"name"`
	Manual     ManualParams     `yaml:"manual"`
	Automatic  AutomaticParams  `yaml:"automatic"`
	Diagnostic DiagnosticParams `yaml:"diagnostic"`
}

type ManualParams struct {
	WPM                   int      `yaml:"wpm"`
	HumanErrorProbability *float64 `yaml:"human_error_probability"`
}

type AutomaticParams struct {
	Interval time.Duration `yaml:"interval"`
}

type DiagnosticParams struct {
	ForceFailure bool `yaml:"force_failure"`
}

// IntermediateConfig describes a channel or a relay placed between the
// emitters and the receivers.
type IntermediateConfig struct {
	Type    string        `yaml:"type"`
	Kind    string        `yaml:"kind"`
	ID      string        `yaml:"id"`
	Name    string        `yaml:"name"`
	Channel ChannelParams `yaml:"channel"`
	Relay   RelayParams   `yaml:"relay"`
}

// ChannelParams overrides the defaults of a channel kind. Nil means default.
type ChannelParams struct {
	DistanceKm         *float64 `yaml:"distance_km"`
	Attenuation        *float64 `yaml:"attenuation"`
	FailureProbability *float64 `yaml:"failure_probability"`
	MinIntensity       float64  `yaml:"min_intensity"`
	MaxRangeKm         float64  `yaml:"max_range_km"`

	// terrestrial
	Weather string `yaml:"weather"`
	// submarine
	DepthM *float64 `yaml:"depth_m"`
	// simulated
	FixedLatencyMs *float64 `yaml:"fixed_latency_ms"`
	Lossless       bool     `yaml:"lossless"`
}

// RelayParams overrides the defaults of a relay kind. Nil means default.
type RelayParams struct {
	DetectionThreshold  *float64 `yaml:"detection_threshold"`
	AmplificationFactor *float64 `yaml:"amplification_factor"`

	// simple
	ReleaseMs *float64 `yaml:"release_ms"`
	// battery
	Capacity             *float64 `yaml:"capacity"`
	BaseCost             *float64 `yaml:"base_cost"`
	PerAmplificationCost *float64 `yaml:"per_amplification_cost"`
	// adaptive
	ErrorCorrection  *bool    `yaml:"error_correction"`
	Adaptive         *bool    `yaml:"adaptive"`
	QualityThreshold *float64 `yaml:"quality_threshold"`
}

type ReceiverConfig struct {
	Kind              string        `yaml:"kind"`
	ID                string        `yaml:"id"`
	Name              string        `yaml:"name"`
	ChecksumTolerance *int          `yaml:"checksum_tolerance"`
	HistoryLimit      int           `yaml:"history_limit"`
	Console           ConsoleParams `yaml:"console"`
	File              FileParams    `yaml:"file"`
	Memory            MemoryParams  `yaml:"memory"`
}

type ConsoleParams struct {
	Detail string `yaml:"detail"`
	Prefix string `yaml:"prefix"`
}

type FileParams struct {
	Name   string `yaml:"name"`
	Format string `yaml:"format"`
	// Path, when set, is where the log is saved on shutdown.
	Path string `yaml:"path"`
}

type MemoryParams struct {
	Capacity int `yaml:"capacity"`
}

// AutoConfig drives the automatic message generator.
type AutoConfig struct {
	Enabled  bool          `yaml:"enabled" env:"TELEGRAPH_AUTO"`
	Interval time.Duration `yaml:"interval" env:"TELEGRAPH_AUTO_INTERVAL"`
}

type OutboxConfig struct {
	Driver string `yaml:"driver" env:"TELEGRAPH_OUTBOX_DRIVER"`
	Dir    string `yaml:"dir" env:"TELEGRAPH_OUTBOX_DIR"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr" env:"TELEGRAPH_METRICS_ADDR"`
}

type ArchiveConfig struct {
	DSN   string `yaml:"dsn" env:"TELEGRAPH_ARCHIVE_DSN"`
	Table string `yaml:"table"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers" env:"TELEGRAPH_KAFKA_BROKERS" envSeparator:","`
	Topic   string   `yaml:"topic" env:"TELEGRAPH_KAFKA_TOPIC"`
}

type MQTTConfig struct {
	BrokerURL   string `yaml:"broker_url" env:"TELEGRAPH_MQTT_URL"`
	ClientID    string `yaml:"client_id"`
	Username    string `yaml:"username" env:"TELEGRAPH_MQTT_USERNAME"`
	Password    string `yaml:"password" env:"TELEGRAPH_MQTT_PASSWORD"`
	TopicPrefix string `yaml:"topic_prefix"`
	QoS         byte   `yaml:"qos"`
}

// InfluxConfig enables transmission reports when URL is set.
type InfluxConfig struct {
	URL    string `yaml:"url" env:"TELEGRAPH_INFLUX_URL"`
	Token  string `yaml:"token" env:"TELEGRAPH_INFLUX_TOKEN"`
	Org    string `yaml:"org"`
	Bucket string `yaml:"bucket"`
}

// ExportConfig enables uploading file receiver logs when Endpoint is set.
type ExportConfig struct {
	Endpoint  string `yaml:"endpoint" env:"TELEGRAPH_EXPORT_ENDPOINT"`
	AccessKey string `yaml:"access_key" env:"TELEGRAPH_EXPORT_ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" env:"TELEGRAPH_EXPORT_SECRET_KEY"`
	UseTLS    bool   `yaml:"use_tls"`
	Bucket    string `yaml:"bucket"`
	BasePath  string `yaml:"base_path"`
}

// Load reads a YAML file, overlays the environment and validates the result.
// An empty path starts from the default line.
func Load(path string) (*Config, error) {
	if path == "" {
		return Parse(nil)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the validated default configuration without reading the
// environment.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// DefaultLine is a manual emitter keyed over 100 km of cable, one simple
// relay and a memory receiver.
func DefaultLine() LineConfig {
	return LineConfig{
		Emitters: []EmitterConfig{{Kind: EmitterManual}},
		Intermediates: []IntermediateConfig{
			{Type: IntermediateChannel, Kind: ChannelTerrestrial},
			{Type: IntermediateRelay, Kind: RelaySimple},
		},
		Receivers: []ReceiverConfig{{Kind: ReceiverMemory}},
	}
}

func (c *Config) applyDefaults() {
	if c.Encoder == "" {
		c.Encoder = encoding.MorseID
	}
	if len(c.Line.Emitters) == 0 && len(c.Line.Intermediates) == 0 && len(c.Line.Receivers) == 0 {
		c.Line = DefaultLine()
	}
	for i := range c.Line.Emitters {
		c.Line.Emitters[i].Kind = normalize(c.Line.Emitters[i].Kind)
	}
	for i := range c.Line.Intermediates {
		c.Line.Intermediates[i].Type = normalize(c.Line.Intermediates[i].Type)
		c.Line.Intermediates[i].Kind = normalize(c.Line.Intermediates[i].Kind)
	}
	for i := range c.Line.Receivers {
		c.Line.Receivers[i].Kind = normalize(c.Line.Receivers[i].Kind)
	}

	if c.Policy.MaxOutboxSizeBytes == 0 {
		c.Policy.MaxOutboxSizeBytes = 64 << 20
	}
	if c.Policy.MaxQueueLen == 0 {
		c.Policy.MaxQueueLen = 1_000
	}
	if c.Policy.MaxBatchSize == 0 {
		c.Policy.MaxBatchSize = 16
	}
	if c.Policy.IdleSleep == 0 {
		c.Policy.IdleSleep = 20 * time.Millisecond
	}
	if c.Policy.OnQueueFull == "" {
		c.Policy.OnQueueFull = "block"
	}
	if c.Policy.OnOutboxFull == "" {
		c.Policy.OnOutboxFull = "block"
	}
	if c.Auto.Interval == 0 {
		c.Auto.Interval = 3 * time.Second
	}
	if c.Outbox.Driver == "" {
		c.Outbox.Driver = OutboxFile
	}
	if c.Outbox.Dir == "" {
		c.Outbox.Dir = "./data/outbox"
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9100"
	}
	if c.Archive.Table == "" {
		c.Archive.Table = "telegraph_messages"
	}
	if c.MQTT.TopicPrefix == "" {
		c.MQTT.TopicPrefix = "telegraph"
	}
	if c.Export.BasePath == "" {
		c.Export.BasePath = "telegraph"
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (c *Config) validate() error {
	if _, err := encoding.Lookup(c.Encoder); err != nil {
		return err
	}
	switch c.Policy.OnQueueFull {
	case "block", "drop", "reject":
	default:
		return fmt.Errorf("policy.on_queue_full must be block, drop or reject, got %q", c.Policy.OnQueueFull)
	}
	switch c.Policy.OnOutboxFull {
	case "block", "drop":
	default:
		return fmt.Errorf("policy.on_outbox_full must be block or drop, got %q", c.Policy.OnOutboxFull)
	}
	if c.Policy.MaxQueueLen < 0 || c.Policy.MaxBatchSize < 0 {
		return fmt.Errorf("policy limits must not be negative")
	}
	if c.Auto.Interval < MinAutoInterval {
		return fmt.Errorf("auto.interval must be at least %s", MinAutoInterval)
	}
	switch c.Outbox.Driver {
	case OutboxFile, OutboxBolt:
	default:
		return fmt.Errorf("outbox.driver must be %s or %s, got %q", OutboxFile, OutboxBolt, c.Outbox.Driver)
	}
	if c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr is required")
	}

	for i, e := range c.Line.Emitters {
		if e.Kind == "" {
			return fmt.Errorf("line.emitters[%d].kind is required", i)
		}
		if p := e.Manual.HumanErrorProbability; p != nil && (*p < 0 || *p > 1) {
			return fmt.Errorf("line.emitters[%d].manual.human_error_probability must be within [0, 1]", i)
		}
	}
	for i, n := range c.Line.Intermediates {
		if n.Type != IntermediateChannel && n.Type != IntermediateRelay {
			return fmt.Errorf("line.intermediates[%d].type must be %s or %s, got %q", i, IntermediateChannel, IntermediateRelay, n.Type)
		}
		if n.Kind == "" {
			return fmt.Errorf("line.intermediates[%d].kind is required", i)
		}
		if p := n.Channel.FailureProbability; p != nil && (*p < 0 || *p > 1) {
			return fmt.Errorf("line.intermediates[%d].channel.failure_probability must be within [0, 1]", i)
		}
	}
	for i, r := range c.Line.Receivers {
		switch r.Kind {
		case "":
			return fmt.Errorf("line.receivers[%d].kind is required", i)
		case ReceiverArchive:
			if c.Archive.DSN == "" {
				return fmt.Errorf("line.receivers[%d]: archive.dsn is required", i)
			}
		case ReceiverKafka:
			if len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == "" {
				return fmt.Errorf("line.receivers[%d]: kafka.brokers and kafka.topic are required", i)
			}
		case ReceiverMQTT:
			if c.MQTT.BrokerURL == "" {
				return fmt.Errorf("line.receivers[%d]: mqtt.broker_url is required", i)
			}
		}
	}
	if c.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt.qos must be 0, 1 or 2")
	}
	if c.Influx.URL != "" && (c.Influx.Org == "" || c.Influx.Bucket == "") {
		return fmt.Errorf("influx.org and influx.bucket are required when influx.url is set")
	}
	if c.Export.Endpoint != "" && c.Export.Bucket == "" {
		return fmt.Errorf("export.bucket is required when export.endpoint is set")
	}
	return nil
}
