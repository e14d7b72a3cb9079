package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
policy:
  max_queue_len: 50
line:
  emitters:
    - kind: Manual
      manual:
        wpm: 20
  intermediates:
    - type: channel
      kind: SUBMARINE
      channel:
        distance_km: 800
        depth_m: 4000
    - type: relay
      kind: battery
      relay:
        capacity: 50
  receivers:
    - kind: memory
      checksum_tolerance: 0
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Encoder != "morse" {
		t.Fatalf("expected default encoder morse, got %s", cfg.Encoder)
	}
	if cfg.Policy.MaxQueueLen != 50 {
		t.Fatalf("expected MaxQueueLen 50, got %d", cfg.Policy.MaxQueueLen)
	}
	if cfg.Policy.IdleSleep != 20*time.Millisecond {
		t.Fatalf("expected IdleSleep default 20ms, got %s", cfg.Policy.IdleSleep)
	}
	if cfg.Policy.OnQueueFull != "block" || cfg.Policy.OnOutboxFull != "block" {
		t.Fatalf("expected block policies, got %+v", cfg.Policy)
	}
	if cfg.Metrics.Addr != ":9100" {
		t.Fatalf("expected default metrics addr :9100, got %s", cfg.Metrics.Addr)
	}
	if cfg.Outbox.Driver != OutboxFile || cfg.Outbox.Dir != "./data/outbox" {
		t.Fatalf("unexpected outbox defaults %+v", cfg.Outbox)
	}
	if cfg.Auto.Interval != 3*time.Second {
		t.Fatalf("expected auto interval 3s, got %s", cfg.Auto.Interval)
	}

	if got := cfg.Line.Emitters[0].Kind; got != EmitterManual {
		t.Fatalf("expected emitter kind normalised to manual, got %s", got)
	}
	sub := cfg.Line.Intermediates[0]
	if sub.Kind != ChannelSubmarine || *sub.Channel.DistanceKm != 800 || *sub.Channel.DepthM != 4000 {
		t.Fatalf("unexpected submarine block %+v", sub)
	}
	if sub.Channel.Attenuation != nil {
		t.Fatalf("expected unset attenuation to stay nil")
	}
	if *cfg.Line.Intermediates[1].Relay.Capacity != 50 {
		t.Fatalf("expected battery capacity 50")
	}
	if tol := cfg.Line.Receivers[0].ChecksumTolerance; tol == nil || *tol != 0 {
		t.Fatalf("expected explicit zero tolerance to be kept")
	}
}

func TestLoadWithoutFileUsesDefaultLine(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Line.Emitters) != 1 || len(cfg.Line.Intermediates) != 2 || len(cfg.Line.Receivers) != 1 {
		t.Fatalf("unexpected default line %+v", cfg.Line)
	}
	if cfg.Line.Intermediates[1].Kind != RelaySimple {
		t.Fatalf("expected simple relay in default line")
	}
}

func TestEnvOverlay(t *testing.T) {
	t.Setenv("TELEGRAPH_METRICS_ADDR", ":9300")
	t.Setenv("TELEGRAPH_OUTBOX_DIR", "/tmp/telegraph-outbox")
	t.Setenv("TELEGRAPH_ENCODER", "baudot")
	t.Setenv("TELEGRAPH_SEED", "42")
	t.Setenv("TELEGRAPH_ARCHIVE_DSN", "archive.db")
	t.Setenv("TELEGRAPH_KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := Parse([]byte("metrics:\n  addr: \":9200\"\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Metrics.Addr != ":9300" {
		t.Fatalf("expected env to win over file, got %s", cfg.Metrics.Addr)
	}
	if cfg.Outbox.Dir != "/tmp/telegraph-outbox" {
		t.Fatalf("unexpected outbox dir %s", cfg.Outbox.Dir)
	}
	if cfg.Encoder != "baudot" || cfg.Seed != 42 {
		t.Fatalf("unexpected encoder/seed %s/%d", cfg.Encoder, cfg.Seed)
	}
	if cfg.Archive.DSN != "archive.db" {
		t.Fatalf("unexpected dsn %s", cfg.Archive.DSN)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "k2:9092" {
		t.Fatalf("unexpected brokers %v", cfg.Kafka.Brokers)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]string{
		"encoder":      "encoder: klingon\n",
		"queue policy": "policy:\n  on_queue_full: explode\n",
		"auto":         "auto:\n  interval: 100ms\n",
		"outbox":       "outbox:\n  driver: redis\n",
		"type":         "line:\n  emitters: [{kind: manual}]\n  intermediates: [{type: cable, kind: terrestrial}]\n",
		"archive":      "line:\n  emitters: [{kind: manual}]\n  receivers: [{kind: archive}]\n",
		"kafka":        "line:\n  emitters: [{kind: manual}]\n  receivers: [{kind: kafka}]\n",
		"probability":  "line:\n  emitters: [{kind: manual, manual: {human_error_probability: 2}}]\n",
		"influx":       "influx:\n  url: http://localhost:8086\n",
	}
	for name, data := range cases {
		if _, err := Parse([]byte(data)); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestValidateErrorNamesField(t *testing.T) {
	_, err := Parse([]byte("line:\n  emitters: [{kind: manual}]\n  receivers: [{kind: mqtt}]\n"))
	if err == nil || !strings.Contains(err.Error(), "mqtt.broker_url") {
		t.Fatalf("expected mqtt.broker_url error, got %v", err)
	}
}
