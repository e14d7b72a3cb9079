package broker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/ghalamif/telegraph/internal/domain"
	"github.com/ghalamif/telegraph/internal/ports"
)

type KafkaConfig struct {
	Brokers []string
	Topic   string
	Timeout time.Duration
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes every message to one topic keyed by recipient, so a
// recipient's messages stay ordered within a partition.
type Kafka struct {
	w       messageWriter
	topic   string
	timeout time.Duration
}

func NewKafka(cfg KafkaConfig) (*Kafka, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka: at least one broker is required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka: topic is required")
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
	return newKafka(w, cfg), nil
}

func newKafka(w messageWriter, cfg KafkaConfig) *Kafka {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Kafka{w: w, topic: cfg.Topic, timeout: cfg.Timeout}
}

func (k *Kafka) Name() string { return "kafka" }

func (k *Kafka) WriteBatch(messages []*domain.Message) error {
	if len(messages) == 0 {
		return nil
	}
	out := make([]kafka.Message, 0, len(messages))
	for _, m := range messages {
		value, err := encode(m)
		if err != nil {
			return fmt.Errorf("kafka encode %s: %w", m.ID, err)
		}
		out = append(out, kafka.Message{
			Key:   []byte(m.Recipient),
			Value: value,
			Headers: []kafka.Header{
				{Key: "sender", Value: []byte(m.Sender)},
				{Key: "message_id", Value: []byte(m.ID)},
			},
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), k.timeout)
	defer cancel()
	if err := k.w.WriteMessages(ctx, out...); err != nil {
		return fmt.Errorf("kafka publish to %s: %w", k.topic, err)
	}
	return nil
}

func (k *Kafka) Close() error { return k.w.Close() }

var _ ports.Sink = (*Kafka)(nil)
