package broker

import (
	"errors"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/ghalamif/telegraph/internal/domain"
	"github.com/ghalamif/telegraph/internal/ports"
)

type MQTTConfig struct {
	BrokerURL   string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
	QoS         byte
	Timeout     time.Duration
}

type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTT publishes each message to <prefix>/<recipient>.
type MQTT struct {
	client  publisher
	prefix  string
	qos     byte
	timeout time.Duration
	close   func()
}

// NewMQTT connects to the broker and returns a sink publishing through it.
func NewMQTT(cfg MQTTConfig) (*MQTT, error) {
	if cfg.BrokerURL == "" {
		return nil, errors.New("mqtt: broker url is required")
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "telegraph"
	}
	if cfg.QoS > 2 {
		return nil, fmt.Errorf("mqtt: invalid qos %d", cfg.QoS)
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.BrokerURL).
		SetClientID(cfg.ClientID).
		SetCleanSession(true).
		SetKeepAlive(30 * time.Second).
		SetPingTimeout(10 * time.Second).
		SetAutoReconnect(true)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	m := newMQTT(nil, cfg)
	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(m.timeout) {
		return nil, fmt.Errorf("mqtt: connect to %s timed out", cfg.BrokerURL)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}
	m.client = client
	m.close = func() { client.Disconnect(250) }
	return m, nil
}

func newMQTT(p publisher, cfg MQTTConfig) *MQTT {
	if cfg.TopicPrefix == "" {
		cfg.TopicPrefix = "telegraph"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &MQTT{
		client:  p,
		prefix:  strings.TrimSuffix(cfg.TopicPrefix, "/"),
		qos:     cfg.QoS,
		timeout: cfg.Timeout,
		close:   func() {},
	}
}

func (m *MQTT) Name() string { return "mqtt" }

// Topic returns the topic a message for recipient is published on.
func (m *MQTT) Topic(recipient string) string {
	r := strings.Map(func(c rune) rune {
		switch c {
		case '/', '+', '#', ' ':
			return '_'
		}
		return c
	}, recipient)
	if r == "" {
		r = "unknown"
	}
	return m.prefix + "/" + r
}

func (m *MQTT) WriteBatch(messages []*domain.Message) error {
	for _, msg := range messages {
		payload, err := encode(msg)
		if err != nil {
			return fmt.Errorf("mqtt encode %s: %w", msg.ID, err)
		}
		topic := m.Topic(msg.Recipient)
		token := m.client.Publish(topic, m.qos, false, payload)
		if !token.WaitTimeout(m.timeout) {
			return fmt.Errorf("mqtt publish to %s timed out", topic)
		}
		if err := token.Error(); err != nil {
			return fmt.Errorf("mqtt publish to %s: %w", topic, err)
		}
	}
	return nil
}

func (m *MQTT) Close() error {
	m.close()
	return nil
}

var _ ports.Sink = (*MQTT)(nil)
