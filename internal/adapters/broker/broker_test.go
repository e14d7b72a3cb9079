package broker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghalamif/telegraph/internal/domain"
)

type fakeWriter struct {
	got    []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("missing deadline")
	}
	f.got = append(f.got, msgs...)
	return f.err
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

type fakeToken struct {
	err     error
	timeout bool
}

func (t fakeToken) Wait() bool                     { return !t.timeout }
func (t fakeToken) WaitTimeout(time.Duration) bool { return !t.timeout }
func (t fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t fakeToken) Error() error { return t.err }

type published struct {
	topic   string
	qos     byte
	payload []byte
}

type fakePublisher struct {
	got   []published
	token fakeToken
}

func (f *fakePublisher) Publish(topic string, qos byte, _ bool, payload interface{}) mqtt.Token {
	f.got = append(f.got, published{topic: topic, qos: qos, payload: payload.([]byte)})
	return f.token
}

func message(recipient string) *domain.Message {
	m := domain.NewMessage("SOS", "Operator", recipient)
	m.OriginID = "MSG-ORIGIN"
	return m
}

func TestKafkaWriteBatch(t *testing.T) {
	w := &fakeWriter{}
	k := newKafka(w, KafkaConfig{Topic: "telegraph.messages"})

	require.NoError(t, k.WriteBatch([]*domain.Message{message("desk"), message("harbour")}))
	require.Len(t, w.got, 2)

	assert.Equal(t, "desk", string(w.got[0].Key))
	assert.Equal(t, "harbour", string(w.got[1].Key))
	assert.Equal(t, "sender", w.got[0].Headers[0].Key)
	assert.Equal(t, "Operator", string(w.got[0].Headers[0].Value))

	var env envelope
	require.NoError(t, json.Unmarshal(w.got[0].Value, &env))
	assert.Equal(t, "SOS", env.Content)
	assert.Equal(t, "MSG-ORIGIN", env.OriginID)

	require.NoError(t, k.Close())
	assert.True(t, w.closed)
	assert.Equal(t, "kafka", k.Name())
}

func TestKafkaWriteBatchError(t *testing.T) {
	w := &fakeWriter{err: errors.New("leader not available")}
	k := newKafka(w, KafkaConfig{Topic: "t"})

	err := k.WriteBatch([]*domain.Message{message("desk")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "leader not available")

	require.NoError(t, k.WriteBatch(nil))
}

func TestNewKafkaValidation(t *testing.T) {
	_, err := NewKafka(KafkaConfig{Topic: "t"})
	require.Error(t, err)
	_, err = NewKafka(KafkaConfig{Brokers: []string{"localhost:9092"}})
	require.Error(t, err)

	k, err := NewKafka(KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "t"})
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeout, k.timeout)
	require.NoError(t, k.Close())
}

func TestMQTTPublishesPerRecipient(t *testing.T) {
	p := &fakePublisher{}
	m := newMQTT(p, MQTTConfig{TopicPrefix: "line/", QoS: 1})

	require.NoError(t, m.WriteBatch([]*domain.Message{message("desk"), message("harbour master")}))
	require.Len(t, p.got, 2)
	assert.Equal(t, "line/desk", p.got[0].topic)
	assert.Equal(t, "line/harbour_master", p.got[1].topic)
	assert.Equal(t, byte(1), p.got[0].qos)

	var env envelope
	require.NoError(t, json.Unmarshal(p.got[0].payload, &env))
	assert.Equal(t, "desk", env.Recipient)
}

func TestMQTTTopic(t *testing.T) {
	m := newMQTT(&fakePublisher{}, MQTTConfig{})
	assert.Equal(t, "telegraph/a_b_c", m.Topic("a/b#c"))
	assert.Equal(t, "telegraph/unknown", m.Topic(""))
}

func TestMQTTPublishFailures(t *testing.T) {
	m := newMQTT(&fakePublisher{token: fakeToken{err: errors.New("not connected")}}, MQTTConfig{})
	err := m.WriteBatch([]*domain.Message{message("desk")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not connected")

	m = newMQTT(&fakePublisher{token: fakeToken{timeout: true}}, MQTTConfig{})
	err = m.WriteBatch([]*domain.Message{message("desk")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}

func TestNewMQTTValidation(t *testing.T) {
	_, err := NewMQTT(MQTTConfig{})
	require.Error(t, err)
	_, err = NewMQTT(MQTTConfig{BrokerURL: "tcp://localhost:1883", QoS: 3})
	require.Error(t, err)
}
