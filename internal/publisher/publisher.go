// Package publisher mirrors telemetry samples to a message broker.
package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"dt_fancontrol/internal/metrics"
	"dt_fancontrol/internal/models"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const defaultPublishTimeout = 2 * time.Second

var ErrPublishTimeout = errors.New("publish timed out")

// Publisher sends one sample to the outside world.
type Publisher interface {
	Publish(ctx context.Context, sample models.TelemetrySample) error
	Close()
}

// Nop drops every sample.
type Nop struct{}

func (Nop) Publish(context.Context, models.TelemetrySample) error { return nil }
func (Nop) Close()                                                {}

// Client is the part of mqtt.Client the publisher uses.
type Client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

type MQTTConfig struct {
	Broker   string
	ClientID string
	Topic    string
	QoS      byte
	Retained bool
	Username string
	Password string
	Timeout  time.Duration
}

// MQTT publishes samples as JSON to a single topic.
type MQTT struct {
	client   Client
	topic    string
	qos      byte
	retained bool
	timeout  time.Duration
}

// samplePayload is the JSON body published for each sample.
type samplePayload struct {
	Water      float64   `json:"water_c"`
	Ambient    float64   `json:"ambient_c"`
	DeltaT     float64   `json:"delta_t_c"`
	Duty       float64   `json:"duty_percent"`
	ReceivedAt time.Time `json:"received_at"`
}

// NewMQTT connects to the broker and returns a publisher on cfg.Topic.
func NewMQTT(cfg MQTTConfig) (*MQTT, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(5 * time.Second)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username).SetPassword(cfg.Password)
	}

	c := mqtt.NewClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect mqtt broker %s: %w", cfg.Broker, token.Error())
	}
	return NewMQTTWithClient(c, cfg), nil
}

// NewMQTTWithClient wraps an already connected client.
func NewMQTTWithClient(c Client, cfg MQTTConfig) *MQTT {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}
	return &MQTT{client: c, topic: cfg.Topic, qos: cfg.QoS, retained: cfg.Retained, timeout: timeout}
}

func (m *MQTT) Publish(ctx context.Context, sample models.TelemetrySample) error {
	payload, err := json.Marshal(samplePayload{
		Water:      sample.WaterTemp,
		Ambient:    sample.AmbientTemp,
		DeltaT:     sample.DeltaT(),
		Duty:       sample.FanDuty,
		ReceivedAt: sample.ReceivedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal sample: %w", err)
	}

	token := m.client.Publish(m.topic, m.qos, m.retained, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		metrics.PublishFailures.Inc()
		return ctx.Err()
	case <-time.After(m.timeout):
		metrics.PublishFailures.Inc()
		return ErrPublishTimeout
	}
	if err := token.Error(); err != nil {
		metrics.PublishFailures.Inc()
		return fmt.Errorf("publish %s: %w", m.topic, err)
	}
	return nil
}

func (m *MQTT) Close() {
	m.client.Disconnect(250)
}
