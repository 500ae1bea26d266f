package transmission

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

var errMQTTTimeout = errors.New("mqtt operation timed out")

// MQTTSink publishes payloads at QoS 0.
type MQTTSink struct {
	client mqtt.Client
	topic  string
}

// DialMQTT connects to broker and returns a sink publishing to topic.
func DialMQTT(broker, clientID, topic string, timeout time.Duration) (*MQTTSink, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetConnectTimeout(timeout).
		SetAutoReconnect(true)
	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(timeout) {
		return nil, fmt.Errorf("connect %s: %w", broker, errMQTTTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect %s: %w", broker, err)
	}
	return NewMQTTSink(client, topic), nil
}

// NewMQTTSink wraps an already connected client.
func NewMQTTSink(client mqtt.Client, topic string) *MQTTSink {
	return &MQTTSink{client: client, topic: topic}
}

// Name implements Sink.
func (s *MQTTSink) Name() string { return "mqtt" }

// Send publishes p and waits for the token until ctx is done.
func (s *MQTTSink) Send(ctx context.Context, p Payload) error {
	b, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	token := s.client.Publish(s.topic, 0, false, b)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return fmt.Errorf("publish %s: %w", s.topic, ctx.Err())
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", s.topic, err)
	}
	return nil
}

// Close disconnects from the broker.
func (s *MQTTSink) Close() error {
	s.client.Disconnect(250)
	return nil
}
