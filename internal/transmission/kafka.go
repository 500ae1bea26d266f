package transmission

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes each payload as one message keyed by device.
type KafkaSink struct {
	writer messageWriter
	topic  string
}

// NewKafkaSink creates a writer hashing device keys across the topic's partitions.
func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	return &KafkaSink{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			MaxAttempts:  1,
			RequiredAcks: kafka.RequireOne,
			// One message per tick: flush immediately instead of waiting out
			// the default one second batch timeout.
			BatchSize:    1,
			BatchTimeout: 10 * time.Millisecond,
		},
		topic: topic,
	}
}

// Name implements Sink.
func (s *KafkaSink) Name() string { return "kafka" }

// Send implements Sink.
func (s *KafkaSink) Send(ctx context.Context, p Payload) error {
	b, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	msg := kafka.Message{Key: []byte(p.Device), Value: b, Time: time.UnixMilli(p.Timestamp)}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write %s: %w", s.topic, err)
	}
	return nil
}

// Close flushes and closes the writer.
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
