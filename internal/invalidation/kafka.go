package invalidation

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaNotifier publishes invalidation keys to a Kafka topic for caches that
// live outside this process.
type KafkaNotifier struct {
	writer *kafka.Writer
	topic  string
}

// NewKafkaNotifier creates a notifier that writes invalidation keys to the
// given topic. brokers must be non-empty. Call Close when shutting down.
func NewKafkaNotifier(brokers []string, topic string) (*KafkaNotifier, error) {
	if len(brokers) == 0 || topic == "" {
		return nil, nil
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
	}
	return &KafkaNotifier{writer: writer, topic: topic}, nil
}

// Invalidate serializes each key as JSON and writes it to the topic, keyed by
// user so all invalidations for one user land on one partition in order.
// Uses the request context with a short timeout so slow Kafka does not block
// the mutation indefinitely.
func (n *KafkaNotifier) Invalidate(ctx context.Context, keys []Key) error {
	if n == nil || n.writer == nil || len(keys) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(keys))
	for _, k := range keys {
		payload, err := json.Marshal(k)
		if err != nil {
			return err
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(k.UserID),
			Value: payload,
		})
	}
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := n.writer.WriteMessages(writeCtx, msgs...); err != nil {
		log.Printf("invalidation: kafka publish failed: %v", err)
		return err
	}
	return nil
}

// Close closes the Kafka writer. Safe to call multiple times.
func (n *KafkaNotifier) Close() error {
	if n == nil || n.writer == nil {
		return nil
	}
	return n.writer.Close()
}
