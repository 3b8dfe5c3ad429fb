package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	"sentinelle/pkg/sentinel"
)

// KafkaStore streams audit events to a Kafka topic, keyed by decision ID so
// one record's events stay ordered within a partition. It is write-only;
// consumers read from the topic, not through this process.
type KafkaStore struct {
	client *kgo.Client
	topic  string
}

// NewKafkaStore connects a producer to the given brokers.
func NewKafkaStore(brokers []string, topic string) (*KafkaStore, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("connect kafka: %w", err)
	}
	return &KafkaStore{client: client, topic: topic}, nil
}

func (s *KafkaStore) Append(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.DecisionID),
		Value: value,
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

// ListByDecision is unsupported on a streaming sink.
func (s *KafkaStore) ListByDecision(context.Context, string) ([]Event, error) {
	return nil, sentinel.ErrUnavailable
}

// Close flushes and releases the producer.
func (s *KafkaStore) Close() {
	s.client.Close()
}
