package events

import (
	"context"
	"encoding/json"
	"fmt"

	"kickoff/internal/intake/models"
	"kickoff/internal/platform/kafka/producer"
)

const DefaultTopic = "form.submissions"

// MessageProducer is the subset of the Kafka producer the publisher needs.
type MessageProducer interface {
	Produce(ctx context.Context, msg *producer.Message) error
}

// KafkaPublisher writes events as JSON, keyed by form id so events for one
// form stay ordered within a partition.
type KafkaPublisher struct {
	producer MessageProducer
	topic    string
}

func NewKafkaPublisher(p MessageProducer, topic string) *KafkaPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &KafkaPublisher{producer: p, topic: topic}
}

func (k *KafkaPublisher) Publish(ctx context.Context, event models.SubmissionEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode submission event: %w", err)
	}
	return k.producer.Produce(ctx, &producer.Message{
		Topic: k.topic,
		Key:   []byte(event.FormID),
		Value: value,
		Headers: map[string]string{
			"event_type": "form.submission.recorded",
			"event_id":   event.ID,
		},
	})
}
