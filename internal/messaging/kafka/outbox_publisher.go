package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/breaktime/internal/domain"
)

// OutboxTopicPublisher публикует outbox-сообщения в заданный Kafka topic.
type OutboxTopicPublisher struct {
	producer *Producer
	topic    string
	// originalTopic заполняется у DLQ-паблишера и уходит в заголовок x-original-topic.
	originalTopic string
	now           func() time.Time
}

// NewOutboxPublisher создаёт Kafka-паблишер событий заказов.
func NewOutboxPublisher(producer *Producer, topic string) *OutboxTopicPublisher {
	if topic == "" {
		topic = TopicOrderEvents
	}
	return &OutboxTopicPublisher{
		producer: producer,
		topic:    topic,
		now:      time.Now,
	}
}

// NewDLQPublisher создаёт паблишер в dead-letter topic для сообщений из originalTopic.
func NewDLQPublisher(producer *Producer, originalTopic string) *OutboxTopicPublisher {
	if originalTopic == "" {
		originalTopic = TopicOrderEvents
	}
	return &OutboxTopicPublisher{
		producer:      producer,
		topic:         TopicDeadLetterQueue,
		originalTopic: originalTopic,
		now:           time.Now,
	}
}

// Topic возвращает целевой topic.
func (p *OutboxTopicPublisher) Topic() string {
	return p.topic
}

// Publish заворачивает событие в Envelope; ключ сообщения — ID заказа.
func (p *OutboxTopicPublisher) Publish(event domain.OutboxMessage) error {
	if p == nil || p.producer == nil {
		return fmt.Errorf("kafka outbox publisher is not initialized")
	}

	now := p.now().UTC()
	body, err := json.Marshal(Envelope{
		ID:            event.ID,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		EventType:     event.EventType,
		Payload:       json.RawMessage(event.Body()),
		PublishedAt:   now,
	})
	if err != nil {
		return fmt.Errorf("marshal outbox envelope: %w", err)
	}

	headers := map[string]string{
		HeaderEventType: event.EventType,
		HeaderOutboxID:  event.ID,
	}
	if p.originalTopic != "" {
		headers[HeaderOriginalTopic] = p.originalTopic
		headers[HeaderFailedAt] = now.Format(time.RFC3339Nano)
	}

	return p.producer.PublishMessage(p.topic, event.PartitionKey(), body, headers)
}

var _ domain.OutboxPublisher = (*OutboxTopicPublisher)(nil)
