package domain

import "time"

// OutboxStatus — состояние записи outbox. Переходы только pending -> sent и pending -> failed.
type OutboxStatus string

const (
	OutboxStatusPending OutboxStatus = "pending"
	OutboxStatusSent    OutboxStatus = "sent"
	OutboxStatusFailed  OutboxStatus = "failed"
)

// OutboxMessage — событие о заказе, ожидающее публикации в брокер.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// PartitionKey держит события одного заказа в одной партиции.
func (m OutboxMessage) PartitionKey() string {
	if m.AggregateID != "" {
		return m.AggregateID
	}
	return m.ID
}

// Body возвращает payload; пустой payload публикуется как {}.
func (m OutboxMessage) Body() []byte {
	if len(m.Payload) == 0 {
		return []byte(`{}`)
	}
	return m.Payload
}

// OutboxStats — размер backlog и возраст самого старого pending-события.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}

// OutboxRepository хранит события заказов до публикации.
type OutboxRepository interface {
	Enqueue(msg OutboxMessage) (OutboxMessage, error)
	// PullPending возвращает до limit pending-событий в порядке постановки.
	PullPending(limit int) ([]OutboxMessage, error)
	Stats() (OutboxStats, error)
	MarkSent(id string) error
	MarkFailed(id string) error
}

// OutboxPublisher доставляет событие в брокер (Kafka topic или очередь RabbitMQ).
type OutboxPublisher interface {
	Publish(event OutboxMessage) error
}
