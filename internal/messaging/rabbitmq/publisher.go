package rabbitmq

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/vladislavdragonenkov/breaktime/internal/domain"
)

const publishTimeout = 5 * time.Second

// OutboxQueuePublisher публикует outbox-сообщения в очередь RabbitMQ через default exchange.
type OutboxQueuePublisher struct {
	pool *ChannelPool
	now  func() time.Time
}

// NewOutboxQueuePublisher создаёт паблишер поверх пула каналов.
func NewOutboxQueuePublisher(pool *ChannelPool) *OutboxQueuePublisher {
	return &OutboxQueuePublisher{pool: pool, now: time.Now}
}

func (p *OutboxQueuePublisher) Publish(msg domain.OutboxMessage) error {
	if p == nil || p.pool == nil {
		return fmt.Errorf("rabbitmq outbox publisher is not initialized")
	}

	ch, err := p.pool.acquire()
	if err != nil {
		return fmt.Errorf("failed to get channel from pool: %w", err)
	}
	defer p.pool.release(ch)

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	err = ch.PublishWithContext(ctx,
		"",                 // exchange
		p.pool.QueueName(), // routing key
		false,              // mandatory
		false,              // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			MessageId:    msg.ID,
			Type:         msg.EventType,
			Timestamp:    p.now().UTC(),
			Headers: amqp.Table{
				"aggregate_type": msg.AggregateType,
				"aggregate_id":   msg.AggregateID,
			},
			Body: msg.Body(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish outbox message %s: %w", msg.ID, err)
	}

	return nil
}

var _ domain.OutboxPublisher = (*OutboxQueuePublisher)(nil)
