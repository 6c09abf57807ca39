package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"
)

const defaultPoolSize = 4

// ErrPoolExhausted возвращается, когда все каналы пула заняты.
var ErrPoolExhausted = errors.New("no channels available in pool")

// ErrPoolClosed возвращается после Close.
var ErrPoolClosed = errors.New("channel pool is closed")

// channel — подмножество *amqp.Channel, которое использует паблишер.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	IsClosed() bool
	Close() error
}

// ChannelPool держит фиксированный набор AMQP-каналов поверх одного соединения.
type ChannelPool struct {
	conn       *amqp.Connection
	channels   chan channel
	newChannel func() (channel, error)
	mu         sync.Mutex
	closed     bool
	queueName  string
	logger     *log.Entry
}

// NewChannelPool подключается к RabbitMQ и заранее открывает size каналов с объявленной очередью.
func NewChannelPool(url, queueName string, size int, logger *log.Entry) (*ChannelPool, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	factory := func() (channel, error) {
		ch, err := conn.Channel()
		if err != nil {
			return nil, err
		}
		// QueueDeclare идемпотентен.
		if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("failed to declare queue %s: %w", queueName, err)
		}
		return ch, nil
	}

	pool, err := newChannelPool(queueName, size, factory, logger)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	pool.conn = conn
	return pool, nil
}

func newChannelPool(queueName string, size int, factory func() (channel, error), logger *log.Entry) (*ChannelPool, error) {
	if size <= 0 {
		size = defaultPoolSize
	}
	if logger == nil {
		logger = log.WithField("component", "rabbitmq-pool")
	}

	pool := &ChannelPool{
		channels:   make(chan channel, size),
		newChannel: factory,
		queueName:  queueName,
		logger:     logger,
	}

	for i := 0; i < size; i++ {
		ch, err := factory()
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to create channel %d: %w", i, err)
		}
		pool.channels <- ch
	}

	logger.WithFields(log.Fields{"size": size, "queue": queueName}).Info("rabbitmq channel pool created")
	return pool, nil
}

// QueueName возвращает имя очереди, объявленной на каналах пула.
func (p *ChannelPool) QueueName() string {
	return p.queueName
}

func (p *ChannelPool) acquire() (channel, error) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return nil, ErrPoolClosed
	}

	select {
	case ch, ok := <-p.channels:
		if !ok {
			return nil, ErrPoolClosed
		}
		if ch.IsClosed() {
			// Канал закрыт брокером, открываем замену.
			return p.newChannel()
		}
		return ch, nil
	default:
		return nil, ErrPoolExhausted
	}
}

func (p *ChannelPool) release(ch channel) {
	if ch == nil || ch.IsClosed() {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		_ = ch.Close()
		return
	}
	select {
	case p.channels <- ch:
	default:
		_ = ch.Close()
	}
}

// Close закрывает все каналы и соединение. Повторный вызов безопасен.
func (p *ChannelPool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true

	close(p.channels)
	for ch := range p.channels {
		_ = ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.logger.Info("rabbitmq channel pool closed")
}
