package app

import (
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/breaktime/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/breaktime/internal/health"
	"github.com/vladislavdragonenkov/breaktime/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/breaktime/internal/messaging/rabbitmq"
)

// brokerPublishers — паблишеры outbox для выбранного брокера.
type brokerPublishers struct {
	name      string
	publisher domain.OutboxPublisher
	dlq       domain.OutboxPublisher
	closeFn   func()
}

func (b brokerPublishers) enabled() bool {
	return b.publisher != nil
}

func (b brokerPublishers) close() {
	if b.closeFn != nil {
		b.closeFn()
	}
}

// brokerChecker описывает состояние брокера для /healthz.
// Без брокера проверка не регистрируется; недоступный брокер даёт degraded.
func brokerChecker(kind BrokerKind, b brokerPublishers) healthcheck.Checker {
	switch {
	case kind == BrokerNone || kind == "":
		return nil
	case b.enabled():
		return healthcheck.NewStaticChecker(b.name, healthcheck.StatusHealthy, "")
	default:
		return healthcheck.NewStaticChecker(string(kind), healthcheck.StatusDegraded, "broker unavailable, order events are not published")
	}
}

// initBroker подключается к брокеру из конфигурации.
// Ошибка подключения не фатальна: сервис продолжает работу без публикации событий.
func initBroker(cfg Config, logger *log.Entry) (brokerPublishers, error) {
	switch cfg.Broker {
	case BrokerKafka:
		brokers := cfg.KafkaBrokerList()
		producer, err := kafka.NewProducer(brokers, "breaktime", logger.WithField("component", "kafka-producer"))
		if err != nil {
			logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
			return brokerPublishers{}, err
		}
		logger.WithField("brokers", brokers).Info("kafka producer initialized")

		return brokerPublishers{
			name:      string(BrokerKafka),
			publisher: kafka.NewOutboxPublisher(producer, cfg.KafkaTopic),
			dlq:       kafka.NewDLQPublisher(producer, cfg.KafkaTopic),
			closeFn: func() {
				closeKafkaProducer(producer, logger)
			},
		}, nil
	case BrokerRabbitMQ:
		pool, err := rabbitmq.NewChannelPool(cfg.RabbitMQURL, cfg.RabbitMQQueue, cfg.RabbitMQPoolSize,
			logger.WithField("component", "rabbitmq-pool"))
		if err != nil {
			logger.WithError(err).Warn("failed to connect to rabbitmq, continuing without rabbitmq")
			return brokerPublishers{}, err
		}

		return brokerPublishers{
			name:      string(BrokerRabbitMQ),
			publisher: rabbitmq.NewOutboxQueuePublisher(pool),
			closeFn:   pool.Close,
		}, nil
	default:
		return brokerPublishers{}, nil
	}
}

// closeKafkaProducer закрывает Kafka producer если он не nil.
func closeKafkaProducer(producer *kafka.Producer, logger *log.Entry) {
	if producer == nil {
		return
	}

	if err := producer.Close(); err != nil {
		logger.WithError(err).Warn("failed to close kafka producer")
	} else {
		logger.Info("kafka producer closed")
	}
}
