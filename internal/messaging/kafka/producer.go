package kafka

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"
)

const (
	defaultClientID  = "breaktime"
	producerMaxRetry = 5
)

// ErrProducerNotInitialized возвращается при публикации через пустой Producer.
var ErrProducerNotInitialized = errors.New("kafka producer is not initialized")

// Producer публикует события заказов через синхронный sarama producer.
type Producer struct {
	sync   sarama.SyncProducer
	logger *log.Entry
	now    func() time.Time
}

// NewSaramaConfig собирает конфигурацию sync producer: идемпотентность,
// подтверждение всеми ISR и не больше одного запроса в полёте.
func NewSaramaConfig(clientID string) *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.ClientID = defaultClientID
	if clientID != "" {
		cfg.ClientID = clientID
	}

	cfg.Producer.Idempotent = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = producerMaxRetry
	cfg.Producer.Return.Successes = true
	cfg.Producer.Compression = sarama.CompressionSnappy
	cfg.Net.MaxOpenRequests = 1
	return cfg
}

// NewProducer подключается к брокерам Kafka.
func NewProducer(brokers []string, clientID string, logger *log.Entry) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka brokers are not configured")
	}

	syncProducer, err := sarama.NewSyncProducer(brokers, NewSaramaConfig(clientID))
	if err != nil {
		return nil, fmt.Errorf("connect kafka producer to %v: %w", brokers, err)
	}
	return NewProducerFromSync(syncProducer, logger), nil
}

// NewProducerFromSync оборачивает готовый sarama.SyncProducer, например mocks.SyncProducer.
func NewProducerFromSync(syncProducer sarama.SyncProducer, logger *log.Entry) *Producer {
	if logger == nil {
		logger = log.WithField("component", "kafka-producer")
	}
	return &Producer{sync: syncProducer, logger: logger, now: time.Now}
}

// PublishEvent публикует event, закодированный в JSON, без заголовков.
func (p *Producer) PublishEvent(topic, key string, event any) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode kafka event for %s: %w", topic, err)
	}
	return p.PublishMessage(topic, key, value, nil)
}

// PublishMessage отправляет готовое тело и ждёт подтверждения брокера.
func (p *Producer) PublishMessage(topic, key string, value []byte, headers map[string]string) error {
	if p == nil || p.sync == nil {
		return ErrProducerNotInitialized
	}

	fields := log.Fields{"topic": topic, "key": key}
	partition, offset, err := p.sync.SendMessage(p.message(topic, key, value, headers))
	if err != nil {
		p.logger.WithFields(fields).WithError(err).Error("kafka send failed")
		return fmt.Errorf("send to kafka topic %s: %w", topic, err)
	}

	fields["partition"] = partition
	fields["offset"] = offset
	p.logger.WithFields(fields).Debug("kafka message acknowledged")
	return nil
}

// message строит ProducerMessage; заголовки идут в порядке имён.
func (p *Producer) message(topic, key string, value []byte, headers map[string]string) *sarama.ProducerMessage {
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)

	recordHeaders := make([]sarama.RecordHeader, 0, len(names))
	for _, name := range names {
		recordHeaders = append(recordHeaders, sarama.RecordHeader{Key: []byte(name), Value: []byte(headers[name])})
	}

	return &sarama.ProducerMessage{
		Topic:     topic,
		Key:       sarama.StringEncoder(key),
		Value:     sarama.ByteEncoder(value),
		Headers:   recordHeaders,
		Timestamp: p.now(),
	}
}

// Close закрывает соединение; на nil Producer ничего не делает.
func (p *Producer) Close() error {
	if p == nil || p.sync == nil {
		return nil
	}
	if err := p.sync.Close(); err != nil {
		return fmt.Errorf("close kafka producer: %w", err)
	}
	return nil
}
