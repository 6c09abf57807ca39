package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"
)

const (
	defaultReplayLimit       = 100
	defaultReplayIdleTimeout = 2 * time.Second
)

// ReplayOptions задаёт параметры переотправки сообщений из DLQ.
type ReplayOptions struct {
	SourceTopic string
	TargetTopic string
	Limit       int
	IdleTimeout time.Duration
	// При Execute=false сообщения только разбираются и логируются.
	Execute bool
}

// ReplayStats — итог прогона.
type ReplayStats struct {
	Processed int
	Replayed  int
	Skipped   int
}

// deadLetterPayload — поля тела DLQ-сообщения, которые нужны для восстановления события.
type deadLetterPayload struct {
	OutboxID      string          `json:"outbox_id"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     string          `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
}

// Replayer читает DLQ-топик и публикует исходные события обратно.
type Replayer struct {
	consumer sarama.Consumer
	producer *Producer
	opts     ReplayOptions
	logger   *log.Entry
	now      func() time.Time
}

// NewReplayer создаёт Replayer. В dry-run режиме producer может быть nil.
func NewReplayer(consumer sarama.Consumer, producer *Producer, opts ReplayOptions, logger *log.Entry) *Replayer {
	if opts.SourceTopic == "" {
		opts.SourceTopic = TopicDeadLetterQueue
	}
	if opts.TargetTopic == "" {
		opts.TargetTopic = TopicOrderEvents
	}
	if opts.Limit <= 0 {
		opts.Limit = defaultReplayLimit
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = defaultReplayIdleTimeout
	}
	if logger == nil {
		logger = log.WithField("component", "dlq-replay")
	}
	return &Replayer{consumer: consumer, producer: producer, opts: opts, logger: logger, now: time.Now}
}

// Run проходит по партициям DLQ с самого старого offset, пока не исчерпан лимит
// или партиция не замолчит дольше IdleTimeout.
func (r *Replayer) Run(ctx context.Context) (ReplayStats, error) {
	var stats ReplayStats
	if r.consumer == nil {
		return stats, errors.New("kafka consumer is required")
	}
	if r.opts.Execute && r.producer == nil {
		return stats, errors.New("producer is required in execute mode")
	}

	partitions, err := r.consumer.Partitions(r.opts.SourceTopic)
	if err != nil {
		return stats, fmt.Errorf("get partitions for topic %s: %w", r.opts.SourceTopic, err)
	}
	sort.Slice(partitions, func(i, j int) bool { return partitions[i] < partitions[j] })

	for _, partition := range partitions {
		if stats.Processed >= r.opts.Limit {
			break
		}
		if err := r.replayPartition(ctx, partition, &stats); err != nil {
			return stats, err
		}
	}

	mode := "dry-run"
	if r.opts.Execute {
		mode = "execute"
	}
	r.logger.WithFields(log.Fields{
		"mode":      mode,
		"processed": stats.Processed,
		"replayed":  stats.Replayed,
		"skipped":   stats.Skipped,
	}).Info("dlq replay finished")

	return stats, nil
}

func (r *Replayer) replayPartition(ctx context.Context, partition int32, stats *ReplayStats) error {
	pc, err := r.consumer.ConsumePartition(r.opts.SourceTopic, partition, sarama.OffsetOldest)
	if err != nil {
		return fmt.Errorf("consume partition %d: %w", partition, err)
	}
	defer func() { _ = pc.Close() }()

	idle := time.NewTimer(r.opts.IdleTimeout)
	defer idle.Stop()

	for stats.Processed < r.opts.Limit {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-idle.C:
			return nil
		case consumerErr, ok := <-pc.Errors():
			if ok && consumerErr != nil {
				return fmt.Errorf("partition %d consumer error: %w", partition, consumerErr)
			}
		case msg, ok := <-pc.Messages():
			if !ok || msg == nil {
				return nil
			}
			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(r.opts.IdleTimeout)

			stats.Processed++
			if err := r.replayMessage(msg); err != nil {
				stats.Skipped++
				r.logger.WithError(err).WithFields(log.Fields{
					"partition": msg.Partition,
					"offset":    msg.Offset,
				}).Warn("skip unsupported dlq message")
				continue
			}
			stats.Replayed++
		}
	}
	return nil
}

func (r *Replayer) replayMessage(msg *sarama.ConsumerMessage) error {
	restored, err := restoreEnvelope(msg.Value, r.now().UTC())
	if err != nil {
		return err
	}

	key := restored.AggregateID
	if key == "" {
		key = restored.ID
	}
	target := r.opts.TargetTopic
	if original := headerValue(msg.Headers, HeaderOriginalTopic); original != "" {
		target = original
	}

	if !r.opts.Execute {
		r.logger.WithFields(log.Fields{
			"partition":    msg.Partition,
			"offset":       msg.Offset,
			"target_topic": target,
			"key":          key,
		}).Info("dlq replay candidate")
		return nil
	}

	body, err := json.Marshal(restored)
	if err != nil {
		return fmt.Errorf("encode replay envelope: %w", err)
	}
	return r.producer.PublishMessage(target, key, body, map[string]string{
		HeaderEventType: restored.EventType,
		HeaderOutboxID:  restored.ID,
	})
}

// restoreEnvelope достаёт исходное событие из DLQ-конверта.
func restoreEnvelope(raw []byte, now time.Time) (Envelope, error) {
	var dlqEnvelope Envelope
	if err := json.Unmarshal(raw, &dlqEnvelope); err != nil {
		return Envelope{}, fmt.Errorf("decode dlq envelope: %w", err)
	}
	if len(dlqEnvelope.Payload) == 0 {
		return Envelope{}, errors.New("dlq envelope has no payload")
	}

	var dead deadLetterPayload
	if err := json.Unmarshal(dlqEnvelope.Payload, &dead); err != nil {
		return Envelope{}, fmt.Errorf("decode dead letter: %w", err)
	}
	if len(dead.Payload) == 0 || string(dead.Payload) == "null" {
		return Envelope{}, errors.New("dead letter does not contain original payload")
	}

	return Envelope{
		ID:            firstNonEmpty(dead.OutboxID, dlqEnvelope.ID),
		AggregateType: firstNonEmpty(dead.AggregateType, dlqEnvelope.AggregateType),
		AggregateID:   firstNonEmpty(dead.AggregateID, dlqEnvelope.AggregateID),
		EventType:     firstNonEmpty(dead.EventType, dlqEnvelope.EventType),
		Payload:       dead.Payload,
		PublishedAt:   now,
	}, nil
}

func headerValue(headers []*sarama.RecordHeader, name string) string {
	for _, h := range headers {
		if h != nil && string(h.Key) == name {
			return string(h.Value)
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
