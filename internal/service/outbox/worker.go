package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/breaktime/internal/domain"
	"github.com/vladislavdragonenkov/breaktime/internal/metrics"
)

const (
	defaultPollInterval   = time.Second
	defaultBatchSize      = 100
	defaultMaxAttempts    = 3
	defaultRetryBaseDelay = 50 * time.Millisecond
	maxRetryDelay         = 5 * time.Second
	defaultBrokerName     = "unknown"
)

// DeadLetter — тело сообщения, уходящего в DLQ после исчерпания попыток.
type DeadLetter struct {
	OutboxID       string          `json:"outbox_id"`
	AggregateType  string          `json:"aggregate_type"`
	AggregateID    string          `json:"aggregate_id"`
	EventType      string          `json:"event_type"`
	Payload        json.RawMessage `json:"payload"`
	PublishError   string          `json:"publish_error"`
	Attempts       int             `json:"attempts"`
	DLQPublishedAt time.Time       `json:"dlq_published_at"`
}

// Result — итог одного прохода по outbox.
type Result struct {
	Sent int
	// Failed — события, не доставленные за все попытки; они помечаются failed.
	Failed int
	// DeadLettered — часть Failed, успешно отправленная в DLQ.
	DeadLettered int
	// Deferred — события, оставшиеся pending из-за остановки воркера.
	Deferred int
}

// Worker доставляет события заказов из outbox в брокер.
type Worker struct {
	repo      domain.OutboxRepository
	publisher domain.OutboxPublisher
	dlq       domain.OutboxPublisher
	logger    *log.Entry
	metrics   *metrics.OutboxMetrics

	broker      string
	interval    time.Duration
	batchSize   int
	maxAttempts int
	baseDelay   time.Duration
	now         func() time.Time
}

// Option настраивает Worker.
type Option func(*Worker)

// WithLogger задаёт logger воркера.
func WithLogger(logger *log.Entry) Option {
	return func(w *Worker) { w.logger = logger }
}

// WithDLQPublisher включает отправку недоставленных событий в DLQ.
func WithDLQPublisher(publisher domain.OutboxPublisher) Option {
	return func(w *Worker) { w.dlq = publisher }
}

// WithBrokerName задаёт метку брокера (kafka, rabbitmq) для метрик и логов.
func WithBrokerName(name string) Option {
	return func(w *Worker) { w.broker = name }
}

// WithPollInterval задаёт частоту опроса outbox.
func WithPollInterval(interval time.Duration) Option {
	return func(w *Worker) { w.interval = interval }
}

// WithBatchSize задаёт число событий за один проход.
func WithBatchSize(size int) Option {
	return func(w *Worker) { w.batchSize = size }
}

// WithMaxAttempts задаёт число попыток публикации одного события.
func WithMaxAttempts(attempts int) Option {
	return func(w *Worker) { w.maxAttempts = attempts }
}

// WithRetryBaseDelay задаёт первую паузу экспоненциального backoff; 0 отключает паузы.
func WithRetryBaseDelay(delay time.Duration) Option {
	return func(w *Worker) { w.baseDelay = delay }
}

// WithClock подменяет часы для DLQ и возраста backlog.
func WithClock(now func() time.Time) Option {
	return func(w *Worker) { w.now = now }
}

// WithMetrics подключает метрики доставки.
func WithMetrics(m *metrics.OutboxMetrics) Option {
	return func(w *Worker) { w.metrics = m }
}

// NewWorker создаёт воркер; некорректные параметры заменяются значениями по умолчанию.
func NewWorker(repo domain.OutboxRepository, publisher domain.OutboxPublisher, opts ...Option) *Worker {
	w := &Worker{
		repo:        repo,
		publisher:   publisher,
		broker:      defaultBrokerName,
		interval:    defaultPollInterval,
		batchSize:   defaultBatchSize,
		maxAttempts: defaultMaxAttempts,
		baseDelay:   defaultRetryBaseDelay,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}

	if w.broker == "" {
		w.broker = defaultBrokerName
	}
	if w.interval <= 0 {
		w.interval = defaultPollInterval
	}
	if w.batchSize <= 0 {
		w.batchSize = defaultBatchSize
	}
	if w.maxAttempts <= 0 {
		w.maxAttempts = defaultMaxAttempts
	}
	if w.baseDelay < 0 {
		w.baseDelay = 0
	}
	if w.now == nil {
		w.now = time.Now
	}
	if w.logger == nil {
		w.logger = log.WithField("component", "outbox-worker")
	}
	w.logger = w.logger.WithField("broker", w.broker)

	return w
}

// Run обрабатывает outbox сразу и затем раз в интервал, пока ctx не отменён.
func (w *Worker) Run(ctx context.Context) {
	if w.repo == nil || w.publisher == nil {
		w.logger.Warn("outbox worker is disabled: repo or publisher is nil")
		return
	}

	w.logger.WithField("poll_interval", w.interval.String()).Info("outbox worker started")
	defer w.logger.Info("outbox worker stopped")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if result := w.ProcessOnce(ctx); result.Failed > 0 {
			w.logger.WithFields(log.Fields{
				"sent":          result.Sent,
				"failed":        result.Failed,
				"dead_lettered": result.DeadLettered,
			}).Warn("outbox batch finished with undelivered events")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// ProcessOnce доставляет один батч pending-событий в порядке постановки.
func (w *Worker) ProcessOnce(ctx context.Context) Result {
	var result Result
	defer w.observeBacklog()

	if ctx.Err() != nil {
		return result
	}

	events, err := w.repo.PullPending(w.batchSize)
	if err != nil {
		w.logger.WithError(err).Warn("failed to pull pending outbox messages")
		return result
	}

	for i, event := range events {
		entry := w.logger.WithFields(log.Fields{
			"outbox_id":  event.ID,
			"event_type": event.EventType,
			"order_id":   event.AggregateID,
		})

		attempts, err := w.publish(ctx, event)
		switch {
		case err == nil:
			result.Sent++
			if markErr := w.repo.MarkSent(event.ID); markErr != nil {
				entry.WithError(markErr).Warn("failed to mark outbox message as sent")
			}

		case ctx.Err() != nil:
			result.Deferred += len(events) - i
			w.metrics.RecordPublish(w.broker, metrics.PublishInterrupted)
			entry.Info("outbox worker stopping, event stays pending")
			return result

		default:
			result.Failed++
			w.metrics.RecordPublish(w.broker, metrics.PublishFailed)
			entry.WithError(err).WithField("attempts", attempts).Error("order event was not delivered")

			if w.deadLetter(event, err, attempts, entry) {
				result.DeadLettered++
			}
			if markErr := w.repo.MarkFailed(event.ID); markErr != nil {
				entry.WithError(markErr).Warn("failed to mark outbox message as failed")
			}
		}
	}

	return result
}

// publish делает до maxAttempts попыток с экспоненциальной паузой между ними.
func (w *Worker) publish(ctx context.Context, event domain.OutboxMessage) (int, error) {
	var lastErr error
	for attempt := 1; attempt <= w.maxAttempts; attempt++ {
		lastErr = w.publisher.Publish(event)
		if lastErr == nil {
			w.metrics.RecordPublish(w.broker, metrics.PublishSent)
			return attempt, nil
		}
		w.metrics.RecordPublish(w.broker, metrics.PublishRetry)

		if attempt == w.maxAttempts {
			break
		}
		if delay := w.backoff(attempt); delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return attempt, ctx.Err()
			case <-timer.C:
			}
		} else if ctx.Err() != nil {
			return attempt, ctx.Err()
		}
	}

	return w.maxAttempts, fmt.Errorf("%w after %d attempts: %w", domain.ErrOutboxPublish, w.maxAttempts, lastErr)
}

// backoff возвращает base*2^(attempt-1), но не больше maxRetryDelay.
func (w *Worker) backoff(attempt int) time.Duration {
	if w.baseDelay <= 0 {
		return 0
	}
	delay := w.baseDelay
	for i := 1; i < attempt && delay < maxRetryDelay; i++ {
		delay *= 2
	}
	return min(delay, maxRetryDelay)
}

func (w *Worker) deadLetter(event domain.OutboxMessage, cause error, attempts int, entry *log.Entry) bool {
	if w.dlq == nil {
		return false
	}

	letter, err := newDeadLetter(event, cause, attempts, w.now())
	if err == nil {
		err = w.dlq.Publish(letter)
	}
	if err != nil {
		w.metrics.RecordPublish(w.broker, metrics.PublishDLQFailed)
		entry.WithError(err).Warn("failed to publish order event to DLQ")
		return false
	}

	w.metrics.RecordPublish(w.broker, metrics.PublishDLQ)
	return true
}

// newDeadLetter заворачивает событие и причину отказа в тело DLQ; ключи сообщения сохраняются.
func newDeadLetter(event domain.OutboxMessage, cause error, attempts int, at time.Time) (domain.OutboxMessage, error) {
	payload := json.RawMessage(event.Payload)
	if !json.Valid(payload) {
		payload = json.RawMessage(`null`)
	}

	body, err := json.Marshal(DeadLetter{
		OutboxID:       event.ID,
		AggregateType:  event.AggregateType,
		AggregateID:    event.AggregateID,
		EventType:      event.EventType,
		Payload:        payload,
		PublishError:   cause.Error(),
		Attempts:       attempts,
		DLQPublishedAt: at.UTC(),
	})
	if err != nil {
		return domain.OutboxMessage{}, fmt.Errorf("marshal dead letter: %w", err)
	}

	event.Payload = body
	return event, nil
}

func (w *Worker) observeBacklog() {
	stats, err := w.repo.Stats()
	if err != nil {
		w.logger.WithError(err).Warn("failed to collect outbox backlog stats")
		return
	}

	var age time.Duration
	if !stats.OldestPendingAt.IsZero() {
		age = w.now().Sub(stats.OldestPendingAt)
	}
	w.metrics.SetBacklog(stats.PendingCount, age)
}
