package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/breaktime/internal/domain"
	"github.com/vladislavdragonenkov/breaktime/internal/metrics"
)

// ErrInvalidInput возвращается, когда входные данные заказа нарушают контракт.
// Конкретные замечания доступны через errors.Is по доменным ошибкам.
var ErrInvalidInput = errors.New("invalid order input")

// Service — слой композиции поверх каталога, валидатора и хранилища заказов.
type Service struct {
	repo    domain.OrderRepository
	outbox  domain.OutboxRepository
	logger  *log.Entry
	metrics *metrics.OrderMetrics
	now     func() time.Time
}

// Option настраивает Service.
type Option func(*Service)

// WithOutbox включает запись события order.created после создания заказа.
func WithOutbox(outbox domain.OutboxRepository) Option {
	return func(s *Service) {
		s.outbox = outbox
	}
}

// WithMetrics подключает метрики заказов.
func WithMetrics(m *metrics.OrderMetrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithClock подменяет источник времени для событий.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService конструирует сервис заказов.
func NewService(repo domain.OrderRepository, logger *log.Entry, opts ...Option) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "order-service")
	}
	s := &Service{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListAvailableItems возвращает каталог в фиксированном порядке.
func (s *Service) ListAvailableItems() []domain.ItemKind {
	return domain.AvailableItems()
}

// ValidateOrderState проверяет нетипизированное состояние корзины.
func (s *Service) ValidateOrderState(input any) bool {
	valid := domain.ValidateOrderState(input)
	s.metrics.RecordValidation(valid)
	return valid
}

// CreateOrder сохраняет заказ. Ошибки хранилища возвращаются без изменений.
func (s *Service) CreateOrder(ctx context.Context, input domain.CreateOrderInput) (domain.OrderSummary, error) {
	if errs := input.Validate(); len(errs) > 0 {
		return domain.OrderSummary{}, fmt.Errorf("%w: %w", ErrInvalidInput, errors.Join(errs...))
	}

	start := s.now()
	summary, err := s.repo.Create(ctx, input)
	if err != nil {
		s.metrics.RecordStoreFailure("create")
		s.logger.WithError(err).WithField("total_items", input.TotalItems()).Error("failed to create order")
		return domain.OrderSummary{}, err
	}

	s.metrics.RecordOrderCreated(summary.Order.TotalItems, s.now().Sub(start))
	s.logger.WithFields(log.Fields{
		"order_id":    summary.Order.ID,
		"total_items": summary.Order.TotalItems,
		"line_items":  len(summary.Items),
	}).Info("order created")

	s.enqueueCreated(summary)

	return summary, nil
}

// GetOrderByID возвращает заказ; found=false означает, что заказа нет.
func (s *Service) GetOrderByID(ctx context.Context, id int64) (domain.OrderSummary, bool, error) {
	summary, found, err := s.repo.Get(ctx, id)
	if err != nil {
		s.metrics.RecordStoreFailure("get")
		s.logger.WithError(err).WithField("order_id", id).Error("failed to get order")
		return domain.OrderSummary{}, false, err
	}
	return summary, found, nil
}

// ListOrders возвращает все заказы, новые первыми.
func (s *Service) ListOrders(ctx context.Context) ([]domain.OrderSummary, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		s.metrics.RecordStoreFailure("list")
		s.logger.WithError(err).Error("failed to list orders")
		return nil, err
	}
	return list, nil
}

func (s *Service) enqueueCreated(summary domain.OrderSummary) {
	if s.outbox == nil {
		return
	}

	msg, err := domain.NewOrderCreatedMessage(summary, s.now())
	if err != nil {
		s.logger.WithError(err).WithField("order_id", summary.Order.ID).Error("failed to encode order event")
		return
	}
	if _, err := s.outbox.Enqueue(msg); err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"order_id": summary.Order.ID,
			"event":    msg.EventType,
		}).Error("failed to enqueue outbox message")
		return
	}
	s.metrics.RecordOutboxEnqueued()
}
