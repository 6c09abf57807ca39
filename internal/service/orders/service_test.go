package orders_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/vladislavdragonenkov/breaktime/internal/domain"
	"github.com/vladislavdragonenkov/breaktime/internal/metrics"
	"github.com/vladislavdragonenkov/breaktime/internal/service/orders"
	"github.com/vladislavdragonenkov/breaktime/internal/storage/memory"
)

func loggerForTests() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}

type failingRepo struct {
	err error
}

func (r failingRepo) Create(context.Context, domain.CreateOrderInput) (domain.OrderSummary, error) {
	return domain.OrderSummary{}, r.err
}

func (r failingRepo) Get(context.Context, int64) (domain.OrderSummary, bool, error) {
	return domain.OrderSummary{}, false, r.err
}

func (r failingRepo) List(context.Context) ([]domain.OrderSummary, error) {
	return nil, r.err
}

type failingOutbox struct {
	*memory.OutboxRepository
}

func (failingOutbox) Enqueue(domain.OutboxMessage) (domain.OutboxMessage, error) {
	return domain.OutboxMessage{}, errors.New("outbox unavailable")
}

type ServiceSuite struct {
	suite.Suite

	repo     *memory.OrderRepository
	outbox   *memory.OutboxRepository
	registry *prometheus.Registry
	svc      *orders.Service
	ctx      context.Context
}

func (s *ServiceSuite) SetupTest() {
	s.repo = memory.NewOrderRepository()
	s.outbox = memory.NewOutboxRepository()
	s.registry = prometheus.NewRegistry()
	s.ctx = context.Background()
	s.svc = orders.NewService(
		s.repo,
		loggerForTests(),
		orders.WithOutbox(s.outbox),
		orders.WithMetrics(metrics.NewOrderMetrics(s.registry)),
	)
}

func (s *ServiceSuite) TestListAvailableItems() {
	items := s.svc.ListAvailableItems()
	s.Require().Equal([]domain.ItemKind{
		domain.ItemKindTea,
		domain.ItemKindCoffee,
		domain.ItemKindMilk,
		domain.ItemKindBoost,
		domain.ItemKindHorlicks,
	}, items)
}

func (s *ServiceSuite) TestCreateOrderAndGet() {
	created, err := s.svc.CreateOrder(s.ctx, domain.CreateOrderInput{Items: []domain.CreateOrderItemInput{
		{ItemName: domain.ItemKindTea, Quantity: 2},
		{ItemName: domain.ItemKindCoffee, Quantity: 1},
	}})
	s.Require().NoError(err)
	s.Require().Equal(3, created.Order.TotalItems)
	s.Require().Len(created.Items, 2)
	s.Require().Empty(created.ValidateInvariants())

	got, found, err := s.svc.GetOrderByID(s.ctx, created.Order.ID)
	s.Require().NoError(err)
	s.Require().True(found)
	s.Require().Equal(created.Order.ID, got.Order.ID)
	s.Require().Equal(created.Items, got.Items)
}

func (s *ServiceSuite) TestCreateOrderEnqueuesEvent() {
	created, err := s.svc.CreateOrder(s.ctx, domain.CreateOrderInput{Items: []domain.CreateOrderItemInput{
		{ItemName: domain.ItemKindBoost, Quantity: 4},
	}})
	s.Require().NoError(err)

	pending := s.outbox.AllPending()
	s.Require().Len(pending, 1)
	s.Require().Equal(domain.EventTypeOrderCreated, pending[0].EventType)

	var event domain.OrderEvent
	s.Require().NoError(json.Unmarshal(pending[0].Payload, &event))
	s.Require().Equal(created.Order.ID, event.OrderID)
	s.Require().Equal(4, event.TotalItems)

	s.Require().Equal(1.0, s.counter("breaktime_orders_created_total"))
	s.Require().Equal(1.0, s.counter("breaktime_outbox_enqueued_total"))
}

func (s *ServiceSuite) TestCreateOrderRejectsInvalidInput() {
	cases := []struct {
		name  string
		input domain.CreateOrderInput
		want  error
	}{
		{name: "empty", input: domain.CreateOrderInput{}, want: domain.ErrItemsRequired},
		{
			name: "zero quantity",
			input: domain.CreateOrderInput{Items: []domain.CreateOrderItemInput{
				{ItemName: domain.ItemKindTea, Quantity: 0},
			}},
			want: domain.ErrItemQtyInvalid,
		},
		{
			name: "unknown kind",
			input: domain.CreateOrderInput{Items: []domain.CreateOrderItemInput{
				{ItemName: domain.ItemKind(99), Quantity: 1},
			}},
			want: domain.ErrUnknownItemKind,
		},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := s.svc.CreateOrder(s.ctx, tc.input)
			s.Require().ErrorIs(err, orders.ErrInvalidInput)
			s.Require().ErrorIs(err, tc.want)
		})
	}

	list, err := s.svc.ListOrders(s.ctx)
	s.Require().NoError(err)
	s.Require().Empty(list)
	s.Require().Empty(s.outbox.AllPending())
}

func (s *ServiceSuite) TestCreateOrderReturnsStoreErrorUnchanged() {
	cause := errors.New("connection refused")
	s.repo.FailCreate(cause)

	_, err := s.svc.CreateOrder(s.ctx, domain.CreateOrderInput{Items: []domain.CreateOrderItemInput{
		{ItemName: domain.ItemKindMilk, Quantity: 1},
	}})
	s.Require().ErrorIs(err, cause)
	s.Require().True(domain.IsPersistence(err))
	s.Require().NotErrorIs(err, orders.ErrInvalidInput)
	s.Require().Equal(1.0, s.counter("breaktime_store_failures_total"))
	s.Require().Empty(s.outbox.AllPending())
}

func (s *ServiceSuite) TestGetOrderByIDMissing() {
	_, found, err := s.svc.GetOrderByID(s.ctx, 404)
	s.Require().NoError(err)
	s.Require().False(found)
}

func (s *ServiceSuite) TestListOrdersNewestFirst() {
	first, err := s.svc.CreateOrder(s.ctx, domain.CreateOrderInput{Items: []domain.CreateOrderItemInput{
		{ItemName: domain.ItemKindTea, Quantity: 1},
	}})
	s.Require().NoError(err)
	second, err := s.svc.CreateOrder(s.ctx, domain.CreateOrderInput{Items: []domain.CreateOrderItemInput{
		{ItemName: domain.ItemKindHorlicks, Quantity: 1},
	}})
	s.Require().NoError(err)

	list, err := s.svc.ListOrders(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Require().Equal(second.Order.ID, list[0].Order.ID)
	s.Require().Equal(first.Order.ID, list[1].Order.ID)
}

func (s *ServiceSuite) TestValidateOrderState() {
	s.Require().True(s.svc.ValidateOrderState(map[string]any{"items": map[string]any{"Tea": 2}}))
	s.Require().False(s.svc.ValidateOrderState(map[string]any{"items": map[string]any{"Tea": 0}}))
	s.Require().False(s.svc.ValidateOrderState("not a cart"))
}

func (s *ServiceSuite) counter(name string) float64 {
	families, err := s.registry.Gather()
	s.Require().NoError(err)
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		return sumCounters(family.GetMetric())
	}
	return 0
}

func sumCounters(metrics []*dto.Metric) float64 {
	total := 0.0
	for _, m := range metrics {
		total += m.GetCounter().GetValue()
	}
	return total
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func TestService_ReadErrorsPassThroughUnchanged(t *testing.T) {
	storeErr := domain.NewPersistenceError("select order", context.DeadlineExceeded)
	svc := orders.NewService(failingRepo{err: storeErr}, loggerForTests())

	_, err := svc.CreateOrder(context.Background(), domain.CreateOrderInput{Items: []domain.CreateOrderItemInput{
		{ItemName: domain.ItemKindTea, Quantity: 1},
	}})
	require.Same(t, storeErr, err)

	_, found, err := svc.GetOrderByID(context.Background(), 1)
	require.Same(t, storeErr, err)
	require.False(t, found)

	_, err = svc.ListOrders(context.Background())
	require.Same(t, storeErr, err)
	require.True(t, domain.IsPersistence(err))
}

func TestService_OutboxFailureDoesNotFailCreate(t *testing.T) {
	repo := memory.NewOrderRepository()
	svc := orders.NewService(
		repo,
		loggerForTests(),
		orders.WithOutbox(failingOutbox{memory.NewOutboxRepository()}),
		orders.WithClock(func() time.Time { return time.Date(2024, 9, 17, 0, 0, 0, 0, time.UTC) }),
	)

	created, err := svc.CreateOrder(context.Background(), domain.CreateOrderInput{Items: []domain.CreateOrderItemInput{
		{ItemName: domain.ItemKindCoffee, Quantity: 2},
	}})
	require.NoError(t, err)

	_, found, err := repo.Get(context.Background(), created.Order.ID)
	require.NoError(t, err)
	require.True(t, found)
}

func TestService_WithoutOutboxOrMetrics(t *testing.T) {
	svc := orders.NewService(memory.NewOrderRepository(), nil)

	_, err := svc.CreateOrder(context.Background(), domain.CreateOrderInput{Items: []domain.CreateOrderItemInput{
		{ItemName: domain.ItemKindTea, Quantity: 1},
	}})
	require.NoError(t, err)
	require.True(t, svc.ValidateOrderState(map[string]any{"items": map[string]any{"Tea": 1}}))
}
