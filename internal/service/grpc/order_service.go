package grpcsvc

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	breaktimev1 "github.com/vladislavdragonenkov/breaktime/api/breaktime/v1"
	"github.com/vladislavdragonenkov/breaktime/internal/domain"
	"github.com/vladislavdragonenkov/breaktime/internal/service/orders"
)

// Orders — операции сервиса заказов, которые нужны транспорту.
type Orders interface {
	ListAvailableItems() []domain.ItemKind
	ValidateOrderState(input any) bool
	CreateOrder(ctx context.Context, input domain.CreateOrderInput) (domain.OrderSummary, error)
	GetOrderByID(ctx context.Context, id int64) (domain.OrderSummary, bool, error)
	ListOrders(ctx context.Context) ([]domain.OrderSummary, error)
}

// OrderService реализует gRPC API поверх сервиса заказов.
type OrderService struct {
	breaktimev1.UnimplementedOrderServiceServer

	orders Orders
	logger *log.Entry
	now    func() time.Time
}

// NewOrderService конструирует gRPC-обработчик.
func NewOrderService(orders Orders, logger *log.Entry) *OrderService {
	if logger == nil {
		logger = log.New().WithField("component", "grpc-order-service")
	}
	return &OrderService{
		orders: orders,
		logger: logger,
		now:    time.Now,
	}
}

// GetAvailableItems возвращает каталог в фиксированном порядке.
func (s *OrderService) GetAvailableItems(context.Context, *breaktimev1.GetAvailableItemsRequest) (*breaktimev1.GetAvailableItemsResponse, error) {
	kinds := s.orders.ListAvailableItems()
	items := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		items = append(items, kind.String())
	}
	return &breaktimev1.GetAvailableItemsResponse{Items: items}, nil
}

// CreateOrder сохраняет заказ из списка пар (позиция, количество).
func (s *OrderService) CreateOrder(ctx context.Context, req *breaktimev1.CreateOrderRequest) (*breaktimev1.CreateOrderResponse, error) {
	if req == nil || len(req.GetItems()) == 0 {
		return nil, status.Error(codes.InvalidArgument, domain.ErrItemsRequired.Error())
	}

	input := domain.CreateOrderInput{Items: make([]domain.CreateOrderItemInput, 0, len(req.Items))}
	for idx, item := range req.Items {
		if item == nil {
			return nil, status.Errorf(codes.InvalidArgument, "items[%d] is nil", idx)
		}
		kind, err := domain.ParseItemKind(item.ItemName)
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "items[%d].item_name: %v", idx, err)
		}
		if item.Quantity <= 0 {
			return nil, status.Errorf(codes.InvalidArgument, "items[%d].quantity must be > 0", idx)
		}
		input.Items = append(input.Items, domain.CreateOrderItemInput{ItemName: kind, Quantity: int(item.Quantity)})
	}

	summary, err := s.orders.CreateOrder(ctx, input)
	if err != nil {
		if errors.Is(err, orders.ErrInvalidInput) {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		s.logger.WithError(err).Error("failed to create order")
		return nil, status.Error(codes.Internal, "failed to persist order")
	}

	return &breaktimev1.CreateOrderResponse{Summary: toProtoSummary(summary)}, nil
}

// GetOrders возвращает все заказы, новые первыми.
func (s *OrderService) GetOrders(ctx context.Context, _ *breaktimev1.GetOrdersRequest) (*breaktimev1.GetOrdersResponse, error) {
	list, err := s.orders.ListOrders(ctx)
	if err != nil {
		s.logger.WithError(err).Error("failed to list orders")
		return nil, status.Error(codes.Internal, "failed to list orders")
	}

	resp := &breaktimev1.GetOrdersResponse{Orders: make([]*breaktimev1.OrderSummary, 0, len(list))}
	for _, summary := range list {
		resp.Orders = append(resp.Orders, toProtoSummary(summary))
	}
	return resp, nil
}

// GetOrderById возвращает заказ; любой неизвестный id, включая id <= 0, даёт found=false без ошибки.
func (s *OrderService) GetOrderById(ctx context.Context, req *breaktimev1.GetOrderByIdRequest) (*breaktimev1.GetOrderByIdResponse, error) {
	id := req.GetId()
	if id <= 0 {
		return &breaktimev1.GetOrderByIdResponse{Found: false}, nil
	}

	summary, found, err := s.orders.GetOrderByID(ctx, id)
	if err != nil {
		s.logger.WithError(err).WithField("order_id", id).Error("failed to load order")
		return nil, status.Error(codes.Internal, "failed to load order")
	}
	if !found {
		return &breaktimev1.GetOrderByIdResponse{Found: false}, nil
	}
	return &breaktimev1.GetOrderByIdResponse{Found: true, Summary: toProtoSummary(summary)}, nil
}

// ValidateOrderState проверяет произвольный JSON корзины; некорректный JSON даёт valid=false.
func (s *OrderService) ValidateOrderState(_ context.Context, req *breaktimev1.ValidateOrderStateRequest) (*breaktimev1.ValidateOrderStateResponse, error) {
	var state any
	if req != nil && len(req.State) > 0 {
		if err := json.Unmarshal(req.State, &state); err != nil {
			state = nil
		}
	}
	return &breaktimev1.ValidateOrderStateResponse{Valid: s.orders.ValidateOrderState(state)}, nil
}

// Healthcheck — тривиальная проверка живости.
func (s *OrderService) Healthcheck(context.Context, *breaktimev1.HealthcheckRequest) (*breaktimev1.HealthcheckResponse, error) {
	return &breaktimev1.HealthcheckResponse{
		Status:    "ok",
		Timestamp: formatTime(s.now()),
	}, nil
}

func toProtoSummary(summary domain.OrderSummary) *breaktimev1.OrderSummary {
	items := make([]*breaktimev1.OrderLineItem, 0, len(summary.Items))
	for _, item := range summary.Items {
		items = append(items, &breaktimev1.OrderLineItem{
			Id:        item.ID,
			OrderId:   item.OrderID,
			ItemName:  item.ItemName.String(),
			Quantity:  int32(item.Quantity),
			CreatedAt: formatTime(item.CreatedAt),
		})
	}
	return &breaktimev1.OrderSummary{
		Order: &breaktimev1.Order{
			Id:         summary.Order.ID,
			CreatedAt:  formatTime(summary.Order.CreatedAt),
			TotalItems: int32(summary.Order.TotalItems),
		},
		Items: items,
	}
}

func formatTime(ts time.Time) string {
	return ts.UTC().Format(time.RFC3339Nano)
}

var _ breaktimev1.OrderServiceServer = (*OrderService)(nil)
