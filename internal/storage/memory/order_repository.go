package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/breaktime/internal/domain"
)

// OrderRepository — простая in-memory реализация domain.OrderRepository.
// Идентификаторы выдаются самим хранилищем под мьютексом, как это сделал бы SERIAL.
type OrderRepository struct {
	mu         sync.RWMutex
	orders     map[int64]domain.Order
	items      map[int64][]domain.OrderLineItem
	nextOrder  int64
	nextItem   int64
	now        func() time.Time
	failCreate error
}

// Option настраивает in-memory репозиторий заказов.
type Option func(*OrderRepository)

// WithClock подменяет источник времени (нужен тестам с одинаковыми отметками).
func WithClock(now func() time.Time) Option {
	return func(r *OrderRepository) {
		if now != nil {
			r.now = now
		}
	}
}

// NewOrderRepository возвращает in-memory репозиторий для локальной разработки и тестов.
func NewOrderRepository(opts ...Option) *OrderRepository {
	r := &OrderRepository{
		orders: make(map[int64]domain.Order),
		items:  make(map[int64][]domain.OrderLineItem),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create сохраняет заказ и его позиции одной операцией под блокировкой.
func (r *OrderRepository) Create(ctx context.Context, input domain.CreateOrderInput) (domain.OrderSummary, error) {
	if err := ctx.Err(); err != nil {
		return domain.OrderSummary{}, domain.NewPersistenceError("create order", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failCreate != nil {
		return domain.OrderSummary{}, domain.NewPersistenceError("create order", r.failCreate)
	}

	now := r.now()
	r.nextOrder++
	order := domain.Order{
		ID:         r.nextOrder,
		CreatedAt:  now,
		TotalItems: input.TotalItems(),
	}

	items := make([]domain.OrderLineItem, 0, len(input.Items))
	for _, in := range input.Items {
		r.nextItem++
		items = append(items, domain.OrderLineItem{
			ID:        r.nextItem,
			OrderID:   order.ID,
			ItemName:  in.ItemName,
			Quantity:  in.Quantity,
			CreatedAt: now,
		})
	}

	r.orders[order.ID] = order
	r.items[order.ID] = items

	return domain.OrderSummary{Order: order, Items: cloneItems(items)}, nil
}

// Get возвращает заказ с позициями или found=false.
func (r *OrderRepository) Get(ctx context.Context, id int64) (domain.OrderSummary, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.OrderSummary{}, false, domain.NewPersistenceError("get order", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return domain.OrderSummary{}, false, nil
	}
	return domain.OrderSummary{Order: order, Items: cloneItems(r.items[id])}, true, nil
}

// List возвращает все заказы, начиная с самых новых; при равном времени по убыванию id.
func (r *OrderRepository) List(ctx context.Context) ([]domain.OrderSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.NewPersistenceError("list orders", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.OrderSummary, 0, len(r.orders))
	for id, order := range r.orders {
		result = append(result, domain.OrderSummary{Order: order, Items: cloneItems(r.items[id])})
	}

	sort.Slice(result, func(i, j int) bool {
		a, b := result[i].Order, result[j].Order
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})

	return result, nil
}

// InsertLegacyOrder добавляет заказ без позиций, как в данных, созданных до
// появления обязательных позиций. Используется в тестах чтения.
func (r *OrderRepository) InsertLegacyOrder(totalItems int) domain.Order {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextOrder++
	order := domain.Order{ID: r.nextOrder, CreatedAt: r.now(), TotalItems: totalItems}
	r.orders[order.ID] = order
	return order
}

// FailCreate заставляет последующие Create возвращать ошибку хранилища (nil снимает сбой).
func (r *OrderRepository) FailCreate(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failCreate = err
}

// cloneItems возвращает копию, чтобы избежать мутаций хранилища извне; nil превращается в пустой срез.
func cloneItems(items []domain.OrderLineItem) []domain.OrderLineItem {
	result := make([]domain.OrderLineItem, len(items))
	copy(result, items)
	return result
}

var _ domain.OrderRepository = (*OrderRepository)(nil)
