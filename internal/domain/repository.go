package domain

import "context"

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	// Create атомарно сохраняет заказ и все его позиции в порядке входных данных.
	// Входные данные не перепроверяются: контракт обеспечивает вызывающий код.
	Create(ctx context.Context, input CreateOrderInput) (OrderSummary, error)
	// Get возвращает заказ с позициями; found=false, если заказа нет.
	Get(ctx context.Context, id int64) (summary OrderSummary, found bool, err error)
	// List возвращает все заказы, начиная с самых новых.
	List(ctx context.Context) ([]OrderSummary, error)
}
