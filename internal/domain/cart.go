package domain

import (
	"fmt"
	"math"
)

// MaxOrderItems ограничивает и количество одной позиции, и total_items заказа:
// оба хранятся в INTEGER и передаются по gRPC как int32.
const MaxOrderItems = math.MaxInt32

// CartState — текущая (не сохранённая) корзина: позиция -> количество.
// Количество 0 допустимо: позиция вот-вот будет удалена из корзины.
type CartState map[ItemKind]int

// Add изменяет количество позиции на delta. Количество не уходит ниже нуля,
// а позиция с нулевым количеством удаляется из корзины.
func (c CartState) Add(kind ItemKind, delta int) {
	next := c[kind] + delta
	if next <= 0 {
		delete(c, kind)
		return
	}
	c[kind] = next
}

// Clear очищает корзину.
func (c CartState) Clear() {
	for kind := range c {
		delete(c, kind)
	}
}

// TotalItems возвращает сумму количеств всех позиций.
func (c CartState) TotalItems() int {
	total := 0
	for _, qty := range c {
		total += qty
	}
	return total
}

// ToCreateInput переводит корзину в форму для отправки: пары в порядке каталога,
// позиции с нулевым количеством пропускаются.
func (c CartState) ToCreateInput() CreateOrderInput {
	input := CreateOrderInput{Items: make([]CreateOrderItemInput, 0, len(c))}
	for _, kind := range catalog {
		if qty := c[kind]; qty > 0 {
			input.Items = append(input.Items, CreateOrderItemInput{ItemName: kind, Quantity: qty})
		}
	}
	return input
}

// CreateOrderItemInput — одна пара (позиция, количество) во входных данных заказа.
type CreateOrderItemInput struct {
	ItemName ItemKind `json:"item_name" binding:"required"`
	Quantity int      `json:"quantity" binding:"required,gte=1,lte=2147483647"`
}

// CreateOrderInput — упорядоченный список пар. Одна и та же позиция может
// встречаться несколько раз: каждая пара станет отдельной строкой заказа.
type CreateOrderInput struct {
	Items []CreateOrderItemInput `json:"items" binding:"required,min=1,dive"`
}

// TotalItems возвращает сумму количеств всех пар.
func (in CreateOrderInput) TotalItems() int {
	total := 0
	for _, item := range in.Items {
		total += item.Quantity
	}
	return total
}

// Validate проверяет входной контракт создания заказа и возвращает список замечаний.
func (in CreateOrderInput) Validate() []error {
	var errs []error

	if len(in.Items) == 0 {
		errs = append(errs, ErrItemsRequired)
	}
	var total int64
	for idx, item := range in.Items {
		if !item.ItemName.Valid() {
			errs = append(errs, fmt.Errorf("items[%d]: %w", idx, ErrUnknownItemKind))
		}
		if item.Quantity <= 0 || item.Quantity > MaxOrderItems {
			errs = append(errs, fmt.Errorf("items[%d]: %w", idx, ErrItemQtyInvalid))
			continue
		}
		total += int64(item.Quantity)
	}
	if total > MaxOrderItems {
		errs = append(errs, fmt.Errorf("%w: %d > %d", ErrOrderTooLarge, total, MaxOrderItems))
	}

	return errs
}
