package domain

import "time"

// Order — завершённая отправка корзины. Создаётся один раз и больше не меняется.
type Order struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	// TotalItems — сумма количеств всех позиций на момент создания.
	TotalItems int `json:"total_items"`
}

// OrderLineItem — одна пара (позиция, количество), принадлежащая заказу.
type OrderLineItem struct {
	ID        int64     `json:"id"`
	OrderID   int64     `json:"order_id"`
	ItemName  ItemKind  `json:"item_name"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
}

// OrderSummary объединяет заказ и все его позиции.
type OrderSummary struct {
	Order Order           `json:"order"`
	Items []OrderLineItem `json:"items"`
}

// ValidateInvariants проверяет инварианты собранного заказа и возвращает список замечаний.
// Заказ без позиций допустим: такие записи могут остаться от старых данных.
func (s *OrderSummary) ValidateInvariants() []error {
	var errs []error

	sum := 0
	for _, item := range s.Items {
		if item.OrderID != s.Order.ID {
			errs = append(errs, ErrLineItemOrderMismatch)
		}
		if !item.ItemName.Valid() {
			errs = append(errs, ErrUnknownItemKind)
		}
		if item.Quantity <= 0 {
			errs = append(errs, ErrItemQtyInvalid)
		}
		sum += item.Quantity
	}
	if len(s.Items) > 0 && sum != s.Order.TotalItems {
		errs = append(errs, ErrTotalMismatch)
	}

	return errs
}
