package domain

import (
	"encoding/json"
	"strconv"
	"time"
)

const (
	// AggregateTypeOrder — тип агрегата для событий заказа.
	AggregateTypeOrder = "order"
	// EventTypeOrderCreated публикуется после успешного создания заказа.
	EventTypeOrderCreated = "order.created"
)

// OrderEventItem — позиция заказа в публикуемом событии.
type OrderEventItem struct {
	ItemName ItemKind `json:"item_name"`
	Quantity int      `json:"quantity"`
}

// OrderEvent — полезная нагрузка события заказа для брокера.
type OrderEvent struct {
	EventType  string           `json:"event_type"`
	OrderID    int64            `json:"order_id"`
	TotalItems int              `json:"total_items"`
	Items      []OrderEventItem `json:"items"`
	CreatedAt  time.Time        `json:"created_at"`
	Timestamp  time.Time        `json:"timestamp"`
}

// NewOrderCreatedMessage собирает outbox-сообщение order.created для созданного заказа.
func NewOrderCreatedMessage(summary OrderSummary, now time.Time) (OutboxMessage, error) {
	event := OrderEvent{
		EventType:  EventTypeOrderCreated,
		OrderID:    summary.Order.ID,
		TotalItems: summary.Order.TotalItems,
		Items:      make([]OrderEventItem, 0, len(summary.Items)),
		CreatedAt:  summary.Order.CreatedAt,
		Timestamp:  now.UTC(),
	}
	for _, item := range summary.Items {
		event.Items = append(event.Items, OrderEventItem{ItemName: item.ItemName, Quantity: item.Quantity})
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return OutboxMessage{}, err
	}

	return OutboxMessage{
		AggregateType: AggregateTypeOrder,
		AggregateID:   strconv.FormatInt(summary.Order.ID, 10),
		EventType:     EventTypeOrderCreated,
		Payload:       payload,
	}, nil
}
