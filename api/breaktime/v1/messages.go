package breaktimev1

import "encoding/json"

type GetAvailableItemsRequest struct{}

type GetAvailableItemsResponse struct {
	Items []string `json:"items"`
}

func (x *GetAvailableItemsResponse) GetItems() []string {
	if x == nil {
		return nil
	}
	return x.Items
}

// OrderItemInput — пара (позиция, количество) в запросе на создание заказа.
type OrderItemInput struct {
	ItemName string `json:"item_name"`
	Quantity int32  `json:"quantity"`
}

type CreateOrderRequest struct {
	Items []*OrderItemInput `json:"items"`
}

func (x *CreateOrderRequest) GetItems() []*OrderItemInput {
	if x == nil {
		return nil
	}
	return x.Items
}

type Order struct {
	Id         int64  `json:"id"`
	CreatedAt  string `json:"created_at"`
	TotalItems int32  `json:"total_items"`
}

type OrderLineItem struct {
	Id        int64  `json:"id"`
	OrderId   int64  `json:"order_id"`
	ItemName  string `json:"item_name"`
	Quantity  int32  `json:"quantity"`
	CreatedAt string `json:"created_at"`
}

// OrderSummary — заказ вместе со всеми позициями.
type OrderSummary struct {
	Order *Order           `json:"order"`
	Items []*OrderLineItem `json:"items"`
}

func (x *OrderSummary) GetOrder() *Order {
	if x == nil {
		return nil
	}
	return x.Order
}

func (x *OrderSummary) GetItems() []*OrderLineItem {
	if x == nil {
		return nil
	}
	return x.Items
}

type CreateOrderResponse struct {
	Summary *OrderSummary `json:"summary"`
}

func (x *CreateOrderResponse) GetSummary() *OrderSummary {
	if x == nil {
		return nil
	}
	return x.Summary
}

type GetOrdersRequest struct{}

type GetOrdersResponse struct {
	Orders []*OrderSummary `json:"orders"`
}

func (x *GetOrdersResponse) GetOrders() []*OrderSummary {
	if x == nil {
		return nil
	}
	return x.Orders
}

type GetOrderByIdRequest struct {
	Id int64 `json:"id"`
}

func (x *GetOrderByIdRequest) GetId() int64 {
	if x == nil {
		return 0
	}
	return x.Id
}

// GetOrderByIdResponse: Found=false означает, что заказа нет; это не ошибка.
type GetOrderByIdResponse struct {
	Found   bool          `json:"found"`
	Summary *OrderSummary `json:"summary,omitempty"`
}

func (x *GetOrderByIdResponse) GetSummary() *OrderSummary {
	if x == nil {
		return nil
	}
	return x.Summary
}

// ValidateOrderStateRequest несёт произвольный JSON корзины, например {"items":{"Tea":2}}.
type ValidateOrderStateRequest struct {
	State json.RawMessage `json:"state"`
}

type ValidateOrderStateResponse struct {
	Valid bool `json:"valid"`
}

type HealthcheckRequest struct{}

type HealthcheckResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}
