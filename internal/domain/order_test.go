package domain_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/breaktime/internal/domain"
)

// helper для создания заказа из двух позиций.
func makeSummary() domain.OrderSummary {
	now := time.Date(2024, 9, 17, 10, 0, 0, 0, time.UTC)
	return domain.OrderSummary{
		Order: domain.Order{ID: 7, CreatedAt: now, TotalItems: 3},
		Items: []domain.OrderLineItem{
			{ID: 1, OrderID: 7, ItemName: domain.ItemKindTea, Quantity: 2, CreatedAt: now},
			{ID: 2, OrderID: 7, ItemName: domain.ItemKindCoffee, Quantity: 1, CreatedAt: now},
		},
	}
}

func TestOrderSummaryValidateInvariants_Ok(t *testing.T) {
	summary := makeSummary()
	if errs := summary.ValidateInvariants(); len(errs) != 0 {
		t.Fatalf("expected no validation errors, got %v", errs)
	}
}

func TestOrderSummaryValidateInvariants_LegacyWithoutItems(t *testing.T) {
	summary := domain.OrderSummary{Order: domain.Order{ID: 1, TotalItems: 5}, Items: []domain.OrderLineItem{}}
	if errs := summary.ValidateInvariants(); len(errs) != 0 {
		t.Fatalf("order without items must be accepted, got %v", errs)
	}
}

func TestOrderSummaryValidateInvariants_Errors(t *testing.T) {
	cases := []struct {
		name string
		mut  func(s *domain.OrderSummary)
		want error
	}{
		{
			name: "total mismatch",
			mut:  func(s *domain.OrderSummary) { s.Order.TotalItems = 10 },
			want: domain.ErrTotalMismatch,
		},
		{
			name: "foreign item",
			mut:  func(s *domain.OrderSummary) { s.Items[0].OrderID = 8 },
			want: domain.ErrLineItemOrderMismatch,
		},
		{
			name: "unknown kind",
			mut:  func(s *domain.OrderSummary) { s.Items[1].ItemName = domain.ItemKindUnknown },
			want: domain.ErrUnknownItemKind,
		},
		{
			name: "zero quantity",
			mut: func(s *domain.OrderSummary) {
				s.Items[1].Quantity = 0
				s.Order.TotalItems = 2
			},
			want: domain.ErrItemQtyInvalid,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			summary := makeSummary()
			tc.mut(&summary)
			errs := summary.ValidateInvariants()
			if !errors.Is(errors.Join(errs...), tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, errs)
			}
		})
	}
}

func TestOrderSummary_JSONShape(t *testing.T) {
	raw, err := json.Marshal(makeSummary())
	if err != nil {
		t.Fatalf("marshal summary: %v", err)
	}

	var decoded struct {
		Order struct {
			ID         int64  `json:"id"`
			CreatedAt  string `json:"created_at"`
			TotalItems int    `json:"total_items"`
		} `json:"order"`
		Items []struct {
			ItemName string `json:"item_name"`
			Quantity int    `json:"quantity"`
			OrderID  int64  `json:"order_id"`
		} `json:"items"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal summary: %v", err)
	}
	if decoded.Order.ID != 7 || decoded.Order.TotalItems != 3 {
		t.Fatalf("unexpected order: %+v", decoded.Order)
	}
	if decoded.Order.CreatedAt != "2024-09-17T10:00:00Z" {
		t.Fatalf("unexpected created_at: %s", decoded.Order.CreatedAt)
	}
	if len(decoded.Items) != 2 || decoded.Items[0].ItemName != "Tea" || decoded.Items[1].OrderID != 7 {
		t.Fatalf("unexpected items: %+v", decoded.Items)
	}
}
