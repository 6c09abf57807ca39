package domain_test

import (
	"errors"
	"testing"

	"github.com/vladislavdragonenkov/breaktime/internal/domain"
)

func TestCartState_AddAndRemove(t *testing.T) {
	cart := domain.CartState{}

	cart.Add(domain.ItemKindTea, 1)
	cart.Add(domain.ItemKindTea, 1)
	cart.Add(domain.ItemKindMilk, 1)
	if cart[domain.ItemKindTea] != 2 || cart.TotalItems() != 3 {
		t.Fatalf("unexpected cart after adds: %v", cart)
	}

	cart.Add(domain.ItemKindMilk, -1)
	if _, ok := cart[domain.ItemKindMilk]; ok {
		t.Fatal("item with zero quantity must leave the cart")
	}

	cart.Add(domain.ItemKindTea, -5)
	if len(cart) != 0 {
		t.Fatalf("quantity must not go negative, got %v", cart)
	}
}

func TestCartState_Clear(t *testing.T) {
	cart := domain.CartState{domain.ItemKindTea: 2, domain.ItemKindBoost: 1}
	cart.Clear()
	if len(cart) != 0 || cart.TotalItems() != 0 {
		t.Fatalf("expected empty cart, got %v", cart)
	}
}

func TestCartState_ToCreateInputUsesCatalogOrder(t *testing.T) {
	cart := domain.CartState{
		domain.ItemKindHorlicks: 1,
		domain.ItemKindTea:      2,
		domain.ItemKindCoffee:   0,
	}

	input := cart.ToCreateInput()
	if len(input.Items) != 2 {
		t.Fatalf("expected 2 pairs, got %+v", input.Items)
	}
	if input.Items[0].ItemName != domain.ItemKindTea || input.Items[0].Quantity != 2 {
		t.Fatalf("unexpected first pair: %+v", input.Items[0])
	}
	if input.Items[1].ItemName != domain.ItemKindHorlicks || input.Items[1].Quantity != 1 {
		t.Fatalf("unexpected second pair: %+v", input.Items[1])
	}
	if input.TotalItems() != 3 {
		t.Fatalf("expected total 3, got %d", input.TotalItems())
	}
}

func TestCreateOrderInput_Validate(t *testing.T) {
	valid := domain.CreateOrderInput{Items: []domain.CreateOrderItemInput{
		{ItemName: domain.ItemKindTea, Quantity: 1},
		{ItemName: domain.ItemKindTea, Quantity: 1},
	}}
	if errs := valid.Validate(); len(errs) != 0 {
		t.Fatalf("expected duplicate kinds to be accepted, got %v", errs)
	}

	cases := []struct {
		name  string
		input domain.CreateOrderInput
		want  error
	}{
		{
			name:  "empty items",
			input: domain.CreateOrderInput{},
			want:  domain.ErrItemsRequired,
		},
		{
			name: "zero quantity",
			input: domain.CreateOrderInput{Items: []domain.CreateOrderItemInput{
				{ItemName: domain.ItemKindCoffee, Quantity: 0},
			}},
			want: domain.ErrItemQtyInvalid,
		},
		{
			name: "negative quantity",
			input: domain.CreateOrderInput{Items: []domain.CreateOrderItemInput{
				{ItemName: domain.ItemKindCoffee, Quantity: -3},
			}},
			want: domain.ErrItemQtyInvalid,
		},
		{
			name: "unknown kind",
			input: domain.CreateOrderInput{Items: []domain.CreateOrderItemInput{
				{ItemName: domain.ItemKindUnknown, Quantity: 1},
			}},
			want: domain.ErrUnknownItemKind,
		},
		{
			name: "quantity above int32",
			input: domain.CreateOrderInput{Items: []domain.CreateOrderItemInput{
				{ItemName: domain.ItemKindTea, Quantity: 3_000_000_000},
			}},
			want: domain.ErrItemQtyInvalid,
		},
		{
			name: "total above int32",
			input: domain.CreateOrderInput{Items: []domain.CreateOrderItemInput{
				{ItemName: domain.ItemKindTea, Quantity: 2_000_000_000},
				{ItemName: domain.ItemKindTea, Quantity: 2_000_000_000},
			}},
			want: domain.ErrOrderTooLarge,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			errs := tc.input.Validate()
			if len(errs) == 0 {
				t.Fatal("expected validation errors")
			}
			if !errors.Is(errors.Join(errs...), tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, errs)
			}
		})
	}
}

func TestCreateOrderInput_ValidateReportsIndex(t *testing.T) {
	input := domain.CreateOrderInput{Items: []domain.CreateOrderItemInput{
		{ItemName: domain.ItemKindTea, Quantity: 1},
		{ItemName: domain.ItemKindMilk, Quantity: 0},
	}}

	errs := input.Validate()
	if len(errs) != 1 {
		t.Fatalf("expected single error, got %v", errs)
	}
	if errs[0].Error() != "items[1]: item quantity must be a positive integer" {
		t.Fatalf("unexpected message: %s", errs[0])
	}
}

func TestCreateOrderInput_ValidateAcceptsMaxTotal(t *testing.T) {
	input := domain.CreateOrderInput{Items: []domain.CreateOrderItemInput{
		{ItemName: domain.ItemKindTea, Quantity: domain.MaxOrderItems - 1},
		{ItemName: domain.ItemKindMilk, Quantity: 1},
	}}
	if errs := input.Validate(); len(errs) != 0 {
		t.Fatalf("expected total of MaxOrderItems to be accepted, got %v", errs)
	}
	if input.TotalItems() != domain.MaxOrderItems {
		t.Fatalf("unexpected total %d", input.TotalItems())
	}
}
