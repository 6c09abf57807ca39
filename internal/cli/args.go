package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vladislavdragonenkov/breaktime/internal/domain"
)

// itemArg — разобранный аргумент вида Tea=2.
type itemArg struct {
	name     string
	quantity int
}

// parseItemArgs разбирает аргументы Name[=qty]; без количества берётся 1.
func parseItemArgs(args []string) ([]itemArg, error) {
	parsed := make([]itemArg, 0, len(args))
	for _, arg := range args {
		name, rawQty, hasQty := strings.Cut(arg, "=")
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("empty item name in %q", arg)
		}

		qty := 1
		if hasQty {
			n, err := strconv.ParseInt(strings.TrimSpace(rawQty), 10, 32)
			if err != nil {
				return nil, fmt.Errorf("invalid quantity in %q: %w", arg, err)
			}
			qty = int(n)
		}
		parsed = append(parsed, itemArg{name: name, quantity: qty})
	}
	return parsed, nil
}

// buildCart собирает корзину из аргументов. Повторы одной позиции складываются.
func buildCart(args []itemArg) (domain.CartState, error) {
	cart := domain.CartState{}
	for _, arg := range args {
		kind, err := domain.ParseItemKind(arg.name)
		if err != nil {
			return nil, err
		}
		if arg.quantity < 0 {
			return nil, fmt.Errorf("%w: %s=%d", domain.ErrItemQtyInvalid, arg.name, arg.quantity)
		}
		cart.Add(kind, arg.quantity)
	}
	if len(cart) == 0 {
		return nil, domain.ErrItemsRequired
	}
	if total := cart.TotalItems(); total > domain.MaxOrderItems {
		return nil, fmt.Errorf("%w: %d > %d", domain.ErrOrderTooLarge, total, domain.MaxOrderItems)
	}
	return cart, nil
}

// stateJSON — нетипизированное состояние корзины для ValidateOrderState.
// Имена не проверяются: это делает сервер. Повторы складываются, как в buildCart,
// но отрицательное количество сохраняется, чтобы сервер отверг состояние.
func stateJSON(args []itemArg) map[string]any {
	quantities := make(map[string]int, len(args))
	for _, arg := range args {
		prev, seen := quantities[arg.name]
		switch {
		case !seen, arg.quantity < 0:
			quantities[arg.name] = arg.quantity
		case prev >= 0:
			quantities[arg.name] = prev + arg.quantity
		}
	}

	items := make(map[string]any, len(quantities))
	for name, qty := range quantities {
		items[name] = qty
	}
	return map[string]any{"items": items}
}
