package domain

import (
	"encoding/json"
	"math"
	"math/big"
)

// ValidateOrderState проверяет состояние корзины, пришедшее нетипизированными
// данными (декодированный JSON вида {"items": {"Tea": 2}}).
// Функция никогда не паникует и не возвращает ошибок: некорректный ввод даёт false.
func ValidateOrderState(input any) bool {
	envelope, ok := input.(map[string]any)
	if !ok || envelope == nil {
		return false
	}
	rawItems, ok := envelope["items"]
	if !ok {
		return false
	}
	items, ok := rawItems.(map[string]any)
	if !ok || len(items) == 0 {
		return false
	}

	hasPositive := false
	for name, rawQty := range items {
		if _, err := ParseItemKind(name); err != nil {
			return false
		}
		positive, ok := quantitySign(rawQty)
		if !ok {
			return false
		}
		if positive {
			hasPositive = true
		}
	}

	return hasPositive
}

// Valid применяет те же правила к типизированной корзине.
func (c CartState) Valid() bool {
	if len(c) == 0 {
		return false
	}

	hasPositive := false
	for kind, qty := range c {
		if !kind.Valid() || qty < 0 {
			return false
		}
		if qty > 0 {
			hasPositive = true
		}
	}
	return hasPositive
}

// quantitySign проверяет, что значение из декодированного JSON — целое >= 0,
// и сообщает, больше ли оно нуля. Величина не ограничена: 1e19 допустимо.
func quantitySign(v any) (positive, ok bool) {
	switch n := v.(type) {
	case int:
		return n > 0, n >= 0
	case int8:
		return n > 0, n >= 0
	case int16:
		return n > 0, n >= 0
	case int32:
		return n > 0, n >= 0
	case int64:
		return n > 0, n >= 0
	case uint:
		return n > 0, true
	case uint8:
		return n > 0, true
	case uint16:
		return n > 0, true
	case uint32:
		return n > 0, true
	case uint64:
		return n > 0, true
	case float32:
		return floatSign(float64(n))
	case float64:
		return floatSign(n)
	case json.Number:
		r, parsed := new(big.Rat).SetString(n.String())
		if !parsed || !r.IsInt() || r.Sign() < 0 {
			return false, false
		}
		return r.Sign() > 0, true
	default:
		return false, false
	}
}

func floatSign(f float64) (positive, ok bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f != math.Trunc(f) {
		return false, false
	}
	return f > 0, true
}
