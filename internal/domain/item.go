package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ItemKind — закрытое перечисление позиций меню перерыва.
// Нулевое значение (ItemKindUnknown) никогда не считается валидным.
type ItemKind uint8

const (
	ItemKindUnknown ItemKind = iota
	ItemKindTea
	ItemKindCoffee
	ItemKindMilk
	ItemKindBoost
	ItemKindHorlicks
)

var itemKindNames = [...]string{
	ItemKindUnknown:  "",
	ItemKindTea:      "Tea",
	ItemKindCoffee:   "Coffee",
	ItemKindMilk:     "Milk",
	ItemKindBoost:    "Boost",
	ItemKindHorlicks: "Horlicks",
}

// catalog фиксирует порядок отображения позиций.
var catalog = [...]ItemKind{
	ItemKindTea,
	ItemKindCoffee,
	ItemKindMilk,
	ItemKindBoost,
	ItemKindHorlicks,
}

// AvailableItems возвращает все доступные позиции в фиксированном порядке.
// Каждый вызов отдаёт новый срез, поэтому вызывающий код не может испортить каталог.
func AvailableItems() []ItemKind {
	items := make([]ItemKind, len(catalog))
	copy(items, catalog[:])
	return items
}

// ParseItemKind разбирает имя позиции. Сравнение строгое и чувствительно к регистру.
func ParseItemKind(name string) (ItemKind, error) {
	for _, kind := range catalog {
		if itemKindNames[kind] == name {
			return kind, nil
		}
	}
	return ItemKindUnknown, fmt.Errorf("%w: %q", ErrUnknownItemKind, name)
}

// Valid сообщает, входит ли значение в каталог.
func (k ItemKind) Valid() bool {
	return k > ItemKindUnknown && k <= ItemKindHorlicks
}

func (k ItemKind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("ItemKind(%d)", uint8(k))
	}
	return itemKindNames[k]
}

// MarshalJSON кодирует позицию её именем.
func (k ItemKind) MarshalJSON() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownItemKind, uint8(k))
	}
	return json.Marshal(itemKindNames[k])
}

// UnmarshalJSON принимает только точное имя позиции из каталога.
func (k *ItemKind) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("%w: %s", ErrUnknownItemKind, string(data))
	}
	parsed, err := ParseItemKind(name)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// MarshalText нужен, чтобы ItemKind можно было использовать ключом JSON-объекта.
func (k ItemKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownItemKind, uint8(k))
	}
	return []byte(itemKindNames[k]), nil
}

func (k *ItemKind) UnmarshalText(text []byte) error {
	parsed, err := ParseItemKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Value сохраняет позицию в enum-колонку break_time_item.
func (k ItemKind) Value() (driver.Value, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownItemKind, uint8(k))
	}
	return itemKindNames[k], nil
}

// Scan читает значение enum-колонки break_time_item.
func (k *ItemKind) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return k.UnmarshalText([]byte(v))
	case []byte:
		return k.UnmarshalText(v)
	default:
		return fmt.Errorf("%w: unsupported scan type %T", ErrUnknownItemKind, src)
	}
}
