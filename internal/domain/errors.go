package domain

import "errors"

var (
	// Ошибка пустого списка позиций при создании заказа.
	ErrItemsRequired = errors.New("order must contain at least one item")
	// Ошибка при некорректном количестве позиции (<= 0).
	ErrItemQtyInvalid = errors.New("item quantity must be a positive integer")
	// Ошибка, если сумма количеств превышает MaxOrderItems.
	ErrOrderTooLarge = errors.New("order total_items is too large")
	// Ошибка неизвестной позиции меню.
	ErrUnknownItemKind = errors.New("unknown item kind")
	// Ошибка несоответствия total_items сумме количеств позиций.
	ErrTotalMismatch = errors.New("order total_items does not match items sum")
	// Ошибка, если позиция ссылается на чужой заказ.
	ErrLineItemOrderMismatch = errors.New("order item references another order")
	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// PersistenceError оборачивает отказ хранилища: недоступность или нарушение ограничения.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	if e.Err == nil {
		return e.Op
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// NewPersistenceError создаёт ошибку хранилища для операции op.
func NewPersistenceError(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}

// IsPersistence проверяет, является ли ошибка отказом хранилища.
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
