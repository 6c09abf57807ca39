package httpapi

import "github.com/vladislavdragonenkov/breaktime/internal/domain"

// ErrorResponse — тело ответа об ошибке.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

type ItemsResponse struct {
	Items []domain.ItemKind `json:"items"`
}

type OrdersResponse struct {
	Orders []domain.OrderSummary `json:"orders"`
}

type ValidateResponse struct {
	Valid bool `json:"valid"`
}

const (
	errCodeInvalidInput = "INVALID_INPUT"
	errCodeNotFound     = "NOT_FOUND"
	errCodeInternal     = "INTERNAL"
)
