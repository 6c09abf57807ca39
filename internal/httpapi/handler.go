package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/breaktime/internal/domain"
	"github.com/vladislavdragonenkov/breaktime/internal/health"
	"github.com/vladislavdragonenkov/breaktime/internal/service/orders"
)

const maxValidateBody = 64 << 10

// Orders — операции сервиса заказов, которые нужны HTTP-шлюзу.
type Orders interface {
	ListAvailableItems() []domain.ItemKind
	ValidateOrderState(input any) bool
	CreateOrder(ctx context.Context, input domain.CreateOrderInput) (domain.OrderSummary, error)
	GetOrderByID(ctx context.Context, id int64) (domain.OrderSummary, bool, error)
	ListOrders(ctx context.Context) ([]domain.OrderSummary, error)
}

// OrderHandler обрабатывает HTTP-запросы к заказам.
type OrderHandler struct {
	orders    Orders
	heartbeat *health.Heartbeat
	logger    *log.Entry
}

// NewOrderHandler создаёт обработчик.
func NewOrderHandler(orders Orders, heartbeat *health.Heartbeat, logger *log.Entry) *OrderHandler {
	if heartbeat == nil {
		heartbeat = health.NewHeartbeat(nil)
	}
	if logger == nil {
		logger = log.New().WithField("component", "http-gateway")
	}
	return &OrderHandler{orders: orders, heartbeat: heartbeat, logger: logger}
}

// ListItems handles GET /api/items
func (h *OrderHandler) ListItems(c *gin.Context) {
	c.JSON(http.StatusOK, ItemsResponse{Items: h.orders.ListAvailableItems()})
}

// CreateOrder handles POST /api/orders
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req domain.CreateOrderInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   errCodeInvalidInput,
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	summary, err := h.orders.CreateOrder(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, orders.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   errCodeInvalidInput,
				Message: "Invalid order",
				Details: err.Error(),
			})
			return
		}
		h.internalError(c, err, "Failed to create order")
		return
	}

	c.JSON(http.StatusCreated, summary)
}

// ListOrders handles GET /api/orders
func (h *OrderHandler) ListOrders(c *gin.Context) {
	list, err := h.orders.ListOrders(c.Request.Context())
	if err != nil {
		h.internalError(c, err, "Failed to list orders")
		return
	}
	c.JSON(http.StatusOK, OrdersResponse{Orders: list})
}

// GetOrder handles GET /api/orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if errors.Is(err, strconv.ErrRange) {
		id, err = 0, nil
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   errCodeInvalidInput,
			Message: "Invalid order ID",
			Details: "Order ID must be an integer",
		})
		return
	}

	// Ids начинаются с 1: id <= 0 и целые вне int64 заведомо отсутствуют.
	var (
		summary domain.OrderSummary
		found   bool
	)
	if id > 0 {
		summary, found, err = h.orders.GetOrderByID(c.Request.Context(), id)
		if err != nil {
			h.internalError(c, err, "Failed to load order")
			return
		}
	}
	if !found {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   errCodeNotFound,
			Message: "Order not found",
		})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// ValidateOrderState handles POST /api/orders/validate
// Некорректный JSON не является ошибкой запроса: ответ просто {"valid": false}.
func (h *OrderHandler) ValidateOrderState(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxValidateBody)
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusOK, ValidateResponse{Valid: false})
		return
	}

	c.JSON(http.StatusOK, ValidateResponse{Valid: h.orders.ValidateOrderState(decodeState(body))})
}

// decodeState декодирует ровно одно JSON-значение; мусор после него делает тело некорректным.
func decodeState(body []byte) any {
	var state any
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	if err := decoder.Decode(&state); err != nil {
		return nil
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return nil
	}
	return state
}

// Healthcheck handles GET /healthcheck
func (h *OrderHandler) Healthcheck(c *gin.Context) {
	c.JSON(http.StatusOK, h.heartbeat.Check())
}

func (h *OrderHandler) internalError(c *gin.Context, err error, message string) {
	h.logger.WithError(err).WithField("request_id", requestID(c)).Error(message)
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   errCodeInternal,
		Message: message,
	})
}
