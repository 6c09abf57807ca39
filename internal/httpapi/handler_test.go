package httpapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/breaktime/internal/domain"
	"github.com/vladislavdragonenkov/breaktime/internal/health"
	"github.com/vladislavdragonenkov/breaktime/internal/httpapi"
	"github.com/vladislavdragonenkov/breaktime/internal/service/orders"
	"github.com/vladislavdragonenkov/breaktime/internal/storage/memory"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func loggerForTests() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}

type failingOrders struct {
	*orders.Service
	err error
}

func (f failingOrders) CreateOrder(context.Context, domain.CreateOrderInput) (domain.OrderSummary, error) {
	return domain.OrderSummary{}, f.err
}

func (f failingOrders) GetOrderByID(context.Context, int64) (domain.OrderSummary, bool, error) {
	return domain.OrderSummary{}, false, f.err
}

func (f failingOrders) ListOrders(context.Context) ([]domain.OrderSummary, error) {
	return nil, f.err
}

func newRouter(svc httpapi.Orders) *gin.Engine {
	logger := loggerForTests()
	heartbeat := health.NewHeartbeat(func() time.Time { return time.Date(2024, 9, 17, 9, 0, 0, 0, time.UTC) })
	return httpapi.NewRouter(httpapi.NewOrderHandler(svc, heartbeat, logger), logger)
}

func newMemoryRouter() *gin.Engine {
	return newRouter(orders.NewService(memory.NewOrderRepository(), loggerForTests()))
}

func do(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

type summaryBody struct {
	Order struct {
		ID         int64  `json:"id"`
		CreatedAt  string `json:"created_at"`
		TotalItems int    `json:"total_items"`
	} `json:"order"`
	Items []struct {
		ID       int64  `json:"id"`
		OrderID  int64  `json:"order_id"`
		ItemName string `json:"item_name"`
		Quantity int    `json:"quantity"`
	} `json:"items"`
}

func TestListItems(t *testing.T) {
	w := do(t, newMemoryRouter(), http.MethodGet, "/api/items", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"items":["Tea","Coffee","Milk","Boost","Horlicks"]}`, w.Body.String())
}

func TestCreateAndGetOrder(t *testing.T) {
	router := newMemoryRouter()

	w := do(t, router, http.MethodPost, "/api/orders",
		`{"items":[{"item_name":"Tea","quantity":2},{"item_name":"Coffee","quantity":1},{"item_name":"Milk","quantity":3}]}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created summaryBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.Equal(t, 6, created.Order.TotalItems)
	require.Len(t, created.Items, 3)
	require.Equal(t, "Tea", created.Items[0].ItemName)
	require.Equal(t, created.Order.ID, created.Items[1].OrderID)
	require.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = do(t, router, http.MethodGet, "/api/orders/1", "")
	require.Equal(t, http.StatusOK, w.Code)

	var got summaryBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Equal(t, created.Order.ID, got.Order.ID)
	require.Equal(t, created.Items, got.Items)
}

func TestCreateOrderDuplicateKinds(t *testing.T) {
	w := do(t, newMemoryRouter(), http.MethodPost, "/api/orders",
		`{"items":[{"item_name":"Tea","quantity":1},{"item_name":"Tea","quantity":1}]}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var created summaryBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.Len(t, created.Items, 2)
	require.Equal(t, 2, created.Order.TotalItems)
}

func TestCreateOrderRejectsInvalidInput(t *testing.T) {
	router := newMemoryRouter()

	cases := map[string]string{
		"empty items":     `{"items":[]}`,
		"missing items":   `{}`,
		"zero quantity":   `{"items":[{"item_name":"Tea","quantity":0}]}`,
		"negative":        `{"items":[{"item_name":"Tea","quantity":-1}]}`,
		"unknown kind":    `{"items":[{"item_name":"Juice","quantity":1}]}`,
		"wrong case":      `{"items":[{"item_name":"tea","quantity":1}]}`,
		"fractional qty":  `{"items":[{"item_name":"Tea","quantity":1.5}]}`,
		"malformed":       `{"items":`,
		"qty above int32": `{"items":[{"item_name":"Tea","quantity":3000000000}]}`,
		"total too large": `{"items":[{"item_name":"Tea","quantity":2000000000},{"item_name":"Milk","quantity":2000000000}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			w := do(t, router, http.MethodPost, "/api/orders", body)
			require.Equal(t, http.StatusBadRequest, w.Code)

			var resp httpapi.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			require.Equal(t, "INVALID_INPUT", resp.Error)
		})
	}

	w := do(t, router, http.MethodGet, "/api/orders", "")
	require.JSONEq(t, `{"orders":[]}`, w.Body.String())
}

func TestListOrdersNewestFirst(t *testing.T) {
	router := newMemoryRouter()

	do(t, router, http.MethodPost, "/api/orders", `{"items":[{"item_name":"Boost","quantity":1}]}`)
	do(t, router, http.MethodPost, "/api/orders", `{"items":[{"item_name":"Horlicks","quantity":2}]}`)

	w := do(t, router, http.MethodGet, "/api/orders", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Orders []summaryBody `json:"orders"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Orders, 2)
	require.EqualValues(t, 2, resp.Orders[0].Order.ID)
	require.EqualValues(t, 1, resp.Orders[1].Order.ID)
}

func TestGetOrderNotFoundAndInvalidID(t *testing.T) {
	router := newMemoryRouter()

	for _, id := range []string{"42", "0", "-3", "99999999999999999999"} {
		w := do(t, router, http.MethodGet, "/api/orders/"+id, "")
		require.Equal(t, http.StatusNotFound, w.Code, id)

		var resp httpapi.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Equal(t, "NOT_FOUND", resp.Error, id)
	}

	for _, id := range []string{"abc", "1.5", "7x"} {
		w := do(t, router, http.MethodGet, "/api/orders/"+id, "")
		require.Equal(t, http.StatusBadRequest, w.Code, id)
	}
}

func TestValidateOrderState(t *testing.T) {
	router := newMemoryRouter()

	cases := []struct {
		body string
		want bool
	}{
		{body: `{"items":{"Tea":2}}`, want: true},
		{body: `{"items":{"Tea":1,"Coffee":0}}`, want: true},
		{body: `{"items":{"Tea":0}}`, want: false},
		{body: `{"items":{}}`, want: false},
		{body: `{"items":{"Juice":1}}`, want: false},
		{body: `{"items":{"Tea":1.5}}`, want: false},
		{body: `{"items":{"Tea":-1}}`, want: false},
		{body: `[1,2,3]`, want: false},
		{body: `not json`, want: false},
		{body: `{"items":{"Tea":1}} garbage`, want: false},
		{body: `{"items":{"Tea":1}} {"items":{"Tea":1}}`, want: false},
		{body: "{\"items\":{\"Tea\":1}}\n", want: true},
		{body: `{"items":{"Tea":9223372036854775808}}`, want: true},
		{body: `{"items":{"Tea":1e19}}`, want: true},
		{body: `{"items":{"Tea":1}, "pad":"` + strings.Repeat("x", 70<<10) + `"}`, want: false},
	}
	for _, tc := range cases {
		w := do(t, router, http.MethodPost, "/api/orders/validate", tc.body)
		require.Equal(t, http.StatusOK, w.Code, tc.body)

		var resp httpapi.ValidateResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Equal(t, tc.want, resp.Valid, tc.body)
	}
}

func TestStoreFailuresReturnInternal(t *testing.T) {
	svc := orders.NewService(memory.NewOrderRepository(), loggerForTests())
	router := newRouter(failingOrders{Service: svc, err: domain.NewPersistenceError("select", errors.New("down"))})

	w := do(t, router, http.MethodPost, "/api/orders", `{"items":[{"item_name":"Tea","quantity":1}]}`)
	require.Equal(t, http.StatusInternalServerError, w.Code)

	w = do(t, router, http.MethodGet, "/api/orders", "")
	require.Equal(t, http.StatusInternalServerError, w.Code)

	w = do(t, router, http.MethodGet, "/api/orders/1", "")
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var resp httpapi.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "INTERNAL", resp.Error)
}

func TestHealthcheck(t *testing.T) {
	w := do(t, newMemoryRouter(), http.MethodGet, "/healthcheck", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status":"ok","timestamp":"2024-09-17T09:00:00Z"}`, w.Body.String())
}

func TestRequestIDPropagation(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthcheck", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w := httptest.NewRecorder()
	newMemoryRouter().ServeHTTP(w, req)

	require.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
}
