package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/storefront/order-service/internal/domain"
	"github.com/storefront/order-service/internal/repository/memory"
	"github.com/storefront/order-service/internal/service"
	sharedHTTP "github.com/storefront/order-service/pkg/http"
	"github.com/storefront/order-service/pkg/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type envelope struct {
	Success   bool                 `json:"success"`
	Message   string               `json:"message"`
	Data      json.RawMessage      `json:"data"`
	Error     *sharedHTTP.APIError `json:"error"`
	RequestID string               `json:"request_id"`
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	store := memory.NewStore()
	store.AddProduct(domain.Product{ID: 1, Name: "A", Price: decimal.RequireFromString("10.00"), Available: true})
	store.AddProduct(domain.Product{ID: 2, Name: "B", Price: decimal.RequireFromString("5.00"), Available: true})
	store.AddPaymentMethod(domain.PaymentMethod{ID: 1, Name: "Card", Active: true})
	store.AddAddress(domain.Address{ID: 1, UserID: 7, Name: "Home", Line: "1 Main St"})

	registry := prometheus.NewRegistry()
	timeline := service.NewTimelineRecorder(store)
	orders := service.NewOrderService(store, timeline, nil, metrics.NewOrderMetrics(registry))

	router := &Router{
		Orders:         NewOrderHandler(orders),
		Carts:          NewCartHandler(service.NewCartService(store)),
		Wishlists:      NewWishlistHandler(service.NewWishlistService(store)),
		JWTSecret:      testSecret,
		RequestTimeout: time.Second,
		HTTPMetrics:    metrics.NewHTTPMetrics(registry),
		Gatherer:       registry,
	}

	app := NewApp(false)
	router.Setup(app)
	return app
}

func token(t *testing.T, sub interface{}, roles ...string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":   sub,
		"email": "user@example.com",
		"roles": roles,
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func do(t *testing.T, app *fiber.App, method, path, bearer string, body interface{}) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func TestHealthIsPublic(t *testing.T) {
	app := newTestApp(t)

	status, env := do(t, app, http.MethodGet, "/api/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, env.Success)
	assert.NotEmpty(t, env.RequestID)
}

func TestAuthentication(t *testing.T) {
	app := newTestApp(t)

	status, env := do(t, app, http.MethodGet, "/api/v1/cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)

	status, _ = do(t, app, http.MethodGet, "/api/v1/cart", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = do(t, app, http.MethodGet, "/api/v1/cart", token(t, "abc"), nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "7"}).SignedString([]byte("other"))
	require.NoError(t, err)
	status, _ = do(t, app, http.MethodGet, "/api/v1/cart", forged, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = do(t, app, http.MethodGet, "/api/v1/cart", token(t, 7), nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestCheckoutFlow(t *testing.T) {
	app := newTestApp(t)
	user := token(t, "7")

	status, _ := do(t, app, http.MethodPost, "/api/v1/cart/items", user, domain.CartItemRequest{ProductID: 1, Quantity: 2})
	require.Equal(t, http.StatusOK, status)
	status, env := do(t, app, http.MethodPost, "/api/v1/cart/items", user, domain.CartItemRequest{ProductID: 2, Quantity: 1})
	require.Equal(t, http.StatusOK, status)

	var cart CartResponse
	require.NoError(t, json.Unmarshal(env.Data, &cart))
	assert.True(t, cart.Total.Equal(decimal.RequireFromString("25.00")))

	status, env = do(t, app, http.MethodPost, "/api/v1/orders/from-cart", user, map[string]interface{}{
		"paymentMethodId":   1,
		"shippingAddressId": 1,
		"shippingCost":      "3.00",
	})
	require.Equal(t, http.StatusCreated, status, env.Message)

	var order OrderResponse
	require.NoError(t, json.Unmarshal(env.Data, &order))
	assert.True(t, order.Total.Equal(decimal.RequireFromString("28.00")))
	assert.Equal(t, "PENDING", order.Status)
	assert.Len(t, order.Items, 2)
	require.Len(t, order.Timeline, 1)
	assert.Equal(t, "Order placed", order.Timeline[0].Description)

	status, env = do(t, app, http.MethodGet, "/api/v1/cart", user, nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &cart))
	assert.Empty(t, cart.Items)

	status, env = do(t, app, http.MethodGet, "/api/v1/orders/my?pageSize=5", user, nil)
	require.Equal(t, http.StatusOK, status)
	var page domain.Page[OrderResponse]
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, int64(1), page.TotalElements)
	assert.Equal(t, 5, page.PageSize)

	status, env = do(t, app, http.MethodPost, "/api/v1/orders/from-cart", user, map[string]interface{}{
		"paymentMethodId":   1,
		"shippingAddressId": 1,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "EMPTY_CART", env.Error.Code)
}

func TestOrderStatusEndpoints(t *testing.T) {
	app := newTestApp(t)
	user := token(t, "7")
	admin := token(t, "1", "ADMIN")

	status, env := do(t, app, http.MethodPost, "/api/v1/orders", user, map[string]interface{}{
		"paymentMethodId":   1,
		"shippingAddressId": 1,
		"items":             []map[string]interface{}{{"productId": 1, "quantity": 1}},
	})
	require.Equal(t, http.StatusCreated, status, env.Message)
	var order OrderResponse
	require.NoError(t, json.Unmarshal(env.Data, &order))

	path := "/api/v1/orders/admin/" + jsonID(order.ID) + "/status"

	status, env = do(t, app, http.MethodPut, path, user, domain.UpdateOrderStatusRequest{Status: "CONFIRMED"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)

	status, env = do(t, app, http.MethodPut, path, admin, domain.UpdateOrderStatusRequest{Status: "SHIPPED"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INVALID_TRANSITION", env.Error.Code)

	status, _ = do(t, app, http.MethodPut, path, admin, domain.UpdateOrderStatusRequest{Status: "UNKNOWN"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, app, http.MethodPut, path, admin, domain.UpdateOrderStatusRequest{})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, app, http.MethodPut, path, admin, domain.UpdateOrderStatusRequest{Status: "CONFIRMED", Note: "ok"})
	assert.Equal(t, http.StatusOK, status)

	status, env = do(t, app, http.MethodGet, "/api/v1/orders/"+jsonID(order.ID)+"/timeline", user, nil)
	require.Equal(t, http.StatusOK, status)
	var timeline []TimelineEntryResponse
	require.NoError(t, json.Unmarshal(env.Data, &timeline))
	require.Len(t, timeline, 2)
	assert.Equal(t, "CONFIRMED", timeline[1].Status)

	status, _ = do(t, app, http.MethodGet, "/api/v1/orders/"+jsonID(order.ID), token(t, "8"), nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, env = do(t, app, http.MethodPut, "/api/v1/orders/"+jsonID(order.ID)+"/cancel", user, nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &order))
	assert.Equal(t, "CANCELLED", order.Status)

	status, env = do(t, app, http.MethodGet, "/api/v1/orders/status/CANCELLED", admin, nil)
	require.Equal(t, http.StatusOK, status)
	var page domain.Page[OrderResponse]
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, int64(1), page.TotalElements)

	status, _ = do(t, app, http.MethodGet, "/api/v1/orders/admin/all", user, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = do(t, app, http.MethodGet, "/api/v1/orders/admin/all?sortBy=secret", admin, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, app, http.MethodGet, "/api/v1/orders/abc", user, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, app, http.MethodGet, "/api/v1/orders/999", admin, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestCreateOrderValidation(t *testing.T) {
	app := newTestApp(t)

	status, env := do(t, app, http.MethodPost, "/api/v1/orders", token(t, "7"), map[string]interface{}{
		"paymentMethodId":   1,
		"shippingAddressId": 1,
		"items":             []map[string]interface{}{{"productId": 1, "quantity": 0}},
	})
	assert.Equal(t, http.StatusBadRequest, status)
	require.NotNil(t, env.Error)
	assert.NotEmpty(t, env.Error.Details)
}

func TestWishlistEndpoints(t *testing.T) {
	app := newTestApp(t)
	user := token(t, "7")

	status, _ := do(t, app, http.MethodDelete, "/api/v1/wishlist", user, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = do(t, app, http.MethodPost, "/api/v1/wishlist/items", user, domain.WishlistItemRequest{ProductID: 1})
	assert.Equal(t, http.StatusCreated, status)

	status, env := do(t, app, http.MethodPost, "/api/v1/wishlist/items", user, domain.WishlistItemRequest{ProductID: 1})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "CONFLICT", env.Error.Code)

	status, env = do(t, app, http.MethodGet, "/api/v1/wishlist", user, nil)
	require.Equal(t, http.StatusOK, status)
	var wishlist WishlistResponse
	require.NoError(t, json.Unmarshal(env.Data, &wishlist))
	assert.Equal(t, int64(1), wishlist.Items.TotalElements)

	status, _ = do(t, app, http.MethodDelete, "/api/v1/wishlist/items/1", user, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = do(t, app, http.MethodDelete, "/api/v1/wishlist/items/1", user, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestCartItemNotFound(t *testing.T) {
	app := newTestApp(t)

	status, env := do(t, app, http.MethodPut, "/api/v1/cart/items/2", token(t, "7"), domain.CartQuantityRequest{Quantity: 3})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestUnknownRoute(t *testing.T) {
	app := newTestApp(t)

	status, env := do(t, app, http.MethodGet, "/api/v2/nothing", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.False(t, env.Success)
}

func TestMetricsEndpoint(t *testing.T) {
	app := newTestApp(t)

	do(t, app, http.MethodGet, "/api/v1/health", "", nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "storefront_http_requests_total")
}

func TestOrderListingByUserAndStatus(t *testing.T) {
	app := newTestApp(t)
	user := token(t, "7")
	admin := token(t, "1", "ADMIN")

	var ids []int64
	for i := 0; i < 2; i++ {
		status, env := do(t, app, http.MethodPost, "/api/v1/orders", user, map[string]interface{}{
			"paymentMethodId":   1,
			"shippingAddressId": 1,
			"items":             []map[string]interface{}{{"productId": 1, "quantity": 1}},
		})
		require.Equal(t, http.StatusCreated, status, env.Message)
		var order OrderResponse
		require.NoError(t, json.Unmarshal(env.Data, &order))
		ids = append(ids, order.ID)
	}

	listPage := func(path, bearer string) domain.Page[OrderResponse] {
		t.Helper()
		status, env := do(t, app, http.MethodGet, path, bearer, nil)
		require.Equal(t, http.StatusOK, status, env.Message)
		var page domain.Page[OrderResponse]
		require.NoError(t, json.Unmarshal(env.Data, &page))
		return page
	}

	base := "/api/v1/orders/admin/users/7/status/PENDING"

	page := listPage(base+"?sortBy=id&sortOrder=asc", admin)
	require.Len(t, page.Content, 2)
	assert.Equal(t, ids[0], page.Content[0].ID)

	page = listPage(base+"?sortBy=id&sortOrder=desc", admin)
	require.Len(t, page.Content, 2)
	assert.Equal(t, ids[1], page.Content[0].ID)

	page = listPage(base+"?sortBy=id&sortDir=asc", user)
	require.Len(t, page.Content, 2)
	assert.Equal(t, ids[0], page.Content[0].ID)

	page = listPage("/api/v1/orders/admin/users/7/status/DELIVERED", admin)
	assert.Zero(t, page.TotalElements)

	status, _ := do(t, app, http.MethodGet, base, token(t, "8"), nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = do(t, app, http.MethodGet, "/api/v1/orders/admin/users/abc/status/PENDING", admin, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, app, http.MethodGet, base+"?pageNumber=922337203685477581", admin, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func jsonID(id int64) string {
	raw, _ := json.Marshal(id)
	return string(raw)
}
