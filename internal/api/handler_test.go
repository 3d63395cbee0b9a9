package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"storefront/internal/cart"
	"storefront/internal/models"
	"storefront/internal/repository"
	"storefront/internal/service"
	"storefront/internal/store"
	"storefront/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	util.SetLogger(zap.NewNop())
	os.Exit(m.Run())
}

type testServer struct {
	router   *gin.Engine
	products *repository.ProductRepository
	cartRepo *repository.CartRepository
	cart     *service.CartService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	s := store.NewMemoryStore()
	products := repository.NewProductRepository(s, "products")
	cartRepo := repository.NewCartRepository(s, "cart")
	orders := repository.NewOrderRepository(s, "orders")

	cartService := service.NewCartService(cartRepo, products, orders, nil)
	require.NoError(t, cartService.Load(context.Background()))

	router := gin.New()
	h := NewHandler(cartService, service.NewProductService(products), service.NewOrderService(orders))
	h.SetupRoutes(router)

	return &testServer{router: router, products: products, cartRepo: cartRepo, cart: cartService}
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func (ts *testServer) seedProduct(t *testing.T, name string, price int64, stock int) models.Product {
	t.Helper()
	p, err := ts.products.Create(context.Background(), models.Product{
		Name:        name,
		Description: name,
		Price:       decimal.NewFromInt(price),
		StocksLeft:  stock,
	})
	require.NoError(t, err)
	return p
}

func decodeCart(t *testing.T, w *httptest.ResponseRecorder) cart.State {
	t.Helper()
	var state cart.State
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	return state
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestProductEndpoints(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/v1/products", map[string]interface{}{
		"name":        "Mug",
		"description": "Ceramic",
		"price":       12.5,
		"stocksLeft":  3,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created models.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)

	w = ts.do(t, http.MethodGet, "/api/v1/products/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodPut, "/api/v1/products/"+created.ID, map[string]interface{}{"stocksLeft": 9})
	require.Equal(t, http.StatusOK, w.Code)
	var updated models.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, 9, updated.StocksLeft)

	w = ts.do(t, http.MethodGet, "/api/v1/products", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var list []models.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	w = ts.do(t, http.MethodDelete, "/api/v1/products/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = ts.do(t, http.MethodGet, "/api/v1/products/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateProductValidation(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/v1/products", map[string]interface{}{"description": "no name"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPost, "/api/v1/products", map[string]interface{}{
		"name":        "Refund",
		"description": "negative",
		"price":       -1,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPost, "/api/v1/products", map[string]interface{}{
		"name":        "Unpriced",
		"description": "no price",
		"stocksLeft":  2,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	products, err := ts.products.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestAddToCartAndCheckout(t *testing.T) {
	ts := newTestServer(t)
	a := ts.seedProduct(t, "A", 10, 5)
	b := ts.seedProduct(t, "B", 5, 5)

	for _, id := range []string{a.ID, a.ID, b.ID} {
		w := ts.do(t, http.MethodPost, "/api/v1/cart/items", AddToCartRequest{ProductID: id})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w := ts.do(t, http.MethodGet, "/api/v1/cart", nil)
	require.Equal(t, http.StatusOK, w.Code)
	state := decodeCart(t, w)
	assert.Len(t, state.Items, 2)
	assert.Equal(t, 3, state.TotalItems)
	assert.True(t, decimal.NewFromInt(25).Equal(state.TotalPrice))

	w = ts.do(t, http.MethodPost, "/api/v1/checkout", CheckoutRequest{CustomerInfo: models.CustomerInfo{"name": "Ada"}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var order models.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &order))
	assert.True(t, decimal.NewFromInt(25).Equal(order.TotalAmount))
	assert.Equal(t, 3, order.TotalItems)
	assert.Equal(t, models.OrderStatusPending, order.Status)

	w = ts.do(t, http.MethodGet, "/api/v1/orders", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var orders []models.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &orders))
	require.Len(t, orders, 1)
	assert.Equal(t, order.OrderNumber, orders[0].OrderNumber)

	assert.Empty(t, ts.cart.State().Items)
}

func TestAddToCartOutOfStock(t *testing.T) {
	ts := newTestServer(t)
	p := ts.seedProduct(t, "Gone", 10, 0)

	w := ts.do(t, http.MethodPost, "/api/v1/cart/items", AddToCartRequest{ProductID: p.ID})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, service.MsgOutOfStock, decodeCart(t, w).Error)
}

func TestAddToCartUnknownProduct(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/v1/cart/items", AddToCartRequest{ProductID: "missing"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(t, http.MethodPost, "/api/v1/cart/items", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateAndRemoveCartItem(t *testing.T) {
	ts := newTestServer(t)
	p := ts.seedProduct(t, "Mug", 10, 5)

	w := ts.do(t, http.MethodPost, "/api/v1/cart/items", AddToCartRequest{ProductID: p.ID})
	require.Equal(t, http.StatusOK, w.Code)
	lineID := decodeCart(t, w).Items[0].ID

	w = ts.do(t, http.MethodPatch, "/api/v1/cart/items/"+lineID, map[string]interface{}{"quantity": 3})
	require.Equal(t, http.StatusOK, w.Code)
	state := decodeCart(t, w)
	assert.Equal(t, 3, state.TotalItems)
	assert.True(t, decimal.NewFromInt(30).Equal(state.TotalPrice))

	w = ts.do(t, http.MethodPatch, "/api/v1/cart/items/"+lineID, map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodDelete, "/api/v1/cart/items/"+lineID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeCart(t, w).Items)

	restored, err := ts.products.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, restored.StocksLeft)

	w = ts.do(t, http.MethodDelete, "/api/v1/cart/items/"+lineID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, service.MsgRemoveFailed, decodeCart(t, w).Error)
}

func TestClearCart(t *testing.T) {
	ts := newTestServer(t)
	p := ts.seedProduct(t, "Mug", 10, 5)

	w := ts.do(t, http.MethodPost, "/api/v1/cart/items", AddToCartRequest{ProductID: p.ID})
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodDelete, "/api/v1/cart", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeCart(t, w).Items)

	lines, err := ts.cartRepo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestCheckoutEmptyCart(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/v1/checkout", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), service.MsgEmptyCart)
}
