package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"storefront/internal/models"
	"storefront/internal/service"
	"storefront/internal/store"
	"storefront/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

// Handler contains HTTP handlers
type Handler struct {
	cart     *service.CartService
	products *service.ProductService
	orders   *service.OrderService
}

// NewHandler creates a new HTTP handler
func NewHandler(cart *service.CartService, products *service.ProductService, orders *service.OrderService) *Handler {
	return &Handler{
		cart:     cart,
		products: products,
		orders:   orders,
	}
}

// AddToCartRequest identifies the product to add one unit of
type AddToCartRequest struct {
	ProductID string `json:"productId" binding:"required"`
}

// UpdateQuantityRequest carries the new absolute quantity of a line
type UpdateQuantityRequest struct {
	Quantity  *int             `json:"quantity" binding:"required"`
	UnitPrice *decimal.Decimal `json:"unitPrice,omitempty"`
}

// CheckoutRequest carries optional customer details
type CheckoutRequest struct {
	CustomerInfo models.CustomerInfo `json:"customerInfo"`
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/products", h.listProducts)
		v1.POST("/products", h.createProduct)
		v1.GET("/products/:id", h.getProduct)
		v1.PUT("/products/:id", h.updateProduct)
		v1.DELETE("/products/:id", h.deleteProduct)

		v1.GET("/cart", h.getCart)
		v1.POST("/cart/items", h.addToCart)
		v1.PATCH("/cart/items/:id", h.updateQuantity)
		v1.DELETE("/cart/items/:id", h.removeFromCart)
		v1.DELETE("/cart", h.clearCart)

		v1.POST("/checkout", h.checkout)
		v1.GET("/orders", h.listOrders)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

func (h *Handler) listProducts(c *gin.Context) {
	products, err := h.products.ListProducts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to list products",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, products)
}

func (h *Handler) createProduct(c *gin.Context) {
	var req service.CreateProductRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	product, err := h.products.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		c.JSON(statusFor(err), gin.H{
			"error":   "Failed to create product",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, product)
}

func (h *Handler) getProduct(c *gin.Context) {
	product, err := h.products.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{
			"error":   "Product not found",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, product)
}

func (h *Handler) updateProduct(c *gin.Context) {
	var req service.UpdateProductRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	product, err := h.products.UpdateProduct(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		c.JSON(statusFor(err), gin.H{
			"error":   "Failed to update product",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, product)
}

func (h *Handler) deleteProduct(c *gin.Context) {
	if err := h.products.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(statusFor(err), gin.H{
			"error":   "Failed to delete product",
			"details": err.Error(),
		})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) getCart(c *gin.Context) {
	c.JSON(http.StatusOK, h.cart.State())
}

func (h *Handler) addToCart(c *gin.Context) {
	var req AddToCartRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	product, err := h.products.GetProduct(c.Request.Context(), req.ProductID)
	if err != nil {
		c.JSON(statusFor(err), gin.H{
			"error":   "Product not found",
			"details": err.Error(),
		})
		return
	}

	err = h.cart.AddToCart(c.Request.Context(), product)
	h.respondWithCart(c, err)
}

func (h *Handler) updateQuantity(c *gin.Context) {
	var req UpdateQuantityRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	id := c.Param("id")
	unitPrice := decimal.Zero
	if req.UnitPrice != nil {
		unitPrice = *req.UnitPrice
	} else if line, ok := h.cart.State().ItemByID(id); ok {
		unitPrice = line.UnitPrice
	}

	err := h.cart.UpdateQuantity(c.Request.Context(), id, *req.Quantity, unitPrice)
	h.respondWithCart(c, err)
}

func (h *Handler) removeFromCart(c *gin.Context) {
	err := h.cart.RemoveFromCart(c.Request.Context(), c.Param("id"))
	h.respondWithCart(c, err)
}

func (h *Handler) clearCart(c *gin.Context) {
	err := h.cart.ClearCart(c.Request.Context())
	h.respondWithCart(c, err)
}

func (h *Handler) checkout(c *gin.Context) {
	var req CheckoutRequest

	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	order, err := h.cart.Checkout(c.Request.Context(), req.CustomerInfo)
	if err != nil {
		c.JSON(statusFor(err), gin.H{
			"error":   h.cart.State().Error,
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, order)
}

func (h *Handler) listOrders(c *gin.Context) {
	orders, err := h.orders.ListOrders(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to list orders",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, orders)
}

// respondWithCart writes the cart view, which carries any recorded error
func (h *Handler) respondWithCart(c *gin.Context, err error) {
	status := http.StatusOK
	if err != nil {
		status = statusFor(err)
	}
	c.JSON(status, h.cart.State())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrOutOfStock):
		return http.StatusConflict
	case errors.Is(err, service.ErrEmptyCart), errors.Is(err, service.ErrInvalidProduct):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrCartItemNotFound),
		errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
