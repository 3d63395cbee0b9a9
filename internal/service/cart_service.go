package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"storefront/internal/cart"
	"storefront/internal/models"
	"storefront/internal/repository"
	"storefront/internal/store"
	"storefront/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// EventPublisher publishes domain events about placed orders
type EventPublisher interface {
	PublishOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error
}

// CartService sequences cart writes against the store and keeps the
// in-memory cart state in step with what the store holds. The mutex only
// protects the state value; operations are not serialized against each other.
type CartService struct {
	mu       sync.RWMutex
	state    cart.State
	cart     *repository.CartRepository
	products *repository.ProductRepository
	orders   *repository.OrderRepository
	numbers  *OrderNumberGenerator
	events   EventPublisher
	now      func() time.Time
	logger   *zap.Logger
}

// NewCartService creates a new cart service. events may be nil.
func NewCartService(
	cartRepo *repository.CartRepository,
	productRepo *repository.ProductRepository,
	orderRepo *repository.OrderRepository,
	events EventPublisher,
) *CartService {
	return &CartService{
		state:    cart.InitialState(),
		cart:     cartRepo,
		products: productRepo,
		orders:   orderRepo,
		numbers:  NewOrderNumberGenerator(),
		events:   events,
		now:      time.Now,
		logger:   util.GetLogger(),
	}
}

// State returns a snapshot of the cart view
func (s *CartService) State() cart.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

func (s *CartService) dispatch(in cart.Intent) {
	s.mu.Lock()
	s.state = cart.Transition(s.state, in)
	s.mu.Unlock()
}

// fail records msg into the cart state and counts the failed operation
func (s *CartService) fail(operation, msg string, err error, fields ...zap.Field) {
	s.dispatch(cart.SetError{Message: msg})
	util.CartOperationsTotal.WithLabelValues(operation, "error").Inc()
	s.logger.Error("Cart operation failed",
		append([]zap.Field{zap.String("operation", operation), zap.Error(err)}, fields...)...)
}

func (s *CartService) succeed(operation string) {
	util.CartOperationsTotal.WithLabelValues(operation, "success").Inc()
}

// reload reads the authoritative cart lines and replaces the state with them
func (s *CartService) reload(ctx context.Context) error {
	start := time.Now()
	items, err := s.cart.List(ctx)
	util.CartReloadLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("failed to reload cart: %w", err)
	}

	s.dispatch(cart.ReplaceAll{Items: items})
	return nil
}

// Load performs the initial read of the cart from the store
func (s *CartService) Load(ctx context.Context) error {
	ctx, span := util.StartSpan(ctx, "CartService.Load")
	defer span.End()

	s.dispatch(cart.SetLoading{Loading: true})
	if err := s.reload(ctx); err != nil {
		util.RecordError(span, err)
		s.fail("load", MsgLoadFailed, err)
		return err
	}

	s.succeed("load")
	return nil
}

// AddToCart adds one unit of product to the cart and takes one unit off its stock
func (s *CartService) AddToCart(ctx context.Context, product models.Product) error {
	ctx, span := util.StartSpan(ctx, "CartService.AddToCart")
	defer span.End()

	s.dispatch(cart.ClearError{})

	if err := validateCartProduct(product); err != nil {
		util.RecordError(span, err)
		s.fail("add", MsgAddFailed, err, zap.String("product_id", product.ID))
		return err
	}

	if !product.InStock() {
		s.fail("add", MsgOutOfStock, ErrOutOfStock, zap.String("product_id", product.ID))
		return ErrOutOfStock
	}

	s.dispatch(cart.SetLoading{Loading: true})

	if err := s.addToCart(ctx, product); err != nil {
		util.RecordError(span, err)
		s.fail("add", MsgAddFailed, err, zap.String("product_id", product.ID))
		return err
	}

	s.succeed("add")
	return nil
}

func (s *CartService) addToCart(ctx context.Context, product models.Product) error {
	if existing, ok := s.State().ItemByProductID(product.ID); ok {
		if err := s.cart.Update(ctx, existing.ID, existing.Quantity+1, product.Price); err != nil {
			return err
		}
	} else {
		line := models.LineItem{
			ProductID:   product.ID,
			Name:        product.Name,
			Description: product.Description,
			Quantity:    1,
			UnitPrice:   product.Price,
		}
		if _, err := s.cart.Create(ctx, line); err != nil {
			return err
		}
	}

	if err := s.products.SetStock(ctx, product.ID, product.StocksLeft-1); err != nil {
		return err
	}
	util.StockAdjustmentsTotal.WithLabelValues("decrement").Inc()

	return s.reload(ctx)
}

// RemoveFromCart deletes a line and puts its quantity back into the product's stock
func (s *CartService) RemoveFromCart(ctx context.Context, cartItemID string) error {
	ctx, span := util.StartSpan(ctx, "CartService.RemoveFromCart")
	defer span.End()

	s.dispatch(cart.ClearError{})
	s.dispatch(cart.SetLoading{Loading: true})

	if err := s.removeFromCart(ctx, cartItemID); err != nil {
		util.RecordError(span, err)
		s.fail("remove", MsgRemoveFailed, err, zap.String("cart_item_id", cartItemID))
		return err
	}

	s.succeed("remove")
	return nil
}

func (s *CartService) removeFromCart(ctx context.Context, cartItemID string) error {
	line, ok := s.State().ItemByID(cartItemID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrCartItemNotFound, cartItemID)
	}

	product, err := s.products.Get(ctx, line.ProductID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrProductNotFound, line.ProductID)
		}
		return err
	}

	if err := s.products.SetStock(ctx, product.ID, product.StocksLeft+line.Quantity); err != nil {
		return err
	}
	util.StockAdjustmentsTotal.WithLabelValues("restore").Inc()

	if err := s.cart.Delete(ctx, cartItemID); err != nil {
		return err
	}

	return s.reload(ctx)
}

// UpdateQuantity sets the absolute quantity of a line. A quantity of zero or
// less removes the line. Stock is not adjusted on this path.
func (s *CartService) UpdateQuantity(ctx context.Context, cartItemID string, quantity int, unitPrice decimal.Decimal) error {
	ctx, span := util.StartSpan(ctx, "CartService.UpdateQuantity")
	defer span.End()

	s.dispatch(cart.ClearError{})

	if quantity <= 0 {
		return s.RemoveFromCart(ctx, cartItemID)
	}

	s.dispatch(cart.SetLoading{Loading: true})

	err := s.cart.Update(ctx, cartItemID, quantity, unitPrice)
	if err == nil {
		err = s.reload(ctx)
	}
	if err != nil {
		util.RecordError(span, err)
		s.fail("update", MsgUpdateFailed, err, zap.String("cart_item_id", cartItemID))
		return err
	}

	s.succeed("update")
	return nil
}

// ClearCart deletes every cart line. Stock is not restored.
func (s *CartService) ClearCart(ctx context.Context) error {
	ctx, span := util.StartSpan(ctx, "CartService.ClearCart")
	defer span.End()

	s.dispatch(cart.ClearError{})
	s.dispatch(cart.SetLoading{Loading: true})

	if err := s.cart.DeleteAll(ctx); err != nil {
		util.RecordError(span, err)
		s.fail("clear", MsgClearFailed, err)
		return err
	}

	s.dispatch(cart.ClearCart{})
	s.dispatch(cart.SetLoading{Loading: false})
	s.succeed("clear")
	return nil
}

// Checkout turns the current cart into a pending order and empties the cart
func (s *CartService) Checkout(ctx context.Context, customerInfo models.CustomerInfo) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "CartService.Checkout")
	defer span.End()

	s.dispatch(cart.ClearError{})

	snapshot := s.State()
	if snapshot.IsEmpty() {
		util.CheckoutFailedTotal.WithLabelValues("empty_cart").Inc()
		s.fail("checkout", MsgEmptyCart, ErrEmptyCart)
		return nil, ErrEmptyCart
	}

	s.dispatch(cart.SetLoading{Loading: true})

	if customerInfo == nil {
		customerInfo = models.CustomerInfo{}
	}

	order, err := s.orders.Create(ctx, models.Order{
		OrderNumber:  s.numbers.Next(),
		Items:        snapshot.Items,
		TotalAmount:  snapshot.TotalPrice,
		TotalItems:   snapshot.TotalItems,
		CustomerInfo: customerInfo,
		Status:       models.OrderStatusPending,
		OrderDate:    s.now(),
	})
	if err == nil {
		err = s.cart.DeleteAll(ctx)
	}
	if err != nil {
		util.RecordError(span, err)
		util.CheckoutFailedTotal.WithLabelValues("store_error").Inc()
		s.fail("checkout", MsgCheckoutFailed, err)
		return nil, err
	}

	s.dispatch(cart.ClearCart{})
	s.dispatch(cart.SetLoading{Loading: false})
	s.succeed("checkout")
	util.OrdersCreatedTotal.Inc()
	s.logger.Info("Order placed",
		zap.String("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.Int("total_items", order.TotalItems),
		zap.String("total_amount", order.TotalAmount.String()))

	s.publishOrderPlaced(ctx, &order)
	return &order, nil
}

// publishOrderPlaced is best effort; a failed publish never fails the checkout
func (s *CartService) publishOrderPlaced(ctx context.Context, order *models.Order) {
	if s.events == nil {
		return
	}

	items := make([]models.OrderItemData, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, models.OrderItemData{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	event := &models.OrderPlacedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderPlaced,
			Timestamp: s.now(),
		},
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		TotalAmount: order.TotalAmount,
		TotalItems:  order.TotalItems,
		Items:       items,
	}

	if err := s.events.PublishOrderPlaced(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderPlaced event",
			zap.String("order_number", order.OrderNumber),
			zap.Error(err))
	}
}

// validateCartProduct checks the fields a cart line is built from
func validateCartProduct(p models.Product) error {
	if p.ID == "" || p.Name == "" {
		return fmt.Errorf("%w: missing required fields", ErrInvalidProduct)
	}
	if p.Price.IsNegative() {
		return fmt.Errorf("%w: negative price", ErrInvalidProduct)
	}
	return nil
}
