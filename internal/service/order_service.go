package service

import (
	"context"
	"fmt"

	"storefront/internal/models"
	"storefront/internal/repository"
	"storefront/internal/util"

	"go.uber.org/zap"
)

// OrderService serves the checkout history
type OrderService struct {
	orders *repository.OrderRepository
	logger *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(orders *repository.OrderRepository) *OrderService {
	return &OrderService{
		orders: orders,
		logger: util.GetLogger(),
	}
}

// ListOrders returns every placed order, newest first
func (s *OrderService) ListOrders(ctx context.Context) ([]models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.ListOrders")
	defer span.End()

	orders, err := s.orders.List(ctx)
	if err != nil {
		util.RecordError(span, err)
		s.logger.Error("Failed to list orders", zap.Error(err))
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}
