package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"storefront/internal/models"
	"storefront/internal/store"

	"github.com/shopspring/decimal"
)

type orderDoc struct {
	OrderNumber  string              `json:"orderNumber"`
	Items        []models.LineItem   `json:"items"`
	TotalAmount  decimal.Decimal     `json:"totalAmount"`
	TotalItems   int                 `json:"totalItems"`
	CustomerInfo models.CustomerInfo `json:"customerInfo"`
	Status       string              `json:"status"`
	OrderDate    time.Time           `json:"orderDate"`
}

func (d orderDoc) toModel(id string) models.Order {
	return models.Order{
		ID:           id,
		OrderNumber:  d.OrderNumber,
		Items:        d.Items,
		TotalAmount:  d.TotalAmount,
		TotalItems:   d.TotalItems,
		CustomerInfo: d.CustomerInfo,
		Status:       d.Status,
		OrderDate:    d.OrderDate,
	}
}

// OrderRepository is append-only storage for placed orders
type OrderRepository struct {
	store      store.DocumentStore
	collection string
}

// NewOrderRepository creates a repository over the given collection
func NewOrderRepository(s store.DocumentStore, collection string) *OrderRepository {
	return &OrderRepository{store: s, collection: collection}
}

// Create stores an order and returns it with its assigned id
func (r *OrderRepository) Create(ctx context.Context, order models.Order) (models.Order, error) {
	items := order.Items
	if items == nil {
		items = []models.LineItem{}
	}
	customer := order.CustomerInfo
	if customer == nil {
		customer = models.CustomerInfo{}
	}

	d := orderDoc{
		OrderNumber:  order.OrderNumber,
		Items:        items,
		TotalAmount:  order.TotalAmount,
		TotalItems:   order.TotalItems,
		CustomerInfo: customer,
		Status:       order.Status,
		OrderDate:    order.OrderDate,
	}

	body, err := json.Marshal(d)
	if err != nil {
		return models.Order{}, fmt.Errorf("failed to marshal order: %w", err)
	}

	id, err := r.store.Create(ctx, r.collection, body)
	if err != nil {
		return models.Order{}, fmt.Errorf("failed to create order: %w", err)
	}
	return d.toModel(id), nil
}

// List retrieves all orders, newest first
func (r *OrderRepository) List(ctx context.Context) ([]models.Order, error) {
	docs, err := r.store.List(ctx, r.collection)
	if err != nil {
		return nil, err
	}

	orders := make([]models.Order, 0, len(docs))
	for _, doc := range docs {
		var d orderDoc
		if err := doc.Decode(&d); err != nil {
			return nil, err
		}
		orders = append(orders, d.toModel(doc.ID))
	}

	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].OrderDate.After(orders[j].OrderDate)
	})
	return orders, nil
}
