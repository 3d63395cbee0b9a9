package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"storefront/internal/models"
	"storefront/internal/store"

	"github.com/shopspring/decimal"
)

type productDoc struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	StocksLeft  *int             `json:"stocksLeft,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

func (d productDoc) toModel(id string) models.Product {
	p := models.Product{
		ID:          id,
		Name:        d.Name,
		Description: d.Description,
		Price:       decimal.Zero,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	if d.Price != nil {
		p.Price = *d.Price
	}
	if d.StocksLeft != nil {
		p.StocksLeft = *d.StocksLeft
	}
	return p
}

// ProductPatch lists the product fields an update may change
type ProductPatch struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	StocksLeft  *int
}

func (p ProductPatch) fields() map[string]interface{} {
	out := make(map[string]interface{})
	if p.Name != nil {
		out["name"] = *p.Name
	}
	if p.Description != nil {
		out["description"] = *p.Description
	}
	if p.Price != nil {
		out["price"] = *p.Price
	}
	if p.StocksLeft != nil {
		out["stocksLeft"] = *p.StocksLeft
	}
	return out
}

// ProductRepository owns the products collection and its stocksLeft field
type ProductRepository struct {
	store      store.DocumentStore
	collection string
	now        func() time.Time
}

// NewProductRepository creates a repository over the given collection
func NewProductRepository(s store.DocumentStore, collection string) *ProductRepository {
	return &ProductRepository{store: s, collection: collection, now: time.Now}
}

// List retrieves all products
func (r *ProductRepository) List(ctx context.Context) ([]models.Product, error) {
	docs, err := r.store.List(ctx, r.collection)
	if err != nil {
		return nil, err
	}

	products := make([]models.Product, 0, len(docs))
	for _, doc := range docs {
		var d productDoc
		if err := doc.Decode(&d); err != nil {
			return nil, err
		}
		products = append(products, d.toModel(doc.ID))
	}
	return products, nil
}

// Get retrieves a product by id; a missing product wraps store.ErrNotFound
func (r *ProductRepository) Get(ctx context.Context, id string) (models.Product, error) {
	doc, err := r.store.Get(ctx, r.collection, id)
	if err != nil {
		return models.Product{}, fmt.Errorf("product %s: %w", id, err)
	}

	var d productDoc
	if err := doc.Decode(&d); err != nil {
		return models.Product{}, err
	}
	return d.toModel(doc.ID), nil
}

// Create stores a new product; the store assigns its id
func (r *ProductRepository) Create(ctx context.Context, p models.Product) (models.Product, error) {
	now := r.now()
	price := p.Price
	stock := p.StocksLeft
	d := productDoc{
		Name:        p.Name,
		Description: p.Description,
		Price:       &price,
		StocksLeft:  &stock,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	body, err := json.Marshal(d)
	if err != nil {
		return models.Product{}, fmt.Errorf("failed to marshal product: %w", err)
	}

	id, err := r.store.Create(ctx, r.collection, body)
	if err != nil {
		return models.Product{}, fmt.Errorf("failed to create product: %w", err)
	}
	return d.toModel(id), nil
}

// Update applies a partial change to a product
func (r *ProductRepository) Update(ctx context.Context, id string, patch ProductPatch) error {
	fields := patch.fields()
	fields["updatedAt"] = r.now()

	if err := r.store.Update(ctx, r.collection, id, fields); err != nil {
		return fmt.Errorf("failed to update product %s: %w", id, err)
	}
	return nil
}

// Delete removes a product
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, r.collection, id); err != nil {
		return fmt.Errorf("failed to delete product %s: %w", id, err)
	}
	return nil
}

// SetStock overwrites the remaining stock count of a product
func (r *ProductRepository) SetStock(ctx context.Context, id string, count int) error {
	return r.Update(ctx, id, ProductPatch{StocksLeft: &count})
}
