package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"storefront/internal/models"
	"storefront/internal/store"
	"storefront/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// cartLineDoc is the stored shape of a cart line. Older records may carry
// price instead of unitPrice, or no totalPayable at all.
type cartLineDoc struct {
	ProductID    string           `json:"productId"`
	Name         string           `json:"name"`
	Description  string           `json:"description"`
	Quantity     int              `json:"quantity"`
	UnitPrice    *decimal.Decimal `json:"unitPrice,omitempty"`
	Price        *decimal.Decimal `json:"price,omitempty"`
	TotalPayable *decimal.Decimal `json:"totalPayable,omitempty"`
	AddedAt      *time.Time       `json:"addedAt,omitempty"`
	UpdatedAt    *time.Time       `json:"updatedAt,omitempty"`
}

// normalize folds the stored variants into the canonical line item
func (d cartLineDoc) normalize(id string) models.LineItem {
	unitPrice := decimal.Zero
	switch {
	case d.UnitPrice != nil:
		unitPrice = *d.UnitPrice
	case d.Price != nil:
		unitPrice = *d.Price
	}

	item := models.LineItem{
		ID:          id,
		ProductID:   d.ProductID,
		Name:        d.Name,
		Description: d.Description,
		Quantity:    d.Quantity,
		UnitPrice:   unitPrice,
	}
	item.TotalPayable = item.LineTotal()
	return item
}

// CartRepository stores one document per cart line
type CartRepository struct {
	store      store.DocumentStore
	collection string
	now        func() time.Time
	logger     *zap.Logger
}

// NewCartRepository creates a repository over the given collection
func NewCartRepository(s store.DocumentStore, collection string) *CartRepository {
	return &CartRepository{store: s, collection: collection, now: time.Now, logger: util.GetLogger()}
}

// List retrieves every cart line in canonical form. Records with a quantity
// of zero or less are skipped; DeleteAll still removes them.
func (r *CartRepository) List(ctx context.Context) ([]models.LineItem, error) {
	docs, err := r.store.List(ctx, r.collection)
	if err != nil {
		return nil, err
	}

	items := make([]models.LineItem, 0, len(docs))
	for _, doc := range docs {
		var d cartLineDoc
		if err := doc.Decode(&d); err != nil {
			return nil, err
		}
		if d.Quantity <= 0 {
			r.logger.Warn("Skipping cart line with non-positive quantity",
				zap.String("cart_item_id", doc.ID),
				zap.String("product_id", d.ProductID),
				zap.Int("quantity", d.Quantity))
			continue
		}
		items = append(items, d.normalize(doc.ID))
	}
	return items, nil
}

// Create stores a new line; the store assigns its id
func (r *CartRepository) Create(ctx context.Context, item models.LineItem) (models.LineItem, error) {
	now := r.now()
	unitPrice := item.UnitPrice
	total := item.LineTotal()
	d := cartLineDoc{
		ProductID:    item.ProductID,
		Name:         item.Name,
		Description:  item.Description,
		Quantity:     item.Quantity,
		UnitPrice:    &unitPrice,
		TotalPayable: &total,
		AddedAt:      &now,
	}

	body, err := json.Marshal(d)
	if err != nil {
		return models.LineItem{}, fmt.Errorf("failed to marshal cart line: %w", err)
	}

	id, err := r.store.Create(ctx, r.collection, body)
	if err != nil {
		return models.LineItem{}, fmt.Errorf("failed to create cart line: %w", err)
	}
	return d.normalize(id), nil
}

// Update writes a new quantity and the matching totalPayable
func (r *CartRepository) Update(ctx context.Context, id string, quantity int, unitPrice decimal.Decimal) error {
	fields := map[string]interface{}{
		"quantity":     quantity,
		"totalPayable": unitPrice.Mul(decimal.NewFromInt(int64(quantity))),
		"updatedAt":    r.now(),
	}
	if err := r.store.Update(ctx, r.collection, id, fields); err != nil {
		return fmt.Errorf("failed to update cart line %s: %w", id, err)
	}
	return nil
}

// Delete removes one line
func (r *CartRepository) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, r.collection, id); err != nil {
		return fmt.Errorf("failed to delete cart line %s: %w", id, err)
	}
	return nil
}

// DeleteAll removes every line in the collection
func (r *CartRepository) DeleteAll(ctx context.Context) error {
	docs, err := r.store.List(ctx, r.collection)
	if err != nil {
		return fmt.Errorf("failed to list cart lines: %w", err)
	}

	for _, doc := range docs {
		if err := r.store.Delete(ctx, r.collection, doc.ID); err != nil {
			return fmt.Errorf("failed to delete cart line %s: %w", doc.ID, err)
		}
	}
	return nil
}
