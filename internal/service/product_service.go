package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/models"
	"storefront/internal/repository"
	"storefront/internal/store"
	"storefront/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductService handles catalog administration
type ProductService struct {
	products *repository.ProductRepository
	logger   *zap.Logger
}

// NewProductService creates a new product service
func NewProductService(products *repository.ProductRepository) *ProductService {
	return &ProductService{
		products: products,
		logger:   util.GetLogger(),
	}
}

// CreateProductRequest represents a request to add a product to the catalog
type CreateProductRequest struct {
	Name        string           `json:"name" binding:"required"`
	Description string           `json:"description" binding:"required"`
	Price       *decimal.Decimal `json:"price" binding:"required"`
	StocksLeft  int              `json:"stocksLeft" binding:"min=0"`
}

// UpdateProductRequest represents a partial product update
type UpdateProductRequest struct {
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	StocksLeft  *int             `json:"stocksLeft,omitempty"`
}

// ListProducts returns the whole catalog
func (s *ProductService) ListProducts(ctx context.Context) ([]models.Product, error) {
	ctx, span := util.StartSpan(ctx, "ProductService.ListProducts")
	defer span.End()

	products, err := s.products.List(ctx)
	if err != nil {
		util.RecordError(span, err)
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// GetProduct retrieves a product by id
func (s *ProductService) GetProduct(ctx context.Context, id string) (models.Product, error) {
	ctx, span := util.StartSpan(ctx, "ProductService.GetProduct")
	defer span.End()

	product, err := s.products.Get(ctx, id)
	if err != nil {
		util.RecordError(span, err)
		if errors.Is(err, store.ErrNotFound) {
			return models.Product{}, fmt.Errorf("%w: %s", ErrProductNotFound, id)
		}
		return models.Product{}, err
	}
	return product, nil
}

// CreateProduct validates and stores a new product
func (s *ProductService) CreateProduct(ctx context.Context, req *CreateProductRequest) (models.Product, error) {
	ctx, span := util.StartSpan(ctx, "ProductService.CreateProduct")
	defer span.End()

	if err := validateNewProduct(req); err != nil {
		return models.Product{}, err
	}

	product, err := s.products.Create(ctx, models.Product{
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Price:       *req.Price,
		StocksLeft:  req.StocksLeft,
	})
	if err != nil {
		util.RecordError(span, err)
		return models.Product{}, err
	}

	s.logger.Info("Product created",
		zap.String("product_id", product.ID),
		zap.String("name", product.Name))
	return product, nil
}

// UpdateProduct applies a partial update to a product
func (s *ProductService) UpdateProduct(ctx context.Context, id string, req *UpdateProductRequest) (models.Product, error) {
	ctx, span := util.StartSpan(ctx, "ProductService.UpdateProduct")
	defer span.End()

	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return models.Product{}, fmt.Errorf("%w: name is required", ErrInvalidProduct)
	}
	if req.Price != nil && req.Price.IsNegative() {
		return models.Product{}, fmt.Errorf("%w: price must not be negative", ErrInvalidProduct)
	}
	if req.StocksLeft != nil && *req.StocksLeft < 0 {
		return models.Product{}, fmt.Errorf("%w: stocksLeft must not be negative", ErrInvalidProduct)
	}

	patch := repository.ProductPatch{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		StocksLeft:  req.StocksLeft,
	}
	if err := s.products.Update(ctx, id, patch); err != nil {
		util.RecordError(span, err)
		if errors.Is(err, store.ErrNotFound) {
			return models.Product{}, fmt.Errorf("%w: %s", ErrProductNotFound, id)
		}
		return models.Product{}, err
	}

	return s.GetProduct(ctx, id)
}

// DeleteProduct removes a product from the catalog
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	ctx, span := util.StartSpan(ctx, "ProductService.DeleteProduct")
	defer span.End()

	if err := s.products.Delete(ctx, id); err != nil {
		util.RecordError(span, err)
		return err
	}
	return nil
}

// SeedCatalog stores products only when the catalog is empty and reports how
// many were created
func (s *ProductService) SeedCatalog(ctx context.Context, products []models.Product) (int, error) {
	existing, err := s.products.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list products: %w", err)
	}
	if len(existing) > 0 {
		s.logger.Info("Catalog already populated, skipping seed", zap.Int("products", len(existing)))
		return 0, nil
	}

	for i, p := range products {
		if _, err := s.products.Create(ctx, p); err != nil {
			return i, fmt.Errorf("failed to seed product %s: %w", p.Name, err)
		}
	}

	s.logger.Info("Catalog seeded", zap.Int("products", len(products)))
	return len(products), nil
}

func validateNewProduct(req *CreateProductRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProduct)
	}
	if strings.TrimSpace(req.Description) == "" {
		return fmt.Errorf("%w: description is required", ErrInvalidProduct)
	}
	if req.Price == nil {
		return fmt.Errorf("%w: price is required", ErrInvalidProduct)
	}
	if req.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidProduct)
	}
	if req.StocksLeft < 0 {
		return fmt.Errorf("%w: stocksLeft must not be negative", ErrInvalidProduct)
	}
	return nil
}
