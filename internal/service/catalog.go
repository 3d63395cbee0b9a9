package service

import (
	"fmt"
	"os"

	"storefront/internal/models"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type catalogFile struct {
	Products []catalogEntry `yaml:"products"`
}

type catalogEntry struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Price       string `yaml:"price"`
	StocksLeft  int    `yaml:"stocksLeft"`
}

// LoadCatalog reads a YAML product list from path
func LoadCatalog(path string) ([]models.Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes a YAML product list
func ParseCatalog(data []byte) ([]models.Product, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	products := make([]models.Product, 0, len(file.Products))
	for i, entry := range file.Products {
		if entry.Name == "" {
			return nil, fmt.Errorf("catalog entry %d: %w: name is required", i, ErrInvalidProduct)
		}

		price := decimal.Zero
		if entry.Price != "" {
			p, err := decimal.NewFromString(entry.Price)
			if err != nil {
				return nil, fmt.Errorf("catalog entry %s: invalid price %q: %w", entry.Name, entry.Price, err)
			}
			price = p
		}
		if price.IsNegative() || entry.StocksLeft < 0 {
			return nil, fmt.Errorf("catalog entry %s: %w: negative price or stock", entry.Name, ErrInvalidProduct)
		}

		products = append(products, models.Product{
			Name:        entry.Name,
			Description: entry.Description,
			Price:       price,
			StocksLeft:  entry.StocksLeft,
		})
	}
	return products, nil
}
