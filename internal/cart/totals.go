package cart

import (
	"storefront/internal/models"

	"github.com/shopspring/decimal"
)

// CalculateTotals derives the item count and price of a set of lines
func CalculateTotals(items []models.LineItem) (int, decimal.Decimal) {
	totalItems := 0
	totalPrice := decimal.Zero
	for _, item := range items {
		totalItems += item.Quantity
		totalPrice = totalPrice.Add(item.LineTotal())
	}
	return totalItems, totalPrice
}

func withTotals(s State, items []models.LineItem) State {
	s.Items = items
	s.TotalItems, s.TotalPrice = CalculateTotals(items)
	return s
}
