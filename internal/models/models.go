package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a sellable product in the catalog
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	StocksLeft  int             `json:"stocksLeft"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// InStock reports whether at least one unit can be sold
func (p Product) InStock() bool {
	return p.StocksLeft > 0
}

// LineItem represents one row of the cart: a quantity of a single product
type LineItem struct {
	ID           string          `json:"id"`
	ProductID    string          `json:"productId"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	TotalPayable decimal.Decimal `json:"totalPayable"`
}

// LineTotal returns unitPrice * quantity
func (li LineItem) LineTotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// CustomerInfo holds free-form customer details captured at checkout
type CustomerInfo map[string]string

// Order is an immutable snapshot of the cart taken at checkout
type Order struct {
	ID           string          `json:"id"`
	OrderNumber  string          `json:"orderNumber"`
	Items        []LineItem      `json:"items"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
	TotalItems   int             `json:"totalItems"`
	CustomerInfo CustomerInfo    `json:"customerInfo"`
	Status       string          `json:"status"`
	OrderDate    time.Time       `json:"orderDate"`
}

// Order statuses
const (
	OrderStatusPending = "pending"
)
