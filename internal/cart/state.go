package cart

import (
	"storefront/internal/models"

	"github.com/shopspring/decimal"
)

// State is the in-memory cart view, rebuilt from the store after every mutation.
// TotalItems and TotalPrice are derived from Items and only ever set by Transition.
type State struct {
	Items      []models.LineItem `json:"items"`
	TotalItems int               `json:"totalItems"`
	TotalPrice decimal.Decimal   `json:"totalPrice"`
	Loading    bool              `json:"loading"`
	Error      string            `json:"error,omitempty"`
}

// InitialState returns an empty, idle cart
func InitialState() State {
	return State{
		Items:      []models.LineItem{},
		TotalPrice: decimal.Zero,
	}
}

// ItemByID finds a line by its store id
func (s State) ItemByID(id string) (models.LineItem, bool) {
	for _, item := range s.Items {
		if item.ID == id {
			return item, true
		}
	}
	return models.LineItem{}, false
}

// ItemByProductID finds the line holding the given product
func (s State) ItemByProductID(productID string) (models.LineItem, bool) {
	for _, item := range s.Items {
		if item.ProductID == productID {
			return item, true
		}
	}
	return models.LineItem{}, false
}

// IsEmpty reports whether the cart has no lines
func (s State) IsEmpty() bool {
	return len(s.Items) == 0
}

// Clone returns a copy that shares no backing array with s
func (s State) Clone() State {
	out := s
	out.Items = append([]models.LineItem(nil), s.Items...)
	return out
}
