package cart

import "storefront/internal/models"

// Intent is a request to change cart state. The set of intents is closed:
// only the types in this file implement it.
type Intent interface {
	intent()
}

// SetLoading marks a mutation or reload as in flight
type SetLoading struct {
	Loading bool
}

// ReplaceAll swaps in the authoritative lines read back from the store
type ReplaceAll struct {
	Items []models.LineItem
}

// AddItem merges a line into the cart, incrementing an existing line for the same product
type AddItem struct {
	Item models.LineItem
}

// UpdateItem sets the absolute quantity of a line
type UpdateItem struct {
	ID       string
	Quantity int
}

// RemoveItem drops a line
type RemoveItem struct {
	ID string
}

// ClearCart drops every line
type ClearCart struct{}

// SetError records a failure message
type SetError struct {
	Message string
}

// ClearError forgets the last failure
type ClearError struct{}

func (SetLoading) intent() {}
func (ReplaceAll) intent() {}
func (AddItem) intent()    {}
func (UpdateItem) intent() {}
func (RemoveItem) intent() {}
func (ClearCart) intent()  {}
func (SetError) intent()   {}
func (ClearError) intent() {}
