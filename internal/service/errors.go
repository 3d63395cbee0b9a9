package service

import "errors"

// Operation errors
var (
	ErrOutOfStock       = errors.New("product is out of stock")
	ErrEmptyCart        = errors.New("cart is empty")
	ErrCartItemNotFound = errors.New("cart item not found")
	ErrProductNotFound  = errors.New("product not found")
	ErrInvalidProduct   = errors.New("invalid product")
)

// Messages recorded into the cart error state
const (
	MsgOutOfStock     = "This product is out of stock!"
	MsgEmptyCart      = "Your cart is empty!"
	MsgAddFailed      = "Error adding product to cart. Please try again."
	MsgRemoveFailed   = "Error removing item from cart. Please try again."
	MsgUpdateFailed   = "Error updating quantity. Please try again."
	MsgClearFailed    = "Error clearing cart. Please try again."
	MsgCheckoutFailed = "Error processing checkout. Please try again."
	MsgLoadFailed     = "Failed to load cart."
)
