package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrCartVersionConflict = errors.New("cart version conflict")
	ErrInvalidQuantity     = errors.New("quantity must be at least 1")
	ErrDuplicateItem       = errors.New("duplicate product in cart")
	ErrItemNotInCart       = errors.New("item not in cart")
	ErrIllegalTransition   = errors.New("illegal order status transition")
	ErrUnknownOrderStatus  = errors.New("unknown order status")
	ErrUnknownReviewStatus = errors.New("unknown review status")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrUserBlocked         = errors.New("user is blocked")
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrInvalidOTP          = errors.New("invalid or expired otp")
	ErrEmptyOrder          = errors.New("order has no products")
	ErrPaymentNotSettled   = errors.New("payment is not settled yet")
	ErrPaymentMissing      = errors.New("order has no payment intent")
)

// A ValidationError reports a rejected input field.
type ValidationError struct {
	Field string
	Msg   string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

func NewValidationError(field, msg string) error {
	return ValidationError{Field: field, Msg: msg}
}
