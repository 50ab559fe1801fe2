package portfolio

import "errors"

// Typed rejections of the accounting engine. Every failed operation
// returns exactly one of these with no partial mutation; the handler layer
// maps them to HTTP statuses and stable error kinds.
var (
	ErrValidation           = errors.New("invalid input")
	ErrInsufficientFunds    = errors.New("insufficient available funds")
	ErrInsufficientQuantity = errors.New("insufficient quantity held")
	ErrPositionNotFound     = errors.New("position not found")
	ErrUserNotFound         = errors.New("user funds record not found")
	ErrHoldingNotFound      = errors.New("holding not found")
	ErrConflict             = errors.New("concurrent update conflict")
)
