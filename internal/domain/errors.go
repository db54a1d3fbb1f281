package domain

import "errors"

// Domain errors
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrInternalError   = errors.New("internal error")

	// Not-found and unauthorized are deliberately collapsed for owner-scoped
	// entities so callers cannot probe for other users' records.
	ErrAccountNotFound     = errors.New("account not found or unauthorized")
	ErrTransactionNotFound = errors.New("transaction not found or unauthorized")
	ErrCategoryNotFound    = errors.New("category not found")
	ErrCurrencyNotFound    = errors.New("currency not found")

	ErrCurrencyInUse = errors.New("currency is in use by an account")

	ErrInvalidAmount          = errors.New("amount must be positive")
	ErrInvalidTransactionType = errors.New("invalid transaction type")
	ErrInvalidCategoryType    = errors.New("invalid category type")
	ErrInvalidDate            = errors.New("invalid date")
	ErrNameRequired           = errors.New("name is required")
	ErrNameTooLong            = errors.New("name exceeds maximum length")
	ErrCodeRequired           = errors.New("code is required")
	ErrDescriptionTooLong     = errors.New("description exceeds maximum length")
)

// Validation constants
const (
	MaxNameLength         = 255
	MaxDescriptionLength  = 1000
	MaxCurrencyCodeLength = 8
)
