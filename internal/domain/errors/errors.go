package errors

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyExists      = errors.New("already exists")
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("forbidden")
	ErrValidation         = errors.New("validation failed")
	ErrProductNotFound    = errors.New("product not found")
	ErrOutOfStock         = errors.New("out of stock")
	ErrTotalMismatch      = errors.New("declared total does not match item prices")
	ErrTransactionFailure = errors.New("transaction failed")
	ErrUnavailable        = errors.New("service unavailable")
)

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrValidation, e.Reason)
	}
	return fmt.Sprintf("%s: %s %s", ErrValidation, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid builds a ValidationError for field.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// OutOfStockError reports the first order line that could not be reserved.
type OutOfStockError struct {
	ProductID int64
	Available int
	Requested int
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: available %d, requested %d", e.ProductID, e.Available, e.Requested)
}

func (e *OutOfStockError) Unwrap() error { return ErrOutOfStock }

// ProductNotFoundError carries the id of the missing product.
type ProductNotFoundError struct {
	ProductID int64
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %d not found", e.ProductID)
}

func (e *ProductNotFoundError) Unwrap() error { return ErrProductNotFound }

// TransactionFailure marks err as a retryable store failure.
func TransactionFailure(err error) error {
	if err == nil || errors.Is(err, ErrTransactionFailure) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrTransactionFailure, err)
}
