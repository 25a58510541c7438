package domain

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCart        = errors.New("cart has no orderable items")
	ErrInvalidStatus    = errors.New("invalid order status")
	ErrInvalidOrderID   = errors.New("invalid order id")
	ErrRequiredField    = errors.New("field is required")
	ErrFieldTooLong     = errors.New("field is too long")
	ErrInvalidPage      = errors.New("invalid pagination")
	ErrTransitionDenied = errors.New("status transition not allowed")
	ErrOrderNotFound    = errors.New("order not found")
	ErrSchemaMissing    = errors.New("storage schema is missing")
)

// ValidationError reports input that was rejected before touching storage.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

type NotFoundError struct {
	OrderID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("order %d not found", e.OrderID)
}

func (e *NotFoundError) Unwrap() error { return ErrOrderNotFound }

// PersistenceError wraps any failure of the storage engine: unreachable
// server, timeouts, constraint violations or an absent schema.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrOrderNotFound)
}

func IsPersistence(err error) bool {
	var target *PersistenceError
	return errors.As(err, &target)
}

func IsSchemaMissing(err error) bool {
	return errors.Is(err, ErrSchemaMissing)
}
