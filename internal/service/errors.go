package service

import "errors"

// Failure taxonomy exposed by the service. Callers classify with errors.Is;
// everything that is not a caller error surfaces as ErrStorage with the
// underlying cause attached for logs only.
var (
	// ErrInvalidAddressIndex: shipping or billing index outside the supplied
	// address list. Caller error, not retryable.
	ErrInvalidAddressIndex = errors.New("address index out of range")

	// ErrInvalidQuantity: a line item quantity was not a positive integer.
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")

	// ErrProductUnavailable: a product upsert yielded no usable row.
	// Transient; safe to retry.
	ErrProductUnavailable = errors.New("product unavailable")

	// ErrInvalidStatus: target status outside the fixed enumeration.
	ErrInvalidStatus = errors.New("invalid order status")

	// ErrOrderNotFound: no order matches the given identifier.
	ErrOrderNotFound = errors.New("order not found")

	// ErrStorage: opaque persistence failure. Retry is at the caller's
	// discretion.
	ErrStorage = errors.New("storage failure")
)
