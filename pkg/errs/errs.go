// Package errs defines the error kinds shared by the terminal packages.
//
// Packages wrap one of the sentinels with context and callers classify the
// result with errors.Is.
package errs

import "errors"

var (
	// ErrValidation marks a request rejected before any state was changed:
	// submitting an unsubmitable cart, malformed cash input, a quantity that
	// would go below zero.
	ErrValidation = errors.New("validation error")

	// ErrNotFound marks a reference to something that does not exist, such as
	// adjusting a product type that is not in the cart.
	ErrNotFound = errors.New("not found")

	// ErrNetwork marks a failed call to an upstream service.
	ErrNetwork = errors.New("network error")
)
