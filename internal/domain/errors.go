package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists signals a duplicate resource.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidInput signals a rejected user-supplied value.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidCredentials signals a failed login. Unknown user and wrong password are indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthenticated signals a missing, expired or revoked session.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrTooManyAttempts signals a username locked out after repeated failed logins.
	ErrTooManyAttempts = errors.New("too many login attempts")

	// ErrEmptyQuery signals an empty or whitespace-only search query.
	ErrEmptyQuery = errors.New("empty query")
	// ErrQueryTooLong signals a search query over the configured limit.
	ErrQueryTooLong = errors.New("query too long")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrInvalidCatalog signals a catalog file that failed validation.
	ErrInvalidCatalog = errors.New("invalid catalog")

	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)

// DimMismatchError wraps ErrVectorDimMismatch with the expected and actual sizes.
type DimMismatchError struct {
	Expected int
	Actual   int
}

func (e *DimMismatchError) Error() string {
	return fmt.Sprintf("%s: expected %d, got %d", ErrVectorDimMismatch.Error(), e.Expected, e.Actual)
}

func (e *DimMismatchError) Unwrap() error { return ErrVectorDimMismatch }

// NewDimMismatch creates a dimension mismatch error.
func NewDimMismatch(expected, actual int) error {
	return &DimMismatchError{Expected: expected, Actual: actual}
}
