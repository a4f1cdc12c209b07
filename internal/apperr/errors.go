// Package apperr defines the error taxonomy shared by the store, query and service layers.
package apperr

import "errors"

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")

	// ErrStoreUnavailable means the database could not be opened. Every
	// operation fails until the caller reopens the store.
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrValidationFailed = errors.New("validation failed")
	ErrQueryFailed      = errors.New("query failed")
	ErrMutationFailed   = errors.New("mutation failed")
)
