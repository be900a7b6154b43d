package domain

import "errors"

var (
	// ErrInvalidListing is returned when a listing name is missing or
	// strips to nothing during property-id derivation. Batch callers
	// catch it per record and substitute a placeholder.
	ErrInvalidListing = errors.New("invalid listing name")

	ErrNotFound = errors.New("not found")
)
