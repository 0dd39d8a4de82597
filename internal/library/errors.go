package library

import "errors"

// Sentinel errors returned by Catalog operations. Callers classify failures
// with errors.Is; the wrapped message carries the offending ISBN or cause.
var (
	// ErrValidation is returned when a required field is missing.
	ErrValidation = errors.New("validation failed")

	// ErrDuplicate is returned when the ISBN is already catalogued.
	ErrDuplicate = errors.New("book already exists")

	// ErrNotFound is returned when no book has the given ISBN.
	ErrNotFound = errors.New("book not found")

	// ErrState is returned for an illegal borrow or return transition.
	ErrState = errors.New("invalid book state")

	// ErrLookup is returned when the metadata lookup fails or is malformed.
	ErrLookup = errors.New("metadata lookup failed")

	// ErrPersistence is returned when the snapshot could not be written.
	// The in-memory catalog already reflects the mutation at that point.
	ErrPersistence = errors.New("snapshot write failed")
)
