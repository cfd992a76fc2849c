package domain

import "errors"

var (
	// ErrNotFound is returned when an entity, version, or child entry does
	// not exist.
	ErrNotFound = errors.New("not found")

	// ErrVersionConflict is returned when the authority rejects a mutation
	// because the submitted base version is no longer current. Callers that
	// want retry-with-refresh semantics should test for it with errors.Is.
	ErrVersionConflict = errors.New("version conflict")

	// ErrValidation is returned for malformed input caught before any
	// remote call, and for 400/422 responses from the authority.
	ErrValidation = errors.New("validation failed")

	// ErrUnsupported is returned by operations the ledger deliberately does
	// not implement (e.g. depot transfers). Non-retryable.
	ErrUnsupported = errors.New("operation not supported")

	// ErrUnauthorized is returned for 401/403 responses.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrIntegrity is returned when the authority's data contradicts a
	// ledger invariant, such as one transaction belonging to two netting
	// sets. It is never resolved silently.
	ErrIntegrity = errors.New("data integrity violation")
)
