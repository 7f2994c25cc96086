package services

import "errors"

// Error taxonomy for the pipeline. Document-level parse failures are absorbed
// inside the loader and never surface here; these are the errors that reach
// the request boundary.
var (
	// ErrSourceUnavailable means the document source could not be enumerated
	// or fetched. Fatal to the current build.
	ErrSourceUnavailable = errors.New("document source unavailable")

	// ErrInvalidQuery is a user error: empty or blank query text.
	ErrInvalidQuery = errors.New("query must be a non-empty string")

	// ErrIndexIncompatible marks a persisted index that cannot be loaded by
	// this version. It triggers a rebuild and is never returned to callers.
	ErrIndexIncompatible = errors.New("persisted index incompatible")
)
