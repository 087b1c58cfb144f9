package anonymizer

import "errors"

// Stable error taxonomy surfaced to callers. The calling layer translates
// these into transport-specific responses.
var (
	// ErrEmptyInput means the input text was empty.
	ErrEmptyInput = errors.New("empty input text")
	// ErrInvalidRange means a match's span violates text bounds. This is an
	// internal invariant violation and should never surface from a correct
	// detector.
	ErrInvalidRange = errors.New("invalid entity range")
	// ErrDetector wraps a detection engine failure.
	ErrDetector = errors.New("detector error")
	// ErrVault wraps a storage-layer failure.
	ErrVault = errors.New("vault error")
	// ErrPlaceholder wraps a placeholder generation failure.
	ErrPlaceholder = errors.New("placeholder generation failed")
)
