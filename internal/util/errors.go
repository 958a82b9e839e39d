package util

import "errors"

// Sentinel errors for common failure modes
var (
	// ErrNotFound indicates a required resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidConfig indicates an invalid or unparseable setting value
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrScanInProgress indicates the library is already being scanned
	ErrScanInProgress = errors.New("scan already in progress")
)
