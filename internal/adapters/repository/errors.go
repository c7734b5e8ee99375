package repository

import "errors"

// Sentinel kinds for settings storage errors.
var (
	ErrNotFound = errors.New("key not found")
	ErrCorrupt  = errors.New("stored value is corrupt")
)
