package snapshot

import "errors"

// Sentinel errors for snapshot fetching.
var (
	ErrNotFound  = errors.New("snapshot not found")
	ErrMalformed = errors.New("snapshot is not valid JSON")
)
