package poller

import "errors"

// Sentinel errors for the cache lifecycle.
var (
	// ErrStale is returned by a cycle whose result was discarded because
	// polling was stopped while it ran.
	ErrStale = errors.New("cycle discarded after stop")
	// ErrStopped is returned when starting or refreshing a stopped cache.
	ErrStopped = errors.New("cache stopped")
)
