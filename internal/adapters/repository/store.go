// Package repository persists the metric policy in a flat key-value store.
package repository

import (
	"context"
)

// KV is a flat string key-value document.
type KV interface {
	// Get returns the value of key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Close releases the underlying resources.
	Close() error
}
