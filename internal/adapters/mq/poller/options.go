package poller

import (
	"time"

	"github.com/okian/studentdash/pkg/logger"
)

// Option applies a configuration option to the Cache.
type Option func(*Cache)

// WithInterval sets the fixed polling interval.
func WithInterval(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLocation sets the zone used for "today".
func WithLocation(loc *time.Location) Option {
	return func(c *Cache) {
		if loc != nil {
			c.location = loc
		}
	}
}

// WithLogger sets a custom logger for the cache.
func WithLogger(l logger.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}
