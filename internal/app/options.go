package service

import (
	"time"

	"github.com/okian/studentdash/internal/adapters/snapshot"
	"github.com/okian/studentdash/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithFetcher sets where snapshots are read from.
func WithFetcher(f snapshot.Fetcher) Option {
	return func(s *Service) {
		if f != nil {
			s.fetcher = f
		}
	}
}

// WithFiles sets the snapshot file names.
func WithFiles(files snapshot.Files) Option {
	return func(s *Service) {
		s.files = files
	}
}

// WithPollInterval sets the refresh interval.
func WithPollInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.pollInterval = d
		}
	}
}

// WithLocation sets the zone used for "today".
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithPolicyStore sets the metric policy persistence.
func WithPolicyStore(store PolicyStore) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
