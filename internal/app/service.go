// Package service wires snapshot fetching, reconciliation, the polling cache
// and metric policy persistence behind the dependencies of the HTTP API.
package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/studentdash/internal/adapters/mq/poller"
	"github.com/okian/studentdash/internal/adapters/snapshot"
	"github.com/okian/studentdash/internal/domain/model"
	"github.com/okian/studentdash/internal/domain/policy"
	"github.com/okian/studentdash/pkg/logger"
	"github.com/okian/studentdash/pkg/metrics"
)

const defaultPollInterval = 5 * time.Second

// PolicyStore persists the metric policy.
type PolicyStore interface {
	Load(ctx context.Context) (policy.Settings, error)
	Save(ctx context.Context, st policy.Settings) error
	Close() error
}

// Dashboard is the published consumer contract: the ordered list, a loading
// flag and the most recent cycle error.
type Dashboard struct {
	Students  []model.StudentRecord `json:"students"`
	Loading   bool                  `json:"loading"`
	Error     string                `json:"error,omitempty"`
	UpdatedAt *time.Time            `json:"updatedAt,omitempty"`
}

// Card is the per-source evaluation of one student under the current policy.
type Card struct {
	ID      string                          `json:"id"`
	Name    string                          `json:"name"`
	Sources map[model.Source]model.Progress `json:"sources"`
}

// Service implements the API dependencies for the dashboard.
type Service struct {
	mu sync.RWMutex

	// Core components
	fetcher snapshot.Fetcher
	files   snapshot.Files
	store   PolicyStore
	cache   *poller.Cache

	// Configuration
	pollInterval time.Duration
	location     *time.Location
	now          func() time.Time

	settings atomic.Pointer[policy.Settings]

	// State
	started bool

	// Logging
	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		fetcher:      snapshot.NewFileFetcher("./data"),
		files:        snapshot.DefaultFiles(),
		pollInterval: defaultPollInterval,
		location:     time.Local,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	def := policy.Defaults()
	s.settings.Store(&def)
	return s
}

// Start loads the metric policy and starts polling. A failing first cycle is
// logged and reported to error subscribers; it does not fail Start.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.logger.Info(ctx, "starting dashboard service...")

	s.loadSettings(ctx)

	s.cache = poller.New(
		snapshot.NewLoader(s.fetcher, s.files),
		s,
		poller.WithInterval(s.pollInterval),
		poller.WithLocation(s.location),
		poller.WithClock(s.now),
		poller.WithLogger(s.logger.Named("poller")),
	)
	if err := s.cache.StartPolling(ctx); err != nil {
		s.logger.Warn(ctx, "first refresh cycle failed", logger.Error(err))
	}

	s.started = true
	s.logger.Info(ctx, "dashboard service started",
		logger.Duration("pollInterval", s.pollInterval),
		logger.String("timezone", s.location.String()),
	)
	return nil
}

func (s *Service) loadSettings(ctx context.Context) {
	if s.store == nil {
		return
	}
	st, err := s.store.Load(ctx)
	if err != nil {
		metrics.RecordPolicyLoadFallback()
		s.logger.Warn(ctx, "metric settings unreadable, using defaults", logger.Error(err))
		st = policy.Defaults()
	}
	s.settings.Store(&st)
}

// Stop halts polling and closes the policy store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.logger.Info(context.Background(), "stopping dashboard service...")
	s.cache.StopPolling()
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn(context.Background(), "closing policy store", logger.Error(err))
		}
	}
	s.started = false
	s.logger.Info(context.Background(), "dashboard service stopped")
}

func (s *Service) getCache() *poller.Cache {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cache
}

// Current returns the active metric policy.
func (s *Service) Current() policy.Settings {
	return *s.settings.Load()
}

// Settings returns the active metric policy.
func (s *Service) Settings(_ context.Context) policy.Settings {
	return s.Current()
}

// SaveSettings validates, persists and activates st.
func (s *Service) SaveSettings(ctx context.Context, st policy.Settings) error {
	if err := st.Validate(); err != nil {
		metrics.RecordPolicySave("invalid")
		return err
	}
	if s.store != nil {
		if err := s.store.Save(ctx, st); err != nil {
			metrics.RecordPolicySave("failed")
			return err
		}
	}
	s.settings.Store(&st)
	metrics.RecordPolicySave("ok")
	if s.logger != nil {
		s.logger.Info(ctx, "metric settings saved",
			logger.String("math", policy.Describe(st.Math)),
			logger.String("vocab", policy.Describe(st.Vocab)),
			logger.String("reading", policy.Describe(st.Reading)),
		)
	}
	return nil
}

// Students returns the last published list.
func (s *Service) Students(_ context.Context) []model.StudentRecord {
	c := s.getCache()
	if c == nil {
		return nil
	}
	return c.Students()
}

// Student returns the record with id.
func (s *Service) Student(ctx context.Context, id string) (model.StudentRecord, error) {
	for _, rec := range s.Students(ctx) {
		if rec.ID == id {
			return rec, nil
		}
	}
	return model.StudentRecord{}, ErrStudentNotFound
}

// Dashboard returns the published contract.
func (s *Service) Dashboard(_ context.Context) Dashboard {
	c := s.getCache()
	if c == nil {
		return Dashboard{Students: []model.StudentRecord{}, Loading: true}
	}
	st := c.Status()
	d := Dashboard{Students: st.Students, Loading: st.Loading}
	if d.Students == nil {
		d.Students = []model.StudentRecord{}
	}
	if st.Err != nil {
		d.Error = st.Err.Error()
	}
	if !st.UpdatedAt.IsZero() {
		at := st.UpdatedAt
		d.UpdatedAt = &at
	}
	return d
}

// Cards evaluates every student under the current policy.
func (s *Service) Cards(ctx context.Context) []Card {
	students := s.Students(ctx)
	settings := s.Current()
	now := s.now().In(s.location)
	cards := make([]Card, 0, len(students))
	for _, rec := range students {
		c := Card{ID: rec.ID, Name: rec.Name, Sources: make(map[model.Source]model.Progress, len(model.Sources))}
		for _, src := range model.Sources {
			c.Sources[src] = policy.Evaluate(rec, src, settings.For(src), now)
		}
		cards = append(cards, c)
	}
	return cards
}

// Refresh runs one cycle now.
func (s *Service) Refresh(ctx context.Context) error {
	c := s.getCache()
	if c == nil {
		return ErrNotStarted
	}
	return c.Refresh(ctx)
}

// Subscribe registers fn for published lists, replaying the current one.
func (s *Service) Subscribe(fn func([]model.StudentRecord)) (func(), error) {
	c := s.getCache()
	if c == nil {
		return nil, ErrNotStarted
	}
	return c.Subscribe(fn), nil
}

// SubscribeErrors registers fn for cycle failures.
func (s *Service) SubscribeErrors(fn func(error)) (func(), error) {
	c := s.getCache()
	if c == nil {
		return nil, ErrNotStarted
	}
	return c.SubscribeErrors(fn), nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":        s.started,
		"pollIntervalMs": s.pollInterval.Milliseconds(),
		"timezone":       s.location.String(),
	}
	if s.cache == nil {
		return stats
	}
	st := s.cache.Status()
	perSource := map[string]int{}
	for _, rec := range st.Students {
		for _, src := range model.Sources {
			if rec.PerSourceMetrics.Has(src) {
				perSource[string(src)]++
			}
		}
	}
	stats["state"] = st.State.String()
	stats["polling"] = s.cache.Polling()
	stats["students"] = len(st.Students)
	stats["studentsPerSource"] = perSource
	if !st.UpdatedAt.IsZero() {
		stats["updatedAt"] = st.UpdatedAt.Format(time.RFC3339)
	}
	if st.Err != nil {
		stats["lastError"] = st.Err.Error()
	}
	return stats
}
