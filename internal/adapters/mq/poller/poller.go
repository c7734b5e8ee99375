// Package poller owns the published student list. It rebuilds the list from
// freshly fetched snapshots on a fixed interval and fans results out to
// subscribers.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/studentdash/internal/domain/merge"
	"github.com/okian/studentdash/internal/domain/model"
	"github.com/okian/studentdash/internal/domain/policy"
	"github.com/okian/studentdash/pkg/logger"
	"github.com/okian/studentdash/pkg/metrics"
)

const defaultInterval = 5 * time.Second

// Loader fetches and decodes the snapshots of one cycle.
type Loader interface {
	Load(ctx context.Context, now time.Time) (merge.Snapshots, error)
}

// PolicyProvider supplies the metric policy used for cached progress.
type PolicyProvider interface {
	Current() policy.Settings
}

// Status is the consumer-facing view of the cache.
type Status struct {
	Students  []model.StudentRecord
	Loading   bool
	Err       error
	UpdatedAt time.Time
	State     State
}

type subscriber[T any] struct {
	id uint64
	fn func(T)
}

// Cache holds the last successfully merged student list.
//
// Cycles never overlap: the polling loop and Refresh share one cycle lock,
// and ticks that arrive during a slow cycle are dropped by the ticker.
// Subscribers must not call Subscribe from inside a callback.
type Cache struct {
	loader   Loader
	policies PolicyProvider
	interval time.Duration
	now      func() time.Time
	location *time.Location
	logger   logger.Logger

	cycleMu   sync.Mutex
	deliverMu sync.Mutex

	mu         sync.Mutex
	running    bool
	stopped    bool
	generation uint64
	cancel     context.CancelFunc
	students   []model.StudentRecord
	hasData    bool
	lastErr    error
	updatedAt  time.Time
	state      State
	nextID     uint64
	subs       []subscriber[[]model.StudentRecord]
	errSubs    []subscriber[error]
}

// New creates a cache. policies may be nil, in which case the defaults are used.
func New(loader Loader, policies PolicyProvider, opts ...Option) *Cache {
	c := &Cache{
		loader:   loader,
		policies: policies,
		interval: defaultInterval,
		now:      time.Now,
		location: time.Local,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.Get().Named("poller")
	}
	return c
}

// StartPolling runs one cycle immediately and then one per interval until
// ctx is done or StopPolling is called. Calling it while polling is a no-op.
// The error of the first cycle is returned; polling continues regardless.
func (c *Cache) StartPolling(ctx context.Context) error {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return ErrStopped
	}
	if c.running {
		c.mu.Unlock()
		return nil
	}
	c.running = true
	gen := c.generation
	cctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	err := c.cycle(cctx, gen)
	go c.loop(cctx, gen)
	return err
}

func (c *Cache) loop(ctx context.Context, gen uint64) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			c.mu.Lock()
			if gen == c.generation {
				c.running = false
			}
			c.mu.Unlock()
			return
		case <-ticker.C:
			if !c.current(gen) {
				return
			}
			_ = c.cycle(ctx, gen)
		}
	}
}

// StopPolling cancels future cycles and any cycle in flight. A cycle that
// completes after the stop is discarded instead of published. Idempotent.
func (c *Cache) StopPolling() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.stopped = true
	c.running = false
	c.generation++
	c.state = StateStopped
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// Refresh runs one cycle now, outside the schedule.
func (c *Cache) Refresh(ctx context.Context) error {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return ErrStopped
	}
	gen := c.generation
	c.mu.Unlock()
	return c.cycle(ctx, gen)
}

func (c *Cache) current(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return gen == c.generation && !c.stopped
}

func (c *Cache) settings() policy.Settings {
	if c.policies == nil {
		return policy.Defaults()
	}
	return c.policies.Current()
}

// cycle fetches, adapts and merges into a private list, then publishes it
// only if the cache generation is unchanged.
func (c *Cache) cycle(ctx context.Context, gen uint64) error {
	c.cycleMu.Lock()
	defer c.cycleMu.Unlock()

	id := uuid.NewString()
	start := time.Now()
	now := c.now().In(c.location)

	c.mu.Lock()
	if gen != c.generation || c.stopped {
		c.mu.Unlock()
		return ErrStale
	}
	c.state = StatePolling
	c.mu.Unlock()

	settings := c.settings()
	eval := func(rec model.StudentRecord, src model.Source) model.Progress {
		return policy.Evaluate(rec, src, settings.For(src), now)
	}

	var out merge.Output
	snaps, err := c.loader.Load(ctx, now)
	if err == nil {
		out, err = merge.Build(snaps, now, eval)
	}
	elapsed := time.Since(start)

	c.mu.Lock()
	if gen != c.generation || c.stopped {
		c.mu.Unlock()
		metrics.RecordCycle("discarded", -1)
		c.logger.Debug(ctx, "cycle discarded after stop", logger.String("cycle", id))
		return ErrStale
	}
	if err != nil {
		c.lastErr = err
		c.state = StateFailed
		errSubs := append([]subscriber[error](nil), c.errSubs...)
		c.mu.Unlock()

		metrics.RecordCycle("failed", float64(elapsed.Milliseconds()))
		c.logger.Warn(ctx, "cycle failed",
			logger.String("cycle", id),
			logger.Duration("duration", elapsed),
			logger.Error(err),
		)
		c.deliverMu.Lock()
		for _, s := range errSubs {
			s.fn(err)
		}
		c.deliverMu.Unlock()
		return err
	}

	c.students = out.Records
	c.hasData = true
	c.lastErr = nil
	c.updatedAt = now
	c.state = StateUpdated
	subs := append([]subscriber[[]model.StudentRecord](nil), c.subs...)
	c.mu.Unlock()

	c.record(ctx, id, elapsed, out)
	c.deliverMu.Lock()
	for _, s := range subs {
		s.fn(out.Records)
	}
	c.deliverMu.Unlock()
	return nil
}

func (c *Cache) record(ctx context.Context, id string, elapsed time.Duration, out merge.Output) {
	metrics.RecordCycle("ok", float64(elapsed.Milliseconds()))
	metrics.MarkPublished(time.Now().Unix())
	metrics.UpdateStudents(len(out.Records))
	for _, src := range model.Sources {
		metrics.UpdateSourceRecords(string(src), out.Contributed[src])
		if n := out.Skipped[src]; n > 0 {
			metrics.AddSkipped(string(src), n)
			c.logger.Warn(ctx, "skipped unusable snapshot entries",
				logger.String("cycle", id),
				logger.String("source", string(src)),
				logger.Int("count", n),
			)
		}
	}
	c.logger.Debug(ctx, "cycle published",
		logger.String("cycle", id),
		logger.Duration("duration", elapsed),
		logger.Int("students", len(out.Records)),
	)
}

// Subscribe registers fn for every published list. If a list has been
// published already, fn receives it before Subscribe returns. The slice is
// shared between subscribers and must not be modified.
func (c *Cache) Subscribe(fn func([]model.StudentRecord)) (unsubscribe func()) {
	c.deliverMu.Lock()
	defer c.deliverMu.Unlock()

	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.subs = append(c.subs, subscriber[[]model.StudentRecord]{id: id, fn: fn})
	replay, ok := c.students, c.hasData
	metrics.UpdateSubscribers(len(c.subs))
	c.mu.Unlock()

	if ok {
		fn(replay)
	}
	return c.remover(id, false)
}

// SubscribeErrors registers fn for cycle failures. Past errors are not replayed.
func (c *Cache) SubscribeErrors(fn func(error)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	id := c.nextID
	c.errSubs = append(c.errSubs, subscriber[error]{id: id, fn: fn})
	return c.remover(id, true)
}

func (c *Cache) remover(id uint64, errs bool) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if errs {
				c.errSubs = without(c.errSubs, id)
				return
			}
			c.subs = without(c.subs, id)
			metrics.UpdateSubscribers(len(c.subs))
		})
	}
}

func without[T any](subs []subscriber[T], id uint64) []subscriber[T] {
	out := subs[:0:0]
	for _, s := range subs {
		if s.id != id {
			out = append(out, s)
		}
	}
	return out
}

// Students returns the last published list.
func (c *Cache) Students() []model.StudentRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.students
}

// Status returns the consumer-facing state. Loading is true until the first
// cycle completes.
func (c *Cache) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{
		Students:  c.students,
		Loading:   !c.hasData && c.lastErr == nil,
		Err:       c.lastErr,
		UpdatedAt: c.updatedAt,
		State:     c.state,
	}
}

// Polling reports whether the polling loop is active.
func (c *Cache) Polling() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}
