package poller_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/studentdash/internal/adapters/mq/poller"
	"github.com/okian/studentdash/internal/domain/merge"
	"github.com/okian/studentdash/internal/domain/model"
	"github.com/okian/studentdash/internal/domain/policy"
	"github.com/okian/studentdash/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

func doc(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		panic(err)
	}
	return v
}

func snapshots(names ...string) merge.Snapshots {
	students := map[string]any{}
	for i, n := range names {
		students[string(rune('a'+i))] = map[string]any{
			"name":      n,
			"tabs_data": map[string]any{"Reports": map[string]any{"minutes_trained": 15}},
		}
	}
	return merge.Snapshots{
		Math:    doc(`[]`),
		Vocab:   map[string]any{"students": students},
		Reading: doc(`{}`),
	}
}

type fakeLoader struct {
	mu    sync.Mutex
	snaps merge.Snapshots
	err   error
	calls atomic.Int32
	// gate, when set, blocks Load until it is closed or ctx is done.
	gate chan struct{}
	// entered is signalled when a gated Load starts.
	entered chan struct{}
}

func (f *fakeLoader) set(s merge.Snapshots, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snaps, f.err = s, err
}

func (f *fakeLoader) Load(ctx context.Context, _ time.Time) (merge.Snapshots, error) {
	f.calls.Add(1)
	if f.gate != nil {
		if f.entered != nil {
			f.entered <- struct{}{}
		}
		select {
		case <-f.gate:
		case <-ctx.Done():
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snaps, f.err
}

type fixedPolicy struct{ s policy.Settings }

func (p fixedPolicy) Current() policy.Settings { return p.s }

func TestCacheCycle(t *testing.T) {
	Convey("Given a cache over a loader with two students", t, func() {
		loader := &fakeLoader{}
		loader.set(snapshots("Smith, Jane", "Ray Park"), nil)
		c := poller.New(loader, fixedPolicy{policy.Defaults()}, poller.WithInterval(time.Hour))
		defer c.StopPolling()

		Convey("Then it is loading before the first cycle", func() {
			st := c.Status()
			So(st.Loading, ShouldBeTrue)
			So(st.State, ShouldEqual, poller.StateIdle)
		})

		Convey("When polling starts", func() {
			var got [][]model.StudentRecord
			unsub := c.Subscribe(func(recs []model.StudentRecord) { got = append(got, recs) })
			defer unsub()
			So(c.StartPolling(context.Background()), ShouldBeNil)

			Convey("Then the first cycle is published immediately", func() {
				So(got, ShouldHaveLength, 1)
				So(got[0], ShouldHaveLength, 2)
				So(got[0][0].Name, ShouldEqual, "Ray Park")
				So(got[0][1].Progress[model.SourceVocab].Percent, ShouldEqual, 100.0)
				st := c.Status()
				So(st.Loading, ShouldBeFalse)
				So(st.State, ShouldEqual, poller.StateUpdated)
				So(c.Polling(), ShouldBeTrue)
			})

			Convey("Then starting again is a no-op", func() {
				So(c.StartPolling(context.Background()), ShouldBeNil)
				So(int(loader.calls.Load()), ShouldEqual, 1)
			})

			Convey("Then a late subscriber gets the cached list replayed", func() {
				var replay []model.StudentRecord
				c.Subscribe(func(recs []model.StudentRecord) { replay = recs })()
				So(replay, ShouldHaveLength, 2)
			})

			Convey("When a later cycle fails", func() {
				var errs []error
				c.SubscribeErrors(func(err error) { errs = append(errs, err) })
				boom := errors.New("fetch failed")
				loader.set(merge.Snapshots{}, boom)
				err := c.Refresh(context.Background())

				Convey("Then the error is published and the last good list kept", func() {
					So(err, ShouldEqual, boom)
					So(errs, ShouldResemble, []error{boom})
					So(got, ShouldHaveLength, 1)
					st := c.Status()
					So(st.Students, ShouldHaveLength, 2)
					So(st.Err, ShouldEqual, boom)
					So(st.State, ShouldEqual, poller.StateFailed)
				})

				Convey("Then a new error subscriber does not get the past error", func() {
					var late []error
					c.SubscribeErrors(func(err error) { late = append(late, err) })
					So(late, ShouldBeEmpty)
				})
			})

			Convey("When a snapshot is malformed", func() {
				loader.set(merge.Snapshots{Math: doc(`{}`), Vocab: doc(`{}`), Reading: doc(`{}`)}, nil)
				err := c.Refresh(context.Background())
				So(err, ShouldNotBeNil)
				So(c.Students(), ShouldHaveLength, 2)
			})

			Convey("When unsubscribed", func() {
				unsub()
				loader.set(snapshots("Only One"), nil)
				So(c.Refresh(context.Background()), ShouldBeNil)
				So(got, ShouldHaveLength, 1)
			})
		})
	})
}

func TestCacheSubscribersInOrder(t *testing.T) {
	Convey("Given several subscribers", t, func() {
		loader := &fakeLoader{}
		loader.set(snapshots("Ada Lovelace"), nil)
		c := poller.New(loader, nil)
		var order []int
		for i := 1; i <= 3; i++ {
			c.Subscribe(func([]model.StudentRecord) { order = append(order, i) })
		}

		Convey("Then they are called in subscription order", func() {
			So(c.Refresh(context.Background()), ShouldBeNil)
			So(order, ShouldResemble, []int{1, 2, 3})
		})
	})
}

func TestCacheTicker(t *testing.T) {
	Convey("Given a cache polling every few milliseconds", t, func() {
		loader := &fakeLoader{}
		loader.set(snapshots("Ada Lovelace"), nil)
		c := poller.New(loader, nil, poller.WithInterval(5*time.Millisecond))
		So(c.StartPolling(context.Background()), ShouldBeNil)

		Convey("Then cycles repeat until stopped", func() {
			deadline := time.Now().Add(2 * time.Second)
			for loader.calls.Load() < 3 && time.Now().Before(deadline) {
				time.Sleep(5 * time.Millisecond)
			}
			So(int(loader.calls.Load()), ShouldBeGreaterThanOrEqualTo, 3)

			c.StopPolling()
			c.StopPolling()
			So(c.Polling(), ShouldBeFalse)
			So(c.Status().State, ShouldEqual, poller.StateStopped)
			So(errors.Is(c.StartPolling(context.Background()), poller.ErrStopped), ShouldBeTrue)
			So(errors.Is(c.Refresh(context.Background()), poller.ErrStopped), ShouldBeTrue)
		})
	})
}

func TestCacheStopDuringCycle(t *testing.T) {
	Convey("Given a refresh blocked inside the loader", t, func() {
		loader := &fakeLoader{gate: make(chan struct{}), entered: make(chan struct{}, 1)}
		loader.set(snapshots("Ada Lovelace"), nil)
		c := poller.New(loader, nil)
		published := 0
		c.Subscribe(func([]model.StudentRecord) { published++ })

		done := make(chan error, 1)
		go func() { done <- c.Refresh(context.Background()) }()
		<-loader.entered

		Convey("When polling is stopped before the cycle completes", func() {
			c.StopPolling()
			close(loader.gate)
			err := <-done

			Convey("Then the result is discarded instead of published", func() {
				So(errors.Is(err, poller.ErrStale), ShouldBeTrue)
				So(published, ShouldEqual, 0)
				So(c.Status().Students, ShouldBeEmpty)
			})
		})
	})
}
