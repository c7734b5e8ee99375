package snapshot_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/okian/studentdash/internal/adapters/snapshot"
	. "github.com/smartystreets/goconvey/convey"
)

func TestFileFetcher(t *testing.T) {
	Convey("Given a data directory with one snapshot", t, func() {
		dir := t.TempDir()
		So(os.WriteFile(filepath.Join(dir, "a.json"), []byte(`[1]`), 0o600), ShouldBeNil)
		f := snapshot.NewFileFetcher(dir)

		Convey("Then an existing file is returned", func() {
			b, err := f.Fetch(context.Background(), "a.json")
			So(err, ShouldBeNil)
			So(string(b), ShouldEqual, "[1]")
		})

		Convey("Then a missing file is ErrNotFound", func() {
			_, err := f.Fetch(context.Background(), "b.json")
			So(errors.Is(err, snapshot.ErrNotFound), ShouldBeTrue)
		})

		Convey("Then names escaping the directory are rejected", func() {
			_, err := f.Fetch(context.Background(), "../etc/passwd")
			So(err, ShouldNotBeNil)
		})

		Convey("Then a cancelled context stops the read", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := f.Fetch(ctx, "a.json")
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}

func TestHTTPFetcher(t *testing.T) {
	Convey("Given a static server", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/data/a.json":
				_, _ = w.Write([]byte(`{"ok":true}`))
			case "/data/broken.json":
				w.WriteHeader(http.StatusInternalServerError)
			default:
				http.NotFound(w, r)
			}
		}))
		defer srv.Close()
		f := snapshot.NewHTTPFetcher(srv.URL+"/data", snapshot.WithTimeout(time.Second))

		Convey("Then a served file is returned", func() {
			b, err := f.Fetch(context.Background(), "a.json")
			So(err, ShouldBeNil)
			So(string(b), ShouldEqual, `{"ok":true}`)
		})

		Convey("Then a 404 maps to ErrNotFound", func() {
			_, err := f.Fetch(context.Background(), "missing.json")
			So(errors.Is(err, snapshot.ErrNotFound), ShouldBeTrue)
		})

		Convey("Then other failures are plain errors", func() {
			_, err := f.Fetch(context.Background(), "broken.json")
			So(err, ShouldNotBeNil)
			So(errors.Is(err, snapshot.ErrNotFound), ShouldBeFalse)
		})
	})
}

type mapFetcher struct {
	mu    sync.Mutex
	files map[string]string
	calls []string
}

func (m *mapFetcher) Fetch(_ context.Context, name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
	s, ok := m.files[name]
	if !ok {
		return nil, snapshot.ErrNotFound
	}
	return []byte(s), nil
}

func TestLoader(t *testing.T) {
	now := time.Date(2025, time.January, 3, 9, 0, 0, 0, time.UTC)
	files := snapshot.DefaultFiles()
	files.HistoryDays = 3

	Convey("Given history dates", t, func() {
		So(files.HistoryDates(now), ShouldResemble, []string{"2025-01-01", "2025-01-02", "2025-01-03"})
	})

	Convey("Given all required files and part of the history", t, func() {
		fetcher := &mapFetcher{files: map[string]string{
			files.Math:                     `[]`,
			files.Vocab:                    `{"students":{}}`,
			files.Reading:                  `{}`,
			"membean_data_2025-01-02.json": `{"students":{}}`,
		}}
		b, err := snapshot.NewLoader(fetcher, files).Load(context.Background(), now)

		Convey("Then required docs are decoded and missing optional ones are nil", func() {
			So(err, ShouldBeNil)
			So(b.Math, ShouldNotBeNil)
			So(b.VocabWeekly, ShouldBeNil)
			So(b.History, ShouldHaveLength, 3)
			So(b.History[0].Doc, ShouldBeNil)
			So(b.History[1].Doc, ShouldNotBeNil)
			So(b.History[2].Date, ShouldEqual, "2025-01-03")
			So(fetcher.calls, ShouldHaveLength, 7)
		})
	})

	Convey("Given a missing required file", t, func() {
		fetcher := &mapFetcher{files: map[string]string{files.Math: `[]`, files.Vocab: `{}`}}
		_, err := snapshot.NewLoader(fetcher, files).Load(context.Background(), now)
		So(errors.Is(err, snapshot.ErrNotFound), ShouldBeTrue)
	})

	Convey("Given a file that is not JSON", t, func() {
		fetcher := &mapFetcher{files: map[string]string{
			files.Math: `[`, files.Vocab: `{}`, files.Reading: `{}`,
		}}
		_, err := snapshot.NewLoader(fetcher, files).Load(context.Background(), now)
		So(errors.Is(err, snapshot.ErrMalformed), ShouldBeTrue)
	})
}
