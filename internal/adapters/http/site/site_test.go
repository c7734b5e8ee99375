package site

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSiteHandler(t *testing.T) {
	Convey("Given a site handler over a data directory", t, func() {
		ctx := context.Background()
		mux := http.NewServeMux()
		dir := t.TempDir()
		So(os.WriteFile(filepath.Join(dir, "membean_data_latest.json"), []byte(`{"students":{}}`), 0o600), ShouldBeNil)
		So(os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("private"), 0o600), ShouldBeNil)

		Convey("When registering the site handler", func() {
			Register(ctx, mux, dir)

			Convey("Then / serves the landing page", func() {
				req := httptest.NewRequest("GET", "/", nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)

				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldContainSubstring, "text/html")
				So(w.Body.String(), ShouldContainSubstring, "/api/cards")
			})

			Convey("And snapshot files are served under /data/", func() {
				req := httptest.NewRequest("GET", "/data/membean_data_latest.json", nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)

				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldEqual, `{"students":{}}`)
				So(w.Header().Get("Cache-Control"), ShouldEqual, "no-store")
			})

			Convey("And missing snapshots are 404", func() {
				req := httptest.NewRequest("GET", "/data/mathacademy_student_data.json", nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)

				So(w.Code, ShouldEqual, http.StatusNotFound)
			})

			Convey("And non-JSON files and listings are hidden", func() {
				for _, path := range []string{"/data/notes.txt", "/data/"} {
					req := httptest.NewRequest("GET", path, nil)
					w := httptest.NewRecorder()
					mux.ServeHTTP(w, req)

					So(w.Code, ShouldEqual, http.StatusNotFound)
				}
			})

			Convey("And unknown assets are 404", func() {
				req := httptest.NewRequest("GET", "/some-asset", nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)

				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestSiteHandlerWithoutDataDir(t *testing.T) {
	Convey("Given no data directory", t, func() {
		mux := http.NewServeMux()
		Register(context.Background(), mux, "")

		Convey("Then /data/ falls through to the landing page server", func() {
			req := httptest.NewRequest("GET", "/data/membean_data_latest.json", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestSiteHandlerWithNilMux(t *testing.T) {
	Convey("Given a nil mux", t, func() {
		Convey("Then registering panics", func() {
			So(func() {
				Register(context.Background(), nil, "")
			}, ShouldPanic)
		})
	})
}
