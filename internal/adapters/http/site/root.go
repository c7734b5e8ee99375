// Package site serves the scraper snapshot directory and the embedded
// landing page.
package site

import (
	"context"
	"net/http"
	"path"
	"strings"
)

// Register attaches the snapshot file server at /data/ and the landing page
// at /. An empty dataDir leaves /data/ unregistered.
func Register(_ context.Context, mux *http.ServeMux, dataDir string) {
	if mux == nil {
		panic("mux is nil")
	}

	if dataDir != "" {
		mux.Handle("/data/", http.StripPrefix("/data/", snapshotsOnly(http.FileServer(http.Dir(dataDir)))))
	}
	mux.Handle("/", NewRootHandler())
}

// snapshotsOnly limits the data server to JSON files; directory listings
// and dot files are not exposed.
func snapshotsOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := path.Base(r.URL.Path)
		if strings.HasPrefix(name, ".") || path.Ext(name) != ".json" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// RootHandler handles root path requests
type RootHandler struct {
	files http.Handler
}

// NewRootHandler creates a new root handler
func NewRootHandler() *RootHandler {
	return &RootHandler{files: http.FileServer(FS())}
}

// ServeHTTP serves the embedded landing page and its assets.
func (h *RootHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.NotFound(w, r)
		return
	}
	h.files.ServeHTTP(w, r)
}
