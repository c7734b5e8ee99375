// Package snapshot fetches the whole-file JSON snapshots written by the
// scrapers, either from a local directory or from the static file server.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// Fetcher returns the raw bytes of a named snapshot file.
type Fetcher interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// FileFetcher reads snapshots from a directory.
type FileFetcher struct {
	root string
}

// NewFileFetcher returns a fetcher rooted at dir.
func NewFileFetcher(dir string) *FileFetcher {
	return &FileFetcher{root: dir}
}

// Fetch reads root/name. Names that escape the root are rejected.
func (f *FileFetcher) Fetch(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !filepath.IsLocal(name) {
		return nil, fmt.Errorf("snapshot %q: name escapes data dir: %w", name, ErrNotFound)
	}
	b, err := os.ReadFile(filepath.Join(f.root, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("snapshot %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot %q: %w", name, err)
	}
	return b, nil
}

const (
	defaultFetchTimeout = 10 * time.Second
	maxSnapshotBytes    = 64 << 20
)

// HTTPFetcher downloads snapshots from a base URL.
type HTTPFetcher struct {
	base   string
	client *http.Client
}

// HTTPOption configures an HTTPFetcher.
type HTTPOption func(*HTTPFetcher)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(f *HTTPFetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) HTTPOption {
	return func(f *HTTPFetcher) {
		if d > 0 {
			f.client = &http.Client{Timeout: d, Transport: f.client.Transport}
		}
	}
}

// NewHTTPFetcher returns a fetcher for base, e.g. "http://localhost:8080/data".
func NewHTTPFetcher(base string, opts ...HTTPOption) *HTTPFetcher {
	f := &HTTPFetcher{base: base, client: &http.Client{Timeout: defaultFetchTimeout}}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch GETs base/name. A 404 maps to ErrNotFound.
func (f *HTTPFetcher) Fetch(ctx context.Context, name string) ([]byte, error) {
	u, err := url.JoinPath(f.base, name)
	if err != nil {
		return nil, fmt.Errorf("snapshot %q: %w", name, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("snapshot %q: %w", name, err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("snapshot %q: %w", name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("snapshot %q: %w", name, ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("snapshot %q: unexpected status %s", name, resp.Status)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxSnapshotBytes))
	if err != nil {
		return nil, fmt.Errorf("snapshot %q: %w", name, err)
	}
	return b, nil
}
