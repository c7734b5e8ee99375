package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/studentdash/internal/adapters/http/api"
	"github.com/okian/studentdash/internal/adapters/http/site"
	"github.com/okian/studentdash/internal/adapters/http/swagger"
	"github.com/okian/studentdash/internal/adapters/repository"
	"github.com/okian/studentdash/internal/adapters/snapshot"
	app "github.com/okian/studentdash/internal/app"
	"github.com/okian/studentdash/internal/config"
	"github.com/okian/studentdash/pkg/logger"
	"github.com/okian/studentdash/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	// Initialize logging
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logger.Get().Error(ctx, "dashboard exited", logger.Error(err))
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	if err := logger.SetFormat(cfg.LogFormat); err != nil {
		logger.Get().Warn(ctx, "invalid log_format; keeping text", logger.String("log_format", cfg.LogFormat), logger.Error(err))
	}
	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	metrics.RegisterRuntimeCollectors()

	// Bind before the first refresh cycle: in http fetch mode the default
	// base_url is this process's own /data/ route.
	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Addr, err)
	}
	return serve(ctx, cfg, ln)
}

// serve runs the HTTP server on ln and the dashboard service until ctx is done.
func serve(ctx context.Context, cfg *config.Config, ln net.Listener) error {
	log := logger.Get().Named("main")

	svc, err := newService(cfg)
	if err != nil {
		_ = ln.Close()
		return err
	}

	srv := &http.Server{
		Handler:           newMux(ctx, cfg, svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Graceful shutdown with timeout
	shutdown := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error(ctx, "server shutdown failed", logger.Error(err))
		}
	}

	if err := svc.Start(ctx); err != nil {
		shutdown()
		return fmt.Errorf("start service: %w", err)
	}
	defer svc.Stop()

	// Wait for shutdown signal or a listener failure
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}
	log.Info(ctx, "shutting down server...")
	shutdown()

	log.Info(ctx, "server stopped")
	return nil
}

// newService builds the dashboard service from cfg.
func newService(cfg *config.Config) (*app.Service, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("timezone: %w", err)
	}
	store, err := newPolicyStore(cfg)
	if err != nil {
		return nil, err
	}
	return app.New(
		app.WithFetcher(newFetcher(cfg)),
		app.WithFiles(filesFrom(cfg)),
		app.WithPollInterval(cfg.PollInterval()),
		app.WithLocation(loc),
		app.WithPolicyStore(store),
	), nil
}

func newFetcher(cfg *config.Config) snapshot.Fetcher {
	if cfg.FetchMode == config.FetchHTTP {
		return snapshot.NewHTTPFetcher(cfg.BaseURL, snapshot.WithTimeout(cfg.FetchTimeout()))
	}
	return snapshot.NewFileFetcher(cfg.DataDir)
}

func newPolicyStore(cfg *config.Config) (*repository.PolicyStore, error) {
	var kv repository.KV
	switch cfg.PolicyStore {
	case config.StoreSQLite:
		db, err := repository.OpenSQLiteKV(cfg.PolicyPath)
		if err != nil {
			return nil, fmt.Errorf("open policy store: %w", err)
		}
		kv = db
	default:
		kv = repository.NewFileKV(cfg.PolicyPath)
	}
	return repository.NewPolicyStore(kv), nil
}

func filesFrom(cfg *config.Config) snapshot.Files {
	return snapshot.Files{
		Math:           cfg.MathFile,
		Vocab:          cfg.VocabFile,
		VocabWeekly:    cfg.VocabWeeklyFile,
		HistoryPattern: cfg.VocabHistoryPattern,
		HistoryDays:    cfg.VocabHistoryDays,
		Reading:        cfg.ReadingFile,
	}
}

// newMux registers every route: API, docs, snapshot files and the landing page.
func newMux(ctx context.Context, cfg *config.Config, svc *app.Service) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc).Register(ctx, mux)
	site.Register(ctx, mux, cfg.DataDir)
	return mux
}
