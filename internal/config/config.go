// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) initializer to build a Config with defaults.
// - Load layers defaults, an optional YAML file and STUDENTDASH_ env vars.
// - Errors are wrapped with this package's sentinels.
package config

import (
	"context"
	"time"
	_ "time/tzdata" // timezone lookups must not depend on the host
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects text or json log records.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DataDir holds the snapshot files and is served at /data/.
	DataDir string `koanf:"data_dir"`

	// FetchMode is "file" (read DataDir) or "http" (GET from BaseURL).
	FetchMode string `koanf:"fetch_mode"`
	// BaseURL defaults to this process's own /data/ route.
	BaseURL        string `koanf:"base_url"`
	FetchTimeoutMS int    `koanf:"fetch_timeout_ms"`

	// PollIntervalMS is the fixed interval between refresh cycles.
	PollIntervalMS int `koanf:"poll_interval_ms"`

	// Snapshot file names.
	MathFile            string `koanf:"math_file"`
	VocabFile           string `koanf:"vocab_file"`
	VocabWeeklyFile     string `koanf:"vocab_weekly_file"`
	VocabHistoryPattern string `koanf:"vocab_history_pattern"`
	VocabHistoryDays    int    `koanf:"vocab_history_days"`
	ReadingFile         string `koanf:"reading_file"`

	// PolicyStore is "file" or "sqlite"; PolicyPath is the file or database path.
	// PolicyPath must stay outside DataDir, which is served publicly.
	PolicyStore string `koanf:"policy_store"`
	PolicyPath  string `koanf:"policy_path"`

	// Timezone is the IANA zone used for "today".
	Timezone string `koanf:"timezone"`
}

// Fetch modes.
const (
	FetchFile = "file"
	FetchHTTP = "http"
)

// Policy stores.
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
)

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":8080",
		DataDir:             "./data",
		FetchMode:           FetchFile,
		BaseURL:             "http://localhost:8080/data",
		FetchTimeoutMS:      10_000,
		PollIntervalMS:      5_000,
		MathFile:            "mathacademy_student_data.json",
		VocabFile:           "membean_data_latest.json",
		VocabWeeklyFile:     "membean_data_weekly.json",
		VocabHistoryPattern: "membean_data_%s.json",
		VocabHistoryDays:    7,
		ReadingFile:         "alpharead_student_data_latest.json",
		PolicyStore:         StoreFile,
		PolicyPath:          "./state/settings.json",
		Timezone:            "Local",
	}
}

// PollInterval returns PollIntervalMS as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// FetchTimeout returns FetchTimeoutMS as a duration.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutMS) * time.Millisecond
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}
