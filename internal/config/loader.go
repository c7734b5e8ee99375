package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix     = "STUDENTDASH_"
	envConfigFile = "STUDENTDASH_CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if STUDENTDASH_CONFIG is set
//  3. env (prefix STUDENTDASH_)
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv(envConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
		}
	}

	// STUDENTDASH_POLL_INTERVAL_MS -> poll_interval_ms (flat keys).
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %v", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the fields the service cannot start without.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.PollIntervalMS <= 0:
		return fmt.Errorf("%w: poll_interval_ms must be positive", ErrInvalidConfig)
	case c.FetchMode != FetchFile && c.FetchMode != FetchHTTP:
		return fmt.Errorf("%w: fetch_mode %q", ErrInvalidConfig, c.FetchMode)
	case c.FetchMode == FetchHTTP && c.BaseURL == "":
		return fmt.Errorf("%w: base_url is required in http mode", ErrInvalidConfig)
	case c.PolicyStore != StoreFile && c.PolicyStore != StoreSQLite:
		return fmt.Errorf("%w: policy_store %q", ErrInvalidConfig, c.PolicyStore)
	case c.MathFile == "" || c.VocabFile == "" || c.ReadingFile == "":
		return fmt.Errorf("%w: math, vocab and reading files are required", ErrInvalidConfig)
	case c.VocabHistoryDays < 0:
		return fmt.Errorf("%w: vocab_history_days must not be negative", ErrInvalidConfig)
	case c.VocabHistoryDays > 0 && !strings.Contains(c.VocabHistoryPattern, "%s"):
		return fmt.Errorf("%w: vocab_history_pattern needs a %%s placeholder", ErrInvalidConfig)
	}
	if c.policyInsideDataDir() {
		return fmt.Errorf("%w: policy_path %q is inside the public data_dir %q", ErrInvalidConfig, c.PolicyPath, c.DataDir)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("%w: timezone %q: %v", ErrInvalidConfig, c.Timezone, err)
	}
	return nil
}

func (c *Config) policyInsideDataDir() bool {
	dataDir, err := filepath.Abs(c.DataDir)
	if err != nil {
		return false
	}
	policyPath, err := filepath.Abs(c.PolicyPath)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(dataDir, policyPath)
	return err == nil && filepath.IsLocal(rel)
}
