package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/okian/studentdash/internal/domain/policy"
)

// PolicyKey is the key the metric settings are stored under.
const PolicyKey = "metricSettings"

// PolicyStore reads and writes the metric policy through a KV.
type PolicyStore struct {
	kv KV
}

// NewPolicyStore wraps kv.
func NewPolicyStore(kv KV) *PolicyStore {
	return &PolicyStore{kv: kv}
}

// Load returns the stored settings. A missing key yields the defaults with a
// nil error; unparseable content yields the defaults and ErrCorrupt.
func (s *PolicyStore) Load(ctx context.Context) (policy.Settings, error) {
	raw, err := s.kv.Get(ctx, PolicyKey)
	if errors.Is(err, ErrNotFound) {
		return policy.Defaults(), nil
	}
	if err != nil {
		return policy.Defaults(), err
	}
	var st policy.Settings
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return policy.Defaults(), fmt.Errorf("%s: %w: %v", PolicyKey, ErrCorrupt, err)
	}
	return st.Normalize(), nil
}

// Save validates and stores settings.
func (s *PolicyStore) Save(ctx context.Context, st policy.Settings) error {
	if err := st.Validate(); err != nil {
		return err
	}
	b, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	return s.kv.Set(ctx, PolicyKey, string(b))
}

// Close closes the underlying KV.
func (s *PolicyStore) Close() error {
	return s.kv.Close()
}
