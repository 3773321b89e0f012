package prefs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/neexbeast/nomad-planner/internal/city"
	"github.com/neexbeast/nomad-planner/internal/metrics"
)

// Key is the fixed key the filter configuration is stored under.
const Key = "userPreferences"

// KV is a string key-value store. Get reports ok=false on a miss.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Store persists a FilterConfiguration in a KV. Failures never escape: they
// are logged and reported as false.
type Store struct {
	kv     KV
	logger *slog.Logger
}

// NewStore constructs a Store over kv.
func NewStore(kv KV, logger *slog.Logger) *Store {
	return &Store{kv: kv, logger: logger}
}

// Save writes f under Key.
func (s *Store) Save(ctx context.Context, f city.FilterConfiguration) bool {
	b, err := json.Marshal(f)
	if err != nil {
		s.logger.Error("encoding preferences", "err", err)
		metrics.ObservePreference("save", "error")
		return false
	}

	if err := s.kv.Set(ctx, Key, string(b)); err != nil {
		s.logger.Error("saving preferences", "err", err)
		metrics.ObservePreference("save", "error")
		return false
	}

	metrics.ObservePreference("save", "ok")
	return true
}

// Load reads the configuration saved under Key. ok is false when nothing was
// saved, the store failed or the stored value does not decode.
func (s *Store) Load(ctx context.Context) (city.FilterConfiguration, bool) {
	raw, found, err := s.kv.Get(ctx, Key)
	if err != nil {
		s.logger.Error("loading preferences", "err", err)
		metrics.ObservePreference("load", "error")
		return city.FilterConfiguration{}, false
	}
	if !found {
		metrics.ObservePreference("load", "miss")
		return city.FilterConfiguration{}, false
	}

	var f city.FilterConfiguration
	if err := json.Unmarshal([]byte(raw), &f); err != nil {
		s.logger.Error("decoding saved preferences", "err", err)
		metrics.ObservePreference("load", "error")
		return city.FilterConfiguration{}, false
	}

	metrics.ObservePreference("load", "ok")
	return f.Normalize(), true
}
