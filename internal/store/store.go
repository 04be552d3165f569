// Package store is the dashboard's persistent key-value layer: flat string
// keys, JSON values, and fail-soft semantics. A broken storage layer must
// never stop the dashboard from painting, so every fault degrades to
// "no cache" instead of an error.
package store

import (
	"encoding/json"
	"log/slog"
)

// Backend persists raw bytes under flat string keys.
type Backend interface {
	// Load returns the stored bytes for key, or false if absent or unreadable.
	Load(key string) ([]byte, bool)

	// Save persists value under key.
	Save(key string, value []byte) error

	// Reset removes every stored key.
	Reset() error
}

// Store wraps a Backend with JSON (de)serialization. Get and Set never
// return errors: storage faults (quota, corruption, unwritable directory)
// are logged and swallowed.
type Store struct {
	backend Backend
	logger  *slog.Logger
}

// New creates a Store over the given backend.
func New(backend Backend, logger *slog.Logger) *Store {
	return &Store{backend: backend, logger: logger}
}

// Get unmarshals the value stored under key into out. Returns false on a
// missing key, corrupt JSON, or any storage fault; out is untouched unless
// decoding fully succeeds on a copy.
func (s *Store) Get(key string, out any) bool {
	raw, ok := s.backend.Load(key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		s.logger.Warn("cache entry corrupt, ignoring", "key", key, "error", err)
		return false
	}
	return true
}

// Set marshals value and persists it under key. A marshal or storage fault
// is logged and dropped; the caller's in-memory state remains the source of
// truth for rendering.
func (s *Store) Set(key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn("cache entry not serializable, dropping", "key", key, "error", err)
		return
	}
	if err := s.backend.Save(key, raw); err != nil {
		s.logger.Warn("cache write failed, dropping", "key", key, "error", err)
	}
}

// Reset clears the whole store. Failures are logged; a partial clear is
// acceptable because every reader tolerates missing keys.
func (s *Store) Reset() {
	if err := s.backend.Reset(); err != nil {
		s.logger.Warn("cache reset failed", "error", err)
	}
}
