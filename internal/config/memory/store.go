// Package memory provides an in-memory config.Store, suitable for tests and
// for single-node deployments that don't need configuration to survive a
// restart.
package memory

import (
	"context"
	"sync"

	"columnstore/internal/config"
)

// Store is a thread-safe in-memory config.Store.
type Store struct {
	mu  sync.RWMutex
	cfg *config.Config
}

// New creates an empty in-memory Store.
func New() *Store {
	return &Store{}
}

// Load returns a copy of the last saved configuration, or nil if none has
// been saved yet.
func (s *Store) Load(_ context.Context) (*config.Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cfg == nil {
		return nil, nil
	}
	cp := *s.cfg
	cp.Datasets = append([]config.DatasetConfig(nil), s.cfg.Datasets...)
	return &cp, nil
}

// Save validates and persists cfg, replacing any previously saved value.
func (s *Store) Save(_ context.Context, cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *cfg
	cp.Datasets = append([]config.DatasetConfig(nil), cfg.Datasets...)
	s.cfg = &cp
	return nil
}
