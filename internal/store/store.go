// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Oct 18th 2026
// Project: Conditional Granger Causality Analysis of Multivariate Time Series
// Class: 02-613 at Carnegie Mellon University

package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Store defines persistence operations for analysis runs.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run Run) error
	GetRun(ctx context.Context, id string) (Run, bool, error)
	// ListRuns returns runs oldest first.
	ListRuns(ctx context.Context) ([]Run, error)
}

// NewStore returns the backend named by kind: "memory" (the default) or "sqlite".
func NewStore(kind, sqlitePath string) (Store, error) {
	switch kind {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return NewSQLiteStore(sqlitePath), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}

// CloseIfSupported closes store when its backend holds resources.
func CloseIfSupported(store Store) error {
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}

// MemoryStore keeps runs in a map for the life of the process.
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string]Run
}

// NewMemoryStore returns an empty store; call Init before saving.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Init allocates the run map.
func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.runs == nil {
		s.runs = make(map[string]Run)
	}
	return nil
}

// SaveRun inserts or replaces run by ID.
func (s *MemoryStore) SaveRun(_ context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.runs == nil {
		return fmt.Errorf("store is not initialized")
	}
	s.runs[run.ID] = run
	return nil
}

// GetRun reports false when no run has id.
func (s *MemoryStore) GetRun(_ context.Context, id string) (Run, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	return run, ok, nil
}

// ListRuns returns every run, oldest first.
func (s *MemoryStore) ListRuns(_ context.Context) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]Run, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, run)
	}
	sortRuns(runs)
	return runs, nil
}

func sortRuns(runs []Run) {
	sort.Slice(runs, func(a, b int) bool {
		if !runs[a].CreatedAt.Equal(runs[b].CreatedAt) {
			return runs[a].CreatedAt.Before(runs[b].CreatedAt)
		}
		return runs[a].ID < runs[b].ID
	})
}
