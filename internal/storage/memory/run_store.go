package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/JakeFAU/catalogue-pipeline/internal/pipeline"
)

// ErrDuplicateRun is returned when a run ID is recorded twice.
var ErrDuplicateRun = errors.New("run already recorded")

// RunStore keeps run records in insertion order.
type RunStore struct {
	mu   sync.RWMutex
	runs []pipeline.RunRecord
	ids  map[string]struct{}
}

// NewRunStore constructs a RunStore.
func NewRunStore() *RunStore {
	return &RunStore{ids: make(map[string]struct{})}
}

// RecordRun appends run.
func (s *RunStore) RecordRun(_ context.Context, run pipeline.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if run.ID != "" {
		if _, exists := s.ids[run.ID]; exists {
			return ErrDuplicateRun
		}
		s.ids[run.ID] = struct{}{}
	}
	s.runs = append(s.runs, run)
	return nil
}

// Runs returns a copy of every recorded run.
func (s *RunStore) Runs() []pipeline.RunRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]pipeline.RunRecord, len(s.runs))
	copy(out, s.runs)
	return out
}
