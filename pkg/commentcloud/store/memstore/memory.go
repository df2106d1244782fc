package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/cognicore/commentcloud/pkg/commentcloud/flatten"
	"github.com/cognicore/commentcloud/pkg/commentcloud/freq"
	"github.com/cognicore/commentcloud/pkg/commentcloud/store"
)

// Store is an in-memory implementation of store.Store for tests.
type Store struct {
	mu   sync.RWMutex
	runs map[string]store.Run
}

var _ store.Store = (*Store)(nil)

// New creates a new in-memory store.
func New() *Store {
	return &Store{runs: make(map[string]store.Run)}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// SaveRun stores a copy of r. Saving the same ID twice is an error.
func (s *Store) SaveRun(ctx context.Context, r store.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[r.ID]; ok {
		return fmt.Errorf("run %s already archived", r.ID)
	}
	s.runs[r.ID] = copyRun(r)
	return nil
}

// GetRun returns a copy of the run with the given ID.
func (s *Store) GetRun(ctx context.Context, id string) (store.Run, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.runs[id]
	if !ok {
		return store.Run{}, false, nil
	}
	return copyRun(r), true, nil
}

// ListRuns returns the runs of one video, oldest first.
func (s *Store) ListRuns(ctx context.Context, videoID string) ([]store.RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []store.RunSummary
	for _, r := range s.runs {
		if r.VideoID == videoID {
			out = append(out, r.Summary())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out, nil
}

func copyRun(r store.Run) store.Run {
	r.Comments = append([]flatten.Comment(nil), r.Comments...)
	r.Words = append([]freq.Entry(nil), r.Words...)
	return r
}
