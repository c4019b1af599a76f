// Package memory is a stdlib-only, in-process Store implementation used by
// the engine's own unit tests and as a zero-dependency fallback. It exists
// purely so tests run in milliseconds without a ClickHouse server; it is
// intentionally not meant to survive a process restart.
package memory

import (
	"context"
	"sync"

	"github.com/MyCarrier-DevOps/pr-merge-sync/engine"
	"github.com/MyCarrier-DevOps/pr-merge-sync/store"
)

type pipelineState struct {
	queue   []engine.Entry
	running *engine.RunningSlot
	tip     *engine.CachedTip
}

// Store is a sync.Mutex-guarded map-of-pipelines implementation of
// engine.Persistence (and the superset store.Store interface).
type Store struct {
	mu        sync.Mutex
	pipelines map[string]*pipelineState
}

// New returns an empty in-memory Store.
func New() *Store {
	return &Store{pipelines: make(map[string]*pipelineState)}
}

func (s *Store) state(pipelineID string) *pipelineState {
	st, ok := s.pipelines[pipelineID]
	if !ok {
		st = &pipelineState{}
		s.pipelines[pipelineID] = st
	}
	return st
}

func (s *Store) Enqueue(_ context.Context, pipelineID string, entry engine.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state(pipelineID)
	for i, e := range st.queue {
		if e.PRID == entry.PRID {
			st.queue[i] = entry
			return nil
		}
	}
	st.queue = append(st.queue, entry)
	return nil
}

func (s *Store) Dequeue(_ context.Context, pipelineID string) (engine.Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state(pipelineID)
	if len(st.queue) == 0 {
		return engine.Entry{}, false, nil
	}
	e := st.queue[0]
	st.queue = st.queue[1:]
	return e, true, nil
}

func (s *Store) RemoveFromQueue(_ context.Context, pipelineID, prID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state(pipelineID)
	for i, e := range st.queue {
		if e.PRID == prID {
			st.queue = append(st.queue[:i], st.queue[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *Store) ReplaceInQueue(ctx context.Context, pipelineID string, entry engine.Entry) error {
	return s.Enqueue(ctx, pipelineID, entry)
}

func (s *Store) ListQueue(_ context.Context, pipelineID string) ([]engine.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state(pipelineID)
	out := make([]engine.Entry, len(st.queue))
	copy(out, st.queue)
	return out, nil
}

func (s *Store) SetRunning(_ context.Context, pipelineID string, slot *engine.RunningSlot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state(pipelineID)
	if slot == nil {
		st.running = nil
		return nil
	}
	cp := *slot
	st.running = &cp
	return nil
}

func (s *Store) GetRunning(_ context.Context, pipelineID string) (*engine.RunningSlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state(pipelineID)
	if st.running == nil {
		return nil, nil
	}
	cp := *st.running
	return &cp, nil
}

func (s *Store) SaveCachedTip(_ context.Context, pipelineID string, tip engine.CachedTip) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state(pipelineID)
	cp := tip
	st.tip = &cp
	return nil
}

func (s *Store) LoadCachedTip(_ context.Context, pipelineID string) (engine.CachedTip, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state(pipelineID)
	if st.tip == nil {
		return engine.CachedTip{}, false, nil
	}
	return *st.tip, true, nil
}

// LoadAllPipelines implements the bulk startup read from store.Store.
func (s *Store) LoadAllPipelines(_ context.Context) (map[string]store.PipelineState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]store.PipelineState, len(s.pipelines))
	for id, st := range s.pipelines {
		q := make([]engine.Entry, len(st.queue))
		copy(q, st.queue)
		var running *engine.RunningSlot
		if st.running != nil {
			cp := *st.running
			running = &cp
		}
		var tip *engine.CachedTip
		if st.tip != nil {
			cp := *st.tip
			tip = &cp
		}
		out[id] = store.PipelineState{Queue: q, Running: running, CachedTip: tip}
	}
	return out, nil
}

func (s *Store) Close() error { return nil }
