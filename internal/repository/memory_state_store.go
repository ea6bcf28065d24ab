package repository

import (
	"context"
	"sync"
	"time"

	"StockView/internal/domain/repository"
)

type stateEntry struct {
	st  repository.SessionState
	exp time.Time
}

// MemoryStateStore keeps session state in process memory with per-entry TTL.
type MemoryStateStore struct {
	mu  sync.RWMutex
	m   map[string]stateEntry
	now func() time.Time
}

var _ repository.StateStore = (*MemoryStateStore)(nil)

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{m: make(map[string]stateEntry), now: time.Now}
}

func (s *MemoryStateStore) Save(_ context.Context, sessionID string, st repository.SessionState, ttl time.Duration) error {
	var exp time.Time
	if ttl > 0 {
		exp = s.now().Add(ttl)
	}
	st = copyState(st)
	s.mu.Lock()
	s.m[sessionID] = stateEntry{st: st, exp: exp}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStateStore) Load(_ context.Context, sessionID string) (repository.SessionState, error) {
	s.mu.RLock()
	e, ok := s.m[sessionID]
	s.mu.RUnlock()
	if !ok {
		return repository.SessionState{}, repository.ErrStateNotFound
	}
	if now := s.now(); !e.exp.IsZero() && now.After(e.exp) {
		s.mu.Lock()
		defer s.mu.Unlock()
		// a Save may have refreshed the entry since the read lock was released
		e, ok = s.m[sessionID]
		if !ok {
			return repository.SessionState{}, repository.ErrStateNotFound
		}
		if !e.exp.IsZero() && now.After(e.exp) {
			delete(s.m, sessionID)
			return repository.SessionState{}, repository.ErrStateNotFound
		}
	}
	return copyState(e.st), nil
}

func (s *MemoryStateStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.m, sessionID)
	s.mu.Unlock()
	return nil
}

// Sweep drops expired entries and returns how many were removed.
func (s *MemoryStateStore) Sweep() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, e := range s.m {
		if !e.exp.IsZero() && now.After(e.exp) {
			delete(s.m, id)
			n++
		}
	}
	return n
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *MemoryStateStore) RunSweeper(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Sweep()
		}
	}
}

func copyState(st repository.SessionState) repository.SessionState {
	if st.Query != nil {
		q := *st.Query
		st.Query = &q
	}
	return st
}
