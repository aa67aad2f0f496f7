// Package memory is the in-process goal store: an id-keyed map plus the
// ordered id list, kept in lockstep under one mutex.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"sync"

	"goals/internal/core"
	"goals/internal/store"
)

type Store struct {
	mu    sync.RWMutex
	goals map[string]core.Goal
	order []string

	newID store.IDFunc
	now   store.Clock
}

type Option func(*Store)

func WithIDFunc(f store.IDFunc) Option {
	return func(s *Store) { s.newID = f }
}

func WithClock(c store.Clock) Option {
	return func(s *Store) { s.now = c }
}

func New(opts ...Option) *Store {
	s := &Store{
		goals: make(map[string]core.Goal),
		newID: store.NewID,
		now:   store.SystemClock,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// NewFromFile seeds a store from a JSON array of goals. A missing file
// yields an empty store; goals with an empty or repeated id are skipped.
func NewFromFile(path string, opts ...Option) (*Store, error) {
	s := New(opts...)
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var seed []core.Goal
	if err := json.Unmarshal(b, &seed); err != nil {
		return nil, fmt.Errorf("decode seed file %s: %w", path, err)
	}
	for _, g := range seed {
		if g.ID == "" {
			continue
		}
		if _, dup := s.goals[g.ID]; dup {
			continue
		}
		s.insert(core.NewGoal(g.ID, g.Created, g.Fields()))
	}
	return s, nil
}

// Create never fails.
func (s *Store) Create(_ context.Context, f core.GoalFields) (core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.newID()
	for _, taken := s.goals[id]; taken; _, taken = s.goals[id] {
		id = s.newID()
	}
	g := core.NewGoal(id, s.now(), f)
	s.insert(g)
	return g.Clone(), nil
}

func (s *Store) Update(_ context.Context, p core.GoalPatch) (core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.goals[p.ID]
	if !ok {
		return core.Goal{}, fmt.Errorf("update goal %q: %w", p.ID, core.ErrGoalNotFound)
	}
	g := core.ApplyPatch(existing, p)
	s.goals[p.ID] = g
	return g.Clone(), nil
}

func (s *Store) GetByID(_ context.Context, id string) (core.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.goals[id]
	if !ok {
		return core.Goal{}, fmt.Errorf("get goal %q: %w", id, core.ErrGoalNotFound)
	}
	return g.Clone(), nil
}

func (s *Store) List(_ context.Context) ([]core.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Goal, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.goals[id].Clone())
	}
	return out, nil
}

func (s *Store) GoalsMap(_ context.Context) (map[string]core.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := maps.Clone(s.goals)
	for id, g := range out {
		out[id] = g.Clone()
	}
	return out, nil
}

func (s *Store) GoalsList(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string{}, s.order...), nil
}

// Len reports the number of goals.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// insert requires s.mu held for writing.
func (s *Store) insert(g core.Goal) {
	s.goals[g.ID] = g
	s.order = append(s.order, g.ID)
}

var _ store.Repository = (*Store)(nil)
