// Package memory is the in-process store. Nothing survives the process, so
// every CLI run starts with empty collections.
package memory

import (
	"context"
	"fmt"
	"sync"

	"agentcrew/internal/domain"
)

type Store struct {
	mu            sync.RWMutex
	tasks         map[int64]domain.Task
	assignedOrder []int64
	doneOrder     []int64
	improvements  []domain.Improvement
	contributions map[string]map[string]int
	activity      []domain.Activity
}

func New() *Store {
	return &Store{
		tasks:         make(map[int64]domain.Task),
		contributions: make(map[string]map[string]int),
	}
}

func (s *Store) LoadPersona(_ context.Context, personaID string) (domain.PersonaState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var state domain.PersonaState
	for _, id := range s.assignedOrder {
		if t := s.tasks[id]; t.Persona == personaID && t.Status == domain.TaskStatusAssigned {
			state.Current = append(state.Current, t.Clone())
		}
	}
	for _, id := range s.doneOrder {
		if t := s.tasks[id]; t.Persona == personaID {
			state.Completed = append(state.Completed, t.Clone())
		}
	}
	for _, imp := range s.improvements {
		if imp.Persona == personaID {
			state.Improvements = append(state.Improvements, imp)
		}
	}
	state.Contributions = copyCounters(s.contributions[personaID])
	return state, nil
}

func (s *Store) InsertTask(_ context.Context, task domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[task.ID]; exists {
		return fmt.Errorf("task with id %d already exists", task.ID)
	}
	s.tasks[task.ID] = task.Clone()
	s.assignedOrder = append(s.assignedOrder, task.ID)
	return nil
}

func (s *Store) CompleteTask(_ context.Context, task domain.Task, contributions map[string]int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.tasks[task.ID]
	if !ok || stored.Persona != task.Persona || stored.Status != domain.TaskStatusAssigned {
		return domain.ErrTaskNotFound
	}
	s.tasks[task.ID] = task.Clone()
	s.doneOrder = append(s.doneOrder, task.ID)
	s.contributions[task.Persona] = copyCounters(contributions)
	return nil
}

func (s *Store) InsertImprovement(_ context.Context, imp domain.Improvement, contributions map[string]int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.improvements = append(s.improvements, imp)
	s.contributions[imp.Persona] = copyCounters(contributions)
	return nil
}

func (s *Store) LogActivity(_ context.Context, activity domain.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activity = append(s.activity, activity)
	return nil
}

// ListActivity returns newest first. limit <= 0 means all.
func (s *Store) ListActivity(_ context.Context, personaID string, limit int) ([]domain.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Activity, 0)
	for i := len(s.activity) - 1; i >= 0; i-- {
		if s.activity[i].Persona != personaID {
			continue
		}
		out = append(out, s.activity[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Store) Close() error { return nil }

func copyCounters(in map[string]int) map[string]int {
	if in == nil {
		return nil
	}
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
