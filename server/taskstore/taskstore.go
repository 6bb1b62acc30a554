// Package taskstore defines the pluggable persistence interface for
// Tasks and ships an in-memory default implementation, grounded on the
// TaskStore used by server/a2a/capability.go in the teacher codebase.
package taskstore

import (
	"context"
	"sync"

	"github.com/gate4ai/a2a/a2a"
)

// Store persists Tasks by id. Implementations must be safe for
// concurrent use across tasks; the engine itself serializes all writes
// to one task's mutable fields through a single ResultManager, so a
// Store never needs to arbitrate concurrent writers for the same id.
type Store interface {
	Save(ctx context.Context, task *a2a.Task) error
	// Load returns a2a.NewTaskNotFoundError(id) (wrapped) if no task with
	// that id exists.
	Load(ctx context.Context, id string) (*a2a.Task, error)
}

// InMemory is the default Store: a mutex-guarded map. Tasks are never
// deleted by the engine, matching the ownership rules in the engine's
// specification.
type InMemory struct {
	mu    sync.RWMutex
	tasks map[string]*a2a.Task
}

// NewInMemory creates an empty in-memory Store.
func NewInMemory() *InMemory {
	return &InMemory{tasks: make(map[string]*a2a.Task)}
}

func (s *InMemory) Save(_ context.Context, task *a2a.Task) error {
	if task == nil {
		return a2a.NewInvalidParamsError("cannot save a nil task")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[task.ID] = task.Clone()
	return nil
}

func (s *InMemory) Load(_ context.Context, id string) (*a2a.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.tasks[id]
	if !ok {
		return nil, a2a.NewTaskNotFoundError(id)
	}
	return task.Clone(), nil
}

var _ Store = (*InMemory)(nil)
