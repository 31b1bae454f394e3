package services

import (
	"fmt"
	"strings"
	"sync"

	"github.com/nvman/backend/internal/core/ports"
	"github.com/nvman/backend/internal/domain"
)

// TaskRegistry owns the routing table from task id to control handles. An id
// is present exactly while a worker for it is active. Insertion and removal
// are the only mutations; no I/O happens while the lock is held.
type TaskRegistry struct {
	mu    sync.Mutex
	tasks map[string]*domain.Task
}

func NewTaskRegistry() *TaskRegistry {
	return &TaskRegistry{tasks: make(map[string]*domain.Task)}
}

// Register inserts fresh control handles for id. Fails if a worker for the
// id is already active.
func (r *TaskRegistry) Register(id string, kind domain.TaskKind) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tasks[id]; exists {
		return nil, fmt.Errorf("%w: %s", ErrTaskAlreadyRunning, id)
	}

	t := domain.NewTask(id, kind)
	r.tasks[id] = t
	return t, nil
}

// Unregister removes the entry for id. A no-op if absent, so terminal
// cleanup stays idempotent.
func (r *TaskRegistry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tasks, id)
}

// Lookup resolves id exactly first, then with a "v" prefix added, so callers
// may pass "20.0.0" or "v20.0.0" interchangeably.
func (r *TaskRegistry) Lookup(id string) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.tasks[id]; ok {
		return t, nil
	}
	if !strings.HasPrefix(id, "v") {
		if t, ok := r.tasks["v"+id]; ok {
			return t, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
}

// Active returns a snapshot of the currently registered tasks.
func (r *TaskRegistry) Active() []ports.ActiveTask {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]ports.ActiveTask, 0, len(r.tasks))
	for _, t := range r.tasks {
		out = append(out, ports.ActiveTask{
			ID:     t.ID,
			Kind:   t.Kind,
			Paused: t.Paused.Load(),
		})
	}
	return out
}
