package eventbus

import "sync"

// Manager owns the mapping from task id to its Bus. A bus is created on
// first use for a task and must be explicitly cleaned up once the
// handler is done with it (after Finished and every attached Queue has
// drained), so that a resubscribe arriving mid-execution finds the same
// live bus the original send attached to.
type Manager interface {
	// CreateOrGetByTaskID returns the bus for taskID, creating one with
	// opts if none exists yet.
	CreateOrGetByTaskID(taskID string, opts ...Option) Bus
	// GetByTaskID returns the bus for taskID without creating one.
	GetByTaskID(taskID string) (Bus, bool)
	// CleanupByTaskID removes the bus for taskID, if present.
	CleanupByTaskID(taskID string)
}

type manager struct {
	mu    sync.Mutex
	buses map[string]Bus
}

// NewManager creates an empty Manager.
func NewManager() Manager {
	return &manager{buses: make(map[string]Bus)}
}

func (m *manager) CreateOrGetByTaskID(taskID string, opts ...Option) Bus {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.buses[taskID]; ok {
		return b
	}
	b := New(opts...)
	m.buses[taskID] = b
	return b
}

func (m *manager) GetByTaskID(taskID string) (Bus, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.buses[taskID]
	return b, ok
}

func (m *manager) CleanupByTaskID(taskID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.buses, taskID)
}
