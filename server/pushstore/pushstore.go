// Package pushstore persists PushNotificationConfigs keyed by task id.
// Config ids default to the owning task id for backward compatibility
// with clients that predate multi-config support, mirroring the
// tasks/pushNotification/{set,get} handling in
// server/a2a/capability.go.
package pushstore

import (
	"context"
	"sync"

	"github.com/gate4ai/a2a/a2a"
)

// Store persists a task's PushNotificationConfigs, keyed by config id.
type Store interface {
	Save(ctx context.Context, taskID string, config a2a.PushNotificationConfig) (a2a.PushNotificationConfig, error)
	// Get returns the config with the given id for taskID. If configID is
	// empty it defaults to taskID.
	Get(ctx context.Context, taskID, configID string) (a2a.PushNotificationConfig, bool, error)
	List(ctx context.Context, taskID string) ([]a2a.PushNotificationConfig, error)
	// Delete removes one config. Removing the last config for a task
	// removes the task's entry entirely.
	Delete(ctx context.Context, taskID, configID string) error
}

// InMemory is the default Store.
type InMemory struct {
	mu     sync.RWMutex
	byTask map[string]map[string]a2a.PushNotificationConfig
}

// NewInMemory creates an empty in-memory push-notification config store.
func NewInMemory() *InMemory {
	return &InMemory{byTask: make(map[string]map[string]a2a.PushNotificationConfig)}
}

func (s *InMemory) Save(_ context.Context, taskID string, config a2a.PushNotificationConfig) (a2a.PushNotificationConfig, error) {
	if config.ID == "" {
		config.ID = taskID
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	configs, ok := s.byTask[taskID]
	if !ok {
		configs = make(map[string]a2a.PushNotificationConfig)
		s.byTask[taskID] = configs
	}
	configs[config.ID] = config
	return config, nil
}

func (s *InMemory) Get(_ context.Context, taskID, configID string) (a2a.PushNotificationConfig, bool, error) {
	if configID == "" {
		configID = taskID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	configs, ok := s.byTask[taskID]
	if !ok {
		return a2a.PushNotificationConfig{}, false, nil
	}
	config, ok := configs[configID]
	return config, ok, nil
}

func (s *InMemory) List(_ context.Context, taskID string) ([]a2a.PushNotificationConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	configs, ok := s.byTask[taskID]
	if !ok {
		return nil, nil
	}
	out := make([]a2a.PushNotificationConfig, 0, len(configs))
	for _, config := range configs {
		out = append(out, config)
	}
	return out, nil
}

func (s *InMemory) Delete(_ context.Context, taskID, configID string) error {
	if configID == "" {
		configID = taskID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	configs, ok := s.byTask[taskID]
	if !ok {
		return nil
	}
	delete(configs, configID)
	if len(configs) == 0 {
		delete(s.byTask, taskID)
	}
	return nil
}

var _ Store = (*InMemory)(nil)
