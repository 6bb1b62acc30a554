// Package resultmanager folds a per-task event stream into the
// canonical a2a.Task, persisting synchronously through a taskstore.Store,
// the way server/a2a/capability.go folds JSON-RPC notifications into a
// session's recorded state in the teacher codebase.
package resultmanager

import (
	"context"
	"fmt"

	"github.com/gate4ai/a2a/a2a"
	"github.com/gate4ai/a2a/server/taskstore"
	"go.uber.org/zap"
)

// ResultManager folds one task's event stream into its canonical Task
// and exposes the fold result to callers wanting an early first result.
//
// Not safe for concurrent ProcessEvent calls: the engine guarantees a
// single event-processing loop drives each ResultManager, so no
// internal locking is needed beyond what protects getCurrentTask/
// getFinalResult against that same loop.
type ResultManager struct {
	store  taskstore.Store
	logger *zap.Logger

	task       *a2a.Task // nil until a Task-shaped event has been folded
	onlyResult *a2a.Message // set when the sole event folded so far is a bare Message
}

// New creates a ResultManager that persists folded Tasks via store.
func New(store taskstore.Store, logger *zap.Logger) *ResultManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResultManager{store: store, logger: logger}
}

// Seed primes the manager with a task already loaded from the store
// (e.g. resubscribe or cancel draining an existing task), so fold rules
// that merge into "a prior task" have something to merge into.
func (m *ResultManager) Seed(task *a2a.Task) {
	m.task = task.Clone()
}

// ProcessEvent folds one event in order, persisting synchronously.
func (m *ResultManager) ProcessEvent(ctx context.Context, event a2a.Event) error {
	switch e := event.(type) {
	case *a2a.Message:
		return m.foldMessage(ctx, e)
	case *a2a.Task:
		return m.foldTask(ctx, e)
	case *a2a.TaskStatusUpdateEvent:
		return m.foldStatusUpdate(ctx, e)
	case *a2a.TaskArtifactUpdateEvent:
		return m.foldArtifactUpdate(ctx, e)
	default:
		return fmt.Errorf("resultmanager: unknown event type %T", event)
	}
}

func (m *ResultManager) foldMessage(ctx context.Context, msg *a2a.Message) error {
	if m.task == nil {
		// No task exists yet: this Message IS the final result.
		m.onlyResult = msg
		return nil
	}
	m.task.History = append(m.task.History, *msg)
	return m.persist(ctx)
}

func (m *ResultManager) foldTask(ctx context.Context, task *a2a.Task) error {
	incoming := task.Clone()
	if m.task != nil && m.task.ID == incoming.ID {
		// Re-emission of the same task: preserve history already folded.
		incoming.History = append(append([]a2a.Message{}, m.task.History...), incoming.History...)
	}
	m.task = incoming
	m.onlyResult = nil
	return m.persist(ctx)
}

func (m *ResultManager) foldStatusUpdate(ctx context.Context, event *a2a.TaskStatusUpdateEvent) error {
	if m.task == nil {
		m.task = &a2a.Task{ID: event.TaskID, ContextID: event.ContextID, Kind: "task"}
	}
	m.task.Status = event.Status
	if event.Status.Message != nil {
		m.task.History = append(m.task.History, *event.Status.Message)
	}
	m.onlyResult = nil
	return m.persist(ctx)
}

func (m *ResultManager) foldArtifactUpdate(ctx context.Context, event *a2a.TaskArtifactUpdateEvent) error {
	if m.task == nil {
		m.task = &a2a.Task{ID: event.TaskID, ContextID: event.ContextID, Kind: "task"}
	}
	mergeArtifact(m.task, event)
	m.onlyResult = nil
	return m.persist(ctx)
}

// mergeArtifact merges event.Artifact into task.Artifacts by ArtifactID.
// A matching existing artifact has its metadata replaced by the newer
// event's (later wins) and its parts appended to, unless Append is
// false, in which case the new parts fully replace the old ones.
func mergeArtifact(task *a2a.Task, event *a2a.TaskArtifactUpdateEvent) {
	for i := range task.Artifacts {
		if task.Artifacts[i].ArtifactID != event.Artifact.ArtifactID {
			continue
		}
		existing := &task.Artifacts[i]
		if event.Artifact.Metadata != nil {
			existing.Metadata = event.Artifact.Metadata
		}
		if event.Artifact.Name != nil {
			existing.Name = event.Artifact.Name
		}
		if event.Artifact.Description != nil {
			existing.Description = event.Artifact.Description
		}
		if event.Append {
			existing.Parts = append(existing.Parts, event.Artifact.Parts...)
		} else {
			existing.Parts = event.Artifact.Parts
		}
		return
	}
	task.Artifacts = append(task.Artifacts, event.Artifact)
}

func (m *ResultManager) persist(ctx context.Context) error {
	if m.task == nil {
		return nil
	}
	if err := m.store.Save(ctx, m.task); err != nil {
		return err
	}
	return nil
}

// GetCurrentTask returns the latest folded Task, or nil if no Task-shaped
// event has been folded yet (e.g. the interaction so far is a bare
// Message).
func (m *ResultManager) GetCurrentTask() *a2a.Task {
	if m.task == nil {
		return nil
	}
	return m.task.Clone()
}

// GetFinalResult returns the Message if that was the only event folded,
// otherwise the final Task. Returns nil, nil if nothing was ever folded.
func (m *ResultManager) GetFinalResult() (a2a.Event, error) {
	if m.task == nil && m.onlyResult == nil {
		return nil, nil
	}
	if m.task == nil {
		return m.onlyResult, nil
	}
	return m.GetCurrentTask(), nil
}
