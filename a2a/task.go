package a2a

import "time"

// TaskState is one of the states a Task can occupy during its lifecycle.
type TaskState string

const (
	TaskStateSubmitted     TaskState = "submitted"
	TaskStateWorking       TaskState = "working"
	TaskStateInputRequired TaskState = "input-required"
	TaskStateAuthRequired  TaskState = "auth-required"
	TaskStateCompleted     TaskState = "completed"
	TaskStateFailed        TaskState = "failed"
	TaskStateCanceled      TaskState = "canceled"
	TaskStateRejected      TaskState = "rejected"
)

// IsTerminal reports whether no further transitions are permitted from
// this state.
func (s TaskState) IsTerminal() bool {
	switch s {
	case TaskStateCompleted, TaskStateFailed, TaskStateCanceled, TaskStateRejected:
		return true
	default:
		return false
	}
}

// TaskStatus is the current state of a Task, optionally carrying the
// message that explains the transition (e.g. the agent's final reply, or
// the prompt for missing input).
type TaskStatus struct {
	State     TaskState  `json:"state"`
	Message   *Message   `json:"message,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// Artifact is a named output produced by a task, identified by
// ArtifactID so that later updates can be merged into earlier ones.
type Artifact struct {
	ArtifactID  string                 `json:"artifactId"`
	Name        *string                `json:"name,omitempty"`
	Description *string                `json:"description,omitempty"`
	Parts       []Part                 `json:"parts"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// Task is the canonical, persisted record of one agent interaction.
// History preserves insertion order of every Message exchanged for the
// task; Artifacts are keyed by ArtifactID.
type Task struct {
	ID        string     `json:"id"`
	ContextID string     `json:"contextId"`
	Status    TaskStatus `json:"status"`
	History   []Message  `json:"history,omitempty"`
	Artifacts []Artifact `json:"artifacts,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Kind      string     `json:"kind"` // always "task"
}

// Clone returns a deep-enough copy of the Task so that the ResultManager
// can mutate it without aliasing the caller's or the store's slices.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	clone := *t
	if t.History != nil {
		clone.History = make([]Message, len(t.History))
		copy(clone.History, t.History)
	}
	if t.Artifacts != nil {
		clone.Artifacts = make([]Artifact, len(t.Artifacts))
		copy(clone.Artifacts, t.Artifacts)
	}
	if t.Metadata != nil {
		meta := make(map[string]interface{}, len(t.Metadata))
		for k, v := range t.Metadata {
			meta[k] = v
		}
		clone.Metadata = meta
	}
	return &clone
}

// ApplyHistoryLength truncates History per the tasks/get and message/send
// `historyLength` contract: unset or negative means empty history,
// non-negative N keeps the last N messages.
func (t *Task) ApplyHistoryLength(historyLength *int) {
	if historyLength == nil || *historyLength < 0 {
		t.History = nil
		return
	}
	n := *historyLength
	if len(t.History) > n {
		t.History = t.History[len(t.History)-n:]
	}
}
