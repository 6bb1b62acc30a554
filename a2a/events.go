package a2a

// Event is implemented by every value an AgentExecutor may publish to its
// event bus: *Message, *Task, *TaskStatusUpdateEvent, and
// *TaskArtifactUpdateEvent. It carries no behavior of its own; it exists
// so the event bus and result manager can accept any of the four without
// resorting to interface{}.
type Event interface {
	eventMarker()
}

func (*Message) eventMarker()                 {}
func (*Task) eventMarker()                    {}
func (*TaskStatusUpdateEvent) eventMarker()   {}
func (*TaskArtifactUpdateEvent) eventMarker() {}

// TaskStatusUpdateEvent signals a change in a task's status while it is
// executing. Final marks the terminal status update for the interaction
// that triggered the execution (not necessarily a terminal TaskState —
// input-required also ends the logical interaction).
type TaskStatusUpdateEvent struct {
	TaskID    string                 `json:"taskId"`
	ContextID string                 `json:"contextId"`
	Status    TaskStatus             `json:"status"`
	Final     bool                   `json:"final"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Kind      string                 `json:"kind"` // always "status-update"
}

// TaskArtifactUpdateEvent signals a new or updated artifact produced by a
// running task.
type TaskArtifactUpdateEvent struct {
	TaskID    string                 `json:"taskId"`
	ContextID string                 `json:"contextId"`
	Artifact  Artifact               `json:"artifact"`
	Append    bool                   `json:"append,omitempty"`
	LastChunk bool                   `json:"lastChunk,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Kind      string                 `json:"kind"` // always "artifact-update"
}
