package a2a

// MessageSendConfiguration tunes how message/send behaves for a single
// call: whether it blocks for a final result, and default modalities for
// the agent's reply.
type MessageSendConfiguration struct {
	Blocking                   *bool                    `json:"blocking,omitempty"`
	AcceptedOutputModes        []string                 `json:"acceptedOutputModes,omitempty"`
	HistoryLength              *int                     `json:"historyLength,omitempty"`
	PushNotificationConfig     *PushNotificationConfig `json:"pushNotificationConfig,omitempty"`
}

// IsBlocking returns the effective blocking mode: true unless the
// caller explicitly set Blocking=false.
func (c *MessageSendConfiguration) IsBlocking() bool {
	if c == nil || c.Blocking == nil {
		return true
	}
	return *c.Blocking
}

// MessageSendParams is the payload of message/send and message/stream.
type MessageSendParams struct {
	Message       Message                   `json:"message"`
	Configuration *MessageSendConfiguration `json:"configuration,omitempty"`
	Metadata      map[string]interface{}    `json:"metadata,omitempty"`
}

// TaskIDParams identifies a task for tasks/cancel and
// tasks/pushNotificationConfig/delete-style operations.
type TaskIDParams struct {
	ID string `json:"id"`
}

// TaskQueryParams identifies a task and optionally requests a bounded
// amount of history, for tasks/get and tasks/resubscribe.
type TaskQueryParams struct {
	ID            string `json:"id"`
	HistoryLength *int   `json:"historyLength,omitempty"`
}

// GetTaskPushNotificationConfigParams identifies one push config,
// defaulting to the task's own id when ConfigID is empty.
type GetTaskPushNotificationConfigParams struct {
	ID       string `json:"id"`
	ConfigID string `json:"pushNotificationConfigId,omitempty"`
}

// ListTaskPushNotificationConfigParams lists all configs for a task.
type ListTaskPushNotificationConfigParams struct {
	ID string `json:"id"`
}

// DeleteTaskPushNotificationConfigParams deletes one push config.
type DeleteTaskPushNotificationConfigParams struct {
	ID       string `json:"id"`
	ConfigID string `json:"pushNotificationConfigId"`
}

// SendMessageResult is implemented by *Message and *Task: the two shapes
// message/send and message/stream's first/final result can take.
type SendMessageResult interface {
	Event
}
