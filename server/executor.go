package server

import (
	"context"

	"github.com/gate4ai/a2a/a2a"
	"github.com/gate4ai/a2a/server/eventbus"
)

// AgentExecutor is implemented by the embedding application: the actual
// agent logic that turns one message-send interaction into a stream of
// events on bus. Execute must return once it has published a terminal
// event (a Task in a terminal/input-required state, a bare Message, or a
// final status-update) and called bus.Finished(); it owns that call, the
// handler only calls it itself on executor failure.
type AgentExecutor interface {
	Execute(ctx context.Context, reqCtx *RequestContext, bus eventbus.Bus) error
	// CancelTask asks a running execution for taskID to wind down,
	// publishing a canceled status-update to bus before returning.
	// Implementations that cannot cooperatively cancel should still
	// return promptly; the handler enforces the final state.
	CancelTask(ctx context.Context, taskID string, bus eventbus.Bus) error
}

// RequestContext is the input to one AgentExecutor.Execute call: the
// incoming message plus everything resolved about the task it belongs
// to, built by DefaultRequestHandler.sendMessage/sendMessageStream
// before the executor is spawned.
type RequestContext struct {
	TaskID    string
	ContextID string
	Message   a2a.Message

	// Task is the task as loaded (and already updated with the incoming
	// message appended to history) before this call, or nil for a fresh
	// task.
	Task *a2a.Task

	// ReferenceTasks holds every task named in Message.ReferenceTaskIDs
	// that was found; missing references are logged and omitted, never
	// fail the request.
	ReferenceTasks []*a2a.Task

	Call *a2a.ServerCallContext
}
