package server

import (
	"context"

	"github.com/gate4ai/a2a/a2a"
)

// Resubscribe implements tasks/resubscribe: yield the task as currently
// known, then every subsequent event on its live bus (if any). If the
// task is already terminal, the stream ends after that first yield.
func (h *DefaultRequestHandler) Resubscribe(ctx context.Context, params a2a.TaskQueryParams, yield func(a2a.Event) error) error {
	if !h.agentCard.Capabilities.Streaming {
		return a2a.NewUnsupportedOperationError("tasks/resubscribe")
	}
	task, err := h.taskStore.Load(ctx, params.ID)
	if err != nil {
		return err
	}
	if err := yield(task); err != nil {
		return err
	}
	if task.Status.State.IsTerminal() {
		return nil
	}

	bus, ok := h.buses.GetByTaskID(params.ID)
	if !ok {
		return nil
	}
	queue := bus.Attach()
	defer queue.Stop()

	for {
		event, ok, err := queue.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := yield(event); err != nil {
			return err
		}
	}
}
