package server

import (
	"context"

	"github.com/gate4ai/a2a/a2a"
	"github.com/gate4ai/a2a/server/eventbus"
	"github.com/gate4ai/a2a/server/resultmanager"
)

// CancelTask implements tasks/cancel.
func (h *DefaultRequestHandler) CancelTask(ctx context.Context, params a2a.TaskIDParams) (*a2a.Task, error) {
	task, err := h.taskStore.Load(ctx, params.ID)
	if err != nil {
		return nil, err
	}
	if task.Status.State.IsTerminal() {
		return nil, a2a.NewTaskNotCancelableError(params.ID)
	}

	bus, ok := h.buses.GetByTaskID(params.ID)
	if !ok {
		return h.cancelWithoutLiveBus(ctx, task)
	}
	return h.cancelLiveBus(ctx, task, bus)
}

// cancelWithoutLiveBus handles a task with no in-flight execution: there
// is nothing for the executor to cooperate with, so the handler itself
// persists the canceled status.
func (h *DefaultRequestHandler) cancelWithoutLiveBus(ctx context.Context, task *a2a.Task) (*a2a.Task, error) {
	msg := a2a.Message{
		MessageID: a2a.NewMessageID(),
		Role:      a2a.RoleAgent,
		Parts:     []a2a.Part{a2a.NewTextPart("task canceled")},
		Kind:      "message",
	}
	task.Status = a2a.TaskStatus{State: a2a.TaskStateCanceled, Message: &msg}
	task.History = append(task.History, msg)
	if err := h.taskStore.Save(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// cancelLiveBus asks the executor to cooperatively cancel, then drains
// the bus through a fresh ResultManager seeded from the current task
// until the executor signals termination.
func (h *DefaultRequestHandler) cancelLiveBus(ctx context.Context, task *a2a.Task, bus eventbus.Bus) (*a2a.Task, error) {
	rm := resultmanager.New(h.taskStore, h.logger)
	rm.Seed(task)
	queue := bus.Attach()
	defer queue.Stop()

	if err := h.executor.CancelTask(ctx, task.ID, bus); err != nil {
		return nil, err
	}
	if err := h.drainIntoResultManager(ctx, queue, rm, nil); err != nil {
		return nil, err
	}

	final, err := h.taskStore.Load(ctx, task.ID)
	if err != nil {
		return nil, err
	}
	if final.Status.State != a2a.TaskStateCanceled {
		return nil, a2a.NewTaskNotCancelableError(task.ID)
	}
	return final, nil
}
