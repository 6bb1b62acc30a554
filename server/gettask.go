package server

import (
	"context"

	"github.com/gate4ai/a2a/a2a"
)

// GetTask implements tasks/get.
func (h *DefaultRequestHandler) GetTask(ctx context.Context, params a2a.TaskQueryParams) (*a2a.Task, error) {
	task, err := h.taskStore.Load(ctx, params.ID)
	if err != nil {
		return nil, err
	}
	task.ApplyHistoryLength(params.HistoryLength)
	return task, nil
}
