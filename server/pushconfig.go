package server

import (
	"context"

	"github.com/gate4ai/a2a/a2a"
)

func (h *DefaultRequestHandler) requirePushNotifications() error {
	if !h.agentCard.Capabilities.PushNotifications || h.pushStore == nil {
		return a2a.NewPushNotificationNotSupportedError()
	}
	return nil
}

// SetTaskPushNotificationConfig implements tasks/pushNotificationConfig/set.
func (h *DefaultRequestHandler) SetTaskPushNotificationConfig(ctx context.Context, taskID string, config a2a.PushNotificationConfig) (a2a.TaskPushNotificationConfig, error) {
	if err := h.requirePushNotifications(); err != nil {
		return a2a.TaskPushNotificationConfig{}, err
	}
	if _, err := h.taskStore.Load(ctx, taskID); err != nil {
		return a2a.TaskPushNotificationConfig{}, err
	}
	saved, err := h.pushStore.Save(ctx, taskID, config)
	if err != nil {
		return a2a.TaskPushNotificationConfig{}, err
	}
	return a2a.TaskPushNotificationConfig{TaskID: taskID, Config: saved}, nil
}

// GetTaskPushNotificationConfig implements tasks/pushNotificationConfig/get.
func (h *DefaultRequestHandler) GetTaskPushNotificationConfig(ctx context.Context, params a2a.GetTaskPushNotificationConfigParams) (a2a.TaskPushNotificationConfig, error) {
	if err := h.requirePushNotifications(); err != nil {
		return a2a.TaskPushNotificationConfig{}, err
	}
	if _, err := h.taskStore.Load(ctx, params.ID); err != nil {
		return a2a.TaskPushNotificationConfig{}, err
	}
	config, ok, err := h.pushStore.Get(ctx, params.ID, params.ConfigID)
	if err != nil {
		return a2a.TaskPushNotificationConfig{}, err
	}
	if !ok {
		return a2a.TaskPushNotificationConfig{}, a2a.NewTaskNotFoundError(params.ID)
	}
	return a2a.TaskPushNotificationConfig{TaskID: params.ID, Config: config}, nil
}

// ListTaskPushNotificationConfig implements tasks/pushNotificationConfig/list.
func (h *DefaultRequestHandler) ListTaskPushNotificationConfig(ctx context.Context, params a2a.ListTaskPushNotificationConfigParams) ([]a2a.TaskPushNotificationConfig, error) {
	if err := h.requirePushNotifications(); err != nil {
		return nil, err
	}
	if _, err := h.taskStore.Load(ctx, params.ID); err != nil {
		return nil, err
	}
	configs, err := h.pushStore.List(ctx, params.ID)
	if err != nil {
		return nil, err
	}
	out := make([]a2a.TaskPushNotificationConfig, 0, len(configs))
	for _, config := range configs {
		out = append(out, a2a.TaskPushNotificationConfig{TaskID: params.ID, Config: config})
	}
	return out, nil
}

// DeleteTaskPushNotificationConfig implements tasks/pushNotificationConfig/delete.
func (h *DefaultRequestHandler) DeleteTaskPushNotificationConfig(ctx context.Context, params a2a.DeleteTaskPushNotificationConfigParams) error {
	if err := h.requirePushNotifications(); err != nil {
		return err
	}
	if _, err := h.taskStore.Load(ctx, params.ID); err != nil {
		return err
	}
	return h.pushStore.Delete(ctx, params.ID, params.ConfigID)
}

// GetAuthenticatedExtendedAgentCard implements agent/getAuthenticatedExtendedCard.
func (h *DefaultRequestHandler) GetAuthenticatedExtendedAgentCard(ctx context.Context, call *a2a.ServerCallContext) (a2a.AgentCard, error) {
	if !h.agentCard.SupportsAuthenticatedExtendedCard {
		return a2a.AgentCard{}, a2a.NewUnsupportedOperationError("agent/getAuthenticatedExtendedCard")
	}
	if h.extendedCardProvider == nil && h.extendedCardStatic == nil {
		return a2a.AgentCard{}, a2a.NewAuthenticatedExtendedCardNotConfiguredError()
	}
	if h.extendedCardProvider != nil {
		card, err := h.extendedCardProvider(ctx, call)
		if err != nil {
			return a2a.AgentCard{}, err
		}
		if card != nil {
			return *card, nil
		}
	}
	if h.extendedCardStatic != nil && call.User.IsAuthenticated() {
		return *h.extendedCardStatic, nil
	}
	return h.agentCard, nil
}
