package client

import (
	"context"

	"github.com/gate4ai/a2a/a2a"
	"github.com/gate4ai/a2a/transport/rest"
)

// restTransport adapts a *rest.Client to the Transport interface.
type restTransport struct {
	client *rest.Client
}

// NewRESTTransport wraps a rest.Client as a Transport.
func NewRESTTransport(c *rest.Client) Transport {
	return &restTransport{client: c}
}

func (t *restTransport) SendMessage(ctx context.Context, params a2a.MessageSendParams) (a2a.SendMessageResult, error) {
	return t.client.SendMessage(ctx, params)
}

func (t *restTransport) SendMessageStream(ctx context.Context, params a2a.MessageSendParams) (<-chan StreamEvent, error) {
	events, err := t.client.SendMessageStream(ctx, params)
	if err != nil {
		return nil, err
	}
	return relayRESTEvents(events), nil
}

func (t *restTransport) GetTask(ctx context.Context, params a2a.TaskQueryParams) (*a2a.Task, error) {
	return t.client.GetTask(ctx, params)
}

func (t *restTransport) CancelTask(ctx context.Context, params a2a.TaskIDParams) (*a2a.Task, error) {
	return t.client.CancelTask(ctx, params)
}

func (t *restTransport) Resubscribe(ctx context.Context, params a2a.TaskQueryParams) (<-chan StreamEvent, error) {
	events, err := t.client.Subscribe(ctx, params.ID)
	if err != nil {
		return nil, err
	}
	return relayRESTEvents(events), nil
}

func (t *restTransport) SetTaskPushNotificationConfig(ctx context.Context, taskID string, config a2a.PushNotificationConfig) (*a2a.TaskPushNotificationConfig, error) {
	return t.client.SetTaskPushNotificationConfig(ctx, taskID, config)
}

func (t *restTransport) GetTaskPushNotificationConfig(ctx context.Context, taskID, configID string) (*a2a.TaskPushNotificationConfig, error) {
	return t.client.GetTaskPushNotificationConfig(ctx, taskID, configID)
}

func (t *restTransport) ListTaskPushNotificationConfig(ctx context.Context, taskID string) ([]a2a.TaskPushNotificationConfig, error) {
	return t.client.ListTaskPushNotificationConfig(ctx, taskID)
}

func (t *restTransport) DeleteTaskPushNotificationConfig(ctx context.Context, taskID, configID string) error {
	return t.client.DeleteTaskPushNotificationConfig(ctx, taskID, configID)
}

func (t *restTransport) GetAuthenticatedExtendedAgentCard(ctx context.Context) (*a2a.AgentCard, error) {
	return t.client.GetAuthenticatedExtendedAgentCard(ctx)
}

func relayRESTEvents(in <-chan rest.StreamEvent) <-chan StreamEvent {
	out := make(chan StreamEvent, cap(in))
	go func() {
		defer close(out)
		for ev := range in {
			out <- StreamEvent{Event: ev.Event, Err: ev.Err}
		}
	}()
	return out
}
