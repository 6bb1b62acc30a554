package client

import (
	"context"

	"github.com/gate4ai/a2a/a2a"
	"github.com/gate4ai/a2a/transport/jsonrpc"
)

// jsonrpcTransport adapts a *jsonrpc.Client to the Transport interface,
// translating between its param-struct methods and Transport's flat
// taskID/configID ones.
type jsonrpcTransport struct {
	client *jsonrpc.Client
}

// NewJSONRPCTransport wraps a jsonrpc.Client as a Transport.
func NewJSONRPCTransport(c *jsonrpc.Client) Transport {
	return &jsonrpcTransport{client: c}
}

func (t *jsonrpcTransport) SendMessage(ctx context.Context, params a2a.MessageSendParams) (a2a.SendMessageResult, error) {
	return t.client.SendMessage(ctx, params)
}

func (t *jsonrpcTransport) SendMessageStream(ctx context.Context, params a2a.MessageSendParams) (<-chan StreamEvent, error) {
	events, err := t.client.SendMessageStream(ctx, params)
	if err != nil {
		return nil, err
	}
	return relayJSONRPCEvents(events), nil
}

func (t *jsonrpcTransport) GetTask(ctx context.Context, params a2a.TaskQueryParams) (*a2a.Task, error) {
	return t.client.GetTask(ctx, params)
}

func (t *jsonrpcTransport) CancelTask(ctx context.Context, params a2a.TaskIDParams) (*a2a.Task, error) {
	return t.client.CancelTask(ctx, params)
}

func (t *jsonrpcTransport) Resubscribe(ctx context.Context, params a2a.TaskQueryParams) (<-chan StreamEvent, error) {
	events, err := t.client.Resubscribe(ctx, params)
	if err != nil {
		return nil, err
	}
	return relayJSONRPCEvents(events), nil
}

func (t *jsonrpcTransport) SetTaskPushNotificationConfig(ctx context.Context, taskID string, config a2a.PushNotificationConfig) (*a2a.TaskPushNotificationConfig, error) {
	return t.client.SetTaskPushNotificationConfig(ctx, a2a.TaskPushNotificationConfig{TaskID: taskID, Config: config})
}

func (t *jsonrpcTransport) GetTaskPushNotificationConfig(ctx context.Context, taskID, configID string) (*a2a.TaskPushNotificationConfig, error) {
	return t.client.GetTaskPushNotificationConfig(ctx, a2a.GetTaskPushNotificationConfigParams{ID: taskID, ConfigID: configID})
}

func (t *jsonrpcTransport) ListTaskPushNotificationConfig(ctx context.Context, taskID string) ([]a2a.TaskPushNotificationConfig, error) {
	return t.client.ListTaskPushNotificationConfig(ctx, a2a.ListTaskPushNotificationConfigParams{ID: taskID})
}

func (t *jsonrpcTransport) DeleteTaskPushNotificationConfig(ctx context.Context, taskID, configID string) error {
	return t.client.DeleteTaskPushNotificationConfig(ctx, a2a.DeleteTaskPushNotificationConfigParams{ID: taskID, ConfigID: configID})
}

func (t *jsonrpcTransport) GetAuthenticatedExtendedAgentCard(ctx context.Context) (*a2a.AgentCard, error) {
	return t.client.GetAuthenticatedExtendedAgentCard(ctx)
}

func relayJSONRPCEvents(in <-chan jsonrpc.StreamEvent) <-chan StreamEvent {
	out := make(chan StreamEvent, cap(in))
	go func() {
		defer close(out)
		for ev := range in {
			out <- StreamEvent{Event: ev.Event, Err: ev.Err}
		}
	}()
	return out
}
