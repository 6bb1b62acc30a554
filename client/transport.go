// Package client provides the multitransport client facade described in
// spec §4.7: one method per RPC, a ClientConfig policy, an ordered
// CallInterceptor chain, and a ClientFactory that resolves which
// wire transport to speak from an AgentCard.
package client

import (
	"context"

	"github.com/gate4ai/a2a/a2a"
)

// StreamEvent is one event from a streaming call, paired with a
// parse/transport error so a malformed frame does not silently end the
// channel.
type StreamEvent struct {
	Event a2a.Event
	Err   error
}

// Transport is the minimal operation set both wire transports
// (transport/jsonrpc, transport/rest) expose; Client is a thin
// interceptor/config layer over whichever Transport a ClientFactory
// resolves from an AgentCard.
type Transport interface {
	SendMessage(ctx context.Context, params a2a.MessageSendParams) (a2a.SendMessageResult, error)
	SendMessageStream(ctx context.Context, params a2a.MessageSendParams) (<-chan StreamEvent, error)
	GetTask(ctx context.Context, params a2a.TaskQueryParams) (*a2a.Task, error)
	CancelTask(ctx context.Context, params a2a.TaskIDParams) (*a2a.Task, error)
	Resubscribe(ctx context.Context, params a2a.TaskQueryParams) (<-chan StreamEvent, error)
	SetTaskPushNotificationConfig(ctx context.Context, taskID string, config a2a.PushNotificationConfig) (*a2a.TaskPushNotificationConfig, error)
	GetTaskPushNotificationConfig(ctx context.Context, taskID, configID string) (*a2a.TaskPushNotificationConfig, error)
	ListTaskPushNotificationConfig(ctx context.Context, taskID string) ([]a2a.TaskPushNotificationConfig, error)
	DeleteTaskPushNotificationConfig(ctx context.Context, taskID, configID string) error
	GetAuthenticatedExtendedAgentCard(ctx context.Context) (*a2a.AgentCard, error)
}
