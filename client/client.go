package client

import (
	"context"
	"fmt"

	"github.com/gate4ai/a2a/a2a"
	"go.uber.org/zap"
)

// Client is the method-per-RPC facade over one resolved Transport,
// applying ClientConfig defaults and running every call through an
// ordered CallInterceptor chain.
type Client struct {
	transport    Transport
	config       ClientConfig
	interceptors []CallInterceptor
	logger       *zap.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithConfig sets the ClientConfig policy.
func WithConfig(cfg ClientConfig) ClientOption {
	return func(c *Client) { c.config = cfg }
}

// WithInterceptors appends interceptors, applied in the given order.
func WithInterceptors(interceptors ...CallInterceptor) ClientOption {
	return func(c *Client) { c.interceptors = append(c.interceptors, interceptors...) }
}

// WithLogger attaches a logger. The zero value is a no-op logger.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// NewClient builds a Client directly over an already-resolved Transport;
// use ClientFactory.NewClient to resolve one from an AgentCard instead.
func NewClient(transport Transport, opts ...ClientOption) *Client {
	c := &Client{transport: transport, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) call(ctx context.Context, method string, params interface{}, invoke func(ctx context.Context, params interface{}) (interface{}, error)) (interface{}, error) {
	call := &InterceptorCall{Method: method, Params: params}
	return runInterceptors(ctx, c.interceptors, call, invoke)
}

// SendMessage performs message/send, applying the ClientConfig's
// blocking/acceptedOutputModes/pushNotificationConfig defaults first.
func (c *Client) SendMessage(ctx context.Context, params a2a.MessageSendParams) (a2a.SendMessageResult, error) {
	c.config.apply(&params)
	result, err := c.call(ctx, "message/send", params, func(ctx context.Context, p interface{}) (interface{}, error) {
		return c.transport.SendMessage(ctx, p.(a2a.MessageSendParams))
	})
	if err != nil {
		return nil, err
	}
	res, ok := result.(a2a.SendMessageResult)
	if !ok {
		return nil, fmt.Errorf("client: interceptor chain returned %T for message/send, want a2a.SendMessageResult", result)
	}
	return res, nil
}

// SendMessageStream performs message/stream. If the transport reports
// no streaming capability error handling beyond what Transport itself
// does, callers that need the "fall back to unary" behavior for a
// non-streaming agent should call SendMessage instead; this client
// trusts the caller to have checked the AgentCard's capabilities.
func (c *Client) SendMessageStream(ctx context.Context, params a2a.MessageSendParams) (<-chan StreamEvent, error) {
	c.config.apply(&params)
	call := &InterceptorCall{Method: "message/stream", Params: params}
	events, err := c.transport.SendMessageStream(ctx, params)
	if err != nil {
		return nil, err
	}
	return applyStreamInterceptors(ctx, c.interceptors, call, events), nil
}

// GetTask performs tasks/get.
func (c *Client) GetTask(ctx context.Context, params a2a.TaskQueryParams) (*a2a.Task, error) {
	result, err := c.call(ctx, "tasks/get", params, func(ctx context.Context, p interface{}) (interface{}, error) {
		return c.transport.GetTask(ctx, p.(a2a.TaskQueryParams))
	})
	return asTask(result, err)
}

// CancelTask performs tasks/cancel.
func (c *Client) CancelTask(ctx context.Context, params a2a.TaskIDParams) (*a2a.Task, error) {
	result, err := c.call(ctx, "tasks/cancel", params, func(ctx context.Context, p interface{}) (interface{}, error) {
		return c.transport.CancelTask(ctx, p.(a2a.TaskIDParams))
	})
	return asTask(result, err)
}

// Resubscribe performs tasks/resubscribe.
func (c *Client) Resubscribe(ctx context.Context, params a2a.TaskQueryParams) (<-chan StreamEvent, error) {
	call := &InterceptorCall{Method: "tasks/resubscribe", Params: params}
	events, err := c.transport.Resubscribe(ctx, params)
	if err != nil {
		return nil, err
	}
	return applyStreamInterceptors(ctx, c.interceptors, call, events), nil
}

// SetTaskPushNotificationConfig performs tasks/pushNotificationConfig/set.
func (c *Client) SetTaskPushNotificationConfig(ctx context.Context, taskID string, config a2a.PushNotificationConfig) (*a2a.TaskPushNotificationConfig, error) {
	type params struct {
		taskID string
		config a2a.PushNotificationConfig
	}
	result, err := c.call(ctx, "tasks/pushNotificationConfig/set", params{taskID, config}, func(ctx context.Context, p interface{}) (interface{}, error) {
		pr := p.(params)
		return c.transport.SetTaskPushNotificationConfig(ctx, pr.taskID, pr.config)
	})
	return asPushConfig(result, err)
}

// GetTaskPushNotificationConfig performs tasks/pushNotificationConfig/get.
func (c *Client) GetTaskPushNotificationConfig(ctx context.Context, taskID, configID string) (*a2a.TaskPushNotificationConfig, error) {
	type params struct{ taskID, configID string }
	result, err := c.call(ctx, "tasks/pushNotificationConfig/get", params{taskID, configID}, func(ctx context.Context, p interface{}) (interface{}, error) {
		pr := p.(params)
		return c.transport.GetTaskPushNotificationConfig(ctx, pr.taskID, pr.configID)
	})
	return asPushConfig(result, err)
}

// ListTaskPushNotificationConfig performs tasks/pushNotificationConfig/list.
func (c *Client) ListTaskPushNotificationConfig(ctx context.Context, taskID string) ([]a2a.TaskPushNotificationConfig, error) {
	result, err := c.call(ctx, "tasks/pushNotificationConfig/list", taskID, func(ctx context.Context, p interface{}) (interface{}, error) {
		return c.transport.ListTaskPushNotificationConfig(ctx, p.(string))
	})
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}
	list, ok := result.([]a2a.TaskPushNotificationConfig)
	if !ok {
		return nil, fmt.Errorf("client: interceptor chain returned %T for tasks/pushNotificationConfig/list", result)
	}
	return list, nil
}

// DeleteTaskPushNotificationConfig performs tasks/pushNotificationConfig/delete.
func (c *Client) DeleteTaskPushNotificationConfig(ctx context.Context, taskID, configID string) error {
	type params struct{ taskID, configID string }
	_, err := c.call(ctx, "tasks/pushNotificationConfig/delete", params{taskID, configID}, func(ctx context.Context, p interface{}) (interface{}, error) {
		pr := p.(params)
		return nil, c.transport.DeleteTaskPushNotificationConfig(ctx, pr.taskID, pr.configID)
	})
	return err
}

// GetAuthenticatedExtendedAgentCard performs agent/getAuthenticatedExtendedCard.
func (c *Client) GetAuthenticatedExtendedAgentCard(ctx context.Context) (*a2a.AgentCard, error) {
	result, err := c.call(ctx, "agent/getAuthenticatedExtendedCard", nil, func(ctx context.Context, p interface{}) (interface{}, error) {
		return c.transport.GetAuthenticatedExtendedAgentCard(ctx)
	})
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}
	card, ok := result.(*a2a.AgentCard)
	if !ok {
		return nil, fmt.Errorf("client: interceptor chain returned %T for agent/getAuthenticatedExtendedCard", result)
	}
	return card, nil
}

func asTask(result interface{}, err error) (*a2a.Task, error) {
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}
	task, ok := result.(*a2a.Task)
	if !ok {
		return nil, fmt.Errorf("client: interceptor chain returned %T, want *a2a.Task", result)
	}
	return task, nil
}

func asPushConfig(result interface{}, err error) (*a2a.TaskPushNotificationConfig, error) {
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}
	config, ok := result.(*a2a.TaskPushNotificationConfig)
	if !ok {
		return nil, fmt.Errorf("client: interceptor chain returned %T, want *a2a.TaskPushNotificationConfig", result)
	}
	return config, nil
}
