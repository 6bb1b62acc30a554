// Package jsonrpc also provides the client half of the JSON-RPC 2.0
// transport, grounded on gateway/clients/a2aClient/client.go's
// synchronous-POST-plus-hand-rolled-SSE-scanner shape.
package jsonrpc

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"

	"github.com/gate4ai/a2a/a2a"
	"go.uber.org/zap"
)

// Client speaks the JSON-RPC 2.0 wire transport against a single A2A
// endpoint URL.
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
	headers    map[string]string
	nextID     int64
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the default *http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithClientLogger attaches a logger. The zero value is a no-op logger.
func WithClientLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// WithHeader sets a header sent with every request, e.g. Authorization.
func WithHeader(key, value string) ClientOption {
	return func(c *Client) { c.headers[key] = value }
}

// NewClient builds a Client that POSTs JSON-RPC requests to endpoint.
func NewClient(endpoint string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint:   endpoint,
		httpClient: http.DefaultClient,
		logger:     zap.NewNop(),
		headers:    make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// nextRequestID assigns a monotonically increasing integer id per call.
func (c *Client) nextRequestID() a2a.RequestID {
	return a2a.NewIntRequestID(atomic.AddInt64(&c.nextID, 1))
}

func (c *Client) newHTTPRequest(ctx context.Context, reqID a2a.RequestID, method string, params interface{}, accept string) (*http.Request, error) {
	var paramsRaw json.RawMessage
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("marshal params for %s: %w", method, err)
		}
		paramsRaw = raw
	}
	body, err := json.Marshal(a2a.JSONRPCRequest{
		JSONRPC: a2a.JSONRPCVersion,
		ID:      reqID,
		Method:  method,
		Params:  paramsRaw,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request for %s: %w", method, err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", method, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", accept)
	for k, v := range c.headers {
		httpReq.Header.Set(k, v)
	}
	return httpReq, nil
}

// call performs a synchronous JSON-RPC round trip and unmarshals the
// result into target (nil if the caller does not need the result value).
func (c *Client) call(ctx context.Context, method string, params interface{}, target interface{}) error {
	reqID := c.nextRequestID()
	logger := c.logger.With(zap.String("method", method))

	httpReq, err := c.newHTTPRequest(ctx, reqID, method, params, "application/json")
	if err != nil {
		return err
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request for %s failed: %w", method, err)
	}
	defer httpResp.Body.Close()

	bodyBytes, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("read response body for %s: %w", method, err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		var rpcResp a2a.JSONRPCResponse
		if jsonErr := json.Unmarshal(bodyBytes, &rpcResp); jsonErr == nil && rpcResp.Error != nil {
			return rpcResp.Error
		}
		return fmt.Errorf("http error %d for %s: %s", httpResp.StatusCode, method, string(bodyBytes))
	}

	var rpcResp a2a.JSONRPCResponse
	if err := json.Unmarshal(bodyBytes, &rpcResp); err != nil {
		return fmt.Errorf("decode response for %s: %w", method, err)
	}

	if !rpcResp.ID.Equal(reqID) {
		logger.Warn("JSON-RPC response id mismatch",
			zap.Any("sent", reqID.Value()), zap.Any("received", rpcResp.ID.Value()))
	}

	if rpcResp.Error != nil {
		return rpcResp.Error
	}
	if target != nil && len(rpcResp.Result) > 0 {
		if err := json.Unmarshal(rpcResp.Result, target); err != nil {
			return fmt.Errorf("unmarshal result for %s: %w", method, err)
		}
	}
	return nil
}

// SendMessage performs message/send, returning either a *a2a.Message or a
// *a2a.Task depending on what the agent produced.
func (c *Client) SendMessage(ctx context.Context, params a2a.MessageSendParams) (a2a.SendMessageResult, error) {
	var raw json.RawMessage
	if err := c.call(ctx, MethodMessageSend, params, &raw); err != nil {
		return nil, err
	}
	return decodeSendMessageResult(raw)
}

// GetTask performs tasks/get.
func (c *Client) GetTask(ctx context.Context, params a2a.TaskQueryParams) (*a2a.Task, error) {
	var task a2a.Task
	if err := c.call(ctx, MethodTasksGet, params, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// CancelTask performs tasks/cancel.
func (c *Client) CancelTask(ctx context.Context, params a2a.TaskIDParams) (*a2a.Task, error) {
	var task a2a.Task
	if err := c.call(ctx, MethodTasksCancel, params, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// SetTaskPushNotificationConfig performs tasks/pushNotificationConfig/set.
func (c *Client) SetTaskPushNotificationConfig(ctx context.Context, params a2a.TaskPushNotificationConfig) (*a2a.TaskPushNotificationConfig, error) {
	var result a2a.TaskPushNotificationConfig
	if err := c.call(ctx, MethodPushConfigSet, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetTaskPushNotificationConfig performs tasks/pushNotificationConfig/get.
func (c *Client) GetTaskPushNotificationConfig(ctx context.Context, params a2a.GetTaskPushNotificationConfigParams) (*a2a.TaskPushNotificationConfig, error) {
	var result a2a.TaskPushNotificationConfig
	if err := c.call(ctx, MethodPushConfigGet, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListTaskPushNotificationConfig performs tasks/pushNotificationConfig/list.
func (c *Client) ListTaskPushNotificationConfig(ctx context.Context, params a2a.ListTaskPushNotificationConfigParams) ([]a2a.TaskPushNotificationConfig, error) {
	var result []a2a.TaskPushNotificationConfig
	if err := c.call(ctx, MethodPushConfigList, params, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteTaskPushNotificationConfig performs tasks/pushNotificationConfig/delete.
func (c *Client) DeleteTaskPushNotificationConfig(ctx context.Context, params a2a.DeleteTaskPushNotificationConfigParams) error {
	return c.call(ctx, MethodPushConfigDelete, params, nil)
}

// GetAuthenticatedExtendedAgentCard performs agent/getAuthenticatedExtendedCard.
func (c *Client) GetAuthenticatedExtendedAgentCard(ctx context.Context) (*a2a.AgentCard, error) {
	var card a2a.AgentCard
	if err := c.call(ctx, MethodGetAuthenticatedExtendedCard, nil, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// decodeSendMessageResult distinguishes a bare Message reply from a Task
// reply by probing the wire discriminator field both carry.
func decodeSendMessageResult(raw json.RawMessage) (a2a.SendMessageResult, error) {
	var probe struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("decode send-message result: %w", err)
	}
	switch probe.Kind {
	case "message":
		var msg a2a.Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, fmt.Errorf("decode message result: %w", err)
		}
		return &msg, nil
	case "task":
		var task a2a.Task
		if err := json.Unmarshal(raw, &task); err != nil {
			return nil, fmt.Errorf("decode task result: %w", err)
		}
		return &task, nil
	default:
		return nil, fmt.Errorf("decode send-message result: unrecognized kind %q", probe.Kind)
	}
}

// StreamEvent is one event yielded by SendMessageStream or Resubscribe,
// paired with a parse-time error so the consumer can distinguish a
// malformed frame from end-of-stream without the channel closing early.
type StreamEvent struct {
	Event a2a.Event
	Err   error
}

// SendMessageStream performs message/stream over SSE.
func (c *Client) SendMessageStream(ctx context.Context, params a2a.MessageSendParams) (<-chan StreamEvent, error) {
	return c.openStream(ctx, MethodMessageStream, params)
}

// Resubscribe performs tasks/resubscribe over SSE.
func (c *Client) Resubscribe(ctx context.Context, params a2a.TaskQueryParams) (<-chan StreamEvent, error) {
	return c.openStream(ctx, MethodTasksResubscribe, params)
}

func (c *Client) openStream(ctx context.Context, method string, params interface{}) (<-chan StreamEvent, error) {
	reqID := c.nextRequestID()
	httpReq, err := c.newHTTPRequest(ctx, reqID, method, params, "text/event-stream")
	if err != nil {
		return nil, err
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request for %s failed: %w", method, err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(httpResp.Body)
		httpResp.Body.Close()
		var rpcResp a2a.JSONRPCResponse
		if jsonErr := json.Unmarshal(bodyBytes, &rpcResp); jsonErr == nil && rpcResp.Error != nil {
			return nil, rpcResp.Error
		}
		return nil, fmt.Errorf("http error %d for %s: %s", httpResp.StatusCode, method, string(bodyBytes))
	}

	events := make(chan StreamEvent, 16)
	go c.scanSSE(ctx, httpResp, reqID, events)
	return events, nil
}

// scanSSE reads one SSE response body line by line, accumulating `data:`
// lines until a blank line dispatches the accumulated event. bufio's
// default token size comfortably spans a chunk boundary mid-line; lines
// are only ever split by the server at '\n', never by TCP framing, so no
// custom split function is needed.
func (c *Client) scanSSE(ctx context.Context, resp *http.Response, reqID a2a.RequestID, events chan<- StreamEvent) {
	logger := c.logger.With(zap.Any("requestID", reqID.Value()))
	defer close(events)
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var data bytes.Buffer
	send := func(se StreamEvent) bool {
		select {
		case events <- se:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			if data.Len() == 0 {
				continue
			}
			raw := append([]byte(nil), data.Bytes()...)
			data.Reset()

			var rpcResp a2a.JSONRPCResponse
			if err := json.Unmarshal(raw, &rpcResp); err != nil {
				if !send(StreamEvent{Err: fmt.Errorf("parse SSE frame: %w", err)}) {
					return
				}
				continue
			}
			if !rpcResp.ID.Equal(reqID) {
				logger.Warn("SSE frame id mismatch",
					zap.Any("sent", reqID.Value()), zap.Any("received", rpcResp.ID.Value()))
			}
			if rpcResp.Error != nil {
				if !send(StreamEvent{Err: rpcResp.Error}) {
					return
				}
				continue
			}
			event, err := decodeStreamEvent(rpcResp.Result)
			if err != nil {
				if !send(StreamEvent{Err: err}) {
					return
				}
				continue
			}
			if !send(StreamEvent{Event: event}) {
				return
			}
			continue
		}

		if len(line) >= len("data:") && line[:5] == "data:" {
			field := line[5:]
			if len(field) > 0 && field[0] == ' ' {
				field = field[1:]
			}
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(field)
		}
		// event:, id: and retry: fields carry no information this
		// transport's framing depends on (the JSON-RPC envelope
		// already carries the request id); ignored like the teacher's
		// own SSE consumer ignores them.
	}

	if err := scanner.Err(); err != nil {
		send(StreamEvent{Err: fmt.Errorf("SSE stream read error: %w", err)})
	}
}

// decodeStreamEvent distinguishes the four a2a.Event variants by their
// wire discriminator field.
func decodeStreamEvent(raw json.RawMessage) (a2a.Event, error) {
	var probe struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("decode stream event: %w", err)
	}
	switch probe.Kind {
	case "message":
		var msg a2a.Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		return &msg, nil
	case "task":
		var task a2a.Task
		if err := json.Unmarshal(raw, &task); err != nil {
			return nil, err
		}
		return &task, nil
	case "status-update":
		var ev a2a.TaskStatusUpdateEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, err
		}
		return &ev, nil
	case "artifact-update":
		var ev a2a.TaskArtifactUpdateEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, err
		}
		return &ev, nil
	default:
		return nil, fmt.Errorf("decode stream event: unrecognized kind %q", probe.Kind)
	}
}
