package rest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gate4ai/a2a/a2a"
	"go.uber.org/zap"
)

// Client speaks the HTTP+REST wire transport against a single A2A
// server's base URL (the part before /v1/...).
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
	headers    map[string]string
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

// NewClient builds a Client against baseURL, e.g. "https://agent.example".
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
		logger:     zap.NewNop(),
		headers:    make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) newRequest(ctx context.Context, method, path string, body interface{}) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request for %s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

// do performs the request, decoding either the success body into target
// (if non-nil) or the JSON-RPC error body into a typed error.
func (c *Client) do(req *http.Request, wantStatus int, target interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s failed: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != wantStatus {
		var rpcErr a2a.JSONRPCError
		if jsonErr := json.Unmarshal(body, &rpcErr); jsonErr == nil && rpcErr.Code != 0 {
			return &rpcErr
		}
		return fmt.Errorf("http status %d for %s %s: %s", resp.StatusCode, req.Method, req.URL.Path, string(body))
	}
	if target != nil && len(body) > 0 {
		if err := json.Unmarshal(body, target); err != nil {
			return fmt.Errorf("decode response for %s %s: %w", req.Method, req.URL.Path, err)
		}
	}
	return nil
}

// GetAuthenticatedExtendedAgentCard performs GET /v1/card.
func (c *Client) GetAuthenticatedExtendedAgentCard(ctx context.Context) (*a2a.AgentCard, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/v1/card", nil)
	if err != nil {
		return nil, err
	}
	var card a2a.AgentCard
	if err := c.do(req, http.StatusOK, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// SendMessage performs POST /v1/message:send.
func (c *Client) SendMessage(ctx context.Context, params a2a.MessageSendParams) (a2a.SendMessageResult, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/v1/message:send", params)
	if err != nil {
		return nil, err
	}
	var raw json.RawMessage
	if err := c.do(req, http.StatusCreated, &raw); err != nil {
		return nil, err
	}
	return decodeSendMessageResult(raw)
}

// GetTask performs GET /v1/tasks/{taskId}.
func (c *Client) GetTask(ctx context.Context, params a2a.TaskQueryParams) (*a2a.Task, error) {
	path := "/v1/tasks/" + url.PathEscape(params.ID)
	if params.HistoryLength != nil {
		path += "?historyLength=" + strconv.Itoa(*params.HistoryLength)
	}
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var task a2a.Task
	if err := c.do(req, http.StatusOK, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// CancelTask performs POST /v1/tasks/{taskId}:cancel.
func (c *Client) CancelTask(ctx context.Context, params a2a.TaskIDParams) (*a2a.Task, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/v1/tasks/"+url.PathEscape(params.ID)+":cancel", nil)
	if err != nil {
		return nil, err
	}
	var task a2a.Task
	if err := c.do(req, http.StatusAccepted, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// SetTaskPushNotificationConfig performs POST
// /v1/tasks/{taskId}/pushNotificationConfigs.
func (c *Client) SetTaskPushNotificationConfig(ctx context.Context, taskID string, config a2a.PushNotificationConfig) (*a2a.TaskPushNotificationConfig, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/v1/tasks/"+url.PathEscape(taskID)+"/pushNotificationConfigs", config)
	if err != nil {
		return nil, err
	}
	var result a2a.TaskPushNotificationConfig
	if err := c.do(req, http.StatusCreated, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetTaskPushNotificationConfig performs GET
// /v1/tasks/{taskId}/pushNotificationConfigs/{configId}.
func (c *Client) GetTaskPushNotificationConfig(ctx context.Context, taskID, configID string) (*a2a.TaskPushNotificationConfig, error) {
	path := "/v1/tasks/" + url.PathEscape(taskID) + "/pushNotificationConfigs/" + url.PathEscape(configID)
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var result a2a.TaskPushNotificationConfig
	if err := c.do(req, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListTaskPushNotificationConfig performs GET
// /v1/tasks/{taskId}/pushNotificationConfigs.
func (c *Client) ListTaskPushNotificationConfig(ctx context.Context, taskID string) ([]a2a.TaskPushNotificationConfig, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/v1/tasks/"+url.PathEscape(taskID)+"/pushNotificationConfigs", nil)
	if err != nil {
		return nil, err
	}
	var result []a2a.TaskPushNotificationConfig
	if err := c.do(req, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteTaskPushNotificationConfig performs DELETE
// /v1/tasks/{taskId}/pushNotificationConfigs/{configId}.
func (c *Client) DeleteTaskPushNotificationConfig(ctx context.Context, taskID, configID string) error {
	path := "/v1/tasks/" + url.PathEscape(taskID) + "/pushNotificationConfigs/" + url.PathEscape(configID)
	req, err := c.newRequest(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	return c.do(req, http.StatusNoContent, nil)
}

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
			return nil, err
		}
		return &msg, nil
	case "task":
		var task a2a.Task
		if err := json.Unmarshal(raw, &task); err != nil {
			return nil, err
		}
		return &task, nil
	default:
		return nil, fmt.Errorf("decode send-message result: unrecognized kind %q", probe.Kind)
	}
}

// StreamEvent is one event yielded by SendMessageStream or Subscribe.
type StreamEvent struct {
	Event a2a.Event
	Err   error
}

// SendMessageStream performs POST /v1/message:stream over SSE.
func (c *Client) SendMessageStream(ctx context.Context, params a2a.MessageSendParams) (<-chan StreamEvent, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/v1/message:stream", params)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	return c.openStream(req)
}

// Subscribe performs POST /v1/tasks/{taskId}:subscribe over SSE.
func (c *Client) Subscribe(ctx context.Context, taskID string) (<-chan StreamEvent, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/v1/tasks/"+url.PathEscape(taskID)+":subscribe", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	return c.openStream(req)
}

func (c *Client) openStream(req *http.Request) (<-chan StreamEvent, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s %s failed: %w", req.Method, req.URL.Path, err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		var rpcErr a2a.JSONRPCError
		if jsonErr := json.Unmarshal(body, &rpcErr); jsonErr == nil && rpcErr.Code != 0 {
			return nil, &rpcErr
		}
		return nil, fmt.Errorf("http status %d for %s %s: %s", resp.StatusCode, req.Method, req.URL.Path, string(body))
	}

	events := make(chan StreamEvent, 16)
	go c.scanSSE(req.Context(), resp, events)
	return events, nil
}

// scanSSE reads bare (unwrapped) SSE events, unlike the JSON-RPC
// transport's request-id-wrapped frames.
func (c *Client) scanSSE(ctx context.Context, resp *http.Response, events chan<- StreamEvent) {
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

			event, err := decodeStreamEvent(raw)
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
	}

	if err := scanner.Err(); err != nil {
		send(StreamEvent{Err: fmt.Errorf("SSE stream read error: %w", err)})
	}
}

func decodeStreamEvent(raw json.RawMessage) (a2a.Event, error) {
	var probe struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		// A `data:` frame starting with `{"code":` is a trailing
		// error event rather than a parsed a2a.Event.
		var rpcErr a2a.JSONRPCError
		if jsonErr := json.Unmarshal(raw, &rpcErr); jsonErr == nil && rpcErr.Code != 0 {
			return nil, &rpcErr
		}
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
		var rpcErr a2a.JSONRPCError
		if jsonErr := json.Unmarshal(raw, &rpcErr); jsonErr == nil && rpcErr.Code != 0 {
			return nil, &rpcErr
		}
		return nil, fmt.Errorf("decode stream event: unrecognized kind %q", probe.Kind)
	}
}
