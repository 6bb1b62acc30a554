package jsonrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gate4ai/a2a/a2a"
	"github.com/gate4ai/a2a/server"
	"github.com/gate4ai/a2a/server/eventbus"
	"github.com/gate4ai/a2a/server/taskstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExecutor struct {
	execute func(ctx context.Context, reqCtx *server.RequestContext, bus eventbus.Bus) error
	cancel  func(ctx context.Context, taskID string, bus eventbus.Bus) error
}

func (f *fakeExecutor) Execute(ctx context.Context, reqCtx *server.RequestContext, bus eventbus.Bus) error {
	return f.execute(ctx, reqCtx, bus)
}

func (f *fakeExecutor) CancelTask(ctx context.Context, taskID string, bus eventbus.Bus) error {
	if f.cancel != nil {
		return f.cancel(ctx, taskID, bus)
	}
	bus.Finished()
	return nil
}

func streamingCard() a2a.AgentCard {
	return a2a.AgentCard{
		Name:         "test-agent",
		URL:          "https://example.com",
		Version:      "1.0.0",
		Capabilities: a2a.AgentCapabilities{Streaming: true, PushNotifications: true},
	}
}

func newTestServer(t *testing.T, executor *fakeExecutor) *httptest.Server {
	t.Helper()
	rh := server.NewDefaultRequestHandler(streamingCard(), executor, taskstore.NewInMemory())
	return httptest.NewServer(NewHandler(rh))
}

func TestMessageSendBareMessageRoundTrip(t *testing.T) {
	executor := &fakeExecutor{
		execute: func(ctx context.Context, reqCtx *server.RequestContext, bus eventbus.Bus) error {
			bus.Publish(&a2a.Message{MessageID: "reply1", Role: a2a.RoleAgent, Kind: "message", Parts: []a2a.Part{a2a.NewTextPart("hi")}})
			bus.Finished()
			return nil
		},
	}
	srv := newTestServer(t, executor)
	defer srv.Close()

	client := NewClient(srv.URL)
	result, err := client.SendMessage(context.Background(), a2a.MessageSendParams{
		Message: a2a.Message{MessageID: "m1", Role: a2a.RoleUser, Kind: "message", Parts: []a2a.Part{a2a.NewTextPart("hello")}},
	})
	require.NoError(t, err)
	msg, ok := result.(*a2a.Message)
	require.True(t, ok)
	assert.Equal(t, "reply1", msg.MessageID)
}

func TestGetTaskRoundTrip(t *testing.T) {
	executor := &fakeExecutor{
		execute: func(ctx context.Context, reqCtx *server.RequestContext, bus eventbus.Bus) error {
			bus.Publish(&a2a.TaskStatusUpdateEvent{
				TaskID: reqCtx.TaskID, ContextID: reqCtx.ContextID,
				Status: a2a.TaskStatus{State: a2a.TaskStateCompleted}, Final: true, Kind: "status-update",
			})
			bus.Finished()
			return nil
		},
	}
	srv := newTestServer(t, executor)
	defer srv.Close()

	client := NewClient(srv.URL)
	sent, err := client.SendMessage(context.Background(), a2a.MessageSendParams{
		Message: a2a.Message{MessageID: "m1", Role: a2a.RoleUser, Kind: "message", Parts: []a2a.Part{a2a.NewTextPart("hello")}},
	})
	require.NoError(t, err)
	task := sent.(*a2a.Task)

	fetched, err := client.GetTask(context.Background(), a2a.TaskQueryParams{ID: task.ID})
	require.NoError(t, err)
	assert.Equal(t, task.ID, fetched.ID)
}

func TestCancelTaskReturnsErrorWhenAlreadyTerminal(t *testing.T) {
	executor := &fakeExecutor{
		execute: func(ctx context.Context, reqCtx *server.RequestContext, bus eventbus.Bus) error {
			bus.Publish(&a2a.TaskStatusUpdateEvent{
				TaskID: reqCtx.TaskID, ContextID: reqCtx.ContextID,
				Status: a2a.TaskStatus{State: a2a.TaskStateCompleted}, Final: true, Kind: "status-update",
			})
			bus.Finished()
			return nil
		},
	}
	srv := newTestServer(t, executor)
	defer srv.Close()

	client := NewClient(srv.URL)
	sent, err := client.SendMessage(context.Background(), a2a.MessageSendParams{
		Message: a2a.Message{MessageID: "m1", Role: a2a.RoleUser, Kind: "message", Parts: []a2a.Part{a2a.NewTextPart("hello")}},
	})
	require.NoError(t, err)
	task := sent.(*a2a.Task)

	_, err = client.CancelTask(context.Background(), a2a.TaskIDParams{ID: task.ID})
	require.Error(t, err)
	var rpcErr *a2a.JSONRPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, a2a.ErrorCodeTaskNotCancelable, rpcErr.Code)
}

func TestPushNotificationConfigCRUDRoundTrip(t *testing.T) {
	executor := &fakeExecutor{
		execute: func(ctx context.Context, reqCtx *server.RequestContext, bus eventbus.Bus) error {
			bus.Publish(&a2a.TaskStatusUpdateEvent{
				TaskID: reqCtx.TaskID, ContextID: reqCtx.ContextID,
				Status: a2a.TaskStatus{State: a2a.TaskStateWorking}, Kind: "status-update",
			})
			bus.Finished()
			return nil
		},
	}
	srv := newTestServer(t, executor)
	defer srv.Close()

	client := NewClient(srv.URL)
	sent, err := client.SendMessage(context.Background(), a2a.MessageSendParams{
		Message: a2a.Message{MessageID: "m1", Role: a2a.RoleUser, Kind: "message", Parts: []a2a.Part{a2a.NewTextPart("hello")}},
	})
	require.NoError(t, err)
	task := sent.(*a2a.Task)

	created, err := client.SetTaskPushNotificationConfig(context.Background(), a2a.TaskPushNotificationConfig{
		TaskID: task.ID,
		Config: a2a.PushNotificationConfig{URL: "https://hook.example/cb"},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://hook.example/cb", created.Config.URL)

	fetched, err := client.GetTaskPushNotificationConfig(context.Background(), a2a.GetTaskPushNotificationConfigParams{ID: task.ID, ConfigID: created.Config.ID})
	require.NoError(t, err)
	assert.Equal(t, created.Config.ID, fetched.Config.ID)

	list, err := client.ListTaskPushNotificationConfig(context.Background(), a2a.ListTaskPushNotificationConfigParams{ID: task.ID})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, client.DeleteTaskPushNotificationConfig(context.Background(), a2a.DeleteTaskPushNotificationConfigParams{ID: task.ID, ConfigID: created.Config.ID}))

	_, err = client.GetTaskPushNotificationConfig(context.Background(), a2a.GetTaskPushNotificationConfigParams{ID: task.ID, ConfigID: created.Config.ID})
	require.Error(t, err)
}

func TestMessageStreamDeliversEventsOverSSE(t *testing.T) {
	executor := &fakeExecutor{
		execute: func(ctx context.Context, reqCtx *server.RequestContext, bus eventbus.Bus) error {
			bus.Publish(&a2a.TaskStatusUpdateEvent{
				TaskID: reqCtx.TaskID, ContextID: reqCtx.ContextID,
				Status: a2a.TaskStatus{State: a2a.TaskStateWorking}, Kind: "status-update",
			})
			bus.Publish(&a2a.TaskStatusUpdateEvent{
				TaskID: reqCtx.TaskID, ContextID: reqCtx.ContextID,
				Status: a2a.TaskStatus{State: a2a.TaskStateCompleted}, Final: true, Kind: "status-update",
			})
			bus.Finished()
			return nil
		},
	}
	srv := newTestServer(t, executor)
	defer srv.Close()

	client := NewClient(srv.URL)
	events, err := client.SendMessageStream(context.Background(), a2a.MessageSendParams{
		Message: a2a.Message{MessageID: "m1", Role: a2a.RoleUser, Kind: "message", Parts: []a2a.Part{a2a.NewTextPart("hello")}},
	})
	require.NoError(t, err)

	var received []StreamEvent
	for ev := range events {
		received = append(received, ev)
	}
	require.Len(t, received, 2)
	require.NoError(t, received[0].Err)
	first := received[0].Event.(*a2a.TaskStatusUpdateEvent)
	assert.Equal(t, a2a.TaskStateWorking, first.Status.State)
	second := received[1].Event.(*a2a.TaskStatusUpdateEvent)
	assert.True(t, second.Final)
}

func TestMethodNotFoundReturnsJSONRPCError(t *testing.T) {
	srv := newTestServer(t, &fakeExecutor{})
	defer srv.Close()

	resp := postRaw(t, srv.URL, `{"jsonrpc":"2.0","id":1,"method":"bogus/method"}`)
	defer resp.Body.Close()
	var decoded a2a.JSONRPCResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	require.NotNil(t, decoded.Error)
	assert.Equal(t, a2a.ErrorCodeMethodNotFound, decoded.Error.Code)
}

func TestParamsNullIsRejectedAsInvalidParams(t *testing.T) {
	srv := newTestServer(t, &fakeExecutor{})
	defer srv.Close()

	resp := postRaw(t, srv.URL, `{"jsonrpc":"2.0","id":1,"method":"tasks/get","params":null}`)
	defer resp.Body.Close()
	var decoded a2a.JSONRPCResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	require.NotNil(t, decoded.Error)
	assert.Equal(t, a2a.ErrorCodeInvalidParams, decoded.Error.Code)
}

func TestParamsWithEmptyKeyIsRejectedAsInvalidParams(t *testing.T) {
	srv := newTestServer(t, &fakeExecutor{})
	defer srv.Close()

	resp := postRaw(t, srv.URL, `{"jsonrpc":"2.0","id":1,"method":"tasks/get","params":{"":"x"}}`)
	defer resp.Body.Close()
	var decoded a2a.JSONRPCResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	require.NotNil(t, decoded.Error)
	assert.Equal(t, a2a.ErrorCodeInvalidParams, decoded.Error.Code)
}

func postRaw(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	return resp
}
