package server

import (
	"context"
	"testing"
	"time"

	"github.com/gate4ai/a2a/a2a"
	"github.com/gate4ai/a2a/server/eventbus"
	"github.com/gate4ai/a2a/server/pushstore"
	"github.com/gate4ai/a2a/server/taskstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExecutor struct {
	execute func(ctx context.Context, reqCtx *RequestContext, bus eventbus.Bus) error
	cancel  func(ctx context.Context, taskID string, bus eventbus.Bus) error
}

func (f *fakeExecutor) Execute(ctx context.Context, reqCtx *RequestContext, bus eventbus.Bus) error {
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

func TestSendMessageBlockingBareMessageReply(t *testing.T) {
	executor := &fakeExecutor{
		execute: func(ctx context.Context, reqCtx *RequestContext, bus eventbus.Bus) error {
			bus.Publish(&a2a.Message{MessageID: "reply1", Role: a2a.RoleAgent, Parts: []a2a.Part{a2a.NewTextPart("hi")}})
			bus.Finished()
			return nil
		},
	}
	h := NewDefaultRequestHandler(streamingCard(), executor, taskstore.NewInMemory())
	call := a2a.NewServerCallContext(nil, nil)

	result, err := h.SendMessage(context.Background(), call, a2a.MessageSendParams{
		Message: a2a.Message{MessageID: "m1", Role: a2a.RoleUser, Parts: []a2a.Part{a2a.NewTextPart("hello")}},
	})
	require.NoError(t, err)
	msg, ok := result.(*a2a.Message)
	require.True(t, ok)
	assert.Equal(t, "reply1", msg.MessageID)
}

func TestSendMessageBlockingTaskCompletes(t *testing.T) {
	executor := &fakeExecutor{
		execute: func(ctx context.Context, reqCtx *RequestContext, bus eventbus.Bus) error {
			bus.Publish(&a2a.Task{ID: reqCtx.TaskID, ContextID: reqCtx.ContextID, Status: a2a.TaskStatus{State: a2a.TaskStateSubmitted}, Kind: "task"})
			bus.Publish(&a2a.TaskStatusUpdateEvent{
				TaskID: reqCtx.TaskID, ContextID: reqCtx.ContextID,
				Status: a2a.TaskStatus{State: a2a.TaskStateCompleted},
				Final:  true,
			})
			bus.Finished()
			return nil
		},
	}
	h := NewDefaultRequestHandler(streamingCard(), executor, taskstore.NewInMemory())
	call := a2a.NewServerCallContext(nil, nil)

	result, err := h.SendMessage(context.Background(), call, a2a.MessageSendParams{
		Message: a2a.Message{MessageID: "m1", Role: a2a.RoleUser, Parts: []a2a.Part{a2a.NewTextPart("hello")}},
	})
	require.NoError(t, err)
	task, ok := result.(*a2a.Task)
	require.True(t, ok)
	assert.Equal(t, a2a.TaskStateCompleted, task.Status.State)
}

func TestSendMessageNonBlockingReturnsFirstResultWhileExecutionContinues(t *testing.T) {
	proceed := make(chan struct{})
	executor := &fakeExecutor{
		execute: func(ctx context.Context, reqCtx *RequestContext, bus eventbus.Bus) error {
			bus.Publish(&a2a.Task{ID: reqCtx.TaskID, ContextID: reqCtx.ContextID, Status: a2a.TaskStatus{State: a2a.TaskStateSubmitted}, Kind: "task"})
			go func() {
				<-proceed
				bus.Publish(&a2a.TaskStatusUpdateEvent{
					TaskID: reqCtx.TaskID, ContextID: reqCtx.ContextID,
					Status: a2a.TaskStatus{State: a2a.TaskStateCompleted},
					Final:  true,
				})
				bus.Finished()
			}()
			return nil
		},
	}
	store := taskstore.NewInMemory()
	h := NewDefaultRequestHandler(streamingCard(), executor, store)
	call := a2a.NewServerCallContext(nil, nil)

	blocking := false
	result, err := h.SendMessage(context.Background(), call, a2a.MessageSendParams{
		Message:       a2a.Message{MessageID: "m1", Role: a2a.RoleUser, Parts: []a2a.Part{a2a.NewTextPart("hello")}},
		Configuration: &a2a.MessageSendConfiguration{Blocking: &blocking},
	})
	require.NoError(t, err)
	task, ok := result.(*a2a.Task)
	require.True(t, ok)
	assert.Equal(t, a2a.TaskStateSubmitted, task.Status.State)

	close(proceed)
	require.Eventually(t, func() bool {
		loaded, err := store.Load(context.Background(), task.ID)
		return err == nil && loaded.Status.State == a2a.TaskStateCompleted
	}, time.Second, 10*time.Millisecond)
}

func TestSendMessageExecutorFailureSynthesizesFailedTask(t *testing.T) {
	executor := &fakeExecutor{
		execute: func(ctx context.Context, reqCtx *RequestContext, bus eventbus.Bus) error {
			return assertError("boom")
		},
	}
	h := NewDefaultRequestHandler(streamingCard(), executor, taskstore.NewInMemory())
	call := a2a.NewServerCallContext(nil, nil)

	result, err := h.SendMessage(context.Background(), call, a2a.MessageSendParams{
		Message: a2a.Message{MessageID: "m1", Role: a2a.RoleUser, Parts: []a2a.Part{a2a.NewTextPart("hello")}},
	})
	require.NoError(t, err)
	task, ok := result.(*a2a.Task)
	require.True(t, ok)
	assert.Equal(t, a2a.TaskStateFailed, task.Status.State)
}

type assertError string

func (e assertError) Error() string { return string(e) }

func TestGetTaskAppliesHistoryLength(t *testing.T) {
	store := taskstore.NewInMemory()
	require.NoError(t, store.Save(context.Background(), &a2a.Task{
		ID: "t1", Status: a2a.TaskStatus{State: a2a.TaskStateCompleted},
		History: []a2a.Message{{MessageID: "m1"}, {MessageID: "m2"}},
	}))
	h := NewDefaultRequestHandler(streamingCard(), &fakeExecutor{}, store)

	n := 1
	task, err := h.GetTask(context.Background(), a2a.TaskQueryParams{ID: "t1", HistoryLength: &n})
	require.NoError(t, err)
	require.Len(t, task.History, 1)
	assert.Equal(t, "m2", task.History[0].MessageID)
}

func TestCancelTaskWithoutLiveBusPersistsCanceled(t *testing.T) {
	store := taskstore.NewInMemory()
	require.NoError(t, store.Save(context.Background(), &a2a.Task{ID: "t1", Status: a2a.TaskStatus{State: a2a.TaskStateWorking}}))
	h := NewDefaultRequestHandler(streamingCard(), &fakeExecutor{}, store)

	task, err := h.CancelTask(context.Background(), a2a.TaskIDParams{ID: "t1"})
	require.NoError(t, err)
	assert.Equal(t, a2a.TaskStateCanceled, task.Status.State)
}

func TestCancelTaskAlreadyTerminalFails(t *testing.T) {
	store := taskstore.NewInMemory()
	require.NoError(t, store.Save(context.Background(), &a2a.Task{ID: "t1", Status: a2a.TaskStatus{State: a2a.TaskStateCompleted}}))
	h := NewDefaultRequestHandler(streamingCard(), &fakeExecutor{}, store)

	_, err := h.CancelTask(context.Background(), a2a.TaskIDParams{ID: "t1"})
	require.Error(t, err)
	jerr, ok := err.(*a2a.JSONRPCError)
	require.True(t, ok)
	assert.Equal(t, a2a.ErrorCodeTaskNotCancelable, jerr.Code)
}

func TestCancelTaskWithLiveBusDrainsExecutorCancellation(t *testing.T) {
	started := make(chan eventbus.Bus, 1)
	executor := &fakeExecutor{
		execute: func(ctx context.Context, reqCtx *RequestContext, bus eventbus.Bus) error {
			bus.Publish(&a2a.Task{ID: reqCtx.TaskID, ContextID: reqCtx.ContextID, Status: a2a.TaskStatus{State: a2a.TaskStateWorking}, Kind: "task"})
			started <- bus
			<-ctx.Done()
			return nil
		},
		cancel: func(ctx context.Context, taskID string, bus eventbus.Bus) error {
			bus.Publish(&a2a.TaskStatusUpdateEvent{
				TaskID: taskID,
				Status: a2a.TaskStatus{State: a2a.TaskStateCanceled},
				Final:  true,
			})
			bus.Finished()
			return nil
		},
	}
	store := taskstore.NewInMemory()
	h := NewDefaultRequestHandler(streamingCard(), executor, store)
	call := a2a.NewServerCallContext(nil, nil)

	blocking := false
	result, err := h.SendMessage(context.Background(), call, a2a.MessageSendParams{
		Message:       a2a.Message{MessageID: "m1", Role: a2a.RoleUser, Parts: []a2a.Part{a2a.NewTextPart("hello")}},
		Configuration: &a2a.MessageSendConfiguration{Blocking: &blocking},
	})
	require.NoError(t, err)
	task := result.(*a2a.Task)
	<-started

	canceled, err := h.CancelTask(context.Background(), a2a.TaskIDParams{ID: task.ID})
	require.NoError(t, err)
	assert.Equal(t, a2a.TaskStateCanceled, canceled.Status.State)
}

func TestResubscribeToTerminalTaskYieldsOnlyOnce(t *testing.T) {
	store := taskstore.NewInMemory()
	require.NoError(t, store.Save(context.Background(), &a2a.Task{ID: "t1", Status: a2a.TaskStatus{State: a2a.TaskStateCompleted}}))
	h := NewDefaultRequestHandler(streamingCard(), &fakeExecutor{}, store)

	var received int
	err := h.Resubscribe(context.Background(), a2a.TaskQueryParams{ID: "t1"}, func(e a2a.Event) error {
		received++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, received)
}

func TestPushNotificationConfigCRUDRoundTrip(t *testing.T) {
	store := taskstore.NewInMemory()
	require.NoError(t, store.Save(context.Background(), &a2a.Task{ID: "t1", Status: a2a.TaskStatus{State: a2a.TaskStateWorking}}))
	h := NewDefaultRequestHandler(streamingCard(), &fakeExecutor{}, store, WithPushNotifications(pushstore.NewInMemory(), nil))

	_, err := h.SetTaskPushNotificationConfig(context.Background(), "t1", a2a.PushNotificationConfig{URL: "https://example.com/hook"})
	require.NoError(t, err)

	got, err := h.GetTaskPushNotificationConfig(context.Background(), a2a.GetTaskPushNotificationConfigParams{ID: "t1"})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/hook", got.Config.URL)

	list, err := h.ListTaskPushNotificationConfig(context.Background(), a2a.ListTaskPushNotificationConfigParams{ID: "t1"})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, h.DeleteTaskPushNotificationConfig(context.Background(), a2a.DeleteTaskPushNotificationConfigParams{ID: "t1", ConfigID: "t1"}))
	_, err = h.GetTaskPushNotificationConfig(context.Background(), a2a.GetTaskPushNotificationConfigParams{ID: "t1"})
	require.Error(t, err)
}

func TestPushNotificationConfigWithoutCapabilityFails(t *testing.T) {
	store := taskstore.NewInMemory()
	require.NoError(t, store.Save(context.Background(), &a2a.Task{ID: "t1"}))
	card := streamingCard()
	card.Capabilities.PushNotifications = false
	h := NewDefaultRequestHandler(card, &fakeExecutor{}, store)

	_, err := h.SetTaskPushNotificationConfig(context.Background(), "t1", a2a.PushNotificationConfig{URL: "https://example.com"})
	require.Error(t, err)
	jerr, ok := err.(*a2a.JSONRPCError)
	require.True(t, ok)
	assert.Equal(t, a2a.ErrorCodePushNotificationNotSupported, jerr.Code)
}

func TestGetAuthenticatedExtendedAgentCardRequiresSupportFlag(t *testing.T) {
	h := NewDefaultRequestHandler(streamingCard(), &fakeExecutor{}, taskstore.NewInMemory())
	_, err := h.GetAuthenticatedExtendedAgentCard(context.Background(), a2a.NewServerCallContext(nil, nil))
	require.Error(t, err)
	jerr, ok := err.(*a2a.JSONRPCError)
	require.True(t, ok)
	assert.Equal(t, a2a.ErrorCodeUnsupportedOperation, jerr.Code)
}

func TestGetAuthenticatedExtendedAgentCardStaticRequiresAuthentication(t *testing.T) {
	card := streamingCard()
	card.SupportsAuthenticatedExtendedCard = true
	extended := streamingCard()
	extended.Name = "extended"
	h := NewDefaultRequestHandler(card, &fakeExecutor{}, taskstore.NewInMemory(), WithStaticExtendedAgentCard(extended))

	got, err := h.GetAuthenticatedExtendedAgentCard(context.Background(), a2a.NewServerCallContext(nil, nil))
	require.NoError(t, err)
	assert.Equal(t, card.Name, got.Name)

	got, err = h.GetAuthenticatedExtendedAgentCard(context.Background(), a2a.NewServerCallContext(authenticatedUser{}, nil))
	require.NoError(t, err)
	assert.Equal(t, "extended", got.Name)
}

type authenticatedUser struct{}

func (authenticatedUser) IsAuthenticated() bool { return true }
func (authenticatedUser) UserName() string      { return "alice" }
