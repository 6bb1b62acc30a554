package scenario

import (
	"context"
	"testing"
	"time"

	"github.com/gate4ai/a2a/a2a"
	"github.com/gate4ai/a2a/server"
	"github.com/gate4ai/a2a/server/eventbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReqCtx(taskID, text string) *server.RequestContext {
	return &server.RequestContext{
		TaskID:    taskID,
		ContextID: "ctx-" + taskID,
		Message: a2a.Message{
			MessageID: "m-" + taskID,
			Role:      a2a.RoleUser,
			Parts:     []a2a.Part{a2a.NewTextPart(text)},
			Kind:      "message",
		},
	}
}

func drain(t *testing.T, q eventbus.Queue) []a2a.Event {
	t.Helper()
	var events []a2a.Event
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for {
		event, ok, err := q.Next(ctx)
		require.NoError(t, err)
		if !ok {
			return events
		}
		events = append(events, event)
	}
}

func TestExecuteRespondTextPublishesFullLifecycle(t *testing.T) {
	exec := New(nil)
	bus := eventbus.New()
	queue := bus.Attach()

	reqCtx := newReqCtx("t1", "respond text hello")
	err := exec.Execute(context.Background(), reqCtx, bus)
	require.NoError(t, err)

	events := drain(t, queue)
	require.Len(t, events, 4)

	task, ok := events[0].(*a2a.Task)
	require.True(t, ok)
	assert.Equal(t, a2a.TaskStateSubmitted, task.Status.State)

	working, ok := events[1].(*a2a.TaskStatusUpdateEvent)
	require.True(t, ok)
	assert.Equal(t, a2a.TaskStateWorking, working.Status.State)

	artifactEvent, ok := events[2].(*a2a.TaskArtifactUpdateEvent)
	require.True(t, ok)
	require.Len(t, artifactEvent.Artifact.Parts, 1)
	assert.Equal(t, "hello", *artifactEvent.Artifact.Parts[0].Text)

	completed, ok := events[3].(*a2a.TaskStatusUpdateEvent)
	require.True(t, ok)
	assert.Equal(t, a2a.TaskStateCompleted, completed.Status.State)
	assert.True(t, completed.Final)
	assert.True(t, bus.IsFinished())
}

func TestExecuteRespondDataPublishesDataArtifact(t *testing.T) {
	exec := New(nil)
	bus := eventbus.New()
	queue := bus.Attach()

	reqCtx := newReqCtx("t2", `respond with data {"x": 1}`)
	require.NoError(t, exec.Execute(context.Background(), reqCtx, bus))

	events := drain(t, queue)
	require.Len(t, events, 4)
	artifactEvent, ok := events[2].(*a2a.TaskArtifactUpdateEvent)
	require.True(t, ok)
	require.Len(t, artifactEvent.Artifact.Parts, 1)
	assert.Equal(t, a2a.PartKindData, artifactEvent.Artifact.Parts[0].Kind)
	assert.Equal(t, float64(1), artifactEvent.Artifact.Parts[0].Data["x"])
}

func TestExecuteRespondDataInvalidJSONPublishesFailed(t *testing.T) {
	exec := New(nil)
	bus := eventbus.New()
	queue := bus.Attach()

	reqCtx := newReqCtx("t3", "respond data not-json")
	err := exec.Execute(context.Background(), reqCtx, bus)
	require.Error(t, err)

	events := drain(t, queue)
	require.Len(t, events, 3)
	failed, ok := events[2].(*a2a.TaskStatusUpdateEvent)
	require.True(t, ok)
	assert.Equal(t, a2a.TaskStateFailed, failed.Status.State)
	assert.True(t, failed.Final)
}

func TestExecuteStreamPublishesChunkedArtifactEvents(t *testing.T) {
	exec := New(nil)
	bus := eventbus.New()
	queue := bus.Attach()

	reqCtx := newReqCtx("t4", "stream 3 chunks")
	require.NoError(t, exec.Execute(context.Background(), reqCtx, bus))

	events := drain(t, queue)
	require.Len(t, events, 6) // task + working + 3 chunks + completed

	first, ok := events[2].(*a2a.TaskArtifactUpdateEvent)
	require.True(t, ok)
	assert.False(t, first.Append)
	assert.False(t, first.LastChunk)

	last, ok := events[4].(*a2a.TaskArtifactUpdateEvent)
	require.True(t, ok)
	assert.True(t, last.Append)
	assert.True(t, last.LastChunk)
	assert.Equal(t, first.Artifact.ArtifactID, last.Artifact.ArtifactID)
}

func TestExecuteAskPublishesInputRequiredAndStops(t *testing.T) {
	exec := New(nil)
	bus := eventbus.New()
	queue := bus.Attach()

	reqCtx := newReqCtx("t5", "respond text hi; ask for input continue?; respond text never")
	require.NoError(t, exec.Execute(context.Background(), reqCtx, bus))

	events := drain(t, queue)
	require.Len(t, events, 4) // task + working + artifact + input-required
	ask, ok := events[3].(*a2a.TaskStatusUpdateEvent)
	require.True(t, ok)
	assert.Equal(t, a2a.TaskStateInputRequired, ask.Status.State)
	assert.True(t, ask.Final)
	assert.Equal(t, "continue?", *ask.Status.Message.Parts[0].Text)
}

func TestExecuteErrorPublishesFailedAndReturnsError(t *testing.T) {
	exec := New(nil)
	bus := eventbus.New()
	queue := bus.Attach()

	reqCtx := newReqCtx("t6", "error 500")
	err := exec.Execute(context.Background(), reqCtx, bus)
	require.Error(t, err)
	jerr, ok := err.(*a2a.JSONRPCError)
	require.True(t, ok)
	assert.Equal(t, 500, jerr.Code)

	events := drain(t, queue)
	require.Len(t, events, 3)
	failed, ok := events[2].(*a2a.TaskStatusUpdateEvent)
	require.True(t, ok)
	assert.Equal(t, a2a.TaskStateFailed, failed.Status.State)
}

func TestCancelTaskInterruptsInFlightWait(t *testing.T) {
	exec := New(nil)
	bus := eventbus.New()
	queue := bus.Attach()

	reqCtx := newReqCtx("t7", "wait 5 seconds")
	done := make(chan error, 1)
	go func() {
		done <- exec.Execute(context.Background(), reqCtx, bus)
	}()

	require.Eventually(t, func() bool {
		exec.mu.Lock()
		_, ok := exec.running["t7"]
		exec.mu.Unlock()
		return ok
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, exec.CancelTask(context.Background(), "t7", bus))

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Execute did not return after cancellation")
	}

	events := drain(t, queue)
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	canceled, ok := last.(*a2a.TaskStatusUpdateEvent)
	require.True(t, ok)
	assert.Equal(t, a2a.TaskStateCanceled, canceled.Status.State)
}

func TestLastTextReturnsFinalTextPart(t *testing.T) {
	msg := a2a.Message{Parts: []a2a.Part{
		a2a.NewTextPart("first"),
		{Kind: a2a.PartKindData, Data: map[string]interface{}{"a": 1}},
		a2a.NewTextPart("second"),
	}}
	assert.Equal(t, "second", lastText(msg))
}

func TestLastTextReturnsEmptyWhenNoTextPart(t *testing.T) {
	msg := a2a.Message{Parts: []a2a.Part{{Kind: a2a.PartKindData, Data: map[string]interface{}{"a": 1}}}}
	assert.Equal(t, "", lastText(msg))
}
