package resultmanager

import (
	"context"
	"testing"

	"github.com/gate4ai/a2a/a2a"
	"github.com/gate4ai/a2a/server/taskstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBareMessageIsTheFinalResultWithoutCreatingATask(t *testing.T) {
	store := taskstore.NewInMemory()
	m := New(store, nil)

	msg := &a2a.Message{MessageID: "m1", Role: a2a.RoleAgent, Parts: []a2a.Part{a2a.NewTextPart("hi")}}
	require.NoError(t, m.ProcessEvent(context.Background(), msg))

	assert.Nil(t, m.GetCurrentTask())
	result, err := m.GetFinalResult()
	require.NoError(t, err)
	assert.Same(t, msg, result)
}

func TestTaskEventThenMessageAppendsToHistory(t *testing.T) {
	store := taskstore.NewInMemory()
	m := New(store, nil)
	ctx := context.Background()

	task := &a2a.Task{ID: "t1", ContextID: "c1", Status: a2a.TaskStatus{State: a2a.TaskStateSubmitted}, Kind: "task"}
	require.NoError(t, m.ProcessEvent(ctx, task))

	msg := &a2a.Message{MessageID: "m1", Role: a2a.RoleUser, Parts: []a2a.Part{a2a.NewTextPart("more")}}
	require.NoError(t, m.ProcessEvent(ctx, msg))

	current := m.GetCurrentTask()
	require.NotNil(t, current)
	require.Len(t, current.History, 1)
	assert.Equal(t, "m1", current.History[0].MessageID)

	loaded, err := store.Load(ctx, "t1")
	require.NoError(t, err)
	assert.Len(t, loaded.History, 1)
}

func TestStatusUpdateAppendsItsMessageAndSetsStatus(t *testing.T) {
	store := taskstore.NewInMemory()
	m := New(store, nil)
	ctx := context.Background()

	require.NoError(t, m.ProcessEvent(ctx, &a2a.Task{ID: "t1", ContextID: "c1", Kind: "task"}))

	statusMsg := &a2a.Message{MessageID: "m1", Role: a2a.RoleAgent}
	require.NoError(t, m.ProcessEvent(ctx, &a2a.TaskStatusUpdateEvent{
		TaskID: "t1", ContextID: "c1",
		Status: a2a.TaskStatus{State: a2a.TaskStateCompleted, Message: statusMsg},
		Final:  true,
	}))

	current := m.GetCurrentTask()
	require.NotNil(t, current)
	assert.Equal(t, a2a.TaskStateCompleted, current.Status.State)
	require.Len(t, current.History, 1)
	assert.Equal(t, "m1", current.History[0].MessageID)

	result, err := m.GetFinalResult()
	require.NoError(t, err)
	finalTask, ok := result.(*a2a.Task)
	require.True(t, ok)
	assert.Equal(t, a2a.TaskStateCompleted, finalTask.Status.State)
}

func TestArtifactUpdateMergesByArtifactIDAppendingParts(t *testing.T) {
	store := taskstore.NewInMemory()
	m := New(store, nil)
	ctx := context.Background()

	require.NoError(t, m.ProcessEvent(ctx, &a2a.Task{ID: "t1", ContextID: "c1", Kind: "task"}))

	require.NoError(t, m.ProcessEvent(ctx, &a2a.TaskArtifactUpdateEvent{
		TaskID: "t1", ContextID: "c1",
		Artifact: a2a.Artifact{ArtifactID: "a1", Parts: []a2a.Part{a2a.NewTextPart("chunk1")}},
		Append:   true,
	}))
	require.NoError(t, m.ProcessEvent(ctx, &a2a.TaskArtifactUpdateEvent{
		TaskID: "t1", ContextID: "c1",
		Artifact: a2a.Artifact{ArtifactID: "a1", Parts: []a2a.Part{a2a.NewTextPart("chunk2")}},
		Append:   true,
	}))

	current := m.GetCurrentTask()
	require.Len(t, current.Artifacts, 1)
	assert.Len(t, current.Artifacts[0].Parts, 2)
}

func TestArtifactUpdateWithoutAppendReplacesParts(t *testing.T) {
	store := taskstore.NewInMemory()
	m := New(store, nil)
	ctx := context.Background()

	require.NoError(t, m.ProcessEvent(ctx, &a2a.Task{ID: "t1", ContextID: "c1", Kind: "task"}))
	require.NoError(t, m.ProcessEvent(ctx, &a2a.TaskArtifactUpdateEvent{
		TaskID: "t1", ContextID: "c1",
		Artifact: a2a.Artifact{ArtifactID: "a1", Parts: []a2a.Part{a2a.NewTextPart("first")}},
	}))
	require.NoError(t, m.ProcessEvent(ctx, &a2a.TaskArtifactUpdateEvent{
		TaskID: "t1", ContextID: "c1",
		Artifact: a2a.Artifact{ArtifactID: "a1", Parts: []a2a.Part{a2a.NewTextPart("replacement")}},
	}))

	current := m.GetCurrentTask()
	require.Len(t, current.Artifacts, 1)
	require.Len(t, current.Artifacts[0].Parts, 1)
	require.NotNil(t, current.Artifacts[0].Parts[0].Text)
	assert.Equal(t, "replacement", *current.Artifacts[0].Parts[0].Text)
}

func TestSeedAllowsMergingIntoAPriorTask(t *testing.T) {
	store := taskstore.NewInMemory()
	prior := &a2a.Task{ID: "t1", ContextID: "c1", Kind: "task", History: []a2a.Message{{MessageID: "m0"}}}
	require.NoError(t, store.Save(context.Background(), prior))

	m := New(store, nil)
	m.Seed(prior)

	require.NoError(t, m.ProcessEvent(context.Background(), &a2a.Task{ID: "t1", ContextID: "c1", Kind: "task"}))
	current := m.GetCurrentTask()
	require.Len(t, current.History, 1)
	assert.Equal(t, "m0", current.History[0].MessageID)
}
