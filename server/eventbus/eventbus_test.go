package eventbus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gate4ai/a2a/a2a"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statusEvent(taskID string, final bool) *a2a.TaskStatusUpdateEvent {
	return &a2a.TaskStatusUpdateEvent{TaskID: taskID, Final: final}
}

func TestBusDeliversInPublicationOrder(t *testing.T) {
	b := New()
	q := b.Attach()

	go func() {
		for i := 0; i < 5; i++ {
			b.Publish(statusEvent("t1", false))
		}
		b.Finished()
	}()

	ctx := context.Background()
	count := 0
	for {
		_, ok, err := q.Next(ctx)
		require.NoError(t, err)
		if !ok {
			break
		}
		count++
	}
	assert.Equal(t, 5, count)
}

func TestResubscribeOnlySeesSubsequentEvents(t *testing.T) {
	b := New()
	early := b.Attach()

	b.Publish(statusEvent("t1", false))

	late := b.Attach()
	b.Publish(statusEvent("t1", true))
	b.Finished()

	ctx := context.Background()

	var earlySeen int
	for {
		_, ok, err := early.Next(ctx)
		require.NoError(t, err)
		if !ok {
			break
		}
		earlySeen++
	}
	assert.Equal(t, 2, earlySeen)

	var lateSeen int
	for {
		_, ok, err := late.Next(ctx)
		require.NoError(t, err)
		if !ok {
			break
		}
		lateSeen++
	}
	assert.Equal(t, 1, lateSeen)
}

func TestPublishBlocksOnFullQueueNotOnOtherListeners(t *testing.T) {
	b := New()
	slow := b.Attach()
	fast := b.Attach()

	var fastReceived int
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ctx := context.Background()
		for {
			_, ok, err := fast.Next(ctx)
			require.NoError(t, err)
			if !ok {
				return
			}
			fastReceived++
		}
	}()

	// Publish more than the slow queue's capacity without ever draining
	// it; the publisher must still make progress delivering to fast.
	done := make(chan struct{})
	go func() {
		for i := 0; i < QueueCapacity+5; i++ {
			b.Publish(statusEvent("t1", false))
		}
		b.Finished()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish on bus with a slow listener should not stall other listeners")
	}
	wg.Wait()
	assert.Equal(t, QueueCapacity+5, fastReceived)
	slow.Stop()
}

func TestFinishedIsIdempotentAndAwaitable(t *testing.T) {
	b := New()
	b.Finished()
	assert.NotPanics(t, func() { b.Finished() })
	assert.True(t, b.IsFinished())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, b.Await(ctx))
}

func TestQueueStopDiscardsBufferedEvents(t *testing.T) {
	b := New()
	q := b.Attach()
	b.Publish(statusEvent("t1", false))
	q.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, ok, err := q.Next(ctx)
	assert.False(t, ok)
	assert.NoError(t, err)
}

func TestManagerCreateOrGetIsStable(t *testing.T) {
	m := NewManager()
	b1 := m.CreateOrGetByTaskID("t1")
	b2 := m.CreateOrGetByTaskID("t1")
	assert.Same(t, b1, b2)

	_, ok := m.GetByTaskID("missing")
	assert.False(t, ok)

	m.CleanupByTaskID("t1")
	_, ok = m.GetByTaskID("t1")
	assert.False(t, ok)
}
