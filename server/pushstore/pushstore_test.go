package pushstore

import (
	"context"
	"testing"

	"github.com/gate4ai/a2a/a2a"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveDefaultsConfigIDToTaskID(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	saved, err := store.Save(ctx, "t1", a2a.PushNotificationConfig{URL: "https://example.com/hook"})
	require.NoError(t, err)
	assert.Equal(t, "t1", saved.ID)

	got, ok, err := store.Get(ctx, "t1", "")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "https://example.com/hook", got.URL)
}

func TestSaveMultipleConfigsPerTask(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	_, err := store.Save(ctx, "t1", a2a.PushNotificationConfig{ID: "a", URL: "https://a.example.com"})
	require.NoError(t, err)
	_, err = store.Save(ctx, "t1", a2a.PushNotificationConfig{ID: "b", URL: "https://b.example.com"})
	require.NoError(t, err)

	configs, err := store.List(ctx, "t1")
	require.NoError(t, err)
	assert.Len(t, configs, 2)
}

func TestGetMissingReturnsFalse(t *testing.T) {
	store := NewInMemory()
	_, ok, err := store.Get(context.Background(), "missing", "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteRemovesTaskEntryOnceEmpty(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	_, err := store.Save(ctx, "t1", a2a.PushNotificationConfig{ID: "a"})
	require.NoError(t, err)
	_, err = store.Save(ctx, "t1", a2a.PushNotificationConfig{ID: "b"})
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "t1", "a"))
	configs, err := store.List(ctx, "t1")
	require.NoError(t, err)
	assert.Len(t, configs, 1)

	require.NoError(t, store.Delete(ctx, "t1", "b"))
	configs, err = store.List(ctx, "t1")
	require.NoError(t, err)
	assert.Empty(t, configs)

	_, ok, err := store.Get(ctx, "t1", "b")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteOfUnknownTaskIsNotAnError(t *testing.T) {
	store := NewInMemory()
	assert.NoError(t, store.Delete(context.Background(), "missing", "x"))
}
