package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStoreLifecycle(t *testing.T) {
	now := fixedNow
	store := NewSessionStore(10 * time.Minute)
	store.now = func() time.Time { return now }

	w := newTestWorkflow(newFakeBackend())
	require.NoError(t, store.Put(w))

	got, ok := store.Get(w.ChatID)
	require.True(t, ok)
	assert.Same(t, w, got)

	now = now.Add(11 * time.Minute)
	_, ok = store.Get(w.ChatID)
	assert.False(t, ok)
	assert.Equal(t, 0, store.Len())
}

func TestSessionStoreKeepsBusyWorkflow(t *testing.T) {
	now := fixedNow
	store := NewSessionStore(time.Minute)
	store.now = func() time.Time { return now }

	w := newTestWorkflow(newFakeBackend())
	require.NoError(t, store.Put(w))
	require.NoError(t, w.acquire())

	replacement := newTestWorkflow(newFakeBackend())
	assert.ErrorIs(t, store.Put(replacement), ErrBusy)

	now = now.Add(time.Hour)
	assert.Equal(t, 0, store.Cleanup())

	w.release()
	assert.Equal(t, 1, store.Cleanup())
	require.NoError(t, store.Put(replacement))
}

func TestSessionStoreDelete(t *testing.T) {
	store := NewSessionStore(0)
	w := newTestWorkflow(newFakeBackend())
	require.NoError(t, store.Put(w))
	store.Delete(w.ChatID)
	_, ok := store.Get(w.ChatID)
	assert.False(t, ok)
}
