package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskStoreRoundTrip(t *testing.T) {
	store := NewDiskStore(t.TempDir(), time.Hour)
	require.NoError(t, store.Init())

	require.NoError(t, store.Create(newSession("s1")))

	got, err := store.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, "Topic", got.Topic)
	assert.Equal(t, []string{"Objective", "Conclusion"}, got.SectionOrder)
}

func TestDiskStoreSurvivesRestart(t *testing.T) {
	dir := t.TempDir()

	store := NewDiskStore(dir, time.Hour)
	require.NoError(t, store.Init())
	require.NoError(t, store.Create(newSession("s1")))
	require.NoError(t, store.AddChatMessage("s1", "user", "hello"))

	reopened := NewDiskStore(dir, time.Hour)
	require.NoError(t, reopened.Init())

	got, err := reopened.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, "objective text", got.Sections["Objective"])
	require.Len(t, got.ChatHistory, 1)
	assert.Equal(t, "hello", got.ChatHistory[0].Message)
}

func TestDiskStoreUpdateSections(t *testing.T) {
	store := NewDiskStore(t.TempDir(), time.Hour)
	require.NoError(t, store.Init())
	require.NoError(t, store.Create(newSession("s1")))

	require.NoError(t, store.UpdateSections("s1", map[string]string{"Conclusion": "new"}))

	got, err := store.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, "new", got.Sections["Conclusion"])
	assert.Equal(t, "objective text", got.Sections["Objective"])
}

func TestDiskStoreExpiry(t *testing.T) {
	store := NewDiskStore(t.TempDir(), 20*time.Millisecond)
	require.NoError(t, store.Init())

	session := newSession("s1")
	session.CreatedAt = time.Now().Add(-time.Minute)
	require.NoError(t, store.Create(session))

	_, err := store.Get("s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestDiskStoreCleanupExpired(t *testing.T) {
	store := NewDiskStore(t.TempDir(), time.Minute)
	require.NoError(t, store.Init())

	fresh := newSession("fresh")
	require.NoError(t, store.Create(fresh))

	stale := newSession("stale")
	stale.CreatedAt = time.Now().Add(-time.Hour)
	require.NoError(t, store.Create(stale))

	assert.Equal(t, 1, store.CleanupExpired())
	assert.Equal(t, 1, store.Count())

	_, err := store.Get("fresh")
	assert.NoError(t, err)
}

func TestDiskStoreDelete(t *testing.T) {
	store := NewDiskStore(t.TempDir(), time.Hour)
	require.NoError(t, store.Init())
	require.NoError(t, store.Create(newSession("s1")))

	require.NoError(t, store.Delete("s1"))
	_, err := store.Get("s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, store.Delete("s1"), ErrSessionNotFound)
}
