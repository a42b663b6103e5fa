package storage

import (
	"testing"
	"time"

	"scribo/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(id string) *model.DocumentSession {
	return &model.DocumentSession{
		ID:      id,
		Topic:   "Topic",
		Subject: "Subject",
		Sections: map[string]string{
			"Objective":  "objective text",
			"Conclusion": "conclusion text",
		},
		SectionOrder: []string{"Objective", "Conclusion"},
		CreatedAt:    time.Now(),
		LastAccessed: time.Now(),
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore(time.Minute, time.Minute)
	require.NoError(t, store.Init())

	require.NoError(t, store.Create(newSession("s1")))

	got, err := store.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, "Topic", got.Topic)
	assert.Equal(t, 1, store.Count())
}

func TestMemoryStoreNotFound(t *testing.T) {
	store := NewMemoryStore(time.Minute, time.Minute)

	_, err := store.Get("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, store.Delete("missing"), ErrSessionNotFound)
}

func TestMemoryStoreRejectsInvalidSession(t *testing.T) {
	store := NewMemoryStore(time.Minute, time.Minute)
	assert.ErrorIs(t, store.Create(nil), ErrInvalidData)
	assert.ErrorIs(t, store.Create(&model.DocumentSession{}), ErrInvalidData)
}

func TestMemoryStoreUpdateSectionsIsPartial(t *testing.T) {
	store := NewMemoryStore(time.Minute, time.Minute)
	require.NoError(t, store.Create(newSession("s1")))

	require.NoError(t, store.UpdateSections("s1", map[string]string{
		"Objective": "rewritten",
	}))

	got, err := store.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, "rewritten", got.Sections["Objective"])
	assert.Equal(t, "conclusion text", got.Sections["Conclusion"])
}

func TestMemoryStoreChatHistory(t *testing.T) {
	store := NewMemoryStore(time.Minute, time.Minute)
	require.NoError(t, store.Create(newSession("s1")))

	require.NoError(t, store.AddChatMessage("s1", "user", "make it longer"))
	require.NoError(t, store.AddChatMessage("s1", "assistant", "done"))

	got, err := store.Get("s1")
	require.NoError(t, err)
	require.Len(t, got.ChatHistory, 2)
	assert.Equal(t, "user", got.ChatHistory[0].Role)
	assert.Equal(t, "assistant", got.ChatHistory[1].Role)
}

func TestMemoryStoreTTLExpiry(t *testing.T) {
	store := NewMemoryStore(30*time.Millisecond, 10*time.Millisecond)
	require.NoError(t, store.Create(newSession("s1")))

	_, err := store.Get("s1")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		_, err := store.Get("s1")
		return err != nil
	}, time.Second, 10*time.Millisecond)
}

func TestMemoryStoreList(t *testing.T) {
	store := NewMemoryStore(time.Minute, time.Minute)
	require.NoError(t, store.Create(newSession("a")))
	require.NoError(t, store.Create(newSession("b")))

	sessions, err := store.List()
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
}
