package storage

import (
	"sync"
	"time"

	"scribo/internal/model"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore keeps document sessions in a TTL cache. Expired sessions
// disappear on their own, matching the server's session timeout contract.
type MemoryStore struct {
	cache *gocache.Cache
	ttl   time.Duration
	mu    sync.Mutex
}

func NewMemoryStore(ttl, cleanupInterval time.Duration) *MemoryStore {
	return &MemoryStore{
		cache: gocache.New(ttl, cleanupInterval),
		ttl:   ttl,
	}
}

func (m *MemoryStore) Init() error {
	return nil
}

func (m *MemoryStore) Close() error {
	m.cache.Flush()
	return nil
}

func (m *MemoryStore) Create(session *model.DocumentSession) error {
	if session == nil || session.ID == "" {
		return ErrInvalidData
	}
	m.cache.Set(session.ID, session, gocache.DefaultExpiration)
	return nil
}

func (m *MemoryStore) Get(documentID string) (*model.DocumentSession, error) {
	v, found := m.cache.Get(documentID)
	if !found {
		return nil, ErrSessionNotFound
	}

	session := v.(*model.DocumentSession)

	m.mu.Lock()
	session.LastAccessed = time.Now()
	m.mu.Unlock()

	return session, nil
}

func (m *MemoryStore) UpdateSections(documentID string, updated map[string]string) error {
	session, err := m.Get(documentID)
	if err != nil {
		return err
	}

	m.mu.Lock()
	for name, content := range updated {
		session.Sections[name] = content
	}
	session.LastAccessed = time.Now()
	m.mu.Unlock()

	m.cache.Set(documentID, session, gocache.DefaultExpiration)
	return nil
}

func (m *MemoryStore) AddChatMessage(documentID, role, message string) error {
	session, err := m.Get(documentID)
	if err != nil {
		return err
	}

	m.mu.Lock()
	session.ChatHistory = append(session.ChatHistory, model.ChatMessage{
		Role:      role,
		Message:   message,
		Timestamp: time.Now(),
	})
	session.LastAccessed = time.Now()
	m.mu.Unlock()

	m.cache.Set(documentID, session, gocache.DefaultExpiration)
	return nil
}

func (m *MemoryStore) Delete(documentID string) error {
	if _, found := m.cache.Get(documentID); !found {
		return ErrSessionNotFound
	}
	m.cache.Delete(documentID)
	return nil
}

func (m *MemoryStore) List() ([]*model.DocumentSession, error) {
	items := m.cache.Items()
	sessions := make([]*model.DocumentSession, 0, len(items))
	for _, item := range items {
		sessions = append(sessions, item.Object.(*model.DocumentSession))
	}
	return sessions, nil
}

func (m *MemoryStore) Count() int {
	return m.cache.ItemCount()
}
