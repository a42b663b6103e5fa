package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"scribo/internal/model"
	"scribo/pkg/logger"
)

// DiskStore persists each document session as a JSON file so sessions
// survive a server restart. TTL is enforced lazily on read and by
// CleanupExpired, which the server runs on a timer.
type DiskStore struct {
	dataDir string
	ttl     time.Duration
	mu      sync.RWMutex
}

func NewDiskStore(dataDir string, ttl time.Duration) *DiskStore {
	return &DiskStore{
		dataDir: dataDir,
		ttl:     ttl,
	}
}

func (d *DiskStore) Init() error {
	if err := os.MkdirAll(d.dataDir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageInit, err)
	}
	return nil
}

func (d *DiskStore) Close() error {
	return nil
}

func (d *DiskStore) sessionPath(documentID string) string {
	return filepath.Join(d.dataDir, documentID+".json")
}

func (d *DiskStore) Create(session *model.DocumentSession) error {
	if session == nil || session.ID == "" {
		return ErrInvalidData
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	return d.write(session)
}

func (d *DiskStore) Get(documentID string) (*model.DocumentSession, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	session, err := d.read(documentID)
	if err != nil {
		return nil, err
	}

	if d.expired(session) {
		if err := os.Remove(d.sessionPath(documentID)); err != nil {
			logger.Warnf("Failed to remove expired session %s: %v", documentID, err)
		}
		return nil, ErrSessionNotFound
	}

	session.LastAccessed = time.Now()
	if err := d.write(session); err != nil {
		return nil, err
	}

	return session, nil
}

func (d *DiskStore) UpdateSections(documentID string, updated map[string]string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	session, err := d.read(documentID)
	if err != nil {
		return err
	}

	for name, content := range updated {
		session.Sections[name] = content
	}
	session.LastAccessed = time.Now()

	return d.write(session)
}

func (d *DiskStore) AddChatMessage(documentID, role, message string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	session, err := d.read(documentID)
	if err != nil {
		return err
	}

	session.ChatHistory = append(session.ChatHistory, model.ChatMessage{
		Role:      role,
		Message:   message,
		Timestamp: time.Now(),
	})
	session.LastAccessed = time.Now()

	return d.write(session)
}

func (d *DiskStore) Delete(documentID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	path := d.sessionPath(documentID)
	if _, err := os.Stat(path); err != nil {
		return ErrSessionNotFound
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("%w: %v", ErrFileOperation, err)
	}
	return nil
}

func (d *DiskStore) List() ([]*model.DocumentSession, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	entries, err := os.ReadDir(d.dataDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFileOperation, err)
	}

	sessions := make([]*model.DocumentSession, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		session, err := d.read(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			logger.Warnf("Skipping unreadable session file %s: %v", entry.Name(), err)
			continue
		}
		if d.expired(session) {
			continue
		}
		sessions = append(sessions, session)
	}

	return sessions, nil
}

func (d *DiskStore) Count() int {
	sessions, err := d.List()
	if err != nil {
		return 0
	}
	return len(sessions)
}

// CleanupExpired removes session files past their TTL and reports how
// many were deleted.
func (d *DiskStore) CleanupExpired() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	entries, err := os.ReadDir(d.dataDir)
	if err != nil {
		return 0
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".json")
		session, err := d.read(id)
		if err != nil {
			continue
		}
		if d.expired(session) {
			if err := os.Remove(d.sessionPath(id)); err == nil {
				removed++
			}
		}
	}

	if removed > 0 {
		logger.Infof("Cleaned up %d expired session(s)", removed)
	}
	return removed
}

func (d *DiskStore) expired(session *model.DocumentSession) bool {
	return d.ttl > 0 && time.Since(session.CreatedAt) > d.ttl
}

func (d *DiskStore) read(documentID string) (*model.DocumentSession, error) {
	data, err := os.ReadFile(d.sessionPath(documentID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrFileOperation, err)
	}

	session := &model.DocumentSession{}
	if err := json.Unmarshal(data, session); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	return session, nil
}

func (d *DiskStore) write(session *model.DocumentSession) error {
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	if err := os.WriteFile(d.sessionPath(session.ID), data, 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrFileOperation, err)
	}
	return nil
}
