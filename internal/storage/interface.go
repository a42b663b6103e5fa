package storage

import (
	"scribo/internal/model"
)

type Store interface {
	// Session lifecycle
	Create(session *model.DocumentSession) error
	Get(documentID string) (*model.DocumentSession, error)
	UpdateSections(documentID string, updated map[string]string) error
	AddChatMessage(documentID, role, message string) error
	Delete(documentID string) error
	List() ([]*model.DocumentSession, error)
	Count() int

	// Store management
	Init() error
	Close() error
}
