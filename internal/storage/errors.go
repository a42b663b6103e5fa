package storage

import "errors"

var (
	ErrSessionNotFound = errors.New("document session not found")
	ErrInvalidData     = errors.New("invalid session data")
	ErrStorageInit     = errors.New("storage initialization failed")
	ErrFileOperation   = errors.New("file operation failed")
)
