package model

// Wire shapes for the document API. Error responses carry a single
// "detail" field; everything else is endpoint-specific.

type ErrorResponse struct {
	Detail string `json:"detail"`
}

type HealthResponse struct {
	Status         string   `json:"status"`
	Version        string   `json:"version"`
	Timestamp      string   `json:"timestamp"`
	Features       []string `json:"features"`
	ActiveSessions int      `json:"active_sessions"`
}

type GenerateResponse struct {
	Success      bool              `json:"success"`
	DocumentID   string            `json:"document_id"`
	Topic        string            `json:"topic"`
	Subject      string            `json:"subject"`
	Sections     map[string]string `json:"sections"`
	TotalWords   int               `json:"total_words"`
	SectionCount int               `json:"section_count"`
	Timestamp    string            `json:"timestamp"`
}

type PreviewResponse struct {
	Success          bool              `json:"success"`
	DocumentID       string            `json:"document_id"`
	Topic            string            `json:"topic"`
	Subject          string            `json:"subject"`
	Sections         map[string]string `json:"sections"`
	TotalWords       int               `json:"total_words"`
	SectionCount     int               `json:"section_count"`
	CreatedAt        string            `json:"created_at"`
	ChatHistoryCount int               `json:"chat_history_count"`
}

type ChatResponse struct {
	Success          bool              `json:"success"`
	Response         string            `json:"response"`
	UpdatedSections  map[string]string `json:"updated_sections,omitempty"`
	SectionsModified int               `json:"sections_modified"`
	CurrentSections  map[string]string `json:"current_sections"`
	Timestamp        string            `json:"timestamp"`
}

type FinalizeResponse struct {
	Success     bool    `json:"success"`
	DocumentID  string  `json:"document_id"`
	Filename    string  `json:"filename"`
	DownloadURL string  `json:"download_url"`
	FileSize    int64   `json:"file_size"`
	FileSizeMB  float64 `json:"file_size_mb"`
	Timestamp   string  `json:"timestamp"`
}

type CleanupResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
