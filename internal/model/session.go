package model

import (
	"strings"
	"time"
)

// ChatMessage is one entry in a document session's refinement history.
type ChatMessage struct {
	Role      string    `json:"role"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// DocumentSession holds the full state of one generate-through-download
// workflow on the server side. Sections maps section name to generated
// content; SectionOrder preserves the order the template analyzer found
// them in, which the builder needs to lay the document out.
type DocumentSession struct {
	ID           string            `json:"id"`
	Topic        string            `json:"topic"`
	Subject      string            `json:"subject"`
	Sections     map[string]string `json:"sections"`
	SectionOrder []string          `json:"section_order"`
	TemplatePath string            `json:"template_path"`
	ChatHistory  []ChatMessage     `json:"chat_history"`
	CreatedAt    time.Time         `json:"created_at"`
	LastAccessed time.Time         `json:"last_accessed"`
}

// OrderedNames returns the section names in build order, falling back to
// the map keys for sessions persisted before order tracking existed.
func (s *DocumentSession) OrderedNames() []string {
	if len(s.SectionOrder) > 0 {
		return s.SectionOrder
	}
	names := make([]string, 0, len(s.Sections))
	for name := range s.Sections {
		names = append(names, name)
	}
	return names
}

func (s *DocumentSession) TotalWords() int {
	total := 0
	for _, content := range s.Sections {
		total += len(strings.Fields(content))
	}
	return total
}
