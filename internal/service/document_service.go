package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"scribo/internal/builder"
	"scribo/internal/config"
	"scribo/internal/llm"
	"scribo/internal/model"
	"scribo/internal/storage"
	"scribo/internal/template"
	"scribo/pkg/logger"

	"github.com/google/uuid"
)

// DocumentService drives the generate → refine → finalize lifecycle on
// the server side. One document session per generated assignment.
type DocumentService struct {
	store     storage.Store
	generator *ContentGenerator
	analyzer  *template.Analyzer
	builder   *builder.Builder
	cfg       *config.Config
}

func NewDocumentService(cfg *config.Config, textGen llm.TextGenerator) (*DocumentService, error) {
	var store storage.Store
	switch cfg.Storage.Type {
	case "disk":
		store = storage.NewDiskStore(cfg.Storage.DataDir, cfg.Session.TTL)
	default:
		store = storage.NewMemoryStore(cfg.Session.TTL, cfg.Session.CleanupInterval)
	}

	if err := store.Init(); err != nil {
		return nil, fmt.Errorf("init session store: %w", err)
	}

	return &DocumentService{
		store:     store,
		generator: NewContentGenerator(textGen, cfg.Generator),
		analyzer:  template.NewAnalyzer(),
		builder:   builder.NewBuilder(cfg.Paths.OutputDir),
		cfg:       cfg,
	}, nil
}

func (s *DocumentService) Store() storage.Store {
	return s.store
}

// GenerateInput carries the validated upload for one generation request.
type GenerateInput struct {
	TemplateData []byte
	Topic        string
	Subject      string
	WordCount    int
	Temperature  float32
}

// Generate analyzes the template, generates every section, and creates
// the session the rest of the workflow hangs off.
func (s *DocumentService) Generate(ctx context.Context, in GenerateInput) (*model.DocumentSession, error) {
	if err := os.MkdirAll(s.cfg.Paths.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	templatePath := filepath.Join(s.cfg.Paths.UploadDir, fmt.Sprintf("template_%s.docx", uuid.New().String()))
	if err := os.WriteFile(templatePath, in.TemplateData, 0o644); err != nil {
		return nil, fmt.Errorf("save template: %w", err)
	}
	logger.Infof("Template saved: %s", filepath.Base(templatePath))

	sectionNames := s.analyzer.AnalyzeBytes(in.TemplateData)
	logger.Infof("Extracted %d sections: %v", len(sectionNames), sectionNames)

	sections := s.generator.GenerateAssignment(ctx, in.Topic, in.Subject, sectionNames, in.Temperature)

	session := &model.DocumentSession{
		ID:           uuid.New().String(),
		Topic:        in.Topic,
		Subject:      in.Subject,
		Sections:     sections,
		SectionOrder: sectionNames,
		TemplatePath: templatePath,
		ChatHistory:  []model.ChatMessage{},
		CreatedAt:    time.Now(),
		LastAccessed: time.Now(),
	}

	if err := s.store.Create(session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	logger.Infof("Session created: %s", session.ID)
	return session, nil
}

func (s *DocumentService) Preview(documentID string) (*model.DocumentSession, error) {
	return s.store.Get(documentID)
}

// ChatResult carries one refinement turn's outcome.
type ChatResult struct {
	Reply           string
	UpdatedSections map[string]string
	CurrentSections map[string]string
}

// Chat runs one refinement turn: route the prompt, apply any partial
// section updates, record both transcript entries.
func (s *DocumentService) Chat(ctx context.Context, documentID, userPrompt string) (*ChatResult, error) {
	session, err := s.store.Get(documentID)
	if err != nil {
		return nil, err
	}

	refinement, err := s.generator.RefineViaChat(ctx, userPrompt, session.Sections, session.Topic, session.Subject)
	if err != nil {
		return nil, fmt.Errorf("refinement: %w", err)
	}

	if len(refinement.UpdatedSections) > 0 {
		if err := s.store.UpdateSections(documentID, refinement.UpdatedSections); err != nil {
			return nil, err
		}
		logger.Infof("Session %s: %d section(s) updated via chat", documentID, len(refinement.UpdatedSections))
	}

	if err := s.store.AddChatMessage(documentID, "user", userPrompt); err != nil {
		logger.Warnf("Failed to record user message: %v", err)
	}
	if err := s.store.AddChatMessage(documentID, "assistant", refinement.Reply); err != nil {
		logger.Warnf("Failed to record assistant message: %v", err)
	}

	current, err := s.store.Get(documentID)
	if err != nil {
		return nil, err
	}

	return &ChatResult{
		Reply:           refinement.Reply,
		UpdatedSections: refinement.UpdatedSections,
		CurrentSections: current.Sections,
	}, nil
}

// FinalizeResult describes the built artifact.
type FinalizeResult struct {
	Filename string
	Path     string
	FileSize int64
}

// Finalize builds the output document from the session's template and
// current sections.
func (s *DocumentService) Finalize(documentID string) (*FinalizeResult, error) {
	session, err := s.store.Get(documentID)
	if err != nil {
		return nil, err
	}

	outPath, err := s.builder.Build(session.TemplatePath, session.Topic, session.OrderedNames(), session.Sections)
	if err != nil {
		return nil, fmt.Errorf("build document: %w", err)
	}

	info, err := os.Stat(outPath)
	if err != nil {
		return nil, fmt.Errorf("stat output: %w", err)
	}

	return &FinalizeResult{
		Filename: filepath.Base(outPath),
		Path:     outPath,
		FileSize: info.Size(),
	}, nil
}

// OutputPath resolves a finalized document by filename, refusing
// anything that escapes the output directory.
func (s *DocumentService) OutputPath(filename string) (string, error) {
	if filename != filepath.Base(filename) {
		return "", fmt.Errorf("invalid filename")
	}
	path := filepath.Join(s.cfg.Paths.OutputDir, filename)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("file not found")
	}
	return path, nil
}

// Cleanup deletes a session and its stored template file.
func (s *DocumentService) Cleanup(documentID string) error {
	session, err := s.store.Get(documentID)
	if err != nil {
		return err
	}

	if session.TemplatePath != "" {
		if err := os.Remove(session.TemplatePath); err != nil && !os.IsNotExist(err) {
			logger.Warnf("Failed to remove template %s: %v", session.TemplatePath, err)
		}
	}

	return s.store.Delete(documentID)
}

func (s *DocumentService) ActiveSessions() int {
	return s.store.Count()
}

// StartCleanupLoop runs disk-store TTL cleanup until ctx is done. The
// memory store expires entries on its own.
func (s *DocumentService) StartCleanupLoop(ctx context.Context) {
	disk, ok := s.store.(*storage.DiskStore)
	if !ok {
		return
	}

	go func() {
		ticker := time.NewTicker(s.cfg.Session.CleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				disk.CleanupExpired()
			case <-ctx.Done():
				return
			}
		}
	}()
}
