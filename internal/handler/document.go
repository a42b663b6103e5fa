package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"scribo/internal/model"
	"scribo/internal/service"
	"scribo/internal/storage"
	"scribo/pkg/logger"

	"github.com/gin-gonic/gin"
)

const apiVersion = "4.0.0"

// Uploads beyond this are rejected before the body is buffered.
const maxTemplateSize = 20 << 20

type DocumentHandler struct {
	docService *service.DocumentService
}

func NewDocumentHandler(docService *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{
		docService: docService,
	}
}

func (h *DocumentHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, model.HealthResponse{
		Status:    "healthy",
		Version:   apiVersion,
		Timestamp: time.Now().Format(time.RFC3339),
		Features: []string{
			"template_analysis",
			"document_building",
			"header_footer_preservation",
			"preview_mode",
			"chat_refinement",
			"session_management",
		},
		ActiveSessions: h.docService.ActiveSessions(),
	})
}

func (h *DocumentHandler) Generate(c *gin.Context) {
	fileHeader, err := c.FormFile("template")
	if err != nil {
		detail(c, http.StatusBadRequest, "Template file is required")
		return
	}

	if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".docx") {
		detail(c, http.StatusBadRequest, "Only DOCX templates are supported")
		return
	}
	if fileHeader.Size > maxTemplateSize {
		detail(c, http.StatusBadRequest, "Template file too large")
		return
	}

	topic := c.PostForm("topic")
	subject := c.PostForm("subject")
	if topic == "" || subject == "" {
		detail(c, http.StatusBadRequest, "Both topic and subject are required")
		return
	}

	wordCount := 3000
	if raw := c.PostForm("word_count"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			wordCount = n
		}
	}

	temperature := float32(0.7)
	if raw := c.PostForm("temperature"); raw != "" {
		if f, err := strconv.ParseFloat(raw, 32); err == nil {
			temperature = float32(f)
		}
	}

	file, err := fileHeader.Open()
	if err != nil {
		detail(c, http.StatusBadRequest, "Unable to read template file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		detail(c, http.StatusBadRequest, "Unable to read template file")
		return
	}

	logger.Infof("Generation request: topic=%q subject=%q words=%d", topic, subject, wordCount)

	session, err := h.docService.Generate(c.Request.Context(), service.GenerateInput{
		TemplateData: data,
		Topic:        topic,
		Subject:      subject,
		WordCount:    wordCount,
		Temperature:  temperature,
	})
	if err != nil {
		logger.Errorf("Generation failed: %v", err)
		detail(c, http.StatusInternalServerError, "Generation failed: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, model.GenerateResponse{
		Success:      true,
		DocumentID:   session.ID,
		Topic:        session.Topic,
		Subject:      session.Subject,
		Sections:     session.Sections,
		TotalWords:   session.TotalWords(),
		SectionCount: len(session.Sections),
		Timestamp:    time.Now().Format(time.RFC3339),
	})
}

func (h *DocumentHandler) Preview(c *gin.Context) {
	documentID := c.Param("document_id")

	session, err := h.docService.Preview(documentID)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			detail(c, http.StatusNotFound, "Document session not found or expired")
			return
		}
		detail(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, model.PreviewResponse{
		Success:          true,
		DocumentID:       session.ID,
		Topic:            session.Topic,
		Subject:          session.Subject,
		Sections:         session.Sections,
		TotalWords:       session.TotalWords(),
		SectionCount:     len(session.Sections),
		CreatedAt:        session.CreatedAt.Format(time.RFC3339),
		ChatHistoryCount: len(session.ChatHistory),
	})
}

func (h *DocumentHandler) Chat(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusBadRequest, err.Error())
		return
	}

	logger.Infof("Chat refinement: document=%s prompt=%q", req.DocumentID, req.UserPrompt)

	result, err := h.docService.Chat(c.Request.Context(), req.DocumentID, req.UserPrompt)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			detail(c, http.StatusNotFound, "Document session not found")
			return
		}
		logger.Errorf("Chat failed: %v", err)
		detail(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, model.ChatResponse{
		Success:          true,
		Response:         result.Reply,
		UpdatedSections:  result.UpdatedSections,
		SectionsModified: len(result.UpdatedSections),
		CurrentSections:  result.CurrentSections,
		Timestamp:        time.Now().Format(time.RFC3339),
	})
}

func (h *DocumentHandler) Finalize(c *gin.Context) {
	documentID := c.Param("document_id")

	logger.Infof("Finalizing document: %s", documentID)

	result, err := h.docService.Finalize(documentID)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			detail(c, http.StatusNotFound, "Document session not found")
			return
		}
		logger.Errorf("Finalization failed: %v", err)
		detail(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, model.FinalizeResponse{
		Success:     true,
		DocumentID:  documentID,
		Filename:    result.Filename,
		DownloadURL: "/api/download/" + result.Filename,
		FileSize:    result.FileSize,
		FileSizeMB:  float64(result.FileSize) / (1 << 20),
		Timestamp:   time.Now().Format(time.RFC3339),
	})
}

func (h *DocumentHandler) Download(c *gin.Context) {
	filename := c.Param("filename")

	path, err := h.docService.OutputPath(filename)
	if err != nil {
		detail(c, http.StatusNotFound, "File not found")
		return
	}

	logger.Infof("Download requested: %s", filename)

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.wordprocessingml.document")
	c.File(path)
}

func (h *DocumentHandler) Cleanup(c *gin.Context) {
	documentID := c.Param("document_id")

	if err := h.docService.Cleanup(documentID); err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			detail(c, http.StatusNotFound, "Session not found")
			return
		}
		detail(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, model.CleanupResponse{
		Success: true,
		Message: "Session " + documentID + " cleaned up successfully",
	})
}

func detail(c *gin.Context, status int, message string) {
	c.JSON(status, model.ErrorResponse{Detail: message})
}
