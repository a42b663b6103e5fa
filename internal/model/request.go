package model

type ChatRequest struct {
	DocumentID string `json:"document_id" binding:"required"`
	UserPrompt string `json:"user_prompt" binding:"required"`
}
