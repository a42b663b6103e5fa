package llm

import (
	"context"
	"fmt"

	"scribo/internal/config"
	"scribo/pkg/logger"

	openai "github.com/sashabaranov/go-openai"
)

// TextGenerator is the single capability the content generator needs
// from a language model.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string, temperature float32, maxTokens int) (string, error)
}

// GroqClient talks to the Groq API, which speaks the OpenAI
// chat-completions dialect, through go-openai with a custom base URL.
type GroqClient struct {
	client *openai.Client
	model  string
}

func NewGroqClient(cfg config.GroqConfig) (*GroqClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GROQ_API_KEY not set: configure groq.api_key or export GROQ_API_KEY")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	logger.Infof("Groq client initialized (model: %s)", cfg.Model)

	return &GroqClient{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.Model,
	}, nil
}

func (g *GroqClient) GenerateText(ctx context.Context, prompt string, temperature float32, maxTokens int) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("groq completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("groq returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}
