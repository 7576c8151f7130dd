package llm

import (
	"context"
	"errors"

	"github.com/sashabaranov/go-openai"

	"github.com/gardenllm/gardenllm-backend/internal/config"
)

// OpenAIClient implements Client using the OpenAI chat completion API.
type OpenAIClient struct {
	client       *openai.Client
	defaultModel string
}

// NewOpenAIClient creates a new OpenAI-backed generation client.
func NewOpenAIClient(cfg config.OpenAIConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}

	return &OpenAIClient{
		client:       openai.NewClient(cfg.APIKey),
		defaultModel: cfg.ChatModel,
	}, nil
}

// Generate performs a non-streaming chat completion.
func (c *OpenAIClient) Generate(ctx context.Context, messages []Message, opts Options) (string, error) {
	model := opts.Model
	if model == "" {
		model = c.defaultModel
	}

	req := openai.ChatCompletionRequest{
		Model:       model,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
		Messages:    make([]openai.ChatCompletionMessage, len(messages)),
	}
	for i, msg := range messages {
		req.Messages[i] = openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}

	return resp.Choices[0].Message.Content, nil
}
