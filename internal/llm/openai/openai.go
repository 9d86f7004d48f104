package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"docschat/internal/llm"
	"docschat/internal/models"
)

const (
	DefaultChatModel   = "gpt-4"
	DefaultIngestModel = "gpt-4o-mini"
	EmbeddingModel     = openai.SmallEmbedding3
)

// Client talks to the OpenAI API (or any compatible endpoint) for both
// embeddings and chat completions.
type Client struct {
	client *openai.Client
	model  string
}

func New(apiKey, model string) *Client {
	return NewWithConfig(openai.DefaultConfig(apiKey), model)
}

func NewWithConfig(cfg openai.ClientConfig, model string) *Client {
	if model == "" {
		model = DefaultChatModel
	}
	return &Client{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (c *Client) Model() string {
	return c.model
}

func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	rsp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: EmbeddingModel,
	})
	if err != nil {
		return nil, err
	}

	if len(rsp.Data) == 0 || len(rsp.Data[0].Embedding) == 0 {
		return nil, errors.New("no embedding returned from OpenAI")
	}

	return rsp.Data[0].Embedding, nil
}

func (c *Client) Complete(ctx context.Context, messages []models.ChatMessage, opts ...llm.CompleteOption) (string, error) {
	options := llm.NewCompleteOptions(opts...)

	req := openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: make([]openai.ChatCompletionMessage, 0, len(messages)),
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}
	if options.JSON {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	rsp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}

	if len(rsp.Choices) == 0 {
		return "", fmt.Errorf("openai %s: %w", c.model, llm.ErrNoChoices)
	}

	return rsp.Choices[0].Message.Content, nil
}
