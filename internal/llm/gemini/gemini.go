package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"docschat/internal/llm"
	"docschat/internal/models"
)

const (
	DefaultChatModel = "gemini-1.5-flash"
	EmbeddingModel   = "text-embedding-004"
)

type Client struct {
	client *genai.Client
	model  string
}

func New(ctx context.Context, apiKey, model string) (*Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	if model == "" {
		model = DefaultChatModel
	}

	return &Client{client: client, model: model}, nil
}

func (c *Client) Close() {
	c.client.Close()
}

func (c *Client) Model() string {
	return c.model
}

func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	em := c.client.EmbeddingModel(EmbeddingModel)
	rsp, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("Gemini API error: %w", err)
	}

	if rsp == nil || rsp.Embedding == nil || len(rsp.Embedding.Values) == 0 {
		return nil, errors.New("no embedding returned from Gemini")
	}

	return rsp.Embedding.Values, nil
}

func (c *Client) Complete(ctx context.Context, messages []models.ChatMessage, opts ...llm.CompleteOption) (string, error) {
	options := llm.NewCompleteOptions(opts...)

	model := c.client.GenerativeModel(c.model)
	system, turns := llm.SplitSystem(messages)
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}
	if options.JSON {
		model.ResponseMIMEType = "application/json"
	}

	if len(turns) == 0 {
		return "", errors.New("no user message to send to Gemini")
	}

	// Earlier turns become chat history; the last one is the prompt.
	cs := model.StartChat()
	for _, m := range turns[:len(turns)-1] {
		role := "user"
		if m.Role == models.RoleAssistant {
			role = "model"
		}
		cs.History = append(cs.History, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(m.Content)},
		})
	}

	resp, err := cs.SendMessage(ctx, genai.Text(turns[len(turns)-1].Content))
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini %s: %w", c.model, llm.ErrNoChoices)
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}

	return b.String(), nil
}
