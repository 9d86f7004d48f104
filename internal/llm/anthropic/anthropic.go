package anthropic

import (
	"context"
	"fmt"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"

	"docschat/internal/llm"
	"docschat/internal/models"
)

const (
	DefaultChatModel = "claude-3-5-haiku-latest"
	maxTokens        = 1024
)

// Client only implements llm.Completer; Anthropic has no embeddings API.
type Client struct {
	client *anthropic.Client
	model  string
}

func New(apiKey, model string, opts ...anthropicopt.RequestOption) *Client {
	if model == "" {
		model = DefaultChatModel
	}

	client := anthropic.NewClient(append([]anthropicopt.RequestOption{
		anthropicopt.WithAPIKey(apiKey),
	}, opts...)...)

	return &Client{client: &client, model: model}
}

func (c *Client) Model() string {
	return c.model
}

// Complete ignores the JSON option; callers already ask for JSON in the prompt.
func (c *Client) Complete(ctx context.Context, messages []models.ChatMessage, opts ...llm.CompleteOption) (string, error) {
	system, turns := llm.SplitSystem(messages)

	req := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: maxTokens,
		Messages:  make([]anthropic.MessageParam, 0, len(turns)),
	}
	if system != "" {
		req.System = []anthropic.TextBlockParam{{Text: system}}
	}
	for _, m := range turns {
		if m.Role == models.RoleAssistant {
			req.Messages = append(req.Messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
			continue
		}
		req.Messages = append(req.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
	}

	rsp, err := c.client.Messages.New(ctx, req)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, content := range rsp.Content {
		if text, ok := content.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(text.Text)
		}
	}

	if b.Len() == 0 {
		return "", fmt.Errorf("anthropic %s: %w", c.model, llm.ErrNoChoices)
	}

	return b.String(), nil
}
