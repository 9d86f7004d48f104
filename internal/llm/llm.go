package llm

import (
	"context"
	"errors"

	"docschat/internal/models"
)

// ErrNoChoices is returned when a provider answers without any completion.
var ErrNoChoices = errors.New("llm returned no choices")

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type Completer interface {
	Complete(ctx context.Context, messages []models.ChatMessage, opts ...CompleteOption) (string, error)
}

type CompleteOption func(*CompleteOptions)

type CompleteOptions struct {
	// JSON asks the provider for a single JSON object, where supported.
	JSON bool
}

func WithJSONResponse() CompleteOption {
	return func(o *CompleteOptions) {
		o.JSON = true
	}
}

func NewCompleteOptions(opts ...CompleteOption) CompleteOptions {
	var options CompleteOptions
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

// SplitSystem separates system instructions from the conversation turns.
// Providers that take the system prompt out of band use it.
func SplitSystem(messages []models.ChatMessage) (string, []models.ChatMessage) {
	var system string
	turns := make([]models.ChatMessage, 0, len(messages))
	for _, m := range messages {
		if m.Role == models.RoleSystem {
			if system != "" {
				system += "\n\n"
			}
			system += m.Content
			continue
		}
		turns = append(turns, m)
	}
	return system, turns
}
