package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"docschat/internal/llm"
	"docschat/internal/models"
	"docschat/internal/vectorstore"
)

const SystemPrompt = `You are an expert at DeepSeek, an LLM platform and API. You have access to its documentation, including API references, examples and guides.
Answer the question using the provided context. Always cite sources with their exact URLs.
If the context does not contain the answer, say so plainly instead of guessing.`

type RAGService struct {
	embedder  llm.Embedder
	store     vectorstore.Store
	completer llm.Completer
	logger    *zap.Logger
}

func NewRAGService(embedder llm.Embedder, store vectorstore.Store, completer llm.Completer, logger *zap.Logger) *RAGService {
	return &RAGService{
		embedder:  embedder,
		store:     store,
		completer: completer,
		logger:    logger,
	}
}

// Answer embeds the question, retrieves the closest documentation chunks and
// asks the completer to answer with them as context. Steps run strictly in
// order; the first failure aborts the exchange.
func (s *RAGService) Answer(ctx context.Context, message string) (string, error) {
	embedding, err := s.embedder.Embed(ctx, message)
	if err != nil {
		return "", fmt.Errorf("embedding request failed: %w", err)
	}

	docs, err := s.store.Match(ctx, embedding, vectorstore.MatchCount)
	if err != nil {
		return "", fmt.Errorf("document retrieval failed: %w", err)
	}
	s.logger.Debug("retrieved documents", zap.Int("count", len(docs)))

	reply, err := s.completer.Complete(ctx, BuildMessages(BuildContext(docs), message))
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}

	return reply, nil
}

// BuildContext renders each document as title, source line and content,
// keeping the store's ranking order.
func BuildContext(docs []models.Document) string {
	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		parts = append(parts, fmt.Sprintf("%s\nSource: %s\n%s", d.Title, d.URL, d.Content))
	}
	return strings.Join(parts, "\n\n")
}

func BuildMessages(context, question string) []models.ChatMessage {
	return []models.ChatMessage{
		{Role: models.RoleSystem, Content: SystemPrompt},
		{Role: models.RoleUser, Content: fmt.Sprintf("Context: %s\n\nQuestion: %s", context, question)},
	}
}
