package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"docschat/internal/llm"
	"docschat/internal/models"
	"docschat/internal/vectorstore"
)

type stubEmbedder struct {
	vector []float32
	err    error
	inputs []string
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	s.inputs = append(s.inputs, text)
	return s.vector, s.err
}

type stubCompleter struct {
	reply    string
	err      error
	messages [][]models.ChatMessage
}

func (s *stubCompleter) Complete(_ context.Context, messages []models.ChatMessage, _ ...llm.CompleteOption) (string, error) {
	s.messages = append(s.messages, messages)
	return s.reply, s.err
}

type stubStore struct {
	docs       []models.Document
	matchErr   error
	matchCount int
	urls       []string
	chunks     map[string][]models.PageChunk
	saved      []models.PageChunk
}

func (s *stubStore) Match(_ context.Context, _ []float32, count int) ([]models.Document, error) {
	s.matchCount = count
	return s.docs, s.matchErr
}

func (s *stubStore) ListURLs(context.Context) ([]string, error) { return s.urls, nil }

func (s *stubStore) PageChunks(_ context.Context, url string) ([]models.PageChunk, error) {
	return s.chunks[url], nil
}

func (s *stubStore) SaveChunk(_ context.Context, chunk models.PageChunk, _ bool) (vectorstore.SaveResult, error) {
	s.saved = append(s.saved, chunk)
	return vectorstore.Inserted, nil
}

func fiveDocs() []models.Document {
	docs := make([]models.Document, 5)
	for i := range docs {
		docs[i] = models.Document{
			Title:   "Doc " + string(rune('A'+i)),
			URL:     "https://api-docs.deepseek.com/" + string(rune('a'+i)),
			Content: "content " + string(rune('a'+i)),
		}
	}
	return docs
}

func TestRAGService_Answer(t *testing.T) {
	embedder := &stubEmbedder{vector: []float32{0.1, 0.2}}
	store := &stubStore{docs: fiveDocs()}
	completer := &stubCompleter{reply: "DeepSeek is an AI lab."}
	svc := NewRAGService(embedder, store, completer, zap.NewNop())

	reply, err := svc.Answer(context.Background(), "What is DeepSeek?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "DeepSeek is an AI lab." {
		t.Errorf("Expected reply, got %q", reply)
	}

	if len(embedder.inputs) != 1 || embedder.inputs[0] != "What is DeepSeek?" {
		t.Errorf("Expected the question to be embedded once, got %v", embedder.inputs)
	}
	if store.matchCount != 5 {
		t.Errorf("Expected match count 5, got %d", store.matchCount)
	}

	if len(completer.messages) != 1 {
		t.Fatalf("Expected one completion call, got %d", len(completer.messages))
	}
	msgs := completer.messages[0]
	if len(msgs) != 2 || msgs[0].Role != models.RoleSystem || msgs[1].Role != models.RoleUser {
		t.Fatalf("Expected [system, user] messages, got %+v", msgs)
	}
	if !strings.HasPrefix(msgs[1].Content, "Context: Doc A\nSource: https://api-docs.deepseek.com/a\ncontent a\n\nDoc B") {
		t.Errorf("Unexpected user turn: %q", msgs[1].Content)
	}
	if !strings.HasSuffix(msgs[1].Content, "\n\nQuestion: What is DeepSeek?") {
		t.Errorf("Expected question suffix, got %q", msgs[1].Content)
	}
}

func TestRAGService_Answer_StepFailures(t *testing.T) {
	upstream := errors.New("upstream down")

	tests := []struct {
		name           string
		embedErr       error
		matchErr       error
		completeErr    error
		wantCompletion bool
	}{
		{"embedding fails", upstream, nil, nil, false},
		{"retrieval fails", nil, upstream, nil, false},
		{"completion fails", nil, nil, upstream, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			completer := &stubCompleter{reply: "unused", err: tc.completeErr}
			svc := NewRAGService(
				&stubEmbedder{vector: []float32{1}, err: tc.embedErr},
				&stubStore{docs: fiveDocs(), matchErr: tc.matchErr},
				completer,
				zap.NewNop(),
			)

			reply, err := svc.Answer(context.Background(), "q")
			if !errors.Is(err, upstream) {
				t.Fatalf("Expected wrapped upstream error, got %v", err)
			}
			if reply != "" {
				t.Errorf("Expected no partial reply, got %q", reply)
			}
			if called := len(completer.messages) > 0; called != tc.wantCompletion {
				t.Errorf("Expected completion called=%v, got %v", tc.wantCompletion, called)
			}
		})
	}
}

func TestBuildContext(t *testing.T) {
	tests := []struct {
		name     string
		docs     []models.Document
		expected string
	}{
		{"no documents", nil, ""},
		{
			"single document",
			[]models.Document{{Title: "Intro", URL: "https://x/intro", Content: "Hello"}},
			"Intro\nSource: https://x/intro\nHello",
		},
		{
			"keeps store order",
			[]models.Document{
				{Title: "B", URL: "u2", Content: "second"},
				{Title: "A", URL: "u1", Content: "first"},
			},
			"B\nSource: u2\nsecond\n\nA\nSource: u1\nfirst",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := BuildContext(tc.docs); got != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestBuildMessages_EmptyContext(t *testing.T) {
	msgs := BuildMessages("", "hi")
	if msgs[0].Content != SystemPrompt {
		t.Errorf("Expected fixed system prompt")
	}
	if msgs[1].Content != "Context: \n\nQuestion: hi" {
		t.Errorf("Unexpected user turn %q", msgs[1].Content)
	}
}
