package llm

import (
	"testing"

	"docschat/internal/models"
)

func TestSplitSystem(t *testing.T) {
	messages := []models.ChatMessage{
		{Role: models.RoleSystem, Content: "be brief"},
		{Role: models.RoleUser, Content: "hi"},
		{Role: models.RoleSystem, Content: "cite sources"},
		{Role: models.RoleAssistant, Content: "hello"},
	}

	system, turns := SplitSystem(messages)

	if system != "be brief\n\ncite sources" {
		t.Fatalf("unexpected system prompt: %q", system)
	}
	if len(turns) != 2 || turns[0].Role != models.RoleUser || turns[1].Role != models.RoleAssistant {
		t.Fatalf("unexpected turns: %+v", turns)
	}
}

func TestNewCompleteOptions(t *testing.T) {
	if NewCompleteOptions().JSON {
		t.Fatalf("JSON should be off by default")
	}
	if !NewCompleteOptions(WithJSONResponse()).JSON {
		t.Fatalf("expected JSON to be enabled")
	}
}
