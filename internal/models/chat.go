package models

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// ChatRequest is the payload sent to the chat endpoint.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the reply from the chat endpoint.
type ChatResponse struct {
	Response string `json:"response"`
}

// ErrorResponse is returned for every non-2xx status.
type ErrorResponse struct {
	Message string `json:"message"`
}
