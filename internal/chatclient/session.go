package chatclient

import (
	"context"
	"strings"
	"sync"

	"docschat/internal/models"
)

// FallbackReply replaces the assistant turn whenever a request fails.
const FallbackReply = "Sorry, there was an error processing your request."

type Sender interface {
	Send(ctx context.Context, message string) (string, error)
}

// Session holds the transcript and input state of one chat window. Revision
// increases on every transcript change so views know when to scroll.
type Session struct {
	mu            sync.Mutex
	messages      []models.ChatMessage
	input         string
	awaitingReply bool
	revision      int
}

func NewSession() *Session {
	return &Session{}
}

// Submit records text as a user turn and marks a reply as pending. It returns
// the message to send, or false when text is blank or a reply is pending.
func (s *Session) Submit(text string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(text) == "" || s.awaitingReply {
		return "", false
	}

	s.appendMessage(models.ChatMessage{Role: models.RoleUser, Content: text})
	s.setAwaitingReply(true)
	return text, true
}

// Settle completes the pending exchange with exactly one assistant turn and
// resets the input. It does nothing when no reply is pending.
func (s *Session) Settle(reply string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.awaitingReply {
		return
	}
	defer func() {
		s.setAwaitingReply(false)
		s.input = ""
	}()

	if err != nil {
		reply = FallbackReply
	}
	s.appendMessage(models.ChatMessage{Role: models.RoleAssistant, Content: reply})
}

// Exchange runs a whole round trip synchronously: submit, send, settle.
func (s *Session) Exchange(ctx context.Context, sender Sender, text string) bool {
	message, ok := s.Submit(text)
	if !ok {
		return false
	}

	var (
		reply string
		err   error
	)
	defer func() { s.Settle(reply, err) }()

	reply, err = sender.Send(ctx, message)
	return true
}

func (s *Session) SetInput(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.input = text
}

func (s *Session) Input() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.input
}

func (s *Session) Messages() []models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ChatMessage(nil), s.messages...)
}

func (s *Session) AwaitingReply() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.awaitingReply
}

func (s *Session) Revision() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

func (s *Session) appendMessage(m models.ChatMessage) {
	s.messages = append(s.messages, m)
	s.revision++
}

func (s *Session) setAwaitingReply(v bool) {
	s.awaitingReply = v
}
