package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"docschat/internal/middleware"
	"docschat/internal/models"
)

type chatAnswerer interface {
	Answer(ctx context.Context, message string) (string, error)
}

type ChatHandler struct {
	rag    chatAnswerer
	logger *zap.Logger
}

func NewChatHandler(rag chatAnswerer, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{rag: rag, logger: logger}
}

// Chat answers one message. The body is not validated: an empty or malformed
// body leaves the message empty and the upstream embedding call decides.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResp(msgMethodNotAllowed))
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			h.fail(w, r, fmt.Errorf("panic: %v", rec))
		}
	}()

	var req models.ChatRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	reply, err := h.rag.Answer(r.Context(), req.Message)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.ChatResponse{Response: reply})
}

func (h *ChatHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("chat request failed",
		zap.Error(err),
		zap.String("request_id", middleware.GetRequestID(r.Context())),
	)
	writeJSON(w, http.StatusInternalServerError, errorResp(msgInternalError))
}
