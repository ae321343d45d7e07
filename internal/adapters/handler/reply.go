package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"messenger-inbox/internal/adapters/dto"
	"messenger-inbox/internal/adapters/gateway"
	"messenger-inbox/internal/core/domain"
	"messenger-inbox/internal/core/ports"
	"messenger-inbox/internal/core/services"
)

// ReplyDispatcher posts an outbound reply for an existing conversation.
type ReplyDispatcher interface {
	Reply(ctx context.Context, conv *domain.Conversation, text string) (*dto.SendResponse, error)
}

// ReplyHandler exposes the outbound reply endpoint. The dispatcher itself
// stays side-effect-free toward the store; this handler persists the outbound
// message once the platform accepted it.
type ReplyHandler struct {
	replier       ReplyDispatcher
	conversations ports.ConversationRepository
	messages      ports.MessageRepository
}

// NewReplyHandler creates a new reply handler.
func NewReplyHandler(replier ReplyDispatcher, conversations ports.ConversationRepository, messages ports.MessageRepository) *ReplyHandler {
	return &ReplyHandler{
		replier:       replier,
		conversations: conversations,
		messages:      messages,
	}
}

// RegisterReplyRoutes mounts the reply endpoint.
func RegisterReplyRoutes(r chi.Router, h *ReplyHandler) {
	r.Post("/api/conversations/{conversationID}/reply", h.HandleReply)
}

// HandleReply handles POST /api/conversations/{conversationID}/reply with a
// body of {"text": "..."}.
func (h *ReplyHandler) HandleReply(w http.ResponseWriter, r *http.Request) {
	conversationID, err := strconv.ParseInt(chi.URLParam(r, "conversationID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid conversation id")
		return
	}

	var payload struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if payload.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	conv, err := h.conversations.GetConversation(r.Context(), conversationID)
	if err != nil {
		slog.Error("Failed to load conversation", "conversation_id", conversationID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load conversation")
		return
	}
	if conv == nil {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}

	sendResp, err := h.replier.Reply(r.Context(), conv, payload.Text)
	if err != nil {
		var confErr *services.ConfigurationError
		var platErr *gateway.PlatformError
		switch {
		case errors.As(err, &confErr):
			slog.Warn("Reply to unconfigured application", "conversation_id", conversationID, "error", err)
			writeError(w, http.StatusConflict, confErr.Error())
		case errors.As(err, &platErr):
			slog.Error("Reply send failed", "conversation_id", conversationID, "error", err)
			writeError(w, http.StatusBadGateway, "failed to send reply")
		default:
			slog.Error("Reply failed", "conversation_id", conversationID, "error", err)
			writeError(w, http.StatusInternalServerError, "reply failed")
		}
		return
	}

	// Record the outbound message so the thread reads symmetrically with the
	// inbound flow. A failed write here does not undo the send.
	msg := &domain.Message{
		ConversationID: conv.ID,
		CustomerID:     conv.CustomerID,
		Content:        payload.Text,
		Internal:       false,
		CreatedAt:      time.Now(),
	}
	if _, err := h.messages.CreateMessage(r.Context(), msg); err != nil {
		slog.Error("Failed to persist outbound message", "conversation_id", conv.ID, "error", err)
	}

	writeJSON(w, http.StatusOK, "Success", sendResp)
}
