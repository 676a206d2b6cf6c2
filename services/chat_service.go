//go:generate go run go.uber.org/mock/mockgen -source=chat_service.go -destination=../mocks/mock_chat_service.go -package=mocks
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"converse/domain/event"
	apperrors "converse/errors"
	"converse/moderation"
	"converse/repositories"
	"converse/search"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type IChatService interface {
	IsParticipant(userID string, conversationID uuid.UUID) bool
	Ingest(ctx context.Context, raw []byte, conversationID uuid.UUID, senderID string) (event.Chat, error)
}

// ChatService runs the message ingest pipeline: structural validation,
// authorization, moderation, persistence, canonicalization.
type ChatService struct {
	log           *slog.Logger
	conversations repositories.IConversationRepository
	messages      repositories.IMessageRepository
	moderator     *moderation.Moderator
	index         search.IIndex
}

func NewChatService(log *slog.Logger,
	conversations repositories.IConversationRepository,
	messages repositories.IMessageRepository,
	moderator *moderation.Moderator,
	index search.IIndex) *ChatService {
	return &ChatService{
		log:           log,
		conversations: conversations,
		messages:      messages,
		moderator:     moderator,
		index:         index,
	}
}

// IsParticipant decides membership of a user in a conversation. It fails
// closed: any store error (not-found included) yields "not authorized",
// never "authorized".
func (s *ChatService) IsParticipant(userID string, conversationID uuid.UUID) bool {
	participants, err := s.conversations.ListParticipants(conversationID)
	if err != nil {
		s.log.Warn("participant lookup failed, denying access",
			"conversation_id", conversationID,
			"user_id", userID,
			"error", err)
		return false
	}
	return lo.Contains(participants, userID)
}

// Ingest validates an inbound frame, authorizes the sender, persists the
// resulting message and returns the canonical outbound event. The same
// event value serves as the sender's acknowledgment and as the broadcast
// payload, so every recipient sees an identical structure.
//
// Authorization is re-checked per message rather than cached at connect
// time, so a long-lived connection cannot outlive its membership.
func (s *ChatService) Ingest(ctx context.Context, raw []byte, conversationID uuid.UUID, senderID string) (event.Chat, error) {
	var req event.InboundChat
	if err := json.Unmarshal(raw, &req); err != nil {
		return event.Chat{}, fmt.Errorf("%w: %v", apperrors.ErrMalformedEvent, err)
	}
	if !req.HasContent() {
		return event.Chat{}, fmt.Errorf("%w: a text value or a file reference is required", apperrors.ErrMalformedEvent)
	}

	if !s.IsParticipant(senderID, conversationID) {
		return event.Chat{}, apperrors.ErrUnauthorized
	}

	value := req.Value
	if s.moderator != nil && value != "" {
		sanitized, censored := s.moderator.Censor(value)
		if len(censored) > 0 {
			s.log.Debug("censored message content",
				"conversation_id", conversationID,
				"sender_id", senderID,
				"lang", moderation.DetectLanguage(value),
				"censored_words", len(censored))
		}
		value = sanitized
	}

	message, err := s.messages.Create(conversationID, senderID, value, req.FileID)
	if err != nil {
		return event.Chat{}, fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}

	if s.index != nil {
		if err := s.index.IndexMessage(message); err != nil {
			// The message is durable; the index will simply miss it.
			s.log.Warn("search indexing failed", "message_id", message.ID, "error", err)
		}
	}

	return event.Chat{
		Type:         event.TypeChat,
		ID:           message.ID,
		Conversation: message.ConversationID,
		SenderID:     message.SenderID,
		Value:        message.Value,
		FileID:       message.FileID,
		CreatedAt:    message.CreatedAt,
	}, nil
}
