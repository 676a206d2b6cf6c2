//go:generate go run go.uber.org/mock/mockgen -source=conversation_service.go -destination=../mocks/mock_conversation_service.go -package=mocks
package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"converse/domain"
	apperrors "converse/errors"
	"converse/repositories"
	"converse/search"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// firstChatValue seeds every new conversation so listings always have a
// last chat to show.
const firstChatValue = "Conversation started"

type IConversationService interface {
	StartDirect(meID, participantID string) (ConversationDetail, error)
	CreateGroup(meID, name string, participantIDs []string) (ConversationDetail, error)
	List(meID string, page, pageSize int) ([]ConversationDetail, error)
	History(meID string, conversationID uuid.UUID, cursor *string) ([]domain.ChatMessage, *string, error)
	SearchChats(ctx context.Context, meID string, conversationID uuid.UUID, terms string, limit int) ([]search.Hit, error)
}

// ConversationDetail pairs a conversation with its most recent chat.
type ConversationDetail struct {
	Conversation domain.Conversation
	LastChat     *domain.ChatMessage
}

type ConversationService struct {
	conversations repositories.IConversationRepository
	messages      repositories.IMessageRepository
	users         repositories.IUserRepository
	index         search.IIndex
}

func NewConversationService(
	conversations repositories.IConversationRepository,
	messages repositories.IMessageRepository,
	users repositories.IUserRepository,
	index search.IIndex) *ConversationService {
	return &ConversationService{
		conversations: conversations,
		messages:      messages,
		users:         users,
		index:         index,
	}
}

// StartDirect starts a direct conversation with another user, reusing an
// existing one when a conversation with exactly those two participants
// already exists.
func (s *ConversationService) StartDirect(meID, participantID string) (ConversationDetail, error) {
	if participantID == meID {
		return ConversationDetail{}, apperrors.ErrSelfConversation
	}

	other, err := s.users.GetByID(participantID)
	if err != nil {
		return ConversationDetail{}, fmt.Errorf("%w: %s", apperrors.ErrUnknownParticipant, participantID)
	}

	existing, err := s.conversations.ListFor(meID)
	if err != nil {
		return ConversationDetail{}, err
	}
	for _, conversation := range existing {
		if conversation.IsDirectBetween(meID, participantID) {
			return s.withLastChat(conversation)
		}
	}

	me, err := s.users.GetByID(meID)
	if err != nil {
		return ConversationDetail{}, err
	}
	name := fmt.Sprintf("%s and %s", me.DisplayName(), other.DisplayName())
	return s.create(name, []string{meID, participantID}, meID)
}

// CreateGroup creates a group conversation. Duplicates are removed, the
// creator is always included, and every referenced participant must
// exist.
func (s *ConversationService) CreateGroup(meID, name string, participantIDs []string) (ConversationDetail, error) {
	if name == "" {
		return ConversationDetail{}, apperrors.ErrMissingGroupName
	}
	if len(participantIDs) == 0 {
		return ConversationDetail{}, apperrors.ErrNoParticipants
	}

	ids := lo.Uniq(append(participantIDs, meID))
	for _, id := range ids {
		if _, err := s.users.GetByID(id); err != nil {
			return ConversationDetail{}, fmt.Errorf("%w: %s", apperrors.ErrUnknownParticipant, id)
		}
	}

	return s.create(name, ids, meID)
}

func (s *ConversationService) create(name string, participants []string, creatorID string) (ConversationDetail, error) {
	conversation, err := s.conversations.Create(name, participants)
	if err != nil {
		return ConversationDetail{}, err
	}
	first, err := s.messages.Create(conversation.ID, creatorID, firstChatValue, nil)
	if err != nil {
		return ConversationDetail{}, fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	return ConversationDetail{Conversation: conversation, LastChat: &first}, nil
}

// List returns the caller's conversations, most recently active first,
// each with its latest chat. "Latest chat" is answered directly by the
// message store from its key order, not by scanning recent history.
func (s *ConversationService) List(meID string, page, pageSize int) ([]ConversationDetail, error) {
	conversations, err := s.conversations.ListFor(meID)
	if err != nil {
		return nil, err
	}

	details := make([]ConversationDetail, 0, len(conversations))
	for _, conversation := range conversations {
		detail, err := s.withLastChat(conversation)
		if err != nil {
			return nil, err
		}
		details = append(details, detail)
	}

	sort.Slice(details, func(i, j int) bool {
		return lastActivity(details[i]).After(lastActivity(details[j]))
	})

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	start := (page - 1) * pageSize
	if start >= len(details) {
		return []ConversationDetail{}, nil
	}
	end := min(start+pageSize, len(details))
	return details[start:end], nil
}

// History returns a cursor-paginated slice of the conversation's chats,
// newest first. Only participants may read it.
func (s *ConversationService) History(meID string, conversationID uuid.UUID, cursor *string) ([]domain.ChatMessage, *string, error) {
	if err := s.requireParticipant(meID, conversationID); err != nil {
		return nil, nil, err
	}
	return s.messages.List(conversationID, cursor)
}

// SearchChats runs a full-text query over the conversation's messages.
func (s *ConversationService) SearchChats(ctx context.Context, meID string, conversationID uuid.UUID, terms string, limit int) ([]search.Hit, error) {
	if err := s.requireParticipant(meID, conversationID); err != nil {
		return nil, err
	}
	if s.index == nil {
		return nil, nil
	}
	return s.index.Search(ctx, conversationID, terms, limit)
}

func (s *ConversationService) requireParticipant(meID string, conversationID uuid.UUID) error {
	conversation, err := s.conversations.Get(conversationID)
	if err != nil {
		return err
	}
	if !conversation.HasParticipant(meID) {
		return apperrors.ErrUnauthorized
	}
	return nil
}

func (s *ConversationService) withLastChat(conversation domain.Conversation) (ConversationDetail, error) {
	last, err := s.messages.Last(conversation.ID)
	if err != nil {
		return ConversationDetail{}, err
	}
	return ConversationDetail{Conversation: conversation, LastChat: last}, nil
}

func lastActivity(detail ConversationDetail) time.Time {
	if detail.LastChat != nil {
		return detail.LastChat.CreatedAt
	}
	return detail.Conversation.UpdatedAt
}
