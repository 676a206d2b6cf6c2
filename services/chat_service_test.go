package services_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"converse/domain"
	"converse/domain/event"
	apperrors "converse/errors"
	"converse/mocks"
	"converse/moderation"
	"converse/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestModerator(t *testing.T) *moderation.Moderator {
	t.Helper()
	moderator, err := moderation.NewModerator([]string{"hate"}, '*')
	require.NoError(t, err)
	return &moderator
}

func TestChatService_IsParticipant(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	conversations := mocks.NewMockIConversationRepository(ctrl)
	messages := mocks.NewMockIMessageRepository(ctrl)
	svc := services.NewChatService(discardLogger(), conversations, messages, nil, nil)
	conversationID := uuid.New()

	t.Run("should authorize a listed participant", func(t *testing.T) {
		req := require.New(t)
		conversations.EXPECT().
			ListParticipants(conversationID).
			Return([]string{"alice", "bob"}, nil).
			Times(1)

		req.True(svc.IsParticipant("alice", conversationID))
	})

	t.Run("should deny a user missing from the list", func(t *testing.T) {
		req := require.New(t)
		conversations.EXPECT().
			ListParticipants(conversationID).
			Return([]string{"alice", "bob"}, nil).
			Times(1)

		req.False(svc.IsParticipant("mallory", conversationID))
	})

	t.Run("should deny when the lookup fails, never authorize", func(t *testing.T) {
		req := require.New(t)
		conversations.EXPECT().
			ListParticipants(conversationID).
			Return(nil, apperrors.ErrNotFound).
			Times(1)

		req.False(svc.IsParticipant("alice", conversationID))
	})
}

func TestChatService_Ingest(t *testing.T) {
	conversationID := uuid.New()
	ctx := context.Background()

	t.Run("should reject a frame that is not valid JSON", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		req := require.New(t)
		conversations := mocks.NewMockIConversationRepository(ctrl)
		messages := mocks.NewMockIMessageRepository(ctrl)
		svc := services.NewChatService(discardLogger(), conversations, messages, nil, nil)

		_, err := svc.Ingest(ctx, []byte("{not json"), conversationID, "alice")

		req.ErrorIs(err, apperrors.ErrMalformedEvent)
	})

	t.Run("should reject a frame with neither value nor file", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		req := require.New(t)
		conversations := mocks.NewMockIConversationRepository(ctrl)
		messages := mocks.NewMockIMessageRepository(ctrl)
		svc := services.NewChatService(discardLogger(), conversations, messages, nil, nil)

		_, err := svc.Ingest(ctx, []byte("{}"), conversationID, "alice")

		req.ErrorIs(err, apperrors.ErrMalformedEvent)
	})

	t.Run("should reject a sender who is not a participant", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		req := require.New(t)
		conversations := mocks.NewMockIConversationRepository(ctrl)
		messages := mocks.NewMockIMessageRepository(ctrl)
		svc := services.NewChatService(discardLogger(), conversations, messages, nil, nil)

		conversations.EXPECT().
			ListParticipants(conversationID).
			Return([]string{"bob", "carol"}, nil).
			Times(1)
		messages.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		_, err := svc.Ingest(ctx, []byte(`{"value":"hi"}`), conversationID, "mallory")

		req.ErrorIs(err, apperrors.ErrUnauthorized)
	})

	t.Run("should wrap a store failure as a persistence error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		req := require.New(t)
		conversations := mocks.NewMockIConversationRepository(ctrl)
		messages := mocks.NewMockIMessageRepository(ctrl)
		svc := services.NewChatService(discardLogger(), conversations, messages, nil, nil)

		conversations.EXPECT().
			ListParticipants(conversationID).
			Return([]string{"alice"}, nil).
			Times(1)
		messages.EXPECT().
			Create(conversationID, "alice", "hi", nil).
			Return(domain.ChatMessage{}, errors.New("disk full")).
			Times(1)

		_, err := svc.Ingest(ctx, []byte(`{"value":"hi"}`), conversationID, "alice")

		req.ErrorIs(err, apperrors.ErrPersistence)
	})

	t.Run("should censor, persist, index and return the canonical event", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		req := require.New(t)
		conversations := mocks.NewMockIConversationRepository(ctrl)
		messages := mocks.NewMockIMessageRepository(ctrl)
		index := mocks.NewMockIIndex(ctrl)
		svc := services.NewChatService(discardLogger(), conversations, messages, newTestModerator(t), index)

		stored := domain.ChatMessage{
			ID:             uuid.New(),
			ConversationID: conversationID,
			SenderID:       "alice",
			Value:          "I **** mondays",
		}
		conversations.EXPECT().
			ListParticipants(conversationID).
			Return([]string{"alice", "bob"}, nil).
			Times(1)
		messages.EXPECT().
			Create(conversationID, "alice", "I **** mondays", nil).
			Return(stored, nil).
			Times(1)
		index.EXPECT().IndexMessage(stored).Return(nil).Times(1)

		chatEvent, err := svc.Ingest(ctx, []byte(`{"value":"I hate mondays"}`), conversationID, "alice")

		req.NoError(err)
		req.Equal(event.TypeChat, chatEvent.Type)
		req.Equal(stored.ID, chatEvent.ID)
		req.Equal(conversationID, chatEvent.ConversationID())
		req.Equal("alice", chatEvent.SenderID)
		req.Equal("I **** mondays", chatEvent.Value)
	})

	t.Run("should accept a file-only frame", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		req := require.New(t)
		conversations := mocks.NewMockIConversationRepository(ctrl)
		messages := mocks.NewMockIMessageRepository(ctrl)
		svc := services.NewChatService(discardLogger(), conversations, messages, newTestModerator(t), nil)

		conversations.EXPECT().
			ListParticipants(conversationID).
			Return([]string{"alice"}, nil).
			Times(1)
		messages.EXPECT().
			Create(conversationID, "alice", "", gomock.Not(gomock.Nil())).
			DoAndReturn(func(id uuid.UUID, sender, value string, fileID *string) (domain.ChatMessage, error) {
				return domain.ChatMessage{ID: uuid.New(), ConversationID: id, SenderID: sender, FileID: fileID}, nil
			}).
			Times(1)

		chatEvent, err := svc.Ingest(ctx, []byte(`{"file_id":"file-1"}`), conversationID, "alice")

		req.NoError(err)
		req.NotNil(chatEvent.FileID)
		req.Equal("file-1", *chatEvent.FileID)
	})

	t.Run("should survive an indexing failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		req := require.New(t)
		conversations := mocks.NewMockIConversationRepository(ctrl)
		messages := mocks.NewMockIMessageRepository(ctrl)
		index := mocks.NewMockIIndex(ctrl)
		svc := services.NewChatService(discardLogger(), conversations, messages, nil, index)

		stored := domain.ChatMessage{ID: uuid.New(), ConversationID: conversationID, SenderID: "alice", Value: "hi"}
		conversations.EXPECT().
			ListParticipants(conversationID).
			Return([]string{"alice"}, nil).
			Times(1)
		messages.EXPECT().
			Create(conversationID, "alice", "hi", nil).
			Return(stored, nil).
			Times(1)
		index.EXPECT().IndexMessage(stored).Return(errors.New("index offline")).Times(1)

		chatEvent, err := svc.Ingest(ctx, []byte(`{"value":"hi"}`), conversationID, "alice")

		req.NoError(err)
		req.Equal("hi", chatEvent.Value)
	})
}
