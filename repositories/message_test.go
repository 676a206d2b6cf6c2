package repositories

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"converse/domain"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *badger.DB {
	t.Helper()
	options := badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.WARNING)
	db, err := badger.Open(options)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func messageValues(messages []domain.ChatMessage) []string {
	return lo.Map(messages, func(m domain.ChatMessage, _ int) string { return m.Value })
}

func seedMessages(t *testing.T, repo MessageRepository, conversationID uuid.UUID, values ...string) {
	t.Helper()
	for _, value := range values {
		_, err := repo.Create(conversationID, "alice", value, nil)
		require.NoError(t, err)
		// Keys are ordered by creation nanosecond; spacing them out keeps
		// the expected order deterministic.
		time.Sleep(time.Millisecond)
	}
}

func TestMessageRepository_Create(t *testing.T) {
	req := require.New(t)
	repo := NewMessageRepository(newTestDB(t), testLogger(), nil)
	conversationID := uuid.New()

	fileID := "file-123"
	message, err := repo.Create(conversationID, "alice", "hello", &fileID)

	req.NoError(err)
	req.NotEqual(uuid.Nil, message.ID)
	req.Equal(conversationID, message.ConversationID)
	req.Equal("alice", message.SenderID)
	req.Equal("hello", message.Value)
	req.Equal(&fileID, message.FileID)
	req.False(message.CreatedAt.IsZero())
	req.Equal(message.CreatedAt, message.UpdatedAt)
}

func TestMessageRepository_List(t *testing.T) {
	t.Run("should return messages newest first", func(t *testing.T) {
		req := require.New(t)
		repo := NewMessageRepository(newTestDB(t), testLogger(), nil)
		conversationID := uuid.New()
		seedMessages(t, repo, conversationID, "first", "second", "third")

		messages, cursor, err := repo.List(conversationID, nil)

		req.NoError(err)
		req.NotNil(cursor)
		req.Equal([]string{"third", "second", "first"}, messageValues(messages))
	})

	t.Run("should resume after the cursor without duplicates", func(t *testing.T) {
		req := require.New(t)
		limit := 2
		repo := NewMessageRepository(newTestDB(t), testLogger(), &limit)
		conversationID := uuid.New()
		seedMessages(t, repo, conversationID, "one", "two", "three", "four", "five")

		firstPage, cursor, err := repo.List(conversationID, nil)
		req.NoError(err)
		req.Equal([]string{"five", "four"}, messageValues(firstPage))
		req.NotNil(cursor)

		secondPage, cursor, err := repo.List(conversationID, cursor)
		req.NoError(err)
		req.Equal([]string{"three", "two"}, messageValues(secondPage))
		req.NotNil(cursor)

		thirdPage, _, err := repo.List(conversationID, cursor)
		req.NoError(err)
		req.Equal([]string{"one"}, messageValues(thirdPage))
	})

	t.Run("should return nothing for an empty conversation", func(t *testing.T) {
		req := require.New(t)
		repo := NewMessageRepository(newTestDB(t), testLogger(), nil)

		messages, cursor, err := repo.List(uuid.New(), nil)

		req.NoError(err)
		req.Empty(messages)
		req.Nil(cursor)
	})

	t.Run("should keep conversations isolated", func(t *testing.T) {
		req := require.New(t)
		repo := NewMessageRepository(newTestDB(t), testLogger(), nil)
		conversationA := uuid.New()
		conversationB := uuid.New()
		seedMessages(t, repo, conversationA, "for A")
		seedMessages(t, repo, conversationB, "for B")

		messages, _, err := repo.List(conversationA, nil)

		req.NoError(err)
		req.Equal([]string{"for A"}, messageValues(messages))
	})
}

func TestMessageRepository_Last(t *testing.T) {
	t.Run("should return the most recent message", func(t *testing.T) {
		req := require.New(t)
		repo := NewMessageRepository(newTestDB(t), testLogger(), nil)
		conversationID := uuid.New()
		seedMessages(t, repo, conversationID, "old", "newer", "newest")

		last, err := repo.Last(conversationID)

		req.NoError(err)
		req.NotNil(last)
		req.Equal("newest", last.Value)
	})

	t.Run("should return nil for an empty conversation", func(t *testing.T) {
		req := require.New(t)
		repo := NewMessageRepository(newTestDB(t), testLogger(), nil)

		last, err := repo.Last(uuid.New())

		req.NoError(err)
		req.Nil(last)
	})
}
