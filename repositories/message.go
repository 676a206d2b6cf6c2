//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"converse/domain"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IMessageRepository interface {
	Create(conversationID uuid.UUID, senderID, value string, fileID *string) (domain.ChatMessage, error)
	List(conversationID uuid.UUID, cursor *string) ([]domain.ChatMessage, *string, error)
	Last(conversationID uuid.UUID) (*domain.ChatMessage, error)
}

// MessageRepository persists chat messages in BadgerDB.
type MessageRepository struct {
	db    *badger.DB
	log   *slog.Logger
	limit *int
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limit *int) MessageRepository {
	return MessageRepository{db: db, log: log, limit: limit}
}

type storedMessage struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	Value          string    `json:"value"`
	FileID         *string   `json:"file_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// messageKey formats "chat:{conversation}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding
//     (lexicographical order).
//  2. Prevent data loss by using the UUID as a collision disconnector if
//     two messages arrive at the same nanosecond.
func messageKey(conversationID uuid.UUID, at time.Time, id uuid.UUID) []byte {
	return []byte(fmt.Sprintf("chat:%s:%019d:%s", conversationID, at.UnixNano(), id))
}

func messagePrefix(conversationID uuid.UUID) []byte {
	return []byte(fmt.Sprintf("chat:%s:", conversationID))
}

// Create persists a new chat message and returns its canonical record,
// identifier and timestamps freshly generated here.
func (m MessageRepository) Create(conversationID uuid.UUID, senderID, value string, fileID *string) (domain.ChatMessage, error) {
	now := time.Now().UTC()
	record := storedMessage{
		ID:             uuid.New(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Value:          value,
		FileID:         fileID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	bytes, err := json.Marshal(record)
	if err != nil {
		return domain.ChatMessage{}, err
	}
	err = m.db.Update(func(txn *badger.Txn) error {
		return txn.Set(messageKey(conversationID, record.CreatedAt, record.ID), bytes)
	})
	if err != nil {
		return domain.ChatMessage{}, err
	}
	return toChatMessage(record), nil
}

// List retrieves messages for a conversation newest-first using a reverse
// prefix scan. Thanks to the padded timestamp in the key, messages are
// naturally sorted by time. The returned cursor is the key suffix of the
// last message read; passing it back resumes the scan right after it.
func (m MessageRepository) List(conversationID uuid.UUID, cursor *string) ([]domain.ChatMessage, *string, error) {
	var messages []domain.ChatMessage
	var lastKey string

	err := m.db.View(func(txn *badger.Txn) error {
		prefix := messagePrefix(conversationID)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		switch cursor {
		case nil:
			// Seek past every possible timestamp, then walk backwards.
			seekKey = append(append([]byte{}, prefix...), []byte("9999999999999999999")...)
		default:
			seekKey = append(append([]byte{}, prefix...), []byte(*cursor)...)
		}

		it.Seek(seekKey)
		if cursor != nil && it.ValidForPrefix(prefix) {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if m.limit != nil && len(messages) == *m.limit {
				m.log.Debug(fmt.Sprintf("Maximum of %d messages reached", *m.limit))
				break
			}
			item := it.Item()
			lastKey = string(item.Key()[len(prefix):])
			err := item.Value(func(val []byte) error {
				var record storedMessage
				if err := json.Unmarshal(val, &record); err != nil {
					return err
				}
				messages = append(messages, toChatMessage(record))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	if len(messages) == 0 {
		return nil, nil, nil
	}
	return messages, &lastKey, nil
}

// Last answers "most recent message for this conversation" directly from
// the key order, without scanning the whole history.
func (m MessageRepository) Last(conversationID uuid.UUID) (*domain.ChatMessage, error) {
	var last *domain.ChatMessage
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := messagePrefix(conversationID)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		seekKey := append(append([]byte{}, prefix...), []byte("9999999999999999999")...)
		it.Seek(seekKey)
		if !it.ValidForPrefix(prefix) {
			return nil
		}
		return it.Item().Value(func(val []byte) error {
			var record storedMessage
			if err := json.Unmarshal(val, &record); err != nil {
				return err
			}
			message := toChatMessage(record)
			last = &message
			return nil
		})
	})
	return last, err
}

func toChatMessage(record storedMessage) domain.ChatMessage {
	return domain.ChatMessage{
		ID:             record.ID,
		ConversationID: record.ConversationID,
		SenderID:       record.SenderID,
		Value:          record.Value,
		FileID:         record.FileID,
		CreatedAt:      record.CreatedAt,
		UpdatedAt:      record.UpdatedAt,
	}
}
