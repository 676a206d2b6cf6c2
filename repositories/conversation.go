//go:generate go run go.uber.org/mock/mockgen -source=conversation.go -destination=../mocks/mock_conversation_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"converse/domain"
	apperrors "converse/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IConversationRepository interface {
	Create(name string, participants []string) (domain.Conversation, error)
	Get(id uuid.UUID) (domain.Conversation, error)
	ListParticipants(id uuid.UUID) ([]string, error)
	ListFor(userID string) ([]domain.Conversation, error)
}

// ConversationRepository persists conversations in BadgerDB.
//
// Two key families are maintained:
//  1. "conv:{uuid}" -> the conversation record.
//  2. "convuser:{user_id}:{uuid}" -> empty marker, one per participant,
//     so listing a user's conversations is a single prefix scan instead
//     of a full table walk.
type ConversationRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewConversationRepository(db *badger.DB, log *slog.Logger) ConversationRepository {
	return ConversationRepository{db: db, log: log}
}

type storedConversation struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Participants []string  `json:"participants"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func conversationKey(id uuid.UUID) []byte {
	return []byte("conv:" + id.String())
}

func memberKey(userID string, id uuid.UUID) []byte {
	return []byte(fmt.Sprintf("convuser:%s:%s", userID, id))
}

// Create persists a new conversation together with one membership marker
// per participant, in a single transaction.
func (r ConversationRepository) Create(name string, participants []string) (domain.Conversation, error) {
	now := time.Now().UTC()
	record := storedConversation{
		ID:           uuid.New(),
		Name:         name,
		Participants: participants,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	bytes, err := json.Marshal(record)
	if err != nil {
		return domain.Conversation{}, err
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(conversationKey(record.ID), bytes); err != nil {
			return err
		}
		for _, p := range record.Participants {
			if err := txn.Set(memberKey(p, record.ID), nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.Conversation{}, err
	}
	return toConversation(record), nil
}

func (r ConversationRepository) Get(id uuid.UUID) (domain.Conversation, error) {
	var record storedConversation
	err := r.db.View(func(txn *badger.Txn) error {
		return readJSON(txn, conversationKey(id), &record)
	})
	if err != nil {
		return domain.Conversation{}, err
	}
	return toConversation(record), nil
}

func (r ConversationRepository) ListParticipants(id uuid.UUID) ([]string, error) {
	conversation, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	return conversation.Participants, nil
}

// ListFor returns every conversation the user participates in, resolved
// from the membership markers within one read transaction.
func (r ConversationRepository) ListFor(userID string) ([]domain.Conversation, error) {
	var conversations []domain.Conversation
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte("convuser:" + userID + ":")
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := string(it.Item().Key())
			rawID := strings.TrimPrefix(key, string(prefix))
			id, err := uuid.Parse(rawID)
			if err != nil {
				r.log.Warn("skipping corrupt membership key", "key", key)
				continue
			}
			var record storedConversation
			if err := readJSON(txn, conversationKey(id), &record); err != nil {
				return err
			}
			conversations = append(conversations, toConversation(record))
		}
		return nil
	})
	return conversations, err
}

// readJSON fetches and decodes one value, translating a missing key into
// the domain's ErrNotFound.
func readJSON(txn *badger.Txn, key []byte, dst any) error {
	item, err := txn.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return fmt.Errorf("%w: %s", apperrors.ErrNotFound, key)
		}
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, dst)
	})
}

func toConversation(record storedConversation) domain.Conversation {
	return domain.Conversation{
		ID:           record.ID,
		Name:         record.Name,
		Participants: record.Participants,
		CreatedAt:    record.CreatedAt,
		UpdatedAt:    record.UpdatedAt,
	}
}
