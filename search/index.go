//go:generate go run go.uber.org/mock/mockgen -source=index.go -destination=../mocks/mock_index.go -package=mocks

// Package search maintains a full-text index over persisted chat
// messages. Indexing is best-effort: a failed index write never fails
// the message itself.
package search

import (
	"context"
	"log/slog"
	"time"

	"converse/domain"

	"github.com/blugelabs/bluge"
	"github.com/google/uuid"
)

type IIndex interface {
	IndexMessage(m domain.ChatMessage) error
	Search(ctx context.Context, conversationID uuid.UUID, terms string, limit int) ([]Hit, error)
	Close() error
}

// Hit is one search result, rebuilt entirely from stored fields so no
// second lookup against the message store is needed.
type Hit struct {
	ID        uuid.UUID `json:"id"`
	SenderID  string    `json:"sender_id"`
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"created_at"`
}

// Index wraps a bluge writer over an on-disk index directory.
type Index struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewIndex(path string, log *slog.Logger) (*Index, error) {
	writer, err := bluge.OpenWriter(bluge.DefaultConfig(path))
	if err != nil {
		return nil, err
	}
	return &Index{writer: writer, log: log}, nil
}

func (i *Index) Close() error {
	return i.writer.Close()
}

// IndexMessage upserts one chat message document.
func (i *Index) IndexMessage(m domain.ChatMessage) error {
	doc := bluge.NewDocument(m.ID.String()).
		AddField(bluge.NewTextField("value", m.Value).StoreValue()).
		AddField(bluge.NewKeywordField("conversation_id", m.ConversationID.String())).
		AddField(bluge.NewKeywordField("sender_id", m.SenderID).StoreValue()).
		AddField(bluge.NewDateTimeField("created_at", m.CreatedAt).StoreValue())
	return i.writer.Update(doc.ID(), doc)
}

// Search runs a match query over message values, scoped to one
// conversation.
func (i *Index) Search(ctx context.Context, conversationID uuid.UUID, terms string, limit int) ([]Hit, error) {
	reader, err := i.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := reader.Close(); err != nil {
			i.log.Warn("failed to close index reader", "error", err)
		}
	}()

	query := bluge.NewBooleanQuery().
		AddMust(bluge.NewMatchQuery(terms).SetField("value")).
		AddMust(bluge.NewTermQuery(conversationID.String()).SetField("conversation_id"))

	iterator, err := reader.Search(ctx, bluge.NewTopNSearch(limit, query))
	if err != nil {
		return nil, err
	}

	var hits []Hit
	for {
		match, err := iterator.Next()
		if err != nil {
			return nil, err
		}
		if match == nil {
			break
		}
		var hit Hit
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "_id":
				if id, err := uuid.Parse(string(value)); err == nil {
					hit.ID = id
				}
			case "value":
				hit.Value = string(value)
			case "sender_id":
				hit.SenderID = string(value)
			case "created_at":
				if at, err := bluge.DecodeDateTime(value); err == nil {
					hit.CreatedAt = at
				}
			}
			return true
		})
		if err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}
	return hits, nil
}
