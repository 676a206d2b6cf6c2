// Package runtime owns the in-process connection state: the registry of
// live connections per conversation and the broadcast fan-out. It
// orchestrates delivery without containing business logic or domain rules.
package runtime

import (
	"context"

	"converse/contract"
	"converse/domain/event"

	"github.com/google/uuid"
)

// Conn is the runtime-only handle for one active client transport
// session. It is created once a session completes authorization and
// destroyed when the underlying transport closes or fails, by any cause.
type Conn struct {
	ID           uuid.UUID
	Conversation uuid.UUID
	UserID       string

	sink  contract.EventSink
	close func()
}

// NewConn binds a send capability and a close hook to a fresh connection
// identifier. The close hook tears down the underlying transport; it must
// be safe to call more than once.
func NewConn(conversation uuid.UUID, userID string, sink contract.EventSink, close func()) *Conn {
	return &Conn{
		ID:           uuid.New(),
		Conversation: conversation,
		UserID:       userID,
		sink:         sink,
		close:        close,
	}
}

// Deliver pushes one outbound event through the connection's sink.
func (c *Conn) Deliver(ctx context.Context, e event.Outbound) error {
	return c.sink.Consume(ctx, e)
}

// Close shuts the underlying transport down.
func (c *Conn) Close() {
	if c.close != nil {
		c.close()
	}
}
