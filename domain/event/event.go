// Package event defines the wire events exchanged with connected clients.
// Outbound events are tagged variants serialized as self-describing JSON
// units; inbound frames decode into a single validated request shape.
package event

import (
	"time"

	"github.com/google/uuid"
)

// Event type tags carried in the "type" field of every outbound event.
const (
	TypeConnected        = "connected"
	TypeChat             = "chat"
	TypeUserDisconnected = "user_disconnected"
)

// Outbound is implemented by every event that can be delivered to a
// live connection.
type Outbound interface {
	ConversationID() uuid.UUID
}

// Connected acknowledges a successfully established session.
type Connected struct {
	Type         string    `json:"type"`
	Conversation uuid.UUID `json:"conversation_id"`
	UserID       string    `json:"user_id"`
}

func NewConnected(conversation uuid.UUID, userID string) Connected {
	return Connected{Type: TypeConnected, Conversation: conversation, UserID: userID}
}

func (e Connected) ConversationID() uuid.UUID { return e.Conversation }

// Chat is the canonical representation of a persisted chat message.
// The same value is used for the sender acknowledgment and for the
// broadcast to every other participant.
type Chat struct {
	Type         string    `json:"type"`
	ID           uuid.UUID `json:"id"`
	Conversation uuid.UUID `json:"conversation_id"`
	SenderID     string    `json:"sender_id"`
	Value        string    `json:"value"`
	FileID       *string   `json:"file_id"`
	CreatedAt    time.Time `json:"created_at"`
}

func (e Chat) ConversationID() uuid.UUID { return e.Conversation }

// UserDisconnected announces that a participant's connection went away,
// whatever the cause.
type UserDisconnected struct {
	Type         string    `json:"type"`
	Conversation uuid.UUID `json:"conversation_id"`
	UserID       string    `json:"user_id"`
}

func NewUserDisconnected(conversation uuid.UUID, userID string) UserDisconnected {
	return UserDisconnected{Type: TypeUserDisconnected, Conversation: conversation, UserID: userID}
}

func (e UserDisconnected) ConversationID() uuid.UUID { return e.Conversation }

// ErrorReply is sent back on the offending connection only, never broadcast.
type ErrorReply struct {
	Error        string    `json:"error"`
	Conversation uuid.UUID `json:"-"`
}

func (e ErrorReply) ConversationID() uuid.UUID { return e.Conversation }

// InboundChat is the single request shape decoded from a client frame.
// Unknown extra fields are ignored, not rejected.
type InboundChat struct {
	Value  string  `json:"value"`
	FileID *string `json:"file_id"`
}

// HasContent reports whether the frame carries at least a text value or
// an attachment reference.
func (r InboundChat) HasContent() bool {
	return r.Value != "" || (r.FileID != nil && *r.FileID != "")
}
