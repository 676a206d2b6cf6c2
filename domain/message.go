// Package domain contains core concepts of the conversation system.
// This file defines ChatMessage events and related rules.
// Messages are immutable and validated by the domain.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// ChatMessage represents an immutable chat event inside a conversation.
// The sender must be a participant of the owning conversation at creation time.
type ChatMessage struct {
	ID             uuid.UUID
	ConversationID uuid.UUID
	SenderID       string
	Value          string
	FileID         *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
