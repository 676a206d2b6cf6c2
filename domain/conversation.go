// Package domain contains core concepts of the conversation system.
// This file defines Conversation entities and related invariants.
// No runtime, network, or UI logic should be added here.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Conversation represents a named group of participant identities that
// exchange chat messages. The participant set is fixed at creation.
type Conversation struct {
	ID           uuid.UUID
	Name         string
	Participants []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasParticipant reports whether the given user identity is a member
// of this conversation.
func (c Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// IsDirectBetween reports whether this conversation is a direct one
// holding exactly the two given identities.
func (c Conversation) IsDirectBetween(a, b string) bool {
	if len(c.Participants) != 2 {
		return false
	}
	return c.HasParticipant(a) && c.HasParticipant(b)
}
