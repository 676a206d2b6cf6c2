package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConversation_HasParticipant(t *testing.T) {
	req := require.New(t)
	conversation := Conversation{Participants: []string{"alice", "bob"}}

	req.True(conversation.HasParticipant("alice"))
	req.False(conversation.HasParticipant("mallory"))
	req.False(Conversation{}.HasParticipant("alice"))
}

func TestConversation_IsDirectBetween(t *testing.T) {
	req := require.New(t)

	direct := Conversation{Participants: []string{"alice", "bob"}}
	req.True(direct.IsDirectBetween("alice", "bob"))
	req.True(direct.IsDirectBetween("bob", "alice"))
	req.False(direct.IsDirectBetween("alice", "carol"))

	group := Conversation{Participants: []string{"alice", "bob", "carol"}}
	req.False(group.IsDirectBetween("alice", "bob"))
}
