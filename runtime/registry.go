//go:generate go run go.uber.org/mock/mockgen -source=registry.go -destination=../mocks/mock_registry.go -package=mocks
package runtime

import (
	"sync"

	"github.com/google/uuid"
)

type connSet map[*Conn]struct{}

type IRegistry interface {
	Register(conversation uuid.UUID, conn *Conn)
	Unregister(conversation uuid.UUID, conn *Conn)
	Snapshot(conversation uuid.UUID) []*Conn
}

// Registry tracks which live connections belong to which conversation.
// It is the only state shared across connection goroutines; all access
// goes through Register/Unregister/Snapshot so the locking discipline
// stays fully encapsulated here.
type Registry struct {
	mu            sync.RWMutex
	conversations map[uuid.UUID]connSet
}

func NewRegistry() *Registry {
	return &Registry{conversations: make(map[uuid.UUID]connSet)}
}

// Register adds a connection to the conversation's set, creating the set
// if the conversation has no live connection yet.
func (r *Registry) Register(conversation uuid.UUID, conn *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conversations[conversation]; !ok {
		r.conversations[conversation] = make(connSet)
	}
	r.conversations[conversation][conn] = struct{}{}
}

// Unregister removes a connection if present. Removing an absent
// connection is a no-op, because disconnect cleanup may race with
// duplicate teardown triggers. The conversation entry is pruned as soon
// as its set becomes empty, so memory stays bounded to active
// conversations only.
func (r *Registry) Unregister(conversation uuid.UUID, conn *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.conversations[conversation]
	if !ok {
		return
	}
	delete(set, conn)
	if len(set) == 0 {
		delete(r.conversations, conversation)
	}
}

// Snapshot returns a point-in-time copy of the conversation's live
// connections. Callers iterate and deliver on the copy so no lock is
// held during I/O: delivery never blocks registry mutation, and vice
// versa.
func (r *Registry) Snapshot(conversation uuid.UUID) []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set, ok := r.conversations[conversation]
	if !ok {
		return nil
	}
	conns := make([]*Conn, 0, len(set))
	for c := range set {
		conns = append(conns, c)
	}
	return conns
}

// ActiveConversations reports how many conversations currently hold at
// least one live connection.
func (r *Registry) ActiveConversations() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conversations)
}

// ActiveConnections reports the total number of live connections.
func (r *Registry) ActiveConnections() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int
	for _, set := range r.conversations {
		n += len(set)
	}
	return n
}
