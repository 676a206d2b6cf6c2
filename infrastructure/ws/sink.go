// Package ws carries the websocket transport: the per-connection event
// sink and the session handler orchestrating one connection's lifecycle.
package ws

import (
	"context"
	"sync"
	"time"

	"converse/domain/event"

	"github.com/gorilla/websocket"
)

// Sink adapts a websocket connection into an event sink. Events are
// written as whole JSON frames, never partially. A mutex serializes
// writers, since direct replies and fan-out deliveries arrive from
// different goroutines.
type Sink struct {
	mu           sync.Mutex
	conn         *websocket.Conn
	writeTimeout time.Duration
}

func NewSink(conn *websocket.Conn, writeTimeout time.Duration) *Sink {
	return &Sink{conn: conn, writeTimeout: writeTimeout}
}

// Consume delivers one outbound event. The write is bounded by the
// configured timeout or the context deadline, whichever comes first; a
// returned error means the transport is unusable.
func (s *Sink) Consume(ctx context.Context, e event.Outbound) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	deadline := time.Now().Add(s.writeTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := s.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return s.conn.WriteJSON(e)
}
