package runtime

import (
	"context"
	"log/slog"
	"time"

	"converse/domain/event"

	"github.com/google/uuid"
)

type IBroadcaster interface {
	Broadcast(ctx context.Context, conversation uuid.UUID, e event.Outbound)
}

// Fanout delivers one canonical event to every connection currently
// registered for a conversation.
//
// It provides best-effort fan-out: delivery order across recipients is
// unspecified and there are no retries. What it does guarantee is that
// every recipient gets the identical payload, and that a failure on one
// connection never aborts delivery to the remaining ones.
type Fanout struct {
	log             *slog.Logger
	registry        IRegistry
	deliveryTimeout time.Duration
}

func NewFanout(log *slog.Logger, registry IRegistry, deliveryTimeout time.Duration) *Fanout {
	return &Fanout{log: log, registry: registry, deliveryTimeout: deliveryTimeout}
}

// Broadcast snapshots the conversation's connections, then attempts
// delivery to each one independently. A connection whose delivery fails
// is unregistered and closed on the spot; this is how dead connections
// get reaped without a separate heartbeat pass.
func (f *Fanout) Broadcast(ctx context.Context, conversation uuid.UUID, e event.Outbound) {
	for _, conn := range f.registry.Snapshot(conversation) {
		deliverCtx, cancel := context.WithTimeout(ctx, f.deliveryTimeout)
		err := conn.Deliver(deliverCtx, e)
		cancel()
		if err == nil {
			continue
		}
		f.log.Warn("dropping unreachable connection",
			"conn_id", conn.ID,
			"user_id", conn.UserID,
			"conversation_id", conversation,
			"error", err)
		f.registry.Unregister(conversation, conn)
		conn.Close()
	}
}
