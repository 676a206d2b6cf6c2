package runtime_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"converse/domain/event"
	"converse/mocks"
	"converse/runtime"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var errTransportDead = io.ErrClosedPipe

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFanout_Broadcast(t *testing.T) {
	t.Run("should deliver the identical event to every connection", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		req := require.New(t)

		registry := runtime.NewRegistry()
		conversation := uuid.New()
		payload := event.NewConnected(conversation, "alice")

		var delivered []event.Outbound
		for _, userID := range []string{"alice", "bob", "carol"} {
			sink := mocks.NewMockEventSink(ctrl)
			sink.EXPECT().
				Consume(gomock.Any(), payload).
				DoAndReturn(func(_ context.Context, e event.Outbound) error {
					delivered = append(delivered, e)
					return nil
				}).
				Times(1)
			registry.Register(conversation, runtime.NewConn(conversation, userID, sink, func() {}))
		}

		fanout := runtime.NewFanout(discardLogger(), registry, time.Second)
		fanout.Broadcast(context.Background(), conversation, payload)

		req.Len(delivered, 3)
		for _, e := range delivered {
			req.Equal(payload, e)
		}
		req.Equal(3, registry.ActiveConnections())
	})

	t.Run("should reap a failing connection without aborting the batch", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		req := require.New(t)

		registry := runtime.NewRegistry()
		conversation := uuid.New()
		payload := event.NewUserDisconnected(conversation, "dave")

		healthy := mocks.NewMockEventSink(ctrl)
		healthy.EXPECT().Consume(gomock.Any(), payload).Return(nil).Times(2)

		dead := mocks.NewMockEventSink(ctrl)
		dead.EXPECT().Consume(gomock.Any(), payload).Return(errTransportDead).Times(1)

		var closed bool
		deadConn := runtime.NewConn(conversation, "bob", dead, func() { closed = true })
		registry.Register(conversation, runtime.NewConn(conversation, "alice", healthy, func() {}))
		registry.Register(conversation, deadConn)
		registry.Register(conversation, runtime.NewConn(conversation, "carol", healthy, func() {}))

		fanout := runtime.NewFanout(discardLogger(), registry, time.Second)
		fanout.Broadcast(context.Background(), conversation, payload)

		req.True(closed)
		req.Equal(2, registry.ActiveConnections())
		for _, conn := range registry.Snapshot(conversation) {
			req.NotSame(deadConn, conn)
		}
	})

	t.Run("should be a no-op for a conversation with no connections", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		registry := mocks.NewMockIRegistry(ctrl)
		conversation := uuid.New()
		registry.EXPECT().Snapshot(conversation).Return(nil).Times(1)

		fanout := runtime.NewFanout(discardLogger(), registry, time.Second)
		fanout.Broadcast(context.Background(), conversation, event.NewConnected(conversation, "alice"))
	})
}
